// Package userctx carries the authenticated acting user through request
// contexts. The identity is assumed to be verified upstream; services
// only consult it for ownership checks.
package userctx

import (
	"context"
	"strconv"
	"strings"
)

// User is the acting user attached to a request.
type User struct {
	ID   int64
	Role string
}

type userContextKey struct{}

// WithUser stores the acting user in the context.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// FromContext returns the acting user, if set.
func FromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(User)
	if !ok || user.ID == 0 {
		return User{}, false
	}
	return user, true
}

// UserIDFromContext returns the acting user's ID, if set.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	user, ok := FromContext(ctx)
	return user.ID, ok
}

// ParseUserID parses a user ID from its string form.
func ParseUserID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
