package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mantodeus/mantodeus-manager/internal/userctx"
)

const userIDHeader = "X-User-ID"

// UserRequired resolves the acting user for the request. Identity is
// verified by the reverse proxy upstream; single-user installs fall
// back to the configured default user.
func (s *Server) UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(userIDHeader))

		var userID int64
		if raw != "" {
			parsed, ok := userctx.ParseUserID(raw)
			if !ok {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			userID = parsed
		} else {
			userID = s.cfg.DefaultUserID
		}

		if userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := userctx.WithUser(c.Request.Context(), userctx.User{ID: userID, Role: "owner"})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) actingUserID(c *gin.Context) int64 {
	id, _ := userctx.UserIDFromContext(c.Request.Context())
	return id
}
