// Package document stores uploaded invoice documents as opaque blobs
// keyed by a generated path. The filesystem implementation is the only
// one; the interface keeps the import flow testable.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mantodeus/mantodeus-manager/internal/config"
)

var ErrNotFound = errors.New("document_not_found")

// Store persists and retrieves uploaded documents.
type Store interface {
	Save(ctx context.Context, userID int64, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type fsStore struct {
	root string
	log  *zap.Logger
}

func NewFSStore(cfg config.Config, log *zap.Logger) (Store, error) {
	root := cfg.DocumentDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &fsStore{root: root, log: log.Named("document.store")}, nil
}

// Save streams the document to disk and returns its key. The key embeds
// the user so per-user cleanup stays a directory walk.
func (s *fsStore) Save(ctx context.Context, userID int64, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), ext)

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	s.log.Debug("document stored", zap.String("key", key))
	return key, nil
}

func (s *fsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *fsStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var Module = fx.Module("document.store",
	fx.Provide(NewFSStore),
)
