package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store persists opaque values under string keys. Load returns ErrNotFound
// for keys that were never saved or have been deleted.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
