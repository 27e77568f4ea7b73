package state

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("state: store closed")

// KV is the device key-value store the game persists into. Values are opaque
// strings; callers own the encoding.
type KV interface {
	// Get reports ok=false when the key has never been written or was removed.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// Store is a KV with lifecycle and bulk read support.
type Store interface {
	KV
	EnsureSchema(ctx context.Context) error
	All(ctx context.Context) (map[string]string, error)
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
