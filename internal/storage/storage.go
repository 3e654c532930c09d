// Package storage provides the durable key/value stores that back the
// installed-plugin set and the stored credential.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// KV is a string key/value store. Implementations are safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Watcher is implemented by stores that can report changes made by other
// processes. onChange is invoked after the underlying data changed.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Open selects a backend from the DSN scheme:
//
//	memory://            process-local map
//	redis:// rediss://   Redis
//	postgres:// postgresql://
//	sqlite://<path>      SQLite database file
//	file://<path> or a bare path   JSON file
func Open(ctx context.Context, dsn string) (KV, error) {
	switch {
	case dsn == "" || dsn == "memory://":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return NewRedis(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file://"):
		return NewFile(strings.TrimPrefix(dsn, "file://"))
	case strings.Contains(dsn, "://"):
		return nil, fmt.Errorf("storage: unsupported store %q", dsn)
	default:
		return NewFile(dsn)
	}
}
