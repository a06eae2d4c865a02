// Package storage puts attachment bytes into an object store and hands back public URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by Delete implementations that report missing objects;
// callers treat it as success.
var ErrNotFound = errors.New("object not found")

// ObjectStore is append-only from the service's point of view: objects are
// written once under unique keys and deleted on a best-effort basis.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
