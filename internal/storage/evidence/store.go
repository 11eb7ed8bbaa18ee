// Package evidence stores the photos taken at the voting kiosk.
package evidence

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that would escape the store's namespace.
var ErrInvalidKey = errors.New("invalid evidence key")

// Store persists one photo per completed vote. The returned reference is
// what gets written to the voter log and is accepted by Get and Delete.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

// validateKey accepts flat names only: no separators, no dot-dot, not empty.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." || path.Clean(key) != key {
		return ErrInvalidKey
	}
	return nil
}
