// Package repository holds the storage backends behind the persisted stores.
// Every backend maps a store key (for example "startup-kafe-cart") to one
// opaque blob; encoding and versioning are the caller's concern.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot be mapped onto the backend.
var ErrInvalidKey = errors.New("repository: invalid key")

// Backend loads and saves one blob per key.
type Backend interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
