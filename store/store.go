// Package store defines the key-value store contract the user service is
// built against. Keys and values are opaque blobs; callers own serialization.
//
// The store must provide an atomic create-if-absent primitive. The uniqueness
// guarantee for user IDs rests entirely on that primitive - no in-process
// locking can substitute for it once the service runs as multiple independent
// processes.
package store

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyExists is returned by PutIfAbsent when the key is present.
	ErrAlreadyExists = errors.New("key already exists")
	// ErrNotFound is returned by Get and DeleteIfExists when the key is absent.
	ErrNotFound = errors.New("key not found")
)

// Store is a key-value store with conditional writes. Implementations must
// honor the caller's context deadline on every call.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// PutIfAbsent stores value under key only if the key does not exist.
	// The existence check and the write are a single atomic operation;
	// concurrent calls for the same key admit exactly one winner.
	// Returns ErrAlreadyExists if the key is present.
	PutIfAbsent(ctx context.Context, key string, value []byte) error

	// DeleteIfExists removes key, returning ErrNotFound if it was absent.
	// The caller can rely on the result to distinguish "removed" from
	// "nothing happened".
	DeleteIfExists(ctx context.Context, key string) error
}
