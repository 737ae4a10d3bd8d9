// Package memstore is an in-memory Store used by tests and local development.
// It is process-local and non-durable: two service processes backed by
// separate memstores do not share a uniqueness domain, so it must never be
// deployed where the create-if-absent guarantee has to hold across processes.
package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-user-service/store"
)

var _ store.Store = (*MemStore)(nil)

type MemStore struct {
	values map[string][]byte
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		values: make(map[string][]byte),
	}
}

func (ms *MemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.lock.RLock()
	defer ms.lock.RUnlock()

	value, ok := ms.values[key]
	if !ok {
		return nil, store.ErrNotFound
	}

	// Copy so callers can't mutate the stored blob.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (ms *MemStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.lock.Lock()
	defer ms.lock.Unlock()

	if _, ok := ms.values[key]; ok {
		return store.ErrAlreadyExists
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	ms.values[key] = stored
	return nil
}

func (ms *MemStore) DeleteIfExists(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.lock.Lock()
	defer ms.lock.Unlock()

	if _, ok := ms.values[key]; !ok {
		return store.ErrNotFound
	}

	delete(ms.values, key)
	return nil
}

// Len returns the number of stored keys. Test helper.
func (ms *MemStore) Len() int {
	ms.lock.RLock()
	defer ms.lock.RUnlock()
	return len(ms.values)
}
