package memstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-user-service/store"
	"github.com/jrsteele09/go-user-service/store/memstore"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		ms := memstore.New()
		_, err := ms.Get(ctx, "alice")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		ms := memstore.New()
		require.NoError(t, ms.PutIfAbsent(ctx, "alice", []byte("value")))

		value, err := ms.Get(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, []byte("value"), value)
	})

	t.Run("second put is rejected", func(t *testing.T) {
		ms := memstore.New()
		require.NoError(t, ms.PutIfAbsent(ctx, "alice", []byte("first")))
		require.ErrorIs(t, ms.PutIfAbsent(ctx, "alice", []byte("second")), store.ErrAlreadyExists)

		value, err := ms.Get(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, []byte("first"), value)
	})

	t.Run("delete if exists", func(t *testing.T) {
		ms := memstore.New()
		require.NoError(t, ms.PutIfAbsent(ctx, "alice", []byte("value")))
		require.NoError(t, ms.DeleteIfExists(ctx, "alice"))
		require.ErrorIs(t, ms.DeleteIfExists(ctx, "alice"), store.ErrNotFound)
	})

	t.Run("stored value is isolated from caller mutation", func(t *testing.T) {
		ms := memstore.New()
		original := []byte("value")
		require.NoError(t, ms.PutIfAbsent(ctx, "alice", original))
		original[0] = 'X'

		value, err := ms.Get(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, []byte("value"), value)
	})

	t.Run("cancelled context aborts calls", func(t *testing.T) {
		ms := memstore.New()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := ms.Get(cancelled, "alice")
		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, ms.PutIfAbsent(cancelled, "alice", nil), context.Canceled)
		require.ErrorIs(t, ms.DeleteIfExists(cancelled, "alice"), context.Canceled)
	})

	t.Run("concurrent creates admit one winner", func(t *testing.T) {
		ms := memstore.New()

		const writers = 32
		var wg sync.WaitGroup
		winners := make(chan struct{}, writers)

		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := ms.PutIfAbsent(ctx, "alice", []byte("value")); err == nil {
					winners <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(winners)

		require.Len(t, winners, 1)
		require.Equal(t, 1, ms.Len())
	})
}
