package users_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-user-service/store"
	"github.com/jrsteele09/go-user-service/store/memstore"
	"github.com/jrsteele09/go-user-service/users"
)

func newTestService(t *testing.T, options ...users.ServiceOption) *users.Service {
	t.Helper()
	service, err := users.NewService(memstore.New(), options...)
	require.NoError(t, err)
	return service
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("create returns full user with matching timestamps", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		service := newTestService(t, users.WithNowTime(func() time.Time { return now }))

		user, err := service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice Smith"})
		require.NoError(t, err)
		require.Equal(t, "alice", user.ID)
		require.Equal(t, "Alice Smith", user.Name)
		require.Equal(t, now, user.CreatedAt)
		require.Equal(t, user.CreatedAt, user.UpdatedAt)
	})

	t.Run("second create for the same id is rejected", func(t *testing.T) {
		service := newTestService(t)

		_, err := service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice Smith"})
		require.NoError(t, err)

		_, err = service.Create(ctx, users.CreateParams{ID: "alice", Name: "Other"})
		var existsErr *users.AlreadyExistsError
		require.ErrorAs(t, err, &existsErr)
		require.Equal(t, "alice", existsErr.ID)

		// The original record must be untouched.
		stored, err := service.Get(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "Alice Smith", stored.Name)
	})

	t.Run("round-trip preserves the record", func(t *testing.T) {
		service := newTestService(t)

		created, err := service.Create(ctx, users.CreateParams{ID: "bob-1", Name: "Bob"})
		require.NoError(t, err)

		fetched, err := service.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, fetched.ID)
		require.Equal(t, created.Name, fetched.Name)
		require.True(t, fetched.CreatedAt.Equal(fetched.UpdatedAt))
	})
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	cases := []struct {
		name   string
		params users.CreateParams
	}{
		{name: "empty id", params: users.CreateParams{ID: "", Name: "Alice"}},
		{name: "id with slash", params: users.CreateParams{ID: "a/b", Name: "Alice"}},
		{name: "id with space", params: users.CreateParams{ID: "a b", Name: "Alice"}},
		{name: "id with dot", params: users.CreateParams{ID: "a.b", Name: "Alice"}},
		{name: "id too long", params: users.CreateParams{ID: strings.Repeat("a", 51), Name: "Alice"}},
		{name: "empty name", params: users.CreateParams{ID: "alice", Name: ""}},
		{name: "both invalid", params: users.CreateParams{ID: "", Name: ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(ctx, tc.params)
			var validationErr *users.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Violations)
		})
	}

	t.Run("both invalid reports both violations", func(t *testing.T) {
		_, err := service.Create(ctx, users.CreateParams{ID: "", Name: ""})
		var validationErr *users.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Len(t, validationErr.Violations, 2)
	})

	t.Run("id at the length limit is accepted", func(t *testing.T) {
		_, err := service.Create(ctx, users.CreateParams{ID: strings.Repeat("a", users.MaxIDLength), Name: "Alice"})
		require.NoError(t, err)
	})

	t.Run("length violation names the bound", func(t *testing.T) {
		_, err := service.Get(ctx, strings.Repeat("a", users.MaxIDLength+1))
		var validationErr *users.ValidationError
		require.ErrorAs(t, err, &validationErr)
		require.Len(t, validationErr.Violations, 1)
		require.Contains(t, validationErr.Violations[0], "50")
	})

	t.Run("get validates the id before any lookup", func(t *testing.T) {
		_, err := service.Get(ctx, "bad/id")
		var validationErr *users.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("delete validates the id before any lookup", func(t *testing.T) {
		err := service.Delete(ctx, "")
		var validationErr *users.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	t.Run("missing id reports not found", func(t *testing.T) {
		_, err := service.Get(ctx, "bob")
		var notFoundErr *users.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		require.Equal(t, "bob", notFoundErr.ID)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete then get reports not found", func(t *testing.T) {
		service := newTestService(t)
		_, err := service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice"})
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, "alice"))

		_, err = service.Get(ctx, "alice")
		var notFoundErr *users.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})

	t.Run("double delete reports not found", func(t *testing.T) {
		service := newTestService(t)
		_, err := service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice"})
		require.NoError(t, err)

		require.NoError(t, service.Delete(ctx, "alice"))

		err = service.Delete(ctx, "alice")
		var notFoundErr *users.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		require.Equal(t, "alice", notFoundErr.ID)
	})

	t.Run("id can be reused after delete", func(t *testing.T) {
		service := newTestService(t)
		_, err := service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice"})
		require.NoError(t, err)
		require.NoError(t, service.Delete(ctx, "alice"))

		_, err = service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice Again"})
		require.NoError(t, err)
	})
}

// failingStore simulates an unhealthy backend for repository-error mapping.
type failingStore struct {
	err error
}

var _ store.Store = (*failingStore)(nil)

func (fs *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, fs.err
}

func (fs *failingStore) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	return fs.err
}

func (fs *failingStore) DeleteIfExists(ctx context.Context, key string) error {
	return fs.err
}

func TestService_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	storeFailure := errors.New("connection refused")

	service, err := users.NewService(&failingStore{err: storeFailure})
	require.NoError(t, err)

	t.Run("create wraps unknown store failures", func(t *testing.T) {
		_, err := service.Create(ctx, users.CreateParams{ID: "alice", Name: "Alice"})
		var repoErr *users.RepositoryError
		require.ErrorAs(t, err, &repoErr)
		require.ErrorIs(t, err, storeFailure)
		// The caller-facing message stays generic.
		require.Equal(t, "repository failure", repoErr.Error())
	})

	t.Run("get wraps unknown store failures", func(t *testing.T) {
		_, err := service.Get(ctx, "alice")
		var repoErr *users.RepositoryError
		require.ErrorAs(t, err, &repoErr)
	})

	t.Run("delete wraps unknown store failures", func(t *testing.T) {
		err := service.Delete(ctx, "alice")
		var repoErr *users.RepositoryError
		require.ErrorAs(t, err, &repoErr)
	})
}

func TestNewService_Validation(t *testing.T) {
	_, err := users.NewService(nil)
	require.Error(t, err)
}
