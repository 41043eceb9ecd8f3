package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-app/parley/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, store.SetItem(ctx, "k", "v1"))
	got, err := store.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	// overwrite
	require.NoError(t, store.SetItem(ctx, "k", "v2"))
	got, err = store.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, store.RemoveItem(ctx, "k"))
	_, err = store.GetItem(ctx, "k")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// removing a missing key is not an error
	require.NoError(t, store.RemoveItem(ctx, "k"))
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetItem(ctx, "profile:u1", `{"full_name":"Ada"}`))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetItem(ctx, "profile:u1")
	require.NoError(t, err)
	assert.Equal(t, `{"full_name":"Ada"}`, got)
}

func TestStore_QueryFailures(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewWithDB(db)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT value FROM cache_entries").WillReturnError(boom)
	_, err = store.GetItem(ctx, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec("INSERT INTO cache_entries").WillReturnError(boom)
	err = store.SetItem(ctx, "k", "v")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec("DELETE FROM cache_entries").WillReturnError(boom)
	err = store.RemoveItem(ctx, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
