package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLiteQuotaStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.db")
	store, err := NewSQLiteQuotaStore(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Fresh database: no state yet, not an error.
	used, lastReset, err := store.Load(ctx)
	require.NoError(t, err)
	require.Zero(t, used)
	require.True(t, lastReset.IsZero())

	day := utcDayStart(time.Now())
	require.NoError(t, store.Save(ctx, 420, day))
	require.NoError(t, store.Save(ctx, 640, day)) // upsert overwrites

	used, lastReset, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(640), used)
	require.True(t, lastReset.Equal(day))
}

func TestSQLiteQuotaStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.db")
	day := utcDayStart(time.Now())
	ctx := context.Background()

	store, err := NewSQLiteQuotaStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, 9900, day))
	require.NoError(t, store.Close())

	// A restart must see the spent budget.
	store, err = NewSQLiteQuotaStore(path)
	require.NoError(t, err)
	defer store.Close()

	used, lastReset, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(9900), used)
	require.True(t, lastReset.Equal(day))
}

func TestSQLiteQuotaStoreDefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewSQLiteQuotaStore("")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), 1, utcDayStart(time.Now())))
}
