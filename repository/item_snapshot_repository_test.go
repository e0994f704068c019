package repository

import (
	"context"
	"testing"
	"time"

	"redpockets/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemSnapshotRepository_SaveAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewItemSnapshotRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing snapshot returns nil", func(t *testing.T) {
		snapshot, err := repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, snapshot)
	})

	t.Run("slots round trip through jsonb", func(t *testing.T) {
		original := testutil.CreateTestSnapshot("owner", 0, 17, 53)
		original.Slots[17].Name = "lucky pick"
		original.Slots[17].Quantity = 64

		require.NoError(t, repo.Save(ctx, original))

		loaded, err := repo.Get(ctx, "owner")
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, "owner", loaded.Owner)
		assert.Nil(t, loaded.EnvelopeID)
		assert.Equal(t, []int{0, 17, 53}, loaded.OccupiedSlots())
		assert.Equal(t, "lucky pick", loaded.Slots[17].Name)
		assert.Equal(t, 64, loaded.Slots[17].Quantity)
		assert.Nil(t, loaded.Slots[1])
	})

	t.Run("save replaces existing slots", func(t *testing.T) {
		replacement := testutil.CreateTestSnapshot("owner", 5)
		require.NoError(t, repo.Save(ctx, replacement))

		loaded, err := repo.Get(ctx, "owner")
		require.NoError(t, err)
		assert.Equal(t, []int{5}, loaded.OccupiedSlots())
	})
}

func TestItemSnapshotRepository_AssociationLifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewItemSnapshotRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	require.NoError(t, repo.Save(ctx, testutil.CreateTestSnapshot("owner", 3)))

	expiresAt := now + 3600_000
	require.NoError(t, repo.Associate(ctx, "owner", "envelope-1", expiresAt))

	loaded, err := repo.Get(ctx, "owner")
	require.NoError(t, err)
	require.NotNil(t, loaded.EnvelopeID)
	assert.Equal(t, "envelope-1", *loaded.EnvelopeID)
	assert.Equal(t, expiresAt, loaded.EnvelopeExpiresAt)
	assert.True(t, loaded.IsLocked(now))

	require.NoError(t, repo.ClearAssociation(ctx, "owner"))

	loaded, err = repo.Get(ctx, "owner")
	require.NoError(t, err)
	assert.Nil(t, loaded.EnvelopeID)
	assert.False(t, loaded.IsLocked(now))

	t.Run("associate unknown owner", func(t *testing.T) {
		err := repo.Associate(ctx, "nobody", "envelope-1", expiresAt)
		assert.Error(t, err)
	})
}

func TestItemSnapshotRepository_Delete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewItemSnapshotRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testutil.CreateTestSnapshot("owner", 1)))
	require.NoError(t, repo.Delete(ctx, "owner"))

	loaded, err := repo.Get(ctx, "owner")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
