package repository

import (
	"context"
	"testing"
	"time"

	"redpockets/models"
	"redpockets/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRepository_CreateAndGetByID(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEnvelopeRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing envelope returns nil", func(t *testing.T) {
		envelope, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, envelope)
	})

	t.Run("round trip preserves all fields", func(t *testing.T) {
		original := testutil.CreateTestEnvelopeWithAmount("sender", models.EnvelopeKindRandom, 88.25, 7)
		original.Note = "good fortune"
		err := repo.Create(ctx, original)
		require.NoError(t, err)

		loaded, err := repo.GetByID(ctx, original.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, original.ID, loaded.ID)
		assert.Equal(t, original.Sender, loaded.Sender)
		assert.Equal(t, original.Kind, loaded.Kind)
		assert.Equal(t, original.TotalAmount, loaded.TotalAmount)
		assert.Equal(t, original.Count, loaded.Count)
		assert.Equal(t, original.Note, loaded.Note)
		assert.Equal(t, original.CreatedAt, loaded.CreatedAt)
		assert.Equal(t, original.ExpiresAt, loaded.ExpiresAt)
		assert.False(t, loaded.Claimed)
	})
}

func TestEnvelopeRepository_SetClaimed(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEnvelopeRepository(testDB.DB)
	ctx := context.Background()

	envelope := testutil.CreateTestEnvelope("sender", models.EnvelopeKindAverage)
	require.NoError(t, repo.Create(ctx, envelope))

	require.NoError(t, repo.SetClaimed(ctx, envelope.ID, true))

	loaded, err := repo.GetByID(ctx, envelope.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Claimed)

	t.Run("unknown envelope", func(t *testing.T) {
		err := repo.SetClaimed(ctx, "00000000-0000-0000-0000-000000000000", true)
		assert.Error(t, err)
	})
}

func TestEnvelopeRepository_Delete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	envelopeRepo := NewEnvelopeRepository(testDB.DB)
	claimRepo := NewClaimRecordRepository(testDB.DB)
	ctx := context.Background()

	envelope := testutil.CreateTestEnvelope("sender", models.EnvelopeKindRandom)
	require.NoError(t, envelopeRepo.Create(ctx, envelope))
	require.NoError(t, claimRepo.Create(ctx, testutil.CreateTestClaimRecord(envelope.ID, "alice", 10)))

	require.NoError(t, envelopeRepo.Delete(ctx, envelope.ID))

	loaded, err := envelopeRepo.GetByID(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Claim records cascade with the envelope
	count, err := claimRepo.CountByEnvelope(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEnvelopeRepository_GetActiveBySender(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewEnvelopeRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now().UnixMilli()

	open := testutil.CreateTestEnvelope("sender", models.EnvelopeKindRandom)
	require.NoError(t, repo.Create(ctx, open))

	eternal := testutil.CreateTestEnvelope("sender", models.EnvelopeKindAverage)
	eternal.ExpiresAt = 0
	require.NoError(t, repo.Create(ctx, eternal))

	expired := testutil.CreateTestEnvelope("sender", models.EnvelopeKindRandom)
	expired.ExpiresAt = now - 1000
	require.NoError(t, repo.Create(ctx, expired))

	closed := testutil.CreateTestEnvelope("sender", models.EnvelopeKindRandom)
	require.NoError(t, repo.Create(ctx, closed))
	require.NoError(t, repo.SetClaimed(ctx, closed.ID, true))

	other := testutil.CreateTestEnvelope("someone-else", models.EnvelopeKindRandom)
	require.NoError(t, repo.Create(ctx, other))

	active, err := repo.GetActiveBySender(ctx, "sender", now)
	require.NoError(t, err)

	ids := make([]string, 0, len(active))
	for _, envelope := range active {
		ids = append(ids, envelope.ID)
	}
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, open.ID)
	assert.Contains(t, ids, eternal.ID)
}
