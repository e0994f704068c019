package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"redpockets/events"
	"redpockets/models"
	"redpockets/repository/testutil"
	"redpockets/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (service.EnvelopeService, service.Ledger, *service.EnvelopeCache) {
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	cache := service.NewEnvelopeCache()
	previews := service.NewPreviewService()
	ledger := service.NewLedgerService(factory)

	return service.NewEnvelopeService(factory, cache, previews, ledger), ledger, cache
}

func TestEngine_AverageEnvelopeFullLifecycle(t *testing.T) {
	ctx := context.Background()
	engine, _, cache := newEngine(t)

	envelope, err := engine.CreateEnvelope(ctx, "sender", models.EnvelopeKindAverage, 100, 4, "share")
	require.NoError(t, err)

	claimants := []string{"alice", "bob", "carol", "dave"}
	for _, claimant := range claimants {
		reward, err := engine.Claim(ctx, envelope.ID, claimant)
		require.NoError(t, err)
		assert.Equal(t, 25.0, reward.Amount)
	}

	// The fourth claim closed the envelope
	assert.True(t, cache.Get(envelope.ID).Claimed)

	_, err = engine.Claim(ctx, envelope.ID, "late")
	assert.ErrorIs(t, err, service.ErrInvalid)

	records, err := engine.GetRecords(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestEngine_ClaimSurvivesCacheEviction(t *testing.T) {
	ctx := context.Background()
	engine, _, cache := newEngine(t)

	envelope, err := engine.CreateEnvelope(ctx, "sender", models.EnvelopeKindAverage, 50, 2, "")
	require.NoError(t, err)

	// Drop the cached copy; the claim repopulates from the store
	cache.Remove(envelope.ID)

	reward, err := engine.Claim(ctx, envelope.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 25.0, reward.Amount)
	assert.NotNil(t, cache.Get(envelope.ID))
}

func TestEngine_ConcurrentClaimsDistinctClaimants(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newEngine(t)

	const count = 8
	envelope, err := engine.CreateEnvelope(ctx, "sender", models.EnvelopeKindRandom, 100, count, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	rewards := make(chan *models.Reward, count)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reward, err := engine.Claim(ctx, envelope.ID, fmt.Sprintf("claimant-%d", n))
			if err == nil {
				rewards <- reward
			}
		}(i)
	}
	wg.Wait()
	close(rewards)

	got := 0
	for reward := range rewards {
		assert.Greater(t, reward.Amount, 0.0)
		assert.LessOrEqual(t, reward.Amount, envelope.TotalAmount)
		got++
	}
	assert.Equal(t, count, got, "every distinct claimant succeeds")

	records, err := engine.GetRecords(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Len(t, records, count)

	loaded, err := engine.GetEnvelope(ctx, envelope.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Claimed)
}

func TestEngine_ConcurrentClaimsSameClaimant(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newEngine(t)

	envelope, err := engine.CreateEnvelope(ctx, "sender", models.EnvelopeKindRandom, 100, 10, "")
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Claim(ctx, envelope.ID, "greedy")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, service.ErrAlreadyClaimed)
		}
	}
	assert.Equal(t, 1, successes, "one identity claims exactly once")

	records, err := engine.GetRecords(ctx, envelope.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEngine_ClaimCreditsLedger(t *testing.T) {
	ctx := context.Background()
	engine, ledger, _ := newEngine(t)

	envelope, err := engine.CreateEnvelope(ctx, "sender", models.EnvelopeKindAverage, 30, 3, "")
	require.NoError(t, err)

	reward, err := engine.Claim(ctx, envelope.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 10.0, reward.Amount)

	// The credit already applied, so alice can fund her own envelope
	enough, err := ledger.HasSufficientBalance(ctx, "alice", 10)
	require.NoError(t, err)
	assert.True(t, enough)
}

func TestEngine_CreateWithValidationDebitsSender(t *testing.T) {
	ctx := context.Background()
	engine, ledger, _ := newEngine(t)

	require.NoError(t, ledger.Credit(ctx, "rich", 100))

	envelope, err := engine.CreateEnvelopeWithValidation(ctx, "rich", models.EnvelopeKindRandom, 60, 3, "")
	require.NoError(t, err)
	require.NotNil(t, envelope)

	enough, err := ledger.HasSufficientBalance(ctx, "rich", 41)
	require.NoError(t, err)
	assert.False(t, enough, "the envelope total left the sender's balance")

	_, err = engine.CreateEnvelopeWithValidation(ctx, "rich", models.EnvelopeKindRandom, 60, 3, "")
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)
}

func TestEngine_ItemEnvelopeDrainsSnapshot(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	cache := service.NewEnvelopeCache()
	previews := service.NewPreviewService()
	ledger := service.NewLedgerService(factory)
	engine := service.NewEnvelopeService(factory, cache, previews, ledger)
	snapshots := service.NewSnapshotService(factory)
	snapshotRepo := NewItemSnapshotRepository(testDB.DB)

	var slots [models.SnapshotSlots]*models.ItemStack
	slots[2] = &models.ItemStack{Material: "DIAMOND", Quantity: 2}
	slots[40] = &models.ItemStack{Material: "EMERALD", Quantity: 1}
	require.NoError(t, snapshots.SaveItems(ctx, "owner", slots))

	envelope, err := engine.CreateItemEnvelope(ctx, "owner", 3, "grab bag")
	require.NoError(t, err)

	// The open envelope locks the snapshot against owner edits
	locked, err := snapshots.IsLocked(ctx, "owner")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.ErrorIs(t, snapshots.SaveItems(ctx, "owner", slots), service.ErrSnapshotLocked)

	// Preview shows the contents without exposing the live snapshot
	assert.Len(t, previews.Get(envelope.ID), 2)

	// Three items were stored, so three draws succeed
	for i, claimant := range []string{"alice", "bob", "carol"} {
		reward, err := engine.Claim(ctx, envelope.ID, claimant)
		require.NoError(t, err, "draw %d", i)
		require.NotNil(t, reward.Item)
		assert.Equal(t, 1, reward.Item.Quantity)
		assert.Equal(t, models.ItemClaimAmount, reward.Amount)
	}

	// Completion closed the envelope and released the snapshot
	loaded, err := engine.GetEnvelope(ctx, envelope.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Claimed)

	locked, err = snapshots.IsLocked(ctx, "owner")
	require.NoError(t, err)
	assert.False(t, locked)

	stored, err := snapshotRepo.Get(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, stored.OccupiedSlots(), "all items drawn")

	_, err = engine.Claim(ctx, envelope.ID, "late")
	assert.ErrorIs(t, err, service.ErrInvalid)
}
