package repository

import (
	"context"
	"testing"

	"redpockets/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing account returns nil", func(t *testing.T) {
		account, err := repo.GetByHolder(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create and reload", func(t *testing.T) {
		created, err := repo.Create(ctx, "alice", 250.75)
		require.NoError(t, err)
		assert.Equal(t, "alice", created.Holder)
		assert.Equal(t, 250.75, created.Balance)

		loaded, err := repo.GetByHolder(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, created.Balance, loaded.Balance)
	})
}

func TestLedgerRepository_AddBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", 100)
	require.NoError(t, err)

	require.NoError(t, repo.AddBalance(ctx, "alice", 25.5))

	account, err := repo.GetByHolder(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 125.5, account.Balance)

	t.Run("unknown holder", func(t *testing.T) {
		assert.Error(t, repo.AddBalance(ctx, "nobody", 10))
	})

	t.Run("non-positive amount", func(t *testing.T) {
		assert.Error(t, repo.AddBalance(ctx, "alice", 0))
		assert.Error(t, repo.AddBalance(ctx, "alice", -1))
	})
}

func TestLedgerRepository_DeductBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", 100)
	require.NoError(t, err)

	require.NoError(t, repo.DeductBalance(ctx, "alice", 40))

	account, err := repo.GetByHolder(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 60.0, account.Balance)

	t.Run("insufficient funds", func(t *testing.T) {
		err := repo.DeductBalance(ctx, "alice", 60.01)
		assert.ErrorContains(t, err, "insufficient balance")

		// Balance untouched after the failed deduction
		account, err := repo.GetByHolder(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 60.0, account.Balance)
	})

	t.Run("unknown holder", func(t *testing.T) {
		assert.ErrorContains(t, repo.DeductBalance(ctx, "nobody", 10), "not found")
	})
}
