package service

import (
	"context"
	"testing"

	"redpockets/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newLedgerMocks() (*MockUnitOfWork, *MockLedgerRepository, Ledger) {
	uow := new(MockUnitOfWork)
	factory := new(MockUnitOfWorkFactory)
	ledgerRepo := new(MockLedgerRepository)
	uow.SetRepositories(new(MockEnvelopeRepository), new(MockClaimRecordRepository), new(MockItemSnapshotRepository), ledgerRepo)
	factory.On("Create").Return(uow)

	return uow, ledgerRepo, NewLedgerService(factory)
}

func TestLedgerService_HasSufficientBalance(t *testing.T) {
	ctx := context.Background()
	uow, ledgerRepo, ledger := newLedgerMocks()

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)

	ledgerRepo.On("GetByHolder", ctx, "alice").Return(&models.LedgerAccount{Holder: "alice", Balance: 50}, nil)

	enough, err := ledger.HasSufficientBalance(ctx, "alice", 30)
	assert.NoError(t, err)
	assert.True(t, enough)

	enough, err = ledger.HasSufficientBalance(ctx, "alice", 51)
	assert.NoError(t, err)
	assert.False(t, enough)
}

func TestLedgerService_AutoCreatesAccount(t *testing.T) {
	ctx := context.Background()
	uow, ledgerRepo, ledger := newLedgerMocks()

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)

	ledgerRepo.On("GetByHolder", ctx, "newcomer").Return(nil, nil)
	ledgerRepo.On("Create", ctx, "newcomer", mock.AnythingOfType("float64")).Return(&models.LedgerAccount{Holder: "newcomer"}, nil)
	ledgerRepo.On("AddBalance", ctx, "newcomer", 10.0).Return(nil)

	err := ledger.Credit(ctx, "newcomer", 10)

	assert.NoError(t, err)
	ledgerRepo.AssertExpectations(t)
}

func TestLedgerService_RejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	_, _, ledger := newLedgerMocks()

	assert.Error(t, ledger.Debit(ctx, "alice", 0))
	assert.Error(t, ledger.Debit(ctx, "alice", -5))
	assert.Error(t, ledger.Credit(ctx, "alice", 0))
	assert.Error(t, ledger.Credit(ctx, "alice", -5))
}

func TestLedgerService_DebitDelegatesToRepository(t *testing.T) {
	ctx := context.Background()
	uow, ledgerRepo, ledger := newLedgerMocks()

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)

	ledgerRepo.On("GetByHolder", ctx, "alice").Return(&models.LedgerAccount{Holder: "alice", Balance: 50}, nil)
	ledgerRepo.On("DeductBalance", ctx, "alice", 20.0).Return(nil)

	assert.NoError(t, ledger.Debit(ctx, "alice", 20))
	ledgerRepo.AssertExpectations(t)
}
