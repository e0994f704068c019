package service

import (
	"context"

	"redpockets/events"
	"redpockets/models"

	"github.com/stretchr/testify/mock"
)

// MockEnvelopeRepository is a mock implementation of EnvelopeRepository
type MockEnvelopeRepository struct {
	mock.Mock
}

func (m *MockEnvelopeRepository) Create(ctx context.Context, envelope *models.Envelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

func (m *MockEnvelopeRepository) GetByID(ctx context.Context, id string) (*models.Envelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envelope), args.Error(1)
}

func (m *MockEnvelopeRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Envelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Envelope), args.Error(1)
}

func (m *MockEnvelopeRepository) SetClaimed(ctx context.Context, id string, claimed bool) error {
	args := m.Called(ctx, id, claimed)
	return args.Error(0)
}

func (m *MockEnvelopeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEnvelopeRepository) GetActiveBySender(ctx context.Context, sender string, nowMillis int64) ([]*models.Envelope, error) {
	args := m.Called(ctx, sender, nowMillis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Envelope), args.Error(1)
}

// MockClaimRecordRepository is a mock implementation of ClaimRecordRepository
type MockClaimRecordRepository struct {
	mock.Mock
}

func (m *MockClaimRecordRepository) Create(ctx context.Context, record *models.ClaimRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockClaimRecordRepository) HasClaimed(ctx context.Context, envelopeID, claimant string) (bool, error) {
	args := m.Called(ctx, envelopeID, claimant)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimRecordRepository) CountByEnvelope(ctx context.Context, envelopeID string) (int, error) {
	args := m.Called(ctx, envelopeID)
	return args.Int(0), args.Error(1)
}

func (m *MockClaimRecordRepository) GetByEnvelope(ctx context.Context, envelopeID string) ([]*models.ClaimRecord, error) {
	args := m.Called(ctx, envelopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClaimRecord), args.Error(1)
}

func (m *MockClaimRecordRepository) TopClaimant(ctx context.Context, envelopeID string) (*models.ClaimantTotal, error) {
	args := m.Called(ctx, envelopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClaimantTotal), args.Error(1)
}

func (m *MockClaimRecordRepository) GetCreditPending(ctx context.Context, beforeMillis int64) ([]*models.ClaimRecord, error) {
	args := m.Called(ctx, beforeMillis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClaimRecord), args.Error(1)
}

func (m *MockClaimRecordRepository) MarkCredited(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

// MockItemSnapshotRepository is a mock implementation of ItemSnapshotRepository
type MockItemSnapshotRepository struct {
	mock.Mock
}

func (m *MockItemSnapshotRepository) Get(ctx context.Context, owner string) (*models.ItemSnapshot, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ItemSnapshot), args.Error(1)
}

func (m *MockItemSnapshotRepository) Save(ctx context.Context, snapshot *models.ItemSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockItemSnapshotRepository) Associate(ctx context.Context, owner, envelopeID string, expiresAtMillis int64) error {
	args := m.Called(ctx, owner, envelopeID, expiresAtMillis)
	return args.Error(0)
}

func (m *MockItemSnapshotRepository) ClearAssociation(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockItemSnapshotRepository) Delete(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) GetByHolder(ctx context.Context, holder string) (*models.LedgerAccount, error) {
	args := m.Called(ctx, holder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) Create(ctx context.Context, holder string, initialBalance float64) (*models.LedgerAccount, error) {
	args := m.Called(ctx, holder, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerAccount), args.Error(1)
}

func (m *MockLedgerRepository) AddBalance(ctx context.Context, holder string, amount float64) error {
	args := m.Called(ctx, holder, amount)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeductBalance(ctx context.Context, holder string, amount float64) error {
	args := m.Called(ctx, holder, amount)
	return args.Error(0)
}

// MockLedger is a mock implementation of the Ledger adapter
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) HasSufficientBalance(ctx context.Context, actor string, amount float64) (bool, error) {
	args := m.Called(ctx, actor, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) Debit(ctx context.Context, actor string, amount float64) error {
	args := m.Called(ctx, actor, amount)
	return args.Error(0)
}

func (m *MockLedger) Credit(ctx context.Context, actor string, amount float64) error {
	args := m.Called(ctx, actor, amount)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// nopEventPublisher drops events; used when a test has no event expectations
type nopEventPublisher struct{}

func (nopEventPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// plain fields so tests wire concrete mocks once via SetRepositories.
type MockUnitOfWork struct {
	mock.Mock

	envelopeRepo EnvelopeRepository
	claimRepo    ClaimRecordRepository
	snapshotRepo ItemSnapshotRepository
	ledgerRepo   LedgerRepository
	publisher    EventPublisher
}

// SetRepositories wires the repository mocks returned by the getters
func (m *MockUnitOfWork) SetRepositories(envelopeRepo EnvelopeRepository, claimRepo ClaimRecordRepository, snapshotRepo ItemSnapshotRepository, ledgerRepo LedgerRepository) {
	m.envelopeRepo = envelopeRepo
	m.claimRepo = claimRepo
	m.snapshotRepo = snapshotRepo
	m.ledgerRepo = ledgerRepo
}

// SetEventPublisher wires the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventPublisher(publisher EventPublisher) {
	m.publisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) EnvelopeRepository() EnvelopeRepository {
	return m.envelopeRepo
}

func (m *MockUnitOfWork) ClaimRecordRepository() ClaimRecordRepository {
	return m.claimRepo
}

func (m *MockUnitOfWork) ItemSnapshotRepository() ItemSnapshotRepository {
	return m.snapshotRepo
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.publisher == nil {
		return nopEventPublisher{}
	}
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
