package service

import (
	"context"

	"redpockets/events"
	"redpockets/models"
)

// EnvelopeRepository defines the interface for envelope data access
type EnvelopeRepository interface {
	// Create persists a new envelope
	Create(ctx context.Context, envelope *models.Envelope) error

	// GetByID retrieves an envelope by its ID
	GetByID(ctx context.Context, id string) (*models.Envelope, error)

	// GetByIDForUpdate retrieves an envelope and locks its row for the
	// duration of the transaction, serializing claims per envelope so
	// completion detection sees every committed record
	GetByIDForUpdate(ctx context.Context, id string) (*models.Envelope, error)

	// SetClaimed marks an envelope as fully claimed
	SetClaimed(ctx context.Context, id string, claimed bool) error

	// Delete removes an envelope; claim records cascade separately
	Delete(ctx context.Context, id string) error

	// GetActiveBySender returns unclaimed, unexpired envelopes for a sender
	GetActiveBySender(ctx context.Context, sender string, nowMillis int64) ([]*models.Envelope, error)
}

// ClaimRecordRepository defines the interface for claim record data access
type ClaimRecordRepository interface {
	// Create inserts a claim record. The store enforces uniqueness on
	// (envelope_id, claimant) and returns ErrDuplicateClaim on conflict;
	// this insert is the authoritative dedup point.
	Create(ctx context.Context, record *models.ClaimRecord) error

	// HasClaimed reports whether a claimant already has a record for the
	// envelope. Fast-path optimization only, never the authority.
	HasClaimed(ctx context.Context, envelopeID, claimant string) (bool, error)

	// CountByEnvelope returns the number of claim records for an envelope
	CountByEnvelope(ctx context.Context, envelopeID string) (int, error)

	// GetByEnvelope returns an envelope's records, newest first
	GetByEnvelope(ctx context.Context, envelopeID string) ([]*models.ClaimRecord, error)

	// TopClaimant returns the claimant with the largest summed amount
	// across an envelope's records, or nil if there are none
	TopClaimant(ctx context.Context, envelopeID string) (*models.ClaimantTotal, error)

	// GetCreditPending returns currency records whose ledger credit has
	// not yet been applied, claimed before the given time
	GetCreditPending(ctx context.Context, beforeMillis int64) ([]*models.ClaimRecord, error)

	// MarkCredited clears the pending credit flag on a record
	MarkCredited(ctx context.Context, recordID string) error
}

// ItemSnapshotRepository defines the interface for item snapshot data access
type ItemSnapshotRepository interface {
	// Get retrieves the snapshot for an owner
	Get(ctx context.Context, owner string) (*models.ItemSnapshot, error)

	// Save upserts the snapshot, including its association fields
	Save(ctx context.Context, snapshot *models.ItemSnapshot) error

	// Associate points the owner's snapshot at an envelope, locking it
	Associate(ctx context.Context, owner, envelopeID string, expiresAtMillis int64) error

	// ClearAssociation detaches the snapshot from its envelope, unlocking it
	ClearAssociation(ctx context.Context, owner string) error

	// Delete removes the owner's snapshot entirely
	Delete(ctx context.Context, owner string) error
}

// LedgerRepository defines the interface for ledger account data access
type LedgerRepository interface {
	// GetByHolder retrieves an account by holder identity
	GetByHolder(ctx context.Context, holder string) (*models.LedgerAccount, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, holder string, initialBalance float64) (*models.LedgerAccount, error)

	// AddBalance credits an account atomically
	AddBalance(ctx context.Context, holder string, amount float64) error

	// DeductBalance debits an account atomically, failing if insufficient funds
	DeductBalance(ctx context.Context, holder string, amount float64) error
}

// Ledger is the adapter contract for the external balance-holding service.
// All three operations are synchronous; the engine treats failure as a hard
// stop at that step and never retries the composite operation.
type Ledger interface {
	// HasSufficientBalance checks whether the actor can cover the amount
	HasSufficientBalance(ctx context.Context, actor string, amount float64) (bool, error)

	// Debit removes the amount from the actor's balance
	Debit(ctx context.Context, actor string, amount float64) error

	// Credit adds the amount to the actor's balance
	Credit(ctx context.Context, actor string, amount float64) error
}

// EnvelopeService defines the interface for the distribution engine
type EnvelopeService interface {
	// CreateEnvelope validates and persists a new envelope. It does not
	// debit the sender; CreateEnvelopeWithValidation wraps that ordering.
	CreateEnvelope(ctx context.Context, sender string, kind models.EnvelopeKind, totalAmount float64, count int, note string) (*models.Envelope, error)

	// CreateEnvelopeWithValidation checks the sender's balance, debits it,
	// and only then creates the envelope. A debit failure creates nothing.
	CreateEnvelopeWithValidation(ctx context.Context, sender string, kind models.EnvelopeKind, totalAmount float64, count int, note string) (*models.Envelope, error)

	// CreateItemEnvelope creates an item envelope backed by the owner's
	// stored item snapshot and locks the snapshot against edits
	CreateItemEnvelope(ctx context.Context, owner string, count int, note string) (*models.Envelope, error)

	// Claim attempts a single draw against an envelope for a claimant
	Claim(ctx context.Context, envelopeID, claimant string) (*models.Reward, error)

	// DeleteEnvelope removes an envelope from store and cache. Claim
	// records and snapshot associations are kept for auditing.
	DeleteEnvelope(ctx context.Context, id string) error

	// GetEnvelope retrieves an envelope by ID
	GetEnvelope(ctx context.Context, id string) (*models.Envelope, error)

	// GetRecords returns an envelope's claim records, newest first
	GetRecords(ctx context.Context, envelopeID string) ([]*models.ClaimRecord, error)

	// GetActiveBySender returns a sender's open envelopes
	GetActiveBySender(ctx context.Context, sender string) ([]*models.Envelope, error)
}

// SnapshotService defines the interface for item snapshot editing
type SnapshotService interface {
	// SaveItems stores the owner's edited slots; rejected while the
	// snapshot is locked by an open envelope
	SaveItems(ctx context.Context, owner string, slots [models.SnapshotSlots]*models.ItemStack) error

	// LoadItems returns the owner's stored slots, or nil if none
	LoadItems(ctx context.Context, owner string) (*models.ItemSnapshot, error)

	// IsLocked reports whether the owner's snapshot is locked
	IsLocked(ctx context.Context, owner string) (bool, error)

	// ClearAssociation unlocks the owner's snapshot
	ClearAssociation(ctx context.Context, owner string) error

	// DeleteItems removes the owner's snapshot
	DeleteItems(ctx context.Context, owner string) error
}

// PreviewCache defines the interface for the ephemeral, display-only item
// preview store keyed by envelope ID
type PreviewCache interface {
	Save(envelopeID string, items []*models.ItemStack, expiresAtMillis int64)
	Get(envelopeID string) []*models.ItemStack
	Remove(envelopeID string)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	EnvelopeRepository() EnvelopeRepository
	ClaimRecordRepository() ClaimRecordRepository
	ItemSnapshotRepository() ItemSnapshotRepository
	LedgerRepository() LedgerRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
