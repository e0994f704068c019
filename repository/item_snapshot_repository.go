package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"redpockets/database"
	"redpockets/models"

	"github.com/jackc/pgx/v5"
)

// ItemSnapshotRepository implements the ItemSnapshotRepository interface
type ItemSnapshotRepository struct {
	q queryable
}

// NewItemSnapshotRepository creates a new item snapshot repository
func NewItemSnapshotRepository(db *database.DB) *ItemSnapshotRepository {
	return &ItemSnapshotRepository{q: db.Pool}
}

// newItemSnapshotRepositoryWithTx creates a new item snapshot repository with a transaction
func newItemSnapshotRepositoryWithTx(tx queryable) *ItemSnapshotRepository {
	return &ItemSnapshotRepository{q: tx}
}

// Get retrieves a snapshot by owner
func (r *ItemSnapshotRepository) Get(ctx context.Context, owner string) (*models.ItemSnapshot, error) {
	query := `
		SELECT owner, items, envelope_id, envelope_expires_at, updated_at
		FROM item_snapshots
		WHERE owner = $1
	`

	var snapshot models.ItemSnapshot
	var itemsJSON []byte
	err := r.q.QueryRow(ctx, query, owner).Scan(
		&snapshot.Owner,
		&itemsJSON,
		&snapshot.EnvelopeID,
		&snapshot.EnvelopeExpiresAt,
		&snapshot.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item snapshot for %s: %w", owner, err)
	}

	if err := json.Unmarshal(itemsJSON, &snapshot.Slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item slots for %s: %w", owner, err)
	}

	return &snapshot, nil
}

// Save upserts a snapshot's slots and association
func (r *ItemSnapshotRepository) Save(ctx context.Context, snapshot *models.ItemSnapshot) error {
	itemsJSON, err := json.Marshal(snapshot.Slots)
	if err != nil {
		return fmt.Errorf("failed to marshal item slots for %s: %w", snapshot.Owner, err)
	}

	query := `
		INSERT INTO item_snapshots (owner, items, envelope_id, envelope_expires_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (owner) DO UPDATE
		SET items = EXCLUDED.items,
		    envelope_id = EXCLUDED.envelope_id,
		    envelope_expires_at = EXCLUDED.envelope_expires_at,
		    updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, snapshot.Owner, itemsJSON, snapshot.EnvelopeID, snapshot.EnvelopeExpiresAt); err != nil {
		return fmt.Errorf("failed to save item snapshot for %s: %w", snapshot.Owner, err)
	}

	return nil
}

// Associate binds a snapshot to an open envelope, locking the edit surface
// until the envelope completes or expires
func (r *ItemSnapshotRepository) Associate(ctx context.Context, owner, envelopeID string, expiresAtMillis int64) error {
	query := `
		UPDATE item_snapshots
		SET envelope_id = $1, envelope_expires_at = $2, updated_at = NOW()
		WHERE owner = $3
	`

	result, err := r.q.Exec(ctx, query, envelopeID, expiresAtMillis, owner)
	if err != nil {
		return fmt.Errorf("failed to associate snapshot for %s with envelope %s: %w", owner, envelopeID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("item snapshot for %s not found", owner)
	}

	return nil
}

// ClearAssociation detaches a snapshot from its envelope
func (r *ItemSnapshotRepository) ClearAssociation(ctx context.Context, owner string) error {
	query := `
		UPDATE item_snapshots
		SET envelope_id = NULL, envelope_expires_at = 0, updated_at = NOW()
		WHERE owner = $1
	`

	if _, err := r.q.Exec(ctx, query, owner); err != nil {
		return fmt.Errorf("failed to clear snapshot association for %s: %w", owner, err)
	}

	return nil
}

// Delete removes a snapshot
func (r *ItemSnapshotRepository) Delete(ctx context.Context, owner string) error {
	query := `
		DELETE FROM item_snapshots
		WHERE owner = $1
	`

	if _, err := r.q.Exec(ctx, query, owner); err != nil {
		return fmt.Errorf("failed to delete item snapshot for %s: %w", owner, err)
	}

	return nil
}
