package repository

import (
	"context"
	"fmt"

	"redpockets/database"
	"redpockets/models"

	"github.com/jackc/pgx/v5"
)

// EnvelopeRepository implements the EnvelopeRepository interface
type EnvelopeRepository struct {
	q queryable
}

// NewEnvelopeRepository creates a new envelope repository
func NewEnvelopeRepository(db *database.DB) *EnvelopeRepository {
	return &EnvelopeRepository{q: db.Pool}
}

// newEnvelopeRepositoryWithTx creates a new envelope repository with a transaction
func newEnvelopeRepositoryWithTx(tx queryable) *EnvelopeRepository {
	return &EnvelopeRepository{q: tx}
}

// Create persists a new envelope
func (r *EnvelopeRepository) Create(ctx context.Context, envelope *models.Envelope) error {
	query := `
		INSERT INTO envelopes (id, sender, kind, total_amount, count, note, created_at, expires_at, claimed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(ctx, query,
		envelope.ID,
		envelope.Sender,
		envelope.Kind,
		envelope.TotalAmount,
		envelope.Count,
		envelope.Note,
		envelope.CreatedAt,
		envelope.ExpiresAt,
		envelope.Claimed,
	)
	if err != nil {
		return fmt.Errorf("failed to create envelope %s: %w", envelope.ID, err)
	}

	return nil
}

// GetByID retrieves an envelope by its ID
func (r *EnvelopeRepository) GetByID(ctx context.Context, id string) (*models.Envelope, error) {
	query := `
		SELECT id, sender, kind, total_amount, count, note, created_at, expires_at, claimed
		FROM envelopes
		WHERE id = $1
	`

	var envelope models.Envelope
	err := r.q.QueryRow(ctx, query, id).Scan(
		&envelope.ID,
		&envelope.Sender,
		&envelope.Kind,
		&envelope.TotalAmount,
		&envelope.Count,
		&envelope.Note,
		&envelope.CreatedAt,
		&envelope.ExpiresAt,
		&envelope.Claimed,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope %s: %w", id, err)
	}

	return &envelope, nil
}

// GetByIDForUpdate retrieves an envelope and takes a row lock on it. Within
// a transaction this serializes concurrent claims against the same envelope,
// so the post-insert record count is exact.
func (r *EnvelopeRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Envelope, error) {
	query := `
		SELECT id, sender, kind, total_amount, count, note, created_at, expires_at, claimed
		FROM envelopes
		WHERE id = $1
		FOR UPDATE
	`

	var envelope models.Envelope
	err := r.q.QueryRow(ctx, query, id).Scan(
		&envelope.ID,
		&envelope.Sender,
		&envelope.Kind,
		&envelope.TotalAmount,
		&envelope.Count,
		&envelope.Note,
		&envelope.CreatedAt,
		&envelope.ExpiresAt,
		&envelope.Claimed,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock envelope %s: %w", id, err)
	}

	return &envelope, nil
}

// SetClaimed marks an envelope as fully claimed. The flag is monotonic in
// practice; the engine only ever sets it true once.
func (r *EnvelopeRepository) SetClaimed(ctx context.Context, id string, claimed bool) error {
	query := `
		UPDATE envelopes
		SET claimed = $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, claimed, id)
	if err != nil {
		return fmt.Errorf("failed to update claimed status for envelope %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("envelope %s not found", id)
	}

	return nil
}

// Delete removes an envelope. Claim records cascade at the schema level;
// item snapshot associations are left for separate cleanup.
func (r *EnvelopeRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM envelopes
		WHERE id = $1
	`

	if _, err := r.q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete envelope %s: %w", id, err)
	}

	return nil
}

// GetActiveBySender returns unclaimed envelopes for a sender that have not
// expired at the given time
func (r *EnvelopeRepository) GetActiveBySender(ctx context.Context, sender string, nowMillis int64) ([]*models.Envelope, error) {
	query := `
		SELECT id, sender, kind, total_amount, count, note, created_at, expires_at, claimed
		FROM envelopes
		WHERE sender = $1
		  AND claimed = FALSE
		  AND (expires_at = 0 OR expires_at > $2)
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, sender, nowMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to get envelopes for sender %s: %w", sender, err)
	}
	defer rows.Close()

	var envelopes []*models.Envelope
	for rows.Next() {
		var envelope models.Envelope
		err := rows.Scan(
			&envelope.ID,
			&envelope.Sender,
			&envelope.Kind,
			&envelope.TotalAmount,
			&envelope.Count,
			&envelope.Note,
			&envelope.CreatedAt,
			&envelope.ExpiresAt,
			&envelope.Claimed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan envelope: %w", err)
		}
		envelopes = append(envelopes, &envelope)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate envelopes: %w", err)
	}

	return envelopes, nil
}
