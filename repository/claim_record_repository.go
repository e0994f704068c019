package repository

import (
	"context"
	"errors"
	"fmt"

	"redpockets/database"
	"redpockets/models"
	"redpockets/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code for unique constraint violations
const uniqueViolation = "23505"

// ClaimRecordRepository implements the ClaimRecordRepository interface
type ClaimRecordRepository struct {
	q queryable
}

// NewClaimRecordRepository creates a new claim record repository
func NewClaimRecordRepository(db *database.DB) *ClaimRecordRepository {
	return &ClaimRecordRepository{q: db.Pool}
}

// newClaimRecordRepositoryWithTx creates a new claim record repository with a transaction
func newClaimRecordRepositoryWithTx(tx queryable) *ClaimRecordRepository {
	return &ClaimRecordRepository{q: tx}
}

// Create inserts a claim record. The unique constraint on
// (envelope_id, claimant) is the authority for once-per-claimant; a second
// insert for the same pair returns ErrDuplicateClaim regardless of what any
// in-process check saw.
func (r *ClaimRecordRepository) Create(ctx context.Context, record *models.ClaimRecord) error {
	query := `
		INSERT INTO claim_records (id, envelope_id, claimant, amount, claimed_at, credit_pending)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		record.ID,
		record.EnvelopeID,
		record.Claimant,
		record.Amount,
		record.ClaimedAt,
		record.CreditPending,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrDuplicateClaim
		}
		return fmt.Errorf("failed to create claim record for envelope %s: %w", record.EnvelopeID, err)
	}

	return nil
}

// HasClaimed reports whether the claimant already holds a record for the envelope
func (r *ClaimRecordRepository) HasClaimed(ctx context.Context, envelopeID, claimant string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM claim_records
			WHERE envelope_id = $1 AND claimant = $2
		)
	`

	var claimed bool
	if err := r.q.QueryRow(ctx, query, envelopeID, claimant).Scan(&claimed); err != nil {
		return false, fmt.Errorf("failed to check claim for envelope %s: %w", envelopeID, err)
	}

	return claimed, nil
}

// CountByEnvelope returns the number of claim records for an envelope
func (r *ClaimRecordRepository) CountByEnvelope(ctx context.Context, envelopeID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM claim_records
		WHERE envelope_id = $1
	`

	var count int
	if err := r.q.QueryRow(ctx, query, envelopeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count claims for envelope %s: %w", envelopeID, err)
	}

	return count, nil
}

// GetByEnvelope returns all claim records for an envelope, newest first
func (r *ClaimRecordRepository) GetByEnvelope(ctx context.Context, envelopeID string) ([]*models.ClaimRecord, error) {
	query := `
		SELECT id, envelope_id, claimant, amount, claimed_at, credit_pending
		FROM claim_records
		WHERE envelope_id = $1
		ORDER BY claimed_at DESC
	`

	rows, err := r.q.Query(ctx, query, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims for envelope %s: %w", envelopeID, err)
	}
	defer rows.Close()

	return scanClaimRecords(rows)
}

// TopClaimant returns the claimant with the largest summed amount for an
// envelope, or nil if the envelope has no records
func (r *ClaimRecordRepository) TopClaimant(ctx context.Context, envelopeID string) (*models.ClaimantTotal, error) {
	query := `
		SELECT claimant, SUM(amount) AS total
		FROM claim_records
		WHERE envelope_id = $1
		GROUP BY claimant
		ORDER BY total DESC
		LIMIT 1
	`

	var top models.ClaimantTotal
	err := r.q.QueryRow(ctx, query, envelopeID).Scan(&top.Claimant, &top.Total)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get top claimant for envelope %s: %w", envelopeID, err)
	}

	return &top, nil
}

// GetCreditPending returns records whose ledger credit has not been applied,
// limited to records claimed before the given time
func (r *ClaimRecordRepository) GetCreditPending(ctx context.Context, beforeMillis int64) ([]*models.ClaimRecord, error) {
	query := `
		SELECT id, envelope_id, claimant, amount, claimed_at, credit_pending
		FROM claim_records
		WHERE credit_pending = TRUE
		  AND claimed_at < $1
		ORDER BY claimed_at ASC
	`

	rows, err := r.q.Query(ctx, query, beforeMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending credits: %w", err)
	}
	defer rows.Close()

	return scanClaimRecords(rows)
}

// MarkCredited clears the pending flag after the ledger credit succeeded
func (r *ClaimRecordRepository) MarkCredited(ctx context.Context, recordID string) error {
	query := `
		UPDATE claim_records
		SET credit_pending = FALSE
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, recordID)
	if err != nil {
		return fmt.Errorf("failed to mark record %s credited: %w", recordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("claim record %s not found", recordID)
	}

	return nil
}

func scanClaimRecords(rows pgx.Rows) ([]*models.ClaimRecord, error) {
	var records []*models.ClaimRecord
	for rows.Next() {
		var record models.ClaimRecord
		err := rows.Scan(
			&record.ID,
			&record.EnvelopeID,
			&record.Claimant,
			&record.Amount,
			&record.ClaimedAt,
			&record.CreditPending,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claim records: %w", err)
	}

	return records, nil
}
