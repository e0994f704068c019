package models

// ItemClaimAmount is the sentinel amount recorded for item envelope claims,
// representing one item drawn.
const ItemClaimAmount = 1.0

// ClaimRecord is the durable evidence that a claimant has drawn from an envelope.
// Records are append-only; at most one exists per (envelope, claimant) pair.
type ClaimRecord struct {
	ID            string  `db:"id"`
	EnvelopeID    string  `db:"envelope_id"`
	Claimant      string  `db:"claimant"`
	Amount        float64 `db:"amount"`
	ClaimedAt     int64   `db:"claimed_at"`
	CreditPending bool    `db:"credit_pending"`
}

// ClaimantTotal aggregates the summed amount claimed by one claimant
// across an envelope's records.
type ClaimantTotal struct {
	Claimant string
	Total    float64
}
