package models

// EnvelopeKind represents the distribution scheme of an envelope
type EnvelopeKind string

const (
	EnvelopeKindRandom  EnvelopeKind = "RANDOM"
	EnvelopeKindAverage EnvelopeKind = "AVERAGE"
	EnvelopeKindItem    EnvelopeKind = "ITEM"
)

// IsCurrency reports whether the kind distributes currency rather than items
func (k EnvelopeKind) IsCurrency() bool {
	return k == EnvelopeKindRandom || k == EnvelopeKindAverage
}

// Envelope represents a distributable pot of currency or items
type Envelope struct {
	ID          string       `db:"id"`
	Sender      string       `db:"sender"`
	Kind        EnvelopeKind `db:"kind"`
	TotalAmount float64      `db:"total_amount"`
	Count       int          `db:"count"`
	Note        string       `db:"note"`
	CreatedAt   int64        `db:"created_at"`
	ExpiresAt   int64        `db:"expires_at"`
	Claimed     bool         `db:"claimed"`
}

// IsExpired checks whether the envelope has passed its expiry time.
// ExpiresAt of zero means the envelope never expires.
func (e *Envelope) IsExpired(nowMillis int64) bool {
	if e.ExpiresAt <= 0 {
		return false
	}
	return nowMillis > e.ExpiresAt
}

// IsValid checks whether the envelope can still be claimed
func (e *Envelope) IsValid(nowMillis int64) bool {
	return !e.Claimed && !e.IsExpired(nowMillis)
}
