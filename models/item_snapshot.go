package models

import "time"

// SnapshotSlots is the fixed number of slots in an item snapshot
const SnapshotSlots = 54

// ItemStack describes a stack of identical items occupying one snapshot slot
type ItemStack struct {
	Material string `json:"material"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

// Clone returns a copy of the stack
func (s *ItemStack) Clone() *ItemStack {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ItemSnapshot is a per-owner array of item slots backing item envelopes.
// While associated with an open, unexpired envelope the snapshot is locked
// against edits by its owner; the engine may still remove drawn items.
type ItemSnapshot struct {
	Owner             string                    `db:"owner"`
	Slots             [SnapshotSlots]*ItemStack `db:"items"`
	EnvelopeID        *string                   `db:"envelope_id"`
	EnvelopeExpiresAt int64                     `db:"envelope_expires_at"`
	UpdatedAt         time.Time                 `db:"updated_at"`
}

// OccupiedSlots returns the indices of slots holding at least one item
func (s *ItemSnapshot) OccupiedSlots() []int {
	var occupied []int
	for i, stack := range s.Slots {
		if stack != nil && stack.Quantity > 0 {
			occupied = append(occupied, i)
		}
	}
	return occupied
}

// IsLocked reports whether the snapshot is associated with an open envelope
// that has not yet expired
func (s *ItemSnapshot) IsLocked(nowMillis int64) bool {
	if s.EnvelopeID == nil || *s.EnvelopeID == "" {
		return false
	}
	if s.EnvelopeExpiresAt <= 0 {
		return false
	}
	return nowMillis < s.EnvelopeExpiresAt
}
