package testutil

import (
	"time"

	"redpockets/models"

	"github.com/google/uuid"
)

// CreateTestEnvelope creates a currency envelope with default values
func CreateTestEnvelope(sender string, kind models.EnvelopeKind) *models.Envelope {
	now := time.Now().UnixMilli()
	return &models.Envelope{
		ID:          uuid.NewString(),
		Sender:      sender,
		Kind:        kind,
		TotalAmount: 100,
		Count:       5,
		Note:        "happy new year",
		CreatedAt:   now,
		ExpiresAt:   now + 86400_000,
		Claimed:     false,
	}
}

// CreateTestEnvelopeWithAmount creates an envelope with a specific total and count
func CreateTestEnvelopeWithAmount(sender string, kind models.EnvelopeKind, total float64, count int) *models.Envelope {
	envelope := CreateTestEnvelope(sender, kind)
	envelope.TotalAmount = total
	envelope.Count = count
	return envelope
}

// CreateTestClaimRecord creates a claim record for an envelope
func CreateTestClaimRecord(envelopeID, claimant string, amount float64) *models.ClaimRecord {
	return &models.ClaimRecord{
		ID:         uuid.NewString(),
		EnvelopeID: envelopeID,
		Claimant:   claimant,
		Amount:     amount,
		ClaimedAt:  time.Now().UnixMilli(),
	}
}

// CreateTestSnapshot creates an item snapshot with stacks in the given slots
func CreateTestSnapshot(owner string, slots ...int) *models.ItemSnapshot {
	snapshot := &models.ItemSnapshot{Owner: owner}
	for _, slot := range slots {
		snapshot.Slots[slot] = &models.ItemStack{
			Material: "DIAMOND",
			Name:     "shiny",
			Quantity: 3,
		}
	}
	return snapshot
}
