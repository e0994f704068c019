package service

import (
	"math"
	"math/rand"

	"redpockets/models"
)

// calculateAmount computes the reward for a currency envelope claim
func calculateAmount(envelope *models.Envelope) float64 {
	if envelope.Kind == models.EnvelopeKindAverage {
		// Even split, flat for every claimant
		return envelope.TotalAmount / float64(envelope.Count)
	}
	return calculateRandomAmount(envelope)
}

// calculateRandomAmount draws a bounded-uniform amount for a RANDOM
// envelope: uniform in [0.1*base, 3.0*base] where base = total/count,
// clamped to the envelope total. The scheme is per-claim independent and
// does not pool the remaining balance, so the claimed sum can fall short
// of the total.
func calculateRandomAmount(envelope *models.Envelope) float64 {
	totalAmount := envelope.TotalAmount
	count := envelope.Count

	if count == 1 {
		// Sole claimant takes the whole pot
		return roundCurrency(totalAmount)
	}

	base := totalAmount / float64(count)
	minAmount := base * 0.1
	maxAmount := base * 3.0

	amount := minAmount + rand.Float64()*(maxAmount-minAmount)
	amount = math.Min(amount, totalAmount)

	return roundCurrency(amount)
}

// roundCurrency rounds to 2 decimal places for display and storage
func roundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
