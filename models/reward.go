package models

// Reward is the outcome of a successful claim. Currency envelopes carry an
// amount; item envelopes carry the drawn item descriptor and the sentinel
// amount of 1.
type Reward struct {
	EnvelopeID string
	Claimant   string
	Amount     float64
	Item       *ItemStack
}
