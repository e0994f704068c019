package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_IsExpired(t *testing.T) {
	now := time.Now().UnixMilli()

	tests := []struct {
		name      string
		expiresAt int64
		expired   bool
	}{
		{"future expiry", now + 60_000, false},
		{"past expiry", now - 1, true},
		{"zero means never", 0, false},
		{"negative means never", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := Envelope{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expired, envelope.IsExpired(now))
		})
	}
}

func TestEnvelope_IsValid(t *testing.T) {
	now := time.Now().UnixMilli()

	open := Envelope{ExpiresAt: now + 60_000}
	assert.True(t, open.IsValid(now))

	claimed := Envelope{Claimed: true, ExpiresAt: now + 60_000}
	assert.False(t, claimed.IsValid(now))

	expired := Envelope{ExpiresAt: now - 1}
	assert.False(t, expired.IsValid(now))

	claimedAndExpired := Envelope{Claimed: true, ExpiresAt: now - 1}
	assert.False(t, claimedAndExpired.IsValid(now))
}

func TestEnvelopeKind_IsCurrency(t *testing.T) {
	assert.True(t, EnvelopeKindRandom.IsCurrency())
	assert.True(t, EnvelopeKindAverage.IsCurrency())
	assert.False(t, EnvelopeKindItem.IsCurrency())
}
