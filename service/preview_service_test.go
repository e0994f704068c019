package service

import (
	"testing"
	"time"

	"redpockets/models"

	"github.com/stretchr/testify/assert"
)

func TestPreviewService_SaveIsolatesCopies(t *testing.T) {
	previews := NewPreviewService()
	original := []*models.ItemStack{{Material: "DIAMOND", Quantity: 5}}

	previews.Save("env", original, 0)

	// Mutating the caller's stack must not reach the stored preview
	original[0].Quantity = 1

	stored := previews.Get("env")
	assert.Len(t, stored, 1)
	assert.Equal(t, 5, stored[0].Quantity)
}

func TestPreviewService_IgnoresEmptyInput(t *testing.T) {
	previews := NewPreviewService()

	previews.Save("", []*models.ItemStack{{Material: "DIAMOND"}}, 0)
	previews.Save("env", nil, 0)

	assert.Equal(t, 0, previews.Len())
}

func TestPreviewService_Remove(t *testing.T) {
	previews := NewPreviewService()
	previews.Save("env", []*models.ItemStack{{Material: "GOLD", Quantity: 1}}, 0)

	previews.Remove("env")
	assert.Nil(t, previews.Get("env"))
}

func TestPreviewService_CleanupExpired(t *testing.T) {
	now := time.Now().UnixMilli()
	previews := NewPreviewService()

	previews.Save("expired", []*models.ItemStack{{Material: "GOLD", Quantity: 1}}, now-1)
	previews.Save("open", []*models.ItemStack{{Material: "IRON", Quantity: 1}}, now+60_000)
	previews.Save("eternal", []*models.ItemStack{{Material: "COAL", Quantity: 1}}, 0)

	previews.cleanupExpired(now)

	assert.Nil(t, previews.Get("expired"))
	assert.NotNil(t, previews.Get("open"))
	assert.NotNil(t, previews.Get("eternal"))
}
