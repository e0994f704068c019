package service

import (
	"context"
	"sync"
	"time"

	"redpockets/models"

	log "github.com/sirupsen/logrus"
)

// previewEntry holds a display-only copy of an item envelope's contents
type previewEntry struct {
	items     []*models.ItemStack
	expiresAt int64
}

// PreviewService is the ephemeral, non-durable preview cache for item
// envelopes, keyed by envelope ID. Entries exist for display only and are
// dropped when their envelope completes, is deleted, or expires.
type PreviewService struct {
	mu       sync.RWMutex
	previews map[string]previewEntry
}

// NewPreviewService creates an empty preview cache
func NewPreviewService() *PreviewService {
	return &PreviewService{
		previews: make(map[string]previewEntry),
	}
}

// Save stores a preview copy for an envelope
func (p *PreviewService) Save(envelopeID string, items []*models.ItemStack, expiresAtMillis int64) {
	if envelopeID == "" || len(items) == 0 {
		return
	}

	copied := make([]*models.ItemStack, 0, len(items))
	for _, item := range items {
		copied = append(copied, item.Clone())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.previews[envelopeID] = previewEntry{items: copied, expiresAt: expiresAtMillis}
}

// Get returns the preview items for an envelope, or nil if none exist
func (p *PreviewService) Get(envelopeID string) []*models.ItemStack {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.previews[envelopeID]
	if !ok {
		return nil
	}
	return entry.items
}

// Remove drops the preview for an envelope
func (p *PreviewService) Remove(envelopeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.previews, envelopeID)
}

// Len returns the number of cached previews
func (p *PreviewService) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.previews)
}

// Run periodically drops previews whose envelope has expired. It blocks
// until the context is cancelled.
func (p *PreviewService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Preview cleanup worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Preview cleanup worker shutting down")
			return
		case <-ticker.C:
			p.cleanupExpired(time.Now().UnixMilli())
		}
	}
}

func (p *PreviewService) cleanupExpired(nowMillis int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cleaned := 0
	for id, entry := range p.previews {
		if entry.expiresAt > 0 && nowMillis > entry.expiresAt {
			delete(p.previews, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.WithField("count", cleaned).Debug("Cleaned up expired previews")
	}
}
