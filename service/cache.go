package service

import (
	"context"
	"sync"
	"time"

	"redpockets/models"

	log "github.com/sirupsen/logrus"
)

// EnvelopeCache is a concurrency-safe in-memory map from envelope ID to
// envelope, read-through over the store. It exists to skip a store round
// trip for hot envelopes; the store remains the source of truth.
type EnvelopeCache struct {
	mu        sync.RWMutex
	envelopes map[string]*models.Envelope
}

// NewEnvelopeCache creates an empty envelope cache
func NewEnvelopeCache() *EnvelopeCache {
	return &EnvelopeCache{
		envelopes: make(map[string]*models.Envelope),
	}
}

// Get returns the cached envelope or nil on a miss
func (c *EnvelopeCache) Get(id string) *models.Envelope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.envelopes[id]
}

// Put inserts or replaces an envelope
func (c *EnvelopeCache) Put(envelope *models.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envelopes[envelope.ID] = envelope
}

// Remove evicts an envelope
func (c *EnvelopeCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.envelopes, id)
}

// MarkClaimed replaces the cached envelope with a closed copy if present.
// Cached envelopes are shared with readers that hold no lock, so entries
// are never mutated in place.
func (c *EnvelopeCache) MarkClaimed(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if envelope, ok := c.envelopes[id]; ok {
		closed := *envelope
		closed.Claimed = true
		c.envelopes[id] = &closed
	}
}

// Len returns the number of cached envelopes
func (c *EnvelopeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.envelopes)
}

// Run periodically evicts claimed and expired envelopes. The cache is
// read-through, so eviction never loses data; it only bounds memory.
// Blocks until the context is cancelled.
func (c *EnvelopeCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Envelope cache janitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Envelope cache janitor shutting down")
			return
		case <-ticker.C:
			c.evictStale(time.Now().UnixMilli())
		}
	}
}

func (c *EnvelopeCache) evictStale(nowMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, envelope := range c.envelopes {
		if envelope.Claimed || envelope.IsExpired(nowMillis) {
			delete(c.envelopes, id)
			evicted++
		}
	}

	if evicted > 0 {
		log.WithField("count", evicted).Debug("Evicted stale envelopes from cache")
	}
}
