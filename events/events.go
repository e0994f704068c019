package events

import (
	"context"
	"sync"

	"redpockets/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEnvelopeCreated   EventType = "envelope_created"
	EventTypeEnvelopeClaimed   EventType = "envelope_claimed"
	EventTypeEnvelopeCompleted EventType = "envelope_completed"
	EventTypeEnvelopeDeleted   EventType = "envelope_deleted"
	EventTypeCreditReconciled  EventType = "credit_reconciled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EnvelopeCreatedEvent represents a newly created envelope
type EnvelopeCreatedEvent struct {
	EnvelopeID  string
	Sender      string
	Kind        models.EnvelopeKind
	TotalAmount float64
	Count       int
	Note        string
}

func (e EnvelopeCreatedEvent) Type() EventType {
	return EventTypeEnvelopeCreated
}

// EnvelopeClaimedEvent represents a successful claim against an envelope
type EnvelopeClaimedEvent struct {
	EnvelopeID string
	Sender     string
	Claimant   string
	Kind       models.EnvelopeKind
	Amount     float64
	Item       *models.ItemStack
}

func (e EnvelopeClaimedEvent) Type() EventType {
	return EventTypeEnvelopeClaimed
}

// EnvelopeCompletedEvent represents an envelope whose last claim was taken.
// TopClaimant is the claimant with the largest summed amount across the
// envelope's records, used by external broadcasters for the "best luck"
// announcement.
type EnvelopeCompletedEvent struct {
	EnvelopeID  string
	Sender      string
	Kind        models.EnvelopeKind
	TopClaimant string
	TopAmount   float64
}

func (e EnvelopeCompletedEvent) Type() EventType {
	return EventTypeEnvelopeCompleted
}

// EnvelopeDeletedEvent represents an administrative envelope deletion
type EnvelopeDeletedEvent struct {
	EnvelopeID string
}

func (e EnvelopeDeletedEvent) Type() EventType {
	return EventTypeEnvelopeDeleted
}

// CreditReconciledEvent represents a pending ledger credit applied by the
// reconciliation sweep after an earlier credit failure
type CreditReconciledEvent struct {
	RecordID   string
	EnvelopeID string
	Claimant   string
	Amount     float64
}

func (e CreditReconciledEvent) Type() EventType {
	return EventTypeCreditReconciled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the claim path
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Use background context for event emission so handlers outlive the
	// transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
