package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"redpockets/events"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// Announcer publishes envelope lifecycle events to a Kafka topic for
// external consumers (chat bridges, notification services). Delivery is
// best effort; a failed write is logged and dropped.
type Announcer struct {
	writer *kafka.Writer
}

// NewAnnouncer creates an announcer writing to the given brokers and topic
func NewAnnouncer(brokers []string, topic string) *Announcer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Announcer{writer: writer}
}

// Register subscribes the announcer to the lifecycle events worth
// broadcasting
func (a *Announcer) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeEnvelopeCreated, a.handle)
	bus.Subscribe(events.EventTypeEnvelopeClaimed, a.handle)
	bus.Subscribe(events.EventTypeEnvelopeCompleted, a.handle)
}

// Close flushes and closes the underlying writer
func (a *Announcer) Close() error {
	return a.writer.Close()
}

// announcement is the wire form of a broadcast event
type announcement struct {
	Event      string `json:"event"`
	OccurredAt int64  `json:"occurred_at"`
	Payload    any    `json:"payload"`
}

func (a *Announcer) handle(ctx context.Context, event events.Event) {
	body, err := json.Marshal(announcement{
		Event:      string(event.Type()),
		OccurredAt: time.Now().UnixMilli(),
		Payload:    event,
	})
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal announcement")
		return
	}

	msg := kafka.Message{
		Key:   []byte(envelopeKey(event)),
		Value: body,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.writer.WriteMessages(writeCtx, msg); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to publish announcement")
	}
}

// envelopeKey keys messages by envelope ID so all announcements for one
// envelope land on the same partition, in order
func envelopeKey(event events.Event) string {
	switch e := event.(type) {
	case events.EnvelopeCreatedEvent:
		return e.EnvelopeID
	case events.EnvelopeClaimedEvent:
		return e.EnvelopeID
	case events.EnvelopeCompletedEvent:
		return e.EnvelopeID
	default:
		return string(event.Type())
	}
}
