// Package events publishes domain changes to connected browsers and, when
// configured, to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ws "invoicedesk/internal/websocket"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Type string

const (
	InventoryCreated     Type = "inventory.created"
	InventoryUpdated     Type = "inventory.updated"
	InventoryDeleted     Type = "inventory.deleted"
	InvoiceCommitted     Type = "invoice.committed"
	InvoiceStatusChanged Type = "invoice.status_changed"
)

type Event struct {
	ID      uuid.UUID   `json:"id"`
	Type    Type        `json:"event"`
	OwnerID uuid.UUID   `json:"owner_id"`
	At      time.Time   `json:"at"`
	Data    interface{} `json:"data"`
}

func New(t Type, ownerID uuid.UUID, data interface{}) Event {
	return Event{ID: uuid.New(), Type: t, OwnerID: ownerID, At: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// FanOut publishes to every publisher and joins their errors.
type FanOut []Publisher

func (f FanOut) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HubPublisher pushes events to the owner's websocket connections.
type HubPublisher struct {
	hub *ws.Hub
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.hub.Send(ctx, e.OwnerID, payload)
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a synchronous writer that keys messages by owner so
// one user's events stay ordered.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger.Named("kafka")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.OwnerID.String()),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to kafka: %w", e.Type, err)
	}
	p.logger.Debug("Event published", zap.String("event", string(e.Type)), zap.String("event_id", e.ID.String()))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
