package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"parkingslots/internal/db"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload published for every committed booking state change.
type BookingEvent struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	OccurredAt  time.Time  `json:"occurred_at"`
	BookingID   int64      `json:"booking_id"`
	SlotID      int64      `json:"slot_id"`
	UserID      string     `json:"user_id"`
	VehicleType string     `json:"vehicle_type"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func NewBookingEvent(eventType string, b *db.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		OccurredAt:  at.UTC(),
		BookingID:   b.ID,
		SlotID:      b.SlotID,
		UserID:      b.UserID,
		VehicleType: string(b.VehicleType),
		StartTime:   b.StartTime.UTC(),
		EndTime:     b.EndTime.UTC(),
		Status:      string(b.Status),
		CancelledAt: b.CancelledAt,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// KafkaEventPublisher writes booking events keyed by slot id, so events of one slot stay
// ordered within a partition.
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaEventPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	sugar := logger.Sugar()
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				sugar.Errorw("failed to publish booking events", "count", len(messages), "error", err)
			}
		},
		Logger:      kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(sugar.Errorf),
	}
	return &KafkaEventPublisher{writer: writer}, nil
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding event %s: %w", event.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.SlotID, 10)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
