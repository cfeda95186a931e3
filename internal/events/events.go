// Package events publishes order lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"shopbridge/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EventType string

const (
	OrderCreated              EventType = "order.created"
	OrderStatusChanged        EventType = "order.status_changed"
	OrderPaymentStatusChanged EventType = "order.payment_status_changed"
	OrderNotesUpdated         EventType = "order.notes_updated"
)

type OrderEvent struct {
	ID            string               `json:"id"`
	Type          EventType            `json:"type"`
	OrderID       int64                `json:"orderId"`
	Principal     string               `json:"principal"`
	Actor         string               `json:"actor"`
	OrderStatus   domain.OrderStatus   `json:"orderStatus"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Total         int64                `json:"total"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// NewOrderEvent snapshots o for publication.
func NewOrderEvent(t EventType, o *domain.Order, actor string, at time.Time) OrderEvent {
	return OrderEvent{
		ID:            uuid.NewString(),
		Type:          t,
		OrderID:       o.ID,
		Principal:     o.Principal,
		Actor:         actor,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		OccurredAt:    at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher writes events keyed by order id so one order's events
// stay on one partition.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		logger: logger.Named("events"),
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, e OrderEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.OrderID, 10)),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("publish order event", zap.String("type", string(e.Type)), zap.Int64("order_id", e.OrderID), zap.Error(err))
		return err
	}
	return nil
}

func (p *kafkaPublisher) Close() error { return p.writer.Close() }

type nopPublisher struct{}

// NewNopPublisher drops every event. Used when no brokers are configured.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (nopPublisher) Close() error                              { return nil }
