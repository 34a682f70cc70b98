package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// Routing keys published on the orders exchange.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderPaid          = "order.paid"
)

// OrderEvent is the message body of every order event.
type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	RestaurantID   string             `json:"restaurant_id"`
	OrderNumber    string             `json:"order_number"`
	Source         models.OrderSource `json:"source"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// NewOrderEvent builds an event for the order's current state.
func NewOrderEvent(eventType string, order *models.Order, previous models.OrderStatus) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		RestaurantID:   order.TenantID,
		OrderNumber:    order.OrderNumber,
		Source:         order.Source,
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Total,
		OccurredAt:     time.Now().UTC(),
	}
}

// Publisher emits order events. Publishing is best effort and never blocks an order write.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event OrderEvent) error {
	utils.LogDebug("Order event (no broker)", map[string]interface{}{"type": event.Type, "order_id": event.OrderID})
	return nil
}

func (NoopPublisher) Close() error { return nil }

// RabbitPublisher publishes persistent JSON messages to a topic exchange.
type RabbitPublisher struct {
	exchange string
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
}

// NewRabbitPublisher dials the broker and declares the durable topic exchange.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}
	return &RabbitPublisher{exchange: exchange, conn: conn, ch: ch}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,        // exchange
		RoutingKey(event), // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.OrderID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", event.Type, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey is "<type>.<restaurant id>", e.g. order.created.<id>, so consumers can bind per restaurant.
func RoutingKey(event OrderEvent) string {
	return event.Type + "." + event.RestaurantID
}
