package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/soko-commerce/checkout-service/internal/middleware"
	"github.com/soko-commerce/checkout-service/internal/order"
)

// OrderCreatedPayload is the OrderCreated event body.
type OrderCreatedPayload struct {
	OrderID      string     `json:"orderId"`
	UserID       string     `json:"userId"`
	Items        []LineItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	ShippingCost float64    `json:"shippingCost"`
	Tax          float64    `json:"tax"`
	Commission   float64    `json:"commission"`
	Total        float64    `json:"total"`
}

// CartCheckedOutPayload is emitted when a cart converts into an order.
type CartCheckedOutPayload struct {
	CartID   string     `json:"cartId"`
	UserID   string     `json:"userId"`
	Items    []LineItem `json:"items"`
	Subtotal float64    `json:"subtotal"`
}

type LineItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Publisher emits checkout lifecycle events to the topic exchange.
type Publisher struct {
	ch        *amqp.Channel
	sequences SequenceRepository
}

func NewPublisher(conn *amqp.Connection, sequences SequenceRepository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{ch: ch, sequences: sequences}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	payload := OrderCreatedPayload{
		OrderID:      o.ID,
		UserID:       o.UserID,
		Subtotal:     o.Subtotal,
		ShippingCost: o.ShippingCost,
		Tax:          o.Tax,
		Commission:   o.Commission,
		Total:        o.Total,
	}
	for _, it := range o.Items {
		payload.Items = append(payload.Items, LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return publish(ctx, p, EventNameOrderCreated, OrderCreatedRoutingKey, o.UserID, payload)
}

func (p *Publisher) PublishCartCheckedOut(ctx context.Context, userID, cartID string, items []LineItem, subtotal float64) error {
	payload := CartCheckedOutPayload{
		CartID:   cartID,
		UserID:   userID,
		Items:    items,
		Subtotal: subtotal,
	}
	return publish(ctx, p, EventNameCartCheckedOut, CartCheckedOutRoutingKey, userID, payload)
}

func publish[T any](ctx context.Context, p *Publisher, eventName, routingKey, partitionKey string, payload T) error {
	seq, err := p.sequences.NextSequence(ctx, partitionKey)
	if err != nil {
		return fmt.Errorf("next sequence for %s: %w", partitionKey, err)
	}

	env := EventEnvelope[T]{
		EventName:     eventName,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: middleware.GetCorrelationID(ctx),
		Producer:      producerName,
		PartitionKey:  partitionKey,
		Sequence:      seq,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventName, err)
	}

	return p.ch.PublishWithContext(ctx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
}
