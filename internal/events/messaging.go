package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange           = "marketplace.events"
	OrderCreatedRoutingKey   = "order.created.v1"
	CartCheckedOutRoutingKey = "cart.checkedout.v1"
	producerName             = "checkout-service"
)

const (
	EventNameOrderCreated   = "OrderCreated"
	EventNameCartCheckedOut = "CartCheckedOut"
	eventVersion            = 1
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
