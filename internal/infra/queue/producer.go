package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
)

// DispatchEvent is the message body published for every dispatch.
type DispatchEvent struct {
	Dispatch *entity.Dispatch `json:"dispatch"`
	Origin   string           `json:"origin"`
}

// Publisher is satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Producer struct {
	Ch     Publisher
	Origin string
}

func NewProducer(ch Publisher, origin string) *Producer {
	return &Producer{Ch: ch, Origin: origin}
}

// Record publishes d as a persistent DispatchEvent.
func (p *Producer) Record(ctx context.Context, d *entity.Dispatch) error {
	body, err := json.Marshal(DispatchEvent{Dispatch: d, Origin: p.Origin})
	if err != nil {
		return fmt.Errorf("failed to encode dispatch event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    d.ID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
