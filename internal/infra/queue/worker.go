package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
)

// DispatchStore is where consumed events end up (the Postgres journal).
type DispatchStore interface {
	Record(ctx context.Context, d *entity.Dispatch) error
}

// Consumer is satisfied by *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Store   DispatchStore
	Logger  *zap.Logger
}

func NewWorker(ch Consumer, store DispatchStore, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Store: store, Logger: logger}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register RabbitMQ consumer: %w", err)
	}

	w.Logger.Info("worker waiting for dispatch events", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks stored events; anything else is nacked without requeue so it
// lands in the DLQ.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event DispatchEvent
	if err := json.Unmarshal(d.Body, &event); err != nil || event.Dispatch == nil || event.Dispatch.ID == "" {
		w.Logger.Error("❌ [WORKER] invalid dispatch event", zap.Error(err), zap.String("message_id", d.MessageId))
		d.Nack(false, false)
		return
	}

	log := w.Logger.With(zap.String("dispatch_id", event.Dispatch.ID), zap.String("status", event.Dispatch.Status))

	if err := w.Store.Record(ctx, event.Dispatch); err != nil {
		log.Error("❌ [WORKER] failed to store dispatch", zap.Error(err))
		d.Nack(false, false)
		return
	}

	log.Debug("✅ [WORKER] dispatch stored")
	d.Ack(false)
}
