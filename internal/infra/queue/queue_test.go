package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/whatsapp-notifier/internal/entity"
)

// ============ PRODUCER ============

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func TestProducerRecordPublishesPersistentEvent(t *testing.T) {
	d := entity.NewDispatch("whatsapp:+1", "whatsapp:+2", "HX1", map[string]string{"1": "12/1"})
	d.MarkSent("SM1", "queued")

	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, ExchangeName, RoutingKey, false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var event DispatchEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				return false
			}
			return msg.DeliveryMode == amqp.Persistent &&
				msg.ContentType == "application/json" &&
				msg.MessageId == d.ID &&
				event.Origin == "api" &&
				event.Dispatch.MessageSID == "SM1"
		})).Return(nil)

	require.NoError(t, NewProducer(pub, "api").Record(context.Background(), d))
	pub.AssertExpectations(t)
}

func TestProducerRecordPublishError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(amqp.ErrClosed)

	err := NewProducer(pub, "api").Record(context.Background(), entity.NewDispatch("a", "b", "c", nil))
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

// ============ TOPOLOGY ============

type recordingDeclarer struct {
	exchanges []string
	queues    map[string]amqp.Table
	bindings  []string
	failOn    string
}

func (r *recordingDeclarer) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if name == r.failOn {
		return errors.New("declare failed")
	}
	r.exchanges = append(r.exchanges, name)
	return nil
}

func (r *recordingDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if r.queues == nil {
		r.queues = map[string]amqp.Table{}
	}
	r.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (r *recordingDeclarer) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	r.bindings = append(r.bindings, exchange+"->"+name)
	return nil
}

func TestSetupTopology(t *testing.T) {
	d := &recordingDeclarer{}
	require.NoError(t, setupTopology(d))

	assert.Equal(t, []string{DLXName, ExchangeName}, d.exchanges)
	assert.Equal(t, []string{DLXName + "->" + DLQName, ExchangeName + "->" + QueueName}, d.bindings)
	assert.Equal(t, DLXName, d.queues[QueueName]["x-dead-letter-exchange"])
	assert.Nil(t, d.queues[DLQName])
}

func TestSetupTopologyError(t *testing.T) {
	d := &recordingDeclarer{failOn: ExchangeName}
	assert.Error(t, setupTopology(d))
	assert.NotContains(t, d.queues, QueueName)
}

// ============ WORKER ============

type fakeAcknowledger struct {
	mu       sync.Mutex
	acks     int
	nacks    int
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeued = a.requeued || requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acks, a.nacks
}

type MockDispatchStore struct {
	mock.Mock
}

func (m *MockDispatchStore) Record(ctx context.Context, d *entity.Dispatch) error {
	return m.Called(ctx, d).Error(0)
}

func delivery(t *testing.T, ack amqp.Acknowledger, event any) amqp.Delivery {
	t.Helper()
	var body []byte
	switch v := event.(type) {
	case []byte:
		body = v
	default:
		var err error
		body, err = json.Marshal(v)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestWorkerStoresAndAcks(t *testing.T) {
	d := entity.NewDispatch("a", "b", "c", nil)
	store := new(MockDispatchStore)
	store.On("Record", mock.Anything, mock.MatchedBy(func(got *entity.Dispatch) bool {
		return got.ID == d.ID
	})).Return(nil)

	ack := &fakeAcknowledger{}
	NewWorker(nil, store, nil).handle(context.Background(), delivery(t, ack, DispatchEvent{Dispatch: d}))

	acks, nacks := ack.counts()
	assert.Equal(t, 1, acks)
	assert.Equal(t, 0, nacks)
	store.AssertExpectations(t)
}

func TestWorkerNacksMalformedEvent(t *testing.T) {
	store := new(MockDispatchStore)
	w := NewWorker(nil, store, nil)

	for _, body := range [][]byte{[]byte("not json"), []byte(`{"origin":"api"}`)} {
		ack := &fakeAcknowledger{}
		w.handle(context.Background(), delivery(t, ack, body))

		acks, nacks := ack.counts()
		assert.Equal(t, 0, acks)
		assert.Equal(t, 1, nacks)
		assert.False(t, ack.requeued)
	}

	store.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestWorkerNacksOnStoreFailure(t *testing.T) {
	store := new(MockDispatchStore)
	store.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))

	ack := &fakeAcknowledger{}
	NewWorker(nil, store, nil).handle(context.Background(), delivery(t, ack, DispatchEvent{Dispatch: entity.NewDispatch("a", "b", "c", nil)}))

	acks, nacks := ack.counts()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	assert.False(t, ack.requeued)
}

type chanConsumer struct {
	ch  chan amqp.Delivery
	err error
}

func (c *chanConsumer) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.ch, c.err
}

func TestWorkerStartUntilContextDone(t *testing.T) {
	store := new(MockDispatchStore)
	store.On("Record", mock.Anything, mock.Anything).Return(nil)

	consumer := &chanConsumer{ch: make(chan amqp.Delivery, 1)}
	ack := &fakeAcknowledger{}
	consumer.ch <- delivery(t, ack, DispatchEvent{Dispatch: entity.NewDispatch("a", "b", "c", nil)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(consumer, store, nil).Start(ctx, QueueName) }()

	assert.Eventually(t, func() bool {
		acks, _ := ack.counts()
		return acks == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerStartChannelClosed(t *testing.T) {
	consumer := &chanConsumer{ch: make(chan amqp.Delivery)}
	close(consumer.ch)

	err := NewWorker(consumer, new(MockDispatchStore), nil).Start(context.Background(), QueueName)
	assert.Error(t, err)
}

func TestWorkerStartConsumeError(t *testing.T) {
	consumer := &chanConsumer{err: amqp.ErrClosed}

	err := NewWorker(consumer, new(MockDispatchStore), nil).Start(context.Background(), QueueName)
	assert.ErrorIs(t, err, amqp.ErrClosed)
}
