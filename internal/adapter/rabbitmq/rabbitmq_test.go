package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/config"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  []string
	published  []published
	deliveries chan amqp.Delivery
	closeCh    chan *amqp.Error
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 8), closeCh: make(chan *amqp.Error, 1)}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, name+":"+kind)
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	return Queue{Name: "amq.gen-1"}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return nil
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) NotifyClose() <-chan *amqp.Error { return c.closeCh }

type fakeConn struct {
	mu       sync.Mutex
	channels []*fakeChannel
	opened   int
	failNext int
}

func (c *fakeConn) Channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext > 0 {
		c.failNext--
		return nil, errors.New("connection reset")
	}
	ch := c.channels[c.opened]
	c.opened++
	return ch, nil
}

func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) NotifyClose() <-chan *amqp.Error { return make(chan *amqp.Error) }
func (c *fakeConn) IsClosed() bool { return false }

func (c *fakeConn) openedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

func TestPublisher_RoutesToFanouts(t *testing.T) {
	ch1, ch2 := newFakeChannel(), newFakeChannel()
	p := NewPublisher(&fakeConn{channels: []*fakeChannel{ch1, ch2}})

	msg := interfaces.NotificationMessage{
		Type:       interfaces.NotificationOrderCompleted,
		CustomerID: 3,
		Message:    "order delivered to alice",
	}
	require.NoError(t, p.PublishNotification(context.Background(), msg))
	require.NoError(t, p.PublishActivity(context.Background(), &domain.ActivityRecord{State: domain.Snapshot{TotalCustomers: 2}}))

	require.Len(t, ch1.published, 1)
	assert.Equal(t, NotificationsExchange, ch1.published[0].exchange)
	assert.Equal(t, "order_completed", ch1.published[0].key)
	assert.Equal(t, []string{"cafe_notifications:fanout"}, ch1.exchanges)
	assert.True(t, ch1.closed)

	var decoded interfaces.NotificationMessage
	require.NoError(t, json.Unmarshal(ch1.published[0].msg.Body, &decoded))
	assert.Equal(t, msg.Message, decoded.Message)

	require.Len(t, ch2.published, 1)
	assert.Equal(t, ActivityExchange, ch2.published[0].exchange)
	assert.Contains(t, string(ch2.published[0].msg.Body), `"totalCustomers":2`)
}

func TestPublisher_ChannelError(t *testing.T) {
	p := NewPublisher(&fakeConn{failNext: 1})
	err := p.PublishNotification(context.Background(), interfaces.NotificationMessage{})
	assert.ErrorContains(t, err, "failed to open channel")
}

func TestConsumer_ResubscribesAfterChannelClose(t *testing.T) {
	first, second := newFakeChannel(), newFakeChannel()
	conn := &fakeConn{channels: []*fakeChannel{first, second}}
	c := &consumer{conn: conn, logger: logger.Nop(), reconnectDelay: time.Millisecond}

	var mu sync.Mutex
	var got []string
	handler := func(_ context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(body))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.ConsumeNotifications(ctx, handler) }()

	first.deliveries <- amqp.Delivery{Body: []byte("one")}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, time.Millisecond)

	first.closeCh <- &amqp.Error{Code: 320, Reason: "CONNECTION_FORCED"}
	require.Eventually(t, func() bool { return conn.openedCount() == 2 }, time.Second, time.Millisecond)

	second.deliveries <- amqp.Delivery{Body: []byte("two")}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestURL(t *testing.T) {
	cfg := config.RabbitMQConfig{Host: "mq", Port: 5672, User: "guest", Password: "guest", VHost: "/"}
	assert.Equal(t, "amqp://guest:guest@mq:5672/%2F", URL(cfg))

	cfg.VHost = "cafe"
	assert.Equal(t, "amqp://guest:guest@mq:5672/cafe", URL(cfg))
}
