package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/models"
)

// Delivery is one stored message plus the rooms it must reach. A room is a
// username, or the shared "admin" room that every admin connection joins.
type Delivery struct {
	Rooms   []string       `json:"rooms"`
	Message models.Message `json:"message"`
}

// Broker fans deliveries out to every hub that should see them. With one
// server process the LocalBroker is a loopback; with several, the
// RedisBroker carries deliveries across instances so a user connected to
// instance A still hears an admin connected to instance B.
type Broker interface {
	Publish(ctx context.Context, d Delivery) error

	// Deliveries yields everything published by any instance, this one
	// included. The channel closes when the broker closes.
	Deliveries() <-chan Delivery

	Close() error
}

// LocalBroker is the in-process loopback. Also the broker the tests use.
type LocalBroker struct {
	ch     chan Delivery
	mu     sync.RWMutex
	closed bool
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{
		ch: make(chan Delivery, 64),
	}
}

func (b *LocalBroker) Publish(ctx context.Context, d Delivery) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("broker closed")
	}
	select {
	case b.ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *LocalBroker) Deliveries() <-chan Delivery {
	return b.ch
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	return nil
}

const redisChannel = "supportchat:messages"

// RedisBroker carries deliveries over a Redis pub/sub channel.
type RedisBroker struct {
	rdb       *redis.Client
	pubsub    *redis.PubSub
	out       chan Delivery
	logger    *zap.Logger
	closeOnce sync.Once
}

func NewRedisBroker(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	b := &RedisBroker{
		rdb:    rdb,
		pubsub: rdb.Subscribe(ctx, redisChannel),
		out:    make(chan Delivery, 64),
		logger: logger,
	}
	go b.receive()

	logger.Info("redis broker connected", zap.String("channel", redisChannel))
	return b, nil
}

func (b *RedisBroker) Publish(ctx context.Context, d Delivery) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}
	if err := b.rdb.Publish(ctx, redisChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish delivery: %w", err)
	}
	return nil
}

func (b *RedisBroker) Deliveries() <-chan Delivery {
	return b.out
}

// receive decodes pub/sub payloads onto the out channel. It exits (and
// closes out) when the subscription closes.
func (b *RedisBroker) receive() {
	defer close(b.out)
	for msg := range b.pubsub.Channel() {
		var d Delivery
		if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
			b.logger.Warn("dropping malformed delivery", zap.Error(err))
			continue
		}
		b.out <- d
	}
}

func (b *RedisBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if cerr := b.pubsub.Close(); cerr != nil {
			err = cerr
		}
		if cerr := b.rdb.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
