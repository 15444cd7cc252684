package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Message is a payload received on a pub/sub channel.
type Message struct {
	Channel string
	Payload []byte
}

type Subscription interface {
	Messages() <-chan *Message
	Close() error
}

// Broker fans messages out to every subscriber of a channel, across
// processes when backed by Redis.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
	PSubscribe(ctx context.Context, patterns ...string) (Subscription, error)
}

func (r *RedisCache) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channel, data).Err()
}

func (r *RedisCache) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	return newRedisSubscription(ctx, r.client.Subscribe(ctx, channels...))
}

func (r *RedisCache) PSubscribe(ctx context.Context, patterns ...string) (Subscription, error) {
	return newRedisSubscription(ctx, r.client.PSubscribe(ctx, patterns...))
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan *Message
	done   chan struct{}
	once   sync.Once
}

func newRedisSubscription(ctx context.Context, pubsub *redis.PubSub) (*redisSubscription, error) {
	// Wait for the subscription confirmation so no message published after
	// this call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		out:    make(chan *Message, 64),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.out)
		for msg := range pubsub.Channel() {
			select {
			case sub.out <- &Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			case <-sub.done:
				return
			}
		}
	}()

	return sub, nil
}

func (s *redisSubscription) Messages() <-chan *Message {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
