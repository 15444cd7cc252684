package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
)

// MemoryBroker is an in-process Broker. Patterns use glob syntax like Redis
// PSUBSCRIBE. Slow subscribers drop messages instead of blocking publishers.
type MemoryBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*memorySubscription
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[int]*memorySubscription)}
}

type memorySubscription struct {
	broker   *MemoryBroker
	id       int
	channels []string
	patterns []string
	out      chan *Message
	once     sync.Once
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.matches(channel) {
			continue
		}
		select {
		case sub.out <- &Message{Channel: channel, Payload: data}:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	return b.add(channels, nil), nil
}

func (b *MemoryBroker) PSubscribe(ctx context.Context, patterns ...string) (Subscription, error) {
	return b.add(nil, patterns), nil
}

func (b *MemoryBroker) add(channels, patterns []string) *memorySubscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &memorySubscription{
		broker:   b,
		id:       b.nextID,
		channels: channels,
		patterns: patterns,
		out:      make(chan *Message, 256),
	}
	b.subs[sub.id] = sub
	return sub
}

func (s *memorySubscription) matches(channel string) bool {
	for _, c := range s.channels {
		if c == channel {
			return true
		}
	}
	for _, p := range s.patterns {
		if ok, _ := path.Match(p, channel); ok {
			return true
		}
	}
	return false
}

func (s *memorySubscription) Messages() <-chan *Message {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()
		close(s.out)
	})
	return nil
}
