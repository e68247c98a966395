package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisChannel carries room broadcasts between instances.
const RedisChannel = "youvoice:rooms"

// Broker moves room messages to every instance that may hold members of the room.
type Broker interface {
	Publish(ctx context.Context, msg RoomMessage) error
	// Start begins delivering published messages to deliver.
	Start(ctx context.Context, deliver func(RoomMessage)) error
	Close() error
}

// LocalBroker delivers in-process only.
type LocalBroker struct {
	mu      sync.RWMutex
	deliver func(RoomMessage)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Publish(_ context.Context, msg RoomMessage) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()
	if deliver != nil {
		deliver(msg)
	}
	return nil
}

func (b *LocalBroker) Start(_ context.Context, deliver func(RoomMessage)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	return nil
}

func (b *LocalBroker) Close() error {
	return nil
}

// RedisBroker fans room messages out through a Redis pub/sub channel so every
// instance delivers to its own sockets.
type RedisBroker struct {
	client *redis.Client
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, msg RoomMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, RedisChannel, payload).Err()
}

func (b *RedisBroker) Start(ctx context.Context, deliver func(RoomMessage)) error {
	b.pubsub = b.client.Subscribe(ctx, RedisChannel)
	// Wait for the subscription confirmation so no publish is missed after Start returns.
	if _, err := b.pubsub.Receive(ctx); err != nil {
		_ = b.pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", RedisChannel, err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for m := range b.pubsub.Channel() {
			var msg RoomMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				slog.Warn("dropping malformed room message", "error", err)
				continue
			}
			deliver(msg)
		}
	}()
	return nil
}

// Close stops the subscription. The Redis client itself is owned by the caller.
func (b *RedisBroker) Close() error {
	if b.pubsub == nil {
		return nil
	}
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
