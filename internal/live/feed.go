package live

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/foodzone/foodzone-pos/internal/accounting"
)

// Subscriber delivers change notifications for the ledger collections.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan accounting.Feed, error)
}

// RedisSubscriber listens on the ledger change channel.
type RedisSubscriber struct {
	client *redis.Client
}

// NewRedisSubscriber wraps a redis client.
func NewRedisSubscriber(client *redis.Client) *RedisSubscriber {
	return &RedisSubscriber{client: client}
}

// Subscribe forwards change notifications until ctx is cancelled. The
// subscription is confirmed before returning so no bump is missed.
func (s *RedisSubscriber) Subscribe(ctx context.Context) (<-chan accounting.Feed, error) {
	pubsub := s.client.Subscribe(ctx, accounting.ChangeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	out := make(chan accounting.Feed, 16)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- accounting.Feed(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
