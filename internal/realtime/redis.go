package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/models"
)

// RedisHub publishes on notifications:<userID> so every API instance can serve any feed.
type RedisHub struct {
	client    *redis.Client
	log       *zap.Logger
	closing   chan struct{}
	closeOnce sync.Once
}

func NewRedisHub(client *redis.Client, log *zap.Logger) *RedisHub {
	return &RedisHub{client: client, log: log.Named("realtime"), closing: make(chan struct{})}
}

func Channel(userID string) string {
	return "notifications:" + userID
}

func (h *RedisHub) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := h.client.Publish(ctx, Channel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed before returning.
func (h *RedisHub) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	pubsub := h.client.Subscribe(ctx, Channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.Notification, subscriberBuffer)
	done := make(chan struct{})

	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-h.closing:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					h.log.Warn("dropping malformed notification", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- n:
				case <-done:
					return
				case <-h.closing:
					return
				}
			}
		}
	}()

	return newSubscription(out, func() {
		close(done)
		if err := pubsub.Close(); err != nil {
			h.log.Debug("closing pubsub", zap.Error(err))
		}
	}), nil
}

// Close ends every feed. The redis client is owned by the caller.
func (h *RedisHub) Close() error {
	h.closeOnce.Do(func() { close(h.closing) })
	return nil
}
