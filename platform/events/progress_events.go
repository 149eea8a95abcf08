package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"shorts_backend/models"
	"shorts_backend/pkg/logging"
)

const ProgressEventChannel = "shorts:progress"

// Publisher delivers progress events to connected clients. Delivery is
// best-effort and at-most-once; there is no replay buffer.
type Publisher interface {
	Publish(event *models.ProgressEvent) error
	Subscribe(ctx context.Context) (<-chan *models.ProgressEvent, error)
}

// RedisPublisher fans events out over a redis pub/sub channel so that
// any instance can serve the websocket for any session.
type RedisPublisher struct {
	redisClient *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redisClient: redisClient}
}

func (p *RedisPublisher) Publish(event *models.ProgressEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail Publish progress event", "error", err)
		return err
	}
	ctx := context.Background()
	if err := p.redisClient.Publish(ctx, ProgressEventChannel, string(data)).Err(); err != nil {
		logging.Logger.Error("fail Publish progress event", "error", err)
		return err
	}
	return nil
}

func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan *models.ProgressEvent, error) {
	pubsub := p.redisClient.Subscribe(ctx, ProgressEventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		logging.Logger.Error("fail Subscribe progress events", "error", err)
		return nil, err
	}
	ch := make(chan *models.ProgressEvent, 100)

	// goroutine to listen
	go func() {
		defer close(ch)
		defer func() {
			if err := pubsub.Close(); err != nil {
				logging.Logger.Error("fail closing pubsub", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-pubsub.Channel():
				var event models.ProgressEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logging.Logger.Error("fail to unmarshal progress event", "error", err)
					continue
				}

				select {
				case ch <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
