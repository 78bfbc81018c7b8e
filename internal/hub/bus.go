package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is one planning lifecycle entry published to the stream: agent
// traffic, phase transitions and task completions all flow through here so
// external consumers can follow a plan as it forms.
type Event struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id,omitempty"`
	Kind      string    `json:"kind"` // "message", "phase", "task"
	Sender    string    `json:"sender,omitempty"`
	Receiver  string    `json:"receiver,omitempty"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

const eventStream = "windrose:events"

// EventStream persists planning events to a Redis Stream. All methods are
// nil-receiver safe so the hub runs unchanged without Redis.
type EventStream struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewEventStream connects to Redis and verifies the connection.
func NewEventStream(redisURL string, logger *zap.Logger) (*EventStream, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &EventStream{rdb: rdb, logger: logger}, nil
}

// Publish appends one event to the stream.
func (es *EventStream) Publish(ctx context.Context, ev *Event) error {
	if es == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = es.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	es.logger.Debug("event published",
		zap.String("kind", ev.Kind),
		zap.String("task", ev.TaskID))
	return nil
}

// Subscribe emits events appended after the call. Cancel the context to stop.
func (es *EventStream) Subscribe(ctx context.Context) <-chan *Event {
	ch := make(chan *Event, 16)
	if es == nil {
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)
		lastID := "$"

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			results, err := es.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{eventStream, lastID},
				Count:   10,
				Block:   time.Second * 2,
			}).Result()

			if err != nil {
				if err == context.Canceled || err == context.DeadlineExceeded {
					return
				}
				continue
			}

			for _, r := range results {
				for _, msg := range r.Messages {
					lastID = msg.ID
					data, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}
					var ev Event
					if json.Unmarshal([]byte(data), &ev) == nil {
						ch <- &ev
					}
				}
			}
		}
	}()

	return ch
}

// Close shuts down the Redis connection.
func (es *EventStream) Close() error {
	if es == nil {
		return nil
	}
	return es.rdb.Close()
}
