package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomActionRecord is one room log entry as consumed by downstream readers.
type RoomActionRecord struct {
	RoomID    string `json:"room_id"`
	Actor     string `json:"actor,omitempty"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ActionQueue pushes room action records onto a Redis list.
type ActionQueue struct {
	rdb   *redis.Client
	queue string
}

// NewActionQueue returns a queue publishing to the named list.
func NewActionQueue(rdb *redis.Client, queue string) *ActionQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionQueue{rdb: rdb, queue: queue}
}

// PublishRoomAction serializes the record and RPushes it.
func (q *ActionQueue) PublishRoomAction(ctx context.Context, roomID, actor, action, message string, at time.Time) error {
	data, err := json.Marshal(RoomActionRecord{
		RoomID:    roomID,
		Actor:     actor,
		Action:    action,
		Message:   message,
		Timestamp: at.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal RoomActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. ok is false when the
// queue stayed empty.
func (q *ActionQueue) Pop(ctx context.Context, timeout time.Duration) (rec RoomActionRecord, ok bool, err error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.queue).Result()
	if errors.Is(err, redis.Nil) {
		return RoomActionRecord{}, false, nil
	}
	if err != nil {
		return RoomActionRecord{}, false, fmt.Errorf("BLPop %s: %w", q.queue, err)
	}
	// res[0] is the list name, res[1] the payload.
	if len(res) < 2 {
		return RoomActionRecord{}, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return RoomActionRecord{}, false, fmt.Errorf("invalid action record: %w", err)
	}
	return rec, true, nil
}
