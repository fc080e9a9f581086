// internal/database/actions.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/partydeck/internal/cache"
)

const createActionsTable = `
CREATE TABLE IF NOT EXISTS room_actions (
	id          BIGSERIAL   PRIMARY KEY,
	room_id     TEXT        NOT NULL,
	actor       TEXT        NOT NULL DEFAULT '',
	action      TEXT        NOT NULL,
	message     TEXT        NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createActionsIndex = `CREATE INDEX IF NOT EXISTS room_actions_room_idx ON room_actions (room_id, occurred_at)`

// ActionLog is the durable room action history.
type ActionLog struct {
	pool *pgxpool.Pool
}

// NewActionLog ensures the room_actions table exists.
func NewActionLog(ctx context.Context, pool *pgxpool.Pool) (*ActionLog, error) {
	if _, err := pool.Exec(ctx, createActionsTable); err != nil {
		return nil, fmt.Errorf("create room_actions: %w", err)
	}
	if _, err := pool.Exec(ctx, createActionsIndex); err != nil {
		return nil, fmt.Errorf("create room_actions index: %w", err)
	}
	return &ActionLog{pool: pool}, nil
}

// WriteActions inserts recs in one transaction.
func (l *ActionLog) WriteActions(ctx context.Context, recs []cache.RoomActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	q := `
	INSERT INTO room_actions (room_id, actor, action, message, occurred_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	return pgx.BeginTxFunc(ctx, l.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			batch.Queue(q, rec.RoomID, rec.Actor, rec.Action, rec.Message, time.UnixMilli(rec.Timestamp).UTC())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert room actions: %w", err)
		}
		return nil
	})
}

// RoomActions returns a room's recorded actions, oldest first.
func (l *ActionLog) RoomActions(ctx context.Context, roomID string) ([]cache.RoomActionRecord, error) {
	q := `SELECT room_id, actor, action, message, occurred_at FROM room_actions WHERE room_id = $1 ORDER BY occurred_at, id`
	rows, err := l.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("query room actions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cache.RoomActionRecord, error) {
		var (
			rec cache.RoomActionRecord
			at  time.Time
		)
		if err := row.Scan(&rec.RoomID, &rec.Actor, &rec.Action, &rec.Message, &at); err != nil {
			return cache.RoomActionRecord{}, err
		}
		rec.Timestamp = at.UnixMilli()
		return rec, nil
	})
}
