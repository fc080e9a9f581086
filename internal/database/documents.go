// internal/database/documents.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/partydeck/internal/store"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS room_documents (
	room_id    TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (room_id, category, name)
)`

// DocumentBackend stores room documents in Postgres.
type DocumentBackend struct {
	pool *pgxpool.Pool
}

// NewDocumentBackend ensures the documents table exists.
func NewDocumentBackend(ctx context.Context, pool *pgxpool.Pool) (*DocumentBackend, error) {
	if _, err := pool.Exec(ctx, createDocumentsTable); err != nil {
		return nil, fmt.Errorf("create room_documents: %w", err)
	}
	return &DocumentBackend{pool: pool}, nil
}

func (b *DocumentBackend) Get(ctx context.Context, key store.Key) ([]byte, error) {
	var body []byte
	q := `SELECT body FROM room_documents WHERE room_id = $1 AND category = $2 AND name = $3`
	err := b.pool.QueryRow(ctx, q, key.Room, key.Category, key.Name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return body, nil
}

func (b *DocumentBackend) Put(ctx context.Context, key store.Key, body []byte) error {
	q := `
	INSERT INTO room_documents (room_id, category, name, body, updated_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (room_id, category, name)
	DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`
	return pgx.BeginTxFunc(ctx, b.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, key.Room, key.Category, key.Name, string(body))
		return err
	})
}

func (b *DocumentBackend) List(ctx context.Context, room, category string) ([]string, error) {
	q := `SELECT name FROM room_documents WHERE room_id = $1 AND category = $2 ORDER BY name COLLATE "C"`
	rows, err := b.pool.Query(ctx, q, room, category)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan document names: %w", err)
	}
	return names, nil
}

func (b *DocumentBackend) DeleteRoom(ctx context.Context, room string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM room_documents WHERE room_id = $1`, room); err != nil {
		return fmt.Errorf("delete room documents: %w", err)
	}
	return nil
}

// Close closes the pool.
func (b *DocumentBackend) Close() error {
	b.pool.Close()
	return nil
}
