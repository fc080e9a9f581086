// Package sqlite provides a SQLite-backed session store backend.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jason-s-yu/partydeck/internal/store"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Backend persists room documents in one SQLite table.
type Backend struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Backend{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (b *Backend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}

func (b *Backend) Get(ctx context.Context, key store.Key) ([]byte, error) {
	var body []byte
	err := b.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM room_documents WHERE room_id = ? AND category = ? AND name = ?`,
		key.Room, key.Category, key.Name,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return body, nil
}

func (b *Backend) Put(ctx context.Context, key store.Key, body []byte) error {
	_, err := b.sqlDB.ExecContext(ctx,
		`INSERT INTO room_documents (room_id, category, name, body, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (room_id, category, name) DO UPDATE SET
		   body = excluded.body,
		   updated_at = excluded.updated_at`,
		key.Room, key.Category, key.Name, body, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, room, category string) ([]string, error) {
	rows, err := b.sqlDB.QueryContext(ctx,
		`SELECT name FROM room_documents WHERE room_id = ? AND category = ? ORDER BY name`,
		room, category,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan document name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (b *Backend) DeleteRoom(ctx context.Context, room string) error {
	if _, err := b.sqlDB.ExecContext(ctx, `DELETE FROM room_documents WHERE room_id = ?`, room); err != nil {
		return fmt.Errorf("delete room documents: %w", err)
	}
	return nil
}
