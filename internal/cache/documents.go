package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/redis/go-redis/v9"
)

var categories = []string{store.CategorySettings, store.CategoryDecks, store.CategoryHands}

// DocumentBackend stores each room document under its own key and keeps a
// set of names per (room, category) for listing.
type DocumentBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewDocumentBackend wraps rdb. Keys are namespaced with prefix.
func NewDocumentBackend(rdb *redis.Client, prefix string) *DocumentBackend {
	if prefix == "" {
		prefix = "partydeck"
	}
	return &DocumentBackend{rdb: rdb, prefix: prefix}
}

func (b *DocumentBackend) docKey(k store.Key) string {
	return fmt.Sprintf("%s:room:%s:%s:%s", b.prefix, k.Room, k.Category, k.Name)
}

func (b *DocumentBackend) indexKey(room, category string) string {
	return fmt.Sprintf("%s:room:%s:%s", b.prefix, room, category)
}

func (b *DocumentBackend) Get(ctx context.Context, key store.Key) ([]byte, error) {
	body, err := b.rdb.Get(ctx, b.docKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key.Name, err)
	}
	return body, nil
}

func (b *DocumentBackend) Put(ctx context.Context, key store.Key, body []byte) error {
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, b.docKey(key), body, 0)
		pipe.SAdd(ctx, b.indexKey(key.Room, key.Category), key.Name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", key.Name, err)
	}
	return nil
}

func (b *DocumentBackend) List(ctx context.Context, room, category string) ([]string, error) {
	names, err := b.rdb.SMembers(ctx, b.indexKey(room, category)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", category, err)
	}
	sort.Strings(names)
	return names, nil
}

func (b *DocumentBackend) DeleteRoom(ctx context.Context, room string) error {
	keys := []string{}
	for _, c := range categories {
		names, err := b.rdb.SMembers(ctx, b.indexKey(room, c)).Result()
		if err != nil {
			return fmt.Errorf("redis list %s: %w", c, err)
		}
		for _, n := range names {
			keys = append(keys, b.docKey(store.Key{Room: room, Category: c, Name: n}))
		}
		keys = append(keys, b.indexKey(room, c))
	}
	if err := b.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete room: %w", err)
	}
	return nil
}

// Close is a no-op: the client is shared with the action queue and its
// owner closes it.
func (b *DocumentBackend) Close() error {
	return nil
}
