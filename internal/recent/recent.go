// Package recent keeps the most recently searched people of a session.
package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Limit is the maximum number of items kept.
const Limit = 5

// Item is one searched person.
type Item struct {
	ID   int64  `json:"id" binding:"required"`
	Type string `json:"type" binding:"required,oneof=student teacher"`
	Name string `json:"name"`
}

// Push moves item to the front, removing an earlier entry with the same
// id and type, and trims the list to Limit.
func Push(list []Item, item Item) []Item {
	out := make([]Item, 0, Limit)
	out = append(out, item)
	for _, it := range list {
		if it.ID == item.ID && it.Type == item.Type {
			continue
		}
		if len(out) == Limit {
			break
		}
		out = append(out, it)
	}
	return out
}

// Cache stores the list of each session.
type Cache interface {
	List(ctx context.Context, session string) ([]Item, error)
	Add(ctx context.Context, session string, item Item) ([]Item, error)
	Clear(ctx context.Context, session string) error
}

// Memory is an in-process Cache.
type Memory struct {
	mu    sync.Mutex
	lists map[string][]byte
}

// NewMemory creates an empty cache.
func NewMemory() *Memory {
	return &Memory{lists: make(map[string][]byte)}
}

func (m *Memory) List(_ context.Context, session string) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.lists[session]), nil
}

func (m *Memory) Add(_ context.Context, session string, item Item) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := Push(decode(m.lists[session]), item)
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	m.lists[session] = b
	return list, nil
}

func (m *Memory) Clear(_ context.Context, session string) error {
	m.mu.Lock()
	delete(m.lists, session)
	m.mu.Unlock()
	return nil
}

// decode reads a stored list. Unreadable data counts as empty.
func decode(b []byte) []Item {
	if len(b) == 0 {
		return []Item{}
	}
	var list []Item
	if err := json.Unmarshal(b, &list); err != nil {
		return []Item{}
	}
	if len(list) > Limit {
		list = list[:Limit]
	}
	return list
}

// Redis stores each session's list as a JSON string under recent:<session>.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a redis-backed cache.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "recent:"}
}

func (r *Redis) List(ctx context.Context, session string) ([]Item, error) {
	b, err := r.client.Get(ctx, r.prefix+session).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read recent searches: %w", err)
	}
	return decode(b), nil
}

// Add updates the list inside a WATCH transaction so concurrent tabs of the
// same session do not lose each other's entries.
func (r *Redis) Add(ctx context.Context, session string, item Item) ([]Item, error) {
	key := r.prefix + session
	var list []Item
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		list = Push(decode(b), item)
		out, err := json.Marshal(list)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}
	for i := 0; i < 3; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("write recent searches: %w", err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("write recent searches: %w", redis.TxFailedErr)
}

func (r *Redis) Clear(ctx context.Context, session string) error {
	return r.client.Del(ctx, r.prefix+session).Err()
}
