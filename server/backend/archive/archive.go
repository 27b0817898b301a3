/*
 * Copyright 2026 The Coedit Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package archive keeps the activity events of every document in Redis so
// that they outlive the in-memory log of a session.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edu-tutor/coedit/api/types"
)

const pingTimeout = 5 * time.Second

// Store archives activity events as one capped Redis list per document,
// newest first.
type Store struct {
	client    *redis.Client
	prefix    string
	retention int
	ttl       time.Duration
}

// New connects to the Redis of the config.
func New(conf *Config) (*Store, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(conf.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	store, err := NewWithClient(redis.NewClient(opts), conf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return store, nil
}

// NewWithClient creates a store from an existing Redis client.
func NewWithClient(client *redis.Client, conf *Config) (*Store, error) {
	ttl, err := conf.ParseTTL()
	if err != nil {
		return nil, err
	}

	return &Store{
		client:    client,
		prefix:    conf.KeyPrefix,
		retention: conf.Retention,
		ttl:       ttl,
	}, nil
}

// key generates the Redis key of a document.
func (s *Store) key(docKey string) string {
	return s.prefix + docKey
}

// Append archives the event of the document.
func (s *Store) Append(ctx context.Context, docKey string, event types.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	key := s.key(docKey)
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(s.retention-1))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	}); err != nil {
		return fmt.Errorf("archive activity event of %s: %w", docKey, err)
	}

	return nil
}

// Recent returns up to n archived events of the document, newest first.
func (s *Store) Recent(ctx context.Context, docKey string, n int) ([]types.ActivityEvent, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := s.client.LRange(ctx, s.key(docKey), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read activity of %s: %w", docKey, err)
	}

	events := make([]types.ActivityEvent, 0, len(values))
	for _, value := range values {
		var event types.ActivityEvent
		if err := json.Unmarshal([]byte(value), &event); err != nil {
			return nil, fmt.Errorf("unmarshal activity event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// Len returns the number of archived events of the document.
func (s *Store) Len(ctx context.Context, docKey string) (int64, error) {
	n, err := s.client.LLen(ctx, s.key(docKey)).Result()
	if err != nil {
		return 0, fmt.Errorf("count activity of %s: %w", docKey, err)
	}
	return n, nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
