// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel signals travel on.
const DefaultRedisChannel = "stagecms:preview"

// RedisBridge joins preview channels across processes: a broadcast in one
// server instance reaches subscribers in every instance sharing the Redis.
// Optional; single-process deployments run without it.
type RedisBridge struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	closed  bool
}

// NewRedisBridge connects to Redis and verifies the connection.
func NewRedisBridge(url, channel string, logger *slog.Logger) (*RedisBridge, error) {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisBridge{client: client, channel: channel, logger: logger}, nil
}

// Name implements Transport.
func (b *RedisBridge) Name() string { return "redis" }

// Broadcast publishes the signal on the shared channel.
func (b *RedisBridge) Broadcast(ctx context.Context, sig Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encoding signal: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe consumes signals published by other processes. Each subscription
// holds its own pub/sub connection, released by the returned cancel.
func (b *RedisBridge) Subscribe(h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("redis bridge closed")
	}

	pubsub := b.client.Subscribe(context.Background(), b.channel)
	b.pubsubs = append(b.pubsubs, pubsub)

	go func() {
		for msg := range pubsub.Channel() {
			sig, ok := DecodeSignal([]byte(msg.Payload))
			if !ok {
				continue
			}
			h(sig)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Debug("closing redis subscription", "error", err)
		}
	}, nil
}

// Close releases all subscriptions and the client.
func (b *RedisBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, pubsub := range b.pubsubs {
		_ = pubsub.Close()
	}
	b.pubsubs = nil
	return b.client.Close()
}
