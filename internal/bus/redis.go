/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package bus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over Redis Pub/Sub channels, one channel per subject.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus connects to addr and verifies reachability.
func NewRedisBus(ctx context.Context, addr string) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisBus{client: client}, nil
}

// Close releases the underlying Redis connection pool.
func (b *RedisBus) Close() error { return b.client.Close() }

// Publish implements Bus.
func (b *RedisBus) Publish(ctx context.Context, subject string, body []byte) error {
	return b.client.Publish(ctx, subject, body).Err()
}

// Subscribe implements Bus.
func (b *RedisBus) Subscribe(ctx context.Context, subject string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, subject)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	out := make(chan Message, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			out <- Message{Subject: msg.Channel, Body: []byte(msg.Payload)}
		}
	}()
	return &redisSubscription{pubsub: pubsub, ch: out}, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan Message
}

func (s *redisSubscription) Channel() <-chan Message { return s.ch }
func (s *redisSubscription) Close() error            { return s.pubsub.Close() }
