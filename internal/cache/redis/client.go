// Package redis implements the Publisher and RoomSubscription domain
// interfaces on top of a Redis Cluster, using go-redis/v9's sharded pub/sub
// (SSUBSCRIBE/SUNSUBSCRIBE/SPUBLISH).
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"roomrelay/internal/domain"
)

// ClientConfig holds connection parameters for the cluster client.
type ClientConfig struct {
	// Nodes is the comma-separated REDIS_NODES node list, already split.
	Nodes      []string
	Password   string
	PoolSize   int
	MaxRetries int
}

// Client wraps a *redis.ClusterClient and provides connectivity helpers.
// The pub/sub connections sharded subscriptions require are negotiated over
// RESP3 so that the cluster can push messages asynchronously.
type Client struct {
	rdb *redis.ClusterClient
}

// New creates a new cluster Client, pings it to verify connectivity, and
// returns the wrapper.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if len(cfg.Nodes) == 0 {
		return nil, fmt.Errorf("%w: redis: no cluster nodes configured", domain.ErrBootstrap)
	}

	rdb := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:      cfg.Nodes,
		Password:   cfg.Password,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
		Protocol:   3, // RESP3: required for server-pushed pub/sub messages.
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close closes the cluster connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Underlying returns the raw *redis.ClusterClient for callers that need
// direct access to the driver.
func (c *Client) Underlying() *redis.ClusterClient {
	return c.rdb
}
