package redis

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	rd "github.com/redis/go-redis/v9"
)

// Client owns the go-redis connection and exposes it as a lifecycle.
type Client struct {
	addr   string
	db     int
	rdb    *rd.Client
	logger apt.Logger
}

func NewClient(addr string, db int, logger apt.Logger) *Client {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Client{
		addr:   addr,
		db:     db,
		rdb:    rd.NewClient(&rd.Options{Addr: addr, DB: db}),
		logger: logger,
	}
}

func (c *Client) Start(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cannot ping redis at %s: %w", c.addr, err)
	}
	c.logger.Info("Connected to Redis", "addr", c.addr, "db", c.db)
	return nil
}

func (c *Client) Stop(ctx context.Context) error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("cannot close redis client: %w", err)
	}
	c.logger.Info("Disconnected from Redis")
	return nil
}

func (c *Client) Redis() *rd.Client {
	return c.rdb
}
