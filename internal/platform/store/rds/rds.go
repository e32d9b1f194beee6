// Package rds opens a redis client for short lived coordination keys
package rds

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Open builds a client and pings it once
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("rds: empty addr")
	}
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("rds: ping %s: %w", cfg.Addr, err)
	}
	return c, nil
}
