// Package ch provides a clickhouse client for append only audit tables
package ch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL string

	// reported to the server as client info
	Role string
	Tag  string
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
}

// seam for tests
var openConn = clickhouse.Open

// Open parses the DSN, attaches client info and verifies the connection
func Open(ctx context.Context, cfg Config) (*CH, error) {
	if cfg.URL == "" {
		return nil, errors.New("ch: empty url")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.Role, cfg.Tag)

	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return &CH{conn: conn}, nil
}

// Insert appends rows to table in a single batch; column order follows the table
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if c == nil || c.conn == nil {
		return errors.New("ch: not connected")
	}
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("ch: prepare %s: %w", table, err)
	}
	for i, r := range rows {
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("ch: append row %d to %s: %w", i, table, err)
		}
	}
	return batch.Send()
}

// Exec runs a statement such as DDL
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	if c == nil || c.conn == nil {
		return errors.New("ch: not connected")
	}
	return c.conn.Exec(ctx, sql, args...)
}

// Ping checks the connection
func (c *CH) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return errors.New("ch: not connected")
	}
	return c.conn.Ping(ctx)
}

// Close closes resources
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
