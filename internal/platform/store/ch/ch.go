// Package ch provides a clickhouse client built on clickhouse-go
package ch

import (
	"context"
	"errors"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL         string
	Role        string // reported in client info, e.g. "api" or "relay"
	Tag         string // build tag or version
	DialTimeout time.Duration
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// Batch is the append-then-send surface of a prepared insert
type Batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// conn is the slice of driver.Conn we use; tests swap it out
type conn interface {
	PrepareBatch(ctx context.Context, query string) (Batch, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// CH is a clickhouse client
type CH struct {
	c conn
}

// ErrClosed is returned by calls on a nil or closed client
var ErrClosed = errors.New("ch: client not open")

// dial is a seam so tests avoid a live server
var dial = func(opts *clickhouse.Options) (conn, error) {
	c, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	return driverConn{c: c}, nil
}

// Open parses the DSN, dials and pings the server
func Open(ctx context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.ClientInfo = ClientInfo(cfg.Role, cfg.Tag)
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	c, err := dial(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &CH{c: c}, nil
}

// Insert appends rows to a prepared batch for table and sends it
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if c == nil || c.c == nil {
		return ErrClosed
	}
	if len(rows) == 0 {
		return nil
	}
	b, err := c.c.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := b.Append(r...); err != nil {
			_ = b.Abort()
			return err
		}
	}
	return b.Send()
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if c == nil || c.c == nil {
		return nil, ErrClosed
	}
	return c.c.Query(ctx, sql, args...)
}

// Exec runs a statement that returns no rows, such as DDL
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	if c == nil || c.c == nil {
		return ErrClosed
	}
	return c.c.Exec(ctx, sql, args...)
}

// Ping checks the server is reachable
func (c *CH) Ping(ctx context.Context) error {
	if c == nil || c.c == nil {
		return ErrClosed
	}
	return c.c.Ping(ctx)
}

// Close closes resources
func (c *CH) Close() error {
	if c == nil || c.c == nil {
		return nil
	}
	return c.c.Close()
}

// driverConn narrows driver.Conn to conn
type driverConn struct{ c driver.Conn }

func (d driverConn) PrepareBatch(ctx context.Context, query string) (Batch, error) {
	return d.c.PrepareBatch(ctx, query)
}

func (d driverConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return d.c.Query(ctx, query, args...)
}

func (d driverConn) Exec(ctx context.Context, query string, args ...any) error {
	return d.c.Exec(ctx, query, args...)
}

func (d driverConn) Ping(ctx context.Context) error { return d.c.Ping(ctx) }
func (d driverConn) Close() error                   { return d.c.Close() }
