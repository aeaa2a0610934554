package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/internal/adapters/config"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
)

// Client wraps a ClickHouse connection
type Client struct {
	conn driver.Conn
}

// NewClient opens a connection and verifies it with a ping
func NewClient(ctx context.Context, cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to clickhouse")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping clickhouse")
	}

	return &Client{conn: conn}, nil
}

// Conn returns the underlying connection for repositories
func (c *Client) Conn() driver.Conn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Health checks connectivity
func (c *Client) Health(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return errors.Mark(errors.Wrap(err, "clickhouse ping failed"), errors.ErrUnavailable)
	}
	return nil
}

// Query runs a select into dest and records its latency
func (c *Client) Query(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	start := time.Now()
	err := c.conn.Select(ctx, dest, query, args...)
	metrics.RecordDBQuery("clickhouse", "select", time.Since(start), err)
	return err
}
