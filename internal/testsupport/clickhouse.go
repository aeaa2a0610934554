package testsupport

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	chclient "marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	chrepo "marketpulse/internal/repository/clickhouse"
)

var sourceSeq atomic.Uint64

// NewClickHouse connects, applies the schema and closes the client on cleanup
func NewClickHouse(t *testing.T, cfg config.ClickHouseConfig) *chclient.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := chclient.NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := chrepo.Migrate(ctx, client.Conn()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return client
}

// UniqueSource returns a post source or ticker name no other test run uses.
// Rows written under it are deleted when the test ends.
func UniqueSource(t *testing.T, client *chclient.Client, prefix string) string {
	t.Helper()

	name := fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%1_000_000, sourceSeq.Add(1))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Conn().Exec(ctx, "DELETE FROM posts WHERE source = $1", name)
		_ = client.Conn().Exec(ctx, "DELETE FROM price_bars WHERE ticker = $1", name)
	})
	return name
}
