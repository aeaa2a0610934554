package clickhouse

import (
	"context"
	_ "embed"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// SchemaStatements splits the embedded schema into single statements
func SchemaStatements() []string {
	var out []string
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates the posts and price_bars tables when missing
func Migrate(ctx context.Context, conn driver.Conn) error {
	for _, stmt := range SchemaStatements() {
		if err := conn.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply clickhouse schema")
		}
	}
	return nil
}
