package testsupport

import (
	"os"
	"strconv"
	"testing"

	"marketpulse/internal/adapters/config"
)

// StoreConfigs bundles the config sections integration tests need
type StoreConfigs struct {
	ClickHouse config.ClickHouseConfig
	Redis      config.RedisConfig
}

// LoadStoreConfigsFromEnv reads connection settings for integration tests.
// The test is skipped when the required variables are missing.
func LoadStoreConfigsFromEnv(t *testing.T) StoreConfigs {
	t.Helper()

	var missing []string
	for _, key := range []string{"CLICKHOUSE_HOST", "CLICKHOUSE_DB", "REDIS_HOST"} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		t.Skipf("integration environment missing, set %v to run", missing)
	}

	return StoreConfigs{
		ClickHouse: config.ClickHouseConfig{
			Host:     os.Getenv("CLICKHOUSE_HOST"),
			Port:     intValue("CLICKHOUSE_PORT", 9000),
			User:     valueWithDefault("CLICKHOUSE_USER", "default"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
			Database: os.Getenv("CLICKHOUSE_DB"),
		},
		Redis: config.RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     intValue("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intValue("REDIS_DB", 15),
		},
	}
}

func valueWithDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intValue(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}
