package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadYAMLAndDefaults(t *testing.T) {
	path := writeYAML(t, `
app:
  http_addr: ":9090"
store:
  driver: mysql
  engine: lmax
mysql:
  host: db
  user: trader
  db_name: trader
auth:
  jwt_secret: from-yaml
  token_ttl: 2h
ledger:
  starting_cash: "2500.5"
price:
  source: coingecko
  cache_ttl: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.HTTPAddr)
	assert.Equal(t, ":50051", cfg.App.GRPCAddr)
	assert.Equal(t, DriverMySQL, cfg.Store.Driver)
	assert.Equal(t, EngineLMAX, cfg.Store.Engine)
	assert.Equal(t, "db", cfg.MySQL.Host)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, 100, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "2500.5", cfg.Ledger.StartingCash.String())
	assert.Equal(t, 30*time.Second, cfg.Price.CacheTTL)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.Admin.Password)
}

func TestEnvOverrides(t *testing.T) {
	path := writeYAML(t, "auth:\n  jwt_secret: from-yaml\n")
	t.Setenv("TRADER_JWT_SECRET", "from-env")
	t.Setenv("TRADER_ADMIN_PASSWORD", "s3cret")
	t.Setenv("TRADER_STARTING_CASH", "42")
	t.Setenv("TRADER_SEED_ENABLED", "true")
	t.Setenv("TRADER_STORE_ENGINE", "lmax")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "s3cret", cfg.Admin.Password)
	assert.Equal(t, "42", cfg.Ledger.StartingCash.String())
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, EngineLMAX, cfg.Store.Engine)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TRADER_JWT_SECRET", "x")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "10000", cfg.Ledger.StartingCash.String())
	assert.Equal(t, "static", cfg.Price.Source)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing secret", "store:\n  driver: memory\n"},
		{"bad driver", "auth:\n  jwt_secret: x\nstore:\n  driver: mongo\n"},
		{"bad engine", "auth:\n  jwt_secret: x\nstore:\n  engine: actor\n"},
		{"bad price source", "auth:\n  jwt_secret: x\nprice:\n  source: oracle\n"},
		{"negative cash", "auth:\n  jwt_secret: x\nledger:\n  starting_cash: \"-1\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeYAML(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}
