package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsPerService(t *testing.T) {
	tests := []struct {
		service     string
		httpPort    string
		metricsPort string
	}{
		{"betbook-api", "8080", "9095"},
		{"settlement-worker", "", "9096"},
		{"board-refresher", "", "9097"},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			t.Setenv("SERVICE_NAME", tt.service)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.httpPort, cfg.HTTPPort)
			assert.Equal(t, tt.metricsPort, cfg.MetricsPort)
			assert.Equal(t, 1000.0, cfg.DefaultBankroll)
			assert.Equal(t, 60*time.Second, cfg.SettleInterval)
			assert.Equal(t, 5*time.Minute, cfg.BoardRefreshInterval)
			assert.Equal(t, "https://api.sleeper.app/v1", cfg.ProviderBaseURL)
			assert.Equal(t, "bet_placed", cfg.TopicBetPlaced)
			assert.Equal(t, "bet_settled", cfg.TopicBetSettled)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SETTLE_INTERVAL", "15")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("DEFAULT_BANKROLL", "250.5")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.SettleInterval)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 250.5, cfg.DefaultBankroll)
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestLoad_ConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
league:
  id: "1180000000000000000"
wagering:
  default_bankroll: 500
settlement:
  interval: 30s
provider:
  cache_ttl: 1m
infra:
  store_driver: memory
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LEAGUE_ID", "from-env")
	t.Setenv("PROVIDER_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "1180000000000000000", cfg.LeagueID)
	assert.Equal(t, 500.0, cfg.DefaultBankroll)
	assert.Equal(t, 30*time.Second, cfg.SettleInterval)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "memory", cfg.StoreDriver)
	// ausente no arquivo: fica o valor do ambiente
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})
}
