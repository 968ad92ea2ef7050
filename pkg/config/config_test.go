package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financial_sankey/pkg/core/table"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.Equal(t, table.ScaleThousands, cfg.Scale())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "sankey.yaml", `
server:
  addr: ":9000"
flows:
  balance_materiality: 0.02
source:
  scale: millions
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "*", cfg.Server.CORSOrigin, "unset fields take defaults")
	assert.Equal(t, 0.02, cfg.Flows.BalanceMateriality)
	assert.Equal(t, 0.001, cfg.Flows.IncomeMateriality)
	assert.Equal(t, table.ScaleMillions, cfg.Scale())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "sankey.toml", `
[server]
cors_origin = "https://example.com"

[flows]
unit_factor = 1000000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", cfg.Server.CORSOrigin)
	assert.True(t, cfg.Settings().UnitFactor.Equal(decimal.NewFromInt(1_000_000)))
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "sankey.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("SANKEY_SERVER_ADDR", ":7000")
	t.Setenv("SANKEY_LOG_FORMAT", "json")
	t.Setenv("DATABASE_URL", "postgres://localhost/sankey")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres://localhost/sankey", cfg.Source.DatabaseURL)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "8081")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeFile(t, "sankey.ini", "x=1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "sankey.yaml", "source:\n  scale: lakhs\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "sankey.yaml", "flows:\n  income_materiality: -1\n"))
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	s := Defaults()
	settings := s.Settings()
	assert.True(t, settings.BalanceMateriality.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, settings.EquityPlugTolerance.Equal(decimal.RequireFromString("0.005")))
}
