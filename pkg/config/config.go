// Package config loads service settings from a YAML or TOML file, the
// environment and built-in defaults, in that order of precedence: environment
// over file over defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v6"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"financial_sankey/pkg/core/sankey"
	"financial_sankey/pkg/core/table"
)

// EnvPrefix prefixes every environment override, e.g. SANKEY_SERVER_ADDR.
const EnvPrefix = "SANKEY_"

type Config struct {
	Server ServerConfig `yaml:"server" toml:"server" envPrefix:"SERVER_"`
	Flows  FlowConfig   `yaml:"flows" toml:"flows" envPrefix:"FLOWS_"`
	Source SourceConfig `yaml:"source" toml:"source" envPrefix:"SOURCE_"`
	Log    LogConfig    `yaml:"log" toml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr" toml:"addr" env:"ADDR"`
	CORSOrigin string `yaml:"cors_origin" toml:"cors_origin" env:"CORS_ORIGIN"`
}

// FlowConfig holds the builder thresholds as fractions.
type FlowConfig struct {
	UnitFactor          float64 `yaml:"unit_factor" toml:"unit_factor" env:"UNIT_FACTOR"`
	BalanceMateriality  float64 `yaml:"balance_materiality" toml:"balance_materiality" env:"BALANCE_MATERIALITY"`
	IncomeMateriality   float64 `yaml:"income_materiality" toml:"income_materiality" env:"INCOME_MATERIALITY"`
	CashFlowMateriality float64 `yaml:"cashflow_materiality" toml:"cashflow_materiality" env:"CASHFLOW_MATERIALITY"`
	EquityPlugTolerance float64 `yaml:"equity_plug_tolerance" toml:"equity_plug_tolerance" env:"EQUITY_PLUG_TOLERANCE"`
	LinkageTolerance    float64 `yaml:"linkage_tolerance" toml:"linkage_tolerance" env:"LINKAGE_TOLERANCE"`
}

// SourceConfig selects where statements are fetched from. A database URL takes
// precedence over a directory.
type SourceConfig struct {
	DatabaseURL string `yaml:"database_url" toml:"database_url" env:"DATABASE_URL"`
	Dir         string `yaml:"dir" toml:"dir" env:"DIR"`
	Scale       string `yaml:"scale" toml:"scale" env:"SCALE"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LEVEL"`
	Format string `yaml:"format" toml:"format" env:"FORMAT"`
}

// platform holds the conventional unprefixed variables set by hosting
// platforms.
type platform struct {
	Port        string `env:"PORT"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Addr: ":5000", CORSOrigin: "*"},
		Flows: FlowConfig{
			UnitFactor:          1e9,
			BalanceMateriality:  0.01,
			IncomeMateriality:   0.001,
			CashFlowMateriality: 0.01,
			EquityPlugTolerance: 0.005,
			LinkageTolerance:    0.01,
		},
		Source: SourceConfig{Dir: "data", Scale: string(table.ScaleThousands)},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (YAML or TOML by extension), applies environment overrides
// and fills unset fields with Defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	var p platform
	if err := env.Parse(&p); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if p.Port != "" && cfg.Server.Addr == "" {
		cfg.Server.Addr = ":" + p.Port
	}
	if p.DatabaseURL != "" && cfg.Source.DatabaseURL == "" {
		cfg.Source.DatabaseURL = p.DatabaseURL
	}

	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	case ".toml":
		err = toml.Unmarshal(raw, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := table.ParseScale(c.Source.Scale); err != nil {
		return fmt.Errorf("source.scale: %w", err)
	}
	for name, v := range map[string]float64{
		"unit_factor":           c.Flows.UnitFactor,
		"balance_materiality":   c.Flows.BalanceMateriality,
		"income_materiality":    c.Flows.IncomeMateriality,
		"cashflow_materiality":  c.Flows.CashFlowMateriality,
		"equity_plug_tolerance": c.Flows.EquityPlugTolerance,
		"linkage_tolerance":     c.Flows.LinkageTolerance,
	} {
		if v < 0 {
			return fmt.Errorf("flows.%s must not be negative", name)
		}
	}
	return nil
}

// Settings converts the flow section to builder settings.
func (c *Config) Settings() sankey.Settings {
	return sankey.Settings{
		UnitFactor:          decimal.NewFromFloat(c.Flows.UnitFactor),
		BalanceMateriality:  decimal.NewFromFloat(c.Flows.BalanceMateriality),
		IncomeMateriality:   decimal.NewFromFloat(c.Flows.IncomeMateriality),
		CashFlowMateriality: decimal.NewFromFloat(c.Flows.CashFlowMateriality),
		EquityPlugTolerance: decimal.NewFromFloat(c.Flows.EquityPlugTolerance),
		LinkageTolerance:    decimal.NewFromFloat(c.Flows.LinkageTolerance),
	}
}

// Scale returns the configured provider scale.
func (c *Config) Scale() table.Scale {
	s, err := table.ParseScale(c.Source.Scale)
	if err != nil {
		return table.ScaleUnits
	}
	return s
}
