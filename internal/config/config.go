// Package config loads and validates the sharpeguard run configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantgate/sharpeguard/internal/pipeline"
	"github.com/quantgate/sharpeguard/internal/risk"
	"github.com/quantgate/sharpeguard/internal/sharpe"
)

// Config is the full runtime configuration.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Output   OutputConfig   `yaml:"output"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// StrategyConfig holds signal and backtest parameters.
type StrategyConfig struct {
	SignalWindows []int   `yaml:"signal_windows"`
	SharpeWindows []int   `yaml:"sharpe_windows"`
	ZEntry        float64 `yaml:"z_entry"`
	ZExit         float64 `yaml:"z_exit"`
	CostBPS       float64 `yaml:"cost_bps"`
	Annualization int     `yaml:"annualization"`
	Workers       int     `yaml:"workers"` // 0 = one per CPU
}

// RiskConfig holds the decision-layer thresholds.
type RiskConfig struct {
	TradeWindow int     `yaml:"trade_window"`
	WarnLevel   float64 `yaml:"warn_level"`
	StopLevel   float64 `yaml:"stop_level"`
	WarnFrac    float64 `yaml:"warn_frac"`
	StopFrac    float64 `yaml:"stop_frac"`
}

// OutputConfig controls where run artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// PostgresConfig enables the decision history store when a DSN is set.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RedisConfig enables the latest-decision cache when an address is set.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// MonitorConfig configures the read-only monitor HTTP server.
type MonitorConfig struct {
	Host          string  `yaml:"host"`
	Port          int     `yaml:"port"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
}

// Default returns the standard research configuration.
func Default() *Config {
	return &Config{
		Strategy: StrategyConfig{
			SignalWindows: []int{10, 20, 40, 80},
			SharpeWindows: []int{10, 20, 60},
			ZEntry:        2.0,
			ZExit:         0.5,
			CostBPS:       1.0,
			Annualization: sharpe.DefaultAnnualization,
		},
		Risk: RiskConfig{
			TradeWindow: 40,
			WarnLevel:   0.0,
			StopLevel:   -0.5,
			WarnFrac:    0.5,
			StopFrac:    0.75,
		},
		Output: OutputConfig{
			Dir: "out/derived",
		},
		Postgres: PostgresConfig{
			TimeoutSeconds: 5,
		},
		Redis: RedisConfig{
			TTLSeconds: 3600,
		},
		Monitor: MonitorConfig{
			Host:          "127.0.0.1",
			Port:          8080,
			RatePerSecond: 10,
			RateBurst:     20,
		},
	}
}

// Load reads a YAML file over the defaults. A missing path keeps defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the structural constraints before any computation.
func (c *Config) Validate() error {
	if err := c.Pipeline().Validate(); err != nil {
		return err
	}
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	if c.Risk.TradeWindow <= 0 {
		return fmt.Errorf("trade_window must be positive, got %d", c.Risk.TradeWindow)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	if c.Monitor.Port <= 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("monitor port %d out of range", c.Monitor.Port)
	}
	return nil
}

// Pipeline maps the strategy section onto an orchestrator config.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		SignalWindows: c.Strategy.SignalWindows,
		SharpeWindows: c.Strategy.SharpeWindows,
		ZEntry:        c.Strategy.ZEntry,
		ZExit:         c.Strategy.ZExit,
		CostBPS:       c.Strategy.CostBPS,
		Annualization: c.Strategy.Annualization,
		Workers:       c.Strategy.Workers,
	}
}

// Thresholds maps the risk section onto decision thresholds.
func (c *Config) Thresholds() risk.Thresholds {
	return risk.Thresholds{
		WarnLevel: c.Risk.WarnLevel,
		StopLevel: c.Risk.StopLevel,
		WarnFrac:  c.Risk.WarnFrac,
		StopFrac:  c.Risk.StopFrac,
	}
}
