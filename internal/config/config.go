// Package config handles configuration loading and management for
// movefuzz: the yaml-tagged structs behind both the CLI flags and an
// optional on-disk config file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration: target, engine tunables, RPC
// transport, and output/reporting.
type Config struct {
	Target TargetConfig `yaml:"target"`
	Engine EngineConfig `yaml:"engine"`
	RPC    RPCConfig    `yaml:"rpc"`
	Output OutputConfig `yaml:"output"`
}

// TargetConfig names the entry function a campaign fuzzes.
type TargetConfig struct {
	Package      string   `yaml:"package"`
	Module       string   `yaml:"module"`
	Function     string   `yaml:"function"`
	TypeArgs     []string `yaml:"type_args"`
	Args         []string `yaml:"args"`
	Sender       string   `yaml:"sender"`
	ABIPath      string   `yaml:"abi_path"`   // Aptos only
	ModulePath   string   `yaml:"module_path"` // Aptos only
}

// EngineConfig tunes the fuzz loop itself.
type EngineConfig struct {
	Iterations int64         `yaml:"iterations"`
	Timeout    time.Duration `yaml:"timeout"`
	MapSize    int           `yaml:"map_size"`
}

// RPCConfig configures the Sui RPC transport.
type RPCConfig struct {
	URL                string  `yaml:"url"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// OutputConfig configures run reporting.
type OutputConfig struct {
	Format     string `yaml:"format"` // json, text
	OutputFile string `yaml:"output_file"`
	Verbose    bool   `yaml:"verbose"`
}

// DefaultConfig returns the CLI's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Iterations: 1_000_000,
			Timeout:    300 * time.Second,
			MapSize:    65536,
		},
		RPC: RPCConfig{
			RateLimitPerSecond: 20,
			RateLimitBurst:     5,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load reads a yaml config file from path, overlaying it onto
// DefaultConfig so an incomplete file still yields sane defaults for
// everything it omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as yaml, truncating any existing file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
