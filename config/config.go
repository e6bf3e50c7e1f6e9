// Package config loads wirerpc server configuration from TOML files with
// WIRERPC_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Environment variables recognized by LoadEnv. Each overrides the
// corresponding file value when set.
const (
	EnvAddr         = "WIRERPC_ADDR"
	EnvLogLevel     = "WIRERPC_LOG_LEVEL"
	EnvMaxBodyBytes = "WIRERPC_MAX_BODY_BYTES"
	EnvMaxBatch     = "WIRERPC_MAX_BATCH"
	EnvEnableCBOR   = "WIRERPC_ENABLE_CBOR"
	EnvNamespace    = "WIRERPC_NAMESPACE"
)

// Config carries the settings a wirerpc server reads at startup.
type Config struct {
	Addr         string `toml:"addr"`
	LogLevel     string `toml:"log_level"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	MaxBatch     int    `toml:"max_batch"`
	EnableCBOR   bool   `toml:"enable_cbor"`
	Namespace    string `toml:"namespace"`
}

// Default returns the configuration used when no file is given. MaxBatch 0
// means batches of any size are accepted.
func Default() Config {
	return Config{
		Addr:         ":8080",
		LogLevel:     "info",
		MaxBodyBytes: 4 << 20,
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv applies WIRERPC_* environment overrides on top of cfg. Unset or
// unparseable variables leave the current value in place.
func LoadEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := parseInt(os.Getenv(EnvMaxBodyBytes)); ok {
		cfg.MaxBodyBytes = v
	}
	if v, ok := parseInt(os.Getenv(EnvMaxBatch)); ok {
		cfg.MaxBatch = int(v)
	}
	if v, ok := parseBool(os.Getenv(EnvEnableCBOR)); ok {
		cfg.EnableCBOR = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNamespace)); v != "" {
		cfg.Namespace = v
	}
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("config missing addr")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("config max_body_bytes must be positive, got %d", cfg.MaxBodyBytes)
	}
	if cfg.MaxBatch < 0 {
		return fmt.Errorf("config max_batch must not be negative, got %d", cfg.MaxBatch)
	}
	if _, err := zerolog.ParseLevel(levelName(cfg.LogLevel)); err != nil {
		return fmt.Errorf("config log_level %q not recognized", cfg.LogLevel)
	}
	return nil
}

// Level translates LogLevel into a zerolog level, falling back to info for
// anything Validate would have rejected.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(levelName(c.LogLevel))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func levelName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return "info"
	case "warning":
		return "warn"
	}
	return name
}

func parseInt(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
