package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// AbsoluteMaxEncodedBytes is the hard ceiling for max_encoded_bytes.
// Configured values above this are clamped.
const AbsoluteMaxEncodedBytes = 10 << 20

// Config holds application configuration.
type Config struct {
	// MaxLayers is the maximum number of elements in a document's layers array.
	MaxLayers int `json:"max_layers"`

	// MaxEncodedBytes is the size ceiling applied to the encoded document
	// (after compression and base64, when the compressed form is chosen).
	// Clamped to AbsoluteMaxEncodedBytes.
	MaxEncodedBytes int `json:"max_encoded_bytes"`

	// DefaultTTLDays is used when a publish supplies no ttlDays.
	DefaultTTLDays int `json:"default_ttl_days"`

	// MaxTTLDays bounds caller-supplied ttlDays. The lower bound is 1.
	MaxTTLDays int `json:"max_ttl_days"`

	// RateWindowSeconds is the admission window for the publish path.
	RateWindowSeconds int `json:"rate_window_seconds"`

	// RateMaxPublishes is the per-origin publish allowance within one window.
	RateMaxPublishes int `json:"rate_max_publishes"`

	// SweepIntervalHours is the period of the background expiry sweep.
	SweepIntervalHours int `json:"sweep_interval_hours"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default. Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxLayers:          3,
		MaxEncodedBytes:    2 << 20,
		DefaultTTLDays:     7,
		MaxTTLDays:         60,
		RateWindowSeconds:  60,
		RateMaxPublishes:   30,
		SweepIntervalHours: 24,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.storydrop.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; zero means "use base".
// The encoded-size ceiling is clamped after merging.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MaxLayers = pick(overlay.MaxLayers, base.MaxLayers)
	result.MaxEncodedBytes = pick(overlay.MaxEncodedBytes, base.MaxEncodedBytes)
	result.DefaultTTLDays = pick(overlay.DefaultTTLDays, base.DefaultTTLDays)
	result.MaxTTLDays = pick(overlay.MaxTTLDays, base.MaxTTLDays)
	result.RateWindowSeconds = pick(overlay.RateWindowSeconds, base.RateWindowSeconds)
	result.RateMaxPublishes = pick(overlay.RateMaxPublishes, base.RateMaxPublishes)
	result.SweepIntervalHours = pick(overlay.SweepIntervalHours, base.SweepIntervalHours)
	result.DBMaxOpenConns = pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	if result.MaxEncodedBytes > AbsoluteMaxEncodedBytes {
		result.MaxEncodedBytes = AbsoluteMaxEncodedBytes
	}

	return result
}

// pick returns overlay if non-zero, else base.
func pick(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}
