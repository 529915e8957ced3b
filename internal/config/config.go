// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading accepts context.Context as the first parameter.
// - Validation errors wrap this package's sentinel kinds.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/okian/roster/internal/domain/lifecycle"
	"github.com/okian/roster/internal/domain/roster"
)

// defaultMaxUploadBytes bounds POST /roster bodies (10 MiB).
const defaultMaxUploadBytes = 10 << 20

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ExpiringThresholdDays is the inclusive expiring-soon threshold.
	ExpiringThresholdDays int `koanf:"expiring_threshold_days"`

	// MinExtensionDays and MaxExtensionDays bound renewal lengths.
	MinExtensionDays int `koanf:"min_extension_days"`
	MaxExtensionDays int `koanf:"max_extension_days"`

	// DatePolicy is "coerce" (keep rows with a null date) or "reject" (drop them).
	DatePolicy string `koanf:"date_policy"`

	// DateLayouts are Go time layouts tried in order when parsing date cells.
	DateLayouts []string `koanf:"date_layouts"`

	// ExportDateLayout is the Go time layout used when writing dates.
	ExportDateLayout string `koanf:"export_date_layout"`

	// MaxUploadBytes caps the size of an uploaded roster.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		ExpiringThresholdDays: lifecycle.DefaultThresholdDays,
		MinExtensionDays:      lifecycle.DefaultMinExtensionDays,
		MaxExtensionDays:      lifecycle.DefaultMaxExtensionDays,
		DatePolicy:            roster.DatePolicyCoerce.String(),
		DateLayouts:           append([]string(nil), roster.DefaultDateLayouts...),
		ExportDateLayout:      time.DateOnly,
		MaxUploadBytes:        defaultMaxUploadBytes,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ExpiringThresholdDays < 0:
		return fmt.Errorf("%w: expiring_threshold_days must not be negative", ErrInvalidConfig)
	case c.MinExtensionDays < 1:
		return fmt.Errorf("%w: min_extension_days must be at least 1", ErrInvalidConfig)
	case c.MaxExtensionDays < c.MinExtensionDays:
		return fmt.Errorf("%w: max_extension_days must not be below min_extension_days", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.ExportDateLayout == "":
		return fmt.Errorf("%w: export_date_layout must not be empty", ErrInvalidConfig)
	}
	if !slices.Contains(c.DateLayouts, c.ExportDateLayout) {
		return fmt.Errorf("%w: export_date_layout %q must be one of date_layouts so exports reload", ErrInvalidConfig, c.ExportDateLayout)
	}
	if _, ok := roster.ParseDatePolicy(c.DatePolicy); !ok {
		return fmt.Errorf("%w: date_policy must be coerce or reject, got %q", ErrInvalidConfig, c.DatePolicy)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Policy returns the parsed date policy. Call after Validate.
func (c *Config) Policy() roster.DatePolicy {
	p, _ := roster.ParseDatePolicy(c.DatePolicy)
	return p
}
