package lifecycle

import "time"

// Default engine configuration.
const (
	DefaultThresholdDays    = 30
	DefaultMinExtensionDays = 1
	DefaultMaxExtensionDays = 365
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThresholdDays sets the expiring-soon threshold used by Classify and
// AllExpiring targets built by the caller. Negative values are ignored.
func WithThresholdDays(days int) Option {
	return func(e *Engine) {
		if days >= 0 {
			e.threshold = days
		}
	}
}

// WithExtensionBounds sets the inclusive range accepted for renewal lengths.
func WithExtensionBounds(minDays, maxDays int) Option {
	return func(e *Engine) {
		if minDays > 0 && maxDays >= minDays {
			e.minExtension = minDays
			e.maxExtension = maxDays
		}
	}
}

// WithExportDateLayout sets the layout used to write dates on export.
func WithExportDateLayout(layout string) Option {
	return func(e *Engine) {
		if layout != "" {
			e.exportLayout = layout
		}
	}
}

// defaultExportLayout matches the first accepted input layout so exports reload cleanly.
const defaultExportLayout = time.DateOnly
