package service

import (
	"time"

	"github.com/okian/roster/internal/domain/lifecycle"
	"github.com/okian/roster/internal/domain/roster"
	"github.com/okian/roster/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the source of the reference date. Only the calendar day
// of the returned instant, read in the instant's own location, is used.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithThresholdDays sets the expiring-soon threshold.
func WithThresholdDays(days int) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, lifecycle.WithThresholdDays(days))
	}
}

// WithExtensionBounds sets the inclusive range accepted for renewal lengths.
func WithExtensionBounds(minDays, maxDays int) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, lifecycle.WithExtensionBounds(minDays, maxDays))
	}
}

// WithExportDateLayout sets the Go time layout used for exported dates.
func WithExportDateLayout(layout string) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, lifecycle.WithExportDateLayout(layout))
	}
}

// WithDatePolicy sets how uploads treat unparseable date cells.
func WithDatePolicy(p roster.DatePolicy) Option {
	return func(s *Service) {
		s.loadOpts = append(s.loadOpts, roster.WithDatePolicy(p))
	}
}

// WithDateLayouts sets the layouts tried, in order, when parsing date cells.
func WithDateLayouts(layouts ...string) Option {
	return func(s *Service) {
		if len(layouts) > 0 {
			s.loadOpts = append(s.loadOpts, roster.WithDateLayouts(layouts...))
		}
	}
}
