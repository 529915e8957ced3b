// Package service owns the current roster of a session and exposes the
// lifecycle operations required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/roster/internal/domain/lifecycle"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/roster"
	"github.com/okian/roster/pkg/logger"
	"github.com/okian/roster/pkg/metrics"
)

const millisecondsPerSecond = 1000

// LoadSummary describes an accepted upload.
type LoadSummary struct {
	DatasetID string             `json:"dataset_id"`
	Rows      int                `json:"rows"`
	Columns   []string           `json:"columns"`
	Rejected  int                `json:"rejected"`
	Coerced   int                `json:"coerced"`
	Issues    []string           `json:"issues"`
	Status    model.RosterStatus `json:"status"`
}

// Service holds at most one roster at a time. Upload replaces it wholesale;
// renewals and end-date changes mutate it and recompute under the write lock.
type Service struct {
	mu sync.RWMutex

	engine     *lifecycle.Engine
	engineOpts []lifecycle.Option
	loadOpts   []roster.Option
	now        func() time.Time

	// State
	store    *roster.Store
	loadedAt time.Time
	uploads  int
	renewals int
	started  bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		now:    time.Now,
		logger: nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.engine = lifecycle.New(s.engineOpts...)
	return s
}

// Start marks the service ready. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	minExt, maxExt := s.engine.ExtensionBounds()
	s.started = true
	s.logger.Info(ctx, "roster service started",
		logger.Int("thresholdDays", s.engine.ThresholdDays()),
		logger.Int("minExtensionDays", minExt),
		logger.Int("maxExtensionDays", maxExt),
	)
	return nil
}

// Stop drops the current roster.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.store = nil
	s.started = false
	s.logger.Info(context.Background(), "roster service stopped")
}

// log returns the configured logger, or a discarding one before Start.
func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// ThresholdDays returns the configured expiring-soon threshold.
func (s *Service) ThresholdDays() int { return s.engine.ThresholdDays() }

// Today returns the current reference instant.
func (s *Service) Today() time.Time { return s.now() }

// Upload parses r and, on success, replaces the current roster.
// A failed upload leaves the previous roster in place.
func (s *Service) Upload(ctx context.Context, r io.Reader) (LoadSummary, error) {
	start := time.Now()
	st, err := roster.Load(ctx, r, s.loadOpts...)
	if err != nil {
		reason := loadFailureReason(err)
		metrics.RecordRosterLoadFailure(reason)
		metrics.RecordErrorByComponent("roster", reason)
		s.log().Warn(ctx, "roster upload rejected", logger.String("reason", reason), logger.Error(err))
		return LoadSummary{}, err
	}

	today := s.now()
	s.engine.Recompute(st, today)

	sum := LoadSummary{
		DatasetID: st.ID(),
		Rows:      st.Len(),
		Columns:   st.Columns(),
		Issues:    make([]string, 0),
	}
	for _, issue := range st.Issues() {
		var dpe *roster.DateParseError
		if errors.As(issue, &dpe) {
			if dpe.Rejected {
				sum.Rejected++
			} else {
				sum.Coerced++
			}
		}
		sum.Issues = append(sum.Issues, issue.Error())
	}
	sum.Status = s.engine.Classify(st)

	s.mu.Lock()
	replaced := s.store != nil
	s.store = st
	s.loadedAt = today
	s.uploads++
	s.mu.Unlock()

	metrics.RecordRosterLoaded(sum.Rows, sum.Rejected, sum.Coerced)
	publishBuckets(sum.Status.Buckets)
	metrics.RecordOperationLatency("load", elapsedMs(start))
	s.log().Info(ctx, "roster loaded",
		logger.String("dataset", sum.DatasetID),
		logger.Int("rows", sum.Rows),
		logger.Int("rejected", sum.Rejected),
		logger.Int("coerced", sum.Coerced),
		logger.Time("asOf", today),
		logger.Bool("replaced", replaced),
	)
	return sum, nil
}

// Status returns the roster aggregates at the current reference date.
func (s *Service) Status(ctx context.Context) (model.RosterStatus, error) {
	var st model.RosterStatus
	err := s.read(ctx, func(r *roster.Store) error {
		st = s.engine.Classify(r)
		return nil
	})
	return st, err
}

// List returns every engagement in roster order.
func (s *Service) List(ctx context.Context) ([]model.Engagement, error) {
	return s.Search(ctx, "")
}

// Search returns the engagements whose rendered row contains term, ignoring
// case. A blank term returns the full roster.
func (s *Service) Search(ctx context.Context, term string) ([]model.Engagement, error) {
	var out []model.Engagement
	err := s.read(ctx, func(r *roster.Store) error {
		out = s.engine.Search(r, term)
		return nil
	})
	return out, err
}

// Get returns the named engagement.
func (s *Service) Get(ctx context.Context, name string) (model.Engagement, error) {
	var out model.Engagement
	err := s.read(ctx, func(r *roster.Store) error {
		e, ok := r.Find(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		out = e
		return nil
	})
	return out, err
}

// Expiring returns the engagements with at most threshold days remaining,
// expired ones included.
func (s *Service) Expiring(ctx context.Context, threshold int) ([]model.Engagement, error) {
	var out []model.Engagement
	err := s.read(ctx, func(r *roster.Store) error {
		var err error
		out, err = s.engine.SelectExpiring(r, threshold)
		return err
	})
	return out, err
}

// RenewExpiring extends every engagement expiring within threshold days.
func (s *Service) RenewExpiring(ctx context.Context, threshold, days int) (lifecycle.RenewResult, error) {
	return s.renew(ctx, lifecycle.AllExpiring(threshold), days)
}

// RenewOne extends the named engagement.
func (s *Service) RenewOne(ctx context.Context, name string, days int) (lifecycle.RenewResult, error) {
	return s.renew(ctx, lifecycle.ByName(name), days)
}

func (s *Service) renew(ctx context.Context, target lifecycle.Target, days int) (lifecycle.RenewResult, error) {
	start := time.Now()
	var res lifecycle.RenewResult
	err := s.write(ctx, func(r *roster.Store, today time.Time) error {
		if target.Mode() == lifecycle.ModeSelective {
			if _, ok := r.Find(target.Name()); !ok {
				return fmt.Errorf("%w: %q", ErrNotFound, target.Name())
			}
		}
		var err error
		res, err = s.engine.Renew(r, target, days, today)
		if err != nil {
			return err
		}
		s.renewals++
		publishBuckets(s.engine.Classify(r).Buckets)
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("lifecycle", errorType(err))
		s.log().Warn(ctx, "renewal rejected",
			logger.String("target", target.String()),
			logger.Int("days", days),
			logger.Error(err),
		)
		return lifecycle.RenewResult{}, err
	}

	metrics.RecordRenewal(res.Mode, len(res.Renewed))
	metrics.RecordOperationLatency("renew", elapsedMs(start))
	s.log().Info(ctx, "renewal applied",
		logger.String("mode", res.Mode),
		logger.String("target", target.String()),
		logger.Int("days", days),
		logger.Int("renewed", len(res.Renewed)),
		logger.Strings("names", res.Renewed),
	)
	return res, nil
}

// SetEndDate replaces the end date of the named engagement.
func (s *Service) SetEndDate(ctx context.Context, name string, end model.Date) error {
	err := s.write(ctx, func(r *roster.Store, today time.Time) error {
		if _, ok := r.Find(name); !ok {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if err := s.engine.SetEndDate(r, name, end, today); err != nil {
			return err
		}
		publishBuckets(s.engine.Classify(r).Buckets)
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("lifecycle", errorType(err))
		return err
	}
	s.log().Info(ctx, "end date replaced", logger.String("name", name), logger.String("end", end.String()))
	return nil
}

// Export writes the engagements matching term as CSV to w, in the input
// column layout. A blank term exports the whole roster.
func (s *Service) Export(ctx context.Context, w io.Writer, term string) error {
	start := time.Now()
	err := s.read(ctx, func(r *roster.Store) error {
		return s.engine.ExportRecords(w, r, s.engine.Search(r, term))
	})
	if err != nil {
		if !errors.Is(err, ErrNoRoster) {
			metrics.RecordErrorByComponent("lifecycle", errorType(err))
		}
		return err
	}
	metrics.RecordExport()
	metrics.RecordOperationLatency("export", elapsedMs(start))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	minExt, maxExt := s.engine.ExtensionBounds()
	stats := map[string]interface{}{
		"started":          s.started,
		"loaded":           s.store != nil,
		"uploads":          s.uploads,
		"renewals":         s.renewals,
		"thresholdDays":    s.engine.ThresholdDays(),
		"minExtensionDays": minExt,
		"maxExtensionDays": maxExt,
	}

	if s.store != nil {
		stats["datasetId"] = s.store.ID()
		stats["engagements"] = s.store.Len()
		stats["asOf"] = s.store.AsOf().String()
		stats["loadedAt"] = model.NewDate(s.loadedAt).String()
	}

	return stats
}

// read runs fn with the roster under the read lock. When the reference
// date has moved since the last recompute, the derived values are brought
// up to date under the write lock first.
func (s *Service) read(ctx context.Context, fn func(*roster.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	today := s.now()

	s.mu.RLock()
	if s.store == nil {
		s.mu.RUnlock()
		return ErrNoRoster
	}
	if s.store.AsOf().Equal(model.NewDate(today)) {
		defer s.mu.RUnlock()
		return fn(s.store)
	}
	s.mu.RUnlock()

	return s.write(ctx, func(r *roster.Store, _ time.Time) error {
		return fn(r)
	})
}

// write runs fn under the write lock after recomputing at the current
// reference date.
func (s *Service) write(ctx context.Context, fn func(*roster.Store, time.Time) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	today := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return ErrNoRoster
	}
	s.engine.Recompute(s.store, today)
	return fn(s.store, today)
}

func publishBuckets(b model.Buckets) {
	metrics.UpdateEngagements(string(model.BucketActive), b.Active)
	metrics.UpdateEngagements(string(model.BucketExpiringSoon), b.ExpiringSoon)
	metrics.UpdateEngagements(string(model.BucketExpired), b.Expired)
	metrics.UpdateEngagements(string(model.BucketUnknown), b.Unknown)
}

func loadFailureReason(err error) string {
	switch {
	case errors.Is(err, roster.ErrSchema):
		return "schema_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "read_error"
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, lifecycle.ErrExport):
		return "export_error"
	default:
		return "internal"
	}
}

func elapsedMs(start time.Time) float64 {
	return time.Since(start).Seconds() * millisecondsPerSecond
}
