// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/roster/internal/app"
	"github.com/okian/roster/internal/domain/lifecycle"
	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/roster"
)

// defaultMaxUploadBytes bounds POST /roster bodies unless overridden.
const defaultMaxUploadBytes = 10 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Upload(ctx context.Context, r io.Reader) (service.LoadSummary, error)
	Status(ctx context.Context) (model.RosterStatus, error)
	Search(ctx context.Context, term string) ([]model.Engagement, error)
	Get(ctx context.Context, name string) (model.Engagement, error)
	Expiring(ctx context.Context, threshold int) ([]model.Engagement, error)
	RenewExpiring(ctx context.Context, threshold, days int) (lifecycle.RenewResult, error)
	RenewOne(ctx context.Context, name string, days int) (lifecycle.RenewResult, error)
	SetEndDate(ctx context.Context, name string, end model.Date) error
	Export(ctx context.Context, w io.Writer, term string) error
	ThresholdDays() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rosterHandler  *RosterHandler
	renewalHandler *RenewalHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxUploadBytes int64
}

// WithMaxUploadBytes caps the size of an uploaded roster.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		rosterHandler:  NewRosterHandler(deps, cfg.maxUploadBytes),
		renewalHandler: NewRenewalHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/roster", MetricsMiddleware(s.rosterHandler.HandleRoster, "roster"))
	mux.HandleFunc("/roster/status", MetricsMiddleware(s.rosterHandler.HandleStatus, "roster_status"))
	mux.HandleFunc("/roster/expiring", MetricsMiddleware(s.rosterHandler.HandleExpiring, "roster_expiring"))
	mux.HandleFunc("/roster/export", MetricsMiddleware(s.rosterHandler.HandleExport, "roster_export"))
	mux.HandleFunc("/roster/renewals", MetricsMiddleware(s.renewalHandler.HandleRenew, "roster_renewals"))
	mux.HandleFunc("/roster/engagements/{name}", MetricsMiddleware(s.rosterHandler.HandleGetEngagement, "roster_engagement"))
	mux.HandleFunc("/roster/engagements/{name}/end", MetricsMiddleware(s.renewalHandler.HandleSetEnd, "roster_engagement_end"))
}

// engagementView is the JSON shape of one engagement.
type engagementView struct {
	Row           int          `json:"row"`
	Name          string       `json:"name"`
	Specialty     string       `json:"specialty"`
	Start         *string      `json:"start"`
	End           *string      `json:"end"`
	DaysRemaining *int         `json:"days_remaining"`
	Bucket        model.Bucket `json:"bucket"`
	Extra         []extraView  `json:"extra,omitempty"`
}

// extraView is one pass-through column; headers may repeat.
type extraView struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

func newEngagementView(e model.Engagement, threshold int) engagementView {
	v := engagementView{
		Row:       e.Row,
		Name:      e.Name,
		Specialty: e.Specialty,
		Start:     dateOrNil(e.Start),
		End:       dateOrNil(e.End),
		Bucket:    lifecycle.Bucket(e, threshold),
	}
	for _, c := range e.Extra {
		v.Extra = append(v.Extra, extraView{Column: c.Header, Value: c.Value})
	}
	if d, ok := e.Remaining(); ok {
		v.DaysRemaining = &d
	}
	return v
}

func dateOrNil(d model.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.String()
	return &s
}

type listResponse struct {
	Count       int              `json:"count"`
	Engagements []engagementView `json:"engagements"`
}

func newListResponse(es []model.Engagement, threshold int) listResponse {
	out := listResponse{Count: len(es), Engagements: make([]engagementView, 0, len(es))}
	for _, e := range es {
		out.Engagements = append(out.Engagements, newEngagementView(e, threshold))
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and domain error kinds to HTTP.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrNoRoster):
		writeError(w, http.StatusConflict, "no_roster", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, lifecycle.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, "invalid_parameter", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, roster.ErrSchema):
		writeError(w, http.StatusUnprocessableEntity, "schema_error", WrapKind(op, ErrUnprocessable, err))
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
	case errors.Is(err, roster.ErrRead):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
