package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/roster/internal/domain/model"
)

// Renewal targets accepted by POST /roster/renewals.
const (
	targetAllExpiring = "all_expiring"
	targetName        = "name"
)

// renewRequest mirrors the OpenAPI schema for POST /roster/renewals.
type renewRequest struct {
	Target    string `json:"target"`
	Name      string `json:"name"`
	Days      *int   `json:"days"`
	Threshold *int   `json:"threshold"`
}

func (req renewRequest) validate() error {
	switch {
	case req.Days == nil:
		return errors.New("missing days")
	case req.Target != targetAllExpiring && req.Target != targetName:
		return fmt.Errorf("target must be %q or %q", targetAllExpiring, targetName)
	case req.Target == targetName && strings.TrimSpace(req.Name) == "":
		return errors.New("missing name")
	}
	return nil
}

// setEndRequest mirrors the OpenAPI schema for PUT /roster/engagements/{name}/end.
type setEndRequest struct {
	End string `json:"end"`
}

// RenewalHandler handles mutations of end dates.
type RenewalHandler struct {
	deps Dependencies
}

// NewRenewalHandler creates a new renewal handler.
func NewRenewalHandler(deps Dependencies) *RenewalHandler {
	return &RenewalHandler{deps: deps}
}

// HandleRenew handles POST /roster/renewals requests.
func (h *RenewalHandler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	const op = "api.renew"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req renewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", WrapKind(op, ErrBadRequest, err))
		return
	}

	ctx := r.Context()
	if req.Target == targetName {
		res, err := h.deps.RenewOne(ctx, req.Name, *req.Days)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	threshold := h.deps.ThresholdDays()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	res, err := h.deps.RenewExpiring(ctx, threshold, *req.Days)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSetEnd handles PUT /roster/engagements/{name}/end requests.
func (h *RenewalHandler) HandleSetEnd(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_end_date"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	name := r.PathValue("name")
	var req setEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(req.End))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", WrapKind(op, ErrBadRequest, fmt.Errorf("end must be YYYY-MM-DD: %w", err)))
		return
	}

	ctx := r.Context()
	if err := h.deps.SetEndDate(ctx, name, model.NewDate(t)); err != nil {
		writeServiceError(w, op, err)
		return
	}
	e, err := h.deps.Get(ctx, name)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newEngagementView(e, h.deps.ThresholdDays()))
}
