package api

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// RosterHandler handles upload, query and export requests.
type RosterHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(deps Dependencies, maxUploadBytes int64) *RosterHandler {
	return &RosterHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleRoster handles POST /roster (upload) and GET /roster?q= (list or search).
func (h *RosterHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleUpload(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *RosterHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_roster"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	body, err := h.uploadBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, op, err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = body.Close() }()

	sum, err := h.deps.Upload(r.Context(), body)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

// uploadBody returns the CSV payload: the "file" part of a multipart form,
// or the raw request body otherwise.
func (h *RosterHandler) uploadBody(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (h *RosterHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_roster"
	es, err := h.deps.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(es, h.deps.ThresholdDays()))
}

// HandleStatus handles GET /roster/status requests.
func (h *RosterHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.roster_status"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	st, err := h.deps.Status(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleExpiring handles GET /roster/expiring?threshold=N requests.
func (h *RosterHandler) HandleExpiring(w http.ResponseWriter, r *http.Request) {
	const op = "api.roster_expiring"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	threshold := h.deps.ThresholdDays()
	if raw := strings.TrimSpace(r.URL.Query().Get("threshold")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", WrapKind(op, ErrBadRequest, err))
			return
		}
		threshold = n
	}
	es, err := h.deps.Expiring(r.Context(), threshold)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(es, h.deps.ThresholdDays()))
}

// HandleGetEngagement handles GET /roster/engagements/{name} requests.
func (h *RosterHandler) HandleGetEngagement(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_engagement"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	e, err := h.deps.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newEngagementView(e, h.deps.ThresholdDays()))
}

// HandleExport handles GET /roster/export requests. With ?q= only the
// engagements matching the search term are exported.
func (h *RosterHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_roster"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := h.deps.Export(r.Context(), &buf, r.URL.Query().Get("q")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roster.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
