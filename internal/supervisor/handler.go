package supervisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"hls-supervisor/internal/hls"

	"github.com/go-chi/chi/v5"
)

// FilesFunc reports on the stream output directories.
type FilesFunc func() []hls.DirReport

// Handler exposes the supervisor over HTTP using go-chi.
type Handler struct {
	svc   *Supervisor
	log   *slog.Logger
	files FilesFunc
	now   func() time.Time
}

// NewHandler returns a Handler for svc.
func NewHandler(svc *Supervisor, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log, now: time.Now}
}

// WithFiles sets the source of the /files report.
func (h *Handler) WithFiles(f FilesFunc) *Handler {
	h.files = f
	return h
}

// Routes returns the API router, meant to be mounted at /api/streams.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.GetStatus)
	r.Post("/restart/{id}", h.RestartStream)
	r.Get("/health", h.Health)
	r.Get("/files", h.Files)
	return r
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GetStatus handles GET /status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: h.svc.Statuses()})
}

// RestartStream handles POST /restart/{id}.
func (h *Handler) RestartStream(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, response{Error: "Invalid stream ID"})
		return
	}

	err = h.svc.Restart(StreamID(id))
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: fmt.Sprintf("Stream %d restart initiated", id),
		})
	case errors.Is(err, ErrInvalidStreamID):
		h.writeJSON(w, http.StatusBadRequest, response{Error: "Invalid stream ID"})
	case errors.Is(err, ErrProcessNotFound):
		h.writeJSON(w, http.StatusNotFound, response{
			Error:   "Stream not found",
			Message: fmt.Sprintf("Stream %d was not running; relaunch scheduled", id),
		})
	case errors.Is(err, ErrSupervisorClosed):
		h.writeJSON(w, http.StatusServiceUnavailable, response{Error: "Supervisor is shutting down"})
	default:
		h.log.Error("restart failed", slog.Int("stream_id", id), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusInternalServerError, response{Error: "Failed to restart stream"})
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Files handles GET /files.
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	reports := []hls.DirReport{}
	if h.files != nil {
		reports = h.files()
	}
	h.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: reports})
}

// Index handles GET / with a short description of the service.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"name":    "hls-supervisor",
		"streams": h.svc.StreamCount(),
		"endpoints": map[string]string{
			"status":  "GET /api/streams/status",
			"restart": "POST /api/streams/restart/{id}",
			"health":  "GET /api/streams/health",
			"files":   "GET /api/streams/files",
			"metrics": "GET /metrics",
			"streams": "GET /streams/stream{id}/output.m3u8",
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Debug("write response", slog.String("error", err.Error()))
	}
}
