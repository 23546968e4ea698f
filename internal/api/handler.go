package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bholykov/pdstage/internal/checker"
	"github.com/bholykov/pdstage/internal/config"
	"github.com/bholykov/pdstage/internal/selector"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	chk    *checker.Checker
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(chk *checker.Checker, loader *config.Loader) http.Handler {
	h := &Handler{chk: chk, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/simulate", h.simulate)
	h.mux.HandleFunc("GET /v1/report", h.report)
	h.mux.HandleFunc("POST /v1/verify", h.reverify)
	h.mux.HandleFunc("GET /v1/patch", h.patchSummary)
	h.mux.HandleFunc("GET /v1/config", h.showConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// simulateRequest is the POST /v1/simulate body.
type simulateRequest struct {
	QueryID string `json:"query_id"`
	Value   *int   `json:"value"`
}

// POST /v1/simulate — answer one selection query.
func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	if req.QueryID == "" {
		req.QueryID = uuid.New().String()
	}

	sel, err := h.chk.Simulate(*req.Value)
	switch {
	case errors.Is(err, selector.ErrUnknownValue):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query_id":  req.QueryID,
		"selection": sel,
	})
}

// GET /v1/report — latest verification report.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chk.Report())
}

// POST /v1/verify — force a re-read and re-verification of the patch.
func (h *Handler) reverify(w http.ResponseWriter, r *http.Request) {
	rep, err := h.chk.Rebuild()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GET /v1/config — the configuration currently driving the checker.
func (h *Handler) showConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loader.Config())
}

// GET /v1/patch — summary of the currently loaded patch.
func (h *Handler) patchSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chk.Summary())
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 until the current patch has a passing report.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	rep := h.chk.Report()
	if rep == nil || !rep.Passed {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "failing",
			"report": rep,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"run_id": rep.RunID,
	})
}
