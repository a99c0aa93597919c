package rest

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) startSync(w http.ResponseWriter, r *http.Request) {
	req, err := ValidateSyncRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	path := req.File
	if path != "" {
		// only bare filenames are accepted, resolved inside the input folder by the service
		path = filepath.Base(path)
	}

	runKey, err := h.sync.StartSync(path)
	if err != nil {
		log.Printf("[HTTP] startSync error: %v", err)
		ErrorInternal(w, "failed to start sync")
		return
	}

	SuccessAccepted(w, "Sincronização iniciada", map[string]interface{}{
		"run_key": runKey,
	})
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ErrorBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.sync.Runs(r.Context(), limit)
	if err != nil {
		log.Printf("[HTTP] listRuns error: %v", err)
		ErrorInternal(w, "failed to list runs")
		return
	}

	Success(w, "", runs)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	keyParam := chi.URLParam(r, "run_key")
	if keyParam == "" {
		ErrorBadRequest(w, "run_key is required")
		return
	}
	key := "runs:" + keyParam

	run, err := h.sync.RunByKey(r.Context(), key)
	if err != nil {
		log.Printf("[HTTP] getRun error: %v", err)
		ErrorInternal(w, "failed to load run")
		return
	}

	status, err := h.sync.RunStatusByKey(r.Context(), key)
	if err != nil {
		log.Printf("[HTTP] getRun status error: %v", err)
	}

	if run == nil && status == nil {
		ErrorNotFound(w, "run not found")
		return
	}

	Success(w, "", map[string]interface{}{
		"run":    run,
		"status": status,
	})
}
