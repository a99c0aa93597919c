package rest

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	personType := strings.ToUpper(strings.TrimSpace(q.Get("type")))
	if personType != "" && personType != "PF" && personType != "PJ" {
		ErrorBadRequest(w, "type must be PF or PJ")
		return
	}

	var updatedAfter *time.Time
	if raw := strings.TrimSpace(q.Get("updated_after")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ErrorBadRequest(w, "updated_after must be YYYY-MM-DD")
			return
		}
		updatedAfter = &parsed
	}

	entities, err := h.entities.List(r.Context(),
		strings.TrimSpace(q.Get("document")), personType, strings.TrimSpace(q.Get("status")), updatedAfter)
	if err != nil {
		log.Printf("[HTTP] listEntities error: %v", err)
		ErrorInternal(w, "failed to list entities")
		return
	}

	Success(w, "", map[string]interface{}{
		"total":    len(entities),
		"entities": entities,
	})
}

func (h *Handler) entityHistory(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entity_id"), 10, 64)
	if err != nil || entityID <= 0 {
		ErrorBadRequest(w, "entity_id must be a positive integer")
		return
	}

	changes, err := h.entities.History(r.Context(), entityID)
	if err != nil {
		log.Printf("[HTTP] entityHistory error: %v", err)
		ErrorInternal(w, "failed to load history")
		return
	}

	Success(w, "", map[string]interface{}{
		"entity_id": entityID,
		"total":     len(changes),
		"changes":   changes,
	})
}

func (h *Handler) entityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.entities.Stats(r.Context())
	if err != nil {
		log.Printf("[HTTP] entityStats error: %v", err)
		ErrorInternal(w, "failed to load stats")
		return
	}

	Success(w, "", stats)
}
