package rest

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listFields(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	fields, err := h.fields.Fields(r.Context(), kind)
	if err != nil {
		if kind != "person" && kind != "deal" && kind != "organization" {
			ErrorBadRequest(w, "kind must be person, deal or organization")
			return
		}
		log.Printf("[HTTP] listFields error: %v", err)
		ErrorInternal(w, "failed to list fields")
		return
	}

	Success(w, "", fields)
}

func (h *Handler) listPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.fields.Pipelines(r.Context())
	if err != nil {
		log.Printf("[HTTP] listPipelines error: %v", err)
		ErrorInternal(w, "failed to list pipelines")
		return
	}

	Success(w, "", pipelines)
}

func (h *Handler) listStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.fields.Stages(r.Context())
	if err != nil {
		log.Printf("[HTTP] listStages error: %v", err)
		ErrorInternal(w, "failed to list stages")
		return
	}

	Success(w, "", stages)
}

func (h *Handler) checkConnection(w http.ResponseWriter, r *http.Request) {
	user, err := h.fields.CheckConnection(r.Context())
	if err != nil {
		log.Printf("[HTTP] checkConnection error: %v", err)
		ErrorInternal(w, "failed to reach the CRM")
		return
	}

	Success(w, "Conexão verificada", user)
}

func (h *Handler) runBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backup.Run(r.Context())
	if err != nil {
		log.Printf("[HTTP] runBackup error: %v", err)
		ErrorInternal(w, "failed to run backup")
		return
	}

	Success(w, "Backup concluído", result)
}
