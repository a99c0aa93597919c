package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pipedrive-sync/internal/domain"
	"pipedrive-sync/internal/pipedrive"
	"pipedrive-sync/internal/repository"
	"pipedrive-sync/internal/service"
)

type SyncManager interface {
	StartSync(path string) (string, error)
	Runs(ctx context.Context, limit int) ([]domain.SyncRun, error)
	RunByKey(ctx context.Context, key string) (*domain.SyncRun, error)
	RunStatusByKey(ctx context.Context, key string) (*service.RunStatus, error)
}

type EntityProvider interface {
	List(ctx context.Context, document, personType, status string, updatedAfter *time.Time) ([]domain.Entity, error)
	Stats(ctx context.Context) (domain.EntityStats, error)
	History(ctx context.Context, entityID int64) ([]domain.ChangeRecord, error)
}

type EntityExporter interface {
	StartExport(ctx context.Context, selected []string, filter repository.EntitiesFilter) (string, error)
	GetExports(ctx context.Context) ([]any, error)
	GetExport(ctx context.Context, exportID string) (any, error)
}

type FieldCatalog interface {
	Fields(ctx context.Context, kind string) ([]pipedrive.Field, error)
	Pipelines(ctx context.Context) ([]pipedrive.Pipeline, error)
	Stages(ctx context.Context) ([]pipedrive.Stage, error)
	CheckConnection(ctx context.Context) (*pipedrive.User, error)
}

type BackupRunner interface {
	Run(ctx context.Context) (*service.BackupResult, error)
}

type Handler struct {
	sync     SyncManager
	entities EntityProvider
	exports  EntityExporter
	fields   FieldCatalog
	backup   BackupRunner
}

func NewHandler(sync SyncManager, entities EntityProvider, exports EntityExporter, fields FieldCatalog, backup BackupRunner) *Handler {
	return &Handler{
		sync:     sync,
		entities: entities,
		exports:  exports,
		fields:   fields,
		backup:   backup,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Route("/sync", func(r chi.Router) {
		r.Post("/runs", h.startSync)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{run_key}", h.getRun)
	})

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", h.listEntities)
		r.Get("/stats", h.entityStats)
		r.Get("/{entity_id}/history", h.entityHistory)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/", h.listExports)
		r.Get("/{export_id}", h.getExport)
		r.Post("/entities", h.exportEntities)
	})

	r.Route("/fields", func(r chi.Router) {
		r.Get("/{kind}", h.listFields)
	})

	r.Get("/pipelines", h.listPipelines)
	r.Get("/stages", h.listStages)
	r.Get("/connection", h.checkConnection)

	r.Post("/backup", h.runBackup)

	return r
}
