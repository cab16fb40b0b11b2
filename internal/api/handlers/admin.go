package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/finatlas/finatlas/internal/api"
	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/scheduler"
)

type CollectorService interface {
	CollectAll(ctx context.Context) []domain.Entity
	CollectSource(ctx context.Context, sourceID string) ([]domain.Entity, error)
	Sources() []string
	Status() domain.CollectionStatus
}

type IndexerService interface {
	IndexEntities(ctx context.Context, entities []domain.Entity) (int, error)
}

type SchedulerControl interface {
	Start(ctx context.Context)
	Stop()
	IsRunning() bool
	GetStatus() scheduler.Status
}

type StoreAdmin interface {
	Stats(ctx context.Context) (*domain.StoreStats, error)
	Reset(ctx context.Context) error
}

// AdminHandler exposes collection, scheduler and store management endpoints.
type AdminHandler struct {
	collector CollectorService
	indexer   IndexerService
	sched     SchedulerControl
	store     StoreAdmin

	// baseCtx outlives individual requests so a scheduler started over HTTP
	// keeps running after the request ends.
	baseCtx context.Context
}

func NewAdminHandler(baseCtx context.Context, collector CollectorService, indexer IndexerService, sched SchedulerControl, store StoreAdmin) *AdminHandler {
	return &AdminHandler{
		collector: collector,
		indexer:   indexer,
		sched:     sched,
		store:     store,
		baseCtx:   baseCtx,
	}
}

type CollectRequest struct {
	Source string `json:"source"`
}

type CollectResponse struct {
	Collected int    `json:"collected"`
	Indexed   int    `json:"indexed"`
	Source    string `json:"source,omitempty"`
}

// Collect runs a collection pass, across all sources or a single one, and
// indexes the result.
func (h *AdminHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var entities []domain.Entity
	if req.Source != "" {
		collected, err := h.collector.CollectSource(r.Context(), req.Source)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		entities = collected
	} else {
		entities = h.collector.CollectAll(r.Context())
	}

	indexed, err := h.indexer.IndexEntities(r.Context(), entities)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, CollectResponse{
		Collected: len(entities),
		Indexed:   indexed,
		Source:    req.Source,
	})
}

type CollectionStatusResponse struct {
	domain.CollectionStatus
	AvailableSources []string `json:"available_sources"`
}

func (h *AdminHandler) CollectionStatus(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, CollectionStatusResponse{
		CollectionStatus: h.collector.Status(),
		AvailableSources: h.collector.Sources(),
	})
}

func (h *AdminHandler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	h.sched.Start(h.baseCtx)
	api.Success(w, http.StatusOK, h.sched.GetStatus())
}

func (h *AdminHandler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	if !h.sched.IsRunning() {
		api.HandleError(w, domain.ErrSchedulerNotRunning)
		return
	}
	h.sched.Stop()
	api.Success(w, http.StatusOK, h.sched.GetStatus())
}

func (h *AdminHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.sched.GetStatus())
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

// Reset drops every indexed entity. Destructive, so it refuses to run
// without confirm=true.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		api.HandleError(w, domain.ErrResetNotConfirmed)
		return
	}

	if err := h.store.Reset(r.Context()); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "reset complete"})
}
