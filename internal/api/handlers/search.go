package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/finatlas/finatlas/internal/api"
	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/service"
	"github.com/go-chi/chi/v5"
)

type RetrieverService interface {
	Search(ctx context.Context, query string, limit int, filter domain.SearchFilter) ([]service.SearchResult, error)
	Ask(ctx context.Context, question string, contextLimit int) (*service.Answer, error)
	Compare(ctx context.Context, fromCountry, toCountry string, amount float64) (*service.Comparison, error)
	GetEntityByID(ctx context.Context, id string) (*domain.Record, error)
	GetEntitiesByCountry(ctx context.Context, countryCode string, limit int) ([]service.SearchResult, error)
	GetEntitiesByType(ctx context.Context, entityType string, limit int) ([]service.SearchResult, error)
	SuggestSimilar(ctx context.Context, entityID string, limit int) ([]service.SearchResult, error)
}

type SearchHandler struct {
	svc RetrieverService
}

func NewSearchHandler(svc RetrieverService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Country string `json:"country"`
	Type    string `json:"type"`
}

type SearchResponse struct {
	Results []service.SearchResult `json:"results"`
	Total   int                    `json:"total"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	filter, err := domain.NewSearchFilter(req.Country, req.Type)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results, err := h.svc.Search(r.Context(), req.Query, req.Limit, filter)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

type AskRequest struct {
	Question     string `json:"question"`
	ContextLimit int    `json:"context_limit"`
}

func (h *SearchHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.ContextLimit <= 0 {
		req.ContextLimit = 5
	}

	answer, err := h.svc.Ask(r.Context(), req.Question, req.ContextLimit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answer)
}

type CompareRequest struct {
	FromCountry string  `json:"from_country"`
	ToCountry   string  `json:"to_country"`
	Amount      float64 `json:"amount"`
}

func (h *SearchHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FromCountry == "" || req.ToCountry == "" {
		api.Error(w, http.StatusBadRequest, "from_country and to_country are required")
		return
	}
	if req.Amount <= 0 {
		api.Error(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	comparison, err := h.svc.Compare(r.Context(), req.FromCountry, req.ToCountry, req.Amount)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, comparison)
}

func (h *SearchHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	record, err := h.svc.GetEntityByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, record)
}

func (h *SearchHandler) GetByCountry(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		api.Error(w, http.StatusBadRequest, "country code is required")
		return
	}

	results, err := h.svc.GetEntitiesByCountry(r.Context(), code, queryLimit(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

func (h *SearchHandler) GetByType(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "type")
	if entityType == "" {
		api.Error(w, http.StatusBadRequest, "entity type is required")
		return
	}

	results, err := h.svc.GetEntitiesByType(r.Context(), entityType, queryLimit(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	limit := queryLimit(r)
	if limit <= 0 {
		limit = 5
	}

	results, err := h.svc.SuggestSimilar(r.Context(), id, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

func queryLimit(r *http.Request) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
