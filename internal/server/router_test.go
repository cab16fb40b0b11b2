package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finatlas/finatlas/internal/api/handlers"
	"github.com/finatlas/finatlas/internal/domain"
	"github.com/finatlas/finatlas/internal/scheduler"
	"github.com/finatlas/finatlas/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRetrieverService struct {
	mock.Mock
}

func (m *MockRetrieverService) Search(ctx context.Context, query string, limit int, filter domain.SearchFilter) ([]service.SearchResult, error) {
	args := m.Called(ctx, query, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SearchResult), args.Error(1)
}

func (m *MockRetrieverService) Ask(ctx context.Context, question string, contextLimit int) (*service.Answer, error) {
	args := m.Called(ctx, question, contextLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

func (m *MockRetrieverService) Compare(ctx context.Context, fromCountry, toCountry string, amount float64) (*service.Comparison, error) {
	args := m.Called(ctx, fromCountry, toCountry, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Comparison), args.Error(1)
}

func (m *MockRetrieverService) GetEntityByID(ctx context.Context, id string) (*domain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *MockRetrieverService) GetEntitiesByCountry(ctx context.Context, countryCode string, limit int) ([]service.SearchResult, error) {
	args := m.Called(ctx, countryCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SearchResult), args.Error(1)
}

func (m *MockRetrieverService) GetEntitiesByType(ctx context.Context, entityType string, limit int) ([]service.SearchResult, error) {
	args := m.Called(ctx, entityType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SearchResult), args.Error(1)
}

func (m *MockRetrieverService) SuggestSimilar(ctx context.Context, entityID string, limit int) ([]service.SearchResult, error) {
	args := m.Called(ctx, entityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SearchResult), args.Error(1)
}

type MockCollectorService struct {
	mock.Mock
}

func (m *MockCollectorService) CollectAll(ctx context.Context) []domain.Entity {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.Entity)
}

func (m *MockCollectorService) CollectSource(ctx context.Context, sourceID string) ([]domain.Entity, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}

func (m *MockCollectorService) Sources() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockCollectorService) Status() domain.CollectionStatus {
	args := m.Called()
	return args.Get(0).(domain.CollectionStatus)
}

type MockIndexerService struct {
	mock.Mock
}

func (m *MockIndexerService) IndexEntities(ctx context.Context, entities []domain.Entity) (int, error) {
	args := m.Called(ctx, entities)
	return args.Int(0), args.Error(1)
}

type MockSchedulerControl struct {
	mock.Mock
}

func (m *MockSchedulerControl) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSchedulerControl) Stop() {
	m.Called()
}

func (m *MockSchedulerControl) IsRunning() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSchedulerControl) GetStatus() scheduler.Status {
	args := m.Called()
	return args.Get(0).(scheduler.Status)
}

type MockStoreAdmin struct {
	mock.Mock
}

func (m *MockStoreAdmin) Stats(ctx context.Context) (*domain.StoreStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoreStats), args.Error(1)
}

func (m *MockStoreAdmin) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupRouter() (http.Handler, *MockRetrieverService, *MockStoreAdmin) {
	retrieverSvc := new(MockRetrieverService)
	storeAdmin := new(MockStoreAdmin)

	cfg := RouterConfig{
		SearchHandler: handlers.NewSearchHandler(retrieverSvc),
		AdminHandler: handlers.NewAdminHandler(
			context.Background(),
			new(MockCollectorService),
			new(MockIndexerService),
			new(MockSchedulerControl),
			storeAdmin,
		),
	}

	router := NewRouter(cfg)
	return router, retrieverSvc, storeAdmin
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_SearchDispatch(t *testing.T) {
	router, retrieverSvc, _ := setupRouter()

	retrieverSvc.On("Search", mock.Anything, "banks", 0, domain.SearchFilter{}).
		Return([]service.SearchResult{}, nil)

	body := `{"query":"banks"}`
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	retrieverSvc.AssertExpectations(t)
}

func TestRouter_EntityRoutes(t *testing.T) {
	router, retrieverSvc, _ := setupRouter()

	retrieverSvc.On("GetEntityByID", mock.Anything, "abc123").
		Return(&domain.Record{ID: "abc123"}, nil)
	retrieverSvc.On("GetEntitiesByCountry", mock.Anything, "ve", 0).
		Return([]service.SearchResult{}, nil)
	retrieverSvc.On("GetEntitiesByType", mock.Anything, "bank", 0).
		Return([]service.SearchResult{}, nil)
	retrieverSvc.On("SuggestSimilar", mock.Anything, "abc123", 5).
		Return([]service.SearchResult{}, nil)

	paths := []string{
		"/entities/abc123",
		"/entities/abc123/similar",
		"/entities/country/ve",
		"/entities/type/bank",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	retrieverSvc.AssertExpectations(t)
}

func TestRouter_AdminStats(t *testing.T) {
	router, _, storeAdmin := setupRouter()

	storeAdmin.On("Stats", mock.Anything).Return(&domain.StoreStats{Name: "financial_entities", Count: 7}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	storeAdmin.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
