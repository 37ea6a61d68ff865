package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockbook/internal/config"
	"stockbook/internal/domain"
	"stockbook/internal/repository"
	"stockbook/internal/service"
	"stockbook/internal/transport"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyStore struct {
	failing bool
}

func (f *flakyStore) Load(ctx context.Context) ([]domain.InventoryItem, []domain.Sale, error) {
	return nil, nil, nil
}

func (f *flakyStore) Save(ctx context.Context, items []domain.InventoryItem, sales []domain.Sale) error {
	if f.failing {
		return domain.ErrStorage
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		Store:     config.StoreConfig{Backend: config.BackendMemory},
		Redis:     config.RedisConfig{KeyPrefix: "test"},
		RateLimit: config.RateLimitConfig{Requests: 3, WindowSeconds: 60},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://shop.local"}},
	}
}

func newService(t *testing.T, store repository.Store) service.TrackerService {
	t.Helper()
	svc := service.NewTrackerService(store, nil, zap.NewNop(), time.Now)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestHealth(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), newService(t, repository.NewMemoryStore()), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.BackendMemory, body["backend"])
	assert.Equal(t, false, body["dirty"])
	assert.NotContains(t, body, "database")
}

func TestRoutesAreMounted(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), newService(t, repository.NewMemoryStore()), nil, nil)

	for _, path := range []string{"/api/items", "/api/draft", "/api/sales", "/api/analytics/inventory"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestSync(t *testing.T) {
	store := &flakyStore{}
	svc := newService(t, store)
	srv := NewServer(testConfig(), zap.NewNop(), svc, nil, nil)

	store.failing = true
	_, err := svc.SaveItem(context.Background(), domain.ItemDraft{Name: "Cola", Category: "Drinks", Price: "1", Quantity: "3"})
	require.NoError(t, err)
	require.True(t, svc.Dirty())

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "true", w.Header().Get(transport.PersistWarningHeader))

	store.failing = false
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, svc.Dirty())
}

func TestRateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv := NewServer(testConfig(), zap.NewNop(), newService(t, repository.NewMemoryStore()), nil, client)

	codes := []int{}
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"redis":"up"`), w.Body.String())

	require.NoError(t, srv.Close())
}

func TestCORSHeaders(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), newService(t, repository.NewMemoryStore()), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set("Origin", "http://shop.local")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, "http://shop.local", w.Header().Get("Access-Control-Allow-Origin"))
}
