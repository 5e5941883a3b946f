package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/tracking"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/metrics"
)

type stubTracking struct {
	historyErr error
	gotLimit   int
}

func (s *stubTracking) GetSnapshot(context.Context) domain.Snapshot {
	return domain.Snapshot{TotalCustomers: 2, WaitingCustomers: 1, Brewing: domain.DrinkCount{Teas: 1}}
}

func (s *stubTracking) GetCustomerStatus(_ context.Context, id int64) (*domain.OrderStatus, error) {
	if id != 1 {
		return nil, fmt.Errorf("%w: %d", tracking.ErrCustomerNotFound, id)
	}
	return &domain.OrderStatus{CustomerID: 1, CustomerName: "alice", Brewing: domain.DrinkCount{Teas: 1}}, nil
}

func (s *stubTracking) GetWorkersStatus(context.Context) []domain.WorkerInfo {
	return []domain.WorkerInfo{{Name: "tea-1", Kind: "tea", Status: domain.WorkerStatusBrewing}}
}

func (s *stubTracking) GetActivityHistory(_ context.Context, limit int) ([]*domain.ActivityRecord, error) {
	s.gotLimit = limit
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return []*domain.ActivityRecord{{ID: 5}}, nil
}

func newTestRouter(t *testing.T, svc *stubTracking) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	return NewRouter(NewTrackingHandler(svc, logger.Nop()), reg, logger.Nop())
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRouter_Status(t *testing.T) {
	rec := get(t, newTestRouter(t, &stubTracking{}), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.TotalCustomers)
	assert.Equal(t, domain.DrinkCount{Teas: 1}, snap.Brewing)
}

func TestRouter_CustomerStatus(t *testing.T) {
	h := newTestRouter(t, &stubTracking{})

	tests := []struct {
		path string
		code int
	}{
		{"/customers/1/status", http.StatusOK},
		{"/customers/2/status", http.StatusNotFound},
		{"/customers/abc/status", http.StatusBadRequest},
		{"/customers/1/history", http.StatusNotFound},
		{"/customers/1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, get(t, h, tt.path).Code)
		})
	}

	var body map[string]any
	require.NoError(t, json.Unmarshal(get(t, h, "/customers/1/status").Body.Bytes(), &body))
	assert.Equal(t, "alice", body["customer_name"])
	assert.Equal(t, "order status for alice:\n- 1 tea currently brewing", body["summary"])
}

func TestRouter_Activity(t *testing.T) {
	svc := &stubTracking{}
	h := newTestRouter(t, svc)

	rec := get(t, h, "/activity?limit=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.gotLimit)
	assert.Contains(t, rec.Body.String(), `"id":5`)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/activity?limit=x").Code)

	svc.historyErr = tracking.ErrHistoryDisabled
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/activity").Code)

	svc.historyErr = errors.New("connection refused")
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/activity").Code)
}

func TestRouter_WorkersHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, &stubTracking{})

	rec := get(t, h, "/workers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"worker_name":"tea-1"`)

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cafe_customers")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, &stubTracking{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
