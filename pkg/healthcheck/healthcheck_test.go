// Package healthcheck unit tests
package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func okPing(context.Context) error { return nil }

func failingPing(context.Context) error { return errors.New("connection refused") }

func TestNew(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	assert.NotNil(t, hc)
	assert.Equal(t, "1.0.0", hc.version)
	assert.NotNil(t, hc.checkers)
	assert.Equal(t, 5*time.Second, hc.cacheTTL)
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zaptest.NewLogger(t))

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
	assert.False(t, response.Timestamp.IsZero())
}

func TestHealthCheck_Check_AggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]Checker
		want     Status
	}{
		{
			name: "all healthy",
			checkers: map[string]Checker{
				"database": NewPingChecker(okPing, true),
				"neo4j":    NewPingChecker(okPing, true),
			},
			want: StatusHealthy,
		},
		{
			name: "optional dependency down",
			checkers: map[string]Checker{
				"database": NewPingChecker(okPing, true),
				"ai":       NewPingChecker(failingPing, false),
			},
			want: StatusDegraded,
		},
		{
			name: "critical dependency down",
			checkers: map[string]Checker{
				"database": NewPingChecker(failingPing, true),
				"ai":       NewPingChecker(failingPing, false),
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			hc := New("1.0.0", zaptest.NewLogger(t))
			for name, checker := range tt.checkers {
				hc.Register(name, checker)
			}

			// Act
			response := hc.Check(context.Background())

			// Assert
			assert.Equal(t, tt.want, response.Status)
			require.Len(t, response.Checks, len(tt.checkers))
			for i := 1; i < len(response.Checks); i++ {
				assert.Less(t, response.Checks[i-1].Name, response.Checks[i].Name)
			}
		})
	}
}

func TestHealthCheck_Check_UsesCache(t *testing.T) {
	var calls atomic.Int32
	hc := New("1.0.0", zaptest.NewLogger(t))
	hc.Register("counter", NewPingChecker(func(context.Context) error {
		calls.Add(1)
		return nil
	}, true))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestPingChecker_ReportsError(t *testing.T) {
	check := NewPingChecker(failingPing, false).Check(context.Background())

	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "connection refused", check.Message)
}

func TestCustomChecker(t *testing.T) {
	checker := NewCustomChecker("ai", func(context.Context) (Status, string, interface{}) {
		return StatusDegraded, "provider unavailable", map[string]string{"provider": "ollama"}
	})

	check := checker.Check(context.Background())

	assert.Equal(t, "ai", check.Name)
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "provider unavailable", check.Message)
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		critical   bool
		path       string
		wantCode   int
		wantStatus string
	}{
		{name: "health degraded", critical: false, path: "/health", wantCode: http.StatusOK, wantStatus: "degraded"},
		{name: "health unhealthy", critical: true, path: "/health", wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
		{name: "ready when degraded", critical: false, path: "/ready", wantCode: http.StatusOK, wantStatus: "ready"},
		{name: "not ready", critical: true, path: "/ready", wantCode: http.StatusServiceUnavailable, wantStatus: "not_ready"},
		{name: "live", critical: true, path: "/live", wantCode: http.StatusOK, wantStatus: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			hc := New("1.0.0", zaptest.NewLogger(t))
			hc.Register("dependency", NewPingChecker(failingPing, tt.critical))
			router := gin.New()
			router.GET("/health", hc.Handler())
			router.GET("/ready", hc.ReadinessHandler())
			router.GET("/live", hc.LivenessHandler())

			// Act
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			// Assert
			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestResponse_MarshalJSON(t *testing.T) {
	response := Response{
		Status:        StatusHealthy,
		Version:       "1.0.0",
		TotalDuration: 1500 * time.Millisecond,
		Checks:        []Check{{Name: "database", Status: StatusHealthy, Duration: 20 * time.Millisecond}},
	}

	data, err := json.Marshal(response)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(1500), body["total_duration_ms"])
	checks := body["checks"].([]interface{})
	assert.Equal(t, float64(20), checks[0].(map[string]interface{})["duration_ms"])
}
