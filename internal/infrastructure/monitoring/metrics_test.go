package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/nutriguide/internal/application/recommendation"
	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"
)

var _ recommendation.Observer = (*MetricsCollector)(nil)

func TestMetricsCollector_WorkflowMetrics(t *testing.T) {
	// Arrange
	m := NewMetricsCollector(zaptest.NewLogger(t))

	// Act
	m.StepCompleted(dietary.StepQueryCandidates, 120*time.Millisecond, false)
	m.StepCompleted(dietary.StepQueryCandidates, 80*time.Millisecond, true)
	m.StepCompleted(dietary.StepRerank, time.Second, false)
	m.TurnCompleted(dietary.StatusSuccess, 2*time.Second)
	m.TurnCompleted(dietary.StatusSuccess, time.Second)
	m.TurnCompleted(dietary.StatusError, time.Second)
	m.AggregationSelected(dietary.TierPopular)

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepFailures.WithLabelValues(string(dietary.StepQueryCandidates))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues(string(dietary.StatusSuccess))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues(string(dietary.StatusError))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregationTiers.WithLabelValues(string(dietary.TierPopular))))
	assert.Equal(t, 2, testutil.CollectAndCount(m.stepDuration))
}

func TestMetricsCollector_HTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsCollector(zaptest.NewLogger(t))
	router := gin.New()
	router.Use(m.HTTPMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/ping", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))
	m.TurnCompleted(dietary.StatusRejected, time.Millisecond)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `nutriguide_workflow_turns_total{status="rejected"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestMetricsCollectors_AreIndependent(t *testing.T) {
	first := NewMetricsCollector(zaptest.NewLogger(t))
	second := NewMetricsCollector(zaptest.NewLogger(t))

	first.AggregationSelected(dietary.TierAll)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.aggregationTiers.WithLabelValues(string(dietary.TierAll))))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.aggregationTiers.WithLabelValues(string(dietary.TierAll))))
}

func TestTracingProvider_Disabled(t *testing.T) {
	provider, err := NewTracingProvider(context.Background(), TracingConfig{ServiceName: "nutriguide"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, span := provider.StartHTTPSpan(context.Background(), http.MethodPost, "/api/v1/recommendations")
	span.End()

	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestTraceIDFromContext(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
