package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutriguide/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"github.com/alchemorsel/nutriguide/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type stubService struct {
	envelope *dietary.ResultEnvelope
	calls    int
	panics   bool
}

func (s *stubService) HandleTurn(_ context.Context, _ inbound.TurnCommand) *dietary.ResultEnvelope {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.envelope
}

type ServerTestSuite struct {
	suite.Suite
	cfg     *config.Config
	service *stubService
	health  *healthcheck.HealthCheck
	server  *Server
}

func (s *ServerTestSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(`
app:
  name: NutriGuide
  environment: test
rate_limit:
  requests_per_min: 60
  burst_size: 2
server:
  allowed_origins: ["https://app.example.com"]
`), 0o600))
	cfg, err := config.Load(path)
	s.Require().NoError(err)
	s.cfg = cfg

	logger := zaptest.NewLogger(s.T())
	tracing, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfigFrom(cfg), logger)
	s.Require().NoError(err)

	s.service = &stubService{envelope: &dietary.ResultEnvelope{Status: dietary.StatusSuccess, Foods: []dietary.FoodView{}}}
	s.health = healthcheck.New(cfg.App.Version, logger)
	s.server = NewServer(cfg, logger, s.service, s.health, monitoring.NewMetricsCollector(logger), tracing)
}

func (s *ServerTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) turnRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *ServerTestSuite) TestRecommendation_Success() {
	w := s.do(s.turnRequest(`{"user_id":"demo-user","question":"dinner"}`))

	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
	s.Equal("nosniff", w.Header().Get("X-Content-Type-Options"))
	s.Equal(1, s.service.calls)
}

func (s *ServerTestSuite) TestRecommendation_ErrorEnvelopeStatus() {
	s.service.envelope = &dietary.ResultEnvelope{
		Status: dietary.StatusError,
		Error:  &dietary.ErrorDescriptor{Code: string(apperrors.CodeUserNotFound), Message: "user not found"},
	}

	w := s.do(s.turnRequest(`{"user_id":"ghost","question":"dinner"}`))

	s.Equal(http.StatusNotFound, w.Code)
	var got dietary.ResultEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(dietary.StatusError, got.Status)
}

func (s *ServerTestSuite) TestRecommendation_MalformedBody() {
	w := s.do(s.turnRequest(`not json`))

	s.Equal(http.StatusBadRequest, w.Code)
	var got apperrors.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	s.Equal(apperrors.CodeBadRequest, got.Error.Code)
	s.Equal(w.Header().Get("X-Request-ID"), got.Error.RequestID)
	s.Zero(s.service.calls)
}

func (s *ServerTestSuite) TestRecommendation_RateLimited() {
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(s.turnRequest(`{"user_id":"demo-user","question":"dinner"}`)).Code)
	}

	s.Equal([]int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func (s *ServerTestSuite) TestRecommendation_PanicRecovered() {
	s.service.panics = true

	w := s.do(s.turnRequest(`{"user_id":"demo-user","question":"dinner"}`))

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), string(apperrors.CodeInternal))
}

func (s *ServerTestSuite) TestCORS() {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := s.do(req)
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = s.do(req)
	s.Empty(w.Header().Get("Access-Control-Allow-Origin"))
}

func (s *ServerTestSuite) TestHealthAndMetrics() {
	s.health.Register("database", healthcheck.NewPingChecker(func(context.Context) error { return nil }, true))

	health := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, health.Code)
	s.Contains(health.Body.String(), `"status":"healthy"`)

	s.do(s.turnRequest(`{"user_id":"demo-user","question":"dinner"}`))
	metrics := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, metrics.Code)
	s.True(strings.Contains(metrics.Body.String(), `nutriguide_http_requests_total{method="POST",path="/api/v1/recommendations",status_code="200"} 1`))
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestNewServer_Address(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9090
	cfg.Monitoring.HealthCheckPath = "/health"
	logger := zaptest.NewLogger(t)
	tracing, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{}, logger)
	require.NoError(t, err)

	srv := NewServer(cfg, logger, &stubService{}, healthcheck.New("test", logger), nil, tracing)

	assert.Equal(t, "127.0.0.1:9090", srv.server.Addr)
}
