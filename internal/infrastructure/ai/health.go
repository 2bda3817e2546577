package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Health states
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// HealthChecker checks the configured text generation provider
type HealthChecker struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewHealthChecker creates a new AI health checker
func NewHealthChecker(completer Completer, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		completer: completer,
		timeout:   5 * time.Second,
		logger:    logger.Named("ai-health"),
	}
}

// AIHealthStatus represents the health status of the provider. The workflow
// keeps working without it, so an unavailable provider is only degraded.
type AIHealthStatus struct {
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	Details   string    `json:"details"`
	LastCheck time.Time `json:"last_check"`
}

// CheckHealth calls the provider's health endpoint
func (h *HealthChecker) CheckHealth(ctx context.Context) *AIHealthStatus {
	healthCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := &AIHealthStatus{
		Status:    StatusHealthy,
		Provider:  h.completer.Name(),
		Details:   "Healthy",
		LastCheck: time.Now(),
	}

	if err := h.completer.HealthCheck(healthCtx); err != nil {
		status.Status = StatusDegraded
		status.Details = fmt.Sprintf("Unavailable: %v", err)
		h.logger.Warn("AI provider health check failed", zap.String("provider", status.Provider), zap.Error(err))
	}

	return status
}
