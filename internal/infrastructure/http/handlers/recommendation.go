// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"net/http"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodyBytes caps the size of a turn request
const maxBodyBytes = 64 << 10

// RecommendationHandlers exposes conversation turns over HTTP
type RecommendationHandlers struct {
	service inbound.RecommendationService
	logger  *zap.Logger
}

// NewRecommendationHandlers creates a new recommendation handlers instance
func NewRecommendationHandlers(service inbound.RecommendationService, logger *zap.Logger) *RecommendationHandlers {
	return &RecommendationHandlers{
		service: service,
		logger:  logger.Named("recommendation-handlers"),
	}
}

// Register mounts the handlers on the router group
func (h *RecommendationHandlers) Register(r gin.IRoutes) {
	r.POST("/recommendations", h.HandleTurn)
}

// HandleTurn handles POST /api/v1/recommendations. The body is decoded
// here and validated by the service, which always answers with an envelope.
func (h *RecommendationHandlers) HandleTurn(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var cmd inbound.TurnCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("request body must be a JSON turn command").WithCause(err))
		return
	}
	if userID := c.GetHeader("X-User-ID"); cmd.UserID == "" && userID != "" {
		cmd.UserID = userID
	}
	c.Set("user_id", cmd.UserID)

	envelope := h.service.HandleTurn(c.Request.Context(), cmd)
	c.JSON(StatusFor(envelope), envelope)
}

// StatusFor maps an envelope to its HTTP status. Only error envelopes use
// a non-200 status, derived from the error code.
func StatusFor(envelope *dietary.ResultEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	if envelope.Status != dietary.StatusError {
		return http.StatusOK
	}
	code := apperrors.CodeUnknown
	if envelope.Error != nil {
		code = apperrors.ErrorCode(envelope.Error.Code)
	}
	return (&apperrors.AppError{Code: code}).StatusCode()
}
