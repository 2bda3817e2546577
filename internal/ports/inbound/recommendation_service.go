// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

// RecommendationService runs one conversation turn of the dish recommender.
// Failures are reported inside the envelope with status "error"; the
// envelope is never nil.
type RecommendationService interface {
	HandleTurn(ctx context.Context, cmd TurnCommand) *dietary.ResultEnvelope
}

// TurnCommand contains the input of a single conversation turn
type TurnCommand struct {
	UserID         string   `json:"user_id" validate:"required,max=128"`
	Question       string   `json:"question" validate:"required_without=SessionID,max=2000"`
	SessionID      string   `json:"session_id,omitempty" validate:"omitempty,max=128"`
	Ingredients    []string `json:"ingredients,omitempty" validate:"omitempty,max=50,dive,max=100"`
	CookingMethods []string `json:"cooking_methods,omitempty" validate:"omitempty,max=20,dive,max=100"`
	Weather        string   `json:"weather,omitempty" validate:"omitempty,max=50"`
	TimeOfDay      string   `json:"time_of_day,omitempty" validate:"omitempty,max=50"`
	IgnoreContext  bool     `json:"ignore_context,omitempty"`
}
