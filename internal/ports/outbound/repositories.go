// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

// GraphStore resolves dishes and cooking methods from the knowledge graph
type GraphStore interface {
	// Candidate retrieval, one list per criterion
	CandidatesByDisease(ctx context.Context, disease string) ([]dietary.FoodCandidate, error)
	CandidatesByBMICategory(ctx context.Context, category string) ([]dietary.FoodCandidate, error)
	CandidatesByCookingMethod(ctx context.Context, method string) ([]dietary.FoodCandidate, error)
	PopularCandidates(ctx context.Context, excludeIDs []string) ([]dietary.FoodCandidate, error)

	// Method narrowing sources
	CookingMethodsByDisease(ctx context.Context, disease string) ([]string, error)
	CookingMethodsByBMICategory(ctx context.Context, category string) ([]string, error)
	DietRecommendationsByDisease(ctx context.Context, disease string) ([]string, error)
	ContextAndCookingMethods(ctx context.Context, weather, timeOfDay string) (*CookingContext, error)
}

// CookingContext is the context node matched for a weather and time of day.
// Name is empty when no context matched.
type CookingContext struct {
	Name    string
	Methods []string
}

// DocumentStore provides user profiles and dish ingredient data
type DocumentStore interface {
	// UserHealthProfile returns dietary.ErrProfileNotFound when the user is unknown
	UserHealthProfile(ctx context.Context, userID string) (*dietary.UserProfile, error)
	DishIngredients(ctx context.Context, dishID string) ([]string, error)
	AllIngredients(ctx context.Context) ([]string, error)
	CookingMethodsByIngredients(ctx context.Context, ingredients []string) ([]string, error)
	PersistBMIResult(ctx context.Context, userID string, result dietary.BMIResult) error
}

// TextGenerationClient is the language model used for classification,
// reranking and natural language responses
type TextGenerationClient interface {
	ClassifyTopic(ctx context.Context, question string) (dietary.TopicClassification, error)

	// ClassifyAllergy returns dietary.ErrMalformedResponse when the model
	// output cannot be parsed; it never panics on bad output.
	ClassifyAllergy(ctx context.Context, req AllergyClassificationRequest) (*AllergyClassification, error)

	Rerank(ctx context.Context, prompt string) (string, error)
	ComposeNaturalResponse(ctx context.Context, prompt string) (string, error)
}

// AllergyClassificationRequest is the input of an allergy classification
type AllergyClassificationRequest struct {
	DishName      string
	Ingredients   []string
	UserAllergies []string
}

// AllergyClassification splits a dish's ingredients into main and side
type AllergyClassification struct {
	IsSafe              bool     `json:"is_safe"`
	MainIngredients     []string `json:"main_ingredients"`
	SideIngredients     []string `json:"side_ingredients"`
	AllergicIngredients []string `json:"allergic_ingredients"`
	Warnings            []string `json:"warnings"`
}

// SessionStore persists workflow state between turns.
// Load returns dietary.ErrSessionNotFound for missing and expired sessions alike.
type SessionStore interface {
	Create(ctx context.Context, state dietary.WorkflowState) (string, error)
	Load(ctx context.Context, sessionID string) (dietary.WorkflowState, error)
	Save(ctx context.Context, sessionID string, state dietary.WorkflowState) error
}
