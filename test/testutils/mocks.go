// Package testutils provides mock implementations for testing
package testutils

import (
	"context"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

var (
	_ outbound.GraphStore           = (*MockGraphStore)(nil)
	_ outbound.DocumentStore        = (*MockDocumentStore)(nil)
	_ outbound.TextGenerationClient = (*MockTextGenerationClient)(nil)
	_ outbound.SessionStore         = (*MockSessionStore)(nil)
)

// MockGraphStore provides a mock implementation of GraphStore
type MockGraphStore struct {
	mock.Mock
}

// CandidatesByDisease mocks the disease candidate query
func (m *MockGraphStore) CandidatesByDisease(ctx context.Context, disease string) ([]dietary.FoodCandidate, error) {
	args := m.Called(ctx, disease)
	return candidatesArg(args, 0), args.Error(1)
}

// CandidatesByBMICategory mocks the BMI candidate query
func (m *MockGraphStore) CandidatesByBMICategory(ctx context.Context, category string) ([]dietary.FoodCandidate, error) {
	args := m.Called(ctx, category)
	return candidatesArg(args, 0), args.Error(1)
}

// CandidatesByCookingMethod mocks the cooking method candidate query
func (m *MockGraphStore) CandidatesByCookingMethod(ctx context.Context, method string) ([]dietary.FoodCandidate, error) {
	args := m.Called(ctx, method)
	return candidatesArg(args, 0), args.Error(1)
}

// PopularCandidates mocks the popular dish query
func (m *MockGraphStore) PopularCandidates(ctx context.Context, excludeIDs []string) ([]dietary.FoodCandidate, error) {
	args := m.Called(ctx, excludeIDs)
	return candidatesArg(args, 0), args.Error(1)
}

// CookingMethodsByDisease mocks the disease method lookup
func (m *MockGraphStore) CookingMethodsByDisease(ctx context.Context, disease string) ([]string, error) {
	args := m.Called(ctx, disease)
	return stringsArg(args, 0), args.Error(1)
}

// CookingMethodsByBMICategory mocks the BMI method lookup
func (m *MockGraphStore) CookingMethodsByBMICategory(ctx context.Context, category string) ([]string, error) {
	args := m.Called(ctx, category)
	return stringsArg(args, 0), args.Error(1)
}

// DietRecommendationsByDisease mocks the diet lookup
func (m *MockGraphStore) DietRecommendationsByDisease(ctx context.Context, disease string) ([]string, error) {
	args := m.Called(ctx, disease)
	return stringsArg(args, 0), args.Error(1)
}

// ContextAndCookingMethods mocks the context lookup
func (m *MockGraphStore) ContextAndCookingMethods(ctx context.Context, weather, timeOfDay string) (*outbound.CookingContext, error) {
	args := m.Called(ctx, weather, timeOfDay)
	if v := args.Get(0); v != nil {
		return v.(*outbound.CookingContext), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDocumentStore provides a mock implementation of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

// UserHealthProfile mocks the profile lookup
func (m *MockDocumentStore) UserHealthProfile(ctx context.Context, userID string) (*dietary.UserProfile, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(*dietary.UserProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

// DishIngredients mocks the ingredient lookup
func (m *MockDocumentStore) DishIngredients(ctx context.Context, dishID string) ([]string, error) {
	args := m.Called(ctx, dishID)
	return stringsArg(args, 0), args.Error(1)
}

// AllIngredients mocks the ingredient vocabulary
func (m *MockDocumentStore) AllIngredients(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}

// CookingMethodsByIngredients mocks the ingredient method lookup
func (m *MockDocumentStore) CookingMethodsByIngredients(ctx context.Context, ingredients []string) ([]string, error) {
	args := m.Called(ctx, ingredients)
	return stringsArg(args, 0), args.Error(1)
}

// PersistBMIResult mocks the BMI write
func (m *MockDocumentStore) PersistBMIResult(ctx context.Context, userID string, result dietary.BMIResult) error {
	args := m.Called(ctx, userID, result)
	return args.Error(0)
}

// MockTextGenerationClient provides a mock implementation of TextGenerationClient
type MockTextGenerationClient struct {
	mock.Mock
}

// ClassifyTopic mocks topic classification
func (m *MockTextGenerationClient) ClassifyTopic(ctx context.Context, question string) (dietary.TopicClassification, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(dietary.TopicClassification), args.Error(1)
}

// ClassifyAllergy mocks allergy classification
func (m *MockTextGenerationClient) ClassifyAllergy(ctx context.Context, req outbound.AllergyClassificationRequest) (*outbound.AllergyClassification, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*outbound.AllergyClassification), args.Error(1)
	}
	return nil, args.Error(1)
}

// Rerank mocks reranking
func (m *MockTextGenerationClient) Rerank(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// ComposeNaturalResponse mocks response generation
func (m *MockTextGenerationClient) ComposeNaturalResponse(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockSessionStore provides a mock implementation of SessionStore
type MockSessionStore struct {
	mock.Mock
}

// Create mocks session creation
func (m *MockSessionStore) Create(ctx context.Context, state dietary.WorkflowState) (string, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

// Load mocks session loading
func (m *MockSessionStore) Load(ctx context.Context, sessionID string) (dietary.WorkflowState, error) {
	args := m.Called(ctx, sessionID)
	if v := args.Get(0); v != nil {
		return v.(dietary.WorkflowState), args.Error(1)
	}
	return dietary.WorkflowState{}, args.Error(1)
}

// Save mocks session saving
func (m *MockSessionStore) Save(ctx context.Context, sessionID string, state dietary.WorkflowState) error {
	args := m.Called(ctx, sessionID, state)
	return args.Error(0)
}

func candidatesArg(args mock.Arguments, i int) []dietary.FoodCandidate {
	if v := args.Get(i); v != nil {
		return v.([]dietary.FoodCandidate)
	}
	return nil
}

func stringsArg(args mock.Arguments, i int) []string {
	if v := args.Get(i); v != nil {
		return v.([]string)
	}
	return nil
}
