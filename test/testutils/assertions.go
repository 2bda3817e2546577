package testutils

import (
	"testing"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// EnvelopeAssertions provides envelope-specific assertions
type EnvelopeAssertions struct {
	t *testing.T
}

// NewEnvelopeAssertions creates new envelope assertions
func NewEnvelopeAssertions(t *testing.T) *EnvelopeAssertions {
	return &EnvelopeAssertions{t: t}
}

// Status asserts the envelope status
func (ea *EnvelopeAssertions) Status(env *dietary.ResultEnvelope, expected dietary.ResultStatus, msgAndArgs ...interface{}) {
	require.NotNil(ea.t, env, msgAndArgs...)
	assert.Equal(ea.t, expected, env.Status, msgAndArgs...)
}

// Failed asserts an error envelope with the given code and no foods
func (ea *EnvelopeAssertions) Failed(env *dietary.ResultEnvelope, code string, msgAndArgs ...interface{}) {
	ea.Status(env, dietary.StatusError, msgAndArgs...)
	require.NotNil(ea.t, env.Error, msgAndArgs...)
	assert.Equal(ea.t, code, env.Error.Code, msgAndArgs...)
	assert.Empty(ea.t, env.Foods, msgAndArgs...)
	assert.NotEmpty(ea.t, env.Message, msgAndArgs...)
	assert.False(ea.t, env.Timestamp.IsZero(), msgAndArgs...)
}

// FoodIDs asserts the returned dish ids in order
func (ea *EnvelopeAssertions) FoodIDs(env *dietary.ResultEnvelope, expected []string, msgAndArgs ...interface{}) {
	require.NotNil(ea.t, env, msgAndArgs...)
	assert.Equal(ea.t, expected, FoodIDs(env), msgAndArgs...)
}

// NoneExcluded asserts that no returned dish collides with the exclusion set
func (ea *EnvelopeAssertions) NoneExcluded(env *dietary.ResultEnvelope, exclusions dietary.ExclusionSet, msgAndArgs ...interface{}) {
	require.NotNil(ea.t, env, msgAndArgs...)
	for _, food := range env.Foods {
		assert.False(ea.t, exclusions.ContainsID(food.DishID), "dish %s was already shown", food.DishID)
		assert.False(ea.t, exclusions.ContainsName(food.DishName), "dish %q was already shown", food.DishName)
	}
}

// FoodIDs lists the dish ids of an envelope
func FoodIDs(env *dietary.ResultEnvelope) []string {
	ids := make([]string, 0, len(env.Foods))
	for _, food := range env.Foods {
		ids = append(ids, food.DishID)
	}
	return ids
}

// CandidateIDs lists the dish ids of candidates
func CandidateIDs(candidates []dietary.FoodCandidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.DishID)
	}
	return ids
}
