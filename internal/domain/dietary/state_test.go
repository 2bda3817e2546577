package dietary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// WorkflowStateTestSuite covers state copying and derivation
type WorkflowStateTestSuite struct {
	suite.Suite
	state WorkflowState
}

// SetupTest builds a populated state before each test
func (suite *WorkflowStateTestSuite) SetupTest() {
	suite.state = NewWorkflowState("user-1", "what should I eat tonight?")
	suite.state.Profile = &UserProfile{
		UserID:    "user-1",
		Age:       42,
		WeightKg:  80,
		HeightCm:  170,
		Diseases:  []string{"none", "diabetes"},
		Allergies: []string{"shrimp", "Shrimp", "peanut"},
	}
	suite.state.BMI = &BMIResult{Value: 27.68, Category: BMIOverweight}
	suite.state.SelectedCookingMethods = NewCookingSelection([]string{"steam", "boil"})
	suite.state.SelectedIngredients = []string{"tofu"}
	suite.state.CandidateSources = map[string]CandidateSource{
		SourceKey(SourceBMI, BMIOverweight): {
			Kind:       SourceBMI,
			Criterion:  BMIOverweight,
			Candidates: []FoodCandidate{{DishID: "d1", DishName: "Steamed Fish", Ingredients: []string{"fish"}}},
		},
	}
	suite.state.Exclusions = ExclusionSet{IDs: []string{"d0"}, Names: []string{"pho"}}
}

func (suite *WorkflowStateTestSuite) TestClone_IsDeep() {
	clone := suite.state.Clone()

	clone.Profile.Allergies[0] = "milk"
	clone.SelectedCookingMethods.Methods[0] = "grill"
	clone.CandidateSources[SourceKey(SourceBMI, BMIOverweight)].Candidates[0].Ingredients[0] = "beef"
	clone.Exclusions.IDs[0] = "changed"
	clone.BMI.Value = 1

	assert.Equal(suite.T(), "shrimp", suite.state.Profile.Allergies[0])
	assert.Equal(suite.T(), "steam", suite.state.SelectedCookingMethods.Methods[0])
	assert.Equal(suite.T(), "fish", suite.state.CandidateSources[SourceKey(SourceBMI, BMIOverweight)].Candidates[0].Ingredients[0])
	assert.Equal(suite.T(), "d0", suite.state.Exclusions.IDs[0])
	assert.Equal(suite.T(), 27.68, suite.state.BMI.Value)
}

func (suite *WorkflowStateTestSuite) TestCriteria_DropsSentinelsAndDuplicates() {
	criteria := suite.state.Criteria()

	assert.Equal(suite.T(), []string{"diabetes"}, criteria.Diseases)
	assert.Equal(suite.T(), BMIOverweight, criteria.BMICategory)
	assert.Equal(suite.T(), []string{"steam", "boil"}, criteria.CookingMethods)
	assert.Equal(suite.T(), []string{"tofu"}, criteria.Ingredients)
	assert.Equal(suite.T(), []string{"shrimp", "peanut"}, criteria.Allergies)
}

func (suite *WorkflowStateTestSuite) TestCriteria_UnfilteredDisablesCookingFamily() {
	suite.state.SelectedCookingMethods = NewCookingSelection([]string{"steam", "Unfiltered"})

	criteria := suite.state.Criteria()

	assert.False(suite.T(), criteria.HasCookingMethods())
	assert.True(suite.T(), suite.state.SelectedCookingMethods.Present())
}

func (suite *WorkflowStateTestSuite) TestWithError_LeavesOriginalUntouched() {
	failed := suite.state.WithError("UNKNOWN", "boom", StepRerank)

	require.NotNil(suite.T(), failed.Error)
	assert.Nil(suite.T(), suite.state.Error)
	assert.True(suite.T(), failed.Signals().HasError)
	assert.Equal(suite.T(), StepRerank, failed.Error.Step)
}

func (suite *WorkflowStateTestSuite) TestForNextTurn_KeepsExclusionsAndSelections() {
	text := "hello"
	suite.state.NaturalText = &text
	suite.state.RankedCandidates = []FoodCandidate{{DishID: "d1"}}

	next := suite.state.ForNextTurn()

	assert.Equal(suite.T(), suite.state.Exclusions, next.Exclusions)
	assert.Equal(suite.T(), suite.state.SelectedCookingMethods, next.SelectedCookingMethods)
	assert.Nil(suite.T(), next.NaturalText)
	assert.Nil(suite.T(), next.RankedCandidates)
	assert.Nil(suite.T(), next.CandidateSources)
	assert.Equal(suite.T(), StepStart, next.CurrentStep)
}

func TestWorkflowStateTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowStateTestSuite))
}

func TestExclusionSet(t *testing.T) {
	t.Run("UnionNeverShrinks", func(t *testing.T) {
		base := ExclusionSet{IDs: []string{"a", "b"}, Names: []string{"pho bo"}}
		grown := base.Union(ExclusionSet{IDs: []string{"b", "c"}, Names: []string{"Pho  Bo", "Bun Cha"}})

		assert.True(t, base.SubsetOf(grown))
		assert.Equal(t, []string{"a", "b", "c"}, grown.IDs)
		assert.Equal(t, []string{"pho bo", "bun cha"}, grown.Names)
		assert.Equal(t, 2, base.Len())
	})

	t.Run("ExcludesByIDOrName", func(t *testing.T) {
		set := ExclusionFrom([]FoodCandidate{{DishID: "x1", DishName: "Grilled Chicken"}})

		assert.True(t, set.Excludes(FoodCandidate{DishID: "x1", DishName: "Other"}))
		assert.True(t, set.Excludes(FoodCandidate{DishID: "other-scheme-7", DishName: "grilled chicken"}))
		assert.False(t, set.Excludes(FoodCandidate{DishID: "x2", DishName: "Steamed Rice"}))
	})

	t.Run("EmptyValuesIgnored", func(t *testing.T) {
		set := ExclusionSet{}.Union(ExclusionSet{IDs: []string{""}, Names: []string{"  "}})
		assert.Zero(t, set.Len())
		assert.False(t, set.ContainsID(""))
	})
}
