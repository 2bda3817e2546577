package recommendation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alchemorsel/nutriguide/internal/application/candidates"
	"github.com/alchemorsel/nutriguide/internal/application/criteria"
	"github.com/alchemorsel/nutriguide/internal/application/ranking"
	"github.com/alchemorsel/nutriguide/internal/application/safety"
	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/nutriguide/internal/ports/inbound"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"github.com/alchemorsel/nutriguide/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

var (
	tofuSoup      = testutils.Dish("d1", "Tofu Soup", "tofu", "scallion")
	steamedFish   = testutils.Dish("d2", "Steamed Fish", "fish", "ginger")
	chickenCongee = testutils.Dish("d3", "Chicken Congee", "rice", "chicken")
	grilledBeef   = testutils.Dish("d4", "Grilled Beef", "beef", "lemongrass")
	springRolls   = testutils.Dish("d5", "Spring Rolls", "pork", "rice paper")
)

// rankAll names every test dish, so the reranker keeps whatever it is given
const rankAll = "1. Tofu Soup\n2. Steamed Fish\n3. Chicken Congee\n4. Grilled Beef\n5. Spring Rolls"

// recordingObserver collects workflow measurements
type recordingObserver struct {
	mu       sync.Mutex
	steps    []dietary.Step
	failed   []dietary.Step
	statuses []dietary.ResultStatus
	tiers    []dietary.AggregationTier
}

func (o *recordingObserver) StepCompleted(step dietary.Step, _ time.Duration, failed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
	if failed {
		o.failed = append(o.failed, step)
	}
}

func (o *recordingObserver) TurnCompleted(status dietary.ResultStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) AggregationSelected(tier dietary.AggregationTier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tiers = append(o.tiers, tier)
}

// ServiceTestSuite drives whole turns through the real application
// components with mocked collaborators
type ServiceTestSuite struct {
	suite.Suite
	graph      *testutils.MockGraphStore
	docs       *testutils.MockDocumentStore
	llm        *testutils.MockTextGenerationClient
	sessions   *memory.SessionStore
	observer   *recordingObserver
	service    *Service
	assertions *testutils.EnvelopeAssertions
	ctx        context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.graph = &testutils.MockGraphStore{}
	s.docs = &testutils.MockDocumentStore{}
	s.llm = &testutils.MockTextGenerationClient{}
	s.observer = &recordingObserver{}
	s.sessions = memory.NewSessionStore(time.Hour, 0, zaptest.NewLogger(s.T()))
	s.service = s.newService(s.sessions)
	s.assertions = testutils.NewEnvelopeAssertions(s.T())
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) TearDownTest() {
	s.sessions.Close()
}

func (s *ServiceTestSuite) newService(sessions outbound.SessionStore) *Service {
	logger := zaptest.NewLogger(s.T())
	resolver := criteria.NewResolver(s.graph, s.docs, criteria.Config{
		CookingMethods: []string{"steam", "grill", "deep-fry"},
		Timeout:        time.Second,
	}, logger)
	aggregator := candidates.NewAggregator(s.graph, candidates.Config{Timeout: time.Second}, logger)
	filter := safety.NewFilter(safety.KeywordClassifier{}, logger)
	reranker := ranking.NewReranker(s.llm, time.Second, logger)

	return NewService(sessions, s.docs, s.llm, resolver, aggregator, filter, reranker, s.observer,
		Config{CollaboratorTimeout: time.Second, MaxResults: 2}, logger).
		WithClock(func() time.Time { return time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC) })
}

// expectNewUser sets up identification, topic and BMI for a fresh turn
func (s *ServiceTestSuite) expectNewUser(profile *dietary.UserProfile) {
	s.docs.On("UserHealthProfile", mock.Anything, profile.UserID).Return(profile, nil).Once()
	s.llm.On("ClassifyTopic", mock.Anything, mock.Anything).Return(dietary.TopicRelevant, nil).Once()
	s.docs.On("PersistBMIResult", mock.Anything, profile.UserID, mock.Anything).Return(nil).Once()
}

func (s *ServiceTestSuite) TestFreshTurnAwaitsSelections() {
	// Arrange
	profile := testutils.NewProfileBuilder().WithUserID("u1").WithAllergies("shrimp").Build()
	s.expectNewUser(profile)
	s.graph.On("CookingMethodsByBMICategory", mock.Anything, dietary.BMINormal).Return([]string{"Steam", "grill"}, nil)
	s.docs.On("AllIngredients", mock.Anything).Return([]string{"tofu", "dried shrimp", "chicken"}, nil)

	// Act
	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{
		UserID:        "u1",
		Question:      "What should I eat tonight?",
		IgnoreContext: true,
	})

	// Assert
	s.assertions.Status(env, dietary.StatusAwaitingSelections)
	s.Require().NotNil(env.Options)
	s.Equal([]string{"steam", "grill"}, env.Options.CookingMethodOptions)
	s.Equal([]string{"tofu", "chicken"}, env.Options.IngredientOptions)
	s.Contains(env.Options.AnalysisTrail, "Context filter ignored on request")
	s.Empty(env.Foods)
	s.NotEmpty(env.SessionID)
	s.Require().NotNil(env.UserInfo)
	s.Equal(dietary.BMINormal, env.UserInfo.BMICategory)

	stored, err := s.sessions.Load(s.ctx, env.SessionID)
	s.Require().NoError(err)
	s.Equal(dietary.StepEndSuccess, stored.CurrentStep)
	s.NotNil(stored.Profile)
	s.graph.AssertNotCalled(s.T(), "CandidatesByBMICategory", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestConversationNeverRepeatsDishes() {
	// Arrange
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, dietary.BMINormal).
		Return([]dietary.FoodCandidate{tofuSoup, steamedFish, chickenCongee, grilledBeef}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, "steam").
		Return([]dietary.FoodCandidate{tofuSoup, steamedFish, chickenCongee}, nil)
	s.graph.On("PopularCandidates", mock.Anything, mock.Anything).
		Return([]dietary.FoodCandidate{grilledBeef, springRolls}, nil).Once()
	s.graph.On("PopularCandidates", mock.Anything, mock.Anything).
		Return([]dietary.FoodCandidate{springRolls}, nil).Once()
	s.llm.On("Rerank", mock.Anything, mock.Anything).Return(rankAll, nil)

	type turnExpectation struct {
		foods []string
		tier  dietary.AggregationTier
	}
	expectations := []turnExpectation{
		{[]string{"d1", "d2"}, dietary.TierBMICooking},
		{[]string{"d3"}, dietary.TierBMICooking},
		{[]string{"d4"}, dietary.TierBMI},
		{[]string{"d5"}, dietary.TierPopular},
		{[]string{}, dietary.TierNone},
	}

	cmd := inbound.TurnCommand{UserID: "u1", Question: "Something steamed please", CookingMethods: []string{"steam"}}
	var previous dietary.ExclusionSet
	seen := map[string]bool{}

	for i, want := range expectations {
		// Act
		env := s.service.HandleTurn(s.ctx, cmd)

		// Assert
		s.assertions.Status(env, dietary.StatusSuccess, "turn %d", i+1)
		s.assertions.FoodIDs(env, want.foods, "turn %d", i+1)
		s.assertions.NoneExcluded(env, previous, "turn %d", i+1)
		for _, id := range testutils.FoodIDs(env) {
			s.False(seen[id], "dish %s repeated on turn %d", id, i+1)
			seen[id] = true
		}

		stored, err := s.sessions.Load(s.ctx, env.SessionID)
		s.Require().NoError(err)
		s.True(previous.SubsetOf(stored.Exclusions), "exclusions shrank on turn %d", i+1)
		s.Require().NotNil(stored.Aggregation)
		s.Equal(want.tier, stored.Aggregation.Tier, "turn %d", i+1)
		s.True(stored.UpdatedAt.Equal(time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)), "turn %d stored at %s", i+1, stored.UpdatedAt)
		previous = stored.Exclusions

		cmd = inbound.TurnCommand{UserID: "u1", SessionID: env.SessionID, Question: "More please"}
	}

	s.Equal(5, previous.Len())
	s.docs.AssertNumberOfCalls(s.T(), "UserHealthProfile", 1)
	s.llm.AssertNumberOfCalls(s.T(), "ClassifyTopic", 1)
	s.Equal([]dietary.AggregationTier{
		dietary.TierBMICooking, dietary.TierBMICooking, dietary.TierBMI, dietary.TierPopular, dietary.TierNone,
	}, s.observer.tiers)
}

func (s *ServiceTestSuite) TestResumedTurnSkipsToCandidateQuery() {
	// Arrange
	saved := dietary.NewWorkflowState("u1", "dinner")
	saved.Profile = testutils.NewProfileBuilder().WithUserID("u1").Build()
	saved.BMI = &dietary.BMIResult{Value: 22.86, Category: dietary.BMINormal}
	saved.Exclusions = dietary.ExclusionFrom([]dietary.FoodCandidate{tofuSoup})
	id, err := s.sessions.Create(s.ctx, saved)
	s.Require().NoError(err)

	s.graph.On("CandidatesByBMICategory", mock.Anything, dietary.BMINormal).
		Return([]dietary.FoodCandidate{tofuSoup, grilledBeef}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, "grill").
		Return([]dietary.FoodCandidate{grilledBeef}, nil)
	s.llm.On("Rerank", mock.Anything, mock.Anything).Return(rankAll, nil)

	// Act
	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{
		UserID:         "u1",
		SessionID:      id,
		CookingMethods: []string{"grill"},
	})

	// Assert
	s.assertions.Status(env, dietary.StatusSuccess)
	s.assertions.FoodIDs(env, []string{"d4"})
	s.Equal(id, env.SessionID)
	s.NotContains(s.observer.steps, dietary.StepIdentifyUser)
	s.NotContains(s.observer.steps, dietary.StepClassifyTopic)
	s.docs.AssertNotCalled(s.T(), "UserHealthProfile", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestUnknownSessionStartsOver() {
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.expectNewUser(profile)
	s.graph.On("CookingMethodsByBMICategory", mock.Anything, mock.Anything).Return(nil, nil)
	s.docs.On("AllIngredients", mock.Anything).Return([]string{"tofu"}, nil)

	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{
		UserID:        "u1",
		SessionID:     "expired-session",
		Question:      "Lunch ideas?",
		IgnoreContext: true,
	})

	s.assertions.Status(env, dietary.StatusAwaitingSelections)
	s.NotEqual("expired-session", env.SessionID)
	s.NotEmpty(env.SessionID)
}

func (s *ServiceTestSuite) TestSessionOfAnotherUserIsNotResumed() {
	other := dietary.NewWorkflowState("someone-else", "dinner")
	other.Profile = testutils.NewProfileBuilder().WithUserID("someone-else").Build()
	other.SelectedCookingMethods = dietary.NewCookingSelection([]string{"steam"})
	id, err := s.sessions.Create(s.ctx, other)
	s.Require().NoError(err)

	s.docs.On("UserHealthProfile", mock.Anything, "u1").Return(nil, dietary.ErrProfileNotFound)

	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{UserID: "u1", SessionID: id, Question: "hi"})

	s.assertions.Failed(env, string(apperrors.CodeUserNotFound))
	s.Equal(dietary.StepIdentifyUser, env.Error.Step)
}

func (s *ServiceTestSuite) TestIrrelevantQuestionIsRejected() {
	profile := testutils.NewProfileBuilder().WithUserID("u1").WithDiseases("diabetes").Build()
	s.docs.On("UserHealthProfile", mock.Anything, "u1").Return(profile, nil)
	s.llm.On("ClassifyTopic", mock.Anything, "Who won the match yesterday?").Return(dietary.TopicIrrelevant, nil)

	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{UserID: "u1", Question: "Who won the match yesterday?"})

	s.assertions.Status(env, dietary.StatusRejected)
	s.Empty(env.Foods)
	s.NotEmpty(env.Message)
	s.Require().NotNil(env.UserInfo)
	s.Equal([]string{"diabetes"}, env.UserInfo.Diseases)
	s.Zero(s.sessions.Len(), "rejected turns are not persisted")
}

func (s *ServiceTestSuite) TestTopicFailureCountsAsRelevant() {
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.docs.On("UserHealthProfile", mock.Anything, "u1").Return(profile, nil)
	s.llm.On("ClassifyTopic", mock.Anything, mock.Anything).Return(dietary.TopicUnknown, errors.New("model offline"))
	s.docs.On("PersistBMIResult", mock.Anything, "u1", mock.Anything).Return(errors.New("read only"))
	s.graph.On("CookingMethodsByBMICategory", mock.Anything, mock.Anything).Return([]string{"steam"}, nil)
	s.docs.On("AllIngredients", mock.Anything).Return(nil, nil)

	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{UserID: "u1", Question: "Dinner?", IgnoreContext: true})

	s.assertions.Status(env, dietary.StatusAwaitingSelections)
}

func (s *ServiceTestSuite) TestAllergensAreDroppedOrWarned() {
	// Arrange
	shrimpRice := testutils.Dish("a1", "Shrimp Fried Rice", "shrimp", "rice")
	rolls := testutils.Dish("a2", "Fresh Rolls", "pork", "rice paper", "shrimp paste")
	profile := testutils.NewProfileBuilder().WithUserID("u1").WithAllergies("shrimp").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, dietary.BMINormal).
		Return([]dietary.FoodCandidate{shrimpRice, rolls, tofuSoup}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, "steam").
		Return([]dietary.FoodCandidate{shrimpRice, rolls, tofuSoup}, nil)
	s.docs.On("DishIngredients", mock.Anything, mock.Anything).Return(nil, nil)
	s.llm.On("Rerank", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return !strings.Contains(prompt, "Shrimp Fried Rice")
	})).Return("Fresh Rolls\nTofu Soup", nil)

	// Act
	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{
		UserID:         "u1",
		Question:       "Something steamed",
		CookingMethods: []string{"steam"},
	})

	// Assert
	s.assertions.Status(env, dietary.StatusSuccess)
	s.assertions.FoodIDs(env, []string{"a2", "d1"})
	s.Require().Len(env.Warnings, 1)
	s.Contains(env.Warnings[0], "Fresh Rolls")
	s.True(strings.HasPrefix(env.Message, env.Warnings[0]+" | "), "warnings lead the message: %q", env.Message)
	s.NotContains(env.Message, "Shrimp Fried Rice")
}

func (s *ServiceTestSuite) TestWarningsOnlyNameShownDishes() {
	// Arrange
	rolls := testutils.Dish("a2", "Fresh Rolls", "pork", "rice paper", "shrimp paste")
	profile := testutils.NewProfileBuilder().WithUserID("u1").WithAllergies("shrimp").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, dietary.BMINormal).
		Return([]dietary.FoodCandidate{rolls, tofuSoup}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, "steam").
		Return([]dietary.FoodCandidate{rolls, tofuSoup}, nil)
	s.docs.On("DishIngredients", mock.Anything, mock.Anything).Return(nil, nil)
	s.llm.On("Rerank", mock.Anything, mock.Anything).Return("Tofu Soup", nil)

	// Act
	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{
		UserID:         "u1",
		Question:       "Something steamed",
		CookingMethods: []string{"steam"},
	})

	// Assert
	s.assertions.Status(env, dietary.StatusSuccess)
	s.assertions.FoodIDs(env, []string{"d1"})
	s.Empty(env.Warnings)
	s.NotContains(env.Message, "Fresh Rolls")
	s.Equal("Here is a dish that suits you: Tofu Soup.", env.Message)
}

func (s *ServiceTestSuite) TestRerankFailureEndsWithError() {
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, mock.Anything).Return([]dietary.FoodCandidate{tofuSoup}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, mock.Anything).Return([]dietary.FoodCandidate{tofuSoup}, nil)
	s.llm.On("Rerank", mock.Anything, mock.Anything).Return("", context.DeadlineExceeded)

	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{UserID: "u1", Question: "Dinner?", CookingMethods: []string{"steam"}})

	s.assertions.Failed(env, string(apperrors.CodeRerankFailure))
	s.Equal(dietary.StepRerank, env.Error.Step)
	s.Equal(env.Error.Message, env.Message)
	s.Zero(s.sessions.Len(), "failed turns are not persisted")
	s.Contains(s.observer.failed, dietary.StepRerank)
	s.Equal([]dietary.ResultStatus{dietary.StatusError}, s.observer.statuses)
}

func (s *ServiceTestSuite) TestUpstreamFailureEndsWithError() {
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, mock.Anything).Return(nil, errors.New("graph unavailable"))
	s.graph.On("CandidatesByCookingMethod", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{UserID: "u1", Question: "Dinner?", CookingMethods: []string{"steam"}})

	s.assertions.Failed(env, string(apperrors.CodeUpstreamQueryFailure))
	s.Equal(dietary.StepQueryCandidates, env.Error.Step)
	s.Contains(env.Message, "graph unavailable")
}

func (s *ServiceTestSuite) TestDatabaseFailureIsUpstreamFailure() {
	// Arrange
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, mock.Anything).Return([]dietary.FoodCandidate{tofuSoup}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, mock.Anything).Return([]dietary.FoodCandidate{tofuSoup}, nil)
	s.docs.On("DishIngredients", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewDatabaseError("query dish ingredients", errors.New("disk I/O error")))

	// Act
	env := s.service.HandleTurn(s.ctx, inbound.TurnCommand{
		UserID:         "u1",
		Question:       "Dinner?",
		CookingMethods: []string{"steam"},
		Ingredients:    []string{"tofu"},
	})

	// Assert
	s.assertions.Failed(env, string(apperrors.CodeUpstreamQueryFailure))
	s.Equal(dietary.StepFilterByIngredients, env.Error.Step)
}

func (s *ServiceTestSuite) TestInvalidInput() {
	tests := []struct {
		name string
		cmd  inbound.TurnCommand
	}{
		{"missing user", inbound.TurnCommand{Question: "Dinner?"}},
		{"blank user", inbound.TurnCommand{UserID: "  ", Question: "Dinner?"}},
		{"missing question without session", inbound.TurnCommand{UserID: "u1"}},
		{"blank question without session", inbound.TurnCommand{UserID: "u1", Question: "   "}},
		{"question too long", inbound.TurnCommand{UserID: "u1", Question: strings.Repeat("a", 2001)}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			env := s.service.HandleTurn(s.ctx, tt.cmd)

			s.assertions.Failed(env, string(apperrors.CodeInvalidInput))
		})
	}
	s.docs.AssertNotCalled(s.T(), "UserHealthProfile", mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) TestPersistenceFailureStillReturnsEnvelope() {
	// Arrange
	sessions := &testutils.MockSessionStore{}
	sessions.On("Create", mock.Anything, mock.Anything).Return("", errors.New("store down"))
	service := s.newService(sessions)
	profile := testutils.NewProfileBuilder().WithUserID("u1").Build()
	s.expectNewUser(profile)
	s.graph.On("CandidatesByBMICategory", mock.Anything, mock.Anything).Return([]dietary.FoodCandidate{tofuSoup}, nil)
	s.graph.On("CandidatesByCookingMethod", mock.Anything, mock.Anything).Return([]dietary.FoodCandidate{tofuSoup}, nil)
	s.llm.On("Rerank", mock.Anything, mock.Anything).Return("Tofu Soup", nil)

	// Act
	env := service.HandleTurn(s.ctx, inbound.TurnCommand{UserID: "u1", Question: "Dinner?", CookingMethods: []string{"steam"}})

	// Assert
	s.assertions.Status(env, dietary.StatusSuccess)
	s.assertions.FoodIDs(env, []string{"d1"})
	s.Empty(env.SessionID)
	sessions.AssertExpectations(s.T())
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestSessionLocks_SerializeSameSession(t *testing.T) {
	// Arrange
	locks := newSessionLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	// Act
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Lock("s1")
			defer release()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.size(), "released locks are removed")
}

func TestSessionLocks_IndependentSessions(t *testing.T) {
	locks := newSessionLocks()
	releaseA := locks.Lock("a")

	done := make(chan struct{})
	go func() {
		release := locks.Lock("b")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a held lock blocked another session")
	}
	require.Equal(t, 1, locks.size())
	releaseA()
	assert.Zero(t, locks.size())
}

func TestApplyTurnInput(t *testing.T) {
	state := dietary.NewWorkflowState("u1", "first question")
	state.SelectedIngredients = []string{"tofu"}
	state.Weather = "rainy"

	next := applyTurnInput(state, inbound.TurnCommand{
		CookingMethods: []string{"Unfiltered"},
		TimeOfDay:      "evening",
	})

	assert.Equal(t, "first question", next.RawQuestion)
	assert.Equal(t, []string{"tofu"}, next.SelectedIngredients)
	assert.True(t, next.SelectedCookingMethods.Unfiltered)
	assert.Equal(t, "rainy", next.Weather)
	assert.Equal(t, "evening", next.TimeOfDay)
	assert.False(t, state.SelectedCookingMethods.Present(), "input state is untouched")
}
