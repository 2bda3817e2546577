package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/application/candidates"
	"github.com/alchemorsel/nutriguide/internal/application/ranking"
	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"go.uber.org/zap"
)

const awaitingMessage = "Pick the ingredients and cooking methods you would like, then send them back in this session."

// checkSession resumes the caller's session. A missing or expired session,
// or one owned by another user, starts a fresh conversation.
func (s *Service) checkSession(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState {
	if t.cmd.SessionID == "" {
		return state.Clone()
	}

	callCtx, cancel := s.bounded(ctx)
	defer cancel()

	loaded, err := s.sessions.Load(callCtx, t.cmd.SessionID)
	switch {
	case errors.Is(err, dietary.ErrSessionNotFound):
		s.logger.Info("Session not found, starting a new one", zap.String("session_id", t.cmd.SessionID))
		return state.Clone()
	case err != nil:
		return s.fail(state, apperrors.NewUpstreamQueryError("load session", err), dietary.StepCheckSession)
	}

	if loaded.UserID != t.cmd.UserID {
		s.logger.Warn("Session belongs to another user, starting a new one",
			zap.String("session_id", t.cmd.SessionID),
			zap.String("user_id", t.cmd.UserID),
		)
		return state.Clone()
	}

	next := applyTurnInput(loaded.ForNextTurn(), t.cmd)
	next.SessionID = t.cmd.SessionID
	// a session without a profile has to go through identification again
	next.Resumed = next.Profile != nil
	return next
}

func (s *Service) identifyUser(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	callCtx, cancel := s.bounded(ctx)
	defer cancel()

	profile, err := s.docs.UserHealthProfile(callCtx, state.UserID)
	if errors.Is(err, dietary.ErrProfileNotFound) || (err == nil && profile == nil) {
		return s.fail(state, apperrors.NewUserNotFoundError(state.UserID), dietary.StepIdentifyUser)
	}
	if err != nil {
		return s.fail(state, apperrors.NewUpstreamQueryError("load user health profile", err), dietary.StepIdentifyUser)
	}

	next := state.Clone()
	p := *profile
	p.UserID = state.UserID
	p.Diseases = append([]string(nil), profile.Diseases...)
	p.Allergies = append([]string(nil), profile.Allergies...)
	next.Profile = &p
	return next
}

// classifyTopic labels the question. An empty question or a failed or
// undecided classification counts as relevant.
func (s *Service) classifyTopic(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	next := state.Clone()
	if strings.TrimSpace(state.RawQuestion) == "" {
		next.Topic = dietary.TopicRelevant
		return next
	}

	callCtx, cancel := s.bounded(ctx)
	defer cancel()

	topic, err := s.llm.ClassifyTopic(callCtx, state.RawQuestion)
	switch {
	case err != nil:
		s.logger.Warn("Topic classification failed, treating as relevant", zap.Error(err))
		topic = dietary.TopicRelevant
	case topic != dietary.TopicRelevant && topic != dietary.TopicIrrelevant:
		s.logger.Warn("Topic classification undecided, treating as relevant", zap.String("topic", string(topic)))
		topic = dietary.TopicRelevant
	}
	next.Topic = topic
	return next
}

func (s *Service) calculateBMI(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	next := state.Clone()
	if state.Profile == nil {
		return next
	}
	next.BMI = s.resolver.ResolveBMI(ctx, *state.Profile)
	return next
}

func (s *Service) generateSelectionPrompts(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	prompts, err := s.resolver.BuildSelectionPrompts(ctx, state)
	if err != nil {
		return s.fail(state, upstream("build selection prompts", err), dietary.StepGenerateSelectionPrompts)
	}

	next := state.Clone()
	next.Trail = append(next.Trail, prompts.AnalysisTrail...)
	next.FinalResult = &dietary.ResultEnvelope{
		Status:   dietary.StatusAwaitingSelections,
		Message:  awaitingMessage,
		Foods:    []dietary.FoodView{},
		UserInfo: dietary.SummarizeUser(state),
		Options:  &prompts,
	}
	return next
}

// processCookingRequest warns about chosen methods unsuitable for the
// user's diseases. Warnings never block the turn.
func (s *Service) processCookingRequest(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	next := state.Clone()
	criteria := state.Criteria()
	if !criteria.HasDiseases() || !criteria.HasCookingMethods() {
		return next
	}

	warnings, err := s.resolver.CookingWarnings(ctx, criteria.Diseases, criteria.CookingMethods)
	if err != nil {
		s.logger.Warn("Could not check cooking method suitability", zap.Error(err))
	}
	next.CookingWarnings = warnings
	return next
}

func (s *Service) queryCandidates(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState {
	sources, err := s.aggregator.Collect(ctx, state.Criteria())
	if err != nil {
		return s.fail(state, upstream("query candidates", err), dietary.StepQueryCandidates)
	}

	t.index = candidates.NewIngredientIndex(s.docs, state.DishIngredients, s.config.CollaboratorTimeout)
	next := state.Clone()
	next.CandidateSources = sources
	return next
}

func (s *Service) filterByIngredients(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState {
	index := s.ingredientIndex(t, state)
	filtered, applied, err := s.aggregator.FilterByIngredients(ctx, state.CandidateSources, state.SelectedIngredients, index)
	if err != nil {
		return s.fail(state, upstream("resolve dish ingredients", err), dietary.StepFilterByIngredients)
	}

	next := state.Clone()
	if !applied && len(state.SelectedIngredients) > 0 {
		next.Trail = append(next.Trail, fmt.Sprintf("Ingredient filter not applied: no candidate contains %s",
			strings.Join(state.SelectedIngredients, ", ")))
	}
	next.CandidateSources = filtered
	next.DishIngredients = index.Snapshot()
	return next
}

// filterAllergies screens every collected candidate once and prunes the
// sources to the safe ones
func (s *Service) filterAllergies(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState {
	index := s.ingredientIndex(t, state)
	result, err := s.filter.Filter(ctx, candidates.Union(state.CandidateSources), state.Criteria().Allergies, index)
	if err != nil {
		return s.fail(state, upstream("screen candidates for allergens", err), dietary.StepFilterAllergies)
	}

	if len(result.Dropped) > 0 {
		s.logger.Info("Dropped unsafe dishes", zap.Strings("dish_ids", result.Dropped))
	}

	next := state.Clone()
	next.CandidateSources = candidates.Retain(state.CandidateSources, result.Safe)
	next.SafeCandidates = result.Safe
	next.AllergyWarnings = result.Warnings
	next.DishIngredients = index.Snapshot()
	return next
}

// aggregateCandidates applies the fallback ladder. Popular dishes did not go
// through the allergy screen yet and are filtered here.
func (s *Service) aggregateCandidates(ctx context.Context, t *turn, state dietary.WorkflowState) dietary.WorkflowState {
	selection, err := s.aggregator.Select(ctx, state.CandidateSources, state.Exclusions)
	if err != nil {
		return s.fail(state, upstream("query popular dishes", err), dietary.StepAggregateCandidates)
	}

	next := state.Clone()
	if selection.Outcome.Tier == dietary.TierPopular {
		index := s.ingredientIndex(t, state)
		result, err := s.filter.Filter(ctx, selection.Candidates, state.Criteria().Allergies, index)
		if err != nil {
			return s.fail(state, upstream("screen popular dishes for allergens", err), dietary.StepAggregateCandidates)
		}
		selection.Candidates = result.Safe
		selection.Outcome.Count = len(result.Safe)
		if len(result.Safe) == 0 {
			selection.Outcome = dietary.AggregationOutcome{Tier: dietary.TierNone, Status: dietary.AggregationNothingNew}
		}
		for id, warnings := range result.Warnings {
			if next.AllergyWarnings == nil {
				next.AllergyWarnings = make(map[string][]string)
			}
			next.AllergyWarnings[id] = dietary.OrderedSet(append(next.AllergyWarnings[id], warnings...))
		}
		next.DishIngredients = index.Snapshot()
	}

	s.observer.AggregationSelected(selection.Outcome.Tier)
	next.SafeCandidates = selection.Candidates
	next.Aggregation = &selection.Outcome
	return next
}

func (s *Service) rerank(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	result, err := s.reranker.Rerank(ctx, ranking.Request{
		Question:   state.RawQuestion,
		Criteria:   state.Criteria(),
		Candidates: state.SafeCandidates,
		Exclusions: state.Exclusions,
		Limit:      s.config.MaxResults,
	})
	if err != nil {
		return s.fail(state, apperrors.NewRerankError(err), dietary.StepRerank)
	}

	next := state.Clone()
	next.RankedCandidates = result.Candidates
	next.Rerank = &dietary.RerankOutcome{Status: result.Status, Explanation: result.Explanation}
	return next
}

// composeResponse builds the success envelope and grows the exclusions by
// the dishes it returns
func (s *Service) composeResponse(ctx context.Context, _ *turn, state dietary.WorkflowState) dietary.WorkflowState {
	comp := s.composer.Select(state.RankedCandidates, state.Exclusions)
	next := state.Clone()

	if s.config.NaturalResponse && len(comp.Shown) > 0 {
		callCtx, cancel := s.bounded(ctx)
		text, err := s.llm.ComposeNaturalResponse(callCtx, NaturalPrompt(state, comp.Shown))
		cancel()
		if err != nil {
			s.logger.Warn("Natural response failed, using template", zap.Error(err))
		} else if strings.TrimSpace(text) != "" {
			next.NaturalText = &text
		}
	}

	next.Exclusions = state.Exclusions.Union(comp.Additions)
	next.FinalResult = &dietary.ResultEnvelope{
		Status:   dietary.StatusSuccess,
		Message:  s.composer.Message(next, comp.Shown),
		Foods:    comp.Foods,
		UserInfo: dietary.SummarizeUser(next),
		Warnings: Warnings(next, comp.Shown),
	}

	s.logger.Info("Composed recommendation",
		zap.String("user_id", state.UserID),
		zap.Int("foods", len(comp.Foods)),
		zap.Int("excluded", next.Exclusions.Len()),
	)
	return next
}

func (s *Service) ingredientIndex(t *turn, state dietary.WorkflowState) *candidates.IngredientIndex {
	if t.index == nil {
		t.index = candidates.NewIngredientIndex(s.docs, state.DishIngredients, s.config.CollaboratorTimeout)
	}
	return t.index
}
