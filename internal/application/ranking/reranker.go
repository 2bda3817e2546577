// Package ranking orders safe candidates by fitness to the user's request
// through a text generation collaborator and maps the answer back to
// candidate records.
package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"go.uber.org/zap"
)

// Request is the input of a rerank
type Request struct {
	Question   string
	Criteria   dietary.CriteriaSet
	Candidates []dietary.FoodCandidate
	Exclusions dietary.ExclusionSet
	// Limit caps the number of dishes the model is asked to return
	Limit int
}

// Result is the reranked list and how it was obtained
type Result struct {
	Status      dietary.RerankStatus
	Candidates  []dietary.FoodCandidate
	Explanation string
}

// Reranker delegates ordering to a language model
type Reranker struct {
	client  outbound.TextGenerationClient
	timeout time.Duration
	logger  *zap.Logger
}

// NewReranker creates a new reranker
func NewReranker(client outbound.TextGenerationClient, timeout time.Duration, logger *zap.Logger) *Reranker {
	return &Reranker{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("reranker"),
	}
}

// Rerank removes excluded dishes, asks the model to order the rest and
// parses the answer. A failed call yields RerankError with no candidates and
// the error; the original order is never used as a silent fallback.
func (r *Reranker) Rerank(ctx context.Context, req Request) (Result, error) {
	candidates := withoutExcluded(req.Candidates, req.Exclusions)
	if len(candidates) == 0 {
		return Result{Status: dietary.RerankNoCandidates}, nil
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	text, err := r.client.Rerank(callCtx, BuildPrompt(req.Question, req.Criteria, candidates, req.Limit))
	if err != nil {
		r.logger.Error("Rerank call failed", zap.Error(err))
		return Result{Status: dietary.RerankError}, fmt.Errorf("rerank: %w", err)
	}

	ranked := withoutExcluded(ParseRanked(text, candidates), req.Exclusions)
	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	if len(ranked) == 0 {
		if IsExplanation(text) {
			return Result{Status: dietary.RerankExplanation, Explanation: strings.TrimSpace(text)}, nil
		}
		r.logger.Info("Rerank answer matched no candidate", zap.Int("candidates", len(candidates)))
		return Result{Status: dietary.RerankSuccess}, nil
	}

	r.logger.Debug("Reranked candidates",
		zap.Int("in", len(candidates)),
		zap.Int("out", len(ranked)),
	)
	return Result{Status: dietary.RerankSuccess, Candidates: ranked}, nil
}

// BuildPrompt lists the candidate names and the constraints they must meet
func BuildPrompt(question string, criteria dietary.CriteriaSet, candidates []dietary.FoodCandidate, limit int) string {
	var b strings.Builder
	b.WriteString("You are a nutrition assistant choosing dishes for a user.\n")
	fmt.Fprintf(&b, "User request: %s\n", strings.TrimSpace(question))

	b.WriteString("Constraints:\n")
	if criteria.HasBMI() {
		fmt.Fprintf(&b, "- BMI category: %s\n", criteria.BMICategory)
	}
	if criteria.HasDiseases() {
		fmt.Fprintf(&b, "- Health conditions: %s\n", strings.Join(criteria.Diseases, ", "))
	}
	if criteria.HasCookingMethods() {
		fmt.Fprintf(&b, "- Preferred cooking methods: %s\n", strings.Join(criteria.CookingMethods, ", "))
	}
	if len(criteria.Ingredients) > 0 {
		fmt.Fprintf(&b, "- Preferred ingredients: %s\n", strings.Join(criteria.Ingredients, ", "))
	}
	if len(criteria.Allergies) > 0 {
		fmt.Fprintf(&b, "- Allergies: %s\n", strings.Join(criteria.Allergies, ", "))
	}

	b.WriteString("Candidate dishes:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c.DishName)
	}

	if limit > 0 {
		fmt.Fprintf(&b, "Return at most %d dish names from the list, best first, one per line, with no other text.\n", limit)
	} else {
		b.WriteString("Return the suitable dish names from the list, best first, one per line, with no other text.\n")
	}
	b.WriteString("If none of the dishes is suitable, explain why in one short paragraph.\n")
	return b.String()
}

func withoutExcluded(candidates []dietary.FoodCandidate, exclusions dietary.ExclusionSet) []dietary.FoodCandidate {
	out := make([]dietary.FoodCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !exclusions.ContainsID(c.DishID) {
			out = append(out, c)
		}
	}
	return out
}
