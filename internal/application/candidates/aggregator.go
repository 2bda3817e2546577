// Package candidates pulls dish candidates per criterion and merges them by
// prioritized set intersection, falling back to popular dishes.
package candidates

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config contains aggregator settings
type Config struct {
	// Concurrency limits parallel per-criterion queries
	Concurrency int
	// Timeout bounds every collaborator call
	Timeout time.Duration
}

// Aggregator collects and merges candidate sources
type Aggregator struct {
	graph  outbound.GraphStore
	config Config
	logger *zap.Logger
}

// NewAggregator creates a new candidate aggregator
func NewAggregator(graph outbound.GraphStore, config Config, logger *zap.Logger) *Aggregator {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &Aggregator{
		graph:  graph,
		config: config,
		logger: logger.Named("candidate-aggregator"),
	}
}

type query struct {
	kind      dietary.SourceKind
	criterion string
	run       func(ctx context.Context, criterion string) ([]dietary.FoodCandidate, error)
}

// Collect pulls one candidate list per active disease, cooking method and
// BMI category. Queries run concurrently and are all joined before return;
// the first failure cancels the rest.
func (a *Aggregator) Collect(ctx context.Context, criteria dietary.CriteriaSet) (map[string]dietary.CandidateSource, error) {
	var queries []query
	for _, disease := range criteria.Diseases {
		queries = append(queries, query{dietary.SourceDisease, disease, a.graph.CandidatesByDisease})
	}
	for _, method := range criteria.CookingMethods {
		queries = append(queries, query{dietary.SourceCookingMethod, method, a.graph.CandidatesByCookingMethod})
	}
	if criteria.HasBMI() {
		queries = append(queries, query{dietary.SourceBMI, criteria.BMICategory, a.graph.CandidatesByBMICategory})
	}

	sources := make(map[string]dietary.CandidateSource, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)

	for _, q := range queries {
		q := q
		g.Go(func() error {
			callCtx, cancel := a.bounded(gctx)
			defer cancel()

			found, err := q.run(callCtx, q.criterion)
			if err != nil {
				return fmt.Errorf("candidates by %s %q: %w", q.kind, q.criterion, err)
			}

			tagged := make([]dietary.FoodCandidate, 0, len(found))
			for _, c := range found {
				tagged = append(tagged, c.WithSource(q.kind))
			}

			mu.Lock()
			sources[dietary.SourceKey(q.kind, q.criterion)] = dietary.CandidateSource{
				Kind:       q.kind,
				Criterion:  q.criterion,
				Candidates: tagged,
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Debug("Collected candidate sources",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", countCandidates(sources)),
	)
	return sources, nil
}

// FilterByIngredients keeps only candidates containing at least one of the
// chosen ingredients. When that would empty every source the filter is not
// applied and the sources are returned unchanged with applied=false.
func (a *Aggregator) FilterByIngredients(ctx context.Context, sources map[string]dietary.CandidateSource, ingredients []string, index *IngredientIndex) (map[string]dietary.CandidateSource, bool, error) {
	wanted := dietary.OrderedSet(ingredients)
	if len(wanted) == 0 {
		return sources, false, nil
	}

	filtered := make(map[string]dietary.CandidateSource, len(sources))
	kept := 0
	for key, src := range sources {
		var matching []dietary.FoodCandidate
		for _, c := range src.Candidates {
			have, err := index.Ingredients(ctx, c)
			if err != nil {
				return nil, false, err
			}
			if containsAny(have, wanted) {
				matching = append(matching, c)
			}
		}
		kept += len(matching)
		src.Candidates = matching
		filtered[key] = src
	}

	if kept == 0 {
		a.logger.Info("Ingredient filter would remove every candidate, not applied",
			zap.Strings("ingredients", wanted),
		)
		return sources, false, nil
	}
	return filtered, true, nil
}

func (a *Aggregator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.Timeout)
}

// Union returns the candidates of all sources deduplicated by id, scanning
// bmi, cooking method and disease sources in that order.
func Union(sources map[string]dietary.CandidateSource) []dietary.FoodCandidate {
	var out []dietary.FoodCandidate
	seen := make(map[string]struct{})
	for _, src := range orderedSources(sources) {
		for _, c := range src.Candidates {
			if _, ok := seen[c.DishID]; ok {
				continue
			}
			seen[c.DishID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Retain returns the sources keeping only candidates whose id is in keep
func Retain(sources map[string]dietary.CandidateSource, keep []dietary.FoodCandidate) map[string]dietary.CandidateSource {
	ids := make(map[string]struct{}, len(keep))
	for _, c := range keep {
		ids[c.DishID] = struct{}{}
	}
	out := make(map[string]dietary.CandidateSource, len(sources))
	for key, src := range sources {
		var candidates []dietary.FoodCandidate
		for _, c := range src.Candidates {
			if _, ok := ids[c.DishID]; ok {
				candidates = append(candidates, c)
			}
		}
		src.Candidates = candidates
		out[key] = src
	}
	return out
}

var kindOrder = map[dietary.SourceKind]int{
	dietary.SourceBMI:           0,
	dietary.SourceCookingMethod: 1,
	dietary.SourceDisease:       2,
	dietary.SourcePopular:       3,
}

// orderedSources sorts sources by kind, then criterion
func orderedSources(sources map[string]dietary.CandidateSource) []dietary.CandidateSource {
	out := make([]dietary.CandidateSource, 0, len(sources))
	for _, src := range sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool {
		if kindOrder[out[i].Kind] != kindOrder[out[j].Kind] {
			return kindOrder[out[i].Kind] < kindOrder[out[j].Kind]
		}
		return out[i].Criterion < out[j].Criterion
	})
	return out
}

func countCandidates(sources map[string]dietary.CandidateSource) int {
	n := 0
	for _, src := range sources {
		n += len(src.Candidates)
	}
	return n
}

func containsAny(have, wanted []string) bool {
	for _, h := range have {
		hk := dietary.NormalizeName(h)
		for _, w := range wanted {
			if wk := dietary.NormalizeName(w); wk != "" && strings.Contains(hk, wk) {
				return true
			}
		}
	}
	return false
}
