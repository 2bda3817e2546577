package candidates

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"go.uber.org/zap"
)

// idSet is the set of dish ids a criterion family produced
type idSet map[string]struct{}

func (s idSet) intersect(other idSet) idSet {
	out := make(idSet)
	for id := range s {
		if _, ok := other[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

type tier struct {
	name     dietary.AggregationTier
	families []dietary.SourceKind
}

// ladder lists the tiers from most to least specific. A tier is tried only
// when all its families are non-empty; the first non-empty result wins.
var ladder = []tier{
	{dietary.TierAll, []dietary.SourceKind{dietary.SourceBMI, dietary.SourceCookingMethod, dietary.SourceDisease}},
	{dietary.TierBMICooking, []dietary.SourceKind{dietary.SourceBMI, dietary.SourceCookingMethod}},
	{dietary.TierBMIDisease, []dietary.SourceKind{dietary.SourceBMI, dietary.SourceDisease}},
	{dietary.TierCookingDisease, []dietary.SourceKind{dietary.SourceCookingMethod, dietary.SourceDisease}},
	{dietary.TierBMI, []dietary.SourceKind{dietary.SourceBMI}},
	{dietary.TierCooking, []dietary.SourceKind{dietary.SourceCookingMethod}},
	{dietary.TierDisease, []dietary.SourceKind{dietary.SourceDisease}},
}

// Selection is the merged candidate list and how it was obtained
type Selection struct {
	Candidates []dietary.FoodCandidate
	Outcome    dietary.AggregationOutcome
}

// Select merges the sources by the fallback ladder. Excluded dishes are
// removed before the families are built, so a family holding only already
// shown dishes counts as empty. When no tier yields anything the popular
// dishes minus the exclusions are returned; an empty popular list is reported
// as nothing new rather than an error.
func (a *Aggregator) Select(ctx context.Context, sources map[string]dietary.CandidateSource, exclusions dietary.ExclusionSet) (Selection, error) {
	families := familyIDs(sources, exclusions)

	for _, t := range ladder {
		ids, ok := tryTier(families, t)
		if !ok || len(ids) == 0 {
			continue
		}

		selected := materialize(sources, ids, exclusions)
		a.logger.Debug("Aggregation tier matched",
			zap.String("tier", string(t.name)),
			zap.Int("candidates", len(selected)),
		)
		return Selection{
			Candidates: selected,
			Outcome:    dietary.AggregationOutcome{Tier: t.name, Status: dietary.AggregationOK, Count: len(selected)},
		}, nil
	}

	callCtx, cancel := a.bounded(ctx)
	defer cancel()
	popular, err := a.graph.PopularCandidates(callCtx, exclusions.IDs)
	if err != nil {
		return Selection{}, fmt.Errorf("popular candidates: %w", err)
	}

	var selected []dietary.FoodCandidate
	seen := make(map[string]struct{})
	for _, c := range popular {
		if exclusions.Excludes(c) {
			continue
		}
		if _, dup := seen[c.DishID]; dup {
			continue
		}
		seen[c.DishID] = struct{}{}
		selected = append(selected, c.WithSource(dietary.SourcePopular))
	}

	if len(selected) == 0 {
		a.logger.Info("Nothing new to suggest", zap.Int("excluded", exclusions.Len()))
		return Selection{Outcome: dietary.AggregationOutcome{Tier: dietary.TierNone, Status: dietary.AggregationNothingNew}}, nil
	}

	a.logger.Info("Falling back to popular dishes", zap.Int("candidates", len(selected)))
	return Selection{
		Candidates: selected,
		Outcome:    dietary.AggregationOutcome{Tier: dietary.TierPopular, Status: dietary.AggregationOK, Count: len(selected)},
	}, nil
}

// familyIDs unions the non-excluded ids of each criterion family. Families
// with no ids are left out of the map and count as absent.
func familyIDs(sources map[string]dietary.CandidateSource, exclusions dietary.ExclusionSet) map[dietary.SourceKind]idSet {
	families := make(map[dietary.SourceKind]idSet)
	for _, src := range sources {
		for _, c := range src.Candidates {
			if exclusions.Excludes(c) {
				continue
			}
			set, ok := families[src.Kind]
			if !ok {
				set = make(idSet)
				families[src.Kind] = set
			}
			set[c.DishID] = struct{}{}
		}
	}
	return families
}

func tryTier(families map[dietary.SourceKind]idSet, t tier) (idSet, bool) {
	var result idSet
	for _, kind := range t.families {
		set, ok := families[kind]
		if !ok {
			return nil, false
		}
		if result == nil {
			result = set
			continue
		}
		result = result.intersect(set)
	}
	return result, true
}

// materialize scans the sources once in bmi, cooking, disease order and keeps
// the first record of every selected id
func materialize(sources map[string]dietary.CandidateSource, ids idSet, exclusions dietary.ExclusionSet) []dietary.FoodCandidate {
	var out []dietary.FoodCandidate
	for _, c := range Union(sources) {
		if _, ok := ids[c.DishID]; !ok {
			continue
		}
		if exclusions.Excludes(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
