package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"go.uber.org/zap"
)

// IngredientLookup resolves the full ingredient list of a candidate
type IngredientLookup interface {
	Ingredients(ctx context.Context, c dietary.FoodCandidate) ([]string, error)
}

// Result is the outcome of allergy filtering. Warnings are keyed by the id
// of the kept dish they name.
type Result struct {
	Safe     []dietary.FoodCandidate
	Warnings map[string][]string
	Dropped  []string
}

// Filter applies the allergy safety rule to candidate dishes
type Filter struct {
	classifier Classifier
	logger     *zap.Logger
}

// NewFilter creates a new allergy safety filter
func NewFilter(classifier Classifier, logger *zap.Logger) *Filter {
	return &Filter{
		classifier: classifier,
		logger:     logger.Named("allergy-filter"),
	}
}

// Filter drops every candidate with an allergen among its main ingredients
// and warns about candidates that only have one among their side
// ingredients. An allergen-matching ingredient the classifier placed in
// neither list is treated as main. Without allergies the candidates pass
// through untouched and no collaborator is called.
func (f *Filter) Filter(ctx context.Context, candidates []dietary.FoodCandidate, allergies []string, lookup IngredientLookup) (Result, error) {
	allergies = dietary.OrderedSet(allergies)
	if len(allergies) == 0 {
		return Result{Safe: candidates}, nil
	}

	var result Result
	for _, c := range candidates {
		ingredients, err := lookup.Ingredients(ctx, c)
		if err != nil {
			return Result{}, err
		}

		hits := allergenHits(ingredients, allergies)
		if len(hits) == 0 {
			result.Safe = append(result.Safe, c)
			continue
		}

		classification, err := f.classifier.Classify(ctx, c.DishName, ingredients, allergies)
		if err != nil {
			return Result{}, fmt.Errorf("classify %s: %w", c.DishName, err)
		}

		side := nameSet(classification.Side)
		main := nameSet(classification.Main)
		var warnings []string
		drop := false
		for _, hit := range hits {
			key := dietary.NormalizeName(hit.ingredient)
			_, isMain := main[key]
			_, isSide := side[key]
			if isMain || !isSide {
				drop = true
				break
			}
			warnings = append(warnings, fmt.Sprintf("%s contains %s as a side ingredient, which matches your %s allergy",
				c.DishName, hit.ingredient, hit.allergy))
		}

		if drop {
			f.logger.Info("Dropped dish with allergen in main ingredients",
				zap.String("dish_id", c.DishID),
				zap.String("dish", c.DishName),
			)
			result.Dropped = append(result.Dropped, c.DishID)
			continue
		}
		result.Safe = append(result.Safe, c)
		if len(warnings) > 0 {
			if result.Warnings == nil {
				result.Warnings = make(map[string][]string)
			}
			result.Warnings[c.DishID] = append(result.Warnings[c.DishID], warnings...)
		}
	}

	return result, nil
}

type hit struct {
	ingredient string
	allergy    string
}

// allergenHits pairs each ingredient with the first allergy it matches
func allergenHits(ingredients, allergies []string) []hit {
	var hits []hit
	for _, ingredient := range ingredients {
		for _, allergy := range allergies {
			if Matches(ingredient, allergy) {
				hits = append(hits, hit{ingredient: ingredient, allergy: allergy})
				break
			}
		}
	}
	return hits
}

// Matches reports whether an ingredient matches an allergy, comparing
// normalized names by substring in both directions. Very short ingredient
// names only match exactly.
func Matches(ingredient, allergy string) bool {
	i := dietary.NormalizeName(ingredient)
	a := dietary.NormalizeName(allergy)
	if i == "" || a == "" {
		return false
	}
	if strings.Contains(i, a) {
		return true
	}
	return len(i) >= 3 && strings.Contains(a, i)
}

func nameSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[dietary.NormalizeName(v)] = struct{}{}
	}
	return set
}
