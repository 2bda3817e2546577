package candidates

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
)

// IngredientIndex resolves dish ingredients through the document store and
// caches them for the rest of the turn. It is not safe for concurrent use.
type IngredientIndex struct {
	docs    outbound.DocumentStore
	timeout time.Duration
	cache   map[string][]string
}

// NewIngredientIndex creates an index seeded with already known ingredients
func NewIngredientIndex(docs outbound.DocumentStore, known map[string][]string, timeout time.Duration) *IngredientIndex {
	cache := make(map[string][]string, len(known))
	for id, ingredients := range known {
		cache[id] = ingredients
	}
	return &IngredientIndex{docs: docs, timeout: timeout, cache: cache}
}

// Ingredients returns the full ingredient list of a dish. When the document
// store has no entry the partial list that came with the candidate is used.
func (i *IngredientIndex) Ingredients(ctx context.Context, c dietary.FoodCandidate) ([]string, error) {
	if cached, ok := i.cache[c.DishID]; ok {
		return cached, nil
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if i.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, i.timeout)
	}
	defer cancel()

	ingredients, err := i.docs.DishIngredients(callCtx, c.DishID)
	if err != nil {
		return nil, fmt.Errorf("ingredients of dish %s: %w", c.DishID, err)
	}
	if len(ingredients) == 0 {
		ingredients = c.Ingredients
	}

	i.cache[c.DishID] = ingredients
	return ingredients, nil
}

// Snapshot returns a copy of everything resolved so far
func (i *IngredientIndex) Snapshot() map[string][]string {
	out := make(map[string][]string, len(i.cache))
	for id, ingredients := range i.cache {
		out[id] = append([]string(nil), ingredients...)
	}
	return out
}
