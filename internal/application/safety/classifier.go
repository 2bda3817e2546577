// Package safety removes dishes a user must not eat and warns about dishes
// that only touch an allergen through a side ingredient.
package safety

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"github.com/alchemorsel/nutriguide/pkg/errors"
	"go.uber.org/zap"
)

// Classification splits a dish's ingredients into main and side ingredients
type Classification struct {
	Main []string
	Side []string
}

// Classifier decides which ingredients of a dish are main and which are side
type Classifier interface {
	Classify(ctx context.Context, dishName string, ingredients, allergies []string) (Classification, error)
}

// sideKeywords mark aromatics, condiments, garnishes and oils
var sideKeywords = []string{
	"garlic", "ginger", "onion", "shallot", "scallion", "spring onion", "chili", "chilli",
	"pepper", "lemongrass", "cilantro", "coriander", "basil", "mint", "parsley", "dill",
	"herb", "spice", "cinnamon", "star anise", "clove", "turmeric", "cumin", "paprika",
	"salt", "sugar", "vinegar", "soy sauce", "fish sauce", "oyster sauce", "sauce", "paste",
	"ketchup", "mustard", "mayonnaise", "dressing", "msg", "seasoning", "stock", "broth",
	"oil", "butter", "lard", "sesame", "lime", "lemon", "garnish", "nước mắm", "tỏi", "hành", "ớt", "gừng",
}

// mainKeywords mark proteins, grains, staple vegetables and nuts. They win
// over side keywords unless the ingredient is a condiment made from them.
var mainKeywords = []string{
	"beef", "pork", "chicken", "duck", "lamb", "goat", "fish", "salmon", "tuna", "shrimp",
	"prawn", "crab", "lobster", "squid", "octopus", "clam", "mussel", "oyster", "scallop",
	"egg", "tofu", "soy bean", "milk", "cheese", "yogurt", "rice", "noodle", "bread", "wheat",
	"flour", "pasta", "oat", "corn", "potato", "cabbage", "spinach", "broccoli", "carrot",
	"mushroom", "bean", "lentil", "peanut", "almond", "cashew", "walnut", "hazelnut", "nut",
	"gạo", "bún", "phở", "thịt", "cá", "tôm", "cua", "trứng", "đậu",
}

// KeywordClassifier is the deterministic keyword-table classifier. Anything
// not recognised as a side ingredient is main.
type KeywordClassifier struct{}

// Classify implements Classifier
func (KeywordClassifier) Classify(_ context.Context, _ string, ingredients, _ []string) (Classification, error) {
	var out Classification
	for _, ingredient := range dietary.OrderedSet(ingredients) {
		key := dietary.NormalizeName(ingredient)
		// condiments named after a protein, like "fish sauce", are still side
		if matchesAny(key, sideKeywords) && (!matchesAny(key, mainKeywords) || isCondiment(key)) {
			out.Side = append(out.Side, ingredient)
			continue
		}
		out.Main = append(out.Main, ingredient)
	}
	return out, nil
}

// condimentSuffixes turn a main keyword into a side ingredient
var condimentSuffixes = []string{"sauce", "oil", "paste", "stock", "broth", "powder", "vinegar", "nước mắm"}

func isCondiment(key string) bool {
	for _, suffix := range condimentSuffixes {
		if strings.HasSuffix(key, suffix) || strings.HasPrefix(key, suffix) {
			return true
		}
	}
	return false
}

func matchesAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// LLMClassifier classifies through the text generation client
type LLMClassifier struct {
	client  outbound.TextGenerationClient
	timeout time.Duration
}

// NewLLMClassifier creates a classifier backed by a language model
func NewLLMClassifier(client outbound.TextGenerationClient, timeout time.Duration) *LLMClassifier {
	return &LLMClassifier{client: client, timeout: timeout}
}

// Classify implements Classifier. Empty or unusable model output is reported
// as a classification failure.
func (c *LLMClassifier) Classify(ctx context.Context, dishName string, ingredients, allergies []string) (Classification, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	result, err := c.client.ClassifyAllergy(callCtx, outbound.AllergyClassificationRequest{
		DishName:      dishName,
		Ingredients:   ingredients,
		UserAllergies: allergies,
	})
	if err != nil {
		return Classification{}, errors.NewClassificationError(dishName, err)
	}
	if result == nil || len(result.MainIngredients)+len(result.SideIngredients) == 0 {
		return Classification{}, errors.NewClassificationError(dishName, dietary.ErrMalformedResponse)
	}

	return Classification{Main: result.MainIngredients, Side: result.SideIngredients}, nil
}

// FallbackClassifier tries the primary classifier and uses the fallback when
// it fails. The fallback must not fail.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	logger   *zap.Logger
}

// NewFallbackClassifier chains a primary and a fallback classifier
func NewFallbackClassifier(primary, fallback Classifier, logger *zap.Logger) *FallbackClassifier {
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		logger:   logger.Named("allergy-classifier"),
	}
}

// Classify implements Classifier
func (c *FallbackClassifier) Classify(ctx context.Context, dishName string, ingredients, allergies []string) (Classification, error) {
	result, err := c.primary.Classify(ctx, dishName, ingredients, allergies)
	if err == nil {
		return result, nil
	}

	c.logger.Warn("Primary allergy classifier failed, using keyword fallback",
		zap.String("dish", dishName),
		zap.Error(err),
	)
	result, err = c.fallback.Classify(ctx, dishName, ingredients, allergies)
	if err != nil {
		return Classification{}, fmt.Errorf("fallback classifier: %w", err)
	}
	return result, nil
}
