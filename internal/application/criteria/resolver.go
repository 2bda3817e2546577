// Package criteria resolves the criteria a user's dishes are selected by:
// BMI, the cooking method and ingredient options offered before querying,
// and the suitability warnings for methods the user picked.
package criteria

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"go.uber.org/zap"
)

// Config contains resolver settings
type Config struct {
	// CookingMethods is the full method vocabulary narrowing starts from
	CookingMethods []string
	// Timeout bounds every collaborator call
	Timeout time.Duration
}

// Resolver builds selection prompts and resolves BMI
type Resolver struct {
	graph  outbound.GraphStore
	docs   outbound.DocumentStore
	config Config
	clock  func() time.Time
	logger *zap.Logger
}

// NewResolver creates a new criteria resolver
func NewResolver(graph outbound.GraphStore, docs outbound.DocumentStore, config Config, logger *zap.Logger) *Resolver {
	return &Resolver{
		graph:  graph,
		docs:   docs,
		config: config,
		clock:  time.Now,
		logger: logger.Named("criteria-resolver"),
	}
}

// WithClock replaces the clock used to derive the time of day
func (r *Resolver) WithClock(clock func() time.Time) *Resolver {
	r.clock = clock
	return r
}

// ResolveBMI computes the user's BMI and records it in the document store.
// It returns nil when the profile lacks biometrics. A failed write is logged
// and does not fail the turn.
func (r *Resolver) ResolveBMI(ctx context.Context, profile dietary.UserProfile) *dietary.BMIResult {
	result, ok := dietary.CalculateBMI(profile)
	if !ok {
		r.logger.Debug("Profile has no usable biometrics", zap.String("user_id", profile.UserID))
		return nil
	}

	callCtx, cancel := r.bounded(ctx)
	defer cancel()
	if err := r.docs.PersistBMIResult(callCtx, profile.UserID, result); err != nil {
		r.logger.Warn("Failed to persist BMI result",
			zap.String("user_id", profile.UserID),
			zap.Error(err),
		)
	}

	return &result
}

// BuildSelectionPrompts narrows the cooking method vocabulary through the
// disease, ingredient, BMI and context filters and lists the ingredients the
// user may choose from. Every narrowing step adds one trail entry.
func (r *Resolver) BuildSelectionPrompts(ctx context.Context, state dietary.WorkflowState) (dietary.SelectionPrompts, error) {
	criteria := state.Criteria()
	n := &narrowing{options: dietary.OrderedSet(r.config.CookingMethods)}
	n.note(fmt.Sprintf("Started with %d cooking methods", len(n.options)))

	var diets []string
	for _, disease := range criteria.Diseases {
		methods, err := call(ctx, r, func(ctx context.Context) ([]string, error) {
			return r.graph.CookingMethodsByDisease(ctx, disease)
		})
		if err != nil {
			return dietary.SelectionPrompts{}, fmt.Errorf("cooking methods for disease %q: %w", disease, err)
		}
		n.apply("disease "+disease, methods)

		recs, err := call(ctx, r, func(ctx context.Context) ([]string, error) {
			return r.graph.DietRecommendationsByDisease(ctx, disease)
		})
		if err != nil {
			return dietary.SelectionPrompts{}, fmt.Errorf("diet recommendations for disease %q: %w", disease, err)
		}
		diets = append(diets, recs...)
	}

	if len(criteria.Ingredients) > 0 {
		methods, err := call(ctx, r, func(ctx context.Context) ([]string, error) {
			return r.docs.CookingMethodsByIngredients(ctx, criteria.Ingredients)
		})
		if err != nil {
			return dietary.SelectionPrompts{}, fmt.Errorf("cooking methods for ingredients: %w", err)
		}
		n.apply("ingredients "+strings.Join(criteria.Ingredients, ", "), methods)
	}

	if criteria.HasBMI() {
		methods, err := call(ctx, r, func(ctx context.Context) ([]string, error) {
			return r.graph.CookingMethodsByBMICategory(ctx, criteria.BMICategory)
		})
		if err != nil {
			return dietary.SelectionPrompts{}, fmt.Errorf("cooking methods for BMI %q: %w", criteria.BMICategory, err)
		}
		n.apply("BMI "+criteria.BMICategory, methods)
	}

	var contextName string
	if state.IgnoreContext {
		n.note("Context filter ignored on request")
	} else {
		timeOfDay := state.TimeOfDay
		if timeOfDay == "" {
			timeOfDay = TimeOfDayAt(r.clock())
		}
		callCtx, cancel := r.bounded(ctx)
		cookingCtx, err := r.graph.ContextAndCookingMethods(callCtx, state.Weather, timeOfDay)
		cancel()
		if err != nil {
			return dietary.SelectionPrompts{}, fmt.Errorf("context cooking methods: %w", err)
		}
		if cookingCtx == nil || cookingCtx.Name == "" {
			n.note(fmt.Sprintf("Context filter skipped: no context known for weather %q at %s", state.Weather, timeOfDay))
		} else {
			contextName = cookingCtx.Name
			n.apply("context "+cookingCtx.Name, cookingCtx.Methods)
		}
	}

	ingredients, err := call(ctx, r, func(ctx context.Context) ([]string, error) {
		return r.docs.AllIngredients(ctx)
	})
	if err != nil {
		return dietary.SelectionPrompts{}, fmt.Errorf("all ingredients: %w", err)
	}

	r.logger.Debug("Built selection prompts",
		zap.String("user_id", state.UserID),
		zap.Int("cooking_methods", len(n.options)),
		zap.Int("trail", len(n.trail)),
	)

	return dietary.SelectionPrompts{
		IngredientOptions:    withoutAllergens(ingredients, criteria.Allergies),
		CookingMethodOptions: n.options,
		DietRecommendations:  dietary.OrderedSet(diets),
		Context:              contextName,
		AnalysisTrail:        n.trail,
	}, nil
}

// CookingWarnings reports chosen methods that are not among the methods
// compatible with one of the user's diseases. Diseases without method data
// produce no warning.
func (r *Resolver) CookingWarnings(ctx context.Context, diseases, methods []string) ([]string, error) {
	var warnings []string
	for _, disease := range diseases {
		compatible, err := call(ctx, r, func(ctx context.Context) ([]string, error) {
			return r.graph.CookingMethodsByDisease(ctx, disease)
		})
		if err != nil {
			return warnings, fmt.Errorf("cooking methods for disease %q: %w", disease, err)
		}
		if len(compatible) == 0 {
			continue
		}
		allowed := keySet(compatible)
		for _, method := range methods {
			if _, ok := allowed[dietary.NormalizeName(method)]; !ok {
				warnings = append(warnings,
					fmt.Sprintf("Cooking method %q is not recommended for %s", method, disease))
			}
		}
	}
	return warnings, nil
}

func (r *Resolver) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.Timeout)
}

func call(ctx context.Context, r *Resolver, fn func(context.Context) ([]string, error)) ([]string, error) {
	callCtx, cancel := r.bounded(ctx)
	defer cancel()
	return fn(callCtx)
}

// TimeOfDayAt maps a clock time to the time-of-day names used by context nodes
func TimeOfDayAt(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 11:
		return "morning"
	case h >= 11 && h < 14:
		return "noon"
	case h >= 14 && h < 18:
		return "afternoon"
	case h >= 18 && h < 22:
		return "evening"
	default:
		return "night"
	}
}

func withoutAllergens(ingredients, allergies []string) []string {
	out := make([]string, 0, len(ingredients))
	for _, ingredient := range dietary.OrderedSet(ingredients) {
		key := dietary.NormalizeName(ingredient)
		blocked := false
		for _, allergy := range allergies {
			if a := dietary.NormalizeName(allergy); a != "" && strings.Contains(key, a) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, ingredient)
		}
	}
	return out
}

func keySet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[dietary.NormalizeName(v)] = struct{}{}
	}
	return set
}
