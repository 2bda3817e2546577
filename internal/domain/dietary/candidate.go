// Package dietary holds the domain model of the dish recommendation workflow:
// the state threaded through a conversation turn, the candidate dishes, the
// criteria they are selected by and the envelope returned to the caller.
package dietary

import "strings"

// SourceKind identifies the criterion family that produced a candidate
type SourceKind string

const (
	SourceBMI           SourceKind = "bmi"
	SourceCookingMethod SourceKind = "cooking_method"
	SourceDisease       SourceKind = "disease"
	SourcePopular       SourceKind = "popular"
)

// Nutrition contains per-serving nutritional information
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"` // in grams
	Fat      float64 `json:"fat"`     // in grams
	Carbs    float64 `json:"carbs"`   // in grams
}

// FoodCandidate is a dish considered for recommendation in the current turn.
// Candidates are treated as immutable once produced.
type FoodCandidate struct {
	DishID      string     `json:"dish_id"`
	DishName    string     `json:"dish_name"`
	Description string     `json:"description,omitempty"`
	CookMethod  string     `json:"cook_method,omitempty"`
	DietName    string     `json:"diet_name,omitempty"`
	Nutrition   Nutrition  `json:"nutrition"`
	Source      SourceKind `json:"source"`

	// Ingredients is whatever partial ingredient data accompanied the
	// candidate from the graph; the document store is authoritative.
	Ingredients []string `json:"ingredients,omitempty"`
}

// WithSource returns a copy of the candidate tagged with the given source
func (c FoodCandidate) WithSource(source SourceKind) FoodCandidate {
	c.Source = source
	c.Ingredients = cloneStrings(c.Ingredients)
	return c
}

// NameKey returns the normalized name used as secondary dedup key
func (c FoodCandidate) NameKey() string {
	return NormalizeName(c.DishName)
}

// CandidateSource is the candidate list pulled for a single criterion
type CandidateSource struct {
	Kind       SourceKind      `json:"kind"`
	Criterion  string          `json:"criterion"`
	Candidates []FoodCandidate `json:"candidates"`
}

// SourceKey builds the key a candidate source is stored under
func SourceKey(kind SourceKind, criterion string) string {
	return string(kind) + ":" + NormalizeName(criterion)
}

// NormalizeName lowercases and collapses whitespace for name comparisons
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneCandidates(in []FoodCandidate) []FoodCandidate {
	if in == nil {
		return nil
	}
	out := make([]FoodCandidate, len(in))
	for i, c := range in {
		c.Ingredients = cloneStrings(c.Ingredients)
		out[i] = c
	}
	return out
}
