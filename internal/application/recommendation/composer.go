package recommendation

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

const (
	nothingNewMessage = "There are no new dishes to suggest in this conversation. Try different ingredients or cooking methods."
	noMatchMessage    = "No dish matched your request. Try relaxing your ingredient or cooking method choices."
	relaxedNote       = "Not every criterion could be met at once, so some were relaxed."
	popularNote       = "No dish matched your criteria, so these are popular dishes instead."
	rejectionMessage  = "I can only help with meals, dishes and nutrition. Could you ask about what you would like to eat?"
)

// Composition is what a turn shows the user
type Composition struct {
	Shown     []dietary.FoodCandidate
	Foods     []dietary.FoodView
	Additions dietary.ExclusionSet
}

// Composer builds the user-facing result of a turn
type Composer struct{}

// Select drops candidates colliding with the exclusions by id or name, and
// duplicates within the list. The exclusion additions are computed from the
// returned dishes only.
func (Composer) Select(ranked []dietary.FoodCandidate, exclusions dietary.ExclusionSet) Composition {
	comp := Composition{Foods: []dietary.FoodView{}}
	seen := dietary.ExclusionSet{}
	for _, c := range ranked {
		if exclusions.Excludes(c) || seen.Excludes(c) {
			continue
		}
		seen = seen.Union(dietary.ExclusionFrom([]dietary.FoodCandidate{c}))
		comp.Shown = append(comp.Shown, c)
		comp.Foods = append(comp.Foods, dietary.NewFoodView(c))
	}
	comp.Additions = dietary.ExclusionFrom(comp.Shown)
	return comp
}

// Message builds the single user-facing message. Allergy and cooking
// warnings come first, pipe-joined ahead of the main text.
func (Composer) Message(state dietary.WorkflowState, shown []dietary.FoodCandidate) string {
	var main string
	switch {
	case len(shown) == 0 && state.Rerank != nil && state.Rerank.Status == dietary.RerankExplanation:
		main = state.Rerank.Explanation
	case len(shown) == 0 && state.Aggregation != nil && state.Aggregation.Status == dietary.AggregationNothingNew:
		main = nothingNewMessage
	case len(shown) == 0:
		main = noMatchMessage
	case state.NaturalText != nil && strings.TrimSpace(*state.NaturalText) != "":
		main = strings.TrimSpace(*state.NaturalText)
	default:
		main = templateMessage(shown)
	}

	if len(shown) > 0 && state.Aggregation != nil {
		switch state.Aggregation.Tier {
		case dietary.TierAll:
		case dietary.TierPopular:
			main += " " + popularNote
		default:
			if relaxed(state) {
				main += " " + relaxedNote
			}
		}
	}

	segments := Warnings(state, shown)
	return strings.Join(append(segments, main), " | ")
}

// Warnings returns the allergy warnings of the shown dishes, in display
// order, followed by the cooking warnings of the turn, deduplicated
func Warnings(state dietary.WorkflowState, shown []dietary.FoodCandidate) []string {
	var warnings []string
	for _, c := range shown {
		warnings = append(warnings, state.AllergyWarnings[c.DishID]...)
	}
	return dietary.OrderedSet(append(warnings, state.CookingWarnings...))
}

// NaturalPrompt asks for a short friendly answer presenting the dishes
func NaturalPrompt(state dietary.WorkflowState, shown []dietary.FoodCandidate) string {
	var b strings.Builder
	b.WriteString("Write a short, friendly answer recommending the dishes below to the user. ")
	b.WriteString("Mention every dish by its exact name and do not add other dishes.\n")
	fmt.Fprintf(&b, "User request: %s\n", state.RawQuestion)
	if state.BMI != nil {
		fmt.Fprintf(&b, "User BMI category: %s\n", state.BMI.Category)
	}
	if diseases := state.Criteria().Diseases; len(diseases) > 0 {
		fmt.Fprintf(&b, "Health conditions: %s\n", strings.Join(diseases, ", "))
	}
	b.WriteString("Dishes:\n")
	for _, c := range shown {
		fmt.Fprintf(&b, "- %s (%.0f kcal)", c.DishName, c.Nutrition.Calories)
		if c.Description != "" {
			fmt.Fprintf(&b, ": %s", c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func templateMessage(shown []dietary.FoodCandidate) string {
	names := make([]string, len(shown))
	for i, c := range shown {
		names[i] = c.DishName
	}
	if len(names) == 1 {
		return fmt.Sprintf("Here is a dish that suits you: %s.", names[0])
	}
	return fmt.Sprintf("Here are %d dishes that suit you: %s.", len(names), strings.Join(names, ", "))
}

// relaxed reports whether the matched tier used fewer families than the
// criteria provided
func relaxed(state dietary.WorkflowState) bool {
	criteria := state.Criteria()
	active := 0
	for _, on := range []bool{criteria.HasBMI(), criteria.HasCookingMethods(), criteria.HasDiseases()} {
		if on {
			active++
		}
	}
	used := 1
	switch state.Aggregation.Tier {
	case dietary.TierBMICooking, dietary.TierBMIDisease, dietary.TierCookingDisease:
		used = 2
	}
	return used < active
}
