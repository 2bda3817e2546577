package ai

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
)

const (
	topicSystemPrompt = `You decide whether a message is about food, meals, cooking, diet or nutrition.
Answer with a JSON object {"topic": "relevant"} or {"topic": "irrelevant"} and nothing else.`

	allergySystemPrompt = `You are a food safety assistant. Split the ingredients of a dish into main ingredients,
which define the dish, and side ingredients, which are garnish, seasoning or optional.
Answer with a JSON object with the keys is_safe, main_ingredients, side_ingredients,
allergic_ingredients and warnings. Use only ingredient names from the list you are given.`

	rerankSystemPrompt = `You are a nutrition assistant that ranks dishes for a user. Follow the output format exactly.`

	naturalSystemPrompt = `You are a friendly nutrition assistant. Recommend the given dishes in two to four sentences.
Only mention dishes from the list. Do not invent health claims.`
)

func allergyPrompt(req outbound.AllergyClassificationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dish: %s\n", req.DishName)
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(req.Ingredients, ", "))
	fmt.Fprintf(&b, "User allergies: %s\n", strings.Join(req.UserAllergies, ", "))
	return b.String()
}
