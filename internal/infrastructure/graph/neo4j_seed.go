package graph

import (
	"context"
	"fmt"
)

// Writer runs write statements in one transaction
type Writer interface {
	Write(ctx context.Context, statements []Statement) error
}

var schemaStatements = []Statement{
	{Cypher: `CREATE CONSTRAINT dish_id_unique IF NOT EXISTS FOR (d:Dish) REQUIRE d.id IS UNIQUE`},
	{Cypher: `CREATE INDEX cooking_method_name_idx IF NOT EXISTS FOR (m:CookingMethod) ON (m.name)`},
}

type demoDish struct {
	id, name, description, diet string
	methods, ingredients       []string
	calories, protein          float64
	fat, carbs                 float64
	popularity                 int
}

var demoDishes = []demoDish{
	{"dish-tofu-soup", "Tofu Soup", "Light soup with silken tofu and seaweed", "low sodium",
		[]string{"boil"}, []string{"tofu", "seaweed", "scallion"}, 120, 9, 5, 8, 70},
	{"dish-steamed-fish", "Steamed Fish", "Sea bass steamed with ginger and scallion", "low fat",
		[]string{"steam"}, []string{"sea bass", "ginger", "scallion"}, 210, 32, 6, 2, 90},
	{"dish-chicken-congee", "Chicken Congee", "Rice porridge with shredded chicken", "low fat",
		[]string{"boil"}, []string{"rice", "chicken", "ginger"}, 260, 18, 4, 38, 60},
	{"dish-grilled-beef", "Grilled Beef", "Lean beef grilled with black pepper", "high protein",
		[]string{"grill"}, []string{"beef", "garlic", "black pepper"}, 330, 36, 16, 3, 80},
	{"dish-kung-pao-chicken", "Kung Pao Chicken", "Stir-fried chicken with peanuts and chili", "high protein",
		[]string{"stir-fry"}, []string{"chicken", "peanut", "chili"}, 420, 30, 24, 18, 95},
	{"dish-shrimp-dumplings", "Shrimp Dumplings", "Steamed shrimp dumplings", "low fat",
		[]string{"steam"}, []string{"shrimp", "wheat flour", "bamboo shoot"}, 280, 16, 8, 34, 85},
	{"dish-vegetable-stir-fry", "Vegetable Stir Fry", "Broccoli and carrot stir-fried with garlic", "high fiber",
		[]string{"stir-fry"}, []string{"broccoli", "carrot", "garlic"}, 180, 6, 9, 20, 50},
}

// kind -> name -> recommended diets
var demoRecommendations = map[string]map[string][]string{
	"Disease": {
		"hypertension": {"low sodium", "low fat"},
		"diabetes":     {"high fiber", "low fat"},
	},
	"BMICategory": {
		"underweight": {"high protein"},
		"normal":      {"low fat", "high protein", "high fiber"},
		"overweight":  {"low fat", "high fiber"},
		"obese":       {"low fat", "low sodium"},
	},
}

var demoSuitableMethods = map[string]map[string][]string{
	"Disease": {
		"hypertension": {"steam", "boil", "stew", "raw"},
		"diabetes":     {"steam", "boil", "grill", "raw", "soup"},
	},
	"BMICategory": {
		"underweight": {"stir-fry", "roast", "braise", "stew", "boil", "steam"},
		"normal":      {"steam", "boil", "stir-fry", "grill", "bake", "roast"},
		"overweight":  {"steam", "boil", "grill", "raw"},
		"obese":       {"steam", "boil", "raw"},
	},
}

var demoContexts = []struct {
	name, weather, timeOfDay string
	methods                  []string
}{
	{"cold morning", "cold", "morning", []string{"boil", "steam", "soup"}},
	{"cold evening", "cold", "evening", []string{"stew", "braise", "soup", "boil"}},
	{"hot noon", "hot", "noon", []string{"raw", "steam", "boil"}},
	{"hot evening", "hot", "evening", []string{"steam", "grill", "raw"}},
}

// SeedStatements returns the statements that create the demo graph. Every
// statement merges, so seeding twice is harmless.
func SeedStatements() []Statement {
	var statements []Statement

	dishes := make([]map[string]any, 0, len(demoDishes))
	for _, d := range demoDishes {
		dishes = append(dishes, map[string]any{
			"id": d.id, "name": d.name, "description": d.description, "diet": d.diet,
			"methods": d.methods, "ingredients": d.ingredients,
			"calories": d.calories, "protein": d.protein, "fat": d.fat, "carbs": d.carbs,
			"popularity": d.popularity,
		})
	}
	statements = append(statements, Statement{
		Cypher: `
UNWIND $dishes AS row
MERGE (d:Dish {id: row.id})
SET d.name = row.name, d.description = row.description,
    d.calories = row.calories, d.protein = row.protein, d.fat = row.fat, d.carbs = row.carbs,
    d.popularity = row.popularity
MERGE (diet:Diet {name: row.diet})
MERGE (d)-[:BELONGS_TO]->(diet)
FOREACH (m IN row.methods | MERGE (cm:CookingMethod {name: m}) MERGE (d)-[:COOKED_BY]->(cm))
FOREACH (i IN row.ingredients | MERGE (ing:Ingredient {name: i}) MERGE (d)-[:CONTAINS]->(ing))`,
		Params: map[string]any{"dishes": dishes},
	})

	for _, label := range []string{"Disease", "BMICategory"} {
		statements = append(statements,
			Statement{
				Cypher: fmt.Sprintf(`
UNWIND $rows AS row
MERGE (x:%s {name: row.name})
FOREACH (t IN row.targets | MERGE (diet:Diet {name: t}) MERGE (x)-[:RECOMMENDS]->(diet))`, label),
				Params: map[string]any{"rows": targetRows(demoRecommendations[label])},
			},
			Statement{
				Cypher: fmt.Sprintf(`
UNWIND $rows AS row
MERGE (x:%s {name: row.name})
FOREACH (t IN row.targets | MERGE (m:CookingMethod {name: t}) MERGE (x)-[:SUITABLE_METHOD]->(m))`, label),
				Params: map[string]any{"rows": targetRows(demoSuitableMethods[label])},
			},
		)
	}

	contexts := make([]map[string]any, 0, len(demoContexts))
	for _, c := range demoContexts {
		contexts = append(contexts, map[string]any{
			"name": c.name, "weather": c.weather, "time_of_day": c.timeOfDay, "methods": c.methods,
		})
	}
	statements = append(statements, Statement{
		Cypher: `
UNWIND $contexts AS row
MERGE (c:Context {name: row.name})
SET c.weather = row.weather, c.time_of_day = row.time_of_day
FOREACH (t IN row.methods | MERGE (m:CookingMethod {name: t}) MERGE (c)-[:SUGGESTS]->(m))`,
		Params: map[string]any{"contexts": contexts},
	})

	return statements
}

// Seed creates the schema and writes the demo graph. Schema changes cannot
// share a transaction with data writes.
func Seed(ctx context.Context, w Writer) error {
	for _, st := range schemaStatements {
		if err := w.Write(ctx, []Statement{st}); err != nil {
			return fmt.Errorf("neo4j: create schema: %w", err)
		}
	}
	if err := w.Write(ctx, SeedStatements()); err != nil {
		return fmt.Errorf("neo4j: seed demo graph: %w", err)
	}
	return nil
}

func targetRows(byName map[string][]string) []map[string]any {
	rows := make([]map[string]any, 0, len(byName))
	for name, targets := range byName {
		rows = append(rows, map[string]any{"name": name, "targets": targets})
	}
	return rows
}
