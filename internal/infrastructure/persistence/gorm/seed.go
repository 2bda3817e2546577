package gorm

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// demoProfiles are the health profiles created by Seed
var demoProfiles = []dietary.UserProfile{
	{UserID: "demo-user", Name: "Demo User", Age: 34, Gender: "female", WeightKg: 68, HeightCm: 165, Diseases: []string{"hypertension"}, Allergies: []string{"peanut"}},
	{UserID: "demo-teen", Name: "Demo Teen", Age: 16, Gender: "male", WeightKg: 58, HeightCm: 172, Diseases: []string{"none"}},
	{UserID: "demo-diabetic", Name: "Demo Diabetic", Age: 58, Gender: "male", WeightKg: 92, HeightCm: 176, Diseases: []string{"diabetes"}, Allergies: []string{"shrimp", "milk"}},
}

var demoDishes = []DishModel{
	{ID: "dish-tofu-soup", Name: "Tofu Soup", Ingredients: StringSlice{"tofu", "seaweed", "scallion", "soy sauce"}},
	{ID: "dish-steamed-fish", Name: "Steamed Fish", Ingredients: StringSlice{"sea bass", "ginger", "scallion", "soy sauce"}},
	{ID: "dish-chicken-congee", Name: "Chicken Congee", Ingredients: StringSlice{"rice", "chicken", "ginger"}},
	{ID: "dish-grilled-beef", Name: "Grilled Beef", Ingredients: StringSlice{"beef", "garlic", "black pepper"}},
	{ID: "dish-kung-pao-chicken", Name: "Kung Pao Chicken", Ingredients: StringSlice{"chicken", "peanut", "chili", "soy sauce"}},
	{ID: "dish-shrimp-dumplings", Name: "Shrimp Dumplings", Ingredients: StringSlice{"shrimp", "wheat flour", "bamboo shoot"}},
	{ID: "dish-vegetable-stir-fry", Name: "Vegetable Stir Fry", Ingredients: StringSlice{"broccoli", "carrot", "garlic", "peanut oil"}},
}

var demoIngredients = []IngredientModel{
	{Name: "beef", CookingMethods: StringSlice{"grill", "stew", "stir-fry"}},
	{Name: "broccoli", CookingMethods: StringSlice{"steam", "boil", "stir-fry"}},
	{Name: "chicken", CookingMethods: StringSlice{"steam", "boil", "stew", "stir-fry", "roast"}},
	{Name: "rice", CookingMethods: StringSlice{"boil", "steam"}},
	{Name: "sea bass", CookingMethods: StringSlice{"steam", "grill"}},
	{Name: "shrimp", CookingMethods: StringSlice{"steam", "boil", "deep-fry"}},
	{Name: "tofu", CookingMethods: StringSlice{"steam", "boil", "stew", "deep-fry"}},
}

// Seed populates the document store with demo data. Existing rows are kept.
func Seed(ctx context.Context, db *gorm.DB) error {
	insert := func(value interface{}) error {
		return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(value).Error
	}

	for _, profile := range demoProfiles {
		if err := insert(ProfileToModel(profile)); err != nil {
			return fmt.Errorf("failed to seed health profile %s: %w", profile.UserID, err)
		}
	}

	dishes := append([]DishModel(nil), demoDishes...)
	if err := insert(&dishes); err != nil {
		return fmt.Errorf("failed to seed dishes: %w", err)
	}

	ingredients := append([]IngredientModel(nil), demoIngredients...)
	if err := insert(&ingredients); err != nil {
		return fmt.Errorf("failed to seed ingredients: %w", err)
	}
	return nil
}
