// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/brianvoe/gofakeit/v6"
)

var cookingMethods = []string{"steam", "boil", "grill", "stir-fry", "bake", "raw", "braise", "fry"}

// CandidateFactory provides methods to create test candidates
type CandidateFactory struct {
	faker *gofakeit.Faker
	seq   int
}

// NewCandidateFactory creates a new candidate factory with seeded faker
func NewCandidateFactory(seed int64) *CandidateFactory {
	return &CandidateFactory{faker: gofakeit.New(seed)}
}

// Candidate creates a candidate with a unique id and name
func (f *CandidateFactory) Candidate(source dietary.SourceKind) dietary.FoodCandidate {
	f.seq++
	return dietary.FoodCandidate{
		DishID:      fmt.Sprintf("dish-%03d", f.seq),
		DishName:    fmt.Sprintf("%s %s %d", f.faker.RandomString(cookingMethods), f.faker.Dinner(), f.seq),
		Description: f.faker.Sentence(8),
		CookMethod:  f.faker.RandomString(cookingMethods),
		DietName:    f.faker.RandomString([]string{"low sugar", "low fat", "balanced", "high protein"}),
		Nutrition: dietary.Nutrition{
			Calories: f.faker.Float64Range(120, 850),
			Protein:  f.faker.Float64Range(2, 45),
			Fat:      f.faker.Float64Range(1, 35),
			Carbs:    f.faker.Float64Range(5, 90),
		},
		Source: source,
	}
}

// Candidates creates n candidates from the same source
func (f *CandidateFactory) Candidates(n int, source dietary.SourceKind) []dietary.FoodCandidate {
	out := make([]dietary.FoodCandidate, n)
	for i := range out {
		out[i] = f.Candidate(source)
	}
	return out
}

// Dish creates a candidate with a fixed id and name
func Dish(id, name string, ingredients ...string) dietary.FoodCandidate {
	return dietary.FoodCandidate{DishID: id, DishName: name, Ingredients: ingredients}
}

// ProfileBuilder provides a fluent interface for building test profiles
type ProfileBuilder struct {
	profile dietary.UserProfile
}

// NewProfileBuilder creates a new profile builder with adult normal-BMI defaults
func NewProfileBuilder() *ProfileBuilder {
	faker := gofakeit.New(time.Now().UnixNano())

	return &ProfileBuilder{
		profile: dietary.UserProfile{
			UserID:   faker.UUID(),
			Name:     faker.Name(),
			Age:      30,
			Gender:   faker.RandomString([]string{"male", "female"}),
			WeightKg: 70,
			HeightCm: 175,
			Diseases: []string{"none"},
		},
	}
}

// WithUserID sets the user id
func (b *ProfileBuilder) WithUserID(id string) *ProfileBuilder {
	b.profile.UserID = id
	return b
}

// WithBiometrics sets age, weight and height
func (b *ProfileBuilder) WithBiometrics(age int, weightKg, heightCm float64) *ProfileBuilder {
	b.profile.Age = age
	b.profile.WeightKg = weightKg
	b.profile.HeightCm = heightCm
	return b
}

// WithDiseases sets the diseases
func (b *ProfileBuilder) WithDiseases(diseases ...string) *ProfileBuilder {
	b.profile.Diseases = diseases
	return b
}

// WithAllergies sets the allergies
func (b *ProfileBuilder) WithAllergies(allergies ...string) *ProfileBuilder {
	b.profile.Allergies = allergies
	return b
}

// Build returns the profile
func (b *ProfileBuilder) Build() *dietary.UserProfile {
	p := b.profile
	return &p
}
