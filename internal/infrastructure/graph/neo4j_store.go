package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const (
	defaultCandidateLimit = 100
	defaultPopularLimit   = 20
)

// Graph layout:
//
//	(:Disease)-[:RECOMMENDS]->(:Diet)<-[:BELONGS_TO]-(:Dish)
//	(:BMICategory)-[:RECOMMENDS]->(:Diet)
//	(:Dish)-[:COOKED_BY]->(:CookingMethod)
//	(:Dish)-[:CONTAINS]->(:Ingredient)
//	(:Disease|BMICategory)-[:SUITABLE_METHOD]->(:CookingMethod)
//	(:Context {weather, time_of_day})-[:SUGGESTS]->(:CookingMethod)
//
// Names are matched case-insensitively.

// dishProjection returns one row per dish bound to d, optionally with its diet bound to diet
const dishProjection = `
OPTIONAL MATCH (d)-[:COOKED_BY]->(m:CookingMethod)
OPTIONAL MATCH (d)-[:CONTAINS]->(i:Ingredient)
WITH d, diet, collect(DISTINCT m.name) AS methods, collect(DISTINCT i.name) AS ingredients
RETURN d.id AS id, d.name AS name, d.description AS description,
       head(methods) AS cook_method, diet.name AS diet_name,
       d.calories AS calories, d.protein AS protein, d.fat AS fat, d.carbs AS carbs,
       ingredients
`

const (
	candidatesByDiseaseQuery = `
MATCH (x:Disease)-[:RECOMMENDS]->(diet:Diet)<-[:BELONGS_TO]-(d:Dish)
WHERE toLower(x.name) = toLower($name)
WITH DISTINCT d, diet` + dishProjection + `ORDER BY id LIMIT $limit`

	candidatesByBMIQuery = `
MATCH (x:BMICategory)-[:RECOMMENDS]->(diet:Diet)<-[:BELONGS_TO]-(d:Dish)
WHERE toLower(x.name) = toLower($name)
WITH DISTINCT d, diet` + dishProjection + `ORDER BY id LIMIT $limit`

	candidatesByCookingMethodQuery = `
MATCH (d:Dish)-[:COOKED_BY]->(x:CookingMethod)
WHERE toLower(x.name) = toLower($name)
OPTIONAL MATCH (d)-[:BELONGS_TO]->(diet:Diet)
WITH DISTINCT d, head(collect(diet)) AS diet` + dishProjection + `ORDER BY id LIMIT $limit`

	popularCandidatesQuery = `
MATCH (d:Dish)
WHERE NOT d.id IN $exclude
OPTIONAL MATCH (d)-[:BELONGS_TO]->(diet:Diet)
WITH d, head(collect(diet)) AS diet
ORDER BY coalesce(d.popularity, 0) DESC, d.id
LIMIT $limit` + dishProjection

	methodsByDiseaseQuery = `
MATCH (x:Disease)-[:SUITABLE_METHOD]->(m:CookingMethod)
WHERE toLower(x.name) = toLower($name)
RETURN DISTINCT m.name AS name ORDER BY name`

	methodsByBMIQuery = `
MATCH (x:BMICategory)-[:SUITABLE_METHOD]->(m:CookingMethod)
WHERE toLower(x.name) = toLower($name)
RETURN DISTINCT m.name AS name ORDER BY name`

	dietsByDiseaseQuery = `
MATCH (x:Disease)-[:RECOMMENDS]->(diet:Diet)
WHERE toLower(x.name) = toLower($name)
RETURN DISTINCT diet.name AS name ORDER BY name`

	contextQuery = `
MATCH (c:Context)
WHERE toLower(c.weather) = toLower($weather) AND toLower(c.time_of_day) = toLower($time_of_day)
OPTIONAL MATCH (c)-[:SUGGESTS]->(m:CookingMethod)
RETURN c.name AS name, collect(DISTINCT m.name) AS methods
LIMIT 1`
)

// Store implements outbound.GraphStore over Neo4j
type Store struct {
	reader         Reader
	candidateLimit int
	popularLimit   int
	logger         *zap.Logger
}

var _ outbound.GraphStore = (*Store)(nil)

// NewStore creates a graph store. Non-positive limits fall back to defaults.
func NewStore(reader Reader, popularLimit int, logger *zap.Logger) *Store {
	if popularLimit <= 0 {
		popularLimit = defaultPopularLimit
	}
	return &Store{
		reader:         reader,
		candidateLimit: defaultCandidateLimit,
		popularLimit:   popularLimit,
		logger:         logger.Named("graph-store"),
	}
}

// CandidatesByDisease returns dishes of the diets recommended for a disease
func (s *Store) CandidatesByDisease(ctx context.Context, disease string) ([]dietary.FoodCandidate, error) {
	return s.candidates(ctx, "candidates by disease", candidatesByDiseaseQuery, dietary.SourceDisease,
		map[string]any{"name": disease, "limit": s.candidateLimit})
}

// CandidatesByBMICategory returns dishes of the diets recommended for a BMI category
func (s *Store) CandidatesByBMICategory(ctx context.Context, category string) ([]dietary.FoodCandidate, error) {
	return s.candidates(ctx, "candidates by BMI category", candidatesByBMIQuery, dietary.SourceBMI,
		map[string]any{"name": category, "limit": s.candidateLimit})
}

// CandidatesByCookingMethod returns dishes prepared with a cooking method
func (s *Store) CandidatesByCookingMethod(ctx context.Context, method string) ([]dietary.FoodCandidate, error) {
	return s.candidates(ctx, "candidates by cooking method", candidatesByCookingMethodQuery, dietary.SourceCookingMethod,
		map[string]any{"name": method, "limit": s.candidateLimit})
}

// PopularCandidates returns the most popular dishes not in excludeIDs
func (s *Store) PopularCandidates(ctx context.Context, excludeIDs []string) ([]dietary.FoodCandidate, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	return s.candidates(ctx, "popular candidates", popularCandidatesQuery, dietary.SourcePopular,
		map[string]any{"exclude": excludeIDs, "limit": s.popularLimit})
}

// CookingMethodsByDisease returns the methods suitable for a disease
func (s *Store) CookingMethodsByDisease(ctx context.Context, disease string) ([]string, error) {
	return s.names(ctx, "cooking methods by disease", methodsByDiseaseQuery, map[string]any{"name": disease})
}

// CookingMethodsByBMICategory returns the methods suitable for a BMI category
func (s *Store) CookingMethodsByBMICategory(ctx context.Context, category string) ([]string, error) {
	return s.names(ctx, "cooking methods by BMI category", methodsByBMIQuery, map[string]any{"name": category})
}

// DietRecommendationsByDisease returns the diets recommended for a disease
func (s *Store) DietRecommendationsByDisease(ctx context.Context, disease string) ([]string, error) {
	return s.names(ctx, "diet recommendations by disease", dietsByDiseaseQuery, map[string]any{"name": disease})
}

// ContextAndCookingMethods matches the context node for a weather and time
// of day. An unmatched context yields an empty name and no methods.
func (s *Store) ContextAndCookingMethods(ctx context.Context, weather, timeOfDay string) (*outbound.CookingContext, error) {
	records, err := s.reader.Read(ctx, contextQuery, map[string]any{"weather": weather, "time_of_day": timeOfDay})
	if err != nil {
		return nil, fmt.Errorf("neo4j: context and cooking methods: %w", err)
	}
	if len(records) == 0 {
		return &outbound.CookingContext{Methods: []string{}}, nil
	}

	return &outbound.CookingContext{
		Name:    stringValue(records[0], "name"),
		Methods: dietary.OrderedSet(stringsValue(records[0], "methods")),
	}, nil
}

func (s *Store) candidates(ctx context.Context, op, cypher string, source dietary.SourceKind, params map[string]any) ([]dietary.FoodCandidate, error) {
	records, err := s.reader.Read(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: %s: %w", op, err)
	}

	out := make([]dietary.FoodCandidate, 0, len(records))
	for _, record := range records {
		candidate, ok := toCandidate(record, source)
		if !ok {
			s.logger.Debug("Skipping dish without id", zap.String("query", op))
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (s *Store) names(ctx context.Context, op, cypher string, params map[string]any) ([]string, error) {
	records, err := s.reader.Read(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("neo4j: %s: %w", op, err)
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, stringValue(record, "name"))
	}
	return dietary.OrderedSet(names), nil
}

func toCandidate(record *neo4j.Record, source dietary.SourceKind) (dietary.FoodCandidate, bool) {
	id := stringValue(record, "id")
	if id == "" {
		return dietary.FoodCandidate{}, false
	}

	return dietary.FoodCandidate{
		DishID:      id,
		DishName:    stringValue(record, "name"),
		Description: stringValue(record, "description"),
		CookMethod:  stringValue(record, "cook_method"),
		DietName:    stringValue(record, "diet_name"),
		Nutrition: dietary.Nutrition{
			Calories: floatValue(record, "calories"),
			Protein:  floatValue(record, "protein"),
			Fat:      floatValue(record, "fat"),
			Carbs:    floatValue(record, "carbs"),
		},
		Source:      source,
		Ingredients: dietary.OrderedSet(stringsValue(record, "ingredients")),
	}, true
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func floatValue(record *neo4j.Record, key string) float64 {
	v, ok := record.Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func stringsValue(record *neo4j.Record, key string) []string {
	v, ok := record.Get(key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
