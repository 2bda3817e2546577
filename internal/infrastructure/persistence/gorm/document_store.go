package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	"github.com/alchemorsel/nutriguide/internal/ports/outbound"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentStore implements outbound.DocumentStore using GORM
type DocumentStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ outbound.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a new document store
func NewDocumentStore(db *gorm.DB, logger *zap.Logger) *DocumentStore {
	return &DocumentStore{
		db:     db,
		logger: logger.Named("document-store"),
	}
}

// UserHealthProfile retrieves the health profile of a user
func (s *DocumentStore) UserHealthProfile(ctx context.Context, userID string) (*dietary.UserProfile, error) {
	var model HealthProfileModel
	result := s.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, dietary.ErrProfileNotFound
		}
		return nil, apperrors.NewDatabaseError("query health profile", result.Error)
	}

	return ProfileToDomain(&model), nil
}

// SaveHealthProfile creates or replaces a user's health profile
func (s *DocumentStore) SaveHealthProfile(ctx context.Context, profile dietary.UserProfile) error {
	if profile.UserID == "" {
		return dietary.ErrMissingUserID
	}

	if err := s.db.WithContext(ctx).Save(ProfileToModel(profile)).Error; err != nil {
		return apperrors.NewDatabaseError("save health profile", err)
	}
	return nil
}

// DishIngredients returns the ingredients of a dish. An unknown dish has no
// ingredients and is not an error.
func (s *DocumentStore) DishIngredients(ctx context.Context, dishID string) ([]string, error) {
	var model DishModel
	result := s.db.WithContext(ctx).Select("id", "ingredients").Limit(1).Find(&model, "id = ?", dishID)
	if result.Error != nil {
		return nil, apperrors.NewDatabaseError("query dish ingredients", result.Error)
	}
	if result.RowsAffected == 0 {
		return []string{}, nil
	}

	return append([]string{}, model.Ingredients...), nil
}

// AllIngredients returns the ingredient vocabulary in name order
func (s *DocumentStore) AllIngredients(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&IngredientModel{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, apperrors.NewDatabaseError("query ingredients", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// CookingMethodsByIngredients returns the cooking methods that go with any
// of the given ingredients, in ingredient order without duplicates
func (s *DocumentStore) CookingMethodsByIngredients(ctx context.Context, ingredients []string) ([]string, error) {
	keys := make([]string, 0, len(ingredients))
	for _, ingredient := range dietary.OrderedSet(ingredients) {
		keys = append(keys, dietary.NormalizeName(ingredient))
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	var models []IngredientModel
	if err := s.db.WithContext(ctx).Where("name IN ?", keys).Find(&models).Error; err != nil {
		return nil, apperrors.NewDatabaseError("query ingredient cooking methods", err)
	}

	byName := make(map[string][]string, len(models))
	for _, model := range models {
		byName[model.Name] = model.CookingMethods
	}

	var methods []string
	for _, key := range keys {
		methods = append(methods, byName[key]...)
	}
	return dietary.OrderedSet(methods), nil
}

// PersistBMIResult appends a BMI record to the user's history
func (s *DocumentStore) PersistBMIResult(ctx context.Context, userID string, result dietary.BMIResult) error {
	record := BMIRecordToModel(userID, result)
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return apperrors.NewDatabaseError("persist BMI result", err)
	}

	s.logger.Debug("Persisted BMI result",
		zap.String("user_id", userID),
		zap.Float64("bmi", result.Value),
		zap.String("category", result.Category),
	)
	return nil
}

// Ping checks the database connection
func (s *DocumentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
