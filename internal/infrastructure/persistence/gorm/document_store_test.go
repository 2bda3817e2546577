package gorm_test

import (
	"context"
	"testing"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
	gormstore "github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/persistence/sqlite"
	apperrors "github.com/alchemorsel/nutriguide/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type DocumentStoreTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store *gormstore.DocumentStore
	ctx   context.Context
}

func (s *DocumentStoreTestSuite) SetupTest() {
	logger := zaptest.NewLogger(s.T())
	db, err := sqlite.SetupDatabase(sqlite.MemoryPath, sqlite.Options{AutoMigrate: true}, logger)
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.Require().NoError(sqlite.SeedDatabase(s.ctx, db))

	s.db = db
	s.store = gormstore.NewDocumentStore(db, logger)
}

func (s *DocumentStoreTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.NoError(sqlDB.Close())
}

func (s *DocumentStoreTestSuite) TestUserHealthProfile() {
	profile, err := s.store.UserHealthProfile(s.ctx, "demo-diabetic")

	s.Require().NoError(err)
	s.Equal("demo-diabetic", profile.UserID)
	s.Equal(58, profile.Age)
	s.InDelta(92.0, profile.WeightKg, 0.001)
	s.Equal([]string{"diabetes"}, profile.Diseases)
	s.Equal([]string{"shrimp", "milk"}, profile.Allergies)
}

func (s *DocumentStoreTestSuite) TestUserHealthProfile_NotFound() {
	profile, err := s.store.UserHealthProfile(s.ctx, "nobody")

	s.ErrorIs(err, dietary.ErrProfileNotFound)
	s.Nil(profile)
}

func (s *DocumentStoreTestSuite) TestSaveHealthProfile_Replaces() {
	// Arrange
	profile := dietary.UserProfile{UserID: "u-42", Age: 40, WeightKg: 80, HeightCm: 180, Allergies: []string{"egg", "Egg"}}
	s.Require().NoError(s.store.SaveHealthProfile(s.ctx, profile))
	profile.WeightKg = 75

	// Act
	err := s.store.SaveHealthProfile(s.ctx, profile)

	// Assert
	s.Require().NoError(err)
	loaded, err := s.store.UserHealthProfile(s.ctx, "u-42")
	s.Require().NoError(err)
	s.InDelta(75.0, loaded.WeightKg, 0.001)
	s.Equal([]string{"egg"}, loaded.Allergies)
	s.Empty(loaded.Diseases)
}

func (s *DocumentStoreTestSuite) TestSaveHealthProfile_RequiresUser() {
	err := s.store.SaveHealthProfile(s.ctx, dietary.UserProfile{})

	s.ErrorIs(err, dietary.ErrMissingUserID)
}

func (s *DocumentStoreTestSuite) TestDishIngredients() {
	ingredients, err := s.store.DishIngredients(s.ctx, "dish-kung-pao-chicken")

	s.Require().NoError(err)
	s.Equal([]string{"chicken", "peanut", "chili", "soy sauce"}, ingredients)
}

func (s *DocumentStoreTestSuite) TestDishIngredients_UnknownDish() {
	ingredients, err := s.store.DishIngredients(s.ctx, "dish-missing")

	s.Require().NoError(err)
	s.NotNil(ingredients)
	s.Empty(ingredients)
}

func (s *DocumentStoreTestSuite) TestAllIngredients_Sorted() {
	ingredients, err := s.store.AllIngredients(s.ctx)

	s.Require().NoError(err)
	s.Equal([]string{"beef", "broccoli", "chicken", "rice", "sea bass", "shrimp", "tofu"}, ingredients)
}

func (s *DocumentStoreTestSuite) TestCookingMethodsByIngredients() {
	methods, err := s.store.CookingMethodsByIngredients(s.ctx, []string{"Rice", "unknown", "beef", "rice"})

	s.Require().NoError(err)
	s.Equal([]string{"boil", "steam", "grill", "stew", "stir-fry"}, methods)
}

func (s *DocumentStoreTestSuite) TestCookingMethodsByIngredients_Empty() {
	methods, err := s.store.CookingMethodsByIngredients(s.ctx, nil)

	s.Require().NoError(err)
	s.Empty(methods)
}

func (s *DocumentStoreTestSuite) TestPersistBMIResult_AppendsHistory() {
	// Arrange
	first := dietary.BMIResult{Value: 29.7, Category: dietary.BMIOverweight}
	second := dietary.BMIResult{Value: 24.9, Category: dietary.BMINormal}

	// Act
	require.NoError(s.T(), s.store.PersistBMIResult(s.ctx, "demo-diabetic", first))
	require.NoError(s.T(), s.store.PersistBMIResult(s.ctx, "demo-diabetic", second))

	// Assert
	var records []gormstore.BMIRecordModel
	s.Require().NoError(s.db.Where("user_id = ?", "demo-diabetic").Order("value").Find(&records).Error)
	s.Require().Len(records, 2)
	s.Equal(dietary.BMINormal, records[0].Category)
	s.InDelta(29.7, records[1].Value, 0.001)
	s.NotEqual(records[0].ID, records[1].ID)
}

func (s *DocumentStoreTestSuite) TestSeedIsIdempotent() {
	s.Require().NoError(sqlite.SeedDatabase(s.ctx, s.db))

	var count int64
	s.Require().NoError(s.db.Model(&gormstore.DishModel{}).Count(&count).Error)
	s.Equal(int64(7), count)
}

func (s *DocumentStoreTestSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

func (s *DocumentStoreTestSuite) TestQueryFailureIsDatabaseError() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())

	_, err = s.store.AllIngredients(s.ctx)

	var appErr *apperrors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(apperrors.CodeDatabaseError, appErr.Code)
	s.Contains(appErr.Details, "query ingredients")
	s.Error(s.store.Ping(s.ctx))
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreTestSuite))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"debug", "info"},
		{"INFO", "warn"},
		{"warn", "error"},
		{"", "silent"},
	}

	names := map[int]string{1: "silent", 2: "error", 3: "warn", 4: "info"}
	for _, tt := range tests {
		assert.Equal(t, tt.want, names[int(gormstore.ParseLogLevel(tt.level))], tt.level)
	}
}

func TestStringSlice_Scan(t *testing.T) {
	var s gormstore.StringSlice

	require.NoError(t, s.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, gormstore.StringSlice{"a", "b"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))

	v, err := gormstore.StringSlice(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
