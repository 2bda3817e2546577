// Package gorm provides GORM model definitions and the document store
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HealthProfileModel represents the GORM model for a user's health profile
type HealthProfileModel struct {
	UserID    string      `gorm:"type:varchar(64);primaryKey"`
	Name      string      `gorm:"type:varchar(255)"`
	Age       int         `gorm:"not null;default:0"`
	Gender    string      `gorm:"type:varchar(20)"`
	WeightKg  float64     `gorm:"not null;default:0"`
	HeightCm  float64     `gorm:"not null;default:0"`
	Diseases  StringSlice `gorm:"type:text"`
	Allergies StringSlice `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	BMIRecords []BMIRecordModel `gorm:"foreignKey:UserID;references:UserID"`
}

// DishModel holds the authoritative ingredient list of a dish. The ID is the
// dish id used by the knowledge graph.
type DishModel struct {
	ID          string      `gorm:"type:varchar(64);primaryKey"`
	Name        string      `gorm:"type:varchar(255);not null;index"`
	Ingredients StringSlice `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngredientModel is an ingredient of the selection vocabulary and the
// cooking methods it works with
type IngredientModel struct {
	Name           string      `gorm:"type:varchar(100);primaryKey"`
	CookingMethods StringSlice `gorm:"type:text"`
	CreatedAt      time.Time
}

// BMIRecordModel is one computed BMI of a user
type BMIRecordModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);not null;index"`
	Value     float64   `gorm:"not null"`
	Category  string    `gorm:"type:varchar(20);not null"`
	Estimate  bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName returns the table name for HealthProfileModel
func (HealthProfileModel) TableName() string {
	return "health_profiles"
}

// TableName returns the table name for DishModel
func (DishModel) TableName() string {
	return "dishes"
}

// TableName returns the table name for IngredientModel
func (IngredientModel) TableName() string {
	return "ingredients"
}

// TableName returns the table name for BMIRecordModel
func (BMIRecordModel) TableName() string {
	return "bmi_records"
}

// BeforeCreate hook for BMIRecordModel
func (b *BMIRecordModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Models lists every model of the document store, in migration order
func Models() []interface{} {
	return []interface{}{
		&HealthProfileModel{},
		&DishModel{},
		&IngredientModel{},
		&BMIRecordModel{},
	}
}

// AutoMigrate creates or updates the document store tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate document store: %w", err)
	}
	return nil
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
