package gorm

import (
	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

// ProfileToDomain converts a HealthProfileModel to a domain profile
func ProfileToDomain(model *HealthProfileModel) *dietary.UserProfile {
	if model == nil {
		return nil
	}

	return &dietary.UserProfile{
		UserID:    model.UserID,
		Name:      model.Name,
		Age:       model.Age,
		Gender:    model.Gender,
		WeightKg:  model.WeightKg,
		HeightCm:  model.HeightCm,
		Diseases:  append([]string(nil), model.Diseases...),
		Allergies: append([]string(nil), model.Allergies...),
	}
}

// ProfileToModel converts a domain profile to a HealthProfileModel
func ProfileToModel(profile dietary.UserProfile) *HealthProfileModel {
	return &HealthProfileModel{
		UserID:    profile.UserID,
		Name:      profile.Name,
		Age:       profile.Age,
		Gender:    profile.Gender,
		WeightKg:  profile.WeightKg,
		HeightCm:  profile.HeightCm,
		Diseases:  StringSlice(dietary.OrderedSet(profile.Diseases)),
		Allergies: StringSlice(dietary.OrderedSet(profile.Allergies)),
	}
}

// BMIRecordToModel converts a BMI result of a user to a BMIRecordModel
func BMIRecordToModel(userID string, result dietary.BMIResult) *BMIRecordModel {
	return &BMIRecordModel{
		UserID:   userID,
		Value:    result.Value,
		Category: result.Category,
		Estimate: result.Estimate,
	}
}
