package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/types"
)

// NutritionProfile is the stored physiological and dietary profile of a user
type NutritionProfile struct {
	UserID              uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"user_id"`
	Age                 int        `gorm:"not null" json:"age"`
	Sex                 string     `gorm:"size:10;not null" json:"sex"`
	HeightCm            float64    `gorm:"not null" json:"height_cm"`
	WeightKg            float64    `gorm:"not null" json:"weight_kg"`
	ActivityLevel       string     `gorm:"size:30;not null" json:"activity_level"`
	Goal                string     `gorm:"size:30;not null" json:"goal"`
	DietaryRestrictions StringList `gorm:"not null" json:"dietary_restrictions"`
	Allergies           StringList `gorm:"not null" json:"allergies"`
	CuisineTypes        StringList `gorm:"not null" json:"cuisine_types"`
	DislikedFoods       StringList `gorm:"not null" json:"disliked_foods"`
	ComplexityLevel     string     `gorm:"size:20" json:"complexity_level"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (NutritionProfile) TableName() string {
	return "nutrition_profiles"
}

// NewNutritionProfile converts a domain profile for userID
func NewNutritionProfile(userID uuid.UUID, p types.UserProfile) NutritionProfile {
	return NutritionProfile{
		UserID:              userID,
		Age:                 p.Age,
		Sex:                 string(p.Sex),
		HeightCm:            p.HeightCm,
		WeightKg:            p.WeightKg,
		ActivityLevel:       string(p.ActivityLevel),
		Goal:                string(p.Goal),
		DietaryRestrictions: StringList(append([]string{}, p.DietaryRestrictions...)),
		Allergies:           StringList(append([]string{}, p.Allergies...)),
		CuisineTypes:        StringList(append([]string{}, p.Preferences.CuisineTypes...)),
		DislikedFoods:       StringList(append([]string{}, p.Preferences.DislikedFoods...)),
		ComplexityLevel:     string(p.Preferences.ComplexityLevel),
	}
}

// ToDomain converts the record back to the domain shape
func (p NutritionProfile) ToDomain() types.UserProfile {
	return types.UserProfile{
		Age:                 p.Age,
		Sex:                 types.Sex(p.Sex),
		HeightCm:            p.HeightCm,
		WeightKg:            p.WeightKg,
		ActivityLevel:       types.ActivityLevel(p.ActivityLevel),
		Goal:                types.Goal(p.Goal),
		DietaryRestrictions: append([]string{}, p.DietaryRestrictions...),
		Allergies:           append([]string{}, p.Allergies...),
		Preferences: types.Preferences{
			CuisineTypes:    append([]string{}, p.CuisineTypes...),
			DislikedFoods:   append([]string{}, p.DislikedFoods...),
			ComplexityLevel: types.Complexity(p.ComplexityLevel),
		},
	}
}
