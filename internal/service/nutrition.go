package service

import (
	"math"

	"github.com/pageza/mealplanner/backend/internal/types"
)

var activityMultipliers = map[types.ActivityLevel]float64{
	types.ActivitySedentary:        1.2,
	types.ActivityLightlyActive:    1.375,
	types.ActivityModeratelyActive: 1.55,
	types.ActivityActive:           1.725,
	types.ActivityVeryActive:       1.9,
}

var goalOffsets = map[types.Goal]float64{
	types.GoalWeightLoss:  -500,
	types.GoalMaintenance: 0,
	types.GoalWeightGain:  500,
	types.GoalMuscleGain:  300,
}

// Mifflin-St Jeor sex constants. "other" uses the mean of the two.
const (
	bmrConstantMale   = 5.0
	bmrConstantFemale = -161.0
	bmrConstantOther  = (bmrConstantMale + bmrConstantFemale) / 2
)

// BMR returns the Mifflin-St Jeor basal metabolic rate
func BMR(profile types.UserProfile) float64 {
	base := 10*profile.WeightKg + 6.25*profile.HeightCm - 5*float64(profile.Age)
	switch profile.Sex {
	case types.SexMale:
		return base + bmrConstantMale
	case types.SexFemale:
		return base + bmrConstantFemale
	default:
		return base + bmrConstantOther
	}
}

// TDEE scales BMR by the activity multiplier. Unknown levels are treated as sedentary.
func TDEE(profile types.UserProfile) float64 {
	mult, ok := activityMultipliers[profile.ActivityLevel]
	if !ok {
		mult = activityMultipliers[types.ActivitySedentary]
	}
	return BMR(profile) * mult
}

// DailyCalorieTarget returns the rounded daily calorie target for the profile's goal
func DailyCalorieTarget(profile types.UserProfile) int {
	return int(math.Round(TDEE(profile) + goalOffsets[profile.Goal]))
}

// PerMealCalorieTarget splits the daily target evenly across the day's meals
func PerMealCalorieTarget(profile types.UserProfile) int {
	return int(math.Round(float64(DailyCalorieTarget(profile)) / types.MealsPerDay))
}

// Macros is a gram breakdown of a calorie budget
type Macros struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// MacroTargets splits calories 30% protein, 40% carbs, 30% fat
func MacroTargets(calories int) Macros {
	c := float64(calories)
	return Macros{
		Calories: calories,
		Protein:  int(math.Round(c * 0.30 / 4)),
		Carbs:    int(math.Round(c * 0.40 / 4)),
		Fat:      int(math.Round(c * 0.30 / 9)),
	}
}
