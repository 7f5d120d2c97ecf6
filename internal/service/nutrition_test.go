package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/mealplanner/backend/internal/types"
)

func testProfile() types.UserProfile {
	return types.UserProfile{
		Age:           30,
		Sex:           types.SexMale,
		HeightCm:      180,
		WeightKg:      75,
		ActivityLevel: types.ActivityModeratelyActive,
		Goal:          types.GoalWeightLoss,
		Allergies:     []string{"peanuts"},
		Preferences: types.Preferences{
			CuisineTypes:    []string{"mediterranean"},
			DislikedFoods:   []string{"olives"},
			ComplexityLevel: types.ComplexitySimple,
		},
	}
}

func TestDailyCalorieTarget(t *testing.T) {
	p := testProfile()

	assert.InDelta(t, 1730.0, BMR(p), 0.001)
	assert.InDelta(t, 2681.5, TDEE(p), 0.001)
	assert.Equal(t, 2182, DailyCalorieTarget(p))
	assert.Equal(t, 727, PerMealCalorieTarget(p))

	// The often-quoted 1755 / 2220 pair for this profile is what Mifflin-St Jeor
	// gives at age 25, not 30.
	p.Age = 25
	assert.InDelta(t, 1755.0, BMR(p), 0.001)
	assert.Equal(t, 2220, DailyCalorieTarget(p))
}

func TestBMRBySex(t *testing.T) {
	p := testProfile()

	p.Sex = types.SexFemale
	assert.InDelta(t, 1564.0, BMR(p), 0.001)

	p.Sex = types.SexOther
	assert.InDelta(t, 1647.0, BMR(p), 0.001)
}

func TestGoalOffsets(t *testing.T) {
	tests := []struct {
		goal     types.Goal
		expected int
	}{
		{types.GoalWeightLoss, 2182},
		{types.GoalMaintenance, 2682},
		{types.GoalWeightGain, 3182},
		{types.GoalMuscleGain, 2982},
	}

	for _, tt := range tests {
		t.Run(string(tt.goal), func(t *testing.T) {
			p := testProfile()
			p.Goal = tt.goal
			assert.Equal(t, tt.expected, DailyCalorieTarget(p))
		})
	}
}

func TestActivityMultipliers(t *testing.T) {
	p := testProfile()
	p.Goal = types.GoalMaintenance

	p.ActivityLevel = types.ActivitySedentary
	assert.Equal(t, 2076, DailyCalorieTarget(p))

	p.ActivityLevel = types.ActivityVeryActive
	assert.Equal(t, 3287, DailyCalorieTarget(p))
}

func TestMacroTargets(t *testing.T) {
	m := MacroTargets(2000)
	assert.Equal(t, 2000, m.Calories)
	assert.Equal(t, 150, m.Protein)
	assert.Equal(t, 200, m.Carbs)
	assert.Equal(t, 67, m.Fat)
}
