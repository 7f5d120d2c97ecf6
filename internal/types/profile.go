package types

// Sex selects the BMR constant used by the nutrition calculator.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// ActivityLevel scales BMR into total daily energy expenditure.
type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "sedentary"
	ActivityLightlyActive    ActivityLevel = "lightly_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivityActive           ActivityLevel = "active"
	ActivityVeryActive       ActivityLevel = "very_active"
)

// Goal applies a fixed calorie offset to TDEE.
type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalMaintenance Goal = "maintenance"
	GoalWeightGain  Goal = "weight_gain"
	GoalMuscleGain  Goal = "muscle_gain"
)

// Complexity is the preferred cooking effort.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Preferences holds the soft constraints used when prompting for meals
type Preferences struct {
	CuisineTypes    []string   `json:"cuisine_types" validate:"max=20,dive,max=50"`
	DislikedFoods   []string   `json:"disliked_foods" validate:"max=50,dive,max=50"`
	ComplexityLevel Complexity `json:"complexity_level" validate:"omitempty,oneof=simple moderate complex"`
}

// PreferencesPatch overrides individual preference fields for a single call.
// Nil fields keep the stored value.
type PreferencesPatch struct {
	CuisineTypes    *[]string   `json:"cuisine_types,omitempty"`
	DislikedFoods   *[]string   `json:"disliked_foods,omitempty"`
	ComplexityLevel *Complexity `json:"complexity_level,omitempty"`
}

// UserProfile represents the physiological and dietary profile of the caller
type UserProfile struct {
	Age                 int           `json:"age" validate:"required,gte=13,lte=120"`
	Sex                 Sex           `json:"sex" validate:"required,oneof=male female other"`
	HeightCm            float64       `json:"height_cm" validate:"required,gte=50,lte=250"`
	WeightKg            float64       `json:"weight_kg" validate:"required,gte=20,lte=400"`
	ActivityLevel       ActivityLevel `json:"activity_level" validate:"required,oneof=sedentary lightly_active moderately_active active very_active"`
	Goal                Goal          `json:"goal" validate:"required,oneof=weight_loss maintenance weight_gain muscle_gain"`
	DietaryRestrictions []string      `json:"dietary_restrictions" validate:"max=20,dive,max=50"`
	Allergies           []string      `json:"allergies" validate:"max=20,dive,max=50"`
	Preferences         Preferences   `json:"preferences"`
}

// WithPreferences returns a copy of the profile with the patch applied.
// The receiver is left untouched.
func (p UserProfile) WithPreferences(patch *PreferencesPatch) UserProfile {
	out := p
	out.DietaryRestrictions = append([]string(nil), p.DietaryRestrictions...)
	out.Allergies = append([]string(nil), p.Allergies...)
	out.Preferences.CuisineTypes = append([]string(nil), p.Preferences.CuisineTypes...)
	out.Preferences.DislikedFoods = append([]string(nil), p.Preferences.DislikedFoods...)

	if patch == nil {
		return out
	}
	if patch.CuisineTypes != nil {
		out.Preferences.CuisineTypes = append([]string(nil), (*patch.CuisineTypes)...)
	}
	if patch.DislikedFoods != nil {
		out.Preferences.DislikedFoods = append([]string(nil), (*patch.DislikedFoods)...)
	}
	if patch.ComplexityLevel != nil {
		out.Preferences.ComplexityLevel = *patch.ComplexityLevel
	}
	return out
}
