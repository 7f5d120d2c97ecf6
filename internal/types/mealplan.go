package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	// PlanDurationDays is the fixed length of every generated plan
	PlanDurationDays = 3
	// MealsPerDay is the number of meal slots per day
	MealsPerDay = 3
)

// MealType identifies a daily meal slot
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

// MealTypes lists the slots in serving order
var MealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

// Valid reports whether t is one of the known slots
func (t MealType) Valid() bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner:
		return true
	}
	return false
}

// Meal is a single generated meal occupying one day/type slot
type Meal struct {
	ID          uuid.UUID `json:"id"`
	Day         int       `json:"day"`
	Type        MealType  `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	Calories    int       `json:"calories"`
	PrepTime    int       `json:"prep_time"`
}

// ShoppingCategory groups consolidated shopping items
type ShoppingCategory struct {
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Items []string `json:"items"`
}

// MealPlan is the aggregate of all meals for the plan duration plus the derived shopping list
type MealPlan struct {
	ID           uuid.UUID          `json:"id"`
	OwnerID      uuid.UUID          `json:"owner_id"`
	Title        string             `json:"title"`
	Duration     int                `json:"duration"`
	Meals        []Meal             `json:"meals"`
	ShoppingList []ShoppingCategory `json:"shopping_list"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// FindMeal looks a meal up by id
func (p *MealPlan) FindMeal(id uuid.UUID) (Meal, bool) {
	for _, m := range p.Meals {
		if m.ID == id {
			return m, true
		}
	}
	return Meal{}, false
}

// FindMealBySlot looks a meal up by its day and type
func (p *MealPlan) FindMealBySlot(mealType MealType, day int) (Meal, bool) {
	for _, m := range p.Meals {
		if m.Type == mealType && m.Day == day {
			return m, true
		}
	}
	return Meal{}, false
}

// ReplaceMeal swaps in the meal with the same id. It reports false when no meal matched.
func (p *MealPlan) ReplaceMeal(meal Meal) bool {
	for i := range p.Meals {
		if p.Meals[i].ID == meal.ID {
			p.Meals[i] = meal
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the plan
func (p MealPlan) Clone() MealPlan {
	out := p
	out.Meals = make([]Meal, len(p.Meals))
	for i, m := range p.Meals {
		m.Ingredients = append([]string(nil), m.Ingredients...)
		out.Meals[i] = m
	}
	out.ShoppingList = CloneShoppingList(p.ShoppingList)
	return out
}

// CloneShoppingList deep-copies a categorized shopping list
func CloneShoppingList(list []ShoppingCategory) []ShoppingCategory {
	if list == nil {
		return nil
	}
	out := make([]ShoppingCategory, len(list))
	for i, c := range list {
		c.Items = append([]string(nil), c.Items...)
		out[i] = c
	}
	return out
}
