package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/mealplanner/backend/internal/types"
	"gorm.io/gorm"
)

type MealPlan struct {
	ID           uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	OwnerID      uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Duration     int            `gorm:"not null" json:"duration"`
	ShoppingList ShoppingList   `gorm:"not null" json:"shopping_list"`
	Meals        []Meal         `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"meals"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MealPlan) TableName() string {
	return "meal_plans"
}

type Meal struct {
	ID          uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	PlanID      uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"plan_id"`
	Position    int        `gorm:"not null" json:"position"`
	Day         int        `gorm:"not null" json:"day"`
	Type        string     `gorm:"size:20;not null" json:"type"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Ingredients StringList `gorm:"not null" json:"ingredients"`
	Calories    int        `json:"calories"`
	PrepTime    int        `json:"prep_time"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Meal) TableName() string {
	return "meals"
}

// NewMealPlan converts a domain plan into its persistence record
func NewMealPlan(p types.MealPlan) MealPlan {
	rec := MealPlan{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		Duration:     p.Duration,
		ShoppingList: ShoppingList(types.CloneShoppingList(p.ShoppingList)),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	rec.Meals = make([]Meal, len(p.Meals))
	for i, m := range p.Meals {
		rec.Meals[i] = NewMeal(p.ID, i, m)
	}
	return rec
}

// NewMeal converts a domain meal at position i of its plan
func NewMeal(planID uuid.UUID, position int, m types.Meal) Meal {
	return Meal{
		ID:          m.ID,
		PlanID:      planID,
		Position:    position,
		Day:         m.Day,
		Type:        string(m.Type),
		Name:        m.Name,
		Description: m.Description,
		Ingredients: StringList(append([]string(nil), m.Ingredients...)),
		Calories:    m.Calories,
		PrepTime:    m.PrepTime,
	}
}

// ToDomain converts the record back, ordering meals by position
func (p MealPlan) ToDomain() types.MealPlan {
	meals := append([]Meal(nil), p.Meals...)
	sort.SliceStable(meals, func(i, j int) bool { return meals[i].Position < meals[j].Position })

	out := types.MealPlan{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Title:        p.Title,
		Duration:     p.Duration,
		Meals:        make([]types.Meal, len(meals)),
		ShoppingList: types.CloneShoppingList(p.ShoppingList),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if out.ShoppingList == nil {
		out.ShoppingList = []types.ShoppingCategory{}
	}
	for i, m := range meals {
		out.Meals[i] = m.ToDomain()
	}
	return out
}

// ToDomain converts a meal record back to the domain shape
func (m Meal) ToDomain() types.Meal {
	ingredients := append([]string{}, m.Ingredients...)
	return types.Meal{
		ID:          m.ID,
		Day:         m.Day,
		Type:        types.MealType(m.Type),
		Name:        m.Name,
		Description: m.Description,
		Ingredients: ingredients,
		Calories:    m.Calories,
		PrepTime:    m.PrepTime,
	}
}
