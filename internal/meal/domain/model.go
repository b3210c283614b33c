package domain

import (
	"time"

	"github.com/smallbiznis/mealplan/internal/nutrition"
	"gorm.io/datatypes"
)

// Meal is a named recipe cooked as a batch of Servings.
type Meal struct {
	ID                int64                                  `gorm:"primaryKey;autoIncrement:false" json:"meal_id"`
	Name              string                                 `gorm:"column:meal_name;type:varchar(255);not null" json:"meal_name"`
	Servings          int                                    `gorm:"column:servings;not null;default:1" json:"servings"`
	ServingsRemaining RemainingServings                      `gorm:"column:servings_remaining" json:"servings_remaining"`
	Ingredients       datatypes.JSONSlice[nutrition.Portion] `gorm:"column:ingredients" json:"ingredients"`
	Total             nutrition.Facts                        `gorm:"embedded;embeddedPrefix:total_" json:"total"`
	PerServing        nutrition.Facts                        `gorm:"embedded;embeddedPrefix:per_serving_" json:"per_serving"`
	CreatedAt         time.Time                              `gorm:"column:created_at;not null" json:"created_date"`
}

func (Meal) TableName() string { return "meals" }

// IsLegacy reports whether the meal predates servings tracking.
func (m Meal) IsLegacy() bool {
	return !m.ServingsRemaining.IsTracked()
}
