package domain

import (
	"time"

	"github.com/smallbiznis/mealplan/internal/nutrition"
	"gorm.io/datatypes"
)

// Entry is an immutable snapshot of a meal at the time it was logged.
type Entry struct {
	ID          int64                                  `gorm:"primaryKey;autoIncrement:false" json:"log_id"`
	Date        string                                 `gorm:"column:log_date;type:varchar(10);not null;index" json:"date"`
	MealTime    string                                 `gorm:"column:meal_time;type:varchar(64);not null" json:"meal_time"`
	MealID      int64                                  `gorm:"column:meal_id;not null" json:"meal_id"`
	MealName    string                                 `gorm:"column:meal_name;type:varchar(255)" json:"meal_name"`
	Ingredients datatypes.JSONSlice[nutrition.Portion] `gorm:"column:ingredients" json:"ingredients"`
	Servings    int                                    `gorm:"column:servings" json:"servings"`
	Total       nutrition.Facts                        `gorm:"embedded;embeddedPrefix:total_" json:"total"`
	PerServing  nutrition.Facts                        `gorm:"embedded;embeddedPrefix:per_serving_" json:"per_serving"`
	Notes       string                                 `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt   time.Time                              `gorm:"column:created_at;not null" json:"created_at"`
}

func (Entry) TableName() string { return "meal_log" }
