package domain

import (
	"time"

	"github.com/smallbiznis/mealplan/internal/nutrition"
)

// Entry records servings of a meal eaten on a calendar day. Consumed holds
// the meal's per-serving nutrition multiplied by ServingsConsumed at the
// time the entry was added.
type Entry struct {
	ID               int64           `gorm:"primaryKey;autoIncrement:false" json:"entry_id"`
	Date             string          `gorm:"column:entry_date;type:varchar(10);not null;index" json:"date"`
	MealID           int64           `gorm:"column:meal_id;not null;index" json:"meal_id"`
	MealName         string          `gorm:"column:meal_name;type:varchar(255)" json:"meal_name"`
	ServingsConsumed float64         `gorm:"column:servings_consumed;not null" json:"servings_consumed"`
	Consumed         nutrition.Facts `gorm:"embedded;embeddedPrefix:consumed_" json:"consumed"`
	AddedAt          time.Time       `gorm:"column:added_at;not null" json:"added_at"`
}

func (Entry) TableName() string { return "consumption_entries" }
