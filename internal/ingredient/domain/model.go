package domain

import (
	"github.com/smallbiznis/mealplan/internal/nutrition"
)

// Ingredient is a catalog record. Nutrient values are measured per UnitSize
// of UnitDef (for example 100 g).
type Ingredient struct {
	Name     string  `gorm:"primaryKey;type:varchar(255)" json:"name"`
	UnitSize float64 `gorm:"column:unit_size;not null" json:"unit_size"`
	UnitDef  string  `gorm:"column:unit_def;type:varchar(64);not null" json:"unit_def"`

	nutrition.Facts `gorm:"embedded"`
}

func (Ingredient) TableName() string { return "ingredients" }

func (i Ingredient) ToNutrition() *nutrition.Ingredient {
	return &nutrition.Ingredient{
		Name:     i.Name,
		UnitSize: i.UnitSize,
		UnitDef:  i.UnitDef,
		PerUnit:  i.Facts,
	}
}
