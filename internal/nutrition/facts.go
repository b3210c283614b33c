// Package nutrition scales per-unit ingredient nutrients and aggregates them
// into meal totals and per-serving figures. All results are rounded to two
// decimal places.
package nutrition

import (
	"github.com/shopspring/decimal"
)

const precision = 2

// Facts is the set of tracked nutrients. The same struct backs ingredient
// per-unit values, meal totals, per-serving values and consumed amounts; the
// gorm embedding prefix decides which column family it maps to.
type Facts struct {
	Calories     float64 `gorm:"column:calories;not null;default:0" json:"calories"`
	Protein      float64 `gorm:"column:protein;not null;default:0" json:"protein"`
	FatTotal     float64 `gorm:"column:fat_total;not null;default:0" json:"fat_total"`
	FatSaturated float64 `gorm:"column:fat_saturated;not null;default:0" json:"fat_saturated"`
	Carbohydrate float64 `gorm:"column:carbohydrate;not null;default:0" json:"carbohydrate"`
	Sugars       float64 `gorm:"column:sugars;not null;default:0" json:"sugars"`
	DietaryFibre float64 `gorm:"column:dietary_fibre_g;not null;default:0" json:"dietary_fibre_g"`
	Sodium       float64 `gorm:"column:sodium_mg;not null;default:0" json:"sodium_mg"`
	Calcium      float64 `gorm:"column:calcium_mg;not null;default:0" json:"calcium_mg"`
}

// Round rounds v to two decimal places, half away from zero.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(precision).InexactFloat64()
}

func (f Facts) decimals() [9]decimal.Decimal {
	return [9]decimal.Decimal{
		decimal.NewFromFloat(f.Calories),
		decimal.NewFromFloat(f.Protein),
		decimal.NewFromFloat(f.FatTotal),
		decimal.NewFromFloat(f.FatSaturated),
		decimal.NewFromFloat(f.Carbohydrate),
		decimal.NewFromFloat(f.Sugars),
		decimal.NewFromFloat(f.DietaryFibre),
		decimal.NewFromFloat(f.Sodium),
		decimal.NewFromFloat(f.Calcium),
	}
}

func fromDecimals(d [9]decimal.Decimal) Facts {
	v := func(i int) float64 { return d[i].Round(precision).InexactFloat64() }
	return Facts{
		Calories:     v(0),
		Protein:      v(1),
		FatTotal:     v(2),
		FatSaturated: v(3),
		Carbohydrate: v(4),
		Sugars:       v(5),
		DietaryFibre: v(6),
		Sodium:       v(7),
		Calcium:      v(8),
	}
}

func (f Facts) apply(fn func(decimal.Decimal) decimal.Decimal) Facts {
	d := f.decimals()
	for i := range d {
		d[i] = fn(d[i])
	}
	return fromDecimals(d)
}

// Scale converts per-unit values into the amount for quantity, where the
// per-unit values are measured per unitSize.
func Scale(perUnit Facts, unitSize, quantity float64) (Facts, error) {
	if unitSize <= 0 {
		return Facts{}, ErrInvalidUnitSize
	}
	if quantity < 0 {
		return Facts{}, ErrInvalidQuantity
	}
	q := decimal.NewFromFloat(quantity)
	u := decimal.NewFromFloat(unitSize)
	return perUnit.apply(func(v decimal.Decimal) decimal.Decimal {
		return v.Mul(q).Div(u)
	}), nil
}

// Sum adds every item field by field and rounds after summation.
func Sum(items ...Facts) Facts {
	var acc [9]decimal.Decimal
	for i := range acc {
		acc[i] = decimal.Zero
	}
	for _, item := range items {
		d := item.decimals()
		for i := range acc {
			acc[i] = acc[i].Add(d[i])
		}
	}
	return fromDecimals(acc)
}

// PerServing divides total by servings. A servings value below one is
// treated as a single serving rather than rejected.
func PerServing(total Facts, servings int) Facts {
	if servings < 1 {
		servings = 1
	}
	s := decimal.NewFromInt(int64(servings))
	return total.apply(func(v decimal.Decimal) decimal.Decimal {
		return v.Div(s)
	})
}

// Multiply scales every field by factor.
func Multiply(f Facts, factor float64) Facts {
	m := decimal.NewFromFloat(factor)
	return f.apply(func(v decimal.Decimal) decimal.Decimal {
		return v.Mul(m)
	})
}

// IsZero reports whether every field is zero.
func (f Facts) IsZero() bool {
	return f == Facts{}
}

// Add returns the elementwise sum of a and b.
func Add(a, b Facts) Facts {
	return Sum(a, b)
}
