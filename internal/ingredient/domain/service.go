package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/mealplan/internal/nutrition"
)

type Service interface {
	List(ctx context.Context) ([]Ingredient, error)
	Search(ctx context.Context, query string) ([]Ingredient, error)
	GetByName(ctx context.Context, name string) (*Ingredient, error)
	Calculate(ctx context.Context, req CalculateRequest) (*Calculation, error)

	// Lookup satisfies nutrition.Lookup so the catalog can back an Aggregator.
	Lookup(ctx context.Context, name string) (*nutrition.Ingredient, error)
}

type CalculateRequest struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Calculation is the nutrient breakdown for a quantity of one ingredient.
type Calculation struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	UnitDef  string  `json:"unit_def"`

	nutrition.Facts
}

var (
	ErrNotFound        = nutrition.ErrNotFound
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidQuantity = nutrition.ErrInvalidQuantity
)
