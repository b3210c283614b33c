package domain

import (
	"context"
	"errors"

	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
)

// Service is the append-only legacy consumption log. It never reads or
// writes a meal's remaining servings.
type Service interface {
	Append(ctx context.Context, req AppendRequest) (*Entry, error)

	// List returns every entry, or only those for date when it is set.
	List(ctx context.Context, date string) ([]Entry, error)
}

type AppendRequest struct {
	MealID   int64  `json:"meal_id"`
	MealTime string `json:"meal_time"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

var (
	ErrMealNotFound    = mealdomain.ErrNotFound
	ErrInvalidMealID   = errors.New("invalid_meal_id")
	ErrInvalidMealTime = errors.New("invalid_meal_time")
	ErrInvalidDate     = errors.New("invalid_date")
)
