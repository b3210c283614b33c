package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/mealplan/internal/config"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
)

type Service interface {
	AddEntry(ctx context.Context, req AddRequest) (*Entry, error)
	ListForDate(ctx context.Context, date string) ([]Entry, error)

	// RemoveEntry is a no-op when no entry matches both date and id.
	RemoveEntry(ctx context.Context, date string, id int64) error

	// ClearDate returns the number of entries removed.
	ClearDate(ctx context.Context, date string) (int64, error)

	Summary(ctx context.Context, date string) (*Summary, error)
}

type AddRequest struct {
	Date     string  `json:"date"`
	MealID   int64   `json:"meal_id"`
	Servings float64 `json:"servings"`
}

// Summary aggregates a day's entries against the configured goals.
type Summary struct {
	Date          string          `json:"date"`
	Entries       []Entry         `json:"entries"`
	TotalServings float64         `json:"total_servings"`
	Totals        nutrition.Facts `json:"totals"`
	Goals         config.Goals    `json:"goals"`
	Progress      []GoalProgress  `json:"progress"`
}

type GoalProgress struct {
	Nutrient string  `json:"nutrient"`
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"`
	Status   string  `json:"status"`
}

const (
	StatusMet  = "met"
	StatusNear = "near"
	StatusLow  = "low"
)

var (
	ErrMealNotFound         = mealdomain.ErrNotFound
	ErrInvalidDate          = errors.New("invalid_date")
	ErrInvalidMealID        = errors.New("invalid_meal_id")
	ErrInvalidServings      = errors.New("invalid_servings_consumed")
	ErrInsufficientServings = errors.New("insufficient_servings")
)

// InsufficientServingsError reports a consumption request larger than the
// meal's tracked remaining servings.
type InsufficientServingsError struct {
	MealID    int64
	Requested float64
	Available float64
}

func (e *InsufficientServingsError) Error() string {
	return fmt.Sprintf("insufficient servings for meal %d: requested %g, available %g", e.MealID, e.Requested, e.Available)
}

func (e *InsufficientServingsError) Is(target error) bool {
	return target == ErrInsufficientServings
}

// ParseDate validates a YYYY-MM-DD calendar day and returns it normalized.
func ParseDate(raw string) (string, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(time.DateOnly), nil
}
