package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/mealplan/internal/nutrition"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Meal, error)
	GetByID(ctx context.Context, id int64) (*Meal, error)
	List(ctx context.Context) ([]Meal, error)

	// AdjustRemaining restores (delta > 0) or consumes (delta < 0) servings.
	// Legacy meals are skipped, never failed. The stored value never drops
	// below zero.
	AdjustRemaining(ctx context.Context, id int64, delta float64) (*AdjustResult, error)
}

type CreateRequest struct {
	Name        string              `json:"meal_name"`
	Servings    int                 `json:"servings"`
	Ingredients []nutrition.Portion `json:"ingredients"`
}

type AdjustResult struct {
	MealID    int64   `json:"meal_id"`
	Skipped   bool    `json:"skipped"`
	Previous  float64 `json:"previous"`
	Remaining float64 `json:"remaining"`
	Clamped   bool    `json:"clamped"`
}

var (
	ErrNotFound           = errors.New("meal_not_found")
	ErrInvalidID          = errors.New("invalid_meal_id")
	ErrInvalidName        = errors.New("invalid_meal_name")
	ErrInvalidServings    = errors.New("invalid_servings")
	ErrInvalidIngredients = errors.New("invalid_ingredients")
	ErrInvalidQuantity    = nutrition.ErrInvalidQuantity
	ErrIngredientNotFound = nutrition.ErrNotFound
)
