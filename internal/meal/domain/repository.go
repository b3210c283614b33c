package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, meal *Meal) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Meal, error)
	List(ctx context.Context, db *gorm.DB) ([]Meal, error)
	NextID(ctx context.Context, db *gorm.DB) (int64, error)
	UpdateRemaining(ctx context.Context, db *gorm.DB, id int64, remaining RemainingServings) error
}
