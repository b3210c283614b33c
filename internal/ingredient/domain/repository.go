package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB) ([]Ingredient, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Ingredient, error)
	Search(ctx context.Context, db *gorm.DB, query string) ([]Ingredient, error)
	Upsert(ctx context.Context, db *gorm.DB, items []Ingredient) error
}
