package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	NextID(ctx context.Context, db *gorm.DB) (int64, error)
	Create(ctx context.Context, db *gorm.DB, entry *Entry) error
	ListByDate(ctx context.Context, db *gorm.DB, date string) ([]Entry, error)
	FindByDateAndID(ctx context.Context, db *gorm.DB, date string, id int64) (*Entry, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) error
	DeleteByDate(ctx context.Context, db *gorm.DB, date string) (int64, error)
}
