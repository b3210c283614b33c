package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	NextID(ctx context.Context, db *gorm.DB) (int64, error)
	Create(ctx context.Context, db *gorm.DB, entry *Entry) error
	List(ctx context.Context, db *gorm.DB, date string) ([]Entry, error)
}
