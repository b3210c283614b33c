package repository

import (
	"context"

	"github.com/smallbiznis/mealplan/internal/meallog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) NextID(ctx context.Context, db *gorm.DB) (int64, error) {
	var next int64
	err := db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(id), 0) + 1 FROM meal_log`).
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, date string) ([]domain.Entry, error) {
	stmt := db.WithContext(ctx).Model(&domain.Entry{})
	if date != "" {
		stmt = stmt.Where("log_date = ?", date)
	}

	var items []domain.Entry
	if err := stmt.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
