package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/mealplan/internal/consumption/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) NextID(ctx context.Context, db *gorm.DB) (int64, error) {
	var next int64
	err := db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(id), 0) + 1 FROM consumption_entries`).
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

func (r *repo) ListByDate(ctx context.Context, db *gorm.DB, date string) ([]domain.Entry, error) {
	var items []domain.Entry
	err := db.WithContext(ctx).
		Where("entry_date = ?", date).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByDateAndID(ctx context.Context, db *gorm.DB, date string, id int64) (*domain.Entry, error) {
	var entry domain.Entry
	err := db.WithContext(ctx).
		Where("entry_date = ? AND id = ?", date, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Entry{}).Error
}

func (r *repo) DeleteByDate(ctx context.Context, db *gorm.DB, date string) (int64, error) {
	res := db.WithContext(ctx).
		Where("entry_date = ?", date).
		Delete(&domain.Entry{})
	return res.RowsAffected, res.Error
}
