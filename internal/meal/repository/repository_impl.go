package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/mealplan/internal/meal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, meal *domain.Meal) error {
	if meal == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(meal).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Meal, error) {
	var m domain.Meal
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Meal, error) {
	var items []domain.Meal
	if err := db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) NextID(ctx context.Context, db *gorm.DB) (int64, error) {
	var maxID int64
	err := db.WithContext(ctx).Raw(`SELECT COALESCE(MAX(id), 0) FROM meals`).Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

func (r *repo) UpdateRemaining(ctx context.Context, db *gorm.DB, id int64, remaining domain.RemainingServings) error {
	return db.WithContext(ctx).Exec(
		`UPDATE meals SET servings_remaining = ? WHERE id = ?`,
		remaining,
		id,
	).Error
}
