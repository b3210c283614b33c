package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/mealplan/internal/ingredient/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Ingredient, error) {
	var items []domain.Ingredient
	if err := db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.Ingredient, error) {
	var item domain.Ingredient
	err := db.WithContext(ctx).Where("name = ?", name).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, query string) ([]domain.Ingredient, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var items []domain.Ingredient
	err := db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, items []domain.Ingredient) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		CreateInBatches(items, 200).Error
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(value)
}
