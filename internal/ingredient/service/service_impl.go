package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/mealplan/internal/cache"
	"github.com/smallbiznis/mealplan/internal/ingredient/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Cache cache.IngredientCache `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	cache cache.IngredientCache
}

func New(p Params) domain.Service {
	c := p.Cache
	if c == nil {
		c = cache.NewIngredientCache()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ingredient.service"),
		repo:  p.Repo,
		cache: c,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Ingredient, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Ingredient{}
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]domain.Ingredient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	items, err := s.repo.Search(ctx, s.db, query)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Ingredient{}
	}
	return items, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (*domain.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	item, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) Calculate(ctx context.Context, req domain.CalculateRequest) (*domain.Calculation, error) {
	if req.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	ing, err := s.Lookup(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	facts, err := nutrition.Scale(ing.PerUnit, ing.UnitSize, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("calculate %q: %w", ing.Name, err)
	}
	return &domain.Calculation{
		Name:     ing.Name,
		Quantity: req.Quantity,
		UnitDef:  ing.UnitDef,
		Facts:    facts,
	}, nil
}

func (s *Service) Lookup(ctx context.Context, name string) (*nutrition.Ingredient, error) {
	name = strings.TrimSpace(name)
	if cached, ok := s.cache.Get(name); ok {
		return cached, nil
	}
	item, err := s.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidName) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	ing := item.ToNutrition()
	s.cache.Set(name, ing)
	s.log.Debug("ingredient cached", zap.String("name", name))
	return ing, nil
}
