package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/meal/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"github.com/smallbiznis/mealplan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCreateAttempts = 3

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	Aggregator *nutrition.Aggregator
	Clock      clock.Clock       `optional:"true"`
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	aggregator *nutrition.Aggregator
	clock      clock.Clock
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("meal.service"),
		repo:       p.Repo,
		aggregator: p.Aggregator,
		clock:      clk,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Meal, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Servings < 1 {
		return nil, domain.ErrInvalidServings
	}
	if len(req.Ingredients) == 0 {
		return nil, domain.ErrInvalidIngredients
	}

	portions := make([]nutrition.Portion, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		itemName := strings.TrimSpace(item.Name)
		if itemName == "" {
			return nil, domain.ErrInvalidIngredients
		}
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		portions = append(portions, nutrition.Portion{Name: itemName, Quantity: item.Quantity})
	}

	total, err := s.aggregator.Total(ctx, portions)
	if err != nil {
		return nil, err
	}

	meal := &domain.Meal{
		Name:              name,
		Servings:          req.Servings,
		ServingsRemaining: domain.Tracked(float64(req.Servings)),
		Ingredients:       portions,
		Total:             total,
		PerServing:        nutrition.PerServing(total, req.Servings),
		CreatedAt:         s.clock.Now(),
	}

	// Concurrent writers may race on max+1; retry with a fresh id.
	for attempt := 1; ; attempt++ {
		id, err := s.repo.NextID(ctx, s.db)
		if err != nil {
			return nil, err
		}
		meal.ID = id

		err = s.repo.Create(ctx, s.db, meal)
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) || attempt >= maxCreateAttempts {
			return nil, fmt.Errorf("create meal: %w", err)
		}
		s.log.Warn("meal id collision, retrying", zap.Int64("meal_id", id), zap.Int("attempt", attempt))
	}

	s.metrics.RecordMealCreated(ctx)
	s.log.Info("meal created",
		zap.Int64("meal_id", meal.ID),
		zap.Int("servings", meal.Servings),
		zap.Int("ingredients", len(portions)),
	)
	return meal, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Meal, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	meal, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if meal == nil {
		return nil, domain.ErrNotFound
	}
	return meal, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Meal, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Meal{}
	}
	return items, nil
}

func (s *Service) AdjustRemaining(ctx context.Context, id int64, delta float64) (*domain.AdjustResult, error) {
	meal, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current, tracked := meal.ServingsRemaining.Get()
	if !tracked {
		return &domain.AdjustResult{MealID: id, Skipped: true}, nil
	}

	// Stored unrounded so the counter moves by exactly the amounts the
	// ledger records.
	next := decimal.NewFromFloat(current).Add(decimal.NewFromFloat(delta))
	clamped := false
	if next.IsNegative() {
		next = decimal.Zero
		clamped = true
	}
	remaining := next.InexactFloat64()

	if err := s.repo.UpdateRemaining(ctx, s.db, id, domain.Tracked(remaining)); err != nil {
		return nil, fmt.Errorf("update servings remaining for meal %d: %w", id, err)
	}

	if clamped {
		s.log.Warn("servings remaining clamped at zero",
			zap.Int64("meal_id", id),
			zap.Float64("previous", current),
			zap.Float64("delta", delta),
		)
	}

	return &domain.AdjustResult{
		MealID:    id,
		Previous:  current,
		Remaining: remaining,
		Clamped:   clamped,
	}, nil
}
