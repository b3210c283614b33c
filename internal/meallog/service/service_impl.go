package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/mealplan/internal/clock"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	"github.com/smallbiznis/mealplan/internal/meallog/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"github.com/smallbiznis/mealplan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxAppendAttempts = 3

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Meals   mealdomain.Service
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	meals   mealdomain.Service
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("meallog.service"),
		repo:    p.Repo,
		meals:   p.Meals,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) Append(ctx context.Context, req domain.AppendRequest) (*domain.Entry, error) {
	if req.MealID <= 0 {
		return nil, domain.ErrInvalidMealID
	}
	mealTime := strings.TrimSpace(req.MealTime)
	if mealTime == "" {
		return nil, domain.ErrInvalidMealTime
	}

	now := s.clock.Now()
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format(time.DateOnly)
	} else {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		date = parsed.Format(time.DateOnly)
	}

	meal, err := s.meals.GetByID(ctx, req.MealID)
	if err != nil {
		if errors.Is(err, mealdomain.ErrInvalidID) {
			return nil, domain.ErrMealNotFound
		}
		return nil, err
	}

	entry := &domain.Entry{
		Date:        date,
		MealTime:    mealTime,
		MealID:      meal.ID,
		MealName:    meal.Name,
		Ingredients: append([]nutrition.Portion(nil), meal.Ingredients...),
		Servings:    meal.Servings,
		Total:       meal.Total,
		PerServing:  meal.PerServing,
		Notes:       strings.TrimSpace(req.Notes),
		CreatedAt:   now,
	}

	for attempt := 1; ; attempt++ {
		id, err := s.repo.NextID(ctx, s.db)
		if err != nil {
			return nil, err
		}
		entry.ID = id

		err = s.repo.Create(ctx, s.db, entry)
		if err == nil {
			break
		}
		if !db.IsDuplicateKeyErr(err) || attempt >= maxAppendAttempts {
			return nil, err
		}
	}

	s.metrics.RecordMealLogged(ctx, mealTime)
	s.log.Info("meal logged",
		zap.Int64("log_id", entry.ID),
		zap.Int64("meal_id", entry.MealID),
		zap.String("date", entry.Date),
	)
	return entry, nil
}

func (s *Service) List(ctx context.Context, date string) ([]domain.Entry, error) {
	date = strings.TrimSpace(date)
	if date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		date = parsed.Format(time.DateOnly)
	}

	items, err := s.repo.List(ctx, s.db, date)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Entry{}
	}
	return items, nil
}
