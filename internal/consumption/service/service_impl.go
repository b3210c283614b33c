package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/consumption/domain"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"github.com/smallbiznis/mealplan/internal/observability/logger"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"github.com/smallbiznis/mealplan/internal/writelock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Meals   mealdomain.Service
	Locker  writelock.Locker
	Goals   *config.GoalsHolder `optional:"true"`
	Clock   clock.Clock         `optional:"true"`
	Metrics *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	meals   mealdomain.Service
	locker  writelock.Locker
	goals   *config.GoalsHolder
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	locker := p.Locker
	if locker == nil {
		locker = writelock.NewLocalLocker()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("consumption.service"),
		repo:    p.Repo,
		meals:   p.Meals,
		locker:  locker,
		goals:   p.Goals,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) AddEntry(ctx context.Context, req domain.AddRequest) (*domain.Entry, error) {
	date, err := domain.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return nil, err
	}
	if req.MealID <= 0 {
		return nil, domain.ErrInvalidMealID
	}
	if req.Servings <= 0 {
		return nil, domain.ErrInvalidServings
	}

	var entry *domain.Entry
	err = s.locker.WithLock(ctx, writelock.LedgerKey, func(ctx context.Context) error {
		meal, err := s.resolveMeal(ctx, req.MealID)
		if err != nil {
			return err
		}

		if available, tracked := meal.ServingsRemaining.Get(); tracked {
			if decimal.NewFromFloat(req.Servings).GreaterThan(decimal.NewFromFloat(available)) {
				s.metrics.RecordInsufficientServings(ctx)
				return &domain.InsufficientServingsError{
					MealID:    meal.ID,
					Requested: req.Servings,
					Available: available,
				}
			}
		}

		id, err := s.repo.NextID(ctx, s.db)
		if err != nil {
			return err
		}

		entry = &domain.Entry{
			ID:               id,
			Date:             date,
			MealID:           meal.ID,
			MealName:         meal.Name,
			ServingsConsumed: req.Servings,
			Consumed:         nutrition.Multiply(meal.PerServing, req.Servings),
			AddedAt:          s.clock.Now(),
		}
		if err := s.repo.Create(ctx, s.db, entry); err != nil {
			return err
		}

		// The entry is committed; a failed decrement only leaves the counter stale.
		s.adjust(ctx, metrics.ActionAdd, meal.ID, -req.Servings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordConsumption(ctx, metrics.ActionAdd, 1)
	s.metrics.RecordServingsConsumed(ctx, entry.ServingsConsumed)
	logger.WithMeal(s.log, entry.MealID).Info("consumption entry added",
		zap.Int64("entry_id", entry.ID),
		zap.String("date", entry.Date),
		zap.Float64("servings", entry.ServingsConsumed),
	)
	return entry, nil
}

func (s *Service) ListForDate(ctx context.Context, date string) ([]domain.Entry, error) {
	day, ok := lookupDate(date)
	if !ok {
		return []domain.Entry{}, nil
	}
	return s.listForDate(ctx, day)
}

func (s *Service) listForDate(ctx context.Context, day string) ([]domain.Entry, error) {
	items, err := s.repo.ListByDate(ctx, s.db, day)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Entry{}
	}
	return items, nil
}

// lookupDate normalizes a date used to find existing entries. A value that
// is not a calendar day matches nothing.
func lookupDate(raw string) (string, bool) {
	day, err := domain.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return day, true
}

func (s *Service) RemoveEntry(ctx context.Context, date string, id int64) error {
	date, ok := lookupDate(date)
	if !ok || id <= 0 {
		return nil
	}

	return s.locker.WithLock(ctx, writelock.LedgerKey, func(ctx context.Context) error {
		entry, err := s.repo.FindByDateAndID(ctx, s.db, date, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}

		if err := s.repo.Delete(ctx, s.db, entry.ID); err != nil {
			return err
		}
		s.adjust(ctx, metrics.ActionRemove, entry.MealID, entry.ServingsConsumed)

		s.metrics.RecordConsumption(ctx, metrics.ActionRemove, 1)
		s.log.Info("consumption entry removed",
			zap.Int64("entry_id", entry.ID),
			zap.String("date", date),
			zap.Int64("meal_id", entry.MealID),
		)
		return nil
	})
}

func (s *Service) ClearDate(ctx context.Context, date string) (int64, error) {
	date, ok := lookupDate(date)
	if !ok {
		return 0, nil
	}

	var removed int64
	err := s.locker.WithLock(ctx, writelock.LedgerKey, func(ctx context.Context) error {
		entries, err := s.repo.ListByDate(ctx, s.db, date)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		for _, entry := range entries {
			s.adjust(ctx, metrics.ActionClear, entry.MealID, entry.ServingsConsumed)
		}

		removed, err = s.repo.DeleteByDate(ctx, s.db, date)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.metrics.RecordConsumption(ctx, metrics.ActionClear, int(removed))
	s.log.Info("consumption date cleared", zap.String("date", date), zap.Int64("entries", removed))
	return removed, nil
}

func (s *Service) Summary(ctx context.Context, date string) (*domain.Summary, error) {
	entries := []domain.Entry{}
	day, ok := lookupDate(date)
	if ok {
		var err error
		if entries, err = s.listForDate(ctx, day); err != nil {
			return nil, err
		}
	} else {
		day = strings.TrimSpace(date)
	}

	facts := make([]nutrition.Facts, 0, len(entries))
	servings := decimal.Zero
	for _, entry := range entries {
		facts = append(facts, entry.Consumed)
		servings = servings.Add(decimal.NewFromFloat(entry.ServingsConsumed))
	}
	totals := nutrition.Sum(facts...)
	goals := s.goals.Get()

	return &domain.Summary{
		Date:          day,
		Entries:       entries,
		TotalServings: nutrition.Round(servings.InexactFloat64()),
		Totals:        totals,
		Goals:         goals,
		Progress: []domain.GoalProgress{
			progress("calories", totals.Calories, goals.Calories),
			progress("protein", totals.Protein, goals.Protein),
			progress("fat_total", totals.FatTotal, goals.FatTotal),
			progress("carbohydrate", totals.Carbohydrate, goals.Carbohydrate),
			progress("dietary_fibre_g", totals.DietaryFibre, goals.DietaryFibre),
		},
	}, nil
}

func (s *Service) resolveMeal(ctx context.Context, id int64) (*mealdomain.Meal, error) {
	meal, err := s.meals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mealdomain.ErrInvalidID) {
			return nil, domain.ErrMealNotFound
		}
		return nil, err
	}
	return meal, nil
}

// adjust applies delta to the meal's remaining servings after the ledger
// write has committed. Failures are logged and counted, never returned.
func (s *Service) adjust(ctx context.Context, action string, mealID int64, delta float64) {
	res, err := s.meals.AdjustRemaining(ctx, mealID, delta)
	if err != nil {
		reason := metrics.ReasonStoreError
		if errors.Is(err, mealdomain.ErrNotFound) {
			reason = metrics.ReasonMealMissing
		}
		s.metrics.RecordRestoreSkipped(ctx, action, reason)
		s.log.Warn("servings adjustment skipped",
			zap.String("action", action),
			zap.Int64("meal_id", mealID),
			zap.Float64("delta", delta),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	if res.Skipped {
		s.metrics.RecordRestoreSkipped(ctx, action, metrics.ReasonLegacyMeal)
		s.log.Debug("legacy meal, servings not tracked",
			zap.String("action", action),
			zap.Int64("meal_id", mealID),
		)
	}
}

func progress(nutrient string, consumed, goal float64) domain.GoalProgress {
	p := domain.GoalProgress{
		Nutrient: nutrient,
		Consumed: consumed,
		Goal:     goal,
	}
	if goal > 0 {
		pct := decimal.NewFromFloat(consumed).
			Div(decimal.NewFromFloat(goal)).
			Mul(decimal.NewFromInt(100))
		if pct.GreaterThan(decimal.NewFromInt(100)) {
			pct = decimal.NewFromInt(100)
		}
		p.Percent = pct.Round(1).InexactFloat64()
	}
	switch {
	case p.Percent >= 100:
		p.Status = domain.StatusMet
	case p.Percent >= 75:
		p.Status = domain.StatusNear
	default:
		p.Status = domain.StatusLow
	}
	return p
}
