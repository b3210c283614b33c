package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/consumption/domain"
	"github.com/smallbiznis/mealplan/internal/consumption/repository"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	mealrepository "github.com/smallbiznis/mealplan/internal/meal/repository"
	mealservice "github.com/smallbiznis/mealplan/internal/meal/service"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"github.com/smallbiznis/mealplan/internal/writelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const day = "2024-05-01"

type catalogStub struct {
	items map[string]*nutrition.Ingredient
}

func (c *catalogStub) Lookup(ctx context.Context, name string) (*nutrition.Ingredient, error) {
	if item, ok := c.items[name]; ok {
		return item, nil
	}
	return nil, nutrition.ErrNotFound
}

type fixture struct {
	db    *gorm.DB
	meals mealdomain.Service
	svc   domain.Service
	clock *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:consumption_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&mealdomain.Meal{}, &domain.Entry{}))

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	catalog := &catalogStub{items: map[string]*nutrition.Ingredient{
		"Rice": {Name: "Rice", UnitSize: 100, UnitDef: "g", PerUnit: nutrition.Facts{Calories: 130, Protein: 2.7, FatTotal: 0.3, Carbohydrate: 28, DietaryFibre: 0.4}},
		"Oats": {Name: "Oats", UnitSize: 40, UnitDef: "g", PerUnit: nutrition.Facts{Calories: 150, Protein: 5, FatTotal: 3, Carbohydrate: 27, DietaryFibre: 4}},
	}}

	meals := mealservice.New(mealservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Repo:       mealrepository.Provide(),
		Aggregator: nutrition.NewAggregator(catalog),
		Clock:      clk,
	})

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repository.Provide(),
		Meals:  meals,
		Locker: writelock.NewLocalLocker(),
		Goals:  config.NewStaticGoalsHolder(config.DefaultGoals()),
		Clock:  clk,
	})
	return &fixture{db: db, meals: meals, svc: svc, clock: clk}
}

func (f *fixture) createRiceBowl(t *testing.T) *mealdomain.Meal {
	t.Helper()
	meal, err := f.meals.Create(context.Background(), mealdomain.CreateRequest{
		Name:        "Rice bowl",
		Servings:    2,
		Ingredients: []nutrition.Portion{{Name: "Rice", Quantity: 300}},
	})
	require.NoError(t, err)
	return meal
}

func (f *fixture) remaining(t *testing.T, id int64) (float64, bool) {
	t.Helper()
	meal, err := f.meals.GetByID(context.Background(), id)
	require.NoError(t, err)
	return meal.ServingsRemaining.Get()
}

func TestRiceBowlScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)
	assert.Equal(t, 390.0, meal.Total.Calories)
	assert.Equal(t, 195.0, meal.PerServing.Calories)

	entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 1.5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, "Rice bowl", entry.MealName)
	assert.Equal(t, 292.5, entry.Consumed.Calories)
	assert.Equal(t, 6.08, entry.Consumed.Protein)

	remaining, tracked := f.remaining(t, meal.ID)
	assert.True(t, tracked)
	assert.Equal(t, 0.5, remaining)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientServings)
	var insufficient *domain.InsufficientServingsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1.0, insufficient.Requested)
	assert.Equal(t, 0.5, insufficient.Available)

	entries, err := f.svc.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	remaining, _ = f.remaining(t, meal.ID)
	assert.Equal(t, 0.5, remaining)

	removed, err := f.svc.ClearDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, _ = f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)
	entries, err = f.svc.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddEntryConsumesExactlyRemaining(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	_, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 2})
	require.NoError(t, err)

	remaining, tracked := f.remaining(t, meal.ID)
	assert.True(t, tracked)
	assert.Equal(t, 0.0, remaining)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.01})
	assert.ErrorIs(t, err, domain.ErrInsufficientServings)
}

func TestAddEntryValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	_, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: "2024-13-01", MealID: meal.ID, Servings: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: "yesterday", MealID: meal.ID, Servings: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidServings)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidServings)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: 99, Servings: 1})
	assert.ErrorIs(t, err, domain.ErrMealNotFound)

	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: 0, Servings: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidMealID)

	entries, err := f.svc.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, entries)
	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)
}

func TestLegacyMealIsNeverLimited(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	legacy := &mealdomain.Meal{
		ID:         5,
		Name:       "Grandma's stew",
		Servings:   2,
		PerServing: nutrition.Facts{Calories: 300},
		CreatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.db.Create(legacy).Error)

	for i := 0; i < 3; i++ {
		entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: 5, Servings: 5})
		require.NoError(t, err)
		assert.Equal(t, 1500.0, entry.Consumed.Calories)
	}

	_, tracked := f.remaining(t, 5)
	assert.False(t, tracked)

	removed, err := f.svc.ClearDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, tracked = f.remaining(t, 5)
	assert.False(t, tracked)
}

func TestEntryIDsAreUniqueAcrossDates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal, err := f.meals.Create(ctx, mealdomain.CreateRequest{
		Name:        "Porridge",
		Servings:    10,
		Ingredients: []nutrition.Portion{{Name: "Oats", Quantity: 80}},
	})
	require.NoError(t, err)

	a, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: "2024-05-01", MealID: meal.ID, Servings: 1})
	require.NoError(t, err)
	b, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: "2024-05-02", MealID: meal.ID, Servings: 1})
	require.NoError(t, err)
	c, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: "2024-05-01", MealID: meal.ID, Servings: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, int64(3), c.ID)

	entries, err := f.svc.ListForDate(ctx, "2024-05-01")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].ID)
	assert.Equal(t, c.ID, entries[1].ID)

	_, err = f.svc.ClearDate(ctx, "2024-05-01")
	require.NoError(t, err)

	entries, err = f.svc.ListForDate(ctx, "2024-05-02")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 9.0, remaining)
}

func TestRemoveEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.5})
	require.NoError(t, err)

	// wrong date does not match
	require.NoError(t, f.svc.RemoveEntry(ctx, "2024-05-02", entry.ID))
	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 1.5, remaining)

	require.NoError(t, f.svc.RemoveEntry(ctx, day, 999))

	require.NoError(t, f.svc.RemoveEntry(ctx, day, entry.ID))
	remaining, _ = f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)

	entries, err := f.svc.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// second removal is a no-op and does not restore again
	require.NoError(t, f.svc.RemoveEntry(ctx, day, entry.ID))
	remaining, _ = f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)

	require.NoError(t, f.svc.RemoveEntry(ctx, "not-a-date", entry.ID))
}

func TestMalformedDateHasNoEntries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.5})
	require.NoError(t, err)

	for _, date := range []string{"not-a-date", "2024-13-40", "01/05/2024", ""} {
		entries, err := f.svc.ListForDate(ctx, date)
		require.NoError(t, err, date)
		assert.NotNil(t, entries, date)
		assert.Empty(t, entries, date)

		require.NoError(t, f.svc.RemoveEntry(ctx, date, entry.ID), date)

		removed, err := f.svc.ClearDate(ctx, date)
		require.NoError(t, err, date)
		assert.Equal(t, int64(0), removed, date)
	}

	entries, err := f.svc.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 1.5, remaining)
}

func TestTinyServingsAreCharged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	succeeded := 0
	for i := 0; i < 1000; i++ {
		_, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.004})
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInsufficientServings)
		var insufficient *domain.InsufficientServingsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 0.0, insufficient.Available)
	}

	assert.Equal(t, 500, succeeded)
	remaining, tracked := f.remaining(t, meal.ID)
	assert.True(t, tracked)
	assert.Equal(t, 0.0, remaining)

	entries, err := f.svc.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, entries, 500)
}

func TestRemoveRestoresExactAmount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.005})
	require.NoError(t, err)
	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 1.995, remaining)

	require.NoError(t, f.svc.RemoveEntry(ctx, day, entry.ID))
	remaining, _ = f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)

	for i := 0; i < 10; i++ {
		entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.005})
		require.NoError(t, err)
		require.NoError(t, f.svc.RemoveEntry(ctx, day, entry.ID))
	}
	remaining, _ = f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)
}

func TestClearEmptyDateIsNoop(t *testing.T) {
	f := setup(t)
	removed, err := f.svc.ClearDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

type failingMeals struct {
	mealdomain.Service
	mu      sync.Mutex
	adjusts int
}

func (m *failingMeals) AdjustRemaining(ctx context.Context, id int64, delta float64) (*mealdomain.AdjustResult, error) {
	m.mu.Lock()
	m.adjusts++
	m.mu.Unlock()
	return nil, errors.New("disk full")
}

func TestRestoreFailureDoesNotBlockRemoval(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	for i := 0; i < 2; i++ {
		_, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.5})
		require.NoError(t, err)
	}
	entry, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: "2024-05-03", MealID: meal.ID, Servings: 0.5})
	require.NoError(t, err)

	broken := &failingMeals{Service: f.meals}
	svc := New(Params{
		DB:    f.db,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		Meals: broken,
	})

	require.NoError(t, svc.RemoveEntry(ctx, "2024-05-03", entry.ID))
	removed, err := svc.ClearDate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 3, broken.adjusts)

	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 0.5, remaining)
}

func TestAddEntrySucceedsWhenDecrementFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	svc := New(Params{
		DB:    f.db,
		Log:   zap.NewNop(),
		Repo:  repository.Provide(),
		Meals: &failingMeals{Service: f.meals},
	})

	entry, err := svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 1})
	require.NoError(t, err)
	assert.Equal(t, 195.0, entry.Consumed.Calories)

	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 2.0, remaining)
}

func TestConcurrentAddsNeverOverdraw(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.5})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientServings)
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	remaining, _ := f.remaining(t, meal.ID)
	assert.Equal(t, 0.0, remaining)
}

func TestSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	meal := f.createRiceBowl(t)

	_, err := f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 1.5})
	require.NoError(t, err)
	_, err = f.svc.AddEntry(ctx, domain.AddRequest{Date: day, MealID: meal.ID, Servings: 0.5})
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, day, summary.Date)
	assert.Len(t, summary.Entries, 2)
	assert.Equal(t, 2.0, summary.TotalServings)
	assert.Equal(t, 390.0, summary.Totals.Calories)
	assert.Equal(t, 2500.0, summary.Goals.Calories)

	require.Len(t, summary.Progress, 5)
	calories := summary.Progress[0]
	assert.Equal(t, "calories", calories.Nutrient)
	assert.Equal(t, 15.6, calories.Percent)
	assert.Equal(t, domain.StatusLow, calories.Status)

	empty, err := f.svc.Summary(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)
	assert.True(t, empty.Totals.IsZero())

	bad, err := f.svc.Summary(ctx, " bad ")
	require.NoError(t, err)
	assert.Equal(t, "bad", bad.Date)
	assert.NotNil(t, bad.Entries)
	assert.Empty(t, bad.Entries)
	assert.Equal(t, 0.0, bad.TotalServings)
	assert.True(t, bad.Totals.IsZero())
}

func TestProgressStatus(t *testing.T) {
	assert.Equal(t, domain.StatusMet, progress("protein", 200, 150).Status)
	assert.Equal(t, 100.0, progress("protein", 200, 150).Percent)
	assert.Equal(t, domain.StatusNear, progress("protein", 120, 150).Status)
	assert.Equal(t, domain.StatusLow, progress("protein", 10, 150).Status)
	assert.Equal(t, 0.0, progress("protein", 10, 0).Percent)
}
