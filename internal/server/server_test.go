package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	consumptiondomain "github.com/smallbiznis/mealplan/internal/consumption/domain"
	consumptionrepository "github.com/smallbiznis/mealplan/internal/consumption/repository"
	consumptionservice "github.com/smallbiznis/mealplan/internal/consumption/service"
	ingredientdomain "github.com/smallbiznis/mealplan/internal/ingredient/domain"
	ingredientrepository "github.com/smallbiznis/mealplan/internal/ingredient/repository"
	ingredientservice "github.com/smallbiznis/mealplan/internal/ingredient/service"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	mealrepository "github.com/smallbiznis/mealplan/internal/meal/repository"
	mealservice "github.com/smallbiznis/mealplan/internal/meal/service"
	meallogdomain "github.com/smallbiznis/mealplan/internal/meallog/domain"
	meallogrepository "github.com/smallbiznis/mealplan/internal/meallog/repository"
	meallogservice "github.com/smallbiznis/mealplan/internal/meallog/service"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"github.com/smallbiznis/mealplan/internal/observability"
	"github.com/smallbiznis/mealplan/internal/report"
	"github.com/smallbiznis/mealplan/internal/writelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T, reports report.Provider) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:server_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ingredientdomain.Ingredient{},
		&mealdomain.Meal{},
		&consumptiondomain.Entry{},
		&meallogdomain.Entry{},
	))
	require.NoError(t, db.Create(&[]ingredientdomain.Ingredient{
		{Name: "Rice", UnitSize: 100, UnitDef: "g", Facts: nutrition.Facts{Calories: 130, Protein: 2.7, FatTotal: 0.3, Carbohydrate: 28, DietaryFibre: 0.4}},
		{Name: "Oats", UnitSize: 40, UnitDef: "g", Facts: nutrition.Facts{Calories: 150, Protein: 5, FatTotal: 3, Carbohydrate: 27, DietaryFibre: 4}},
	}).Error)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	ingredients := ingredientservice.New(ingredientservice.Params{
		DB:   db,
		Log:  log,
		Repo: ingredientrepository.Provide(),
	})
	meals := mealservice.New(mealservice.Params{
		DB:         db,
		Log:        log,
		Repo:       mealrepository.Provide(),
		Aggregator: nutrition.NewAggregator(ingredients),
		Clock:      clk,
	})
	consumption := consumptionservice.New(consumptionservice.Params{
		DB:     db,
		Log:    log,
		Repo:   consumptionrepository.Provide(),
		Meals:  meals,
		Locker: writelock.NewLocalLocker(),
		Goals:  config.NewStaticGoalsHolder(config.DefaultGoals()),
		Clock:  clk,
	})
	mealLog := meallogservice.New(meallogservice.Params{
		DB:    db,
		Log:   log,
		Repo:  meallogrepository.Provide(),
		Meals: meals,
		Clock: clk,
	})

	engine := NewEngine(observability.Config{}, nil)
	NewServer(ServerParams{
		Gin:            engine,
		Log:            log,
		IngredientSvc:  ingredients,
		MealSvc:        meals,
		ConsumptionSvc: consumption,
		MealLogSvc:     mealLog,
		Reports:        reports,
	})
	return &testServer{engine: engine, db: db}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = strings.NewReader(v)
		default:
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func (ts *testServer) createRiceBowl(t *testing.T) mealdomain.Meal {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/meals", map[string]any{
		"meal_name":   "Rice bowl",
		"servings":    2,
		"ingredients": []map[string]any{{"name": "Rice", "quantity": 300}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[mealdomain.Meal](t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIngredientRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/ingredients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decodeData[[]ingredientdomain.Ingredient](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, "Oats", items[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/ingredients?q=ric", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items = decodeData[[]ingredientdomain.Ingredient](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Rice", items[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/ingredient/Rice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 130.0, decodeData[ingredientdomain.Ingredient](t, rec).Calories)

	rec = ts.do(t, http.MethodGet, "/api/ingredient/Quinoa", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ingredient not found", decodeError(t, rec).Message)
}

func TestCalculateNutrition(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/calculate-nutrition", map[string]any{"name": "Rice", "quantity": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	calc := decodeData[ingredientdomain.Calculation](t, rec)
	assert.Equal(t, "g", calc.UnitDef)
	assert.Equal(t, 195.0, calc.Calories)
	assert.Equal(t, 4.05, calc.Protein)

	rec = ts.do(t, http.MethodPost, "/api/calculate-nutrition", map[string]any{"name": "Rice"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "quantity", payload.Errors[0].Field)

	rec = ts.do(t, http.MethodPost, "/api/calculate-nutrition", map[string]any{"name": "Quinoa", "quantity": 10})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/calculate-nutrition", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMealRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	meal := ts.createRiceBowl(t)
	assert.Equal(t, int64(1), meal.ID)
	assert.Equal(t, 390.0, meal.Total.Calories)
	assert.Equal(t, 195.0, meal.PerServing.Calories)
	remaining, tracked := meal.ServingsRemaining.Get()
	assert.True(t, tracked)
	assert.Equal(t, 2.0, remaining)

	rec := ts.do(t, http.MethodPost, "/api/meals", map[string]any{
		"meal_name":   "Porridge",
		"ingredients": []map[string]any{{"name": "Oats", "quantity": 40}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeData[mealdomain.Meal](t, rec).Servings)

	rec = ts.do(t, http.MethodGet, "/api/meals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]mealdomain.Meal](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/api/meals/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rice bowl", decodeData[mealdomain.Meal](t, rec).Name)

	rec = ts.do(t, http.MethodGet, "/api/meals/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "meal not found", decodeError(t, rec).Message)

	rec = ts.do(t, http.MethodGet, "/api/meals/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMealValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{name: "empty name", body: map[string]any{"meal_name": "", "ingredients": []map[string]any{{"name": "Rice", "quantity": 10}}}, code: http.StatusBadRequest},
		{name: "zero servings", body: map[string]any{"meal_name": "x", "servings": 0, "ingredients": []map[string]any{{"name": "Rice", "quantity": 10}}}, code: http.StatusBadRequest},
		{name: "no ingredients", body: map[string]any{"meal_name": "x"}, code: http.StatusBadRequest},
		{name: "unknown ingredient", body: map[string]any{"meal_name": "x", "ingredients": []map[string]any{{"name": "Quinoa", "quantity": 10}}}, code: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/meals", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestConsumptionFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	meal := ts.createRiceBowl(t)
	path := "/api/daily-nutrition/2024-05-01"

	rec := ts.do(t, http.MethodPost, path, map[string]any{"meal_id": meal.ID, "servings": 1.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entry := decodeData[consumptiondomain.Entry](t, rec)
	assert.Equal(t, 292.5, entry.Consumed.Calories)

	rec = ts.do(t, http.MethodPost, path, map[string]any{"meal_id": meal.ID, "servings": 1})
	require.Equal(t, http.StatusConflict, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "insufficient_servings", payload.Type)
	require.NotNil(t, payload.Requested)
	require.NotNil(t, payload.Available)
	assert.Equal(t, 1.0, *payload.Requested)
	assert.Equal(t, 0.5, *payload.Available)

	rec = ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]consumptiondomain.Entry](t, rec), 1)

	rec = ts.do(t, http.MethodGet, path+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeData[consumptiondomain.Summary](t, rec)
	assert.Equal(t, 1.5, summary.TotalServings)
	assert.Equal(t, 292.5, summary.Totals.Calories)

	rec = ts.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decodeData[struct {
		Removed int64 `json:"removed"`
	}](t, rec)
	assert.Equal(t, int64(1), cleared.Removed)

	rec = ts.do(t, http.MethodGet, "/api/meals/1", nil)
	remaining, _ := decodeData[mealdomain.Meal](t, rec).ServingsRemaining.Get()
	assert.Equal(t, 2.0, remaining)

	rec = ts.do(t, http.MethodGet, path, nil)
	assert.Empty(t, decodeData[[]consumptiondomain.Entry](t, rec))
}

func TestAddConsumptionDefaultsAndErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	meal := ts.createRiceBowl(t)

	rec := ts.do(t, http.MethodPost, "/api/daily-nutrition/2024-05-01", map[string]any{"meal_id": meal.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decodeData[consumptiondomain.Entry](t, rec).ServingsConsumed)

	rec = ts.do(t, http.MethodPost, "/api/daily-nutrition/2024-05-01", map[string]any{"meal_id": 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/daily-nutrition/2024-05-01", map[string]any{"meal_id": meal.ID, "servings": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/daily-nutrition/not-a-date", map[string]any{"meal_id": meal.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_date", payload.Errors[0].Code)

	rec = ts.do(t, http.MethodPost, "/api/daily-nutrition/2024-05-01", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMalformedDateReadsAsEmptyDay(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/daily-nutrition/not-a-date", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]consumptiondomain.Entry](t, rec))

	rec = ts.do(t, http.MethodDelete, "/api/daily-nutrition/not-a-date", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/daily-nutrition/not-a-date/entry/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/daily-nutrition/not-a-date/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not-a-date", decodeData[consumptiondomain.Summary](t, rec).Date)
}

func TestRemoveConsumption(t *testing.T) {
	ts := newTestServer(t, nil)
	meal := ts.createRiceBowl(t)

	rec := ts.do(t, http.MethodPost, "/api/daily-nutrition/2024-05-01", map[string]any{"meal_id": meal.ID, "servings": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decodeData[consumptiondomain.Entry](t, rec)

	rec = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/daily-nutrition/2024-05-01/entry/%d", entry.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/meals/1", nil)
	remaining, _ := decodeData[mealdomain.Meal](t, rec).ServingsRemaining.Get()
	assert.Equal(t, 2.0, remaining)

	rec = ts.do(t, http.MethodDelete, "/api/daily-nutrition/2024-05-01/entry/77", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/daily-nutrition/2024-05-01/entry/zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsumptionReport(t *testing.T) {
	ts := newTestServer(t, report.New())
	meal := ts.createRiceBowl(t)

	rec := ts.do(t, http.MethodPost, "/api/daily-nutrition/2024-05-01", map[string]any{"meal_id": meal.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/daily-nutrition/2024-05-01/report.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestConsumptionReportWithoutRenderer(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/daily-nutrition/2024-05-01/report.pdf", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMealLogRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	meal := ts.createRiceBowl(t)

	rec := ts.do(t, http.MethodPost, "/api/log-meal", map[string]any{"meal_id": meal.ID, "meal_time": "lunch", "notes": "leftovers"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	logged := decodeData[meallogdomain.Entry](t, rec)
	assert.Equal(t, "2024-05-01", logged.Date)
	assert.Equal(t, "Rice bowl", logged.MealName)

	rec = ts.do(t, http.MethodPost, "/api/log-meal", map[string]any{"meal_id": meal.ID, "meal_time": "dinner", "date": "2024-05-02"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/meal-log", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]meallogdomain.Entry](t, rec), 2)

	rec = ts.do(t, http.MethodGet, "/api/meal-log?date=2024-05-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]meallogdomain.Entry](t, rec), 1)

	rec = ts.do(t, http.MethodPost, "/api/log-meal", map[string]any{"meal_id": meal.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/log-meal", map[string]any{"meal_id": 9, "meal_time": "lunch"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/meals/1", nil)
	remaining, _ := decodeData[mealdomain.Meal](t, rec).ServingsRemaining.Get()
	assert.Equal(t, 2.0, remaining)
}

func TestMapError(t *testing.T) {
	status, payload := mapError(&consumptiondomain.InsufficientServingsError{MealID: 1, Requested: 3, Available: 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 3.0, *payload.Requested)

	status, _ = mapError(fmt.Errorf("wrapped: %w", mealdomain.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, status)

	status, payload = mapError(mealdomain.ErrInvalidServings)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "servings", payload.Errors[0].Field)

	status, _ = mapError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, status)

	typ, code := classifyErrorForLog(consumptiondomain.ErrInvalidDate)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "invalid_date", code)
}
