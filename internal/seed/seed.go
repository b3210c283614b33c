// Package seed loads the ingredient catalog and imports meals exported by
// the previous CSV-backed application.
package seed

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	ingredientdomain "github.com/smallbiznis/mealplan/internal/ingredient/domain"
	ingredientrepository "github.com/smallbiznis/mealplan/internal/ingredient/repository"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var nutrientColumns = []string{
	"calories", "protein", "fat_total", "fat_saturated", "carbohydrate",
	"sugars", "dietary_fibre_g", "sodium_mg", "calcium_mg",
}

var ErrMissingColumn = errors.New("seed_missing_column")

type Options struct {
	IngredientsCSV string
	LegacyMealsCSV string
}

// Run seeds ingredients, then imports legacy meals. A missing ingredients
// file is logged and skipped so the service can start against an existing
// catalog.
func Run(ctx context.Context, db *gorm.DB, opts Options, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	if path := strings.TrimSpace(opts.IngredientsCSV); path != "" {
		n, err := IngredientsFromFile(ctx, db, path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn("ingredients file not found, skipping seed", zap.String("path", path))
		case err != nil:
			return err
		default:
			log.Info("ingredients seeded", zap.String("path", path), zap.Int("count", n))
		}
	}

	if path := strings.TrimSpace(opts.LegacyMealsCSV); path != "" {
		n, err := LegacyMealsFromFile(ctx, db, path)
		if err != nil {
			return err
		}
		log.Info("legacy meals imported", zap.String("path", path), zap.Int("count", n))
	}
	return nil
}

func IngredientsFromFile(ctx context.Context, db *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Ingredients(ctx, db, f)
}

// Ingredients upserts every row of r by name.
func Ingredients(ctx context.Context, db *gorm.DB, r io.Reader) (int, error) {
	rows, err := readRows(r)
	if err != nil {
		return 0, err
	}

	items := make([]ingredientdomain.Ingredient, 0, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row.get("name"))
		if name == "" {
			continue
		}
		unitSize, err := row.float("unit_size")
		if err != nil {
			return 0, fmt.Errorf("ingredients row %d: %w", i+2, err)
		}
		facts, err := row.facts("")
		if err != nil {
			return 0, fmt.Errorf("ingredients row %d: %w", i+2, err)
		}
		items = append(items, ingredientdomain.Ingredient{
			Name:     name,
			UnitSize: unitSize,
			UnitDef:  strings.TrimSpace(row.get("unit_def")),
			Facts:    facts,
		})
	}

	if err := ingredientrepository.Provide().Upsert(ctx, db, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func LegacyMealsFromFile(ctx context.Context, db *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return LegacyMeals(ctx, db, f)
}

// LegacyMeals imports meals.csv exports. Rows whose meal_id already exists
// are left untouched. Files without a servings_remaining column, or rows
// with an empty value, import as untracked meals.
func LegacyMeals(ctx context.Context, db *gorm.DB, r io.Reader) (int, error) {
	rows, err := readRows(r)
	if err != nil {
		return 0, err
	}

	meals := make([]mealdomain.Meal, 0, len(rows))
	for i, row := range rows {
		meal, err := row.meal()
		if err != nil {
			return 0, fmt.Errorf("meals row %d: %w", i+2, err)
		}
		meals = append(meals, *meal)
	}
	if len(meals) == 0 {
		return 0, nil
	}

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&meals)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

type row struct {
	header map[string]int
	values []string
}

func readRows(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	header := make(map[string]int, len(head))
	for i, h := range head {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{header: header, values: record})
	}
	return rows, nil
}

func (r row) has(col string) bool {
	_, ok := r.header[col]
	return ok
}

func (r row) get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r row) float(col string) (float64, error) {
	if !r.has(col) {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}
	raw := r.get(col)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func (r row) facts(prefix string) (nutrition.Facts, error) {
	var v [9]float64
	for i, col := range nutrientColumns {
		f, err := r.float(prefix + col)
		if err != nil {
			return nutrition.Facts{}, err
		}
		v[i] = f
	}
	return nutrition.Facts{
		Calories:     v[0],
		Protein:      v[1],
		FatTotal:     v[2],
		FatSaturated: v[3],
		Carbohydrate: v[4],
		Sugars:       v[5],
		DietaryFibre: v[6],
		Sodium:       v[7],
		Calcium:      v[8],
	}, nil
}

func (r row) meal() (*mealdomain.Meal, error) {
	id, err := strconv.ParseInt(r.get("meal_id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid meal_id %q", r.get("meal_id"))
	}

	servings := 1
	if raw := r.get("servings"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("column servings: %w", err)
		}
		servings = int(f)
	}
	if servings < 1 {
		servings = 1
	}

	total, err := r.facts("total_")
	if err != nil {
		return nil, err
	}

	perServing := nutrition.PerServing(total, servings)
	if r.has("per_serving_calories") {
		if perServing, err = r.facts("per_serving_"); err != nil {
			return nil, err
		}
	}

	remaining := mealdomain.Untracked()
	if raw := r.get("servings_remaining"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("column servings_remaining: %w", err)
		}
		remaining = mealdomain.Tracked(v)
	}

	portions, err := r.portions()
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	if raw := r.get("created_date"); raw != "" {
		if t, err := time.Parse(time.DateTime, raw); err == nil {
			createdAt = t.UTC()
		}
	}

	return &mealdomain.Meal{
		ID:                id,
		Name:              r.get("meal_name"),
		Servings:          servings,
		ServingsRemaining: remaining,
		Ingredients:       portions,
		Total:             total,
		PerServing:        perServing,
		CreatedAt:         createdAt,
	}, nil
}

// portions zips the JSON-encoded ingredients_list and quantities_list columns.
func (r row) portions() ([]nutrition.Portion, error) {
	var names []string
	var quantities []float64
	if raw := r.get("ingredients_list"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return nil, fmt.Errorf("column ingredients_list: %w", err)
		}
	}
	if raw := r.get("quantities_list"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &quantities); err != nil {
			return nil, fmt.Errorf("column quantities_list: %w", err)
		}
	}
	if len(names) != len(quantities) {
		return nil, fmt.Errorf("ingredients_list has %d names but %d quantities", len(names), len(quantities))
	}

	out := make([]nutrition.Portion, len(names))
	for i := range names {
		out[i] = nutrition.Portion{Name: names[i], Quantity: quantities[i]}
	}
	return out, nil
}
