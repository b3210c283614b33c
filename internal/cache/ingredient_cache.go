package cache

import (
	"strings"
	"time"

	"github.com/smallbiznis/mealplan/internal/nutrition"
)

const defaultIngredientTTL = 10 * time.Minute

// IngredientCache stores resolved catalog records for meal creation and
// nutrition calculation, keyed by ingredient name.
type IngredientCache interface {
	Get(name string) (*nutrition.Ingredient, bool)
	Set(name string, ingredient *nutrition.Ingredient)
	Purge()
}

type ingredientCache struct {
	items Cache[string, *nutrition.Ingredient]
	ttl   time.Duration
}

func NewIngredientCache() IngredientCache {
	return &ingredientCache{
		items: NewTTLCache[string, *nutrition.Ingredient](),
		ttl:   defaultIngredientTTL,
	}
}

func (c *ingredientCache) Get(name string) (*nutrition.Ingredient, bool) {
	return c.items.Get(cacheKey(name))
}

func (c *ingredientCache) Set(name string, ingredient *nutrition.Ingredient) {
	if ingredient == nil {
		return
	}
	c.items.Set(cacheKey(name), ingredient, c.ttl)
}

func (c *ingredientCache) Purge() {
	c.items.Purge()
}

func cacheKey(name string) string {
	return strings.TrimSpace(name)
}
