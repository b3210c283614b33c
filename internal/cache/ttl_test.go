package cache

import (
	"testing"
	"time"

	"github.com/smallbiznis/mealplan/internal/nutrition"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	c.Set("forever", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok = c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	c.Purge()
	_, ok = c.Get("forever")
	assert.False(t, ok)
}

func TestIngredientCacheTrimsKeys(t *testing.T) {
	c := NewIngredientCache()
	c.Set(" rice ", &nutrition.Ingredient{Name: "rice", UnitSize: 100})
	c.Set("ignored", nil)

	got, ok := c.Get("rice")
	assert.True(t, ok)
	assert.Equal(t, 100.0, got.UnitSize)

	_, ok = c.Get("ignored")
	assert.False(t, ok)
}
