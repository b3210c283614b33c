package ingredient

import (
	"github.com/smallbiznis/mealplan/internal/cache"
	"github.com/smallbiznis/mealplan/internal/ingredient/domain"
	"github.com/smallbiznis/mealplan/internal/ingredient/repository"
	"github.com/smallbiznis/mealplan/internal/ingredient/service"
	"github.com/smallbiznis/mealplan/internal/nutrition"
	"go.uber.org/fx"
)

var Module = fx.Module("ingredient.service",
	fx.Provide(cache.NewIngredientCache),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) nutrition.Lookup { return svc }),
	fx.Provide(nutrition.NewAggregator),
)
