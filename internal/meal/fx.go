package meal

import (
	"github.com/smallbiznis/mealplan/internal/meal/repository"
	"github.com/smallbiznis/mealplan/internal/meal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
