package meallog

import (
	"github.com/smallbiznis/mealplan/internal/meallog/repository"
	"github.com/smallbiznis/mealplan/internal/meallog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meallog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
