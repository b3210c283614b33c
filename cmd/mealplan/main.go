package main

import (
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/consumption"
	"github.com/smallbiznis/mealplan/internal/ingredient"
	"github.com/smallbiznis/mealplan/internal/meal"
	"github.com/smallbiznis/mealplan/internal/meallog"
	"github.com/smallbiznis/mealplan/internal/migration"
	"github.com/smallbiznis/mealplan/internal/observability"
	"github.com/smallbiznis/mealplan/internal/report"
	"github.com/smallbiznis/mealplan/internal/server"
	"github.com/smallbiznis/mealplan/internal/writelock"
	"github.com/smallbiznis/mealplan/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core infrastructure
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		writelock.Module,

		// Domains
		ingredient.Module,
		meal.Module,
		consumption.Module,
		meallog.Module,
		report.Module,

		// Schema and seed data must be in place before the listener starts.
		migration.Module,
		server.Module,
	)
	app.Run()
}
