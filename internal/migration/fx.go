package migration

import (
	"context"

	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB, cfg config.Config, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := Apply(ctx, conn); err != nil {
					return err
				}
				return seed.Run(ctx, conn, seed.Options{
					IngredientsCSV: cfg.IngredientsCSV,
					LegacyMealsCSV: cfg.LegacyMealsCSV,
				}, log.Named("seed"))
			},
		})
	}),
)
