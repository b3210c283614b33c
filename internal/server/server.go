package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/mealplan/internal/config"
	consumptiondomain "github.com/smallbiznis/mealplan/internal/consumption/domain"
	ingredientdomain "github.com/smallbiznis/mealplan/internal/ingredient/domain"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	meallogdomain "github.com/smallbiznis/mealplan/internal/meallog/domain"
	"github.com/smallbiznis/mealplan/internal/observability"
	obsmiddleware "github.com/smallbiznis/mealplan/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/mealplan/internal/observability/metrics"
	obstracing "github.com/smallbiznis/mealplan/internal/observability/tracing"
	"github.com/smallbiznis/mealplan/internal/report"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	ingredientSvc  ingredientdomain.Service
	mealSvc        mealdomain.Service
	consumptionSvc consumptiondomain.Service
	mealLogSvc     meallogdomain.Service
	reports        report.Provider
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	IngredientSvc  ingredientdomain.Service
	MealSvc        mealdomain.Service
	ConsumptionSvc consumptiondomain.Service
	MealLogSvc     meallogdomain.Service
	Reports        report.Provider `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	reports := p.Reports
	if reports == nil {
		reports = &report.NoOpProvider{}
	}
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http"),
		ingredientSvc:  p.IngredientSvc,
		mealSvc:        p.MealSvc,
		consumptionSvc: p.ConsumptionSvc,
		mealLogSvc:     p.MealLogSvc,
		reports:        reports,
	}

	svc.RegisterAPIRoutes()
	return svc
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/ingredients", s.ListIngredients)
		api.GET("/ingredient/:name", s.GetIngredient)
		api.POST("/calculate-nutrition", s.CalculateNutrition)
	}

	{
		api.GET("/meals", s.ListMeals)
		api.POST("/meals", s.CreateMeal)
		api.GET("/meals/:id", s.GetMeal)
	}

	{
		api.GET("/daily-nutrition/:date", s.ListConsumption)
		api.POST("/daily-nutrition/:date", s.AddConsumption)
		api.DELETE("/daily-nutrition/:date", s.ClearConsumption)
		api.GET("/daily-nutrition/:date/summary", s.ConsumptionSummary)
		api.GET("/daily-nutrition/:date/report.pdf", s.ConsumptionReport)
		api.DELETE("/daily-nutrition/:date/entry/:entry_id", s.RemoveConsumption)
	}

	{
		api.POST("/log-meal", s.LogMeal)
		api.GET("/meal-log", s.ListMealLog)
	}
}
