package writelock

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("writelock",
	fx.Provide(NewLocker),
)

type Params struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     config.Config
	Log     *zap.Logger
	Metrics *metrics.HTTPMetrics `optional:"true"`
}

// NewLocker selects the Redis locker when REDIS_ADDR is set and the local
// locker otherwise.
func NewLocker(p Params) (Locker, error) {
	log := p.Log.Named("writelock")
	var observer WaitObserver
	if p.Metrics != nil {
		observer = p.Metrics
	}

	if p.Cfg.RedisAddr == "" {
		log.Info("using in-process write lock")
		return Observe(NewLocalLocker(), observer), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.RedisAddr,
		Password: p.Cfg.RedisPassword,
		DB:       p.Cfg.RedisDB,
	})

	ttl := time.Duration(p.Cfg.LockTTLSecond) * time.Second
	locker, err := NewRedisLocker(client, ttl)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			log.Info("using redis write lock", zap.String("addr", p.Cfg.RedisAddr), zap.Duration("ttl", ttl))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return Observe(locker, observer), nil
}
