package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/authsvc/internal/handler"
	"github.com/dmitrymomot/authsvc/internal/metrics"
	"github.com/dmitrymomot/authsvc/internal/storage/migrations"
	"github.com/dmitrymomot/authsvc/internal/storage/postgres"
	"github.com/dmitrymomot/authsvc/pkg/config"
	"github.com/dmitrymomot/authsvc/pkg/httpserver"
	"github.com/dmitrymomot/authsvc/pkg/idtoken"
	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/logger"
	"github.com/dmitrymomot/authsvc/pkg/pg"
	"github.com/dmitrymomot/authsvc/pkg/ratelimiter"
	"github.com/dmitrymomot/authsvc/pkg/redis"
	"github.com/dmitrymomot/authsvc/pkg/session"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"authsvc"`

	SignInRateCapacity int           `env:"SIGNIN_RATE_CAPACITY" envDefault:"10"`
	SignInRateRefill   int           `env:"SIGNIN_RATE_REFILL" envDefault:"5"`
	SignInRateInterval time.Duration `env:"SIGNIN_RATE_INTERVAL" envDefault:"1m"`
}

func main() {
	var (
		appCfg     appConfig
		pgCfg      pg.Config
		redisCfg   redis.Config
		httpCfg    httpserver.Config
		sessionCfg session.Config
		googleCfg  idtoken.GoogleConfig
		appleCfg   idtoken.AppleConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&sessionCfg)
	config.MustLoad(&googleCfg)
	config.MustLoad(&appleCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, appCfg.ServiceName))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.ErrorContext(ctx, "postgres connect failed", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, migrations.FS, pgCfg, log); err != nil {
		log.ErrorContext(ctx, "migrations failed", logger.Error(err))
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.ErrorContext(ctx, "redis connect failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	users := postgres.NewIdentityStorage(pool)
	sessions := postgres.NewSessionStore(pool)

	resolver := identity.NewResolver(users, identity.WithLogger(log))
	manager := session.NewManager(sessions, session.WithTTL(sessionCfg.TTL))
	reaper := session.NewReaper(sessions, sessionCfg.SweepInterval,
		session.WithReaperLogger(log))
	go reaper.Run(ctx)

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry)

	verifiers := idtoken.NewRegistry(
		idtoken.NewGoogleVerifier(googleCfg),
		idtoken.NewAppleVerifier(appleCfg),
	)

	limiter, err := ratelimiter.NewBucket(
		ratelimiter.NewRedisStore(redisClient, "authsvc:signin"),
		ratelimiter.Config{
			Capacity:       appCfg.SignInRateCapacity,
			RefillRate:     appCfg.SignInRateRefill,
			RefillInterval: appCfg.SignInRateInterval,
		},
	)
	if err != nil {
		log.ErrorContext(ctx, "rate limiter setup failed", logger.Error(err))
		os.Exit(1)
	}

	router := handler.Router(handler.Deps{
		Handler: handler.NewHandler(verifiers, resolver, users, manager, collector, log),
		Debug:   handler.NewDebugHandler(manager, reaper, collector),
		Guard:   handler.NewGuard(manager, users, collector),
		Limiter: limiter,
		Metrics: metrics.Handler(registry),
		Health: []func(context.Context) error{
			pg.Healthcheck(pool),
			redis.Healthcheck(redisClient),
		},
		Log: log,
	})

	srv := httpserver.New(httpCfg, log)
	if err := srv.Run(ctx, router); err != nil {
		log.ErrorContext(ctx, "server stopped with error", logger.Error(err))
		os.Exit(1)
	}

	log.Info("server stopped", slog.String("service", appCfg.ServiceName))
}
