package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/coursehub-auth/internal/config"
	"github.com/iliyamo/coursehub-auth/internal/database"
	"github.com/iliyamo/coursehub-auth/internal/handler"
	"github.com/iliyamo/coursehub-auth/internal/logger"
	"github.com/iliyamo/coursehub-auth/internal/metrics"
	"github.com/iliyamo/coursehub-auth/internal/queue"
	"github.com/iliyamo/coursehub-auth/internal/repository"
	"github.com/iliyamo/coursehub-auth/internal/router"
	"github.com/iliyamo/coursehub-auth/internal/service"
	"github.com/iliyamo/coursehub-auth/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func dbSettings(cfg config.Config) database.Settings {
	return database.Settings{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName}
}

// redisPinger adapts a Redis client to handler.Pinger.
type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel, cfg.LogFile)
	logger.Info().Str("config", cfg.String()).Msg("starting")

	db, err := database.Open(ctx, dbSettings(cfg))
	if err != nil {
		return err
	}
	defer db.Close()
	pingers := []handler.Pinger{db}

	accounts := repository.NewAccountRepo(db)
	var tokens service.RefreshTokenStore = repository.NewTokenRepo(db)
	if cfg.TokenStore == config.TokenStoreRedis {
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		tokens = repository.NewRedisTokenStore(rdb, cfg.Redis.Prefix)
		pingers = append(pingers, redisPinger{rdb})
	}

	var events service.EventPublisher = queue.Noop{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL)
	}

	issuer, err := utils.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL())
	if err != nil {
		return err
	}
	m := metrics.New()
	sessions := service.NewSessionService(accounts, tokens, issuer, service.Options{
		RefreshTTL:        cfg.RefreshTTL(),
		RefreshTokenBytes: cfg.RefreshTokenBytes,
		TokenHashKey:      cfg.TokenHashKey,
		ReuseDetection:    cfg.ReuseDetection,
		BcryptCost:        cfg.BcryptCost,
		StoreTimeout:      cfg.StoreTimeout,
		RegisterRoles:     cfg.RegisterRoles,
	}, service.WithPublisher(events), service.WithRecorder(m))
	profiles := service.NewAccountService(accounts, cfg.StoreTimeout)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(logger.EchoRecovery(), logger.EchoLogger())
	router.RegisterRoutes(e, handler.Health(pingers...), m.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(sessions), handler.NewAccountHandler(profiles), issuer)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Str("token_store", cfg.TokenStore).Msg("listening")
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
