// Command portal runs the care-center web portal: a server-side front for the
// backend API that bridges its bearer-token logins into cookie-backed browser
// sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/aymen-fh/bmo-care/internal/api"
	portalsession "github.com/aymen-fh/bmo-care/internal/api/session"
	"github.com/aymen-fh/bmo-care/internal/core/ports"
	"github.com/aymen-fh/bmo-care/internal/core/service"
	"github.com/aymen-fh/bmo-care/internal/infrastructure/backend"
	"github.com/aymen-fh/bmo-care/internal/infrastructure/config"
	"github.com/aymen-fh/bmo-care/internal/infrastructure/db/mongo"
	"github.com/aymen-fh/bmo-care/internal/infrastructure/db/redis"
	"github.com/aymen-fh/bmo-care/internal/infrastructure/queue"
	"github.com/aymen-fh/bmo-care/pkg/logger"
)

const (
	backendCallTimeout = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backend bridge ---
	backendClient := backend.New(cfg.BackendURL, backendCallTimeout, log)
	monitor := service.NewMonitor(cfg.BackendURL, backendClient, log,
		service.WithCacheWindow(cfg.Health.CacheWindow),
		service.WithProbeTimeout(cfg.Health.ProbeTimeout),
	)

	// --- Optional stores: the portal runs without either ---
	var rdb *goredis.Client
	var throttle ports.LoginThrottle
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, login throttling disabled")
			rdb = nil
		} else {
			throttle = redis.NewLoginThrottle(rdb)
		}
	}

	var mongoClient *gomongo.Client
	var mongoDB *gomongo.Database
	var activityRepo ports.ActivityRepository
	if cfg.Mongo.URI != "" {
		mongoClient, mongoDB, err = mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Warn().Err(err).Msg("mongodb unavailable, activity log disabled")
			mongoClient, mongoDB = nil, nil
		} else {
			activityRepo = mongo.NewActivityRepository(mongoDB)
		}
	}

	recorder := queue.NewRecorder(activityRepo, log)
	recorder.Start(ctx)

	verifier := service.NewVerifier(backendClient, throttle, log)
	codec := portalsession.NewCodec(backendClient, cfg.SessionTTL, log)

	e := api.NewRouter(cfg, api.Deps{
		Verifier: verifier,
		Codec:    codec,
		Monitor:  monitor,
		Backend:  backendClient,
		Prober:   backendClient,
		Recorder: recorder,
		Redis:    rdb,
		Mongo:    mongoDB,
		Log:      log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
