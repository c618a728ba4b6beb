package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"marketbeat/config"
	"marketbeat/internal/api"
	"marketbeat/internal/market"
	"marketbeat/internal/market/bybitfeed"
	"marketbeat/internal/market/heartbeat"
	"marketbeat/internal/market/memorystore"
	"marketbeat/internal/market/mockfeed"
	"marketbeat/internal/market/publish"
	"marketbeat/internal/market/query"
	"marketbeat/internal/market/retry"
	"marketbeat/logger"
	"marketbeat/pkg/bybit"
	"marketbeat/pkg/storage/postgres"
	"marketbeat/pkg/storage/rediscache"
	"marketbeat/pkg/wshub"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("marketbeat failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	provider, err := newProvider(cfg.Provider)
	if err != nil {
		return err
	}

	exec := retry.New(provider, retry.Config{
		MaxAttempts:           cfg.Retry.MaxAttempts,
		BaseBackoff:           cfg.Retry.BaseBackoff,
		RateLimitCooldown:     cfg.Retry.RateLimitCooldown,
		MaxRateLimitCooldowns: cfg.Retry.MaxRateLimitCooldowns,
	}, log.Named("retry"))

	store := memorystore.NewSnapshotStore()
	hub := wshub.NewHub(log.Named("ws"))
	defer hub.Close()

	sinks := publish.Multi{hub}
	var opts []api.Option
	opts = append(opts, api.WithStream(hub))

	if cfg.Redis.Enabled {
		rdb := rediscache.NewClient(rediscache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pub := rediscache.NewPublisher(rdb, cfg.Redis.TTL)
		if err := pub.Ping(ctx); err != nil {
			log.Warn("redis unreachable, publishing anyway", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		sinks = append(sinks, pub)
		opts = append(opts, api.WithPinger("redis", pub.Ping))
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.InitializeAndMigrateSnapshotRecord(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			return fmt.Errorf("postgres archive: %w", err)
		}
		defer db.Close()

		sinks = append(sinks, postgres.NewArchive(db, cfg.Postgres.WriteTimeout))
		opts = append(opts, api.WithPinger("postgres", func(ctx context.Context) error {
			if !db.IsHealthy(ctx) {
				return errors.New("ping failed")
			}
			return nil
		}))
	}

	beat := heartbeat.New(heartbeat.Config{
		Symbol:   cfg.Heartbeat.Symbol,
		Interval: cfg.Heartbeat.Interval,
	}, exec, store, sinks, log.Named("heartbeat"))

	server := api.NewServer(cfg.HTTP.Addr, query.New(store, beat), beat, log.Named("http"), opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return beat.Run(gctx)
	})
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newProvider(cfg config.ProviderConfig) (market.Provider, error) {
	switch cfg.Kind {
	case "mock":
		p := mockfeed.New(cfg.Mock.Seed)
		p.NetworkFailureRate = cfg.Mock.NetworkFailureRate
		p.RateLimitRate = cfg.Mock.RateLimitRate
		return p, nil
	case "bybit":
		client := bybit.NewRESTClient(cfg.Bybit.BaseURL, cfg.Bybit.Timeout)
		return bybitfeed.New(client, cfg.Bybit.Category), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
