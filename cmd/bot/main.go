package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gamekey-bot/internal/bot"
	"gamekey-bot/internal/config"
	"gamekey-bot/internal/httpx"
	"gamekey-bot/internal/market"
	"gamekey-bot/internal/notify"
	"gamekey-bot/internal/postgres"
	"gamekey-bot/internal/purchases"
	"gamekey-bot/internal/reconciler"
	"gamekey-bot/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()

	if cfg.APIKey == "" {
		log.Fatal().Msg("MARKET_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db schema")
	}

	// Session staging: Redis when configured, in-process otherwise.
	var sessions session.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		sessions = session.NewRedis(rdb)
	} else {
		sessions = session.NewMemory()
	}

	// Delivery notifications
	prod := notify.NewProducer(cfg.KafkaBrokers, cfg.DeliveryTopic, cfg.ServiceName, 1024, log)
	prod.Start(ctx)

	client := market.NewClient(cfg.APIKey, cfg.APISecret, cfg.APIBaseURL)
	store := &purchases.Repo{DB: db}
	links := &purchases.LinkRepo{DB: db}

	svc := bot.NewService(client, store, links, sessions, prod, cfg.AllowedUsers, log)

	router := httpx.NewRouter()
	bh := &httpx.BotHandler{Svc: svc}
	bh.Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	rec := &reconciler.Reconciler{
		Store:        store,
		Market:       client,
		Notifier:     prod,
		Interval:     cfg.PollInterval,
		StartupDelay: cfg.PollStartupDelay,
		Log:          log.With().Str("component", "reconciler").Logger(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rec.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down...")
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("run group")
	}

	prod.Close()
	prod.WaitClosed()
	log.Info().Msg("stopped")
}
