package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicehub/broker"
	"servicehub/config"
	"servicehub/controllers"
	"servicehub/database"
	"servicehub/middlewares"
	"servicehub/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	tokenTTL        = 12 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so deferred cleanup runs before exit.
func realMain(args []string) int {
	flags := pflag.NewFlagSet("servicehub", pflag.ContinueOnError)
	envFile := flags.String("env-file", "", "load settings from this .env file")
	httpAddr := flags.String("http-addr", "", "status API listen address (overrides HTTP_ADDR)")
	logLevel := flags.String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	addOperator := flags.String("add-operator", "", "create or re-key a status API operator and exit; password from SERVICEHUB_OPERATOR_PASSWORD")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *addOperator != "" {
		err = runAddOperator(ctx, cfg, log, *addOperator)
	} else {
		err = run(ctx, cfg, log)
	}
	if err != nil {
		log.Error("servicehub stopped", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	if format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zc.Build()
}

func runAddOperator(ctx context.Context, cfg *config.Config, log *zap.Logger, name string) error {
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	store := database.NewStore(db)
	if err := controllers.CreateOperator(ctx, store, name, os.Getenv("SERVICEHUB_OPERATOR_PASSWORD")); err != nil {
		return fmt.Errorf("add operator %s: %w", name, err)
	}
	log.Info("operator saved", zap.String("name", name))
	return nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// ---- Store
	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	store := database.NewStore(db)

	// ---- Broker
	conn, err := broker.Dial(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Declare(broker.NewTopology(cfg)); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	pub := broker.NewPublisher(conn.ConfirmChannels(), 0, log, broker.WithExchangeCheck(conn.CheckExchange))
	defer pub.Close()

	hub := controllers.NewHub(cfg, store, pub, middlewares.NewValidator(cfg), log)

	// ---- Status API
	app := fiber.New(fiber.Config{
		ErrorHandler:          middlewares.ErrorHandler(log),
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: time.Duration(cfg.RateLimitWindow) * time.Second,
	}))
	status := controllers.NewStatus(store, map[string]controllers.Check{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"broker": func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	})
	secret := []byte(cfg.JWTSecret)
	routes.Register(app, status, controllers.NewAuth(store, secret, tokenTTL), secret)

	// ---- Run
	g, gctx := errgroup.WithContext(ctx)
	for _, route := range routes.Consumers(cfg, hub) {
		g.Go(func() error { return conn.Consume(gctx, route, cfg.RMQPrefetch) })
	}
	g.Go(func() error {
		log.Info("status API listening", zap.String("addr", cfg.HTTPAddr))
		return app.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
