package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopbridge/internal/auth"
	"shopbridge/internal/cache"
	"shopbridge/internal/config"
	"shopbridge/internal/events"
	"shopbridge/internal/httpserver"
	"shopbridge/internal/logger"
	"shopbridge/internal/metrics"
	"shopbridge/internal/payment/stripe"
	"shopbridge/internal/service/access"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/service/checkout"
	"shopbridge/internal/service/order"
	"shopbridge/internal/service/pricing"
	"shopbridge/internal/service/profile"
	"shopbridge/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("api")
	defer func() { _ = log.Sync() }()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	repos, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer repos.Close()

	sessionCache := cache.NewMemorySessionCache()
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		sessionCache = cache.NewRedisSessionCache(rdb, cfg.SessionTTL, log)
	}

	publisher := events.NewNopPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	}
	defer publisher.Close()

	m := metrics.New()
	gate := access.New(repos.Roles, cfg.BootstrapAdmins, log)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, "shopbridge")

	checkoutSvc := checkout.New(checkout.Deps{
		Settings: repos.Settings,
		Sessions: repos.Sessions,
		Provider: stripe.NewClient(cfg.StripeBaseURL, &http.Client{Timeout: cfg.ProviderTimeout + 5*time.Second}, log),
		Cache:    sessionCache,
		Gate:     gate,
		Metrics:  m,
		Logger:   log,
	}, checkout.Config{
		Currency:   cfg.Currency,
		Timeout:    cfg.ProviderTimeout,
		MaxRetries: uint64(cfg.ProviderRetries),
	})

	ledger := order.New(order.Deps{
		Orders:    repos.Orders,
		Sessions:  checkoutSvc,
		Gate:      gate,
		Publisher: publisher,
		Metrics:   m,
		Logger:    log,
	}, order.Config{RequireCheckoutSession: cfg.RequireCheckoutSession})

	deps := httpserver.Deps{
		Catalog:     catalog.New(repos.Products, gate, log),
		Pricing:     pricing.New(repos.Settings, gate, log).WithMetrics(m),
		Checkout:    checkoutSvc,
		Orders:      ledger,
		Profiles:    profile.New(repos.Users, gate, issuer, log),
		Roles:       gate,
		Tokens:      issuer,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	}
	if repos.Pool != nil {
		deps.DB = repos.Pool
	}

	srv, err := httpserver.New(cfg.HTTPAddr, log, deps)
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
}
