package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"shopbridge/internal/config"
	"shopbridge/internal/domain"
	"shopbridge/internal/logger"
	"shopbridge/internal/seed"
	"shopbridge/internal/service/access"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/storage"

	"go.uber.org/zap"
)

func main() {
	markup := flag.Int64("markup", 15, "markup percent to apply")
	countries := flag.String("countries", "IN", "comma separated shipping countries used with STRIPE_SECRET_KEY")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("seed")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	repos, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer repos.Close()

	opts := seed.Options{MarkupPercent: *markup}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		opts.Payment = &domain.PaymentConfig{SecretKey: key, AllowedCountries: strings.Split(*countries, ",")}
	}

	svc := catalog.New(repos.Products, access.New(repos.Roles, cfg.BootstrapAdmins, log), log)
	if _, err := seed.Apply(ctx, svc, repos.Settings, opts, log); err != nil {
		log.Fatal("seed apply", zap.Error(err))
	}
}
