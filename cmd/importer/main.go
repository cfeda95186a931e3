package main

import (
	"context"
	"flag"
	"os"
	"time"

	"shopbridge/internal/config"
	"shopbridge/internal/importer"
	"shopbridge/internal/logger"
	"shopbridge/internal/service/access"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/storage"

	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,platform,base_price,...)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("importer")
	defer func() { _ = log.Sync() }()

	if cfg.StorageDriver == config.StorageMemory {
		log.Fatal("importer needs persistent storage; set STORAGE_DRIVER=postgres")
	}

	ctx := context.Background()
	repos, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer repos.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	svc := catalog.New(repos.Products, access.New(repos.Roles, cfg.BootstrapAdmins, log), log)

	start := time.Now()
	count, err := importer.NewCSVImporter(f, svc, log).Run(ctx)
	if err != nil {
		log.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}
	log.Info("import finished", zap.Int("imported", count), zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))
}
