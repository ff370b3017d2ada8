package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"evdash/app"
	"evdash/internal/config"
	loader "evdash/internal/dataset"
	"evdash/internal/logging"
	"evdash/ui"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(appConfig.Logging.Level, appConfig.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(appConfig, logger); err != nil {
		logger.Fatal("evdash stopped", zap.Error(err))
	}
}

func run(appConfig *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := loader.OptionsFrom(appConfig, logger.Named("loader"))
	source, closeSource, err := app.ConfiguredSource(ctx, appConfig, opts)
	if err != nil {
		return err
	}
	defer closeSource()

	if source == nil {
		logger.Info("no data source configured, waiting for uploads")
	} else {
		logger.Info("data source configured", zap.String("source", source.Key()))
	}

	cache := loader.NewCache(appConfig.Cache.Enabled, loader.DefaultCacheEntries, logger.Named("cache"))
	if fileSource, ok := source.(*loader.FileSource); ok && appConfig.Cache.WatchFiles {
		watcher, err := loader.NewWatcher(cache, logger.Named("watcher"))
		if err != nil {
			return err
		}
		defer watcher.Close()
		if err := watcher.Watch(fileSource); err != nil {
			return err
		}
		go watcher.Run(ctx)
	}

	service := app.NewDashboardService(cache, logger.Named("dashboard"))
	if source != nil {
		// Warm the cache; load errors are shown on the page
		if _, err := service.Load(ctx, source); err != nil {
			logger.Warn("initial load failed", zap.Error(err))
		}
	}

	server, err := ui.NewServer(ui.Config{
		Service:        service,
		Default:        source,
		Upload:         opts,
		MaxUploadBytes: appConfig.Upload.MaxMB << 20,
		GinMode:        appConfig.Server.GinMode,
		Logger:         logger.Named("server"),
	})
	if err != nil {
		return err
	}

	return server.Run(ctx, ":"+appConfig.Server.Port)
}
