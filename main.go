package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"heartrisk/config"
	"heartrisk/db"
	qhttp "heartrisk/http"
	"heartrisk/logging"
	"heartrisk/monitoring"
	"heartrisk/predictor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// run owns every resource it opens, so deferred cleanup runs on all paths.
func run(cfg *config.Config, logger *zap.Logger) error {
	// 2. Open the audit store
	opts := []predictor.Option{
		predictor.WithLogger(logger),
		predictor.WithCacheSize(cfg.ML.CacheSize),
	}
	var history qhttp.TrainingHistory
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
		}
		defer store.Close()
		opts = append(opts, predictor.WithRecorder(store))
		history = store
		logger.Info("database initialized", zap.String("path", cfg.Database.Path))
	}

	// 3. Load the model once
	model, loadErr := predictor.LoadArtifact(cfg.ML.ModelType, cfg.ML.ModelPath)
	p := predictor.New(model, opts...)
	if loadErr != nil {
		p.SetUnavailable(loadErr)
		logger.Warn("model not loaded, prediction is blocked",
			zap.String("path", cfg.ML.ModelPath), zap.Error(loadErr))
	} else {
		logger.Info("model loaded", zap.String("path", cfg.ML.ModelPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ML.Watch {
		if err := predictor.Watch(ctx, p, cfg.ML.ModelType, cfg.ML.ModelPath); err != nil {
			logger.Warn("model watcher disabled", zap.Error(err))
		}
	}

	// 4. Start HTTP server
	handler := qhttp.NewHandler(qhttp.HandlerConfig{
		Predictor: p,
		History:   history,
		ModelPath: cfg.ML.ModelPath,
		Language:  cfg.UI.Language,
		Metrics:   monitoring.NewCollector(),
		Logger:    logger,
	})
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxRequestBody: cfg.Http.MaxRequestBody,
	}, handler, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
	return nil
}
