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
	"heartrisk/logging"
	"heartrisk/training"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("training failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runs training.RunLogger
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		runs = store
	}

	trainer := training.NewTrainer(training.Config{
		DataPath:  cfg.ML.Training.DataPath,
		ModelPath: cfg.ML.ModelPath,
		ModelType: cfg.ML.ModelType,
		TestRatio: cfg.ML.Training.TestRatio,
		Forest:    cfg.ML.Training.Forest,
	}, logger, runs)

	report, err := trainer.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Model accuracy: %.2f%%\n", report.Metrics.Accuracy*100)
	fmt.Printf("Model saved to %s\n", report.ModelPath)
	return nil
}
