package training

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"heartrisk/db"
	"heartrisk/ml"
)

type Config struct {
	DataPath  string
	ModelPath string
	ModelType string
	TestRatio float64
	Forest    ml.ForestParams
}

// RunLogger receives one entry per successful run.
type RunLogger interface {
	SaveTrainingLog(ctx context.Context, entry db.TrainingLog) error
}

type Report struct {
	Metrics   ml.Metrics
	TrainRows int
	TestRows  int
	ModelPath string
	Duration  time.Duration
}

// Trainer runs the offline fit: load, split, fit, evaluate, save.
type Trainer struct {
	config Config
	logger *zap.Logger
	runs   RunLogger
}

func NewTrainer(config Config, logger *zap.Logger, runs RunLogger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{config: config, logger: logger, runs: runs}
}

// Run aborts at the first failing step. The artifact is only written after a
// successful fit, so a bad dataset never touches an existing model file.
func (t *Trainer) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	if t.config.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}

	dataset, err := ml.LoadDataset(t.config.DataPath)
	if err != nil {
		return nil, err
	}
	t.logger.Info("dataset loaded",
		zap.String("path", t.config.DataPath),
		zap.Int("rows", dataset.Len()),
		zap.Int("positives", dataset.Positives()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trainX, trainY, testX, testY := ml.TrainTestSplit(dataset.Features, dataset.Labels, t.config.TestRatio, t.config.Forest.Seed)
	if len(trainX) == 0 || len(testX) == 0 {
		return nil, &ml.DataError{Path: t.config.DataPath, Err: fmt.Errorf("%d rows are too few to split", dataset.Len())}
	}

	model, err := t.newModel(dataset.FeatureNames)
	if err != nil {
		return nil, err
	}
	if err := model.Train(trainX, trainY); err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	t.logger.Info("model trained",
		zap.String("type", t.modelType()),
		zap.Int("trees", t.config.Forest.NumTrees),
		zap.Int64("seed", t.config.Forest.Seed),
		zap.Int("train_rows", len(trainX)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics, err := ml.Evaluate(model, testX, testY)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}

	if dir := filepath.Dir(t.config.ModelPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create model dir: %w", err)
		}
	}
	if err := model.Save(t.config.ModelPath); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	report := &Report{
		Metrics:   metrics,
		TrainRows: len(trainX),
		TestRows:  len(testX),
		ModelPath: t.config.ModelPath,
		Duration:  time.Since(start),
	}
	t.logger.Info("model saved",
		zap.String("path", report.ModelPath),
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Duration("elapsed", report.Duration))

	if t.runs != nil {
		entry := db.TrainingLog{
			ModelName:  t.modelType(),
			ModelPath:  report.ModelPath,
			Accuracy:   metrics.Accuracy,
			Precision:  metrics.Precision,
			Recall:     metrics.Recall,
			TrainedAt:  time.Now(),
			DataPoints: report.TrainRows,
			TestPoints: report.TestRows,
		}
		if err := t.runs.SaveTrainingLog(ctx, entry); err != nil {
			t.logger.Warn("failed to record training run", zap.Error(err))
		}
	}
	return report, nil
}

func (t *Trainer) modelType() string {
	if t.config.ModelType == "" {
		return ml.TypeRandomForest
	}
	return t.config.ModelType
}

func (t *Trainer) newModel(featureNames []string) (ml.MLModel, error) {
	switch t.modelType() {
	case ml.TypeRandomForest:
		return ml.NewRandomForest(t.config.Forest, featureNames), nil
	case ml.TypeDecisionTree:
		tree := ml.NewDecisionTree(t.config.Forest.MaxDepth, featureNames)
		if t.config.Forest.MinSamplesSplit > 2 {
			tree.MinSamplesSplit = t.config.Forest.MinSamplesSplit
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", t.config.ModelType)
	}
}
