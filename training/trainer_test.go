package training

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartrisk/db"
	"heartrisk/ml"
)

const sampleCSV = "../ml/testdata/heart_sample.csv"

func testConfig(t *testing.T) Config {
	params := ml.DefaultForestParams()
	params.NumTrees = 20
	return Config{
		DataPath:  sampleCSV,
		ModelPath: filepath.Join(t.TempDir(), "model_jantung.json"),
		ModelType: ml.TypeRandomForest,
		TestRatio: 0.2,
		Forest:    params,
	}
}

type memoryRuns struct {
	entries []db.TrainingLog
}

func (m *memoryRuns) SaveTrainingLog(_ context.Context, entry db.TrainingLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func TestRunWritesArtifact(t *testing.T) {
	cfg := testConfig(t)
	runs := &memoryRuns{}

	report, err := NewTrainer(cfg, nil, runs).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 160, report.TrainRows)
	assert.Equal(t, 40, report.TestRows)
	assert.GreaterOrEqual(t, report.Metrics.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Metrics.Accuracy, 1.0)
	assert.FileExists(t, cfg.ModelPath)

	model, err := ml.LoadModel(ml.TypeRandomForest, cfg.ModelPath)
	require.NoError(t, err)
	assert.Len(t, model.FeatureNames(), 13)

	require.Len(t, runs.entries, 1)
	assert.Equal(t, report.Metrics.Accuracy, runs.entries[0].Accuracy)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := testConfig(t)
	first, err := NewTrainer(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := NewTrainer(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Metrics.Accuracy, second.Metrics.Accuracy)
	assert.Equal(t, first.Metrics.Confusion, second.Metrics.Confusion)
}

func TestRunMissingTargetWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataPath = filepath.Join(t.TempDir(), "heart.csv")
	content := "age,sex,cp,trestbps,chol,fbs,restecg,thalach,exang,oldpeak,slope,ca,thal\n50,1,0,120,200,0,0,150,0,1.0,0,0,1\n"
	require.NoError(t, os.WriteFile(cfg.DataPath, []byte(content), 0o644))
	runs := &memoryRuns{}

	_, err := NewTrainer(cfg, nil, runs).Run(context.Background())
	require.Error(t, err)
	var dataErr *ml.DataError
	assert.ErrorAs(t, err, &dataErr)
	assert.ErrorIs(t, err, ml.ErrMissingColumn)
	assert.NoFileExists(t, cfg.ModelPath)
	assert.Empty(t, runs.entries)
}

func TestRunMissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataPath = filepath.Join(t.TempDir(), "absent.csv")

	_, err := NewTrainer(cfg, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoFileExists(t, cfg.ModelPath)
}

func TestRunKeepsPreviousArtifactOnFailure(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ModelPath, []byte("previous"), 0o644))
	cfg.DataPath = filepath.Join(t.TempDir(), "absent.csv")

	_, err := NewTrainer(cfg, nil, nil).Run(context.Background())
	require.Error(t, err)
	content, err := os.ReadFile(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(content))
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrainer(cfg, nil, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, cfg.ModelPath)
}

func TestRunDecisionTree(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelType = ml.TypeDecisionTree
	cfg.Forest.MaxDepth = 5

	_, err := NewTrainer(cfg, nil, nil).Run(context.Background())
	require.NoError(t, err)
	_, err = ml.LoadModel(ml.TypeDecisionTree, cfg.ModelPath)
	require.NoError(t, err)
}
