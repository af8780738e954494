package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"heartrisk/ml"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxRequestBody int64         `yaml:"max_request_body"`
	} `yaml:"http"`
	Log      LogConfig `yaml:"log"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	ML struct {
		ModelType string         `yaml:"model_type"`
		ModelPath string         `yaml:"model_path"`
		Watch     bool           `yaml:"watch"`
		CacheSize int            `yaml:"cache_size"`
		Training  TrainingConfig `yaml:"training"`
	} `yaml:"ml"`
	UI struct {
		Language string `yaml:"language"`
	} `yaml:"ui"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TrainingConfig struct {
	DataPath  string          `yaml:"data_path"`
	TestRatio float64         `yaml:"test_ratio"`
	Forest    ml.ForestParams `yaml:"forest"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.Http.Port = 8501
	cfg.Http.Timeout = 30 * time.Second
	cfg.Http.MaxRequestBody = 1 << 20
	cfg.Log = LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28}
	cfg.ML.ModelType = ml.TypeRandomForest
	cfg.ML.ModelPath = "model_jantung.json"
	cfg.ML.CacheSize = 256
	cfg.ML.Training = TrainingConfig{
		DataPath:  "heart.csv",
		TestRatio: 0.2,
		Forest:    ml.DefaultForestParams(),
	}
	cfg.UI.Language = "en"
	return cfg
}

// Load reads path over the defaults. A missing file is not an error: both
// binaries run with no configuration at all.
func Load(path string) (*Config, error) {
	cfg := Default()
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// An empty or comment-only file decodes to io.EOF and leaves the defaults.
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.ML.ModelPath == "" {
		return errors.New("ml.model_path is required")
	}
	switch c.ML.ModelType {
	case ml.TypeRandomForest, ml.TypeDecisionTree:
	default:
		return fmt.Errorf("ml.model_type %q not supported", c.ML.ModelType)
	}
	if r := c.ML.Training.TestRatio; r <= 0 || r >= 1 {
		return fmt.Errorf("ml.training.test_ratio %v must be in (0,1)", r)
	}
	if c.ML.Training.Forest.NumTrees <= 0 {
		return errors.New("ml.training.forest.num_trees must be positive")
	}
	switch c.UI.Language {
	case "en", "id":
	default:
		return fmt.Errorf("ui.language %q not supported", c.UI.Language)
	}
	return nil
}
