package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ML.ModelPath != "model_jantung.json" {
		t.Errorf("unexpected model path %q", cfg.ML.ModelPath)
	}
	if cfg.ML.Training.Forest.NumTrees != 100 || cfg.ML.Training.Forest.Seed != 42 {
		t.Errorf("unexpected forest defaults %+v", cfg.ML.Training.Forest)
	}
	if cfg.ML.Training.TestRatio != 0.2 {
		t.Errorf("unexpected test ratio %v", cfg.ML.Training.TestRatio)
	}
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "comments only", content: "# nothing configured yet\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Http.Port != 8501 || cfg.ML.ModelPath != "model_jantung.json" {
				t.Errorf("defaults not applied: %+v", cfg)
			}
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http:
  port: 9000
  timeout: 5s
ml:
  model_path: /tmp/model.json
  training:
    forest:
      num_trees: 10
ui:
  language: id
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 9000 || cfg.Http.Timeout != 5*time.Second {
		t.Errorf("http not overridden: %+v", cfg.Http)
	}
	if cfg.ML.ModelPath != "/tmp/model.json" || cfg.ML.Training.Forest.NumTrees != 10 {
		t.Errorf("ml not overridden: %+v", cfg.ML)
	}
	if cfg.ML.Training.DataPath != "heart.csv" {
		t.Errorf("untouched default lost: %q", cfg.ML.Training.DataPath)
	}
	if cfg.UI.Language != "id" {
		t.Errorf("unexpected language %q", cfg.UI.Language)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad ratio":    "ml:\n  training:\n    test_ratio: 1.5\n",
		"bad type":     "ml:\n  model_type: svm\n",
		"bad language": "ui:\n  language: fr\n",
		"bad yaml":     "http: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
