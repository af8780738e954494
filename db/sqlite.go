package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"heartrisk/clinical"
)

// Store keeps an audit trail of training runs and served verdicts.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir failed: %w", err)
		}
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50),
        model_path TEXT,
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER,
        test_points INTEGER
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        record TEXT NOT NULL,
        predicted_label INTEGER NOT NULL,
        prob_negative REAL NOT NULL,
        prob_positive REAL NOT NULL,
        created_at DATETIME NOT NULL
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	ModelPath  string    `json:"model_path"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
	TestPoints int       `json:"test_points"`
}

func (s *Store) SaveTrainingLog(ctx context.Context, entry TrainingLog) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (
            model_name, model_path, accuracy, precision, recall, trained_at, data_points, test_points
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ModelName, entry.ModelPath, entry.Accuracy, entry.Precision, entry.Recall,
		entry.TrainedAt.UTC(), entry.DataPoints, entry.TestPoints,
	)
	return err
}

// LoadTrainingLog returns runs newest first.
func (s *Store) LoadTrainingLog(ctx context.Context, limit int) ([]TrainingLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT model_name, model_path, accuracy, precision, recall, trained_at, data_points, test_points
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.ModelName, &log.ModelPath, &log.Accuracy, &log.Precision, &log.Recall,
			&log.TrainedAt, &log.DataPoints, &log.TestPoints); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

type Prediction struct {
	Record        clinical.Record `json:"record"`
	Label         int             `json:"label"`
	Probabilities [2]float64      `json:"probabilities"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SavePrediction satisfies predictor.Recorder.
func (s *Store) SavePrediction(ctx context.Context, record clinical.Record, label int, probabilities []float64) error {
	if len(probabilities) != 2 {
		return fmt.Errorf("expected 2 probabilities, got %d", len(probabilities))
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO predictions (record, predicted_label, prob_negative, prob_positive, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		string(payload), label, probabilities[0], probabilities[1], time.Now().UTC(),
	)
	return err
}

func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]Prediction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT record, predicted_label, prob_negative, prob_positive, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		var payload string
		if err := rows.Scan(&payload, &p.Label, &p.Probabilities[0], &p.Probabilities[1], &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &p.Record); err != nil {
			return nil, fmt.Errorf("decode stored record: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
