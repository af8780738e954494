package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"heartrisk/clinical"
)

var (
	ErrMissingColumn    = errors.New("missing column")
	ErrUnexpectedColumn = errors.New("unexpected column")
	ErrEmptyDataset     = errors.New("dataset has no rows")
)

// DataError reports a training file that cannot be used.
type DataError struct {
	Path string
	Line int
	Err  error
}

func (e *DataError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Dataset is a labeled table in clinical column order.
type Dataset struct {
	FeatureNames []string
	Features     [][]float64
	Labels       []int
}

func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Positives counts rows labeled 1.
func (d *Dataset) Positives() int {
	count := 0
	for _, label := range d.Labels {
		if label == 1 {
			count++
		}
	}
	return count
}

// LoadDataset reads a CSV whose header holds the 13 clinical columns plus
// target, in any order. A leading UTF-8 byte order mark is ignored.
func LoadDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DataError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(transform.NewReader(file, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &DataError{Path: path, Line: 1, Err: ErrEmptyDataset}
	}
	if err != nil {
		return nil, &DataError{Path: path, Line: 1, Err: err}
	}

	columns, targetCol, err := mapHeader(header)
	if err != nil {
		return nil, &DataError{Path: path, Line: 1, Err: err}
	}

	names := clinical.FeatureNames()
	dataset := &Dataset{FeatureNames: names}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, &DataError{Path: path, Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)

		features := make([]float64, len(names))
		for i, col := range columns {
			value, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, &DataError{Path: path, Line: line, Err: fmt.Errorf("column %s: %w", names[i], err)}
			}
			features[i] = value
		}
		label, err := strconv.Atoi(strings.TrimSpace(row[targetCol]))
		if err != nil || (label != 0 && label != 1) {
			return nil, &DataError{Path: path, Line: line, Err: fmt.Errorf("column %s: expected 0 or 1, got %q", clinical.TargetColumn, row[targetCol])}
		}

		dataset.Features = append(dataset.Features, features)
		dataset.Labels = append(dataset.Labels, label)
	}

	if dataset.Len() == 0 {
		return nil, &DataError{Path: path, Err: ErrEmptyDataset}
	}
	return dataset, nil
}

// mapHeader returns, for each clinical column, its position in the file, and
// the position of the target column.
func mapHeader(header []string) ([]int, int, error) {
	positions := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if _, dup := positions[name]; dup {
			return nil, 0, fmt.Errorf("duplicate column %q", name)
		}
		if name != clinical.TargetColumn && clinical.ColumnIndex(name) < 0 {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnexpectedColumn, name)
		}
		positions[name] = i
	}

	names := clinical.FeatureNames()
	columns := make([]int, len(names))
	var missing []string
	for i, name := range names {
		pos, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[i] = pos
	}
	targetCol, ok := positions[clinical.TargetColumn]
	if !ok {
		missing = append(missing, clinical.TargetColumn)
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns, targetCol, nil
}
