package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"heartrisk/clinical"
	"heartrisk/ml"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrModelNotFound    = fmt.Errorf("%w: artifact not found", ErrModelUnavailable)
)

// Recorder persists served verdicts.
type Recorder interface {
	SavePrediction(ctx context.Context, record clinical.Record, label int, probabilities []float64) error
}

// Verdict is the presented outcome of one inference. Probability belongs to
// the predicted class.
type Verdict struct {
	Label         int        `json:"label"`
	Probability   float64    `json:"probability"`
	Probabilities [2]float64 `json:"probabilities"`
}

// DiseaseIndicated reports whether the model predicted class 1.
func (v Verdict) DiseaseIndicated() bool {
	return v.Label == 1
}

func (v Verdict) Headline() string {
	if v.DiseaseIndicated() {
		return "Heart disease indicated"
	}
	return "Healthy / low risk"
}

// ProbabilityLine is a format string taking the probability as a percentage.
func (v Verdict) ProbabilityLine() string {
	if v.DiseaseIndicated() {
		return "Probability: %.1f%%"
	}
	return "Probability of being healthy: %.1f%%"
}

func (v Verdict) Advice() string {
	if v.DiseaseIndicated() {
		return "Recommendation: consult a cardiologist promptly for further examination."
	}
	return "Recommendation: keep a healthy lifestyle, a balanced diet and regular exercise."
}

func (v Verdict) Percent() float64 {
	return v.Probability * 100
}

type Option func(*Predictor)

func WithRecorder(recorder Recorder) Option {
	return func(p *Predictor) { p.recorder = recorder }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Predictor) { p.logger = logger }
}

// WithCacheSize bounds the verdict cache; 0 disables it.
func WithCacheSize(size int) Option {
	return func(p *Predictor) { p.cacheSize = size }
}

// Predictor answers one submission at a time against an injected model.
type Predictor struct {
	mu         sync.RWMutex
	model      ml.Classifier
	generation uint64
	loadErr    error
	cache      *lru.Cache[clinical.Record, Verdict]
	cacheSize  int
	recorder   Recorder
	logger     *zap.Logger
}

// New wraps model, which may be nil until Swap provides one.
func New(model ml.Classifier, opts ...Option) *Predictor {
	p := &Predictor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.cacheSize > 0 {
		cache, err := lru.New[clinical.Record, Verdict](p.cacheSize)
		if err == nil {
			p.cache = cache
		}
	}
	if model != nil {
		if err := checkSchema(model); err != nil {
			p.loadErr = err
		} else {
			p.model = model
		}
	}
	return p
}

// LoadArtifact reads the model file, mapping a missing file to ErrModelNotFound.
func LoadArtifact(modelType, path string) (ml.Classifier, error) {
	model, err := ml.LoadModel(modelType, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if err := checkSchema(model); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// SetUnavailable records why no model is loaded, for Ready to report.
func (p *Predictor) SetUnavailable(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadErr = err
}

// Ready returns nil when a model is loaded.
func (p *Predictor) Ready() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model != nil {
		return nil
	}
	if p.loadErr != nil {
		if errors.Is(p.loadErr, ErrModelUnavailable) {
			return p.loadErr
		}
		return fmt.Errorf("%w: %w", ErrModelUnavailable, p.loadErr)
	}
	return ErrModelNotFound
}

// Swap installs a new model and drops cached verdicts. Verdicts still in
// flight against the previous model are not cached.
func (p *Predictor) Swap(model ml.Classifier) error {
	if model == nil {
		return errors.New("nil model")
	}
	if err := checkSchema(model); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
	p.loadErr = nil
	p.generation++
	if p.cache != nil {
		p.cache.Purge()
	}
	return nil
}

// Predict runs one inference. No model call is made when the record is out of
// domain or no model is loaded.
func (p *Predictor) Predict(ctx context.Context, record clinical.Record) (Verdict, error) {
	if err := record.Validate(); err != nil {
		return Verdict{}, err
	}

	p.mu.RLock()
	model, generation := p.model, p.generation
	p.mu.RUnlock()
	if model == nil {
		return Verdict{}, p.Ready()
	}

	if p.cache != nil {
		if verdict, ok := p.cache.Get(record); ok {
			p.record(ctx, record, verdict)
			return verdict, nil
		}
	}

	row := record.Vector()
	label, _, err := model.Predict(row)
	if err != nil {
		return Verdict{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := model.PredictProba(row)
	if err != nil {
		return Verdict{}, fmt.Errorf("predict proba: %w", err)
	}
	if label < 0 || label > 1 || len(proba) != 2 {
		return Verdict{}, fmt.Errorf("model returned label %d with %d probabilities", label, len(proba))
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-6 {
		return Verdict{}, fmt.Errorf("model probabilities sum to %f", proba[0]+proba[1])
	}

	verdict := Verdict{
		Label:         label,
		Probability:   proba[label],
		Probabilities: [2]float64{proba[0], proba[1]},
	}
	p.cacheVerdict(generation, record, verdict)
	p.logger.Debug("prediction served",
		zap.Int("label", verdict.Label),
		zap.Float64("probability", verdict.Probability))
	p.record(ctx, record, verdict)
	return verdict, nil
}

// cacheVerdict stores verdict unless the model changed while it was computed.
func (p *Predictor) cacheVerdict(generation uint64, record clinical.Record, verdict Verdict) {
	if p.cache == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.generation == generation {
		p.cache.Add(record, verdict)
	}
}

func (p *Predictor) record(ctx context.Context, record clinical.Record, verdict Verdict) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.SavePrediction(ctx, record, verdict.Label, verdict.Probabilities[:]); err != nil {
		p.logger.Warn("failed to record prediction", zap.Error(err))
	}
}

func checkSchema(model ml.Classifier) error {
	if names := model.FeatureNames(); !slices.Equal(names, clinical.FeatureNames()) {
		return fmt.Errorf("%w: model expects %v", ml.ErrSchemaMismatch, names)
	}
	return nil
}
