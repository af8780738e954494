package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"heartrisk/clinical"
	"heartrisk/db"
	"heartrisk/i18n"
	"heartrisk/monitoring"
	"heartrisk/predictor"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// TrainingHistory lists past training runs.
type TrainingHistory interface {
	LoadTrainingLog(ctx context.Context, limit int) ([]db.TrainingLog, error)
}

type HandlerConfig struct {
	Predictor *predictor.Predictor
	History   TrainingHistory
	ModelPath string
	Language  string
	Metrics   *monitoring.Collector
	Logger    *zap.Logger
}

// Handler serves the form and the JSON API. It owns no model state; the
// predictor is injected.
type Handler struct {
	predictor *predictor.Predictor
	history   TrainingHistory
	modelPath string
	lang      string
	tr        *i18n.Translator
	decoder   *schema.Decoder
	metrics   *monitoring.Collector
	logger    *zap.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		predictor: cfg.Predictor,
		history:   cfg.History,
		modelPath: cfg.ModelPath,
		lang:      lang,
		tr:        i18n.NewTranslator(lang),
		decoder:   decoder,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handleSubmit)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/training/runs", h.handleTrainingRuns)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type fieldView struct {
	Name    string
	Label   string
	Help    string
	Min     string
	Max     string
	Step    string
	Value   string
	Options []optionView
}

type resultView struct {
	Disease     bool
	Headline    string
	Probability string
	Advice      string
}

type pageView struct {
	Lang        string
	Title       string
	Intro       string
	Subtitle    string
	Submit      string
	ResultTitle string
	Blocked     string
	Error       string
	Fields      []fieldView
	Result      *resultView
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	page := h.newPage(clinical.DefaultRecord().Values())
	if err := h.predictor.Ready(); err != nil {
		page.Blocked = h.unavailableMessage(err)
		h.render(w, http.StatusServiceUnavailable, page)
		return
	}
	h.render(w, http.StatusOK, page)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.predictor.Ready(); err != nil {
		page := h.newPage(clinical.DefaultRecord().Values())
		page.Blocked = h.unavailableMessage(err)
		h.render(w, http.StatusServiceUnavailable, page)
		return
	}

	if err := r.ParseForm(); err != nil {
		page := h.newPage(clinical.DefaultRecord().Values())
		page.Error = h.tr.Text("Invalid form submission.")
		h.render(w, http.StatusBadRequest, page)
		return
	}
	var record clinical.Record
	if err := h.decoder.Decode(&record, r.PostForm); err != nil {
		h.logger.Debug("form decode failed", zap.Error(err))
		page := h.newPage(clinical.DefaultRecord().Values())
		page.Error = h.tr.Text("Invalid form submission.")
		h.render(w, http.StatusBadRequest, page)
		return
	}

	page := h.newPage(record.Values())
	verdict, err := h.predict(r.Context(), record)
	if err != nil {
		status := h.errorStatus(err)
		var verr *clinical.ValidationError
		switch {
		case errors.As(err, &verr):
			page.Error = h.tr.Sprintf("Some values are out of range: %s", fieldList(verr))
		case errors.Is(err, predictor.ErrModelUnavailable):
			page.Blocked = h.unavailableMessage(err)
		default:
			h.logger.Error("prediction failed", zap.Error(err))
			page.Error = h.tr.Text("Prediction failed. Please try again.")
		}
		h.render(w, status, page)
		return
	}

	page.Result = &resultView{
		Disease:     verdict.DiseaseIndicated(),
		Headline:    h.tr.Text(verdict.Headline()),
		Probability: h.tr.Sprintf(verdict.ProbabilityLine(), verdict.Percent()),
		Advice:      h.tr.Text(verdict.Advice()),
	}
	h.render(w, http.StatusOK, page)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if err := h.predictor.Ready(); err != nil {
		status = map[string]string{"status": "model_unavailable", "error": err.Error()}
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *Handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features": clinical.Fields(),
		"target":   clinical.TargetColumn,
	})
}

type predictResponse struct {
	Label         int        `json:"label"`
	Verdict       string     `json:"verdict"`
	Probability   float64    `json:"probability"`
	Probabilities [2]float64 `json:"probabilities"`
	Advice        string     `json:"advice"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var values map[string]*float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse request body")
		return
	}
	record, err := clinical.FromNullable(values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	verdict, err := h.predict(r.Context(), record)
	if err != nil {
		status := h.errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("prediction failed", zap.Error(err))
			writeError(w, status, "prediction failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		Label:         verdict.Label,
		Verdict:       h.tr.Text(verdict.Headline()),
		Probability:   verdict.Probability,
		Probabilities: verdict.Probabilities,
		Advice:        h.tr.Text(verdict.Advice()),
	})
}

func (h *Handler) handleTrainingRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "training history is not enabled")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}
	runs, err := h.history.LoadTrainingLog(r.Context(), limit)
	if err != nil {
		h.logger.Error("load training log failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to load training history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeError(w, http.StatusNotFound, "metrics are not enabled")
		return
	}
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(h.metrics.ExportPrometheus()))
		return
	}
	payload := map[string]interface{}{
		"metrics": h.metrics.Snapshot(),
		"system":  h.metrics.SystemStats(),
	}
	if latency, err := h.metrics.Summary(monitoring.MetricPredictionLatency); err == nil {
		payload["latency"] = latency
	}
	writeJSON(w, http.StatusOK, payload)
}

// predict wraps the predictor call with metrics.
func (h *Handler) predict(ctx context.Context, record clinical.Record) (predictor.Verdict, error) {
	start := time.Now()
	verdict, err := h.predictor.Predict(ctx, record)
	if err != nil {
		reason := "internal"
		switch h.errorStatus(err) {
		case http.StatusBadRequest:
			reason = "invalid_input"
		case http.StatusServiceUnavailable:
			reason = "model_unavailable"
		}
		h.metrics.RecordPredictionError(reason)
		return verdict, err
	}
	h.metrics.RecordPrediction(verdict.Label, time.Since(start))
	return verdict, nil
}

func (h *Handler) newPage(values map[string]float64) pageView {
	t := h.tr
	page := pageView{
		Lang:        h.lang,
		Title:       t.Text("Heart Disease Risk Prediction"),
		Intro:       t.Text("Fill in the form below with the patient's clinical data."),
		Subtitle:    t.Text("Patient data"),
		Submit:      t.Text("Predict"),
		ResultTitle: t.Text("Prediction result"),
	}
	for _, field := range clinical.Fields() {
		view := fieldView{
			Name:  field.Name,
			Label: t.Text(field.Label),
			Value: field.FormatValue(values[field.Name]),
		}
		if field.Help != "" {
			view.Help = t.Text(field.Help)
		}
		if field.Kind == clinical.KindSelect {
			for _, opt := range field.Options {
				view.Options = append(view.Options, optionView{
					Value:    field.FormatValue(opt.Value),
					Label:    t.Text(opt.Label),
					Selected: opt.Value == values[field.Name],
				})
			}
		} else {
			view.Min = field.FormatValue(field.Min)
			view.Max = field.FormatValue(field.Max)
			view.Step = strconv.FormatFloat(field.Step, 'f', -1, 64)
		}
		page.Fields = append(page.Fields, view)
	}
	return page
}

func (h *Handler) unavailableMessage(err error) string {
	if errors.Is(err, predictor.ErrModelNotFound) {
		return h.tr.Sprintf("Model file '%s' was not found. Run the trainer first.", h.modelPath)
	}
	return h.tr.Sprintf("The model is unavailable: %s", err.Error())
}

func (h *Handler) errorStatus(err error) int {
	var verr *clinical.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, predictor.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, page pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, page); err != nil {
		h.logger.Error("render page failed", zap.Error(err))
	}
}

func fieldList(verr *clinical.ValidationError) string {
	out := ""
	for i, f := range verr.Fields {
		if i > 0 {
			out += ", "
		}
		out += f.Field
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
