package monitoring

import (
	"strings"
	"testing"
	"time"
)

func TestRecordPrediction(t *testing.T) {
	c := NewCollector()
	c.RecordPrediction(1, 10*time.Millisecond)
	c.RecordPrediction(1, 30*time.Millisecond)
	c.RecordPrediction(0, 20*time.Millisecond)
	c.RecordPredictionError("invalid_input")

	if got := c.Value(MetricPredictions, map[string]string{"label": "1"}); got != 2 {
		t.Errorf("label 1 count = %v, want 2", got)
	}
	if got := c.Value(MetricPredictions, map[string]string{"label": "0"}); got != 1 {
		t.Errorf("label 0 count = %v, want 1", got)
	}
	if got := c.Value(MetricPredictionErrors, map[string]string{"reason": "invalid_input"}); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}

	summary, err := c.Summary(MetricPredictionLatency)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count != 3 {
		t.Errorf("count = %d, want 3", summary.Count)
	}
	if summary.Min != 0.01 || summary.Max != 0.03 {
		t.Errorf("unexpected bounds %+v", summary)
	}
}

func TestSummaryWithoutSamples(t *testing.T) {
	if _, err := NewCollector().Summary("missing"); err == nil {
		t.Fatal("expected error for an empty histogram")
	}
}

func TestObserveKeepsRecentSamples(t *testing.T) {
	c := NewCollector()
	for i := 0; i < maxSamples+50; i++ {
		c.Observe("latency", "", float64(i))
	}
	summary, err := c.Summary("latency")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count != maxSamples {
		t.Errorf("count = %d, want %d", summary.Count, maxSamples)
	}
	if summary.Min != 50 {
		t.Errorf("oldest samples not dropped, min = %v", summary.Min)
	}
}

func TestExportPrometheus(t *testing.T) {
	c := NewCollector()
	c.RecordPrediction(0, time.Millisecond)
	c.RecordPrediction(1, time.Millisecond)
	c.SetGauge("heartrisk_model_loaded", "Whether a model is loaded", 1)

	out := c.ExportPrometheus()
	for _, want := range []string{
		"# TYPE heartrisk_predictions_total counter",
		`heartrisk_predictions_total{label="0"} 1`,
		`heartrisk_predictions_total{label="1"} 1`,
		"heartrisk_model_loaded 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "# TYPE heartrisk_predictions_total") != 1 {
		t.Error("type line repeated for labelled series")
	}
}

func TestNilCollectorIgnoresWrites(t *testing.T) {
	var c *Collector
	c.RecordPrediction(1, time.Millisecond)
	c.RecordPredictionError("internal")
	c.SetGauge("g", "", 1)
}
