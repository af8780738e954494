// Package monitoring keeps in-process counters for the prediction service.
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// maxSamples bounds the observations kept per histogram.
const maxSamples = 1000

type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
	Help   string            `json:"help,omitempty"`
}

// Collector holds the latest value of every series plus recent histogram
// observations. The zero value is not usable; a nil *Collector ignores writes.
type Collector struct {
	mu        sync.RWMutex
	series    map[string]*Metric
	samples   map[string][]float64
	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{
		series:    make(map[string]*Metric),
		samples:   make(map[string][]float64),
		startTime: time.Now(),
	}
}

func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf(`%s="%s"`, k, labels[k])
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

func (c *Collector) IncrCounter(name, help string, labels map[string]string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := seriesKey(name, labels)
	m, ok := c.series[key]
	if !ok {
		m = &Metric{Name: name, Type: MetricTypeCounter, Labels: labels, Help: help}
		c.series[key] = m
	}
	m.Value++
}

func (c *Collector) SetGauge(name, help string, value float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series[name] = &Metric{Name: name, Type: MetricTypeGauge, Value: value, Help: help}
}

// Observe records one histogram sample; the series value is the sample count.
func (c *Collector) Observe(name, help string, value float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	samples := append(c.samples[name], value)
	if len(samples) > maxSamples {
		samples = samples[len(samples)-maxSamples:]
	}
	c.samples[name] = samples
	m, ok := c.series[name]
	if !ok {
		m = &Metric{Name: name, Type: MetricTypeHistogram, Help: help}
		c.series[name] = m
	}
	m.Value++
}

// Value returns the current value of a series, or 0 when it was never written.
func (c *Collector) Value(name string, labels map[string]string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.series[seriesKey(name, labels)]; ok {
		return m.Value
	}
	return 0
}

// Summary describes the retained samples of a histogram.
type Summary struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	P95     float64 `json:"p95"`
}

func (c *Collector) Summary(name string) (Summary, error) {
	c.mu.RLock()
	samples := append([]float64(nil), c.samples[name]...)
	c.mu.RUnlock()
	if len(samples) == 0 {
		return Summary{}, fmt.Errorf("metric %s has no samples", name)
	}

	sort.Float64s(samples)
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	idx := int(float64(len(samples))*0.95+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	return Summary{
		Count:   len(samples),
		Min:     samples[0],
		Max:     samples[len(samples)-1],
		Average: sum / float64(len(samples)),
		P95:     samples[idx],
	}, nil
}

// Snapshot returns copies of every series, sorted by key.
func (c *Collector) Snapshot() []Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.series))
	for k := range c.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, *c.series[k])
	}
	return out
}

// ExportPrometheus renders the latest values in the Prometheus text format.
func (c *Collector) ExportPrometheus() string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, m := range c.Snapshot() {
		if !seen[m.Name] {
			seen[m.Name] = true
			help := m.Help
			if help == "" {
				help = "Metric " + m.Name
			}
			typ := m.Type
			if typ == MetricTypeHistogram {
				// only the observation count is exported
				typ = MetricTypeCounter
			}
			fmt.Fprintf(&b, "# HELP %s %s\n", m.Name, help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", m.Name, typ)
		}
		fmt.Fprintf(&b, "%s %g\n", seriesKey(m.Name, m.Labels), m.Value)
	}
	return b.String()
}

func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

func (c *Collector) SystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]interface{}{
		"uptime":     c.Uptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"heap_alloc": m.HeapAlloc,
		"gc_count":   m.NumGC,
	}
}

const (
	MetricPredictions       = "heartrisk_predictions_total"
	MetricPredictionErrors  = "heartrisk_prediction_errors_total"
	MetricPredictionLatency = "heartrisk_prediction_seconds"
)

// RecordPrediction counts one served verdict by label and keeps its latency.
func (c *Collector) RecordPrediction(label int, elapsed time.Duration) {
	c.IncrCounter(MetricPredictions, "Verdicts served, by predicted class",
		map[string]string{"label": fmt.Sprint(label)})
	c.Observe(MetricPredictionLatency, "Prediction latency in seconds", elapsed.Seconds())
}

// RecordPredictionError counts a failed submission by reason.
func (c *Collector) RecordPredictionError(reason string) {
	c.IncrCounter(MetricPredictionErrors, "Submissions that produced no verdict",
		map[string]string{"reason": reason})
}
