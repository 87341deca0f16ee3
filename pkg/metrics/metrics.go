// Package metrics collects validation run metrics and writes them in the
// node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bootcfg"

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error" // the file could not be read or parsed
)

// Recorder holds the metrics of one batch run in its own registry
type Recorder struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
	lastRun     prometheus.Gauge
}

// NewRecorder creates a recorder with an empty registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Config files validated, by config type and result",
			},
			[]string{"config_type", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent validating one config file",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"config_type"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Validation failures by the section they name",
			},
			[]string{"section"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last batch finished",
		}),
	}
	r.registry.MustRegister(r.validations, r.duration, r.failures, r.lastRun)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one validation. section is the section a failure named,
// empty when unknown.
func (r *Recorder) Observe(configType, result, section string, d time.Duration) {
	r.validations.WithLabelValues(configType, result).Inc()
	r.duration.WithLabelValues(configType).Observe(d.Seconds())
	if result == ResultFailure {
		if section == "" {
			section = "unknown"
		}
		r.failures.WithLabelValues(section).Inc()
	}
}

// Finish stamps the end of the batch
func (r *Recorder) Finish(now time.Time) {
	r.lastRun.Set(float64(now.Unix()))
}

// WriteTextfile writes the metrics atomically to path for the node exporter
// textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
