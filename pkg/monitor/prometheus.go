// Package monitor exports classifier activity as Prometheus metrics.
package monitor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/sklearn/neighbors"
)

// Tuning run outcomes used as the status label.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Prometheus holds the collectors. It implements neighbors.Observer.
type Prometheus struct {
	Classifications *prometheus.CounterVec
	TuningRuns      *prometheus.CounterVec
	Quality         *prometheus.GaugeVec
}

var _ neighbors.Observer = (*Prometheus)(nil)

// NewPrometheusMetrics creates unregistered collectors under namespace.
func NewPrometheusMetrics(namespace string) *Prometheus {
	return &Prometheus{
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Measurements classified, by distance metric.",
			}, []string{"metric"}),
		TuningRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tuning_runs_total",
				Help:      "Hyperparameter tuning runs, by distance metric and outcome.",
			}, []string{"metric", "status"}),
		Quality: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "quality",
				Help:      "Quality of the last successful tuning run for a (metric, k) pair.",
			}, []string{"metric", "k"}),
	}
}

// Register registers every collector with r.
func (p *Prometheus) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{p.Classifications, p.TuningRuns, p.Quality} {
		if err := r.Register(c); err != nil {
			return errors.Wrap(err, "monitor: register collector")
		}
	}
	return nil
}

func (p *Prometheus) ObserveClassification(metric string) {
	p.Classifications.WithLabelValues(metric).Inc()
}

func (p *Prometheus) ObserveTuning(metric string, k int, quality float64, err error) {
	if err != nil {
		p.TuningRuns.WithLabelValues(metric, StatusFailed).Inc()
		return
	}
	p.TuningRuns.WithLabelValues(metric, StatusOK).Inc()
	p.Quality.WithLabelValues(metric, strconv.Itoa(k)).Set(quality)
}
