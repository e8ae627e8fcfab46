package neighbors

import (
	"time"

	"github.com/YuminosukeSato/irisknn/pkg/log"
)

// Observer receives classification and tuning events, typically to export
// them as metrics. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveClassification(metric string)
	// ObserveTuning is called once per RunTuning. quality is meaningless
	// when err is non-nil.
	ObserveTuning(metric string, k int, quality float64, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveClassification(string)              {}
func (nopObserver) ObserveTuning(string, int, float64, error) {}

// Option configures a TrainingData.
type Option func(*TrainingData)

// WithLogger sets the logger used by the TrainingData and the
// Hyperparameters bound to it.
func WithLogger(logger log.Logger) Option {
	return func(d *TrainingData) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver sets the event sink for classifications and tuning runs.
func WithObserver(observer Observer) Option {
	return func(d *TrainingData) {
		if observer != nil {
			d.observer = observer
		}
	}
}

// WithClock replaces time.Now for the upload and tested timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *TrainingData) {
		if now != nil {
			d.now = now
		}
	}
}

// HyperparameterOption configures a Hyperparameter.
type HyperparameterOption func(*Hyperparameter)

// WithWorkers bounds the goroutines Evaluate uses over the testing
// partition. Values below 1 mean one.
func WithWorkers(n int) HyperparameterOption {
	return func(h *Hyperparameter) {
		if n < 1 {
			n = 1
		}
		h.workers = n
	}
}
