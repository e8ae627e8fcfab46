package model_selection

import (
	"runtime"
	"time"

	"github.com/YuminosukeSato/irisknn/core/parallel"
	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/pkg/log"
	"github.com/YuminosukeSato/irisknn/sklearn/neighbors"
)

// Grid is the set of (k, metric) combinations a Sweep tunes.
type Grid struct {
	Ks      []int
	Metrics []neighbors.Distance
}

// NewGrid builds a Grid from metric names as accepted by
// neighbors.ParseDistance.
func NewGrid(ks []int, metrics ...string) (Grid, error) {
	g := Grid{Ks: ks}
	for _, name := range metrics {
		d, err := neighbors.ParseDistance(name)
		if err != nil {
			return Grid{}, err
		}
		g.Metrics = append(g.Metrics, d)
	}
	return g, g.validate()
}

// KRange returns lo, lo+step, ... up to and including hi.
func KRange(lo, hi, step int) []int {
	if step < 1 {
		step = 1
	}
	var ks []int
	for k := lo; k <= hi; k += step {
		ks = append(ks, k)
	}
	return ks
}

// Len is the number of combinations.
func (g Grid) Len() int { return len(g.Ks) * len(g.Metrics) }

// at returns the i-th combination, metric-major.
func (g Grid) at(i int) (int, neighbors.Distance) {
	return g.Ks[i%len(g.Ks)], g.Metrics[i/len(g.Ks)]
}

func (g Grid) validate() error {
	if len(g.Ks) == 0 {
		return errors.NewValidationError("Ks", "at least one k is required", g.Ks)
	}
	if len(g.Metrics) == 0 {
		return errors.NewValidationError("Metrics", "at least one metric is required", len(g.Metrics))
	}
	for i, m := range g.Metrics {
		if m == nil {
			return errors.NewValidationError("Metrics", "metric must not be nil", i)
		}
	}
	return nil
}

// Result is the outcome of one combination. Hyperparameter is nil only when
// it could not be constructed.
type Result struct {
	K              int
	Metric         string
	Hyperparameter *neighbors.Hyperparameter
	Err            error
}

// Quality returns the run's quality, ok is false for failed runs.
func (r Result) Quality() (float64, bool) {
	if r.Err != nil || r.Hyperparameter == nil {
		return 0, false
	}
	return r.Hyperparameter.Quality()
}

type sweepConfig struct {
	workers int
	logger  log.Logger
	hpOpts  []neighbors.HyperparameterOption
}

// Option configures a Sweep.
type Option func(*sweepConfig)

// WithWorkers bounds how many tuning runs execute at once.
func WithWorkers(n int) Option {
	return func(c *sweepConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger for sweep progress.
func WithLogger(logger log.Logger) Option {
	return func(c *sweepConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHyperparameterOptions passes options to every Hyperparameter the
// sweep creates.
func WithHyperparameterOptions(opts ...neighbors.HyperparameterOption) Option {
	return func(c *sweepConfig) {
		c.hpOpts = append(c.hpOpts, opts...)
	}
}

// Sweep tunes every combination of grid against data through
// TrainingData.RunTuning. Runs execute concurrently and independently: a
// failing or panicking run is reported in its Result and never aborts the
// others. Results are returned in grid order (metric-major, then k).
func Sweep(data *neighbors.TrainingData, grid Grid, opts ...Option) ([]Result, error) {
	if data == nil {
		return nil, errors.NewConfigurationError("Sweep", "training data is required")
	}
	if err := grid.validate(); err != nil {
		return nil, err
	}

	cfg := &sweepConfig{
		workers: runtime.NumCPU(),
		logger:  log.GetLoggerWithName("model_selection"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger.With(log.OperationKey, log.OperationSweep, log.DatasetKey, data.Name())

	start := time.Now()
	results := make([]Result, grid.Len())
	parallel.ForEach(grid.Len(), cfg.workers, func(i int) {
		k, metric := grid.at(i)
		res := Result{K: k, Metric: metric.Name()}
		res.Err = errors.SafeExecute("Sweep", func() error {
			hp, err := neighbors.NewHyperparameter(k, metric, data, cfg.hpOpts...)
			if err != nil {
				return err
			}
			res.Hyperparameter = hp
			return data.RunTuning(hp)
		})
		results[i] = res
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Debug("Tuning run failed", r.Err, log.KKey, r.K, log.MetricKey, r.Metric)
		}
	}
	logger.Info("Sweep finished",
		"runs", len(results),
		log.FailKey, failed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return results, nil
}

// Best returns the scored Hyperparameter with the highest quality. Ties go
// to the earliest entry in history. Unscored entries are ignored.
func Best(history []*neighbors.Hyperparameter) (*neighbors.Hyperparameter, error) {
	var (
		best    *neighbors.Hyperparameter
		quality float64
	)
	for _, hp := range history {
		if hp == nil {
			continue
		}
		q, ok := hp.Quality()
		if !ok {
			continue
		}
		if best == nil || q > quality {
			best, quality = hp, q
		}
	}
	if best == nil {
		return nil, errors.NewValidationError("history", "no scored hyperparameter", len(history))
	}
	return best, nil
}

// BestResult is Best over sweep results, keeping grid order for ties.
func BestResult(results []Result) (*neighbors.Hyperparameter, error) {
	history := make([]*neighbors.Hyperparameter, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			history = append(history, r.Hyperparameter)
		}
	}
	return Best(history)
}
