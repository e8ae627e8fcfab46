package neighbors

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/irisknn/core/model"
	"github.com/YuminosukeSato/irisknn/core/parallel"
	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/pkg/log"
)

// Neighbor is a training sample paired with its distance to a query.
type Neighbor struct {
	Distance float64
	Sample   *Sample
}

// Hyperparameter is one (k, metric) configuration bound to a TrainingData.
//
// The binding is a weak reference: a Hyperparameter never keeps its
// TrainingData alive, and every operation fails with a ConfigurationError
// once the data has been collected or released.
//
// Majority vote ties are broken by the label first encountered while walking
// the k nearest neighbors from nearest to farthest. Neighbors at exactly
// equal distance keep their training-partition order.
type Hyperparameter struct {
	model.BaseEstimator

	id      uuid.UUID
	k       int
	metric  Distance
	data    weak.Pointer[TrainingData]
	workers int
	logger  log.Logger

	// evalMu serializes Evaluate calls on the same Hyperparameter.
	evalMu sync.Mutex

	mu          sync.RWMutex
	quality     float64
	predictions []string
}

var (
	_ model.Evaluator       = (*Hyperparameter)(nil)
	_ model.ParameterGetter = (*Hyperparameter)(nil)
)

// NewHyperparameter binds (k, metric) to data. k is checked against the
// training partition when the Hyperparameter is used, not here.
func NewHyperparameter(k int, metric Distance, data *TrainingData, opts ...HyperparameterOption) (*Hyperparameter, error) {
	if metric == nil {
		return nil, errors.NewConfigurationError("NewHyperparameter", "distance metric is required")
	}
	if data == nil {
		return nil, errors.NewConfigurationError("NewHyperparameter", "training data is required")
	}

	h := &Hyperparameter{
		id:      uuid.New(),
		k:       k,
		metric:  metric,
		data:    weak.Make(data),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = data.logger.With(log.RunIDKey, h.id.String(), log.KKey, k, log.MetricKey, metric.Name())
	return h, nil
}

// ID identifies this tuning run.
func (h *Hyperparameter) ID() uuid.UUID { return h.id }

// K returns the neighbor count.
func (h *Hyperparameter) K() int { return h.k }

// Metric returns the distance metric.
func (h *Hyperparameter) Metric() Distance { return h.metric }

// Quality returns the fraction of testing samples classified correctly by
// the last successful Evaluate. ok is false until then.
func (h *Hyperparameter) Quality() (quality float64, ok bool) {
	if !h.IsFitted() {
		return 0, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.quality, true
}

// Predictions returns the labels assigned to the testing partition by the
// last successful Evaluate, in partition order.
func (h *Hyperparameter) Predictions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.predictions)
}

// GetParams returns the configuration as a map.
func (h *Hyperparameter) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"k":      h.k,
		"metric": h.metric.Name(),
	}
}

func (h *Hyperparameter) String() string {
	if q, ok := h.Quality(); ok {
		return fmt.Sprintf("Hyperparameter(k=%d, metric=%s, quality=%.4f)", h.k, h.metric.Name(), q)
	}
	return fmt.Sprintf("Hyperparameter(k=%d, metric=%s)", h.k, h.metric.Name())
}

// Classify returns the majority label among the k training samples nearest
// to m.
func (h *Hyperparameter) Classify(m Measurement) (string, error) {
	nearest, td, err := h.neighbors("Hyperparameter.Classify", m)
	if err != nil {
		return "", err
	}

	label, tied := vote(nearest)
	if len(tied) > 1 {
		errors.Warn(errors.NewTieWarning(h.k, countOf(nearest, label), tied, label))
	}
	td.observer.ObserveClassification(h.metric.Name())
	h.logger.Debug("Classified measurement", log.OperationKey, log.OperationClassify, log.LabelKey, label)
	return label, nil
}

// Neighbors returns the k nearest training samples to m, nearest first.
func (h *Hyperparameter) Neighbors(m Measurement) ([]Neighbor, error) {
	nearest, _, err := h.neighbors("Hyperparameter.Neighbors", m)
	return nearest, err
}

func (h *Hyperparameter) neighbors(op string, m Measurement) ([]Neighbor, *TrainingData, error) {
	td, err := h.trainingData(op)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, op)
	}
	training, _ := td.partitions()
	if err := h.checkK(len(training)); err != nil {
		return nil, nil, err
	}
	return h.nearest(m, training), td, nil
}

// Evaluate classifies every testing sample, stores each prediction in the
// sample's slot, and sets Quality to pass / (pass + fail). On error the
// previous quality, if any, is left untouched.
func (h *Hyperparameter) Evaluate() error {
	h.evalMu.Lock()
	defer h.evalMu.Unlock()

	const op = "Hyperparameter.Evaluate"
	td, err := h.trainingData(op)
	if err != nil {
		return err
	}
	training, testing := td.partitions()
	if len(testing) == 0 {
		return errors.NewEmptyTestSetError(op)
	}
	if err := h.checkK(len(training)); err != nil {
		return err
	}

	start := time.Now()
	predictions := make([]string, len(testing))
	var (
		ties     atomic.Int64
		failMu   sync.Mutex
		chunkErr error
	)
	parallel.ParallelizeWorkers(len(testing), h.workers, func(s, e int) {
		// 各チャンクはワーカーgoroutine上で動くので、ここでpanicを回収する
		err := errors.SafeExecute(op, func() error {
			for i := s; i < e; i++ {
				label, tied := vote(h.nearest(testing[i].Measurement(), training))
				predictions[i] = label
				if len(tied) > 1 {
					ties.Add(1)
				}
			}
			return nil
		})
		if err != nil {
			failMu.Lock()
			if chunkErr == nil {
				chunkErr = err
			}
			failMu.Unlock()
		}
	})
	if chunkErr != nil {
		h.logger.Error("Evaluation aborted", chunkErr, log.OperationKey, log.OperationEvaluate)
		return chunkErr
	}

	// Compare against this run's predictions, not the shared slots, which
	// a concurrent run may overwrite.
	pass, fail := 0, 0
	for i, sample := range testing {
		if err := sample.Classify(predictions[i]); err != nil {
			return errors.Wrap(err, op)
		}
		if predictions[i] == sample.species {
			pass++
		} else {
			fail++
		}
	}
	quality := float64(pass) / float64(pass+fail)

	h.mu.Lock()
	h.quality = quality
	h.predictions = predictions
	h.mu.Unlock()
	h.SetFitted()

	h.logger.Info("Evaluated hyperparameter",
		log.OperationKey, log.OperationEvaluate,
		log.PassKey, pass,
		log.FailKey, fail,
		log.AccuracyKey, quality,
		"ties", ties.Load(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (h *Hyperparameter) trainingData(op string) (*TrainingData, error) {
	td := h.data.Value()
	if td == nil {
		return nil, errors.NewConfigurationError(op, "training data is no longer reachable")
	}
	if td.isReleased() {
		return nil, errors.NewConfigurationError(op, "training data has been released")
	}
	return td, nil
}

func (h *Hyperparameter) boundTo(td *TrainingData) bool {
	return h.data == weak.Make(td)
}

func (h *Hyperparameter) checkK(trainingSize int) error {
	if h.k < 1 || h.k > trainingSize {
		return errors.NewInvalidHyperparameterError(h.k, trainingSize)
	}
	return nil
}

// nearest returns the first k entries of training sorted by distance to m.
// The sort is stable so equal distances keep partition order.
func (h *Hyperparameter) nearest(m Measurement, training []*Sample) []Neighbor {
	all := make([]Neighbor, len(training))
	for i, s := range training {
		all[i] = Neighbor{Distance: h.metric.Distance(m, s.measurement), Sample: s}
	}
	slices.SortStableFunc(all, func(a, b Neighbor) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return all[:h.k]
}

// vote tallies known labels of nearest (ordered nearest first). The winner
// has the highest count; among equal counts the first-encountered label
// wins. tied lists every label sharing the winning count, winner first.
func vote(nearest []Neighbor) (winner string, tied []string) {
	counts := make(map[string]int, len(nearest))
	order := make([]string, 0, len(nearest))
	for _, n := range nearest {
		label := n.Sample.species
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	winner = order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[winner] {
			winner = label
		}
	}
	tied = append(tied, winner)
	for _, label := range order {
		if label != winner && counts[label] == counts[winner] {
			tied = append(tied, label)
		}
	}
	return winner, tied
}

func countOf(nearest []Neighbor, label string) int {
	n := 0
	for _, nb := range nearest {
		if nb.Sample.species == label {
			n++
		}
	}
	return n
}
