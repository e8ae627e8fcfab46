package neighbors

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/irisknn/core/model"
	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/pkg/log"
)

// Raw record field names.
const (
	FieldSepalLength = "sepal_length"
	FieldSepalWidth  = "sepal_width"
	FieldPetalLength = "petal_length"
	FieldPetalWidth  = "petal_width"
	FieldSpecies     = "species"
)

// TestingInterval puts every TestingInterval-th raw record (starting with
// the first) into the testing partition.
const TestingInterval = 5

// Row is one raw record keyed by field name.
type Row map[string]string

// TrainingData owns the training and testing partitions and the history of
// tuning runs. It is loaded once; afterwards only the tuning history grows.
type TrainingData struct {
	model.BaseEstimator

	id       uuid.UUID
	name     string
	logger   log.Logger
	observer Observer
	now      func() time.Time

	mu       sync.RWMutex
	released bool
	training []*Sample
	testing  []*Sample
	tuning   []*Hyperparameter
	uploaded time.Time
	tested   time.Time
}

// NewTrainingData returns an empty, unloaded TrainingData.
func NewTrainingData(name string, opts ...Option) *TrainingData {
	d := &TrainingData{
		id:       uuid.New(),
		name:     name,
		logger:   log.GetLoggerWithName("neighbors"),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(log.DatasetKey, name, log.DatasetIDKey, d.id.String())
	return d
}

// Load partitions rows by position: row i goes to testing when
// i%TestingInterval == 0, otherwise to training. Any malformed row fails the
// whole call and nothing is kept.
func (d *TrainingData) Load(rows []Row) error {
	training := make([]*Sample, 0, len(rows)-len(rows)/TestingInterval)
	testing := make([]*Sample, 0, len(rows)/TestingInterval+1)

	for i, row := range rows {
		m, species, err := parseRow(i, row)
		if err != nil {
			d.logger.Error("Rejected raw records", err, log.OperationKey, log.OperationLoad, log.RowKey, i)
			return err
		}
		if i%TestingInterval == 0 {
			s, err := NewTestingSample(m, species)
			if err != nil {
				return errors.Wrapf(err, "row %d", i)
			}
			testing = append(testing, s)
		} else {
			s, err := NewTrainingSample(m, species)
			if err != nil {
				return errors.Wrapf(err, "row %d", i)
			}
			training = append(training, s)
		}
	}
	return d.commit("TrainingData.Load", len(rows), training, testing)
}

// LoadPartitions installs partitions split by an external loader.
// training must hold training samples and testing must hold testing samples.
func (d *TrainingData) LoadPartitions(training, testing []*Sample) error {
	for i, s := range training {
		if s == nil || s.Kind() != KindTraining {
			return errors.NewValidationError("training", "every entry must be a training sample", i)
		}
	}
	for i, s := range testing {
		if s == nil || s.Kind() != KindTesting {
			return errors.NewValidationError("testing", "every entry must be a testing sample", i)
		}
	}
	return d.commit("TrainingData.LoadPartitions", len(training)+len(testing),
		slices.Clone(training), slices.Clone(testing))
}

func (d *TrainingData) commit(op string, records int, training, testing []*Sample) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return errors.NewConfigurationError(op, "training data has been released")
	}
	if d.IsFitted() {
		return errors.NewValidationError("TrainingData", "already loaded; reloading is not supported", d.name)
	}

	d.training = training
	d.testing = testing
	d.uploaded = d.now().UTC()
	d.SetFitted()

	d.logger.Info("Loaded raw records",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, records,
		log.TrainingSizeKey, len(training),
		log.TestingSizeKey, len(testing),
	)
	return nil
}

// RunTuning evaluates hp against the testing partition and, on success,
// appends it to the tuning history. It does not rank runs.
func (d *TrainingData) RunTuning(hp *Hyperparameter) error {
	const op = "TrainingData.RunTuning"
	if hp == nil {
		return errors.NewConfigurationError(op, "hyperparameter is required")
	}
	if !hp.boundTo(d) {
		return errors.NewConfigurationError(op, "hyperparameter is bound to a different training data")
	}
	if !d.IsFitted() {
		return errors.NewConfigurationError(op, "training data has not been loaded")
	}

	err := hp.Evaluate()
	quality, _ := hp.Quality()
	d.observer.ObserveTuning(hp.Metric().Name(), hp.K(), quality, err)
	if err != nil {
		hp.logger.Warn("Tuning run failed", err, log.OperationKey, log.OperationTune)
		return err
	}

	d.mu.Lock()
	d.tuning = append(d.tuning, hp)
	d.tested = d.now().UTC()
	d.mu.Unlock()
	return nil
}

// Classify labels sample with hp and stores the label in the sample's
// predicted-label slot. The same sample is returned.
func (d *TrainingData) Classify(hp *Hyperparameter, sample *Sample) (*Sample, error) {
	const op = "TrainingData.Classify"
	if hp == nil {
		return nil, errors.NewConfigurationError(op, "hyperparameter is required")
	}
	if !hp.boundTo(d) {
		return nil, errors.NewConfigurationError(op, "hyperparameter is bound to a different training data")
	}
	if sample == nil {
		return nil, errors.NewValidationError("sample", "must not be nil", nil)
	}
	if sample.Kind() == KindTraining {
		return nil, errors.NewValidationError("sample", "training samples are never classified", sample.String())
	}

	label, err := hp.Classify(sample.Measurement())
	if err != nil {
		return nil, err
	}
	if err := sample.Classify(label); err != nil {
		return nil, err
	}
	return sample, nil
}

// Release drops both partitions. Hyperparameters bound to d fail with a
// ConfigurationError from then on. The tuning history is kept.
func (d *TrainingData) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	d.training = nil
	d.testing = nil
	d.Reset()
	d.logger.Debug("Released training data")
}

// ID identifies the data set.
func (d *TrainingData) ID() uuid.UUID { return d.id }

// Name returns the name given at construction.
func (d *TrainingData) Name() string { return d.name }

// Training returns a copy of the training partition.
func (d *TrainingData) Training() []*Sample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.training)
}

// Testing returns a copy of the testing partition.
func (d *TrainingData) Testing() []*Sample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.testing)
}

// Tuning returns a copy of the tuning history in completion order.
func (d *TrainingData) Tuning() []*Hyperparameter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.tuning)
}

// Uploaded is when Load completed; zero before.
func (d *TrainingData) Uploaded() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uploaded
}

// Tested is when the last successful RunTuning completed; zero before.
func (d *TrainingData) Tested() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tested
}

// partitions returns the live partition slices. They are never mutated
// after load, so callers may read them without holding the lock.
func (d *TrainingData) partitions() (training, testing []*Sample) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.training, d.testing
}

func (d *TrainingData) isReleased() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.released
}

var measurementFields = [4]string{FieldSepalLength, FieldSepalWidth, FieldPetalLength, FieldPetalWidth}

func parseRow(i int, row Row) (Measurement, string, error) {
	var values [4]float64
	for j, field := range measurementFields {
		raw, ok := row[field]
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			return Measurement{}, "", errors.NewMalformedRecordError(i, field, "", "missing value", nil)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Measurement{}, "", errors.NewMalformedRecordError(i, field, raw, "not a number", err)
		}
		if math.IsNaN(v) {
			return Measurement{}, "", errors.NewMalformedRecordError(i, field, raw, "value is NaN", errors.CheckScalar(field, v))
		}
		values[j] = v
	}

	species := strings.TrimSpace(row[FieldSpecies])
	if species == "" {
		return Measurement{}, "", errors.NewMalformedRecordError(i, FieldSpecies, "", "missing label", nil)
	}
	return Measurement{
		SepalLength: values[0],
		SepalWidth:  values[1],
		PetalLength: values[2],
		PetalWidth:  values[3],
	}, species, nil
}
