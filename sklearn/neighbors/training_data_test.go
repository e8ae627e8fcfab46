package neighbors

import (
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/pkg/log"
)

// テスト用ヘルパー

func trainingSample(t *testing.T, species string, v ...float64) *Sample {
	t.Helper()
	s, err := NewTrainingSample(Measurement{SepalLength: v[0], SepalWidth: v[1], PetalLength: v[2], PetalWidth: v[3]}, species)
	require.NoError(t, err)
	return s
}

func testingSample(t *testing.T, species string, v ...float64) *Sample {
	t.Helper()
	s, err := NewTestingSample(Measurement{SepalLength: v[0], SepalWidth: v[1], PetalLength: v[2], PetalWidth: v[3]}, species)
	require.NoError(t, err)
	return s
}

func unknownSample(t *testing.T, v ...float64) *Sample {
	t.Helper()
	s, err := NewUnknownSample(Measurement{SepalLength: v[0], SepalWidth: v[1], PetalLength: v[2], PetalWidth: v[3]})
	require.NoError(t, err)
	return s
}

func loaded(t *testing.T, train, test []*Sample, opts ...Option) *TrainingData {
	t.Helper()
	opts = append([]Option{WithLogger(log.NewNopLogger())}, opts...)
	d := NewTrainingData("test", opts...)
	require.NoError(t, d.LoadPartitions(train, test))
	return d
}

func row(sl, sw, pl, pw, species string) Row {
	return Row{
		FieldSepalLength: sl,
		FieldSepalWidth:  sw,
		FieldPetalLength: pl,
		FieldPetalWidth:  pw,
		FieldSpecies:     species,
	}
}

// indexedRows returns n rows whose sepal length equals the row index.
func indexedRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = row(strconv.Itoa(i), "3.0", "1.5", "0.2", fmt.Sprintf("s%d", i%3))
	}
	return rows
}

type recordingObserver struct {
	mu              sync.Mutex
	classifications map[string]int
	runs            int
	failures        int
}

func (o *recordingObserver) ObserveClassification(metric string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.classifications == nil {
		o.classifications = make(map[string]int)
	}
	o.classifications[metric]++
}

func (o *recordingObserver) ObserveTuning(_ string, _ int, _ float64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
	if err != nil {
		o.failures++
	}
}

func TestTrainingData_LoadPartitionsByPosition(t *testing.T) {
	for n := 0; n <= 23; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			d := NewTrainingData("iris", WithLogger(log.NewNopLogger()))
			require.NoError(t, d.Load(indexedRows(n)))

			wantTesting := (n + TestingInterval - 1) / TestingInterval
			assert.Len(t, d.Testing(), wantTesting)
			assert.Len(t, d.Training(), n-wantTesting)

			for j, s := range d.Testing() {
				assert.Equal(t, KindTesting, s.Kind())
				assert.Equal(t, float64(j*TestingInterval), s.Measurement().SepalLength)
			}
			for _, s := range d.Training() {
				assert.Equal(t, KindTraining, s.Kind())
				assert.NotZero(t, int(s.Measurement().SepalLength)%TestingInterval)
			}
		})
	}
}

func TestTrainingData_LoadIsDeterministic(t *testing.T) {
	rows := indexedRows(17)

	a := NewTrainingData("a", WithLogger(log.NewNopLogger()))
	b := NewTrainingData("b", WithLogger(log.NewNopLogger()))
	require.NoError(t, a.Load(rows))
	require.NoError(t, b.Load(rows))

	require.Equal(t, len(a.Testing()), len(b.Testing()))
	for i := range a.Testing() {
		assert.Equal(t, a.Testing()[i].Measurement(), b.Testing()[i].Measurement())
	}
	for i := range a.Training() {
		assert.Equal(t, a.Training()[i].Measurement(), b.Training()[i].Measurement())
	}
}

func TestTrainingData_LoadRejectsMalformedRows(t *testing.T) {
	good := row("5.1", "3.5", "1.4", "0.2", "setosa")

	tests := []struct {
		name  string
		bad   Row
		field string
	}{
		{name: "not a number", bad: row("5.1", "wide", "1.4", "0.2", "setosa"), field: FieldSepalWidth},
		{name: "missing field", bad: Row{FieldSepalLength: "5.1", FieldSepalWidth: "3.5", FieldPetalWidth: "0.2", FieldSpecies: "setosa"}, field: FieldPetalLength},
		{name: "blank field", bad: row("5.1", "3.5", "1.4", "  ", "setosa"), field: FieldPetalWidth},
		{name: "NaN", bad: row("NaN", "3.5", "1.4", "0.2", "setosa"), field: FieldSepalLength},
		{name: "missing label", bad: row("5.1", "3.5", "1.4", "0.2", ""), field: FieldSpecies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := log.NewTestLogger(log.LevelDebug)
			d := NewTrainingData("iris", WithLogger(logger))

			err := d.Load([]Row{good, good, good, tt.bad, good})
			require.Error(t, err)

			var recErr *errors.MalformedRecordError
			require.True(t, errors.As(err, &recErr), "got %T: %v", err, err)
			assert.Equal(t, 3, recErr.Row)
			assert.Equal(t, tt.field, recErr.Field)

			// nothing is kept
			assert.False(t, d.IsFitted())
			assert.Empty(t, d.Training())
			assert.Empty(t, d.Testing())
			assert.True(t, d.Uploaded().IsZero())
			assert.True(t, logger.ContainsField(log.RowKey, float64(3)))

			// a failed load does not block a later good one
			require.NoError(t, d.Load([]Row{good, good}))
		})
	}
}

func TestTrainingData_ReloadRejected(t *testing.T) {
	d := NewTrainingData("iris", WithLogger(log.NewNopLogger()))
	require.NoError(t, d.Load(indexedRows(6)))

	err := d.Load(indexedRows(10))
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Len(t, d.Training(), 4, "original partitions are kept")
}

func TestTrainingData_Timestamps(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	clock := time.Date(2024, 4, 1, 9, 0, 0, 0, loc)
	d := NewTrainingData("iris",
		WithLogger(log.NewNopLogger()),
		WithClock(func() time.Time { return clock }),
	)
	assert.True(t, d.Uploaded().IsZero())
	assert.True(t, d.Tested().IsZero())

	require.NoError(t, d.Load(indexedRows(10)))
	assert.Equal(t, clock.UTC(), d.Uploaded())
	assert.Equal(t, time.UTC, d.Uploaded().Location())

	clock = clock.Add(time.Hour)
	hp, err := NewHyperparameter(1, Euclidean{}, d)
	require.NoError(t, err)
	require.NoError(t, d.RunTuning(hp))
	assert.Equal(t, clock.UTC(), d.Tested())
	assert.True(t, d.Tested().After(d.Uploaded()))
}

func TestTrainingData_LoadLogs(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	d := NewTrainingData("iris", WithLogger(logger))
	require.NoError(t, d.Load(indexedRows(10)))

	assert.True(t, logger.ContainsMessage("Loaded raw records"))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationLoad))
	assert.True(t, logger.ContainsField(log.DatasetKey, "iris"))
	assert.True(t, logger.ContainsField(log.TestingSizeKey, float64(2)))
	assert.True(t, logger.ContainsField(log.TrainingSizeKey, float64(8)))
}

func TestTrainingData_LoadPartitionsValidatesKinds(t *testing.T) {
	tr := trainingSample(t, "A", 1, 1, 1, 1)
	te := testingSample(t, "A", 1, 1, 1, 1)

	d := NewTrainingData("iris", WithLogger(log.NewNopLogger()))
	var valErr *errors.ValidationError
	assert.True(t, errors.As(d.LoadPartitions([]*Sample{te}, nil), &valErr))
	assert.True(t, errors.As(d.LoadPartitions([]*Sample{tr}, []*Sample{tr}), &valErr))
	assert.True(t, errors.As(d.LoadPartitions([]*Sample{nil}, nil), &valErr))
	assert.False(t, d.IsFitted())

	require.NoError(t, d.LoadPartitions([]*Sample{tr}, []*Sample{te}))
}

func TestTrainingData_RunTuning(t *testing.T) {
	observer := &recordingObserver{}
	d := loaded(t,
		[]*Sample{trainingSample(t, "A", 1, 1, 1, 1), trainingSample(t, "B", 5, 5, 5, 5)},
		[]*Sample{testingSample(t, "A", 1.1, 1, 1, 1), testingSample(t, "B", 5, 5, 5, 4.9)},
		WithObserver(observer),
	)

	good, err := NewHyperparameter(1, Euclidean{}, d)
	require.NoError(t, err)
	require.NoError(t, d.RunTuning(good))

	bad, err := NewHyperparameter(3, Euclidean{}, d)
	require.NoError(t, err)
	err = d.RunTuning(bad)
	var hpErr *errors.InvalidHyperparameterError
	require.True(t, errors.As(err, &hpErr))

	history := d.Tuning()
	require.Len(t, history, 1, "failed runs are not recorded")
	assert.Same(t, good, history[0])
	q, ok := history[0].Quality()
	assert.True(t, ok)
	assert.Equal(t, 1.0, q)

	assert.Equal(t, 2, observer.runs)
	assert.Equal(t, 1, observer.failures)
}

func TestTrainingData_RunTuningPreconditions(t *testing.T) {
	d := loaded(t, []*Sample{trainingSample(t, "A", 1, 1, 1, 1)}, []*Sample{testingSample(t, "A", 1, 1, 1, 1)})
	other := loaded(t, []*Sample{trainingSample(t, "A", 1, 1, 1, 1)}, []*Sample{testingSample(t, "A", 1, 1, 1, 1)})

	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(d.RunTuning(nil), &cfgErr))

	foreign, err := NewHyperparameter(1, Euclidean{}, other)
	require.NoError(t, err)
	assert.True(t, errors.As(d.RunTuning(foreign), &cfgErr))

	empty := NewTrainingData("empty", WithLogger(log.NewNopLogger()))
	hp, err := NewHyperparameter(1, Euclidean{}, empty)
	require.NoError(t, err)
	assert.True(t, errors.As(empty.RunTuning(hp), &cfgErr))
	assert.Empty(t, d.Tuning())
}

func TestTrainingData_ConcurrentRunTuning(t *testing.T) {
	var train, test []*Sample
	for i := 0; i < 40; i++ {
		species := []string{"setosa", "versicolor", "virginica"}[i%3]
		base := float64(i%3) * 2
		v := []float64{base + float64(i%7)*0.1, base, base + 0.5, base + float64(i%5)*0.05}
		if i%TestingInterval == 0 {
			test = append(test, testingSample(t, species, v...))
		} else {
			train = append(train, trainingSample(t, species, v...))
		}
	}
	d := loaded(t, train, test)

	metrics := []Distance{Euclidean{}, Manhattan{}, Chebyshev{}}
	var hps []*Hyperparameter
	for k := 1; k <= 5; k++ {
		for _, m := range metrics {
			hp, err := NewHyperparameter(k, m, d, WithWorkers(2))
			require.NoError(t, err)
			hps = append(hps, hp)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, len(hps))
	for i, hp := range hps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = d.RunTuning(hp)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "run %d", i)
	}
	assert.Len(t, d.Tuning(), len(hps))
	for _, hp := range hps {
		q, ok := hp.Quality()
		assert.True(t, ok)
		assert.GreaterOrEqual(t, q, 0.0)
		assert.LessOrEqual(t, q, 1.0)
		assert.Len(t, hp.Predictions(), len(test))
	}
}

func TestTrainingData_Classify(t *testing.T) {
	observer := &recordingObserver{}
	d := loaded(t,
		[]*Sample{trainingSample(t, "A", 5.1, 3.5, 1.4, 0.2), trainingSample(t, "B", 6.0, 3.0, 4.0, 1.0)},
		[]*Sample{testingSample(t, "A", 5.1, 3.5, 1.4, 0.2)},
		WithObserver(observer),
	)
	hp, err := NewHyperparameter(1, Euclidean{}, d)
	require.NoError(t, err)

	s := unknownSample(t, 5.0, 3.4, 1.3, 0.2)
	got, err := d.Classify(hp, s)
	require.NoError(t, err)
	assert.Same(t, s, got)
	label, ok := got.Classification()
	assert.True(t, ok)
	assert.Equal(t, "A", label)
	assert.Equal(t, 1, observer.classifications["euclidean"])

	_, err = d.Classify(hp, trainingSample(t, "A", 1, 1, 1, 1))
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = d.Classify(hp, nil)
	assert.True(t, errors.As(err, &valErr))

	var cfgErr *errors.ConfigurationError
	_, err = d.Classify(nil, s)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestTrainingData_Release(t *testing.T) {
	d := loaded(t, []*Sample{trainingSample(t, "A", 1, 1, 1, 1)}, []*Sample{testingSample(t, "A", 1, 1, 1, 1)})
	hp, err := NewHyperparameter(1, Euclidean{}, d)
	require.NoError(t, err)
	require.NoError(t, d.RunTuning(hp))

	d.Release()
	assert.Empty(t, d.Training())
	assert.Empty(t, d.Testing())
	assert.Len(t, d.Tuning(), 1)

	var cfgErr *errors.ConfigurationError
	_, err = hp.Classify(Measurement{SepalLength: 1, SepalWidth: 1, PetalLength: 1, PetalWidth: 1})
	assert.True(t, errors.As(err, &cfgErr), "released data must not look like an empty training set")
	assert.True(t, errors.As(hp.Evaluate(), &cfgErr))
	assert.True(t, errors.As(d.Load(indexedRows(5)), &cfgErr))

	// the last good quality survives
	q, ok := hp.Quality()
	assert.True(t, ok)
	assert.Equal(t, 1.0, q)
}

func TestParseRow_Whitespace(t *testing.T) {
	m, species, err := parseRow(0, row(" 5.1", "3.5 ", "1.4", "0.2", " setosa "))
	require.NoError(t, err)
	assert.Equal(t, "setosa", species)
	assert.Equal(t, 5.1, m.SepalLength)

	_, _, err = parseRow(7, row("+Inf", "3.5", "1.4", "0.2", "x"))
	assert.NoError(t, err)

	_, _, err = parseRow(7, row("nan", "3.5", "1.4", "0.2", "x"))
	var recErr *errors.MalformedRecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, 7, recErr.Row)
}
