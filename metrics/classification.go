// Package metrics scores label predictions and summarizes tuning histories.
package metrics

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/sklearn/neighbors"
)

// Accuracy は正解ラベルと予測ラベルの一致率を計算する
func Accuracy(yTrue, yPred []string) (float64, error) {
	if err := checkLabels("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ConfusionMatrix は混同行列を返す。行が正解、列が予測で、
// ラベルは辞書順に並ぶ。
func ConfusionMatrix(yTrue, yPred []string) (*mat.Dense, []string, error) {
	if err := checkLabels("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, nil, err
	}

	labels := slices.Concat(yTrue, yPred)
	slices.Sort(labels)
	labels = slices.Compact(labels)

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, c := index[yTrue[i]], index[yPred[i]]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// Recall はクラスごとの再現率（対角成分 / 行和）を返す。
// 正解側に一度も現れないクラスは0。
func Recall(cm *mat.Dense) []float64 {
	n, _ := cm.Dims()
	recall := make([]float64, n)
	for i := 0; i < n; i++ {
		total := floats.Sum(cm.RawRowView(i))
		recall[i] = errors.SafeDivide(cm.At(i, i), total)
	}
	return recall
}

// TestingConfusionMatrix compares hp's last predictions against the known
// labels of data's testing partition.
func TestingConfusionMatrix(data *neighbors.TrainingData, hp *neighbors.Hyperparameter) (*mat.Dense, []string, error) {
	if _, ok := hp.Quality(); !ok {
		return nil, nil, errors.NewValidationError("hyperparameter", "has not been evaluated", hp.String())
	}
	testing := data.Testing()
	yTrue := make([]string, len(testing))
	for i, s := range testing {
		yTrue[i], _ = s.Species()
	}
	return ConfusionMatrix(yTrue, hp.Predictions())
}

// QualitySummary describes the qualities of the scored runs in a tuning
// history.
type QualitySummary struct {
	Runs   int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// BestK and BestMetric describe the first run reaching Max.
	BestK      int
	BestMetric string
}

// SummarizeQuality は評価済みのハイパーパラメータの品質を集計する。
// 未評価のものは無視する。
func SummarizeQuality(history []*neighbors.Hyperparameter) (QualitySummary, error) {
	var (
		qualities []float64
		scored    []*neighbors.Hyperparameter
	)
	for _, hp := range history {
		if hp == nil {
			continue
		}
		if q, ok := hp.Quality(); ok {
			qualities = append(qualities, q)
			scored = append(scored, hp)
		}
	}
	if len(qualities) == 0 {
		return QualitySummary{}, errors.Wrap(errors.ErrEmptyData, "SummarizeQuality: no scored runs")
	}

	mean, std := stat.PopMeanStdDev(qualities, nil)
	best := floats.MaxIdx(qualities)
	return QualitySummary{
		Runs:       len(qualities),
		Mean:       mean,
		StdDev:     std,
		Min:        floats.Min(qualities),
		Max:        qualities[best],
		BestK:      scored[best].K(),
		BestMetric: scored[best].Metric().Name(),
	}, nil
}

func checkLabels(op string, yTrue, yPred []string) error {
	if len(yTrue) == 0 {
		return errors.Wrap(errors.ErrEmptyData, op)
	}
	if len(yTrue) != len(yPred) {
		return errors.NewValidationError("yPred", "length must match yTrue", len(yPred))
	}
	return nil
}
