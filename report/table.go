// Package report renders tuning results as text tables and charts.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/sklearn/model_selection"
	"github.com/YuminosukeSato/irisknn/sklearn/neighbors"
)

const unscored = "-"

// WriteTuningTable writes one row per Hyperparameter in history order.
// The best scored run is marked with "*".
func WriteTuningTable(w io.Writer, history []*neighbors.Hyperparameter) error {
	best, _ := model_selection.Best(history)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "k", "metric", "quality", "best"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, hp := range history {
		if hp == nil {
			continue
		}
		mark := ""
		if hp == best {
			mark = "*"
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(hp.K()),
			hp.Metric().Name(),
			formatQuality(hp),
			mark,
		})
	}
	table.Render()
	return nil
}

// WriteSweepTable writes one row per sweep result, including failures.
func WriteSweepTable(w io.Writer, results []model_selection.Result) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"k", "metric", "quality", "error"})
	table.SetAutoWrapText(false)
	for _, r := range results {
		quality, errText := unscored, ""
		if q, ok := r.Quality(); ok {
			quality = strconv.FormatFloat(q, 'f', 4, 64)
		}
		if r.Err != nil {
			errText = r.Err.Error()
		}
		table.Append([]string{strconv.Itoa(r.K), r.Metric, quality, errText})
	}
	table.Render()
	return nil
}

// WriteConfusionMatrix writes cm with true labels as rows and predicted
// labels as columns.
func WriteConfusionMatrix(w io.Writer, cm mat.Matrix, labels []string) error {
	r, c := cm.Dims()
	if r != len(labels) || c != len(labels) {
		return errors.NewValidationError("labels", fmt.Sprintf("confusion matrix is %dx%d", r, c), len(labels))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"true \\ predicted"}, labels...))
	for i, label := range labels {
		row := []string{label}
		for j := range labels {
			row = append(row, strconv.FormatFloat(cm.At(i, j), 'f', 0, 64))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func formatQuality(hp *neighbors.Hyperparameter) string {
	q, ok := hp.Quality()
	if !ok {
		return unscored
	}
	return strconv.FormatFloat(q, 'f', 4, 64)
}
