// Package datasets reads raw iris records for neighbors.TrainingData.Load.
package datasets

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/sklearn/neighbors"
)

// DefaultFields is the column order of headerless files such as the UCI
// iris.data and bezdekIris.data.
var DefaultFields = []string{
	neighbors.FieldSepalLength,
	neighbors.FieldSepalWidth,
	neighbors.FieldPetalLength,
	neighbors.FieldPetalWidth,
	neighbors.FieldSpecies,
}

// ReadCSV reads rows from r. When the first cell of the first record is not
// a number, that record is a header naming the fields ("sepal.length",
// "Sepal Length" and "sepal_length" are all accepted); otherwise columns
// follow DefaultFields. Blank lines are skipped. Values are not validated
// here; TrainingData.Load reports malformed rows.
func ReadCSV(r io.Reader) ([]neighbors.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "datasets: read csv")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "datasets: read csv")
	}

	fields := DefaultFields
	start := 0
	// 先頭セルが数値でなければヘッダ行とみなす
	if _, err := strconv.ParseFloat(strings.TrimSpace(records[0][0]), 64); err != nil {
		fields = make([]string, len(records[0]))
		for i, name := range records[0] {
			fields[i] = normalizeField(name)
		}
		start = 1
	}

	rows := make([]neighbors.Row, 0, len(records)-start)
	for _, record := range records[start:] {
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		row := make(neighbors.Row, len(fields))
		for i, value := range record {
			if i < len(fields) {
				row[fields[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string) ([]neighbors.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "datasets: open %s", path)
	}
	defer f.Close()
	return ReadCSV(f)
}

func normalizeField(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(".", "_", " ", "_", "-", "_").Replace(name)
	switch name {
	case "class", "variety", "label", "target":
		return neighbors.FieldSpecies
	}
	return name
}
