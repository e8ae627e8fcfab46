// Package irisknn is a k-nearest-neighbors classifier for iris
// measurements, built for tuning and serving from Go backends.
//
// Raw records are split by position into training and testing partitions,
// (k, distance metric) pairs are tuned against the testing partition, and
// unseen measurements are labeled by majority vote among their k nearest
// training samples.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/irisknn/datasets"
//	    "github.com/YuminosukeSato/irisknn/sklearn/model_selection"
//	    "github.com/YuminosukeSato/irisknn/sklearn/neighbors"
//	)
//
//	func main() {
//	    rows, err := datasets.LoadCSV("bezdekIris.data")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    data := neighbors.NewTrainingData("iris")
//	    if err := data.Load(rows); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    grid, _ := model_selection.NewGrid(model_selection.KRange(1, 15, 2), "euclidean", "manhattan")
//	    if _, err := model_selection.Sweep(data, grid); err != nil {
//	        log.Fatal(err)
//	    }
//	    best, err := model_selection.Best(data.Tuning())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    m, _ := neighbors.NewMeasurement(5.0, 3.4, 1.3, 0.2)
//	    sample, _ := neighbors.NewUnknownSample(m)
//	    if _, err := data.Classify(best, sample); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(sample)
//	}
//
// # Packages
//
//   - sklearn/neighbors: samples, distances, TrainingData and Hyperparameter
//   - sklearn/model_selection: concurrent grid sweeps and best-run selection
//   - preprocessing: min-max and standard scalers for scaled distances
//   - metrics: accuracy, confusion matrix, tuning-history summaries
//   - datasets: CSV record source
//   - report: tuning tables and quality charts
//   - core/model: estimator state and capability interfaces
//   - core/parallel: parallel processing utilities
//   - pkg/errors, pkg/log, pkg/monitor: errors, structured logging, Prometheus metrics
//
// # Concurrency
//
// Tuning runs against the same TrainingData are independent and may run
// concurrently. Each Evaluate splits the testing partition across CPU
// cores. A Hyperparameter holds only a weak reference to its TrainingData
// and reports a ConfigurationError once the data is gone.
package irisknn
