// Package neighbors implements k-nearest-neighbors classification of iris
// measurements.
//
// A TrainingData is loaded once from raw records and split by position into
// a training partition (reference points) and a testing partition (held-out
// samples). A Hyperparameter binds a neighbor count k and a Distance to that
// data; RunTuning scores it on the testing partition and records it in the
// tuning history, and Classify labels unseen samples by majority vote among
// the k nearest training samples.
//
//	data := neighbors.NewTrainingData("iris")
//	if err := data.Load(rows); err != nil {
//	    return err
//	}
//	hp, err := neighbors.NewHyperparameter(5, neighbors.Euclidean{}, data)
//	if err != nil {
//	    return err
//	}
//	if err := data.RunTuning(hp); err != nil {
//	    return err
//	}
//	quality, _ := hp.Quality()
//
// Several Hyperparameters may be tuned against the same TrainingData
// concurrently; see the model_selection package for a grid sweep.
package neighbors
