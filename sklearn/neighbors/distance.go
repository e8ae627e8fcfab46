package neighbors

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
	"github.com/YuminosukeSato/irisknn/preprocessing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Distance is a dissimilarity between two measurements. Implementations are
// pure, symmetric, non-negative and zero for identical inputs.
type Distance interface {
	Distance(a, b Measurement) float64
	// Name identifies the metric in logs, params and reports.
	Name() string
}

// Euclidean is the L2 norm of the per-field differences.
type Euclidean struct{}

func (Euclidean) Distance(a, b Measurement) float64 {
	return floats.Distance(a.Vector(), b.Vector(), 2)
}

func (Euclidean) Name() string { return "euclidean" }

// Manhattan is the sum of absolute per-field differences.
type Manhattan struct{}

func (Manhattan) Distance(a, b Measurement) float64 {
	return floats.Distance(a.Vector(), b.Vector(), 1)
}

func (Manhattan) Name() string { return "manhattan" }

// Chebyshev is the largest absolute per-field difference.
type Chebyshev struct{}

func (Chebyshev) Distance(a, b Measurement) float64 {
	return floats.Distance(a.Vector(), b.Vector(), math.Inf(1))
}

func (Chebyshev) Name() string { return "chebyshev" }

// ParseDistance resolves a metric by name.
func ParseDistance(name string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euclidean", "l2":
		return Euclidean{}, nil
	case "manhattan", "l1", "cityblock":
		return Manhattan{}, nil
	case "chebyshev", "linf":
		return Chebyshev{}, nil
	default:
		return nil, errors.NewValidationError("metric", "must be one of euclidean, manhattan, chebyshev", name)
	}
}

// ScaledDistance rescales both measurements with a fitted scaler before
// handing them to the base metric.
type ScaledDistance struct {
	base   Distance
	scaler preprocessing.VectorScaler
}

// NewScaledDistance fits scaler on the reference samples (normally the
// training partition) and wraps base.
func NewScaledDistance(base Distance, scaler preprocessing.VectorScaler, reference []*Sample) (*ScaledDistance, error) {
	if base == nil || scaler == nil {
		return nil, errors.NewConfigurationError("NewScaledDistance", "base metric and scaler are required")
	}
	if len(reference) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NewScaledDistance")
	}

	X := mat.NewDense(len(reference), 4, nil)
	for i, s := range reference {
		X.SetRow(i, s.Measurement().Vector())
	}
	if err := scaler.Fit(X); err != nil {
		return nil, errors.Wrap(err, "NewScaledDistance")
	}
	return &ScaledDistance{base: base, scaler: scaler}, nil
}

func (d *ScaledDistance) Distance(a, b Measurement) float64 {
	return d.base.Distance(d.scale(a), d.scale(b))
}

func (d *ScaledDistance) Name() string {
	return fmt.Sprintf("%s+%s", d.base.Name(), d.scaler.String())
}

func (d *ScaledDistance) scale(m Measurement) Measurement {
	v, err := d.scaler.TransformVector(m.Vector())
	if err != nil {
		// the scaler was fitted on four columns in NewScaledDistance
		panic(fmt.Sprintf("neighbors: scaler rejected a measurement: %v", err))
	}
	return Measurement{SepalLength: v[0], SepalWidth: v[1], PetalLength: v[2], PetalWidth: v[3]}
}
