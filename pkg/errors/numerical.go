package errors

import (
	"math"
)

// CheckNaN returns a NumericalInstabilityError if any value is NaN.
// Infinities are accepted; measurements only promise "not NaN".
func CheckNaN(operation string, values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) {
			return NewNumericalInstabilityError(operation, values)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for NaN.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) {
		return NewNumericalInstabilityError(operation, []float64{value})
	}
	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
