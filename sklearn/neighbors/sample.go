package neighbors

import (
	"fmt"
	"strings"
	"sync"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
)

// Measurement is one botanical observation. All fields are required.
type Measurement struct {
	SepalLength float64
	SepalWidth  float64
	PetalLength float64
	PetalWidth  float64
}

// NewMeasurement builds a Measurement, rejecting NaN fields.
func NewMeasurement(sepalLength, sepalWidth, petalLength, petalWidth float64) (Measurement, error) {
	m := Measurement{
		SepalLength: sepalLength,
		SepalWidth:  sepalWidth,
		PetalLength: petalLength,
		PetalWidth:  petalWidth,
	}
	if err := m.Validate(); err != nil {
		return Measurement{}, err
	}
	return m, nil
}

// Vector returns the fields in declaration order.
func (m Measurement) Vector() []float64 {
	return []float64{m.SepalLength, m.SepalWidth, m.PetalLength, m.PetalWidth}
}

// Validate reports a NumericalInstabilityError if any field is NaN.
func (m Measurement) Validate() error {
	return errors.CheckNaN("Measurement", m.Vector())
}

// Kind tags which capabilities a Sample has.
type Kind int

const (
	// KindTraining samples carry a known label and are never classified.
	KindTraining Kind = iota
	// KindTesting samples carry a known label and a predicted-label slot.
	KindTesting
	// KindUnknown samples carry only a predicted-label slot.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindTraining:
		return "training"
	case KindTesting:
		return "testing"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sample is a Measurement plus the labels its Kind allows. The known label
// is fixed at construction. The predicted-label slot is safe for concurrent
// use; each Classify overwrites the previous value.
type Sample struct {
	measurement Measurement
	kind        Kind
	species     string

	mu             sync.RWMutex
	classification string
	classified     bool
}

// NewTrainingSample returns a reference point with a known label.
func NewTrainingSample(m Measurement, species string) (*Sample, error) {
	return newKnownSample(KindTraining, m, species)
}

// NewTestingSample returns a labeled sample used to score a Hyperparameter.
func NewTestingSample(m Measurement, species string) (*Sample, error) {
	return newKnownSample(KindTesting, m, species)
}

// NewUnknownSample returns an unlabeled sample awaiting classification.
func NewUnknownSample(m Measurement) (*Sample, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Sample{measurement: m, kind: KindUnknown}, nil
}

func newKnownSample(kind Kind, m Measurement, species string) (*Sample, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if species == "" {
		return nil, errors.NewValidationError("species", fmt.Sprintf("%s samples need a known label", kind), species)
	}
	return &Sample{measurement: m, kind: kind, species: species}, nil
}

// Measurement returns the sample's measurement.
func (s *Sample) Measurement() Measurement { return s.measurement }

// Kind returns the sample variant.
func (s *Sample) Kind() Kind { return s.kind }

// Species returns the known label, if the sample has one.
func (s *Sample) Species() (string, bool) {
	return s.species, s.kind != KindUnknown
}

// Classification returns the predicted label, if one has been set.
func (s *Sample) Classification() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classification, s.classified
}

// Classify stores a predicted label. Training samples refuse it.
func (s *Sample) Classify(label string) error {
	if s.kind == KindTraining {
		return errors.NewValidationError("sample", "training samples are never classified", s.String())
	}
	if label == "" {
		return errors.NewValidationError("classification", "label must not be empty", label)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classification = label
	s.classified = true
	return nil
}

// Matches reports whether the predicted label equals the known label.
// It is false while either is missing.
func (s *Sample) Matches() bool {
	label, ok := s.Classification()
	return ok && s.kind != KindUnknown && label == s.species
}

func (s *Sample) String() string {
	var b strings.Builder
	if s.kind == KindUnknown {
		b.WriteString("UnknownSample(")
	} else {
		b.WriteString("KnownSample(")
	}
	m := s.measurement
	fmt.Fprintf(&b, "sepal_length=%g, sepal_width=%g, petal_length=%g, petal_width=%g",
		m.SepalLength, m.SepalWidth, m.PetalLength, m.PetalWidth)
	if s.kind != KindUnknown {
		fmt.Fprintf(&b, ", species=%q", s.species)
	}
	if label, ok := s.Classification(); ok {
		fmt.Fprintf(&b, ", classification=%q", label)
	}
	b.WriteByte(')')
	return b.String()
}
