package neural

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a weight snapshot does not fit its topology.
var ErrShapeMismatch = errors.New("neural: weight shape mismatch")

// Weights is a portable snapshot of a controller's tensors.
// Kernels are stored row-major: W1 is hidden x inputs, W2 is outputs x hidden.
type Weights struct {
	Inputs  int       `json:"inputs"`
	Hidden  int       `json:"hidden"`
	Outputs int       `json:"outputs"`
	W1      []float64 `json:"w1"`
	B1      []float64 `json:"b1"`
	W2      []float64 `json:"w2"`
	B2      []float64 `json:"b2"`
}

// Weights returns a deep copy of the controller's tensors.
func (c *Controller) Weights() Weights {
	if c.disposed {
		panic("neural: Weights called on disposed controller")
	}
	return Weights{
		Inputs:  c.inputs,
		Hidden:  c.hidden,
		Outputs: c.outputs,
		W1:      append([]float64(nil), c.w1.RawMatrix().Data...),
		B1:      append([]float64(nil), c.b1.RawVector().Data...),
		W2:      append([]float64(nil), c.w2.RawMatrix().Data...),
		B2:      append([]float64(nil), c.b2.RawVector().Data...),
	}
}

// Validate checks that the tensor lengths match the topology.
func (w Weights) Validate() error {
	if w.Inputs <= 0 || w.Hidden <= 0 || w.Outputs <= 0 {
		return fmt.Errorf("%w: %d-%d-%d", ErrInvalidTopology, w.Inputs, w.Hidden, w.Outputs)
	}
	check := func(name string, got, want int) error {
		if got != want {
			return fmt.Errorf("%w: %s has %d values, expected %d", ErrShapeMismatch, name, got, want)
		}
		return nil
	}
	if err := check("w1", len(w.W1), w.Hidden*w.Inputs); err != nil {
		return err
	}
	if err := check("b1", len(w.B1), w.Hidden); err != nil {
		return err
	}
	if err := check("w2", len(w.W2), w.Outputs*w.Hidden); err != nil {
		return err
	}
	return check("b2", len(w.B2), w.Outputs)
}

// Restore builds a controller from a snapshot. The snapshot is copied.
func Restore(rng *rand.Rand, w Weights) (*Controller, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		inputs:  w.Inputs,
		hidden:  w.Hidden,
		outputs: w.Outputs,
		w1:      mat.NewDense(w.Hidden, w.Inputs, append([]float64(nil), w.W1...)),
		b1:      mat.NewVecDense(w.Hidden, append([]float64(nil), w.B1...)),
		w2:      mat.NewDense(w.Outputs, w.Hidden, append([]float64(nil), w.W2...)),
		b2:      mat.NewVecDense(w.Outputs, append([]float64(nil), w.B2...)),
		id:      rng.Int63(),
		rng:     rng,
	}, nil
}
