// Package neural implements the fixed-topology feed-forward controller that
// drives agent paddles: dense -> sigmoid -> dense -> softmax.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidTopology is returned when a node count is zero or negative.
var ErrInvalidTopology = errors.New("neural: invalid topology")

// Controller is a two-layer network with exclusively owned weight tensors.
// It is not safe for concurrent use; the simulation evaluates controllers
// sequentially within a tick.
type Controller struct {
	inputs  int
	hidden  int
	outputs int

	w1 *mat.Dense    // hidden x inputs
	b1 *mat.VecDense // hidden
	w2 *mat.Dense    // outputs x hidden
	b2 *mat.VecDense // outputs

	id       int64
	rng      *rand.Rand
	disposed bool
}

// New creates a randomly initialized controller.
// Kernels use Glorot-uniform initialization and biases start at zero.
func New(rng *rand.Rand, inputs, hidden, outputs int) (*Controller, error) {
	if inputs <= 0 || hidden <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("%w: %d-%d-%d", ErrInvalidTopology, inputs, hidden, outputs)
	}
	c := &Controller{
		inputs:  inputs,
		hidden:  hidden,
		outputs: outputs,
		rng:     rng,
	}
	c.initialize()
	return c, nil
}

// initialize discards any existing weights and draws a fresh network.
func (c *Controller) initialize() {
	c.w1 = glorotUniform(c.rng, c.hidden, c.inputs)
	c.b1 = mat.NewVecDense(c.hidden, nil)
	c.w2 = glorotUniform(c.rng, c.outputs, c.hidden)
	c.b2 = mat.NewVecDense(c.outputs, nil)
	c.id = c.rng.Int63()
}

// glorotUniform returns a rows x cols kernel drawn from U(-limit, limit),
// limit = sqrt(6 / (fanIn + fanOut)).
func glorotUniform(rng *rand.Rand, rows, cols int) *mat.Dense {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(rows, cols, data)
}

// ID returns the controller's opaque identifier.
// It changes whenever the weights do and is meant for logging only.
func (c *Controller) ID() int64 {
	return c.id
}

// Predict runs the forward pass for one sensor vector.
// The sensor vector must have exactly as many values as the input layer.
func (c *Controller) Predict(sensors []float64) []float64 {
	if c.disposed {
		panic("neural: Predict called on disposed controller")
	}
	if len(sensors) != c.inputs {
		panic(fmt.Sprintf("neural: got %d sensors, expected %d", len(sensors), c.inputs))
	}

	x := mat.NewVecDense(c.inputs, append([]float64(nil), sensors...))

	h := mat.NewVecDense(c.hidden, nil)
	h.MulVec(c.w1, x)
	h.AddVec(h, c.b1)
	hd := h.RawVector().Data
	for i := range hd {
		hd[i] = sigmoid(hd[i])
	}

	o := mat.NewVecDense(c.outputs, nil)
	o.MulVec(c.w2, h)
	o.AddVec(o, c.b2)

	out := make([]float64, c.outputs)
	copy(out, o.RawVector().Data)
	softmax(out)
	return out
}

// Copy returns an independent controller with cloned weights and a new identifier.
func (c *Controller) Copy() *Controller {
	if c.disposed {
		panic("neural: Copy called on disposed controller")
	}
	return &Controller{
		inputs:  c.inputs,
		hidden:  c.hidden,
		outputs: c.outputs,
		w1:      mat.DenseCopyOf(c.w1),
		b1:      mat.VecDenseCopyOf(c.b1),
		w2:      mat.DenseCopyOf(c.w2),
		b2:      mat.VecDenseCopyOf(c.b2),
		id:      c.rng.Int63(),
		rng:     c.rng,
	}
}

// Mutate perturbs the network in place.
//
// With rate >= 1 the whole network is reinitialized from scratch. Otherwise each
// scalar, biases included, is independently replaced by w + U(0,1) with probability
// rate. The drift is one-sided on purpose; do not turn it into a symmetric walk.
// A new identifier is assigned in both cases.
func (c *Controller) Mutate(rate float64) {
	if c.disposed {
		panic("neural: Mutate called on disposed controller")
	}
	if rate >= 1 {
		c.initialize()
		return
	}
	for _, data := range c.tensors() {
		for i := range data {
			if c.rng.Float64() < rate {
				data[i] += c.rng.Float64()
			}
		}
	}
	c.id = c.rng.Int63()
}

// tensors returns the backing slices in kernel1, bias1, kernel2, bias2 order.
func (c *Controller) tensors() [][]float64 {
	return [][]float64{
		c.w1.RawMatrix().Data,
		c.b1.RawVector().Data,
		c.w2.RawMatrix().Data,
		c.b2.RawVector().Data,
	}
}

// Dispose releases the weight tensors. Calling it again is a no-op.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.w1, c.b1, c.w2, c.b2 = nil, nil, nil, nil
}

// Disposed reports whether Dispose has been called.
func (c *Controller) Disposed() bool {
	return c.disposed
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax normalizes v in place. The max is subtracted first for stability.
func softmax(v []float64) {
	maxV := math.Inf(-1)
	for _, x := range v {
		maxV = math.Max(maxV, x)
	}
	var sum float64
	for i, x := range v {
		v[i] = math.Exp(x - maxV)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}
