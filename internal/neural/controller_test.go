package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func newTestController(t *testing.T, seed int64) *Controller {
	t.Helper()
	c, err := New(rand.New(rand.NewSource(seed)), 6, 8, 3)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func sampleInputs(rng *rand.Rand) []float64 {
	return []float64{
		rng.Float64() * 620,  // paddle y
		rng.Float64() * 1000, // ball x
		rng.Float64() * 720,  // ball y
		rng.Float64()*20 - 10,
		rng.Float64()*20 - 10,
		rng.Float64() * 1000,
	}
}

func TestNewInvalidTopology(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := [][3]int{{0, 8, 3}, {6, 0, 3}, {6, 8, 0}, {-1, 8, 3}}
	for _, tc := range cases {
		_, err := New(rng, tc[0], tc[1], tc[2])
		if !errors.Is(err, ErrInvalidTopology) {
			t.Errorf("New(%v) error = %v, expected ErrInvalidTopology", tc, err)
		}
	}
}

func TestPredictIsSoftmax(t *testing.T) {
	c := newTestController(t, 7)
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 50; i++ {
		out := c.Predict(sampleInputs(rng))
		if len(out) != 3 {
			t.Fatalf("Predict returned %d outputs, expected 3", len(out))
		}
		var sum float64
		for _, v := range out {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("output %v outside [0,1]", v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("outputs sum to %v, expected 1", sum)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	c := newTestController(t, 3)
	in := []float64{310, 500, 360, 5, 5, 490}

	first := c.Predict(in)
	second := c.Predict(in)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Predict not deterministic at %d: %v vs %v", i, first[i], second[i])
		}
	}
	if in[0] != 310 || in[5] != 490 {
		t.Error("Predict modified its input")
	}
}

func TestPredictWrongSensorCountPanics(t *testing.T) {
	c := newTestController(t, 1)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for short sensor vector")
		}
	}()
	c.Predict([]float64{1, 2, 3})
}

func TestCopyPredictsIdentically(t *testing.T) {
	c := newTestController(t, 11)
	clone := c.Copy()

	if clone.ID() == c.ID() {
		t.Errorf("copy kept identifier %d", c.ID())
	}

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		in := sampleInputs(rng)
		a := c.Predict(in)
		b := clone.Predict(in)
		for j := range a {
			if math.Abs(a[j]-b[j]) > 1e-12 {
				t.Fatalf("copy diverged at output %d: %v vs %v", j, a[j], b[j])
			}
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	c := newTestController(t, 12)
	before := c.Weights()

	clone := c.Copy()
	clone.Mutate(0.9)
	clone.Dispose()

	after := c.Weights()
	for i := range before.W1 {
		if before.W1[i] != after.W1[i] {
			t.Fatalf("mutating the copy changed the original at W1[%d]", i)
		}
	}
	if c.Disposed() {
		t.Error("disposing the copy disposed the original")
	}
}

func TestMutateZeroKeepsWeights(t *testing.T) {
	c := newTestController(t, 21)
	before := c.Weights()

	c.Mutate(0)

	after := c.Weights()
	assertSameWeights(t, before, after)
}

func TestMutateOneReinitializes(t *testing.T) {
	c := newTestController(t, 22)
	before := c.Weights()
	id := c.ID()
	in := []float64{310, 500, 360, 5, 5, 490}
	out := c.Predict(in)

	c.Mutate(1)

	if c.ID() == id {
		t.Error("Mutate(1) kept the identifier")
	}
	after := c.Weights()
	changed := 0
	for i := range before.W1 {
		if before.W1[i] != after.W1[i] {
			changed++
		}
	}
	if changed != len(before.W1) {
		t.Errorf("Mutate(1) changed %d of %d kernel weights", changed, len(before.W1))
	}
	for _, b := range after.B1 {
		if b != 0 {
			t.Fatalf("reinitialized bias = %v, expected 0", b)
		}
	}

	next := c.Predict(in)
	same := true
	for i := range out {
		if out[i] != next[i] {
			same = false
		}
	}
	if same {
		t.Error("predictions unchanged after reinitialization")
	}
}

func TestMutateDriftIsPositive(t *testing.T) {
	c := newTestController(t, 23)
	before := c.Weights()
	id := c.ID()

	c.Mutate(0.5)

	if c.ID() == id {
		t.Error("Mutate kept the identifier")
	}
	after := c.Weights()
	all := func(w Weights) []float64 {
		return append(append(append(append([]float64{}, w.W1...), w.B1...), w.W2...), w.B2...)
	}
	prev, next := all(before), all(after)
	mutated := 0
	for i := range prev {
		delta := next[i] - prev[i]
		if delta < 0 || delta >= 1 {
			t.Fatalf("scalar %d moved by %v, expected a delta in [0,1)", i, delta)
		}
		if delta > 0 {
			mutated++
		}
	}
	if mutated == 0 || mutated == len(prev) {
		t.Errorf("Mutate(0.5) touched %d of %d scalars", mutated, len(prev))
	}
}

func TestDispose(t *testing.T) {
	c := newTestController(t, 31)
	c.Dispose()
	c.Dispose() // no-op

	if !c.Disposed() {
		t.Error("Disposed() = false after Dispose")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic from Predict after Dispose")
		}
	}()
	c.Predict(make([]float64, 6))
}

func TestRestoreRoundTrip(t *testing.T) {
	c := newTestController(t, 41)
	w := c.Weights()

	restored, err := Restore(rand.New(rand.NewSource(2)), w)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	in := []float64{100, 200, 300, 4, -4, 100}
	a, b := c.Predict(in), restored.Predict(in)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Errorf("restored output %d = %v, expected %v", i, b[i], a[i])
		}
	}

	// Snapshot must not alias the restored controller.
	w.W1[0] += 10
	if restored.Weights().W1[0] == w.W1[0] {
		t.Error("restored controller shares memory with the snapshot")
	}
}

func TestRestoreRejectsBadShapes(t *testing.T) {
	w := newTestController(t, 42).Weights()
	w.B2 = w.B2[:1]

	_, err := Restore(rand.New(rand.NewSource(1)), w)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Restore() error = %v, expected ErrShapeMismatch", err)
	}

	_, err = Restore(rand.New(rand.NewSource(1)), Weights{})
	if !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("Restore(empty) error = %v, expected ErrInvalidTopology", err)
	}
}

func assertSameWeights(t *testing.T, a, b Weights) {
	t.Helper()
	pairs := [][2][]float64{{a.W1, b.W1}, {a.B1, b.B1}, {a.W2, b.W2}, {a.B2, b.B2}}
	for _, p := range pairs {
		for i := range p[0] {
			if p[0][i] != p[1][i] {
				t.Fatalf("weight %d changed: %v -> %v", i, p[0][i], p[1][i])
			}
		}
	}
}
