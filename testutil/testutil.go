package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/romgo/tensor"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float64, minVal, maxVal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float64()*span
	}
}

// FillGaussian fills dst with standard normal values.
func (r *RNG) FillGaussian(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.NormFloat64()
	}
}

// Snapshots generates a snapshot tensor with values in range [-1, 1).
func (r *RNG) Snapshots(spatial []int, times, vars int) (*tensor.Tensor, error) {
	t, err := tensor.New(spatial, times, vars)
	if err != nil {
		return nil, err
	}
	r.FillUniformRange(t.Data(), -1, 1)
	return t, nil
}

// LowRankSnapshots generates a tensor whose mean-centered snapshot matrix has
// rank at most rank: a fixed mean field plus rank spatial modes with
// decaying amplitudes modulated by random time coefficients.
func (r *RNG) LowRankSnapshots(spatial []int, times, vars, rank int) (*tensor.Tensor, error) {
	t, err := tensor.New(spatial, times, vars)
	if err != nil {
		return nil, err
	}
	dof := t.DOF()

	mean := make([]float64, dof)
	r.FillUniformRange(mean, 1, 2)

	modes := make([][]float64, rank)
	for k := range modes {
		modes[k] = make([]float64, dof)
		r.FillGaussian(modes[k])
	}
	coeffs := make([]float64, rank*times)
	r.FillGaussian(coeffs)

	for ti := 0; ti < times; ti++ {
		state := t.State(ti)
		copy(state, mean)
		for k, mode := range modes {
			amp := coeffs[k*times+ti] * math.Pow(0.5, float64(k))
			for i, m := range mode {
				state[i] += amp * m
			}
		}
	}
	return t, nil
}

// RelativeError returns ||want - got||_2 / ||want||_2, or the absolute error
// when want is zero.
func RelativeError(want, got []float64) float64 {
	if len(want) != len(got) {
		return math.Inf(1)
	}
	var num, den float64
	for i := range want {
		d := want[i] - got[i]
		num += d * d
		den += want[i] * want[i]
	}
	if den == 0 {
		return math.Sqrt(num)
	}
	return math.Sqrt(num / den)
}
