// Package tensor provides the snapshot tensor used throughout romgo.
//
// A Tensor has the logical shape (spatial..., time, variable). The variable
// axis is always last and the time axis always second to last.
//
// Storage is variable fastest, then the spatial axes in column-major order
// (first spatial axis fastest), then time. A single time sample is a
// contiguous state vector of length DOF() whose element (s, v) sits at
// v + Vars()*s. This matches the state layout written by the full-order
// solvers, so flattening a tensor into a (dof × time) snapshot matrix never
// moves data.
package tensor

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
)

// Tensor is a dense snapshot tensor. It is not safe for concurrent mutation.
type Tensor struct {
	spatial []int
	times   int
	vars    int
	data    []float64
}

// New allocates a zero tensor.
func New(spatial []int, times, vars int) (*Tensor, error) {
	if err := validateShape(spatial, times, vars); err != nil {
		return nil, err
	}
	return &Tensor{
		spatial: slices.Clone(spatial),
		times:   times,
		vars:    vars,
		data:    make([]float64, prod(spatial)*times*vars),
	}, nil
}

// FromData wraps data (not copied) laid out as described in the package doc.
func FromData(spatial []int, times, vars int, data []float64) (*Tensor, error) {
	if err := validateShape(spatial, times, vars); err != nil {
		return nil, err
	}
	if want := prod(spatial) * times * vars; len(data) != want {
		return nil, errs.Mismatch("tensor data length", want, len(data))
	}
	return &Tensor{spatial: slices.Clone(spatial), times: times, vars: vars, data: data}, nil
}

// FromStates wraps a sequence of consecutive state vectors (not copied) and
// infers the number of time samples.
func FromStates(spatial []int, vars int, data []float64) (*Tensor, error) {
	if err := validateShape(spatial, 0, vars); err != nil {
		return nil, err
	}
	dof := prod(spatial) * vars
	if len(data)%dof != 0 {
		return nil, errs.InvalidArgument("%d values do not form whole states of %d dof", len(data), dof)
	}
	return FromData(spatial, len(data)/dof, vars, data)
}

// FromMatrix copies a (dof × time) snapshot matrix into a tensor.
func FromMatrix(spatial []int, vars int, m mat.Matrix) (*Tensor, error) {
	rows, cols := m.Dims()
	t, err := New(spatial, cols, vars)
	if err != nil {
		return nil, err
	}
	if rows != t.DOF() {
		return nil, errs.Mismatch("snapshot matrix rows", t.DOF(), rows)
	}
	for ti := 0; ti < cols; ti++ {
		mat.Col(t.State(ti), ti, m)
	}
	return t, nil
}

func validateShape(spatial []int, times, vars int) error {
	if len(spatial) == 0 {
		return errs.InvalidArgument("tensor needs at least one spatial dimension")
	}
	for _, n := range spatial {
		if n <= 0 {
			return errs.InvalidArgument("spatial extents must be positive, got %v", spatial)
		}
	}
	if times < 0 {
		return errs.InvalidArgument("negative time count %d", times)
	}
	if vars <= 0 {
		return errs.InvalidArgument("variable count must be positive, got %d", vars)
	}
	return nil
}

func prod(xs []int) int {
	p := 1
	for _, x := range xs {
		p *= x
	}
	return p
}

// Spatial returns a copy of the spatial extents.
func (t *Tensor) Spatial() []int { return slices.Clone(t.spatial) }

// NDim returns the number of spatial dimensions.
func (t *Tensor) NDim() int { return len(t.spatial) }

// SpatialSize returns the number of spatial points.
func (t *Tensor) SpatialSize() int { return prod(t.spatial) }

// Times returns the number of time samples.
func (t *Tensor) Times() int { return t.times }

// Vars returns the number of variables.
func (t *Tensor) Vars() int { return t.vars }

// DOF returns SpatialSize()*Vars(), the length of one state vector.
func (t *Tensor) DOF() int { return prod(t.spatial) * t.vars }

// Shape returns (spatial..., time, variable).
func (t *Tensor) Shape() []int {
	return append(t.Spatial(), t.times, t.vars)
}

// Data returns the backing slice.
func (t *Tensor) Data() []float64 { return t.data }

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		spatial: slices.Clone(t.spatial),
		times:   t.times,
		vars:    t.vars,
		data:    slices.Clone(t.data),
	}
}

// Point returns the flattened spatial index of a spatial multi-index.
func (t *Tensor) Point(idx ...int) int {
	s, stride := 0, 1
	for d, i := range idx {
		s += i * stride
		stride *= t.spatial[d]
	}
	return s
}

func (t *Tensor) offset(idx []int) int {
	nd := len(t.spatial)
	if len(idx) != nd+2 {
		panic("tensor: wrong number of indices")
	}
	s := t.Point(idx[:nd]...)
	return idx[nd+1] + t.vars*(s+t.SpatialSize()*idx[nd])
}

// At returns the element at (spatial..., time, variable).
func (t *Tensor) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set assigns the element at (spatial..., time, variable).
func (t *Tensor) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// AtFlat returns the element at flattened spatial point s, time ti and variable v.
func (t *Tensor) AtFlat(s, ti, v int) float64 {
	return t.data[v+t.vars*(s+t.SpatialSize()*ti)]
}

// State returns the state vector of time sample ti as a view.
func (t *Tensor) State(ti int) []float64 {
	dof := t.DOF()
	return t.data[ti*dof : (ti+1)*dof : (ti+1)*dof]
}

// Matrix copies the tensor into a (dof × time) snapshot matrix with row
// index s*Vars()+v.
func (t *Tensor) Matrix() *mat.Dense {
	if t.times == 0 {
		return nil
	}
	m := mat.NewDense(t.DOF(), t.times, nil)
	for ti := 0; ti < t.times; ti++ {
		m.SetCol(ti, t.State(ti))
	}
	return m
}

// Flatten returns a view with all spatial axes merged into one. Data is shared.
func (t *Tensor) Flatten() *Tensor {
	return &Tensor{spatial: []int{t.SpatialSize()}, times: t.times, vars: t.vars, data: t.data}
}

// Reshape returns a view with new spatial extents of the same total size.
// Because spatial axes are column-major, this is the column-major reshape.
func (t *Tensor) Reshape(spatial []int) (*Tensor, error) {
	if err := validateShape(spatial, t.times, t.vars); err != nil {
		return nil, err
	}
	if prod(spatial) != t.SpatialSize() {
		return nil, errs.Mismatch("reshape spatial size", t.SpatialSize(), prod(spatial))
	}
	return &Tensor{spatial: slices.Clone(spatial), times: t.times, vars: t.vars, data: t.data}, nil
}
