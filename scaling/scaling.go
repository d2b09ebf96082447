// Package scaling centers and normalizes snapshot tensors.
//
// Scaling vectors are (spatial × variable) matrices. Their row-major data is
// the flat length-dof vector in feature order (s*vars + v), which is also the
// order they are persisted in.
package scaling

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/tensor"
)

// CenterMethod selects how a center vector is computed.
type CenterMethod string

const (
	// CenterZero subtracts nothing.
	CenterZero CenterMethod = "zero"
	// CenterInitCond subtracts the first time sample.
	CenterInitCond CenterMethod = "init_cond"
	// CenterMean subtracts the time mean.
	CenterMean CenterMethod = "mean"
)

// NormMethod selects how a normalization vector is computed.
type NormMethod string

const (
	// NormOne divides by one.
	NormOne NormMethod = "one"
	// NormL2 divides each variable by its mean (over time) squared spatial L2
	// norm, averaged over the spatial points.
	NormL2 NormMethod = "l2"
)

// Center subtracts a center vector from every time sample of data.
//
// If centerVec is non-nil it is used as given and must be (spatial × vars).
// Otherwise the vector is computed with method. The input is not modified.
func Center(data *tensor.Tensor, centerVec *mat.Dense, method CenterMethod) (*tensor.Tensor, *mat.Dense, error) {
	c, err := centerVector(data, centerVec, method)
	if err != nil {
		return nil, nil, err
	}
	out := data.Clone()
	cv := c.RawMatrix().Data
	for ti := 0; ti < out.Times(); ti++ {
		floats.Sub(out.State(ti), cv)
	}
	return out, c, nil
}

func centerVector(data *tensor.Tensor, centerVec *mat.Dense, method CenterMethod) (*mat.Dense, error) {
	n, nv := data.SpatialSize(), data.Vars()
	if centerVec != nil {
		if err := checkVector("center vector", centerVec, n, nv); err != nil {
			return nil, err
		}
		return mat.DenseCopyOf(centerVec), nil
	}

	switch method {
	case "":
		return nil, errs.InvalidArgument("neither a center vector nor a centering method given")
	case CenterZero:
		return mat.NewDense(n, nv, nil), nil
	case CenterInitCond:
		if data.Times() == 0 {
			return nil, errs.InvalidArgument("init_cond centering needs at least one time sample")
		}
		return mat.NewDense(n, nv, slices.Clone(data.State(0))), nil
	case CenterMean:
		if data.Times() == 0 {
			return nil, errs.InvalidArgument("mean centering needs at least one time sample")
		}
		mean := make([]float64, n*nv)
		for ti := 0; ti < data.Times(); ti++ {
			floats.Add(mean, data.State(ti))
		}
		floats.Scale(1/float64(data.Times()), mean)
		return mat.NewDense(n, nv, mean), nil
	default:
		return nil, errs.InvalidArgument("invalid centering method: %q", method)
	}
}

// Normalize divides every time sample of data by a normalization vector.
//
// If normVec is non-nil it is used as given and must be (spatial × vars).
// Otherwise the vector is computed with method. Zero entries are not
// special-cased. The input is not modified.
func Normalize(data *tensor.Tensor, normVec *mat.Dense, method NormMethod) (*tensor.Tensor, *mat.Dense, error) {
	nrm, err := normVector(data, normVec, method)
	if err != nil {
		return nil, nil, err
	}
	out := data.Clone()
	nv := nrm.RawMatrix().Data
	for ti := 0; ti < out.Times(); ti++ {
		floats.Div(out.State(ti), nv)
	}
	return out, nrm, nil
}

func normVector(data *tensor.Tensor, normVec *mat.Dense, method NormMethod) (*mat.Dense, error) {
	n, nv := data.SpatialSize(), data.Vars()
	if normVec != nil {
		if err := checkVector("norm vector", normVec, n, nv); err != nil {
			return nil, err
		}
		return mat.DenseCopyOf(normVec), nil
	}

	switch method {
	case "":
		return nil, errs.InvalidArgument("neither a norm vector nor a normalization method given")
	case NormOne:
		ones := make([]float64, n*nv)
		for i := range ones {
			ones[i] = 1
		}
		return mat.NewDense(n, nv, ones), nil
	case NormL2:
		if data.Times() == 0 {
			return nil, errs.InvalidArgument("l2 normalization needs at least one time sample")
		}
		energy := make([]float64, nv)
		for ti := 0; ti < data.Times(); ti++ {
			for s := 0; s < n; s++ {
				for v := 0; v < nv; v++ {
					x := data.AtFlat(s, ti, v)
					energy[v] += x * x
				}
			}
		}
		floats.Scale(1/float64(data.Times()*n), energy)
		nrm := mat.NewDense(n, nv, nil)
		for s := 0; s < n; s++ {
			nrm.SetRow(s, energy)
		}
		return nrm, nil
	default:
		return nil, errs.InvalidArgument("invalid normalization method: %q", method)
	}
}

func checkVector(what string, m *mat.Dense, spatial, vars int) error {
	r, c := m.Dims()
	if r != spatial {
		return errs.Mismatch(what+" rows", spatial, r)
	}
	if c != vars {
		return errs.Mismatch(what+" columns", vars, c)
	}
	return nil
}

// FromFlat builds a (spatial × vars) scaling vector from its flat form.
// The slice is copied.
func FromFlat(flat []float64, spatial, vars int) (*mat.Dense, error) {
	if len(flat) != spatial*vars {
		return nil, errs.Mismatch("scaling vector length", spatial*vars, len(flat))
	}
	return mat.NewDense(spatial, vars, slices.Clone(flat)), nil
}

// Flat returns the flat feature-order form of a scaling vector.
func Flat(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
