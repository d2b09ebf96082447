// Package pod computes Proper Orthogonal Decomposition bases for a single
// snapshot block.
package pod

import (
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
)

// Config controls a single POD computation.
type Config struct {
	Scaling scaling.Config

	// Modes is the number of left singular vectors to keep.
	// Zero or negative keeps all of them.
	Modes int
}

// Result is the outcome of Compute.
type Result struct {
	// Basis is (dof × modes) with the normalization baked into its rows.
	Basis *mat.Dense
	// Singular holds every singular value in descending order, untruncated.
	Singular []float64
	// Center and Norm are (spatial × vars) scaling vectors.
	Center *mat.Dense
	Norm   *mat.Dense
}

// Modes returns the number of basis columns.
func (r *Result) Modes() int {
	_, c := r.Basis.Dims()
	return c
}

// Compute centers and normalizes block, takes the thin SVD of its
// (dof × time) snapshot matrix and returns the leading left singular vectors.
//
// The block must have exactly two spatial dimensions.
func Compute(block *tensor.Tensor, cfg Config) (*Result, error) {
	if block.NDim() != 2 {
		return nil, errs.InvalidArgument("POD block must have 2 spatial dimensions, got %d", block.NDim())
	}
	if block.Times() == 0 {
		return nil, errs.InvalidArgument("POD block has no time samples")
	}

	scaled, center, norm, err := cfg.Scaling.Apply(block.Flatten())
	if err != nil {
		return nil, err
	}

	var svd mat.SVD
	if ok := svd.Factorize(scaled.Matrix(), mat.SVDThin); !ok {
		return nil, errs.Assertion("SVD did not converge")
	}

	var u mat.Dense
	svd.UTo(&u)
	singular := svd.Values(nil)

	dof, rank := u.Dims()
	keep := rank
	if cfg.Modes > 0 && cfg.Modes < rank {
		keep = cfg.Modes
	}
	basis := mat.DenseCopyOf(u.Slice(0, dof, 0, keep))

	// U = norm ⊙ U, row r belongs to feature r = s*vars + v.
	flat := scaling.Flat(norm)
	for r := 0; r < dof; r++ {
		row := basis.RawRowView(r)
		for j := range row {
			row[j] *= flat[r]
		}
	}

	return &Result{
		Basis:    basis,
		Singular: singular,
		Center:   center,
		Norm:     norm,
	}, nil
}
