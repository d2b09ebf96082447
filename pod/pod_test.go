package pod

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
	"github.com/hupe1980/romgo/testutil"
)

func meanOne(modes int) Config {
	return Config{
		Scaling: scaling.Config{CenterMethod: scaling.CenterMean, NormMethod: scaling.NormOne},
		Modes:   modes,
	}
}

func TestCompute(t *testing.T) {
	x, err := testutil.NewRNG(42).Snapshots([]int{10, 1}, 5, 2)
	require.NoError(t, err)

	res, err := Compute(x, meanOne(3))
	require.NoError(t, err)

	rows, cols := res.Basis.Dims()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 3, res.Modes())
	assert.Len(t, res.Singular, 5)

	r, c := res.Center.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 2, c)

	for i := 1; i < len(res.Singular); i++ {
		assert.GreaterOrEqual(t, res.Singular[i-1], res.Singular[i])
	}

	// columns are orthonormal when the norm is one
	var gram mat.Dense
	gram.Mul(res.Basis.T(), res.Basis)
	assert.True(t, mat.EqualApprox(&gram, eye(3), 1e-10))
}

func TestCompute_FullRankRoundTrip(t *testing.T) {
	x, err := testutil.NewRNG(3).Snapshots([]int{6, 4}, 8, 2)
	require.NoError(t, err)

	res, err := Compute(x, meanOne(0))
	require.NoError(t, err)

	// x = c + U Uᵀ (x - c)
	c := scaling.Flat(res.Center)
	xm := x.Matrix()
	dof, nt := xm.Dims()
	d := mat.NewDense(dof, nt, nil)
	for j := 0; j < nt; j++ {
		for i := 0; i < dof; i++ {
			d.Set(i, j, xm.At(i, j)-c[i])
		}
	}
	var q, back mat.Dense
	q.Mul(res.Basis.T(), d)
	back.Mul(res.Basis, &q)
	assert.True(t, mat.EqualApprox(&back, d, 1e-9))
}

func TestCompute_NormBaked(t *testing.T) {
	x, err := testutil.NewRNG(5).LowRankSnapshots([]int{5, 3}, 6, 2, 4)
	require.NoError(t, err)

	cfg := Config{Scaling: scaling.Config{CenterMethod: scaling.CenterZero, NormMethod: scaling.NormL2}}
	res, err := Compute(x, cfg)
	require.NoError(t, err)

	// dividing the norm back out restores an orthonormal basis
	norm := scaling.Flat(res.Norm)
	raw := mat.DenseCopyOf(res.Basis)
	rows, cols := raw.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			raw.Set(i, j, raw.At(i, j)/norm[i])
		}
	}
	var gram mat.Dense
	gram.Mul(raw.T(), raw)
	assert.True(t, mat.EqualApprox(&gram, eye(cols), 1e-9))
}

func TestCompute_NormFollowsFeatureRows(t *testing.T) {
	const spatial, times = 10, 6
	data := make([]float64, spatial*times*2)
	base := make([]float64, spatial*times)
	testutil.NewRNG(11).FillGaussian(base)
	for i, v := range base {
		data[2*i] = v
		data[2*i+1] = 100 * v
	}
	x, err := tensor.FromData([]int{5, 2}, times, 2, data)
	require.NoError(t, err)

	cfg := Config{Scaling: scaling.Config{CenterMethod: scaling.CenterMean, NormMethod: scaling.NormL2}, Modes: 4}
	res, err := Compute(x, cfg)
	require.NoError(t, err)

	// var 1 carries 1e4 times the l2 norm of var 0
	assert.InDelta(t, 1e4, res.Norm.At(0, 1)/res.Norm.At(0, 0), 1e-6)

	// rows s*2 and s*2+1 share the scaled direction, so the baked rows
	// differ by norm(var 1)/100 / norm(var 0) = 100.
	_, cols := res.Basis.Dims()
	for s := 0; s < spatial; s++ {
		for j := 0; j < cols; j++ {
			lo, hi := res.Basis.At(2*s, j), res.Basis.At(2*s+1, j)
			if math.Abs(lo) < 1e-6 {
				continue
			}
			assert.InDelta(t, 100, hi/lo, 1e-6, "spatial point %d mode %d", s, j)
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	x1, err := tensor.New([]int{4}, 3, 1)
	require.NoError(t, err)
	_, err = Compute(x1, meanOne(1))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	x2, err := tensor.New([]int{4, 2}, 3, 1)
	require.NoError(t, err)
	_, err = Compute(x2, Config{Scaling: scaling.Config{NormMethod: scaling.NormOne}})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Compute(x2, Config{Scaling: scaling.Config{CenterMethod: "median", NormMethod: scaling.NormOne}})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestEnergy(t *testing.T) {
	res := Residual([]float64{3, 2, 1})
	require.Len(t, res, 3)
	assert.InDelta(t, 1-9.0/14, res[0], 1e-12)
	assert.InDelta(t, 1-13.0/14, res[1], 1e-12)
	assert.InDelta(t, 0, res[2], 1e-12)

	report := Energy([]float64{3, 2, 1})
	require.Len(t, report.Levels, 3)
	for _, l := range report.Levels {
		assert.True(t, l.Reached)
		assert.Equal(t, 3, l.Modes)
	}

	report = Energy([]float64{10, 1, 0.1})
	assert.Equal(t, 1, report.Levels[0].Modes)
	assert.Equal(t, 2, report.Levels[1].Modes)
	assert.Equal(t, 2, report.Levels[2].Modes)
}

func TestEnergy_NotReached(t *testing.T) {
	report := Energy([]float64{0, 0})
	for _, l := range report.Levels {
		assert.False(t, l.Reached)
	}

	var buf bytes.Buffer
	_, err := report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "99.00%: not reached\n99.90%: not reached\n99.99%: not reached\n", buf.String())
}

func TestEnergyReport_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := Energy([]float64{3, 2, 1}).WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "99.00%: 3\n99.90%: 3\n99.99%: 3\n", buf.String())
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
