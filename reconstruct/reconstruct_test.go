package reconstruct

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/blobstore"
	"github.com/hupe1980/romgo/dataset"
	"github.com/hupe1980/romgo/domain"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/mesh"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
	"github.com/hupe1980/romgo/testutil"
)

type fixture struct {
	trial *artifact.Store
	data  *artifact.Store
	x     *tensor.Tensor
	basis *basis.Basis
}

func build(t *testing.T, x *tensor.Tensor, layout *domain.Layout, modes basis.ModeSpec) *fixture {
	t.Helper()
	blobs := blobstore.NewMemoryStore()
	trial := artifact.NewStore(blobs, "trial")
	b, err := basis.Build(context.Background(), trial, basis.BuildConfig{
		Datasets:     []*dataset.Dataset{{Global: x}},
		Decompose:    layout != nil,
		Layout:       layout,
		CenterMethod: scaling.CenterMean,
		NormMethod:   scaling.NormL2,
		Modes:        modes,
	})
	require.NoError(t, err)
	return &fixture{trial: trial, data: artifact.NewStore(blobs, "rom"), x: x, basis: b}
}

// encode writes the reduced coefficients of the fixture data under root.
func (f *fixture) encode(t *testing.T, layout *domain.Layout, root string) {
	t.Helper()
	blocks := []*tensor.Tensor{f.x}
	if layout != nil {
		var err error
		blocks, err = layout.Decompose(f.x)
		require.NoError(t, err)
	}
	qs := make([]*mat.Dense, len(blocks))
	for i, blk := range blocks {
		q, err := f.basis.Block(i).Encode(blk.Matrix())
		require.NoError(t, err)
		qs[i] = q
	}
	require.NoError(t, WriteCoefficients(context.Background(), f.data, root, qs, layout != nil))
}

func TestReconstruct_Monolithic(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(1).LowRankSnapshots([]int{10, 4}, 6, 2, 3)
	require.NoError(t, err)
	f := build(t, x, nil, basis.ModeSpec{})
	f.encode(t, nil, "coeffs")

	geom := &mesh.Geometry{Global: mesh.Uniform(10, 4)}
	res, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "coeffs", NVars: 2})
	require.NoError(t, err)
	require.NotNil(t, res.Global)
	assert.Nil(t, res.Blocks)
	assert.Equal(t, []int{10, 4, 6, 2}, res.Global.Shape())
	assert.InDeltaSlice(t, x.Data(), res.Global.Data(), 1e-9)
}

func TestReconstruct_TruncatedMatchesDecode(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(2).LowRankSnapshots([]int{8, 3}, 7, 1, 5)
	require.NoError(t, err)
	f := build(t, x, nil, basis.Modes(3))
	f.encode(t, nil, "q")

	geom := &mesh.Geometry{Global: mesh.Uniform(8, 3)}
	res, err := LoadAndReconstruct(ctx, f.data, f.trial, geom, Config{Root: "q", NVars: 1, Modes: basis.Modes(3)})
	require.NoError(t, err)

	q, err := f.basis.Block(0).Encode(x.Matrix())
	require.NoError(t, err)
	want, err := f.basis.Block(0).Decode(q)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, res.Global.Matrix(), 1e-9))
}

func TestReconstruct_Decomposed(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(3).LowRankSnapshots([]int{9, 6}, 12, 2, 2)
	require.NoError(t, err)
	geom, err := mesh.Decompose(mesh.Uniform(9, 6), domain.Info{Dim: 2, NX: 3, NY: 2, NZ: 1, Overlap: 1})
	require.NoError(t, err)

	f := build(t, x, geom.Layout, basis.ModeSpec{})
	require.Equal(t, 6, f.basis.Domains())
	f.encode(t, geom.Layout, "coeffs")

	res, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "coeffs", NVars: 2, Merge: true, Concurrency: 4})
	require.NoError(t, err)
	require.Len(t, res.Blocks, 6)
	for i, blk := range res.Blocks {
		assert.Equal(t, geom.Layout.Shapes[i], blk.Spatial())
	}
	require.NotNil(t, res.Global)
	assert.InDeltaSlice(t, x.Data(), res.Global.Data(), 1e-9)
}

func TestReconstruct_Errors(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(4).LowRankSnapshots([]int{6, 2}, 4, 1, 2)
	require.NoError(t, err)
	f := build(t, x, nil, basis.ModeSpec{})

	t.Run("shape checked before reading", func(t *testing.T) {
		geom := &mesh.Geometry{Global: mesh.Uniform(5, 2)}
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "missing", NVars: 1})
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
		var dm *errs.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 10, dm.Expected)
		assert.Equal(t, 12, dm.Actual)
	})

	geom := &mesh.Geometry{Global: mesh.Uniform(6, 2)}

	t.Run("not found", func(t *testing.T) {
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "missing", NVars: 1})
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("too many modes", func(t *testing.T) {
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "q", NVars: 1, Modes: basis.Modes(5)})
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
	})

	t.Run("decomposed files for monolithic basis", func(t *testing.T) {
		qs := []*mat.Dense{mat.NewDense(4, 1, nil), mat.NewDense(4, 1, nil)}
		require.NoError(t, WriteCoefficients(ctx, f.data, "split", qs, true))
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "split", NVars: 1})
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
	})

	t.Run("ragged coefficients", func(t *testing.T) {
		require.NoError(t, f.data.WriteFloats(ctx, "ragged.bin", []float64{1, 2, 3, 4, 5}))
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "ragged", NVars: 1})
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
	})

	t.Run("config", func(t *testing.T) {
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{NVars: 1})
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
		_, err = Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "q"})
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
	})
}

func TestReconstruct_DomainCountMismatch(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(5).LowRankSnapshots([]int{8, 4}, 5, 1, 2)
	require.NoError(t, err)
	geom, err := mesh.Decompose(mesh.Uniform(8, 4), domain.Info{Dim: 2, NX: 2, NY: 1, NZ: 1})
	require.NoError(t, err)
	f := build(t, x, geom.Layout, basis.ModeSpec{})

	qs := []*mat.Dense{mat.NewDense(5, 1, nil)}
	require.NoError(t, WriteCoefficients(ctx, f.data, "one", qs, true))

	_, err = Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "one", NVars: 1})
	require.ErrorIs(t, err, errs.ErrAssertion)
}

func TestCoefficients(t *testing.T) {
	q, err := Coefficients([]float64{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{1, 3, 5, 2, 4, 6}), q))
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, Flat(q))

	_, err = Coefficients([]float64{1, 2, 3}, 2)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = Coefficients(nil, 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestReconstruct_MergeWarns(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(8).LowRankSnapshots([]int{8, 4}, 6, 2, 2)
	require.NoError(t, err)
	geom, err := mesh.Decompose(mesh.Uniform(8, 4), domain.Info{Dim: 2, NX: 2, NY: 1, NZ: 1, Overlap: 1})
	require.NoError(t, err)
	f := build(t, x, geom.Layout, basis.ModeSpec{})
	f.encode(t, geom.Layout, "coeffs")

	for _, merge := range []bool{false, true} {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		_, err := Reconstruct(ctx, f.data, geom, f.basis, Config{Root: "coeffs", NVars: 2, Merge: merge, Logger: logger})
		require.NoError(t, err)
		assert.Equal(t, merge, strings.Contains(buf.String(), "level=WARN"), "merge=%v log=%q", merge, buf.String())
	}
}
