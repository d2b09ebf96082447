package projection

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/blobstore"
	"github.com/hupe1980/romgo/dataset"
	"github.com/hupe1980/romgo/domain"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
	"github.com/hupe1980/romgo/testutil"
)

func buildBasis(t *testing.T, x *tensor.Tensor, layout *domain.Layout, center scaling.CenterMethod, norm scaling.NormMethod, modes basis.ModeSpec) *basis.Basis {
	t.Helper()
	store := artifact.NewStore(blobstore.NewMemoryStore(), "basis")
	b, err := basis.Build(context.Background(), store, basis.BuildConfig{
		Datasets:     []*dataset.Dataset{{Global: x}},
		Decompose:    layout != nil,
		Layout:       layout,
		CenterMethod: center,
		NormMethod:   norm,
		Modes:        modes,
	})
	require.NoError(t, err)
	return b
}

func TestEndToEnd(t *testing.T) {
	x, err := testutil.NewRNG(42).Snapshots([]int{10, 1}, 5, 2)
	require.NoError(t, err)

	b := buildBasis(t, x, nil, scaling.CenterMean, scaling.NormOne, basis.Modes(3))
	s := b.Block(0).Singular
	require.Len(t, s, 5)
	for _, v := range s {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	assert.True(t, sort.IsSorted(sort.Reverse(sort.Float64Slice(s))))

	out, err := Project(context.Background(), []*tensor.Tensor{x}, b, nil, Config{Modes: basis.Modes(3)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Reduced, 1)
	r, c := out[0].Reduced[0].Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 5, c)

	// Truncation error of centered snapshots is the discarded energy.
	diff := make([]float64, len(x.Data()))
	floats.SubTo(diff, x.Data(), out[0].Global.Data())
	var discarded float64
	for _, v := range s[3:] {
		discarded += v * v
	}
	assert.InDelta(t, math.Sqrt(discarded), floats.Norm(diff, 2), 1e-9)
	assert.InDelta(t, math.Sqrt(discarded)/floats.Norm(x.Data(), 2), out[0].RelativeError, 1e-9)
}

func TestProjectSingle_FullRank(t *testing.T) {
	x, err := testutil.NewRNG(7).LowRankSnapshots([]int{5, 4}, 6, 3, 4)
	require.NoError(t, err)
	b := buildBasis(t, x, nil, scaling.CenterInitCond, scaling.NormL2, basis.ModeSpec{})

	got, q, err := ProjectSingle(x, b.Block(0))
	require.NoError(t, err)
	assert.Equal(t, x.Shape(), got.Shape())
	assert.InDeltaSlice(t, x.Data(), got.Data(), 1e-9)
	r, _ := q.Dims()
	assert.Equal(t, b.Block(0).Modes(), r)
}

func TestProject_MonotoneInModes(t *testing.T) {
	x, err := testutil.NewRNG(8).LowRankSnapshots([]int{12, 2}, 10, 1, 6)
	require.NoError(t, err)
	b := buildBasis(t, x, nil, scaling.CenterMean, scaling.NormOne, basis.ModeSpec{})

	prev := math.Inf(1)
	for k := 1; k <= 10; k++ {
		out, err := Project(context.Background(), []*tensor.Tensor{x}, b, nil, Config{Modes: basis.Modes(k)})
		require.NoError(t, err)
		e := testutil.RelativeError(x.Data(), out[0].Global.Data())
		assert.LessOrEqual(t, e, prev+1e-12, "modes=%d", k)
		prev = e
	}
	assert.Less(t, prev, 1e-9)
}

func TestProject_Decomposed(t *testing.T) {
	rng := testutil.NewRNG(9)
	x, err := rng.LowRankSnapshots([]int{8, 6}, 9, 2, 3)
	require.NoError(t, err)
	y, err := rng.LowRankSnapshots([]int{8, 6}, 4, 2, 3)
	require.NoError(t, err)

	layout, err := domain.Split(domain.Info{Dim: 2, NX: 2, NY: 2, NZ: 1, Overlap: 2}, []int{8, 6})
	require.NoError(t, err)
	b := buildBasis(t, x, layout, scaling.CenterMean, scaling.NormL2, basis.ModeSpec{})
	require.True(t, b.Decomposed())

	out, err := Project(context.Background(), []*tensor.Tensor{x, y}, b, layout, Config{
		Modes:       basis.Modes(9),
		Merge:       true,
		Concurrency: 2,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Len(t, out[0].Blocks, 4)
	require.Len(t, out[0].Reduced, 4)
	assert.InDeltaSlice(t, x.Data(), out[0].Global.Data(), 1e-9)
	assert.Less(t, out[0].RelativeError, 1e-9)
	for i, blk := range out[1].Blocks {
		assert.Equal(t, layout.Shapes[i], blk.Spatial())
		_, c := out[1].Reduced[i].Dims()
		assert.Equal(t, 4, c)
	}
	assert.Equal(t, y.Shape(), out[1].Global.Shape())

	unmerged, err := Project(context.Background(), []*tensor.Tensor{x}, b, layout, Config{Modes: basis.PerDomain(1, 2, 3, 4)})
	require.NoError(t, err)
	assert.Nil(t, unmerged[0].Global)
	r, _ := unmerged[0].Reduced[3].Dims()
	assert.Equal(t, 4, r)
}

func TestProject_Errors(t *testing.T) {
	ctx := context.Background()
	x, err := testutil.NewRNG(10).LowRankSnapshots([]int{6, 2}, 4, 1, 2)
	require.NoError(t, err)
	mono := buildBasis(t, x, nil, scaling.CenterMean, scaling.NormOne, basis.ModeSpec{})

	layout, err := domain.Split(domain.Info{Dim: 1, NX: 2, NY: 1, NZ: 1}, []int{6, 2})
	require.NoError(t, err)
	dec := buildBasis(t, x, layout, scaling.CenterMean, scaling.NormOne, basis.ModeSpec{})

	other, err := testutil.NewRNG(11).Snapshots([]int{5, 2}, 4, 1)
	require.NoError(t, err)

	tests := []struct {
		name     string
		datasets []*tensor.Tensor
		basis    *basis.Basis
		layout   *domain.Layout
		cfg      Config
	}{
		{"no datasets", nil, mono, nil, Config{Modes: basis.Modes(1)}},
		{"zero modes", []*tensor.Tensor{x}, mono, nil, Config{}},
		{"too many modes", []*tensor.Tensor{x}, mono, nil, Config{Modes: basis.Modes(5)}},
		{"shape differs between datasets", []*tensor.Tensor{x, other}, mono, nil, Config{Modes: basis.Modes(1)}},
		{"basis rows", []*tensor.Tensor{other}, mono, nil, Config{Modes: basis.Modes(1)}},
		{"missing layout", []*tensor.Tensor{x}, dec, nil, Config{Modes: basis.Modes(1)}},
		{"layout of other grid", []*tensor.Tensor{other}, dec, layout, Config{Modes: basis.Modes(1)}},
		{"mode list length", []*tensor.Tensor{x}, dec, layout, Config{Modes: basis.PerDomain(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(ctx, tt.datasets, tt.basis, tt.layout, tt.cfg)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}

	_, _, err = ProjectSingle(other, mono.Block(0))
	var dm *errs.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 10, dm.Expected)
}

func TestProject_MergeWarns(t *testing.T) {
	x, err := testutil.NewRNG(4).LowRankSnapshots([]int{8, 4}, 6, 2, 2)
	require.NoError(t, err)
	layout, err := domain.Split(domain.Info{Dim: 2, NX: 2, NY: 1, NZ: 1, Overlap: 1}, []int{8, 4})
	require.NoError(t, err)
	b := buildBasis(t, x, layout, scaling.CenterMean, scaling.NormOne, basis.ModeSpec{})

	for _, merge := range []bool{false, true} {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		_, err := Project(context.Background(), []*tensor.Tensor{x}, b, layout, Config{
			Modes:  basis.Modes(2),
			Merge:  merge,
			Logger: logger,
		})
		require.NoError(t, err)
		assert.Equal(t, merge, strings.Contains(buf.String(), "level=WARN"), "merge=%v log=%q", merge, buf.String())
	}
}
