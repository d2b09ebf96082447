package romgo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/romgo"
	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/blobstore"
	"github.com/hupe1980/romgo/dataset"
	"github.com/hupe1980/romgo/domain"
	"github.com/hupe1980/romgo/mesh"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
	"github.com/hupe1980/romgo/testutil"
)

// setup writes a mesh and one snapshot series per seed to blobs.
func setup(t *testing.T, blobs blobstore.BlobStore, info *domain.Info, decomposedData bool, seeds ...int64) []*tensor.Tensor {
	t.Helper()
	ctx := context.Background()

	global := mesh.Uniform(12, 6)
	geom := &mesh.Geometry{Global: global}
	if info != nil {
		var err error
		geom, err = mesh.Decompose(global, *info)
		require.NoError(t, err)
	}
	require.NoError(t, mesh.Write(ctx, artifact.NewStore(blobs, "mesh"), geom))

	out := make([]*tensor.Tensor, len(seeds))
	for i, seed := range seeds {
		x, err := testutil.NewRNG(seed).LowRankSnapshots([]int{12, 6}, 10, 2, 4)
		require.NoError(t, err)
		d := &dataset.Dataset{Global: x}
		if decomposedData {
			d.Global = nil
			d.Blocks, err = geom.Layout.Decompose(x)
			require.NoError(t, err)
		}
		require.NoError(t, dataset.Write(ctx, artifact.NewStore(blobs, fmt.Sprintf("fom%d", i)), "state", d))
		out[i] = x
	}
	return out
}

func TestROM_Monolithic(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewLocalStore(t.TempDir())
	xs := setup(t, blobs, nil, false, 1)

	metrics := &romgo.BasicMetricsCollector{}
	rom := romgo.New(blobs, romgo.WithMetricsCollector(metrics), romgo.WithConcurrency(2))

	b, err := rom.BuildBases(ctx, romgo.BuildRequest{
		MeshDir:      "mesh",
		DataDirs:     []string{"fom0"},
		DataRoot:     "state",
		NVars:        2,
		BasisDir:     "trial",
		CenterMethod: scaling.CenterMean,
		NormMethod:   scaling.NormOne,
	})
	require.NoError(t, err)
	assert.Equal(t, basis.Monolithic, b.Kind())
	assert.Equal(t, 10, b.Block(0).Modes())

	reports, err := rom.Energy(ctx, "trial")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Levels[0].Reached)

	out, err := rom.Project(ctx, romgo.ProjectRequest{
		MeshDir:  "mesh",
		DataDirs: []string{"fom0"},
		DataRoot: "state",
		BasisDir: "trial",
		NVars:    2,
		Modes:    basis.Modes(10),
		OutDir:   "proj",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDeltaSlice(t, xs[0].Data(), out[0].Global.Data(), 1e-9)

	res, err := rom.Reconstruct(ctx, romgo.ReconstructRequest{
		MeshDir:  "mesh",
		DataDir:  "proj/0",
		Root:     "coeffs",
		BasisDir: "trial",
		NVars:    2,
		Modes:    basis.Modes(10),
		OutDir:   "recon",
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, xs[0].Data(), res.Global.Data(), 1e-9)

	ok, err := blobstore.Exists(ctx, blobs, "recon/coeffs.bin")
	require.NoError(t, err)
	assert.True(t, ok)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(1), stats.BuildDomains)
	assert.Equal(t, int64(1), stats.ReconstructCount)
	assert.Equal(t, int64(1), stats.ProjectDatasets)
	assert.Equal(t, int64(3), stats.LoadCount)
	assert.Zero(t, stats.BuildErrors+stats.LoadErrors+stats.ReconstructErrors+stats.ProjectErrors)
}

func TestROM_Decomposed(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	info := domain.Info{Dim: 2, NX: 3, NY: 2, NZ: 1, Overlap: 1}
	xs := setup(t, blobs, &info, false, 3, 4)

	rom := romgo.New(blobs, romgo.WithCompression(artifact.CompressionLZ4), romgo.WithConcurrency(3))

	b, err := rom.BuildBases(ctx, romgo.BuildRequest{
		MeshDir:      "mesh",
		DataDirs:     []string{"fom0", "fom1"},
		DataRoot:     "state",
		NVars:        2,
		BasisDir:     "trial",
		Concat:       true,
		Decompose:    true,
		CenterMethod: scaling.CenterInitCond,
		NormMethod:   scaling.NormL2,
	})
	require.NoError(t, err)
	require.Equal(t, basis.Decomposed, b.Kind())
	assert.Equal(t, 6, b.Domains())

	ok, err := blobstore.Exists(ctx, blobs, "trial/basis_5.bin.lz4")
	require.NoError(t, err)
	assert.True(t, ok)

	out, err := rom.Project(ctx, romgo.ProjectRequest{
		MeshDir:  "mesh",
		DataDirs: []string{"fom0", "fom1"},
		DataRoot: "state",
		BasisDir: "trial",
		NVars:    2,
		Modes:    basis.Modes(20),
		Merge:    true,
		OutDir:   "proj",
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i, p := range out {
		assert.InDeltaSlice(t, xs[i].Data(), p.Global.Data(), 1e-8)
		assert.Len(t, p.Reduced, 6)
	}

	res, err := rom.Reconstruct(ctx, romgo.ReconstructRequest{
		MeshDir:  "mesh",
		DataDir:  "proj/1",
		Root:     "coeffs",
		BasisDir: "trial",
		NVars:    2,
		Modes:    basis.Modes(20),
		Merge:    true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Blocks, 6)
	assert.InDeltaSlice(t, xs[1].Data(), res.Global.Data(), 1e-8)
}

func TestROM_PreDecomposedData(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	info := domain.Info{Dim: 2, NX: 2, NY: 1, NZ: 1, Overlap: 2}
	setup(t, blobs, &info, true, 5)

	rom := romgo.New(blobs)
	b, err := rom.BuildBases(ctx, romgo.BuildRequest{
		MeshDir:      "mesh",
		DataDirs:     []string{"fom0"},
		DataRoot:     "state",
		NVars:        2,
		BasisDir:     "trial",
		Decompose:    true,
		CenterMethod: scaling.CenterZero,
		NormMethod:   scaling.NormOne,
		Modes:        basis.PerDomain(3, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Domains())
	assert.Equal(t, 4, b.Block(1).Modes())
}

func TestROM_Errors(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	setup(t, blobs, nil, false, 6)

	metrics := &romgo.BasicMetricsCollector{}
	rom := romgo.New(blobs, romgo.WithMetricsCollector(metrics))

	_, err := rom.LoadBasis(ctx, "nowhere", basis.LoadAll)
	require.ErrorIs(t, err, romgo.ErrNotFound)

	_, err = rom.BuildBases(ctx, romgo.BuildRequest{
		MeshDir:      "mesh",
		DataDirs:     []string{"fom0"},
		DataRoot:     "state",
		NVars:        2,
		BasisDir:     "trial",
		Decompose:    true,
		CenterMethod: scaling.CenterMean,
		NormMethod:   scaling.NormOne,
	})
	require.ErrorIs(t, err, romgo.ErrInvalidArgument)

	_, err = rom.BuildBases(ctx, romgo.BuildRequest{
		MeshDir:      "mesh",
		DataDirs:     []string{"fom0"},
		DataRoot:     "state",
		NVars:        2,
		BasisDir:     "trial",
		CenterMethod: "median",
		NormMethod:   scaling.NormOne,
	})
	require.ErrorIs(t, err, romgo.ErrInvalidArgument)

	_, err = rom.BuildBases(ctx, romgo.BuildRequest{
		MeshDir:      "mesh",
		DataDirs:     []string{"fom0"},
		DataRoot:     "state",
		NVars:        2,
		BasisDir:     "trial",
		CenterMethod: scaling.CenterMean,
		NormMethod:   scaling.NormOne,
	})
	require.NoError(t, err)

	// Read with 4 variables the snapshots have 288 dof against 144 basis rows.
	_, err = rom.Project(ctx, romgo.ProjectRequest{
		MeshDir:  "mesh",
		DataDirs: []string{"fom0"},
		DataRoot: "state",
		BasisDir: "trial",
		NVars:    4,
		Modes:    basis.Modes(2),
	})
	require.ErrorIs(t, err, romgo.ErrInvalidArgument)
	var dm *romgo.ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 288, dm.Expected)
	assert.Equal(t, 144, dm.Actual)

	_, err = rom.Reconstruct(ctx, romgo.ReconstructRequest{
		MeshDir:  "mesh",
		DataDir:  "rom",
		Root:     "coeffs",
		BasisDir: "trial",
		NVars:    2,
	})
	require.ErrorIs(t, err, romgo.ErrNotFound)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.BuildErrors)
	assert.Equal(t, int64(1), stats.ReconstructErrors)
}
