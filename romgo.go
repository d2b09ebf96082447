package romgo

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/blobstore"
	"github.com/hupe1980/romgo/dataset"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/mesh"
	"github.com/hupe1980/romgo/pod"
	"github.com/hupe1980/romgo/projection"
	"github.com/hupe1980/romgo/reconstruct"
	"github.com/hupe1980/romgo/tensor"
)

// ROM runs basis builds, reconstructions and projections against one blob
// store. It holds no per-call state and is safe for concurrent use.
type ROM struct {
	blobs blobstore.BlobStore
	opts  options
}

// New creates a ROM handle on blobs.
func New(blobs blobstore.BlobStore, optFns ...Option) *ROM {
	return &ROM{blobs: blobs, opts: applyOptions(optFns)}
}

// Local creates a ROM handle on a local directory.
func Local(dir string, optFns ...Option) *ROM {
	return New(blobstore.NewLocalStore(dir), optFns...)
}

// Store returns an artifact store for dir, compressing writes as
// configured.
func (r *ROM) Store(dir string) *artifact.Store {
	return artifact.NewStore(r.blobs, dir, artifact.WithCompression(r.opts.compression))
}

// Logger returns the logger of the handle.
func (r *ROM) Logger() *Logger { return r.opts.logger }

// BuildBases loads the requested datasets and builds a POD basis into
// req.BasisDir.
func (r *ROM) BuildBases(ctx context.Context, req BuildRequest) (b *basis.Basis, err error) {
	start := time.Now()
	defer func() {
		domains := 0
		if b != nil {
			domains = b.Domains()
		}
		r.opts.metricsCollector.RecordBuild(domains, time.Since(start), err)
		r.opts.logger.LogBuild(ctx, req.BasisDir, domains, time.Since(start), err)
	}()

	if len(req.DataDirs) == 0 {
		return nil, errs.InvalidArgument("no data directories given")
	}
	geom, err := mesh.LoadGeometry(ctx, r.Store(req.MeshDir))
	if err != nil {
		return nil, translateError(err)
	}
	sets := make([]*dataset.Dataset, len(req.DataDirs))
	anyDecomposed := false
	for i, dir := range req.DataDirs {
		d, err := dataset.Load(ctx, r.Store(dir), req.DataRoot, geom, dataset.Options{
			NVars:       req.NVars,
			Concurrency: r.opts.concurrency,
		})
		if err != nil {
			return nil, translateError(fmt.Errorf("%s: %w", dir, err))
		}
		anyDecomposed = anyDecomposed || d.Decomposed()
		sets[i] = d
	}

	cfg := basis.BuildConfig{
		Datasets:     sets,
		Range:        req.Range(),
		Concat:       req.Concat,
		Decompose:    req.Decompose,
		CenterMethod: req.CenterMethod,
		NormMethod:   req.NormMethod,
		Modes:        req.Modes,
		Concurrency:  r.opts.concurrency,
		Logger:       r.opts.logger.WithDir(req.BasisDir).Logger,
	}
	if req.Decompose && !anyDecomposed {
		cfg.Layout = geom.Layout
	}
	b, err = basis.Build(ctx, r.Store(req.BasisDir), cfg)
	return b, translateError(err)
}

// LoadBasis reads the basis in dir.
func (r *ROM) LoadBasis(ctx context.Context, dir string, opts basis.LoadOptions) (b *basis.Basis, err error) {
	start := time.Now()
	defer func() {
		domains := 0
		if b != nil {
			domains = b.Domains()
		}
		r.opts.metricsCollector.RecordLoad(domains, time.Since(start), err)
		r.opts.logger.LogLoad(ctx, dir, domains, err)
	}()

	if opts.Concurrency == 0 {
		opts.Concurrency = r.opts.concurrency
	}
	if opts.Logger == nil {
		opts.Logger = r.opts.logger.Logger
	}
	b, err = basis.Load(ctx, r.Store(dir), opts)
	return b, translateError(err)
}

// Energy reads the singular values of every block in dir and returns one
// energy report per block.
func (r *ROM) Energy(ctx context.Context, dir string) ([]pod.EnergyReport, error) {
	b, err := r.LoadBasis(ctx, dir, basis.LoadOptions{Singular: true})
	if err != nil {
		return nil, err
	}
	out := make([]pod.EnergyReport, b.Domains())
	for i, blk := range b.Blocks() {
		out[i] = pod.Energy(blk.Singular)
	}
	return out, nil
}

// Reconstruct expands the coefficient files of req through the basis in
// req.BasisDir and optionally writes the result.
func (r *ROM) Reconstruct(ctx context.Context, req ReconstructRequest) (res *reconstruct.Result, err error) {
	start := time.Now()
	defer func() {
		blocks := 0
		if res != nil {
			blocks = max(len(res.Blocks), 1)
		}
		r.opts.metricsCollector.RecordReconstruct(blocks, time.Since(start), err)
		r.opts.logger.LogReconstruct(ctx, req.Root, blocks, time.Since(start), err)
	}()

	geom, err := mesh.LoadGeometry(ctx, r.Store(req.MeshDir))
	if err != nil {
		return nil, translateError(err)
	}
	b, err := r.LoadBasis(ctx, req.BasisDir, basis.LoadOptions{Basis: true, Center: true, Modes: req.Modes})
	if err != nil {
		return nil, err
	}
	res, err = reconstruct.Reconstruct(ctx, r.Store(req.DataDir), geom, b, reconstruct.Config{
		Root:        req.Root,
		NVars:       req.NVars,
		Merge:       req.Merge,
		Concurrency: r.opts.concurrency,
		Logger:      r.opts.logger.Logger,
	})
	if err != nil {
		return nil, translateError(err)
	}

	if req.OutDir != "" {
		out := &dataset.Dataset{Global: res.Global, Blocks: res.Blocks}
		if req.Merge {
			out.Blocks = nil
		}
		root := req.OutRoot
		if root == "" {
			root = req.Root
		}
		if err := dataset.Write(ctx, r.Store(req.OutDir), root, out); err != nil {
			return nil, translateError(err)
		}
	}
	return res, nil
}

// Project round-trips every dataset of req through the basis in
// req.BasisDir. Decomposed input is merged first; a decomposed basis then
// splits it again along the mesh layout.
func (r *ROM) Project(ctx context.Context, req ProjectRequest) (out []*projection.Projected, err error) {
	start := time.Now()
	defer func() {
		r.opts.metricsCollector.RecordProject(len(out), time.Since(start), err)
		r.opts.logger.LogProject(ctx, len(out), time.Since(start), err)
	}()

	if len(req.DataDirs) == 0 {
		return nil, errs.InvalidArgument("no data directories given")
	}
	geom, err := mesh.LoadGeometry(ctx, r.Store(req.MeshDir))
	if err != nil {
		return nil, translateError(err)
	}
	b, err := r.LoadBasis(ctx, req.BasisDir, basis.LoadOptions{Basis: true, Center: true, Norm: true})
	if err != nil {
		return nil, err
	}

	data := make([]*tensor.Tensor, len(req.DataDirs))
	for i, dir := range req.DataDirs {
		d, err := dataset.Load(ctx, r.Store(dir), req.DataRoot, geom, dataset.Options{
			NVars:       req.NVars,
			Merge:       true,
			Concurrency: r.opts.concurrency,
		})
		if err != nil {
			return nil, translateError(fmt.Errorf("%s: %w", dir, err))
		}
		data[i] = d.Global
	}

	out, err = projection.Project(ctx, data, b, geom.Layout, projection.Config{
		Modes:       req.Modes,
		Merge:       req.Merge,
		Concurrency: r.opts.concurrency,
		Logger:      r.opts.logger.Logger,
	})
	if err != nil {
		return nil, translateError(err)
	}

	if req.OutDir != "" {
		for i, p := range out {
			s := r.Store(path.Join(req.OutDir, fmt.Sprint(i)))
			if err := reconstruct.WriteCoefficients(ctx, s, "coeffs", p.Reduced, b.Decomposed()); err != nil {
				return nil, translateError(err)
			}
			d := &dataset.Dataset{Global: p.Global, Blocks: p.Blocks}
			if p.Global != nil {
				d.Blocks = nil
			}
			if err := dataset.Write(ctx, s, req.DataRoot, d); err != nil {
				return nil, translateError(err)
			}
		}
	}
	return out, nil
}
