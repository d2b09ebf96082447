package basis

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/dataset"
	"github.com/hupe1980/romgo/domain"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/pod"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
)

// BuildConfig controls Build.
type BuildConfig struct {
	// Datasets are the snapshot series to build from. Monolithic datasets
	// contribute their global tensor, decomposed datasets one tensor per
	// domain.
	Datasets []*dataset.Dataset

	// Range selects time samples of every dataset before anything else.
	Range tensor.Range
	// Concat joins all datasets along time into one.
	Concat bool

	// Decompose builds one basis per domain. A single monolithic input is
	// split with Layout; several inputs are taken as already decomposed and
	// must come without a Layout.
	Decompose bool
	Layout    *domain.Layout

	CenterMethod scaling.CenterMethod
	NormMethod   scaling.NormMethod
	// CenterVecs and NormVecs optionally fix the scaling vectors per block,
	// each (spatial × vars). Nil entries fall back to the methods.
	CenterVecs []*mat.Dense
	NormVecs   []*mat.Dense

	Modes ModeSpec

	// Concurrency bounds the number of blocks processed at once.
	// Zero means one.
	Concurrency int
	Logger      *slog.Logger
}

func (c *BuildConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Validate checks the options that do not depend on the data.
func (c *BuildConfig) Validate() error {
	if len(c.Datasets) == 0 {
		return errs.InvalidArgument("no datasets given")
	}
	for i, d := range c.Datasets {
		if d == nil || (d.Global == nil && len(d.Blocks) == 0) {
			return errs.InvalidArgument("dataset %d is empty", i)
		}
	}
	if c.Concurrency < 0 {
		return errs.InvalidArgument("negative concurrency %d", c.Concurrency)
	}
	return nil
}

// Build computes one POD basis per block and writes basis, svals, center,
// norm, pod_power and a manifest to store.
//
// Blocks run in parallel and the first failure cancels the rest. Artifacts
// already written for other blocks are not removed.
func Build(ctx context.Context, store *artifact.Store, cfg BuildConfig) (*Basis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	units, err := prepare(cfg)
	if err != nil {
		return nil, err
	}
	n := len(units)
	suffixed := n > 1 || cfg.Decompose

	modes, err := cfg.Modes.Resolve(n)
	if err != nil {
		return nil, err
	}
	centers, err := perBlock("center vectors", cfg.CenterVecs, n)
	if err != nil {
		return nil, err
	}
	norms, err := perBlock("norm vectors", cfg.NormVecs, n)
	if err != nil {
		return nil, err
	}
	for i, u := range units {
		if u.NDim() != 2 {
			return nil, errs.InvalidArgument("block %d has %d spatial dimensions, POD needs 2", i, u.NDim())
		}
	}

	log.Info("writing basis", "dir", store.Prefix(), "blocks", n, "decomposed", suffixed)

	blocks := make([]*Block, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))
	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := pod.Compute(u, pod.Config{
				Scaling: scaling.Config{
					CenterVec:    centers[i],
					CenterMethod: cfg.CenterMethod,
					NormVec:      norms[i],
					NormMethod:   cfg.NormMethod,
				},
				Modes: modes[i],
			})
			if err != nil {
				return err
			}
			idx := i
			if !suffixed {
				idx = artifact.Monolithic
			}
			blk := &Block{
				Basis:    res.Basis,
				Center:   scaling.Flat(res.Center),
				Norm:     scaling.Flat(res.Norm),
				Singular: res.Singular,
			}
			if err := writeBlock(gctx, store, idx, blk); err != nil {
				return err
			}
			log.Debug("block written", "block", i, "dof", blk.DOF(), "modes", blk.Modes())
			blocks[i] = blk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &artifact.Manifest{
		Decomposed:   suffixed,
		Domains:      n,
		NVars:        units[0].Vars(),
		Modes:        make([]int, n),
		CenterMethod: string(cfg.CenterMethod),
		NormMethod:   string(cfg.NormMethod),
		Shapes:       make([][]int, n),
		CreatedAt:    time.Now().UTC(),
	}
	for i, b := range blocks {
		m.Modes[i] = b.Modes()
		m.Shapes[i] = units[i].Spatial()
	}
	if err := store.WriteManifest(ctx, m); err != nil {
		return nil, err
	}

	if suffixed {
		return NewDecomposed(blocks), nil
	}
	return NewMonolithic(blocks[0]), nil
}

func writeBlock(ctx context.Context, store *artifact.Store, idx int, b *Block) error {
	// basis is stored from its transpose with swapped header dimensions
	if err := store.WriteMatrix(ctx, artifact.Name(artifact.Basis, idx), b.Basis.T(), true); err != nil {
		return err
	}
	if err := store.WriteNPY(ctx, artifact.Name(artifact.Singular, idx), b.Singular); err != nil {
		return err
	}
	if err := store.WriteVector(ctx, artifact.Name(artifact.Center, idx), b.Center); err != nil {
		return err
	}
	if err := store.WriteVector(ctx, artifact.Name(artifact.Norm, idx), b.Norm); err != nil {
		return err
	}
	return store.WriteText(ctx, artifact.Name(artifact.Power, idx), pod.Energy(b.Singular))
}

// prepare turns the datasets into the list of tensors that get one basis
// each.
func prepare(cfg BuildConfig) ([]*tensor.Tensor, error) {
	sets := make([]*dataset.Dataset, len(cfg.Datasets))
	for i, d := range cfg.Datasets {
		s, err := sliceDataset(d, cfg.Range)
		if err != nil {
			return nil, err
		}
		sets[i] = s
	}

	if cfg.Concat && len(sets) > 1 {
		joined, err := concatDatasets(sets)
		if err != nil {
			return nil, err
		}
		sets = []*dataset.Dataset{joined}
	}

	var units []*tensor.Tensor
	for _, d := range sets {
		if d.Decomposed() {
			units = append(units, d.Blocks...)
		} else {
			units = append(units, d.Global)
		}
	}

	if !cfg.Decompose {
		return units, nil
	}
	switch {
	case len(units) == 1 && cfg.Layout == nil:
		return nil, errs.InvalidArgument("decomposition of a single dataset needs a domain layout")
	case len(units) == 1:
		return cfg.Layout.Decompose(units[0])
	case cfg.Layout != nil:
		return nil, errs.InvalidArgument("%d inputs are already decomposed, a domain layout cannot be applied", len(units))
	default:
		return units, nil
	}
}

func sliceDataset(d *dataset.Dataset, r tensor.Range) (*dataset.Dataset, error) {
	if !d.Decomposed() {
		t, err := d.Global.SliceTime(r)
		if err != nil {
			return nil, err
		}
		return &dataset.Dataset{Global: t}, nil
	}
	out := &dataset.Dataset{Blocks: make([]*tensor.Tensor, len(d.Blocks))}
	for k, b := range d.Blocks {
		t, err := b.SliceTime(r)
		if err != nil {
			return nil, err
		}
		out.Blocks[k] = t
	}
	return out, nil
}

func concatDatasets(sets []*dataset.Dataset) (*dataset.Dataset, error) {
	first := sets[0]
	if !first.Decomposed() {
		ts := make([]*tensor.Tensor, len(sets))
		for i, d := range sets {
			if d.Decomposed() {
				return nil, errs.InvalidArgument("cannot concatenate monolithic and decomposed datasets")
			}
			ts[i] = d.Global
		}
		t, err := tensor.Concat(ts...)
		if err != nil {
			return nil, err
		}
		return &dataset.Dataset{Global: t}, nil
	}

	out := &dataset.Dataset{Blocks: make([]*tensor.Tensor, len(first.Blocks))}
	for k := range first.Blocks {
		ts := make([]*tensor.Tensor, len(sets))
		for i, d := range sets {
			if len(d.Blocks) != len(first.Blocks) {
				return nil, errs.InvalidArgument("dataset %d has %d blocks, want %d", i, len(d.Blocks), len(first.Blocks))
			}
			ts[i] = d.Blocks[k]
		}
		t, err := tensor.Concat(ts...)
		if err != nil {
			return nil, err
		}
		out.Blocks[k] = t
	}
	return out, nil
}

func perBlock(what string, vecs []*mat.Dense, n int) ([]*mat.Dense, error) {
	if len(vecs) == 0 {
		return make([]*mat.Dense, n), nil
	}
	if len(vecs) != n {
		return nil, errs.InvalidArgument("%d %s for %d blocks", len(vecs), what, n)
	}
	return vecs, nil
}
