// Package projection round-trips full-order snapshots through a POD basis:
// encode to reduced coordinates, then decode back to the full state.
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/domain"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/tensor"
)

// Config controls Project.
type Config struct {
	// Modes selects the basis columns used per block. Every resolved count
	// must be at least one; the zero value is rejected.
	Modes basis.ModeSpec
	// Merge reassembles the projected blocks of a decomposed basis into
	// Projected.Global.
	Merge bool

	Concurrency int
	Logger      *slog.Logger
}

// Validate checks the options that do not depend on the data.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return errs.InvalidArgument("negative concurrency %d", c.Concurrency)
	}
	return nil
}

// Projected is the round trip of one dataset.
type Projected struct {
	// Global is set for a monolithic basis and for merged output.
	Global *tensor.Tensor
	// Blocks is set for a decomposed basis, in flat domain order.
	Blocks []*tensor.Tensor
	// Reduced holds the (modes × snapshots) coordinates of every block.
	Reduced []*mat.Dense
	// RelativeError is ||x - x'|| / ||x|| over all blocks. Cells shared
	// by overlapping domains count once per domain.
	RelativeError float64
}

// ProjectSingle encodes data with blk and decodes the result. It returns
// the reconstructed tensor and the reduced coordinates.
func ProjectSingle(data *tensor.Tensor, blk *basis.Block) (*tensor.Tensor, *mat.Dense, error) {
	if blk.DOF() != data.DOF() {
		return nil, nil, errs.Mismatch("basis rows", data.DOF(), blk.DOF())
	}
	q, err := blk.Encode(data.Matrix())
	if err != nil {
		return nil, nil, err
	}
	x, err := blk.Decode(q)
	if err != nil {
		return nil, nil, err
	}
	out, err := tensor.FromMatrix(data.Spatial(), data.Vars(), x)
	if err != nil {
		return nil, nil, err
	}
	return out, q, nil
}

// Project round-trips every dataset through b. Datasets must share their
// spatial shape. A decomposed basis needs a layout with one domain per
// block; each dataset is decomposed with it and projected per block.
func Project(ctx context.Context, datasets []*tensor.Tensor, b *basis.Basis, layout *domain.Layout, cfg Config) ([]*Projected, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if len(datasets) == 0 {
		return nil, errs.InvalidArgument("no datasets given")
	}
	spatial := datasets[0].Spatial()
	for i, d := range datasets[1:] {
		if !slices.Equal(d.Spatial(), spatial) {
			return nil, errs.InvalidArgument("dataset %d has spatial shape %v, want %v", i+1, d.Spatial(), spatial)
		}
	}

	modes, err := cfg.Modes.Resolve(b.Domains())
	if err != nil {
		return nil, err
	}
	for i, m := range modes {
		if m < 1 {
			return nil, errs.InvalidArgument("block %d: projection needs at least one mode", i)
		}
	}
	if b, err = b.Truncate(cfg.Modes); err != nil {
		return nil, err
	}

	shapes := [][]int{spatial}
	if b.Decomposed() {
		if layout == nil {
			return nil, errs.InvalidArgument("a decomposed basis needs a domain layout")
		}
		if layout.Count() != b.Domains() {
			return nil, errs.Mismatch("domain count", b.Domains(), layout.Count())
		}
		if !slices.Equal(layout.GlobalShape(), spatial) {
			return nil, errs.InvalidArgument("layout covers %v, datasets are %v", layout.GlobalShape(), spatial)
		}
		shapes = layout.Shapes
	}
	nvars := datasets[0].Vars()
	for i, blk := range b.Blocks() {
		dof := nvars
		for _, n := range shapes[i] {
			dof *= n
		}
		if blk.DOF() != dof {
			return nil, fmt.Errorf("block %d: %w", i, errs.Mismatch("basis rows", dof, blk.DOF()))
		}
		if err := blk.Validate(); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}

	out := make([]*Projected, len(datasets))
	for di, d := range datasets {
		if d.Vars() != nvars {
			return nil, errs.Mismatch("variable count", nvars, d.Vars())
		}
		p, err := project(ctx, log, d, b, layout, cfg)
		if err != nil {
			return nil, fmt.Errorf("dataset %d: %w", di, err)
		}
		out[di] = p
		log.Debug("dataset projected", "dataset", di, "blocks", len(p.Reduced))
	}
	return out, nil
}

func project(ctx context.Context, log *slog.Logger, d *tensor.Tensor, b *basis.Basis, layout *domain.Layout, cfg Config) (*Projected, error) {
	if !b.Decomposed() {
		x, q, err := ProjectSingle(d, b.Block(0))
		if err != nil {
			return nil, err
		}
		return &Projected{
			Global:        x,
			Reduced:       []*mat.Dense{q},
			RelativeError: relativeError([]*tensor.Tensor{d}, []*tensor.Tensor{x}),
		}, nil
	}

	parts, err := layout.Decompose(d)
	if err != nil {
		return nil, err
	}
	p := &Projected{
		Blocks:  make([]*tensor.Tensor, len(parts)),
		Reduced: make([]*mat.Dense, len(parts)),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x, q, err := ProjectSingle(part, b.Block(i))
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			p.Blocks[i], p.Reduced[i] = x, q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.RelativeError = relativeError(parts, p.Blocks)
	if cfg.Merge {
		log.Warn("merging projection of a per-domain basis, overlap cells take the value of the last domain")
		if p.Global, err = layout.Merge(p.Blocks); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func relativeError(want, got []*tensor.Tensor) float64 {
	var diff, norm float64
	for i := range want {
		d := floats.Distance(want[i].Data(), got[i].Data(), 2)
		n := floats.Norm(want[i].Data(), 2)
		diff += d * d
		norm += n * n
	}
	if norm == 0 {
		return math.Sqrt(diff)
	}
	return math.Sqrt(diff / norm)
}
