// Package dataset loads and stores full-order snapshot files.
//
// A snapshot file holds consecutive float64 state vectors without a header.
// Monolithic data lives in <root>.bin, decomposed data in <root>_0.bin,
// <root>_1.bin, ... in flat domain order. Spatial shapes come from the mesh
// geometry.
package dataset

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/mesh"
	"github.com/hupe1980/romgo/tensor"
)

// Ext is the file extension of snapshot files.
const Ext = ".bin"

// Dataset is one snapshot time series, whole or per domain.
type Dataset struct {
	// Global is set for monolithic files and for merged decomposed files.
	Global *tensor.Tensor
	// Blocks is set for decomposed files, in flat domain order.
	Blocks []*tensor.Tensor
}

// Decomposed reports whether the dataset holds per-domain blocks.
func (d *Dataset) Decomposed() bool { return d.Blocks != nil }

// Options configures Load.
type Options struct {
	NVars int
	// Merge reassembles decomposed files into Global as well.
	Merge bool
	// Concurrency bounds parallel block reads. Zero means unbounded.
	Concurrency int
}

// Load reads the snapshot files for root, detecting monolithic
// (<root>.bin) versus decomposed (<root>_k.bin) storage.
func Load(ctx context.Context, s *artifact.Store, root string, geom *mesh.Geometry, opts Options) (*Dataset, error) {
	if opts.NVars <= 0 {
		return nil, errs.InvalidArgument("variable count must be positive, got %d", opts.NVars)
	}

	mono := artifact.DataName(root, artifact.Monolithic, Ext)
	ok, err := s.Exists(ctx, mono)
	if err != nil {
		return nil, err
	}
	if ok {
		vals, err := s.ReadFloats(ctx, mono)
		if err != nil {
			return nil, err
		}
		t, err := tensor.FromStates(geom.GlobalShape(), opts.NVars, vals)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mono, err)
		}
		return &Dataset{Global: t}, nil
	}

	n, err := s.Count(ctx, root, Ext)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.NotFound("no snapshot files for %s in %s", root, s.Prefix())
	}
	if !geom.Decomposed() {
		return nil, errs.InvalidArgument("%d decomposed snapshot files but the mesh is not decomposed", n)
	}
	if n != geom.Layout.Count() {
		return nil, errs.Assertion("found %d snapshot files for %s, the mesh has %d domains", n, root, geom.Layout.Count())
	}

	blocks := make([]*tensor.Tensor, n)
	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for k := range blocks {
		g.Go(func() error {
			name := artifact.DataName(root, k, Ext)
			vals, err := s.ReadFloats(gctx, name)
			if err != nil {
				return err
			}
			t, err := tensor.FromStates(geom.Layout.Shapes[k], opts.NVars, vals)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			blocks[k] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dataset{Blocks: blocks}
	if opts.Merge {
		if d.Global, err = geom.Layout.Merge(blocks); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Write stores d under root: one file per block when decomposed, a single
// file otherwise.
func Write(ctx context.Context, s *artifact.Store, root string, d *Dataset) error {
	if d.Decomposed() {
		for k, b := range d.Blocks {
			if err := s.WriteFloats(ctx, artifact.DataName(root, k, Ext), b.Data()); err != nil {
				return err
			}
		}
		return nil
	}
	if d.Global == nil {
		return errs.InvalidArgument("empty dataset")
	}
	return s.WriteFloats(ctx, artifact.DataName(root, artifact.Monolithic, Ext), d.Global.Data())
}
