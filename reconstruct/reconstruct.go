// Package reconstruct expands reduced coefficients back to full-order
// snapshot tensors.
//
// Coefficient files hold raw float64 values of a (modes × snapshots) matrix
// in column-major order: <root>.bin for a monolithic basis, <root>_0.bin,
// <root>_1.bin, ... for a decomposed one.
package reconstruct

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/mesh"
	"github.com/hupe1980/romgo/tensor"
)

// Ext is the file extension of coefficient files.
const Ext = ".bin"

// Config controls Reconstruct.
type Config struct {
	// Root is the file root of the coefficient files.
	Root  string
	NVars int
	// Modes truncates the basis before use. Every coefficient file must
	// hold a multiple of the resolved mode count.
	Modes basis.ModeSpec
	// Merge reassembles decomposed output into Result.Global.
	Merge bool

	Concurrency int
	Logger      *slog.Logger
}

// Validate checks the options that do not depend on the data.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errs.InvalidArgument("coefficient file root is empty")
	}
	if c.NVars <= 0 {
		return errs.InvalidArgument("variable count must be positive, got %d", c.NVars)
	}
	if c.Concurrency < 0 {
		return errs.InvalidArgument("negative concurrency %d", c.Concurrency)
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Result holds reconstructed snapshots shaped (spatial..., snapshots, vars).
type Result struct {
	// Global is set for monolithic bases and for merged decomposed output.
	Global *tensor.Tensor
	// Blocks is set for decomposed bases, in flat domain order.
	Blocks []*tensor.Tensor
}

// Reconstruct reads coefficient files from data and maps them through b:
// x = center + basis·q per block.
//
// Basis and center dimensions are checked against the geometry before any
// file is read. The file layout must match the basis kind, and a decomposed
// basis needs as many coefficient files as it has domains.
func Reconstruct(ctx context.Context, data *artifact.Store, geom *mesh.Geometry, b *basis.Basis, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	b, err := b.Truncate(cfg.Modes)
	if err != nil {
		return nil, err
	}
	shapes, err := blockShapes(geom, b)
	if err != nil {
		return nil, err
	}
	for i, blk := range b.Blocks() {
		if err := checkBlock(i, blk, shapes[i], cfg.NVars); err != nil {
			return nil, err
		}
	}

	names, err := coefficientFiles(ctx, data, cfg.Root, b)
	if err != nil {
		return nil, err
	}

	out := make([]*tensor.Tensor, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))
	for i, name := range names {
		g.Go(func() error {
			vals, err := data.ReadFloats(gctx, name)
			if err != nil {
				return err
			}
			t, err := expand(b.Block(i), shapes[i], cfg.NVars, vals)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !b.Decomposed() {
		log.Debug("reconstructed", "root", cfg.Root, "snapshots", out[0].Times())
		return &Result{Global: out[0]}, nil
	}

	res := &Result{Blocks: out}
	log.Debug("reconstructed", "root", cfg.Root, "domains", len(out))
	if cfg.Merge {
		log.Warn("merging reconstruction of a per-domain basis, overlap cells take the value of the last domain")
		if res.Global, err = geom.Layout.Merge(out); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// LoadAndReconstruct loads basis and center from trial, truncated to
// cfg.Modes, and reconstructs with them.
func LoadAndReconstruct(ctx context.Context, data, trial *artifact.Store, geom *mesh.Geometry, cfg Config) (*Result, error) {
	b, err := basis.Load(ctx, trial, basis.LoadOptions{
		Basis:       true,
		Center:      true,
		Modes:       cfg.Modes,
		Concurrency: cfg.Concurrency,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	cfg.Modes = basis.ModeSpec{}
	return Reconstruct(ctx, data, geom, b, cfg)
}

func blockShapes(geom *mesh.Geometry, b *basis.Basis) ([][]int, error) {
	if geom == nil {
		return nil, errs.InvalidArgument("no mesh geometry")
	}
	if !b.Decomposed() {
		if geom.Global == nil && geom.Layout == nil {
			return nil, errs.InvalidArgument("mesh geometry has no global mesh")
		}
		return [][]int{geom.GlobalShape()}, nil
	}
	if geom.Layout == nil {
		return nil, errs.InvalidArgument("a decomposed basis needs a decomposed mesh")
	}
	if geom.Layout.Count() != b.Domains() {
		return nil, errs.Assertion("basis has %d domains, the mesh has %d", b.Domains(), geom.Layout.Count())
	}
	return geom.Layout.Shapes, nil
}

func checkBlock(i int, blk *basis.Block, shape []int, nvars int) error {
	if blk.Basis == nil || blk.Center == nil {
		return errs.InvalidArgument("block %d: reconstruction needs basis and center", i)
	}
	dof := nvars
	for _, n := range shape {
		dof *= n
	}
	if blk.DOF() != dof {
		return fmt.Errorf("block %d: %w", i, errs.Mismatch("basis rows", dof, blk.DOF()))
	}
	return blk.Validate()
}

func coefficientFiles(ctx context.Context, data *artifact.Store, root string, b *basis.Basis) ([]string, error) {
	mono := artifact.DataName(root, artifact.Monolithic, Ext)
	ok, err := data.Exists(ctx, mono)
	if err != nil {
		return nil, err
	}
	if ok {
		if b.Decomposed() {
			return nil, errs.InvalidArgument("monolithic coefficient file %s for a decomposed basis", mono)
		}
		return []string{mono}, nil
	}

	n, err := data.Count(ctx, root, Ext)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.NotFound("no coefficient files for %s in %s", root, data.Prefix())
	}
	if !b.Decomposed() {
		return nil, errs.InvalidArgument("decomposed coefficient files for a monolithic basis")
	}
	if n != b.Domains() {
		return nil, errs.Assertion("found %d coefficient files for %s, expected %d domains", n, root, b.Domains())
	}
	names := make([]string, n)
	for k := range names {
		names[k] = artifact.DataName(root, k, Ext)
	}
	return names, nil
}

func expand(blk *basis.Block, shape []int, nvars int, vals []float64) (*tensor.Tensor, error) {
	q, err := Coefficients(vals, blk.Modes())
	if err != nil {
		return nil, err
	}
	x, err := blk.Decode(q)
	if err != nil {
		return nil, err
	}
	return tensor.FromMatrix(shape, nvars, x)
}

// Coefficients reshapes raw column-major values into a (modes × snapshots)
// matrix.
func Coefficients(vals []float64, modes int) (*mat.Dense, error) {
	if modes <= 0 {
		return nil, errs.InvalidArgument("mode count must be positive, got %d", modes)
	}
	if len(vals) == 0 || len(vals)%modes != 0 {
		return nil, errs.InvalidArgument("%d coefficients are not a multiple of %d modes", len(vals), modes)
	}
	n := len(vals) / modes
	return mat.DenseCopyOf(mat.NewDense(n, modes, vals).T()), nil
}

// Flat returns q (modes × snapshots) as column-major values.
func Flat(q mat.Matrix) []float64 {
	return mat.DenseCopyOf(q.T()).RawMatrix().Data
}

// WriteCoefficients stores one coefficient matrix per block under root,
// unsuffixed when qs has a single entry and decomposed is false.
func WriteCoefficients(ctx context.Context, data *artifact.Store, root string, qs []*mat.Dense, decomposed bool) error {
	for k, q := range qs {
		idx := k
		if !decomposed {
			if len(qs) != 1 {
				return errs.InvalidArgument("%d coefficient blocks for a monolithic layout", len(qs))
			}
			idx = artifact.Monolithic
		}
		if err := data.WriteFloats(ctx, artifact.DataName(root, idx, Ext), Flat(q)); err != nil {
			return err
		}
	}
	return nil
}
