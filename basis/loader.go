package basis

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/internal/errs"
)

// LoadOptions selects which artifacts Load reads.
type LoadOptions struct {
	Basis    bool
	Center   bool
	Norm     bool
	Singular bool

	// Modes truncates the basis. A single count applies to every domain; a
	// list must have one entry per domain. Zero keeps all stored modes.
	Modes ModeSpec

	Concurrency int
	Logger      *slog.Logger
}

// LoadAll requests every artifact with all modes.
var LoadAll = LoadOptions{Basis: true, Center: true, Norm: true, Singular: true}

// Load reads a basis directory. basis.bin marks a monolithic basis;
// basis_0.bin, basis_1.bin, ... mark a decomposed one whose domain count is
// the number of consecutive indices present. Neither is a not-found error.
func Load(ctx context.Context, store *artifact.Store, opts LoadOptions) (*Basis, error) {
	if !opts.Basis && !opts.Center && !opts.Norm && !opts.Singular {
		return nil, errs.InvalidArgument("no basis artifact requested")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	kind, count, err := Detect(ctx, store)
	if err != nil {
		return nil, err
	}
	if kind == Monolithic {
		log.Info("monolithic basis detected", "dir", store.Prefix())
	} else {
		log.Info("domain bases found", "dir", store.Prefix(), "domains", count)
	}

	modes, err := opts.Modes.Resolve(count)
	if err != nil {
		return nil, err
	}

	blocks := make([]*Block, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i := range blocks {
		g.Go(func() error {
			idx := i
			if kind == Monolithic {
				idx = artifact.Monolithic
			}
			b, err := loadBlock(gctx, store, idx, opts, modes[i])
			if err != nil {
				return err
			}
			blocks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if kind == Monolithic {
		return NewMonolithic(blocks[0]), nil
	}
	return NewDecomposed(blocks), nil
}

// Detect reports whether store holds a monolithic or decomposed basis and
// how many blocks it has.
func Detect(ctx context.Context, store *artifact.Store) (Kind, int, error) {
	ok, err := store.Exists(ctx, artifact.Name(artifact.Basis, artifact.Monolithic))
	if err != nil {
		return 0, 0, err
	}
	if ok {
		return Monolithic, 1, nil
	}
	n, err := store.Count(ctx, string(artifact.Basis), ".bin")
	if err != nil {
		return 0, 0, err
	}
	if n == 0 {
		return 0, 0, errs.NotFound("no basis.bin or basis_0.bin in %s", store.Prefix())
	}
	return Decomposed, n, nil
}

func loadBlock(ctx context.Context, store *artifact.Store, idx int, opts LoadOptions, modes int) (*Block, error) {
	b := &Block{}
	var err error
	if opts.Basis {
		if b.Basis, err = store.ReadMatrix(ctx, artifact.Name(artifact.Basis, idx)); err != nil {
			return nil, err
		}
		if b, err = b.Truncate(modes); err != nil {
			return nil, err
		}
	}
	if opts.Center {
		if b.Center, err = store.ReadVector(ctx, artifact.Name(artifact.Center, idx)); err != nil {
			return nil, err
		}
	}
	if opts.Norm {
		if b.Norm, err = store.ReadVector(ctx, artifact.Name(artifact.Norm, idx)); err != nil {
			return nil, err
		}
	}
	if opts.Singular {
		if b.Singular, err = store.ReadNPY(ctx, artifact.Name(artifact.Singular, idx)); err != nil {
			return nil, err
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
