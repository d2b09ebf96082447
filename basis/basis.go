// Package basis builds, stores and loads POD bases.
//
// A Basis is either monolithic (one Block for the whole grid) or decomposed
// (one Block per subdomain in flat domain order). The variant is fixed when
// a basis is built or loaded; callers switch on Kind instead of inspecting
// the shape of the data.
package basis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
)

// Kind tells monolithic and decomposed bases apart.
type Kind int

const (
	// Monolithic is a single Block covering the whole grid.
	Monolithic Kind = iota
	// Decomposed holds one Block per subdomain.
	Decomposed
)

// String returns "monolithic" or "decomposed".
func (k Kind) String() string {
	if k == Decomposed {
		return "decomposed"
	}
	return "monolithic"
}

// Block is the basis of a single spatial block. Fields that were not
// requested at load time are nil.
type Block struct {
	// Basis is (dof × modes) with the normalization baked into its rows.
	Basis *mat.Dense
	// Center and Norm are length-dof vectors in feature order (s*vars + v).
	Center []float64
	Norm   []float64
	// Singular holds all singular values computed at build time.
	Singular []float64
}

// DOF returns the state size of the block.
func (b *Block) DOF() int {
	switch {
	case b.Basis != nil:
		r, _ := b.Basis.Dims()
		return r
	case b.Center != nil:
		return len(b.Center)
	default:
		return len(b.Norm)
	}
}

// Modes returns the number of basis columns, or 0 without a basis.
func (b *Block) Modes() int {
	if b.Basis == nil {
		return 0
	}
	_, c := b.Basis.Dims()
	return c
}

// Truncate returns a copy of b keeping the first modes columns of the basis.
// Zero keeps all columns.
func (b *Block) Truncate(modes int) (*Block, error) {
	out := *b
	if b.Basis == nil || modes == 0 {
		return &out, nil
	}
	have := b.Modes()
	if modes < 0 || modes > have {
		return nil, errs.InvalidArgument("requested %d modes, basis has %d", modes, have)
	}
	if modes < have {
		out.Basis = mat.DenseCopyOf(b.Basis.Slice(0, b.DOF(), 0, modes))
	}
	return &out, nil
}

// Validate checks that the loaded parts of b agree on the state size.
func (b *Block) Validate() error {
	dof := b.DOF()
	if b.Center != nil && len(b.Center) != dof {
		return errs.Mismatch("center vector", dof, len(b.Center))
	}
	if b.Norm != nil && len(b.Norm) != dof {
		return errs.Mismatch("norm vector", dof, len(b.Norm))
	}
	return nil
}

// Encode maps full-order states x (dof × n) to reduced coordinates
// q = (B ⊘ norm)ᵀ ((x − center) ⊘ norm), where B has the norm baked in.
// Decode(Encode(x)) is the orthogonal projection of x − center onto the
// basis, shifted back by center.
func (b *Block) Encode(x mat.Matrix) (*mat.Dense, error) {
	if b.Basis == nil || b.Center == nil || b.Norm == nil {
		return nil, errs.InvalidArgument("encoding needs basis, center and norm")
	}
	dof, n := x.Dims()
	if dof != b.DOF() {
		return nil, errs.Mismatch("state rows", b.DOF(), dof)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	y := mat.NewDense(dof, n, nil)
	for i := 0; i < dof; i++ {
		w := 1 / (b.Norm[i] * b.Norm[i])
		row := y.RawRowView(i)
		for j := range row {
			row[j] = (x.At(i, j) - b.Center[i]) * w
		}
	}

	var q mat.Dense
	q.Mul(b.Basis.T(), y)
	return &q, nil
}

// Decode maps reduced coordinates q (modes × n) to full-order states
// center + B q.
func (b *Block) Decode(q mat.Matrix) (*mat.Dense, error) {
	if b.Basis == nil || b.Center == nil {
		return nil, errs.InvalidArgument("decoding needs basis and center")
	}
	modes, _ := q.Dims()
	if modes != b.Modes() {
		return nil, errs.Mismatch("reduced coordinate rows", b.Modes(), modes)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var x mat.Dense
	x.Mul(b.Basis, q)
	dof, n := x.Dims()
	for i := 0; i < dof; i++ {
		row := x.RawRowView(i)
		for j := 0; j < n; j++ {
			row[j] += b.Center[i]
		}
	}
	return &x, nil
}

// Basis is a monolithic or decomposed POD basis.
type Basis struct {
	kind   Kind
	blocks []*Block
}

// NewMonolithic wraps a single block.
func NewMonolithic(b *Block) *Basis {
	return &Basis{kind: Monolithic, blocks: []*Block{b}}
}

// NewDecomposed wraps per-domain blocks in flat domain order.
func NewDecomposed(blocks []*Block) *Basis {
	return &Basis{kind: Decomposed, blocks: blocks}
}

// Kind returns the variant of b.
func (b *Basis) Kind() Kind { return b.kind }

// Decomposed reports whether b holds one block per domain.
func (b *Basis) Decomposed() bool { return b.kind == Decomposed }

// Domains returns the number of blocks: 1 for monolithic bases.
func (b *Basis) Domains() int { return len(b.blocks) }

// Block returns block i.
func (b *Basis) Block(i int) *Block { return b.blocks[i] }

// Blocks returns all blocks in flat domain order.
func (b *Basis) Blocks() []*Block { return b.blocks }

// Truncate returns a basis whose blocks keep the mode counts resolved
// from spec.
func (b *Basis) Truncate(spec ModeSpec) (*Basis, error) {
	modes, err := spec.Resolve(len(b.blocks))
	if err != nil {
		return nil, err
	}
	out := &Basis{kind: b.kind, blocks: make([]*Block, len(b.blocks))}
	for i, blk := range b.blocks {
		if out.blocks[i], err = blk.Truncate(modes[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
