package domain

import (
	"slices"

	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/tensor"
)

// Layout places every domain's spatial block inside the global grid.
type Layout struct {
	Info    Info
	Shapes  [][]int
	Offsets [][]int
	global  []int
}

// NewLayout builds a layout from per-domain spatial shapes given in flat
// domain order. All shapes must share a rank, and domains in the same slab
// must share their extent along that axis. Along each axis the offset of a
// domain is the running sum of (extent - overlap) of its predecessors.
func NewLayout(info Info, shapes [][]int) (*Layout, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if len(shapes) != info.Count() {
		return nil, errs.Mismatch("domain shape count", info.Count(), len(shapes))
	}
	rank := len(shapes[0])
	if rank < 1 || rank > 3 {
		return nil, errs.InvalidArgument("domain shapes must have 1 to 3 axes, got %d", rank)
	}
	counts := info.Counts(3)
	for d := rank; d < 3; d++ {
		if counts[d] != 1 {
			return nil, errs.InvalidArgument("%d domains along axis %d of a %d-dimensional grid", counts[d], d, rank)
		}
	}

	// extents[d][c] is the extent along d of every domain at coordinate c
	extents := make([][]int, rank)
	for d := range extents {
		extents[d] = make([]int, counts[d])
	}
	for idx, s := range shapes {
		if len(s) != rank {
			return nil, errs.Mismatch("domain shape rank", rank, len(s))
		}
		pos := coords(info, idx)
		for d := 0; d < rank; d++ {
			if s[d] <= info.Overlap {
				return nil, errs.InvalidArgument("domain %d extent %d along axis %d does not exceed the overlap %d", idx, s[d], d, info.Overlap)
			}
			switch e := extents[d][pos[d]]; {
			case e == 0:
				extents[d][pos[d]] = s[d]
			case e != s[d]:
				return nil, errs.InvalidArgument("domain %d extent %d along axis %d differs from its slab (%d)", idx, s[d], d, e)
			}
		}
	}

	starts := make([][]int, rank)
	global := make([]int, rank)
	for d := range extents {
		starts[d] = make([]int, len(extents[d]))
		off := 0
		for c, e := range extents[d] {
			starts[d][c] = off
			off += e - info.Overlap
		}
		global[d] = off + info.Overlap
	}

	l := &Layout{
		Info:    info,
		Shapes:  make([][]int, len(shapes)),
		Offsets: make([][]int, len(shapes)),
		global:  global,
	}
	for idx, s := range shapes {
		pos := coords(info, idx)
		l.Shapes[idx] = slices.Clone(s)
		l.Offsets[idx] = make([]int, rank)
		for d := 0; d < rank; d++ {
			l.Offsets[idx][d] = starts[d][pos[d]]
		}
	}
	return l, nil
}

// Split partitions a global grid as evenly as possible. Domains that are not
// last along an axis are widened by the overlap.
func Split(info Info, global []int) (*Layout, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	rank := len(global)
	if rank < 1 || rank > 3 {
		return nil, errs.InvalidArgument("global grid must have 1 to 3 axes, got %d", rank)
	}
	counts := info.Counts(3)
	parts := make([][]int, rank)
	for d := range parts {
		n := counts[d]
		if global[d] < n {
			return nil, errs.InvalidArgument("cannot split %d cells into %d domains", global[d], n)
		}
		parts[d] = make([]int, n)
		for c := range parts[d] {
			parts[d][c] = global[d] / n
			if c < global[d]%n {
				parts[d][c]++
			}
			if c < n-1 {
				parts[d][c] += info.Overlap
			}
		}
	}
	shapes := make([][]int, info.Count())
	for idx := range shapes {
		pos := coords(info, idx)
		shapes[idx] = make([]int, rank)
		for d := range shapes[idx] {
			shapes[idx][d] = parts[d][pos[d]]
		}
	}
	return NewLayout(info, shapes)
}

func coords(info Info, idx int) [3]int {
	x, y, z := info.Coords(idx)
	return [3]int{x, y, z}
}

// Count returns the number of domains.
func (l *Layout) Count() int { return len(l.Shapes) }

// GlobalShape returns the spatial extents of the merged grid.
func (l *Layout) GlobalShape() []int { return slices.Clone(l.global) }

// Decompose copies each domain's block out of a global tensor.
func (l *Layout) Decompose(t *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !slices.Equal(t.Spatial(), l.global) {
		return nil, errs.InvalidArgument("tensor spatial shape %v does not match the layout %v", t.Spatial(), l.global)
	}
	blocks := make([]*tensor.Tensor, l.Count())
	for idx := range blocks {
		b, err := t.Block(l.Offsets[idx], l.Shapes[idx])
		if err != nil {
			return nil, err
		}
		blocks[idx] = b
	}
	return blocks, nil
}

// Merge reassembles per-domain blocks into a global tensor. Cells shared by
// overlapping domains take the value of the later domain in flat order.
func (l *Layout) Merge(blocks []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(blocks) != l.Count() {
		return nil, errs.Mismatch("block count", l.Count(), len(blocks))
	}
	for idx, b := range blocks {
		if !slices.Equal(b.Spatial(), l.Shapes[idx]) {
			return nil, errs.InvalidArgument("block %d has spatial shape %v, want %v", idx, b.Spatial(), l.Shapes[idx])
		}
	}
	out, err := tensor.New(l.global, blocks[0].Times(), blocks[0].Vars())
	if err != nil {
		return nil, err
	}
	for idx, b := range blocks {
		if err := out.SetBlock(l.Offsets[idx], b); err != nil {
			return nil, err
		}
	}
	return out, nil
}
