package tensor

import (
	"slices"

	"github.com/hupe1980/romgo/internal/errs"
)

// Range selects time samples start, start+step, ... below stop.
// Negative Start and Stop count back from the last sample, so Stop -1
// drops the final sample. Stop 0 selects through the last sample and a
// Step <= 0 means 1.
type Range struct {
	Start int `yaml:"start"`
	Stop  int `yaml:"stop"`
	Step  int `yaml:"step"`
}

// All selects every time sample.
var All = Range{}

func (r Range) resolve(n int) (start, stop, step int, err error) {
	start, stop, step = r.Start, r.Stop, r.Step
	if step <= 0 {
		step = 1
	}
	switch {
	case stop == 0 || stop > n:
		stop = n
	case stop < 0:
		stop = max(n+stop, 0)
	}
	if start < 0 {
		start = max(n+start, 0)
	}
	if start > n {
		return 0, 0, 0, errs.InvalidArgument("time start %d outside [0, %d]", start, n)
	}
	return start, stop, step, nil
}

// SliceTime returns a copy holding the selected time samples.
func (t *Tensor) SliceTime(r Range) (*Tensor, error) {
	start, stop, step, err := r.resolve(t.times)
	if err != nil {
		return nil, err
	}
	out := &Tensor{spatial: slices.Clone(t.spatial), vars: t.vars}
	for ti := start; ti < stop; ti += step {
		out.data = append(out.data, t.State(ti)...)
		out.times++
	}
	return out, nil
}

// Concat joins tensors along the time axis. All inputs must share spatial
// extents and variable count.
func Concat(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, errs.InvalidArgument("nothing to concatenate")
	}
	first := ts[0]
	out := &Tensor{spatial: slices.Clone(first.spatial), vars: first.vars}
	for i, t := range ts {
		if !slices.Equal(t.spatial, first.spatial) || t.vars != first.vars {
			return nil, errs.InvalidArgument("tensor %d has shape %v, want spatial %v with %d vars", i, t.Shape(), first.spatial, first.vars)
		}
		out.data = append(out.data, t.data...)
		out.times += t.times
	}
	return out, nil
}

// Block copies the spatial box [offset, offset+shape) over all times and variables.
func (t *Tensor) Block(offset, shape []int) (*Tensor, error) {
	if err := t.checkBox(offset, shape); err != nil {
		return nil, err
	}
	out, err := New(shape, t.times, t.vars)
	if err != nil {
		return nil, err
	}
	t.copyBox(out, offset, false)
	return out, nil
}

// SetBlock writes b into the spatial box starting at offset.
func (t *Tensor) SetBlock(offset []int, b *Tensor) error {
	if b.times != t.times || b.vars != t.vars {
		return errs.InvalidArgument("block has %d times/%d vars, want %d/%d", b.times, b.vars, t.times, t.vars)
	}
	if err := t.checkBox(offset, b.spatial); err != nil {
		return err
	}
	t.copyBox(b, offset, true)
	return nil
}

func (t *Tensor) checkBox(offset, shape []int) error {
	if len(offset) != len(t.spatial) || len(shape) != len(t.spatial) {
		return errs.Mismatch("block rank", len(t.spatial), len(shape))
	}
	for d := range t.spatial {
		if offset[d] < 0 || shape[d] <= 0 || offset[d]+shape[d] > t.spatial[d] {
			return errs.InvalidArgument("block offset %v shape %v exceeds extents %v", offset, shape, t.spatial)
		}
	}
	return nil
}

// copyBox moves data between t and the block b located at offset. When
// into is true b is written into t, otherwise t is read into b.
func (t *Tensor) copyBox(b *Tensor, offset []int, into bool) {
	nb := b.SpatialSize()
	nt := t.SpatialSize()
	idx := make([]int, len(b.spatial))
	global := make([]int, len(b.spatial))
	for s := 0; s < nb; s++ {
		for d := range idx {
			global[d] = offset[d] + idx[d]
		}
		gs := t.Point(global...)
		for ti := 0; ti < t.times; ti++ {
			src := t.data[t.vars*(gs+nt*ti) : t.vars*(gs+nt*ti+1)]
			dst := b.data[b.vars*(s+nb*ti) : b.vars*(s+nb*ti+1)]
			if into {
				copy(src, dst)
			} else {
				copy(dst, src)
			}
		}
		// advance the column-major multi-index
		for d := range idx {
			idx[d]++
			if idx[d] < b.spatial[d] {
				break
			}
			idx[d] = 0
		}
	}
}
