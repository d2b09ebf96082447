package mesh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/hupe1980/romgo/artifact"
	"github.com/hupe1980/romgo/domain"
	"github.com/hupe1980/romgo/internal/errs"
)

// Geometry is what a mesh directory says about the spatial layout of
// snapshot data: a global mesh, a decomposition, or both.
type Geometry struct {
	// Global is nil for decomposed directories without a root info.dat.
	Global *Mesh
	// Layout and Domains are nil for monolithic directories.
	Layout  *domain.Layout
	Domains []*Mesh
}

// Decomposed reports whether the geometry carries a domain layout.
func (g *Geometry) Decomposed() bool { return g.Layout != nil }

// GlobalShape returns the spatial extents of the full grid.
func (g *Geometry) GlobalShape() []int {
	if g.Layout != nil {
		return g.Layout.GlobalShape()
	}
	return slices.Clone(g.Global.Shape)
}

// Load reads info.dat and, if present, coordinates.dat from s.
func Load(ctx context.Context, s *artifact.Store) (*Mesh, error) {
	b, err := s.Get(ctx, InfoFile)
	if err != nil {
		return nil, err
	}
	m, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", s.Prefix(), InfoFile, err)
	}

	b, err = s.Get(ctx, CoordsFile)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return m, nil
	case err != nil:
		return nil, err
	}
	if m.Coords, err = ParseCoords(bytes.NewReader(b), m.Dim, m.Size()); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", s.Prefix(), CoordsFile, err)
	}
	return m, nil
}

// LoadGeometry reads a mesh directory. A directory with info_domain.dat is
// decomposed and must hold domain_0 ... domain_<n-1>; its root info.dat is
// optional. Otherwise the root info.dat is required.
func LoadGeometry(ctx context.Context, s *artifact.Store) (*Geometry, error) {
	g := &Geometry{}

	global, err := Load(ctx, s)
	switch {
	case err == nil:
		g.Global = global
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	b, err := s.Get(ctx, domain.InfoFile)
	if errors.Is(err, errs.ErrNotFound) {
		if g.Global == nil {
			return nil, errs.NotFound("no mesh in %s", s.Prefix())
		}
		return g, nil
	}
	if err != nil {
		return nil, err
	}
	info, err := domain.ParseInfo(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", s.Prefix(), domain.InfoFile, err)
	}

	g.Domains = make([]*Mesh, info.Count())
	shapes := make([][]int, info.Count())
	for k := range g.Domains {
		m, err := Load(ctx, s.Sub("domain_"+strconv.Itoa(k)))
		if err != nil {
			return nil, fmt.Errorf("domain %d: %w", k, err)
		}
		g.Domains[k] = m
		shapes[k] = m.Shape
	}
	if g.Layout, err = domain.NewLayout(info, shapes); err != nil {
		return nil, err
	}
	if err := checkAdjacent(info, g.Domains); err != nil {
		return nil, err
	}
	if g.Global != nil && !slices.Equal(g.Global.Shape, g.Layout.GlobalShape()) {
		return nil, errs.InvalidArgument("global mesh %v does not match the decomposition %v", g.Global.Shape, g.Layout.GlobalShape())
	}
	return g, nil
}

// upperFace is the neighbour table position of the next domain along each
// axis.
var upperFace = [3]int{domain.Right, domain.Front, domain.Top}

// checkAdjacent verifies that every domain starts where its lower
// neighbour ends minus the overlap. Axes without a spacing are skipped.
func checkAdjacent(info domain.Info, ms []*Mesh) error {
	faces := upperFace[:]
	if info.Dim == 1 {
		faces = []int{1}
	}
	for k, m := range ms {
		nb := info.Neighbors(k)
		for d := 0; d < min(info.Dim, m.Dim); d++ {
			n := nb[faces[d]]
			if n < 0 || m.Spacing[d] == 0 || d >= ms[n].Dim {
				continue
			}
			want := m.Min[d] + float64(m.Shape[d]-info.Overlap)*m.Spacing[d]
			if got := ms[n].Min[d]; math.Abs(got-want) > 1e-9*max(1, math.Abs(want)) {
				return errs.InvalidArgument("domain %d starts at %s=%g, want %g after domain %d with overlap %d",
					n, axes[d], got, want, k, info.Overlap)
			}
		}
	}
	return nil
}

// Write stores g as a mesh directory.
func Write(ctx context.Context, s *artifact.Store, g *Geometry) error {
	if g.Global != nil {
		if err := s.WriteText(ctx, InfoFile, g.Global); err != nil {
			return err
		}
	}
	if g.Layout == nil {
		return nil
	}
	if err := s.WriteText(ctx, domain.InfoFile, g.Layout.Info); err != nil {
		return err
	}
	for k, m := range g.Domains {
		if err := s.Sub("domain_"+strconv.Itoa(k)).WriteText(ctx, InfoFile, m); err != nil {
			return err
		}
	}
	return nil
}

// Decompose returns a geometry that splits the global mesh of g evenly
// according to info.
func Decompose(global *Mesh, info domain.Info) (*Geometry, error) {
	l, err := domain.Split(info, global.Shape)
	if err != nil {
		return nil, err
	}
	g := &Geometry{Global: global, Layout: l, Domains: make([]*Mesh, l.Count())}
	for k := range g.Domains {
		m := &Mesh{
			Dim:     global.Dim,
			Shape:   slices.Clone(l.Shapes[k]),
			Spacing: slices.Clone(global.Spacing),
			Min:     make([]float64, global.Dim),
			Max:     make([]float64, global.Dim),
		}
		for d := 0; d < global.Dim; d++ {
			m.Min[d] = global.Min[d] + float64(l.Offsets[k][d])*global.Spacing[d]
			m.Max[d] = m.Min[d] + float64(m.Shape[d])*global.Spacing[d]
		}
		g.Domains[k] = m
	}
	return g, nil
}
