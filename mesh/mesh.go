// Package mesh reads structured mesh directories in the pressio-demoapps
// layout: info.dat with the grid description, an optional coordinates.dat
// with one "gid x [y [z]]" line per cell, and for decomposed meshes an
// info_domain.dat next to one domain_<k>/ directory per subdomain.
package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/romgo/internal/errs"
)

const (
	// InfoFile describes the grid.
	InfoFile = "info.dat"
	// CoordsFile lists cell-center coordinates.
	CoordsFile = "coordinates.dat"
)

// Mesh is a structured grid.
type Mesh struct {
	Dim     int
	Shape   []int
	Spacing []float64
	Min     []float64
	Max     []float64
	// Coords holds one Dim-length coordinate per cell in column-major cell
	// order. It is nil when the mesh directory has no coordinates file.
	Coords [][]float64
}

var axes = [3]string{"x", "y", "z"}

// Parse reads an info.dat stream.
func Parse(r io.Reader) (*Mesh, error) {
	ints := map[string]int{}
	floats := map[string]float64{}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		key, val := fields[0], fields[1]
		switch key {
		case "dim", "nx", "ny", "nz":
			v, err := strconv.Atoi(val)
			if err != nil {
				return nil, errs.InvalidArgument("%s: bad value %q", key, val)
			}
			ints[key] = v
		default:
			if v, err := strconv.ParseFloat(val, 64); err == nil {
				floats[key] = v
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	dim, ok := ints["dim"]
	if !ok {
		return nil, errs.InvalidArgument("mesh info has no dim entry")
	}
	if dim < 1 || dim > 3 {
		return nil, errs.InvalidArgument("mesh dim must be in [1, 3], got %d", dim)
	}
	m := &Mesh{
		Dim:     dim,
		Shape:   make([]int, dim),
		Spacing: make([]float64, dim),
		Min:     make([]float64, dim),
		Max:     make([]float64, dim),
	}
	for d := 0; d < dim; d++ {
		a := axes[d]
		n, ok := ints["n"+a]
		if !ok || n < 1 {
			return nil, errs.InvalidArgument("mesh info needs a positive n%s", a)
		}
		m.Shape[d] = n
		m.Spacing[d] = floats["d"+a]
		m.Min[d] = floats[a+"Min"]
		m.Max[d] = floats[a+"Max"]
	}
	return m, nil
}

// ParseCoords reads a coordinates.dat stream for a mesh of dim dimensions
// and n cells.
func ParseCoords(r io.Reader, dim, n int) ([][]float64, error) {
	coords := make([][]float64, n)
	seen := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < dim+1 {
			return nil, errs.InvalidArgument("coordinate line %q has fewer than %d values", sc.Text(), dim+1)
		}
		gid, err := strconv.Atoi(fields[0])
		if err != nil || gid < 0 || gid >= n {
			return nil, errs.InvalidArgument("bad cell id %q for %d cells", fields[0], n)
		}
		c := make([]float64, dim)
		for d := range c {
			if c[d], err = strconv.ParseFloat(fields[d+1], 64); err != nil {
				return nil, errs.InvalidArgument("bad coordinate %q", fields[d+1])
			}
		}
		if coords[gid] == nil {
			seen++
		}
		coords[gid] = c
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if seen != n {
		return nil, errs.Mismatch("coordinate count", n, seen)
	}
	return coords, nil
}

// Size returns the number of cells.
func (m *Mesh) Size() int {
	n := 1
	for _, s := range m.Shape {
		n *= s
	}
	return n
}

// WriteTo writes m in info.dat format.
func (m *Mesh) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "dim %d\n", m.Dim)
	for d := 0; d < m.Dim; d++ {
		a := axes[d]
		fmt.Fprintf(&sb, "%sMin %g\n%sMax %g\n", a, m.Min[d], a, m.Max[d])
		fmt.Fprintf(&sb, "d%s %g\n", a, m.Spacing[d])
		fmt.Fprintf(&sb, "n%s %d\n", a, m.Shape[d])
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// Uniform returns a mesh of the given shape on [0, 1]^dim.
func Uniform(shape ...int) *Mesh {
	dim := len(shape)
	m := &Mesh{
		Dim:     dim,
		Shape:   append([]int(nil), shape...),
		Spacing: make([]float64, dim),
		Min:     make([]float64, dim),
		Max:     make([]float64, dim),
	}
	for d, n := range shape {
		m.Max[d] = 1
		m.Spacing[d] = 1 / float64(n)
	}
	return m
}
