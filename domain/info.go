// Package domain describes structured domain decompositions: how many
// subdomains lie along each axis, how much neighbouring subdomains overlap,
// and how snapshot tensors are split into and reassembled from per-domain
// blocks.
//
// Domains are numbered in flat order idx = i + j*NX + k*NX*NY.
package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/romgo/internal/errs"
)

// InfoFile is the name of the decomposition descriptor inside a mesh directory.
const InfoFile = "info_domain.dat"

// Info is the content of an info_domain.dat file.
type Info struct {
	Dim     int
	NX      int
	NY      int
	NZ      int
	Overlap int
}

// Face positions in the neighbour table returned by Neighbors. In one
// dimension only Left and Right exist and Right takes position 1.
const (
	Left   = 0
	Front  = 1
	Right  = 2
	Back   = 3
	Bottom = 4
	Top    = 5
)

// ParseInfo reads an info_domain.dat stream of "key value" lines. Unknown
// keys are ignored and domain counts default to 1.
func ParseInfo(r io.Reader) (Info, error) {
	info := Info{Dim: 1, NX: 1, NY: 1, NZ: 1}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		var dst *int
		switch fields[0] {
		case "dim":
			dst = &info.Dim
		case "ndomX":
			dst = &info.NX
		case "ndomY":
			dst = &info.NY
		case "ndomZ":
			dst = &info.NZ
		case "overlap":
			dst = &info.Overlap
		default:
			continue
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return Info{}, errs.InvalidArgument("%s: bad value %q", fields[0], fields[1])
		}
		*dst = v
	}
	if err := sc.Err(); err != nil {
		return Info{}, err
	}
	return info, info.Validate()
}

// Validate checks the ranges of all fields.
func (i Info) Validate() error {
	switch {
	case i.Dim < 1 || i.Dim > 3:
		return errs.InvalidArgument("dim must be in [1, 3], got %d", i.Dim)
	case i.NX < 1:
		return errs.InvalidArgument("ndomX must be >= 1, got %d", i.NX)
	case i.NY < 1:
		return errs.InvalidArgument("ndomY must be >= 1, got %d", i.NY)
	case i.NZ < 1:
		return errs.InvalidArgument("ndomZ must be >= 1, got %d", i.NZ)
	case i.Overlap < 0:
		return errs.InvalidArgument("overlap must be >= 0, got %d", i.Overlap)
	}
	return nil
}

// WriteTo writes i in info_domain.dat format.
func (i Info) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "dim %d\nndomX %d\nndomY %d\nndomZ %d\noverlap %d\n",
		i.Dim, i.NX, i.NY, i.NZ, i.Overlap)
	return int64(n), err
}

// Count returns the total number of domains.
func (i Info) Count() int { return i.NX * i.NY * i.NZ }

// Counts returns the domain counts along the first n axes.
func (i Info) Counts(n int) []int {
	return []int{i.NX, i.NY, i.NZ}[:n]
}

// Index returns the flat index of domain (x, y, z).
func (i Info) Index(x, y, z int) int {
	return x + y*i.NX + z*i.NX*i.NY
}

// Coords returns the (x, y, z) position of domain idx.
func (i Info) Coords(idx int) (x, y, z int) {
	x = idx % i.NX
	y = (idx / i.NX) % i.NY
	z = idx / (i.NX * i.NY)
	return x, y, z
}

// Neighbors returns the 2*Dim neighbouring domain indices of idx, -1 where
// idx touches the outer boundary. See the face constants for the ordering.
func (i Info) Neighbors(idx int) []int {
	out := make([]int, 2*i.Dim)
	for n := range out {
		out[n] = -1
	}
	x, y, z := i.Coords(idx)

	if x != 0 {
		out[Left] = idx - 1
	}
	if x != i.NX-1 {
		if i.Dim == 1 {
			out[1] = idx + 1
		} else {
			out[Right] = idx + 1
		}
	}
	if i.Dim > 1 {
		if y != i.NY-1 {
			out[Front] = idx + i.NX
		}
		if y != 0 {
			out[Back] = idx - i.NX
		}
	}
	if i.Dim > 2 {
		if z != 0 {
			out[Bottom] = idx - i.NX*i.NY
		}
		if z != i.NZ-1 {
			out[Top] = idx + i.NX*i.NY
		}
	}
	return out
}
