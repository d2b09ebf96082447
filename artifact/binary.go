package artifact

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/internal/errs"
)

const matrixHeaderSize = 16

// EncodeMatrix serializes m as [rows uint64][cols uint64] followed by the
// values in column-major order, all little endian.
//
// With reverse set the header dimensions are swapped and the values are
// written row-major, so encoding Uᵀ with reverse yields the same bytes as
// encoding U without it.
func EncodeMatrix(m mat.Matrix, reverse bool) []byte {
	r, c := m.Dims()
	out := make([]byte, matrixHeaderSize+8*r*c)
	if reverse {
		binary.LittleEndian.PutUint64(out[0:], uint64(c))
		binary.LittleEndian.PutUint64(out[8:], uint64(r))
	} else {
		binary.LittleEndian.PutUint64(out[0:], uint64(r))
		binary.LittleEndian.PutUint64(out[8:], uint64(c))
	}
	off := matrixHeaderSize
	put := func(v float64) {
		binary.LittleEndian.PutUint64(out[off:], math.Float64bits(v))
		off += 8
	}
	if reverse {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				put(m.At(i, j))
			}
		}
	} else {
		for j := 0; j < c; j++ {
			for i := 0; i < r; i++ {
				put(m.At(i, j))
			}
		}
	}
	return out
}

// DecodeMatrix parses the container written by EncodeMatrix.
func DecodeMatrix(b []byte) (*mat.Dense, error) {
	if len(b) < matrixHeaderSize {
		return nil, errs.InvalidArgument("matrix container of %d bytes has no header", len(b))
	}
	r := binary.LittleEndian.Uint64(b[0:])
	c := binary.LittleEndian.Uint64(b[8:])
	body := b[matrixHeaderSize:]
	n := uint64(len(body) / 8)
	// c <= n/r keeps r*c from wrapping
	if len(body)%8 != 0 || r == 0 || c == 0 || c > n/r || r*c != n {
		return nil, errs.InvalidArgument("matrix container header %d×%d does not match %d payload bytes", r, c, len(body))
	}
	rows, cols := int(r), int(c)
	m := mat.NewDense(rows, cols, nil)
	raw := m.RawMatrix()
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			raw.Data[i*raw.Stride+j] = math.Float64frombits(binary.LittleEndian.Uint64(body[8*(j*rows+i):]))
		}
	}
	return m, nil
}

// EncodeVector writes v as an n×1 matrix container.
func EncodeVector(v []float64) []byte {
	return EncodeMatrix(mat.NewDense(len(v), 1, v), false)
}

// DecodeVector parses an n×1 or 1×n matrix container.
func DecodeVector(b []byte) ([]float64, error) {
	m, err := DecodeMatrix(b)
	if err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if r != 1 && c != 1 {
		return nil, errs.InvalidArgument("expected a vector, got a %d×%d matrix", r, c)
	}
	return m.RawMatrix().Data, nil
}

// EncodeFloats writes v as headerless little-endian float64 values.
func EncodeFloats(v []float64) []byte {
	out := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(x))
	}
	return out
}

// DecodeFloats parses headerless little-endian float64 values.
func DecodeFloats(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, errs.InvalidArgument("%d bytes are not a whole number of float64 values", len(b))
	}
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out, nil
}
