package artifact

import (
	"bytes"

	"github.com/sbinet/npyio"
)

// EncodeNPY writes v as a one-dimensional float64 NumPy array.
func EncodeNPY(v []float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := npyio.Write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeNPY reads a float64 NumPy array of any shape in storage order.
func DecodeNPY(b []byte) ([]float64, error) {
	var v []float64
	if err := npyio.Read(bytes.NewReader(b), &v); err != nil {
		return nil, err
	}
	return v, nil
}
