package artifact

import "strconv"

// Kind names one family of persisted artifacts.
type Kind string

const (
	// Basis is the (dof × modes) basis matrix.
	Basis Kind = "basis"
	// Center is the centering vector.
	Center Kind = "center"
	// Norm is the normalization vector.
	Norm Kind = "norm"
	// Singular holds the singular values as a .npy array.
	Singular Kind = "svals"
	// Power is the energy threshold report.
	Power Kind = "pod_power"
)

// Monolithic is the block index of artifacts written without a domain suffix.
const Monolithic = -1

// ManifestName is the name of the basis manifest.
const ManifestName = "manifest.json"

func (k Kind) ext() string {
	switch k {
	case Singular:
		return ".npy"
	case Power:
		return ".dat"
	default:
		return ".bin"
	}
}

// Name returns the file name of artifact k for block idx, e.g. "basis.bin"
// for Monolithic and "basis_3.bin" for idx 3.
func Name(k Kind, idx int) string {
	return DataName(string(k), idx, k.ext())
}

// DataName returns root+ext for Monolithic and root_idx+ext otherwise.
func DataName(root string, idx int, ext string) string {
	if idx == Monolithic {
		return root + ext
	}
	return root + "_" + strconv.Itoa(idx) + ext
}
