// Package mmap maps artifact files read-only into memory.
//
// Basis and snapshot files are read once, front to back, and decoded into
// float64 slices. Mapping them avoids an intermediate copy through a read
// buffer and lets the local blob store hand out io.ReaderAt views.
//
//	m, err := mmap.Open("basis_0.bin")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	header := m.Bytes()[:16]
//
// Unix uses mmap(2)/madvise(2); Windows uses CreateFileMapping and
// MapViewOfFile, where Advise is a no-op.
package mmap
