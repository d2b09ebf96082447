// Package artifact reads and writes the files that make up a POD basis and
// the raw data exchanged with full- and reduced-order solvers.
//
// A basis directory holds, per block, basis[_k].bin, center[_k].bin,
// norm[_k].bin, svals[_k].npy and pod_power[_k].dat, plus a manifest.json.
// The unsuffixed names are used for monolithic bases.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/romgo/blobstore"
	"github.com/hupe1980/romgo/internal/errs"
)

// Store reads and writes artifacts below a prefix of a blob store.
// It is safe for concurrent use if the underlying blob store is.
type Store struct {
	blobs       blobstore.BlobStore
	prefix      string
	compression Compression
}

// Option configures a Store.
type Option func(*Store)

// WithCompression compresses artifacts written through the store. Reads
// always accept every compression.
func WithCompression(c Compression) Option {
	return func(s *Store) { s.compression = c }
}

// NewStore creates a Store for the directory prefix of blobs.
func NewStore(blobs blobstore.BlobStore, prefix string, opts ...Option) *Store {
	s := &Store{blobs: blobs, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the directory the store reads from and writes to.
func (s *Store) Prefix() string { return s.prefix }

// Compression returns the compression used for writes.
func (s *Store) Compression() Compression { return s.compression }

// Sub returns a store for a subdirectory sharing blobs and options.
func (s *Store) Sub(dir string) *Store {
	return &Store{blobs: s.blobs, prefix: path.Join(s.prefix, dir), compression: s.compression}
}

func (s *Store) path(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put writes raw bytes, compressed if the store is configured to.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	packed, err := compress(data, s.compression)
	if err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}
	return s.blobs.Put(ctx, s.path(name)+s.compression.Ext(), packed)
}

var readOrder = []Compression{CompressionNone, CompressionZSTD, CompressionLZ4}

// Get reads raw bytes, falling back to compressed variants of name.
// A missing artifact yields an error wrapping errs.ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	for _, c := range readOrder {
		b, err := blobstore.ReadAll(ctx, s.blobs, s.path(name)+c.Ext())
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out, err := decompress(b, c)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", name, err)
		}
		return out, nil
	}
	return nil, errs.NotFound("artifact %s", s.path(name))
}

// Exists reports whether name exists in any compression.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	for _, c := range readOrder {
		ok, err := blobstore.Exists(ctx, s.blobs, s.path(name)+c.Ext())
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// Count returns how many consecutive indices 0, 1, ... of root+"_k"+ext
// exist.
func (s *Store) Count(ctx context.Context, root, ext string) (int, error) {
	n := 0
	for {
		ok, err := s.Exists(ctx, DataName(root, n, ext))
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// WriteMatrix stores m in the matrix container.
func (s *Store) WriteMatrix(ctx context.Context, name string, m mat.Matrix, reverse bool) error {
	return s.Put(ctx, name, EncodeMatrix(m, reverse))
}

// ReadMatrix loads a matrix container.
func (s *Store) ReadMatrix(ctx context.Context, name string) (*mat.Dense, error) {
	b, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	m, err := DecodeMatrix(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// WriteVector stores v as an n×1 matrix container.
func (s *Store) WriteVector(ctx context.Context, name string, v []float64) error {
	return s.Put(ctx, name, EncodeVector(v))
}

// ReadVector loads a vector from a matrix container.
func (s *Store) ReadVector(ctx context.Context, name string) ([]float64, error) {
	b, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	v, err := DecodeVector(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// WriteFloats stores headerless float64 values.
func (s *Store) WriteFloats(ctx context.Context, name string, v []float64) error {
	return s.Put(ctx, name, EncodeFloats(v))
}

// ReadFloats loads headerless float64 values.
func (s *Store) ReadFloats(ctx context.Context, name string) ([]float64, error) {
	b, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	v, err := DecodeFloats(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// WriteNPY stores v as a NumPy array.
func (s *Store) WriteNPY(ctx context.Context, name string, v []float64) error {
	b, err := EncodeNPY(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.Put(ctx, name, b)
}

// ReadNPY loads a NumPy float64 array.
func (s *Store) ReadNPY(ctx context.Context, name string) ([]float64, error) {
	b, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	v, err := DecodeNPY(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, nil
}

// WriteText stores the output of w.
func (s *Store) WriteText(ctx context.Context, name string, w io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return err
	}
	return s.Put(ctx, name, buf.Bytes())
}
