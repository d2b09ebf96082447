package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/romgo/codec"
)

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

// Manifest describes a basis directory. It is informational; bases written
// without one still load.
type Manifest struct {
	Version      int       `json:"version"`
	Codec        string    `json:"codec"`
	Decomposed   bool      `json:"decomposed"`
	Domains      int       `json:"domains"`
	NVars        int       `json:"nvars"`
	Modes        []int     `json:"modes"`
	CenterMethod string    `json:"center_method,omitempty"`
	NormMethod   string    `json:"norm_method,omitempty"`
	Shapes       [][]int   `json:"shapes"`
	Compression  string    `json:"compression"`
	CreatedAt    time.Time `json:"created_at"`
}

// WriteManifest stores m uncompressed with codec.Default.
func (s *Store) WriteManifest(ctx context.Context, m *Manifest) error {
	m.Version = ManifestVersion
	m.Codec = codec.Default.Name()
	m.Compression = s.compression.String()
	b, err := codec.Default.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return s.blobs.Put(ctx, s.path(ManifestName), b)
}

// ReadManifest loads the manifest. The codec is taken from the stored
// "codec" field.
func (s *Store) ReadManifest(ctx context.Context) (*Manifest, error) {
	b, err := s.Get(ctx, ManifestName)
	if err != nil {
		return nil, err
	}
	var probe struct {
		Codec string `json:"codec"`
	}
	if err := codec.Default.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	c, err := codec.ByName(probe.Codec)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := c.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Version > ManifestVersion {
		return nil, fmt.Errorf("manifest version %d is newer than supported version %d", m.Version, ManifestVersion)
	}
	return &m, nil
}
