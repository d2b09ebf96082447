package romgo

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/internal/errs"
	"github.com/hupe1980/romgo/scaling"
	"github.com/hupe1980/romgo/tensor"
)

// BuildRequest describes a basis build. Directories are relative to the
// blob store of the ROM handle.
type BuildRequest struct {
	MeshDir  string   `yaml:"mesh_dir"`
	DataDirs []string `yaml:"data_dirs"`
	// DataRoot is the snapshot file root, e.g. "state_snapshots".
	DataRoot string `yaml:"data_root"`
	NVars    int    `yaml:"nvars"`
	BasisDir string `yaml:"basis_dir"`

	Start  int  `yaml:"start"`
	Stop   int  `yaml:"stop"`
	Step   int  `yaml:"step"`
	Concat bool `yaml:"concat"`
	// Decompose builds one basis per domain of the mesh. Monolithic input
	// is split with the mesh's domain layout.
	Decompose bool `yaml:"decompose"`

	CenterMethod scaling.CenterMethod `yaml:"center_method"`
	NormMethod   scaling.NormMethod   `yaml:"norm_method"`
	Modes        basis.ModeSpec       `yaml:"modes"`
}

// Range returns the time selection of the request.
func (r *BuildRequest) Range() tensor.Range {
	return tensor.Range{Start: r.Start, Stop: r.Stop, Step: r.Step}
}

// ReconstructRequest describes a reconstruction from reduced coefficients.
type ReconstructRequest struct {
	MeshDir  string `yaml:"mesh_dir"`
	DataDir  string `yaml:"data_dir"`
	Root     string `yaml:"root"`
	BasisDir string `yaml:"basis_dir"`
	NVars    int    `yaml:"nvars"`

	Modes basis.ModeSpec `yaml:"modes"`
	Merge bool           `yaml:"merge"`

	// OutDir and OutRoot, when set, receive the reconstructed snapshots as
	// raw data files.
	OutDir  string `yaml:"out_dir"`
	OutRoot string `yaml:"out_root"`
}

// ProjectRequest describes a projection round trip.
type ProjectRequest struct {
	MeshDir  string   `yaml:"mesh_dir"`
	DataDirs []string `yaml:"data_dirs"`
	DataRoot string   `yaml:"data_root"`
	BasisDir string   `yaml:"basis_dir"`
	NVars    int      `yaml:"nvars"`

	Modes basis.ModeSpec `yaml:"modes"`
	Merge bool           `yaml:"merge"`

	// OutDir, when set, receives per dataset i the reduced coefficients
	// under <out_dir>/<i>/coeffs and the projected snapshots under
	// <out_dir>/<i>/<data_root>.
	OutDir string `yaml:"out_dir"`
}

// StorageConfig selects the blob store backend of a job.
type StorageConfig struct {
	// Backend is "local", "minio" or "s3".
	Backend string `yaml:"backend"`
	// Root is the directory of the local backend.
	Root     string `yaml:"root"`
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Secure   bool   `yaml:"secure"`
	// AccessKey and SecretKey are used by the minio backend. The s3
	// backend takes credentials from the default AWS chain.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// JobConfig is the YAML job file read by the romgo command.
type JobConfig struct {
	Storage     StorageConfig `yaml:"storage"`
	LogLevel    string        `yaml:"log_level"`
	Concurrency int           `yaml:"concurrency"`
	Compression string        `yaml:"compression"`

	Build       *BuildRequest       `yaml:"build"`
	Reconstruct *ReconstructRequest `yaml:"reconstruct"`
	Project     *ProjectRequest     `yaml:"project"`
}

// ParseJobConfig decodes a job file. Unknown keys are rejected.
func ParseJobConfig(r io.Reader) (*JobConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	cfg := &JobConfig{Storage: StorageConfig{Backend: "local", Root: "."}}
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errs.InvalidArgument("job config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadJobConfig reads a job file from disk.
func LoadJobConfig(path string) (*JobConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseJobConfig(f)
}

// Validate checks the backend selection and the enabled requests.
func (c *JobConfig) Validate() error {
	switch c.Storage.Backend {
	case "local":
	case "minio", "s3":
		if c.Storage.Bucket == "" {
			return errs.InvalidArgument("storage backend %s needs a bucket", c.Storage.Backend)
		}
	default:
		return errs.InvalidArgument("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Concurrency < 0 {
		return errs.InvalidArgument("negative concurrency %d", c.Concurrency)
	}
	if c.Build == nil && c.Reconstruct == nil && c.Project == nil {
		return errs.InvalidArgument("job config enables no build, reconstruct or project step")
	}
	return nil
}
