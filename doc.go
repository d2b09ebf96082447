// Package romgo builds and applies Proper Orthogonal Decomposition (POD)
// reduced-order bases for spatiotemporal snapshot data, on a single grid
// or per subdomain of a decomposed grid.
//
// # Quick Start
//
// Build a basis from snapshots written by a full-order solver:
//
//	ctx := context.Background()
//	rom := romgo.Local("./run", romgo.WithLogLevel(slog.LevelInfo))
//	b, err := rom.BuildBases(ctx, romgo.BuildRequest{
//	    MeshDir:      "mesh",
//	    DataDirs:     []string{"fom"},
//	    DataRoot:     "state_snapshots",
//	    NVars:        4,
//	    BasisDir:     "trial",
//	    CenterMethod: scaling.CenterInitCond,
//	    NormMethod:   scaling.NormOne,
//	    Modes:        basis.Modes(20),
//	})
//
// Expand coefficients produced by a reduced-order solver:
//
//	res, err := rom.Reconstruct(ctx, romgo.ReconstructRequest{
//	    MeshDir:  "mesh",
//	    DataDir:  "rom",
//	    Root:     "state_snapshots",
//	    BasisDir: "trial",
//	    NVars:    4,
//	    Modes:    basis.Modes(20),
//	})
//
// Check how well a basis represents data with a projection round trip:
//
//	out, err := rom.Project(ctx, romgo.ProjectRequest{
//	    MeshDir:  "mesh",
//	    DataDirs: []string{"fom"},
//	    DataRoot: "state_snapshots",
//	    BasisDir: "trial",
//	    NVars:    4,
//	    Modes:    basis.Modes(20),
//	})
//
// # Storage
//
// A ROM handle works on any blobstore.BlobStore: a local directory, memory,
// MinIO (blobstore/minio) or S3 (blobstore/s3). Artifacts can be stored
// compressed with WithCompression; reads accept every compression.
//
// # Decomposition
//
// Decomposed meshes carry an info_domain.dat with the domain counts per
// axis and the overlap. Domains are numbered i + j*ndomX + k*ndomX*ndomY
// everywhere: in basis file suffixes, data file suffixes and block slices.
package romgo
