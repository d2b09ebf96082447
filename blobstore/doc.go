// Package blobstore provides the storage abstraction for romgo artifacts:
// bases, scaling vectors, singular values, energy reports and raw snapshot
// files.
//
// BlobStore implementations must be safe for concurrent use, since
// per-domain workers read and write in parallel.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through mmap
//   - MemoryStore: in-process map, for tests
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads
//
// Blob names are slash-separated paths relative to the store root, e.g.
// "trial/basis_3.bin".
package blobstore
