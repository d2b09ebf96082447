// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("burgers/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// # Features
//
//   - Range reads through GetObject
//   - Multipart uploads for large bases via the transfer manager
//   - Automatic pagination for listing
//   - Custom endpoints for S3-compatible services
package s3
