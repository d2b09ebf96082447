// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and any other S3-compatible object store (Ceph,
// SeaweedFS, Garage) and needs no AWS dependencies.
//
//	store, err := minio.Dial(ctx, minio.Options{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "rom",
//	    Prefix:    "burgers/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, err := basis.Load(ctx, artifact.NewStore(store, "trial"), basis.LoadOptions{Basis: true})
package minio
