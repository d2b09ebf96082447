// Package testutil provides testing utilities for romgo.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for synthetic snapshot tensors and error
// measures for checking reconstructions.
//
// # Synthetic Snapshots
//
//	rng := testutil.NewRNG(seed)
//	x, _ := rng.Snapshots([]int{16, 8}, 10, 3)          // uniform [-1, 1)
//	y, _ := rng.LowRankSnapshots([]int{16, 8}, 10, 3, 4) // rank 4 plus a mean field
//
// # Error Measures
//
//	err := testutil.RelativeError(want.Data(), got.Data())
package testutil
