// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tensornet contracts labeled tensor networks.
//
// Each tensor comes with one integer label per axis. A positive label
// appears on exactly two axes and is summed over, either between two tensors
// or, when both axes belong to the same tensor, as a trace. A negative label
// appears once and survives in the result; the result's axes are ordered by
// the forder, -1 first by default.
//
// Contract schedules the work: it walks the contraction order, fusing every
// label shared by the same two tensors into a single pairwise contraction,
// and joins the disconnected pieces left at the end by outer products. The
// arithmetic is delegated to a Backend; DenseBackend is the reference
// implementation.
//
//	a, _ := tensornet.NewDense(tensornet.F64, []int{3, 4}, dataA)
//	b, _ := tensornet.NewDense(tensornet.F64, []int{4, 5}, dataB)
//	// Matrix product: the shared axis is labeled 1.
//	c, err := tensornet.Contract([]tensornet.Tensor{a, b}, [][]int{{-1, 1}, {1, -2}})
package tensornet
