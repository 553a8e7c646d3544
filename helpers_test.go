// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// seq returns a F64 tensor of the given shape holding 1, 2, 3, ... scaled
// by step.
func seq(t testing.TB, step float64, shape ...int) *Dense {
	t.Helper()
	data := make([]float64, numElementsFromShape(shape))
	for i := range data {
		data[i] = float64(i+1) * step
	}
	d, err := NewDense(F64, shape, data)
	require.NoError(t, err)
	return d
}

// bruteForce evaluates the network by summing over every assignment of every
// label. It is the reference the scheduler is compared to.
func bruteForce(t testing.TB, tensors []*Dense, labels [][]int, forder []int) *Dense {
	t.Helper()
	extent := map[int]int{}
	var all []int
	for i, list := range labels {
		for j, l := range list {
			if _, ok := extent[l]; !ok {
				all = append(all, l)
			}
			extent[l] = tensors[i].shape[j]
		}
	}
	outShape := make([]int, len(forder))
	for i, l := range forder {
		outShape[i] = extent[l]
	}
	out := make([]float64, numElementsFromShape(outShape))
	shape := make([]int, len(all))
	for i, l := range all {
		shape[i] = extent[l]
	}
	if numElementsFromShape(shape) == 0 {
		return newOwned(F64, outShape, out)
	}
	pos := map[int]int{}
	for i, l := range all {
		pos[l] = i
	}
	outStrides := stridesOf(outShape)
	assign := make([]int, len(all))
	for {
		p := 1.
		for i, d := range tensors {
			idx := make([]int, len(labels[i]))
			for j, l := range labels[i] {
				idx[j] = assign[pos[l]]
			}
			p *= d.At(idx...)
		}
		off := 0
		for i, l := range forder {
			off += assign[pos[l]] * outStrides[i]
		}
		out[off] += p
		if nextIndex(assign, shape) {
			break
		}
	}
	return newOwned(F64, outShape, out)
}

func toTensors(d ...*Dense) []Tensor {
	out := make([]Tensor, len(d))
	for i, v := range d {
		out[i] = v
	}
	return out
}

func requireClose(t testing.TB, want *Dense, got Tensor) {
	t.Helper()
	g, ok := got.(*Dense)
	require.True(t, ok, "got %T", got)
	if diff := cmp.Diff(want.shape, g.shape, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("shape (-want,+got)\n%s", diff)
	}
	require.InDeltaSlice(t, want.data, g.data, 1e-9)
}
