// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"fmt"
	"slices"
)

// Tensor is the view of a multi-dimensional array the scheduler needs.
//
// The scheduler never reads element values; it only inspects the shape and
// hands tensors to a Backend.
type Tensor interface {
	// DType returns the element data type.
	DType() DType
	// Shape returns the extent of each axis. Callers must not modify it.
	Shape() []int
}

// Rank returns the number of axes of t.
func Rank(t Tensor) int {
	return len(t.Shape())
}

// NumElements returns the number of elements of t. A rank 0 tensor holds one
// element.
func NumElements(t Tensor) int {
	return numElementsFromShape(t.Shape())
}

// Dense is a row-major tensor of float64 values tagged with a storage DType.
//
// A Dense is immutable once built: every operation of DenseBackend returns a
// new Dense.
type Dense struct {
	dtype DType
	shape []int
	data  []float64
}

// NewDense creates a new Dense, copying shape and data.
func NewDense(dType DType, shape []int, data []float64) (*Dense, error) {
	if !dType.Valid() {
		return nil, fmt.Errorf("invalid tensor: unknown dtype %q", dType)
	}
	for i, v := range shape {
		if v < 0 {
			return nil, fmt.Errorf("invalid tensor: negative extent %d on axis %d", v, i)
		}
	}
	if n := numElementsFromShape(shape); n != len(data) {
		return nil, fmt.Errorf("invalid tensor: dtype=%s shape=%v len(data)=%d", dType, shape, len(data))
	}
	return &Dense{dtype: dType, shape: slices.Clone(shape), data: slices.Clone(data)}, nil
}

// Scalar returns a rank 0 F64 tensor holding v.
func Scalar(v float64) *Dense {
	return &Dense{dtype: F64, shape: []int{}, data: []float64{v}}
}

// isNil reports whether t is nil or a nil *Dense.
func isNil(t Tensor) bool {
	d, ok := t.(*Dense)
	return t == nil || (ok && d == nil)
}

// newOwned wraps shape and data without copying; the caller gives up both.
func newOwned(dType DType, shape []int, data []float64) *Dense {
	return &Dense{dtype: dType, shape: shape, data: data}
}

func (d *Dense) DType() DType {
	return d.dtype
}

func (d *Dense) Shape() []int {
	return d.shape
}

// Data returns a copy of the elements in row-major order.
func (d *Dense) Data() []float64 {
	return slices.Clone(d.data)
}

// At returns the element at the given multi-index.
func (d *Dense) At(idx ...int) float64 {
	if len(idx) != len(d.shape) {
		panic(fmt.Sprintf("tensornet: At got %d indices for rank %d", len(idx), len(d.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= d.shape[i] {
			panic(fmt.Sprintf("tensornet: index %d out of range [0, %d) on axis %d", v, d.shape[i], i))
		}
		off = off*d.shape[i] + v
	}
	return d.data[off]
}

func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%s%v)", d.dtype, d.shape)
}

func numElementsFromShape(shape []int) int {
	n := 1
	for _, v := range shape {
		n *= v
	}
	return n
}

// stridesOf returns the row-major strides of shape.
func stridesOf(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// nextIndex advances a row-major multi-index and reports whether it wrapped.
func nextIndex(idx, shape []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return false
		}
		idx[i] = 0
	}
	return true
}
