// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DenseBackend is the reference Backend operating on *Dense tensors.
//
// Tensors whose data types pass FastPath are contracted through gonum's
// matrix kernels after being permuted into matrix form. Every other data type
// goes through a plain index loop. Both paths compute in float64.
// Contractions and traces of BOOL tensors count, and return I64 tensors.
type DenseBackend struct {
	// FastPath selects the data types eligible for the gonum kernels. When
	// nil, SupportsFastPath is used.
	FastPath func(DType) bool
}

var _ Backend = DenseBackend{}

func (b DenseBackend) ContractPair(ta Tensor, la []int, tb Tensor, lb []int) (Tensor, []int, error) {
	x, err := asDense(ta, la)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "left operand")
	}
	y, err := asDense(tb, lb)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "right operand")
	}
	if l, ok := firstRepeat(la); ok {
		return nil, nil, errors.Wrapf(ErrRepeatedLabel, "label %d in left operand %v", l, la)
	}
	if l, ok := firstRepeat(lb); ok {
		return nil, nil, errors.Wrapf(ErrRepeatedLabel, "label %d in right operand %v", l, lb)
	}

	posB := make(map[int]int, len(lb))
	for j, l := range lb {
		posB[l] = j
	}
	var sharedA, sharedB, freeA, freeB []int
	for i, l := range la {
		j, ok := posB[l]
		if !ok {
			freeA = append(freeA, i)
			continue
		}
		if x.shape[i] != y.shape[j] {
			return nil, nil, errors.Wrapf(ErrDimensionMismatch, "label %d: left axis %d has extent %d, right axis %d has extent %d", l, i, x.shape[i], j, y.shape[j])
		}
		sharedA = append(sharedA, i)
		sharedB = append(sharedB, j)
	}
	inA := make(map[int]bool, len(la))
	for _, l := range la {
		inA[l] = true
	}
	for j, l := range lb {
		if !inA[l] {
			freeB = append(freeB, j)
		}
	}

	xm := permuteDense(x, slices.Concat(freeA, sharedA))
	ym := permuteDense(y, slices.Concat(sharedB, freeB))
	m := extentProduct(x.shape, freeA)
	k := extentProduct(x.shape, sharedA)
	n := extentProduct(y.shape, freeB)
	data := matmul(xm.data, ym.data, m, k, n, b.fast(x.dtype, y.dtype))

	shape := make([]int, 0, len(freeA)+len(freeB))
	labels := make([]int, 0, len(freeA)+len(freeB))
	for _, i := range freeA {
		shape = append(shape, x.shape[i])
		labels = append(labels, la[i])
	}
	for _, j := range freeB {
		shape = append(shape, y.shape[j])
		labels = append(labels, lb[j])
	}
	return newOwned(Accumulate(Promote(x.dtype, y.dtype)), shape, data), labels, nil
}

func (b DenseBackend) TraceSelf(ta Tensor, la []int) (Tensor, []int, error) {
	x, err := asDense(ta, la)
	if err != nil {
		return nil, nil, err
	}
	axes := make(map[int][]int, len(la))
	for i, l := range la {
		axes[l] = append(axes[l], i)
	}
	var pairs [][2]int
	var keep []int
	for i, l := range la {
		switch a := axes[l]; len(a) {
		case 1:
			keep = append(keep, i)
		case 2:
			if a[0] != i {
				continue
			}
			if x.shape[a[0]] != x.shape[a[1]] {
				return nil, nil, errors.Wrapf(ErrDimensionMismatch, "trace label %d: axis %d has extent %d, axis %d has extent %d", l, a[0], x.shape[a[0]], a[1], x.shape[a[1]])
			}
			pairs = append(pairs, [2]int{a[0], a[1]})
		default:
			return nil, nil, errors.Wrapf(ErrArityViolation, "trace label %d occurs %d times", l, len(a))
		}
	}

	shape := make([]int, len(keep))
	labels := make([]int, len(keep))
	for j, i := range keep {
		shape[j] = x.shape[i]
		labels[j] = la[i]
	}
	dt := Accumulate(x.dtype)
	out := make([]float64, numElementsFromShape(shape))
	if len(x.data) == 0 {
		return newOwned(dt, shape, out), labels, nil
	}
	outStrides := stridesOf(shape)
	idx := make([]int, len(x.shape))
	for _, v := range x.data {
		diagonal := true
		for _, p := range pairs {
			if idx[p[0]] != idx[p[1]] {
				diagonal = false
				break
			}
		}
		if diagonal {
			off := 0
			for j, i := range keep {
				off += idx[i] * outStrides[j]
			}
			out[off] += v
		}
		nextIndex(idx, x.shape)
	}
	return newOwned(dt, shape, out), labels, nil
}

func (b DenseBackend) OuterProductPermute(ta Tensor, la []int, tb Tensor, lb []int, target []int) (Tensor, error) {
	x, err := asDense(ta, la)
	if err != nil {
		return nil, errors.WithMessage(err, "left operand")
	}
	y, err := asDense(tb, lb)
	if err != nil {
		return nil, errors.WithMessage(err, "right operand")
	}
	joined := slices.Concat(la, lb)
	perm, err := permutation(joined, target)
	if err != nil {
		return nil, err
	}
	var data []float64
	switch {
	case len(x.data) == 0 || len(y.data) == 0:
		data = []float64{}
	case b.fast(x.dtype, y.dtype):
		var c mat.Dense
		c.Outer(1, mat.NewVecDense(len(x.data), x.data), mat.NewVecDense(len(y.data), y.data))
		data = c.RawMatrix().Data
	default:
		data = make([]float64, 0, len(x.data)*len(y.data))
		for _, u := range x.data {
			for _, v := range y.data {
				data = append(data, u*v)
			}
		}
	}
	prod := newOwned(Promote(x.dtype, y.dtype), slices.Concat(x.shape, y.shape), data)
	return permuteDense(prod, perm), nil
}

func (b DenseBackend) CopyPermute(ta Tensor, la []int, target []int) (Tensor, error) {
	x, err := asDense(ta, la)
	if err != nil {
		return nil, err
	}
	perm, err := permutation(la, target)
	if err != nil {
		return nil, err
	}
	return permuteDense(x, perm), nil
}

func (b DenseBackend) fast(dts ...DType) bool {
	f := b.FastPath
	if f == nil {
		f = SupportsFastPath
	}
	for _, dt := range dts {
		if !f(dt) {
			return false
		}
	}
	return true
}

//

func asDense(t Tensor, labels []int) (*Dense, error) {
	d, ok := t.(*Dense)
	if !ok || d == nil {
		return nil, errors.Wrapf(ErrUnsupportedTensor, "%T", t)
	}
	if len(labels) != len(d.shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d labels for rank %d", len(labels), len(d.shape))
	}
	return d, nil
}

// permutation returns perm such that target[i] == labels[perm[i]].
func permutation(labels, target []int) ([]int, error) {
	if len(labels) != len(target) {
		return nil, errors.Wrapf(ErrLabelSetMismatch, "target %v is not a permutation of %v", target, labels)
	}
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		if _, dup := pos[l]; dup {
			return nil, errors.Wrapf(ErrRepeatedLabel, "label %d in %v", l, labels)
		}
		pos[l] = i
	}
	perm := make([]int, len(target))
	used := make([]bool, len(labels))
	for i, l := range target {
		j, ok := pos[l]
		if !ok || used[j] {
			return nil, errors.Wrapf(ErrLabelSetMismatch, "target %v is not a permutation of %v", target, labels)
		}
		used[j] = true
		perm[i] = j
	}
	return perm, nil
}

// permuteDense returns a copy of d whose axis i is axis perm[i] of d.
func permuteDense(d *Dense, perm []int) *Dense {
	shape := make([]int, len(perm))
	for i, p := range perm {
		shape[i] = d.shape[p]
	}
	out := make([]float64, len(d.data))
	if len(out) == 0 {
		return newOwned(d.dtype, shape, out)
	}
	inStrides := stridesOf(d.shape)
	strides := make([]int, len(perm))
	for i, p := range perm {
		strides[i] = inStrides[p]
	}
	idx := make([]int, len(shape))
	for o := range out {
		off := 0
		for i, v := range idx {
			off += v * strides[i]
		}
		out[o] = d.data[off]
		nextIndex(idx, shape)
	}
	return newOwned(d.dtype, shape, out)
}

// matmul multiplies the row-major m×k matrix x by the k×n matrix y.
func matmul(x, y []float64, m, k, n int, fast bool) []float64 {
	out := make([]float64, m*n)
	if m == 0 || n == 0 || k == 0 {
		return out
	}
	if fast {
		var c mat.Dense
		c.Mul(mat.NewDense(m, k, x), mat.NewDense(k, n, y))
		return c.RawMatrix().Data
	}
	for i := 0; i < m; i++ {
		row := x[i*k : (i+1)*k]
		dst := out[i*n : (i+1)*n]
		for p, u := range row {
			col := y[p*n : (p+1)*n]
			for j, v := range col {
				dst[j] += u * v
			}
		}
	}
	return out
}

func extentProduct(shape, axes []int) int {
	n := 1
	for _, a := range axes {
		n *= shape[a]
	}
	return n
}

func firstRepeat(labels []int) (int, bool) {
	seen := make(map[int]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return l, true
		}
		seen[l] = true
	}
	return 0, false
}
