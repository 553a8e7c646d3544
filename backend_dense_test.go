// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var genericBackend = DenseBackend{FastPath: func(DType) bool { return false }}

func TestNewDense(t *testing.T) {
	d, err := NewDense(F32, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	require.Equal(t, F32, d.DType())
	require.Equal(t, 6., d.At(1, 2))
	require.Equal(t, 2., d.At(0, 1))
	require.Equal(t, "Dense(F32[2 3])", d.String())
	require.Equal(t, 6, NumElements(d))
	require.Equal(t, 2, Rank(d))

	_, err = NewDense(F32, []int{2, 3}, []float64{1})
	require.Error(t, err)
	_, err = NewDense(F32, []int{-1}, nil)
	require.Error(t, err)
	_, err = NewDense("F7", []int{1}, []float64{1})
	require.Error(t, err)

	s := Scalar(3)
	require.Equal(t, 0, Rank(s))
	require.Equal(t, 1, NumElements(s))
	require.Equal(t, 3., s.At())
}

func TestDenseBackend_ContractPair(t *testing.T) {
	a := seq(t, 0.5, 2, 3, 4)
	b := seq(t, 0.5, 4, 5, 3)
	for _, be := range []DenseBackend{{}, genericBackend} {
		got, labels, err := be.ContractPair(a, []int{-1, 7, 3}, b, []int{3, -2, 7})
		require.NoError(t, err)
		if diff := cmp.Diff([]int{-1, -2}, labels); diff != "" {
			t.Fatalf("(-want,+got)\n%s", diff)
		}
		requireClose(t, bruteForce(t, []*Dense{a, b}, [][]int{{-1, 7, 3}, {3, -2, 7}}, []int{-1, -2}), got)
	}
}

func TestDenseBackend_ContractPair_ZeroExtent(t *testing.T) {
	a := seq(t, 1, 2, 0)
	b := seq(t, 1, 0, 3)
	got, labels, err := DenseBackend{}.ContractPair(a, []int{-1, 1}, b, []int{1, -2})
	require.NoError(t, err)
	require.Equal(t, []int{-1, -2}, labels)
	require.Equal(t, []int{2, 3}, got.Shape())
	require.Equal(t, make([]float64, 6), got.(*Dense).Data())
}

func TestDenseBackend_ContractPair_Errors(t *testing.T) {
	a := seq(t, 1, 2, 2)
	b := seq(t, 1, 3, 2)
	_, _, err := DenseBackend{}.ContractPair(a, []int{1, 1}, b, []int{-1, 2})
	require.ErrorIs(t, err, ErrRepeatedLabel)
	_, _, err = DenseBackend{}.ContractPair(a, []int{1, -1}, b, []int{1, -2})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, _, err = DenseBackend{}.ContractPair(a, []int{1}, b, []int{1, -2})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, _, err = DenseBackend{}.ContractPair(fakeTensor{}, []int{1}, b, []int{1, -2})
	require.ErrorIs(t, err, ErrUnsupportedTensor)
}

func TestDenseBackend_TraceSelf(t *testing.T) {
	a := seq(t, 1, 3, 2, 4, 3, 4)
	labels := []int{1, -1, 2, 1, 2}
	for _, be := range []DenseBackend{{}, genericBackend} {
		got, rest, err := be.TraceSelf(a, labels)
		require.NoError(t, err)
		require.Equal(t, []int{-1}, rest)
		requireClose(t, bruteForce(t, []*Dense{a}, [][]int{labels}, []int{-1}), got)
	}

	_, _, err := DenseBackend{}.TraceSelf(seq(t, 1, 2, 3), []int{1, 1})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, _, err = DenseBackend{}.TraceSelf(seq(t, 1, 2, 2, 2), []int{1, 1, 1})
	require.ErrorIs(t, err, ErrArityViolation)
}

func TestDenseBackend_BoolCounts(t *testing.T) {
	a, err := NewDense(BOOL, []int{2, 3}, []float64{1, 1, 0, 1, 1, 1})
	require.NoError(t, err)
	b, err := NewDense(BOOL, []int{3}, []float64{1, 1, 1})
	require.NoError(t, err)
	for _, be := range []DenseBackend{{}, genericBackend} {
		got, _, err := be.ContractPair(a, []int{-1, 1}, b, []int{1})
		require.NoError(t, err)
		require.Equal(t, I64, got.DType())
		require.Equal(t, []float64{2, 3}, got.(*Dense).Data())
	}

	sq, err := NewDense(BOOL, []int{2, 2}, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	got, _, err := DenseBackend{}.TraceSelf(sq, []int{1, 1})
	require.NoError(t, err)
	require.Equal(t, I64, got.DType())
	require.Equal(t, 2., got.(*Dense).At())

	got2, err := DenseBackend{}.OuterProductPermute(b, []int{-1}, b, []int{-2}, []int{-1, -2})
	require.NoError(t, err)
	require.Equal(t, BOOL, got2.DType())
}

func TestDenseBackend_OuterProductPermute(t *testing.T) {
	a := seq(t, 1, 2, 3)
	b := seq(t, 1, 4)
	for _, be := range []DenseBackend{{}, genericBackend} {
		got, err := be.OuterProductPermute(a, []int{-3, -1}, b, []int{-2}, []int{-1, -2, -3})
		require.NoError(t, err)
		require.Equal(t, []int{3, 4, 2}, got.Shape())
		g := got.(*Dense)
		for i := 0; i < 2; i++ {
			for j := 0; j < 3; j++ {
				for k := 0; k < 4; k++ {
					require.Equal(t, a.At(i, j)*b.At(k), g.At(j, k, i))
				}
			}
		}
	}
	_, err := DenseBackend{}.OuterProductPermute(a, []int{-3, -1}, b, []int{-2}, []int{-1, -2})
	require.ErrorIs(t, err, ErrLabelSetMismatch)
	_, err = DenseBackend{}.OuterProductPermute(a, []int{-3, -1}, b, []int{-1}, []int{-1, -1, -3})
	require.ErrorIs(t, err, ErrRepeatedLabel)
}

func TestDenseBackend_OuterProductPermute_Scalar(t *testing.T) {
	got, err := DenseBackend{}.OuterProductPermute(Scalar(2), []int{}, seq(t, 1, 3), []int{-1}, []int{-1})
	require.NoError(t, err)
	require.Equal(t, []float64{2, 4, 6}, got.(*Dense).Data())
}

func TestDenseBackend_CopyPermute(t *testing.T) {
	a := seq(t, 1, 2, 3)
	got, err := DenseBackend{}.CopyPermute(a, []int{-1, -2}, []int{-2, -1})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, got.Shape())
	require.Equal(t, []float64{1, 4, 2, 5, 3, 6}, got.(*Dense).Data())

	_, err = DenseBackend{}.CopyPermute(a, []int{-1, -2}, []int{-2, -3})
	require.ErrorIs(t, err, ErrLabelSetMismatch)
}

type fakeTensor struct{}

func (fakeTensor) DType() DType { return F32 }
func (fakeTensor) Shape() []int { return []int{2} }
