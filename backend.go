// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

// Backend performs the numeric work of a contraction.
//
// Labels passed to a Backend follow the same convention as the network: one
// label per axis, equal labels identify axes to sum over. A Backend must
// return freshly allocated tensors and never modify its inputs.
type Backend interface {
	// ContractPair sums over every axis pair of a and b sharing a label. It
	// returns the result and its labels: the remaining labels of a then those
	// of b, each in their original order.
	//
	// Implementations may reject a label repeated within a single operand;
	// the scheduler never sends one.
	ContractPair(a Tensor, la []int, b Tensor, lb []int) (Tensor, []int, error)

	// TraceSelf sums over every axis pair of a sharing a label. It returns the
	// result and its remaining labels in their original order.
	TraceSelf(a Tensor, la []int) (Tensor, []int, error)

	// OuterProductPermute returns the outer product of a and b, which share no
	// label, with axes arranged as target. target is a permutation of the
	// concatenation of la and lb.
	OuterProductPermute(a Tensor, la []int, b Tensor, lb []int, target []int) (Tensor, error)

	// CopyPermute returns a copy of a with axes arranged as target. target is
	// a permutation of la.
	CopyPermute(a Tensor, la []int, target []int) (Tensor, error)
}
