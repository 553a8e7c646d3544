// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import "errors"

// Sentinel errors. Every error returned by this package wraps exactly one of
// them; match with errors.Is.
var (
	// ErrShapeMismatch is returned when the number of tensors and label lists
	// differ, or when a label list length differs from its tensor's rank.
	ErrShapeMismatch = errors.New("tensornet: shape mismatch")

	// ErrSignViolation is returned when order holds a non-positive label or
	// forder holds a non-negative one.
	ErrSignViolation = errors.New("tensornet: sign violation")

	// ErrInvalidLabel is returned when a label list contains 0.
	ErrInvalidLabel = errors.New("tensornet: invalid label")

	// ErrLabelSetMismatch is returned when order and forder together do not
	// cover exactly the labels of the network, or overlap.
	ErrLabelSetMismatch = errors.New("tensornet: label set mismatch")

	// ErrArityViolation is returned when a contracted label does not occur
	// exactly twice or a free label does not occur exactly once.
	ErrArityViolation = errors.New("tensornet: arity violation")

	// ErrDimensionMismatch is returned when two axes sharing a label have
	// different extents.
	ErrDimensionMismatch = errors.New("tensornet: dimension mismatch")

	// ErrInconsistentNetwork signals that the scheduler's bookkeeping no longer
	// matches the network. It is only reachable when index checks are disabled
	// or when a Backend misreports its result labels.
	ErrInconsistentNetwork = errors.New("tensornet: inconsistent network")

	// ErrRepeatedLabel is returned by DenseBackend.ContractPair when one
	// operand carries the same label on two axes.
	ErrRepeatedLabel = errors.New("tensornet: repeated label in pairwise contraction")

	// ErrUnsupportedTensor is returned by DenseBackend when given a Tensor
	// implementation it cannot read.
	ErrUnsupportedTensor = errors.New("tensornet: unsupported tensor implementation")
)
