// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import "fmt"

// Contract evaluates the tensor network formed by tensors, where labels[i]
// labels the axes of tensors[i].
//
// Positive labels appear exactly twice and are summed over; negative labels
// appear once and remain in the result, ordered as the forder (see
// WithForOrder). Labels are resolved in the order given by WithOrder, all
// labels between the same two tensors at once. Tensors left disconnected
// are combined by outer products.
//
// The inputs are never modified and the result is always a new tensor.
func Contract(tensors []Tensor, labels [][]int, opts ...Option) (Tensor, error) {
	o := gatherOptions(opts)
	if len(tensors) == 0 {
		return nil, fmt.Errorf("%w: empty network", ErrShapeMismatch)
	}
	order := o.order
	if order == nil {
		order = DefaultOrder(labels)
	}
	forder := o.forder
	if forder == nil {
		forder = DefaultForOrder(labels)
	}
	if o.checkIndices {
		if err := Validate(tensors, labels, order, forder); err != nil {
			return nil, err
		}
	} else {
		if len(tensors) != len(labels) {
			return nil, fmt.Errorf("%w: tensor/index-list count mismatch: %d tensors, %d label lists", ErrShapeMismatch, len(tensors), len(labels))
		}
		for i, t := range tensors {
			if isNil(t) {
				return nil, fmt.Errorf("%w: nil tensor at position %d", ErrShapeMismatch, i)
			}
		}
	}

	n := newNetwork(tensors, labels, o.backend, o.logger)
	if err := n.contractAll(order); err != nil {
		return nil, err
	}
	return n.assemble(forder)
}

// ContractTensor is Contract for a network of a single tensor. It permutes
// the free axes of t and traces its repeated labels.
func ContractTensor(t Tensor, labels []int, opts ...Option) (Tensor, error) {
	return Contract([]Tensor{t}, [][]int{labels}, opts...)
}
