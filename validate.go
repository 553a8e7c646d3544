// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"fmt"
	"slices"
)

// slot is one axis of one tensor of the network.
type slot struct {
	tensor int
	axis   int
}

// Validate checks that tensors, labels, order and forder describe a
// well-formed network.
//
// Checks run in a fixed sequence and the first violation is returned:
// counts and ranks, signs of order and forder, zero labels, label set
// coverage, then the arity and extents of each label.
func Validate(tensors []Tensor, labels [][]int, order, forder []int) error {
	if len(tensors) != len(labels) {
		return fmt.Errorf("%w: tensor/index-list count mismatch: %d tensors, %d label lists", ErrShapeMismatch, len(tensors), len(labels))
	}
	for i, t := range tensors {
		if isNil(t) {
			return fmt.Errorf("%w: nil tensor at position %d", ErrShapeMismatch, i)
		}
		if r := Rank(t); r != len(labels[i]) {
			return fmt.Errorf("%w: rank mismatch at position %d: rank %d, %d labels", ErrShapeMismatch, i, r, len(labels[i]))
		}
	}
	for _, l := range order {
		if l <= 0 {
			return fmt.Errorf("%w: order holds %d", ErrSignViolation, l)
		}
	}
	for _, l := range forder {
		if l >= 0 {
			return fmt.Errorf("%w: forder holds %d", ErrSignViolation, l)
		}
	}

	slots := map[int][]slot{}
	for i, list := range labels {
		for j, l := range list {
			if l == 0 {
				return fmt.Errorf("%w: zero label at tensor %d axis %d", ErrInvalidLabel, i, j)
			}
			slots[l] = append(slots[l], slot{tensor: i, axis: j})
		}
	}
	if err := checkLabelSet(slots, order, forder); err != nil {
		return err
	}

	for _, l := range order {
		s := slots[l]
		if len(s) != 2 {
			return fmt.Errorf("%w: contracted label %d occurs %d times", ErrArityViolation, l, len(s))
		}
		a := tensors[s[0].tensor].Shape()[s[0].axis]
		b := tensors[s[1].tensor].Shape()[s[1].axis]
		if a != b {
			return fmt.Errorf("%w: label %d joins tensor %d axis %d (extent %d) and tensor %d axis %d (extent %d)",
				ErrDimensionMismatch, l, s[0].tensor, s[0].axis, a, s[1].tensor, s[1].axis, b)
		}
	}
	for _, l := range forder {
		if n := len(slots[l]); n != 1 {
			return fmt.Errorf("%w: free label %d occurs %d times", ErrArityViolation, l, n)
		}
	}
	return nil
}

func checkLabelSet(slots map[int][]slot, order, forder []int) error {
	declared := make(map[int]bool, len(order)+len(forder))
	var repeated []int
	for _, l := range slices.Concat(order, forder) {
		if declared[l] {
			repeated = append(repeated, l)
		}
		declared[l] = true
	}
	var undeclared, unknown []int
	for l := range slots {
		if !declared[l] {
			undeclared = append(undeclared, l)
		}
	}
	for l := range declared {
		if _, ok := slots[l]; !ok {
			unknown = append(unknown, l)
		}
	}
	if len(repeated) == 0 && len(undeclared) == 0 && len(unknown) == 0 {
		return nil
	}
	slices.Sort(repeated)
	slices.Sort(undeclared)
	slices.Sort(unknown)
	return fmt.Errorf("%w: labels missing from order/forder %v, labels absent from network %v, labels listed twice %v",
		ErrLabelSetMismatch, undeclared, unknown, repeated)
}
