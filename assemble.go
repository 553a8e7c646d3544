// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"fmt"
	"slices"
)

// assemble reduces the remaining entries, which share no contracted label,
// to a single tensor whose axes follow forder.
//
// Disconnected entries are joined by outer products, smallest two first to
// keep intermediate results small.
func (n *network) assemble(forder []int) (Tensor, error) {
	switch len(n.entries) {
	case 0:
		return nil, fmt.Errorf("%w: no tensor left to assemble", ErrInconsistentNetwork)
	case 1:
		e := n.entries[0]
		if !isPermutation(e.labels, forder) {
			return nil, fmt.Errorf("%w: remaining labels %v do not match forder %v", ErrInconsistentNetwork, e.labels, forder)
		}
		t, err := n.backend.CopyPermute(e.tensor, e.labels, forder)
		if err != nil {
			return nil, fmt.Errorf("permutation of %v into %v: %w", e.labels, forder, err)
		}
		if r := Rank(t); r != len(forder) {
			return nil, fmt.Errorf("%w: backend returned rank %d for labels %v", ErrInconsistentNetwork, r, forder)
		}
		n.log.Debug("step", "op", "permute", "labels", forder, "shape", t.Shape())
		n.entries = nil
		return t, nil
	}

	for len(n.entries) > 1 {
		i, j := n.smallestPair()
		a, b := n.entries[i], n.entries[j]
		target := subsequence(forder, a.labels, b.labels)
		if len(target) != len(a.labels)+len(b.labels) {
			return nil, fmt.Errorf("%w: labels %v and %v are not all free labels of forder %v", ErrInconsistentNetwork, a.labels, b.labels, forder)
		}
		t, err := n.backend.OuterProductPermute(a.tensor, a.labels, b.tensor, b.labels, target)
		if err != nil {
			return nil, fmt.Errorf("outer product of tensors %d and %d: %w", i, j, err)
		}
		if r := Rank(t); r != len(target) {
			return nil, fmt.Errorf("%w: backend returned rank %d for labels %v", ErrInconsistentNetwork, r, target)
		}
		n.log.Debug("step", "op", "outer", "positions", []int{i, j}, "labels", target, "shape", t.Shape())
		n.replace([]int{i, j}, entry{tensor: t, labels: target})
	}
	final := n.entries[0]
	n.entries = nil
	if !slices.Equal(final.labels, forder) {
		return nil, fmt.Errorf("%w: result labels %v, expected %v", ErrInconsistentNetwork, final.labels, forder)
	}
	return final.tensor, nil
}

// smallestPair returns the positions, ascending, of the two entries with the
// fewest elements. The earliest entry wins ties.
func (n *network) smallestPair() (int, int) {
	first, second := -1, -1
	for i, e := range n.entries {
		size := NumElements(e.tensor)
		switch {
		case first == -1 || size < NumElements(n.entries[first].tensor):
			first, second = i, first
		case second == -1 || size < NumElements(n.entries[second].tensor):
			second = i
		}
	}
	return min(first, second), max(first, second)
}

// subsequence returns the labels of order present in a or b, in the order of
// order.
func subsequence(order []int, a, b []int) []int {
	var out []int
	for _, l := range order {
		if slices.Contains(a, l) || slices.Contains(b, l) {
			out = append(out, l)
		}
	}
	return out
}

func isPermutation(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
