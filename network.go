// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

// entry is a tensor of the live network and the labels of its axes.
type entry struct {
	tensor Tensor
	labels []int
}

// network is the mutable state reduced by the scheduler.
//
// Entries are addressed by position. A step appends its result and then
// removes the consumed positions in descending order.
type network struct {
	entries []entry
	backend Backend
	log     *slog.Logger
}

func newNetwork(tensors []Tensor, labels [][]int, backend Backend, log *slog.Logger) *network {
	n := &network{
		entries: make([]entry, len(tensors)),
		backend: backend,
		log:     log,
	}
	for i, t := range tensors {
		n.entries[i] = entry{tensor: t, labels: slices.Clone(labels[i])}
	}
	return n
}

// find returns the positions, ascending, of the entries carrying label.
func (n *network) find(label int) []int {
	var pos []int
	for i, e := range n.entries {
		if slices.Contains(e.labels, label) {
			pos = append(pos, i)
		}
	}
	return pos
}

// replace appends e and drops the consumed positions.
func (n *network) replace(consumed []int, e entry) {
	n.entries = append(n.entries, e)
	consumed = slices.Clone(consumed)
	slices.SortFunc(consumed, func(a, b int) int { return cmp.Compare(b, a) })
	for _, p := range consumed {
		// slices.Delete zeroes the vacated tail slot, releasing the tensor.
		n.entries = slices.Delete(n.entries, p, p+1)
	}
}

// contractAll resolves the labels of order, one step at a time, until none
// is left.
func (n *network) contractAll(order []int) error {
	queue := slices.Clone(order)
	for len(queue) > 0 {
		label := queue[0]
		pos := n.find(label)
		var icon []int
		var err error
		switch len(pos) {
		case 1:
			icon, err = n.trace(pos[0])
		case 2:
			icon, err = n.contractPair(pos[0], pos[1])
		default:
			return fmt.Errorf("%w: label %d found on %d tensors", ErrInconsistentNetwork, label, len(pos))
		}
		if err != nil {
			return err
		}
		if !slices.Contains(icon, label) {
			return fmt.Errorf("%w: label %d occurs once in tensor %d", ErrInconsistentNetwork, label, pos[0])
		}
		queue = slices.DeleteFunc(queue, func(l int) bool { return slices.Contains(icon, l) })
	}
	return nil
}

// trace sums every label repeated within the entry at p.
func (n *network) trace(p int) ([]int, error) {
	e := n.entries[p]
	icon := repeatedLabels(e.labels)
	if len(icon) == 0 {
		return nil, nil
	}
	want := withoutLabels(e.labels, icon)
	t, got, err := n.backend.TraceSelf(e.tensor, e.labels)
	if err != nil {
		return nil, fmt.Errorf("trace of tensor %d over %v: %w", p, icon, err)
	}
	if err := checkResult(t, got, want); err != nil {
		return nil, err
	}
	n.log.Debug("step", "op", "trace", "position", p, "labels", icon, "shape", t.Shape())
	n.replace([]int{p}, entry{tensor: t, labels: want})
	return icon, nil
}

// contractPair sums every label shared by the entries at p1 and p2.
func (n *network) contractPair(p1, p2 int) ([]int, error) {
	a, b := n.entries[p1], n.entries[p2]
	icon := sharedLabels(a.labels, b.labels)
	want := slices.Concat(withoutLabels(a.labels, icon), withoutLabels(b.labels, icon))
	t, got, err := pairwiseContract(n.backend, a.tensor, a.labels, b.tensor, b.labels)
	if err != nil {
		return nil, fmt.Errorf("contraction of tensors %d and %d over %v: %w", p1, p2, icon, err)
	}
	if err := checkResult(t, got, want); err != nil {
		return nil, err
	}
	n.log.Debug("step", "op", "contract", "positions", []int{p1, p2}, "labels", icon, "shape", t.Shape())
	n.replace([]int{p1, p2}, entry{tensor: t, labels: want})
	return icon, nil
}

// checkResult verifies a Backend result against the scheduler's bookkeeping.
func checkResult(t Tensor, got, want []int) error {
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: backend returned labels %v, expected %v", ErrInconsistentNetwork, got, want)
	}
	if r := Rank(t); r != len(want) {
		return fmt.Errorf("%w: backend returned rank %d for labels %v", ErrInconsistentNetwork, r, want)
	}
	return nil
}

// repeatedLabels returns the labels occurring more than once in labels, in
// order of first occurrence.
func repeatedLabels(labels []int) []int {
	count := make(map[int]int, len(labels))
	for _, l := range labels {
		count[l]++
	}
	var out []int
	for _, l := range labels {
		if count[l] > 1 && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// sharedLabels returns the labels of a also present in b, in the order of a.
func sharedLabels(a, b []int) []int {
	var out []int
	for _, l := range a {
		if slices.Contains(b, l) && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// withoutLabels returns labels with every occurrence of drop removed.
func withoutLabels(labels, drop []int) []int {
	out := make([]int, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(drop, l) {
			out = append(out, l)
		}
	}
	return out
}
