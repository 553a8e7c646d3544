// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

// pairwiseContract calls b.ContractPair on operands whose label lists may
// hold a repeated label, which stands for a trace resolved in a later step.
//
// Every repeated occurrence after the first is renamed to a fresh label above
// the largest absolute label of both lists, so the backend sees a pass-through
// axis. The fresh labels are mapped back in the result, where the repeated
// label shows up again for the scheduler to trace.
func pairwiseContract(b Backend, x Tensor, lx []int, y Tensor, ly []int) (Tensor, []int, error) {
	next := max(maxAbsLabel(lx), maxAbsLabel(ly))
	minted := map[int]int{}
	rx := uniqueLabels(lx, &next, minted)
	ry := uniqueLabels(ly, &next, minted)
	t, labels, err := b.ContractPair(x, rx, y, ry)
	if err != nil {
		return nil, nil, err
	}
	if len(minted) == 0 {
		return t, labels, nil
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		if orig, ok := minted[l]; ok {
			l = orig
		}
		out[i] = l
	}
	return t, out, nil
}

// uniqueLabels returns a copy of labels where each repeated occurrence is
// replaced by the next fresh label. minted records fresh label → original.
func uniqueLabels(labels []int, next *int, minted map[int]int) []int {
	out := make([]int, len(labels))
	seen := make(map[int]bool, len(labels))
	for i, l := range labels {
		if seen[l] {
			*next++
			minted[*next] = l
			l = *next
		}
		seen[labels[i]] = true
		out[i] = l
	}
	return out
}

func maxAbsLabel(labels []int) int {
	m := 0
	for _, l := range labels {
		if l < 0 {
			l = -l
		}
		m = max(m, l)
	}
	return m
}
