// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"cmp"
	"slices"
)

// DefaultOrder returns the distinct positive labels of the network in
// ascending order.
func DefaultOrder(labels [][]int) []int {
	return collectLabels(labels, func(l int) bool { return l > 0 }, cmp.Compare[int])
}

// DefaultForOrder returns the distinct negative labels of the network in
// descending order, so that -1 comes first.
func DefaultForOrder(labels [][]int) []int {
	return collectLabels(labels, func(l int) bool { return l < 0 }, func(a, b int) int { return cmp.Compare(b, a) })
}

func collectLabels(labels [][]int, keep func(int) bool, order func(a, b int) int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, list := range labels {
		for _, l := range list {
			if keep(l) && !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	slices.SortFunc(out, order)
	return out
}
