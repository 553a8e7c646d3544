// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package netfile

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/maruel/tensornet"
)

// Network is a tensor network ready to be handed to tensornet.Contract.
type Network struct {
	Names   []string
	Tensors []tensornet.Tensor
	Labels  [][]int
	// Order and ForOrder are nil when the file does not set them.
	Order    []int
	ForOrder []int
}

// Options returns the contraction options stored in the file.
func (n *Network) Options() []tensornet.Option {
	var opts []tensornet.Option
	if n.Order != nil {
		opts = append(opts, tensornet.WithOrder(n.Order))
	}
	if n.ForOrder != nil {
		opts = append(opts, tensornet.WithForOrder(n.ForOrder))
	}
	return opts
}

// Network decodes the tensors and labels of the file.
func (f *File) Network() (*Network, error) {
	v, ok := f.Metadata[KeyLabels]
	if !ok {
		return nil, fmt.Errorf("missing %q metadata", KeyLabels)
	}
	labels, err := ParseLabels(v)
	if err != nil {
		return nil, err
	}
	n := &Network{
		Names:   make([]string, len(f.Tensors)),
		Tensors: make([]tensornet.Tensor, len(f.Tensors)),
		Labels:  labels,
	}
	for i := range f.Tensors {
		d, err := f.Tensors[i].Dense()
		if err != nil {
			return nil, err
		}
		n.Names[i] = f.Tensors[i].Name
		n.Tensors[i] = d
	}
	if v, ok := f.Metadata[KeyOrder]; ok {
		if n.Order, err = parseList(KeyOrder, v); err != nil {
			return nil, err
		}
	}
	if v, ok := f.Metadata[KeyForder]; ok {
		if n.ForOrder, err = parseList(KeyForder, v); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// NewFile builds a file holding the given tensors and labels. Nil order or
// forder are left out of the metadata.
func NewFile(names []string, tensors []*tensornet.Dense, labels [][]int, order, forder []int) (*File, error) {
	if len(names) != len(tensors) || len(tensors) != len(labels) {
		return nil, fmt.Errorf("%d names, %d tensors and %d label lists", len(names), len(tensors), len(labels))
	}
	f := &File{Tensors: make([]Tensor, len(tensors)), Metadata: map[string]string{}}
	for i, d := range tensors {
		var err error
		if f.Tensors[i], err = FromDense(names[i], d); err != nil {
			return nil, err
		}
	}
	if err := setList(f.Metadata, KeyLabels, labels); err != nil {
		return nil, err
	}
	if order != nil {
		if err := setList(f.Metadata, KeyOrder, order); err != nil {
			return nil, err
		}
	}
	if forder != nil {
		if err := setList(f.Metadata, KeyForder, forder); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ParseLabels parses the "labels" metadata value.
//
// It accepts a list of label lists or, for a single tensor, one flat list.
func ParseLabels(v string) ([][]int, error) {
	var nested [][]int
	if err := json.Unmarshal([]byte(v), &nested); err == nil {
		return nested, nil
	}
	var flat []int
	if err := json.Unmarshal([]byte(v), &flat); err != nil {
		return nil, fmt.Errorf("invalid %q metadata %q: expected a list of integer lists or a list of integers", KeyLabels, v)
	}
	return [][]int{flat}, nil
}

func parseList(key, v string) ([]int, error) {
	var l []int
	if err := json.Unmarshal([]byte(v), &l); err != nil {
		return nil, fmt.Errorf("invalid %q metadata %s: %w", key, strconv.Quote(v), err)
	}
	if l == nil {
		l = []int{}
	}
	return l, nil
}

func setList(m map[string]string, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to JSON-marshal %q: %w", key, err)
	}
	m[key] = string(b)
	return nil
}
