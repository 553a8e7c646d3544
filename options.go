// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensornet

import (
	"io"
	"log/slog"
)

// DefaultCheckIndices is the default of WithCheckIndices.
const DefaultCheckIndices = true

// Option configures Contract.
type Option func(*options)

type options struct {
	order        []int
	forder       []int
	checkIndices bool
	backend      Backend
	logger       *slog.Logger
}

// WithOrder sets the sequence in which contracted labels are resolved.
//
// When unset, DefaultOrder is used. All labels shared by the same pair of
// tensors are resolved together when the first of them comes up.
func WithOrder(order []int) Option {
	order = append([]int{}, order...)
	return func(o *options) {
		o.order = order
	}
}

// WithForOrder sets the axis order of the result by free label.
//
// When unset, DefaultForOrder is used.
func WithForOrder(forder []int) Option {
	forder = append([]int{}, forder...)
	return func(o *options) {
		o.forder = forder
	}
}

// WithCheckIndices enables or disables Validate before any numeric work.
//
// Disabling it skips the checks entirely: a malformed network then fails in
// the Backend or yields a wrong result.
func WithCheckIndices(check bool) Option {
	return func(o *options) {
		o.checkIndices = check
	}
}

// WithBackend sets the Backend performing the numeric work. The default is
// DenseBackend{}.
func WithBackend(b Backend) Option {
	return func(o *options) {
		if b != nil {
			o.backend = b
		}
	}
}

// WithLogger sets the logger receiving one debug record per scheduling step.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func gatherOptions(opts []Option) options {
	o := options{
		checkIndices: DefaultCheckIndices,
		backend:      DenseBackend{},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
