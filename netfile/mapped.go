// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package netfile

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Mapped is a read-only memory mapped network file.
//
// The tensors' Data reference the mapping and are invalid after Close;
// decode them with Network or Tensor.Dense first.
type Mapped struct {
	*File
	f io.Closer
	m mmap.MMap
}

// Close releases the memory region and the file handle.
func (s *Mapped) Close() error {
	err := s.m.Unmap()
	if err2 := s.f.Close(); err == nil {
		err = err2
	}
	s.File = nil
	return err
}

// Open opens a file and memory maps it read-only.
func (s *Mapped) Open(name string) error {
	f, err := os.OpenFile(name, os.O_RDONLY, 0o600)
	if err != nil {
		return err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return err
	}
	s.f = f
	s.m = m
	s.File, err = Parse(m)
	if err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// Load memory maps the network file name and decodes its network.
func Load(name string) (*Network, error) {
	var m Mapped
	if err := m.Open(name); err != nil {
		return nil, err
	}
	n, err := m.Network()
	if err2 := m.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Save writes f to the file name.
func Save(name string, f *File) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = f.Serialize(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
