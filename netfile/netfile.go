// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package netfile stores tensor networks in safetensors files.
//
// The tensors are kept in file order and the labels of their axes are stored
// in the "__metadata__" section of the header:
//
//	"labels": [[-1,1],[1,-2]]   one list per tensor, in file order
//	"order":  [1]               optional contraction order
//	"forder": [-1,-2]           optional result axis order
//
// A file holding a single tensor may store a flat label list.
package netfile

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/maruel/tensornet"
)

const maxHeaderSize = 100_000_000

// Metadata keys.
const (
	KeyLabels = "labels"
	KeyOrder  = "order"
	KeyForder = "forder"
)

// Tensor is one tensor of a file. Data references the file's buffer.
type Tensor struct {
	Name  string
	DType tensornet.DType
	Shape []uint64
	Data  []byte
}

// Validate checks that Data holds exactly the elements described by DType
// and Shape.
func (t *Tensor) Validate() error {
	n, err := numBytes(t.DType, t.Shape)
	if err != nil {
		return fmt.Errorf("invalid tensor %q: %w", t.Name, err)
	}
	if l := uint64(len(t.Data)); l != n {
		return fmt.Errorf("invalid tensor %q: dtype=%s shape=%+v len(data)=%d", t.Name, t.DType, t.Shape, l)
	}
	return nil
}

// File is the parsed content of a safetensors file.
type File struct {
	Tensors  []Tensor
	Metadata map[string]string
}

// tensorInfo is the header entry of one tensor.
type tensorInfo struct {
	DType       tensornet.DType `json:"dtype"`
	Shape       []uint64        `json:"shape"`
	DataOffsets [2]uint64       `json:"data_offsets"`
}

// Parse parses a byte-buffer representing the whole file.
//
// The returned tensors reference buffer; no tensor data is copied.
func Parse(buffer []byte) (*File, error) {
	bufferLen := uint64(len(buffer))
	if bufferLen < 8 {
		return nil, fmt.Errorf("header (%d bytes) too small", bufferLen)
	}
	n := binary.LittleEndian.Uint64(buffer)
	if n > maxHeaderSize {
		return nil, fmt.Errorf("header too large: max %d, actual %d", maxHeaderSize, n)
	}
	stop := n + 8
	if stop > bufferLen {
		return nil, fmt.Errorf("invalid header length %d", stop)
	}
	raw, err := headerEntries(buffer[8:stop])
	if err != nil {
		return nil, fmt.Errorf("invalid header deserialization: %w", err)
	}

	f := &File{}
	type named struct {
		name string
		info tensorInfo
	}
	infos := make([]named, 0, len(raw))
	for _, kv := range raw {
		k, v := kv.key, kv.value
		if k == "__metadata__" {
			if err := json.Unmarshal(v, &f.Metadata); err != nil {
				return nil, fmt.Errorf("invalid __metadata__: %w", err)
			}
			continue
		}
		var info tensorInfo
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&info); err != nil {
			return nil, fmt.Errorf("failed to JSON-decode tensor %q: %w", k, err)
		}
		if info.DType == "" {
			return nil, fmt.Errorf("tensor %q: missing \"dtype\"", k)
		}
		infos = append(infos, named{name: k, info: info})
	}
	// The file order is the data order. Empty tensors share their offsets
	// and keep the header order.
	sort.SliceStable(infos, func(i, j int) bool {
		a := infos[i].info.DataOffsets
		b := infos[j].info.DataOffsets
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
	})

	data := buffer[stop:]
	start := uint64(0)
	f.Tensors = make([]Tensor, len(infos))
	for i, v := range infos {
		s, e := v.info.DataOffsets[0], v.info.DataOffsets[1]
		if s != start || e < s {
			return nil, fmt.Errorf("invalid offset for tensor %q", v.name)
		}
		start = e
		want, err := numBytes(v.info.DType, v.info.Shape)
		if err != nil {
			return nil, fmt.Errorf("tensor %q: %w", v.name, err)
		}
		if e-s != want {
			return nil, fmt.Errorf("tensor %q: data offsets [%d, %d] do not hold %d bytes", v.name, s, e, want)
		}
		if e > uint64(len(data)) {
			return nil, fmt.Errorf("tensor %q: data offsets beyond end of file", v.name)
		}
		f.Tensors[i] = Tensor{Name: v.name, DType: v.info.DType, Shape: v.info.Shape, Data: data[s:e]}
	}
	if start != uint64(len(data)) {
		return nil, fmt.Errorf("incomplete buffer: %d bytes of data, %d described", len(data), start)
	}
	return f, nil
}

type headerEntry struct {
	key   string
	value json.RawMessage
}

// headerEntries decodes the JSON object b, keeping the order of its keys.
func headerEntries(b []byte) ([]headerEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}
	var out []headerEntry
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		k, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a key, got %v", tok)
		}
		if seen[k] {
			return nil, fmt.Errorf("duplicate key %q", k)
		}
		seen[k] = true
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, headerEntry{key: k, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after header object")
	}
	return out, nil
}

// Serialize writes the file. Tensors are written in slice order.
func (f *File) Serialize(w io.Writer) error {
	header, err := f.header()
	if err != nil {
		return err
	}
	var nbArr [8]byte
	binary.LittleEndian.PutUint64(nbArr[:], uint64(len(header)))
	if _, err = w.Write(nbArr[:]); err != nil {
		return err
	}
	if _, err = w.Write(header); err != nil {
		return err
	}
	for _, t := range f.Tensors {
		if _, err = w.Write(t.Data); err != nil {
			return err
		}
	}
	return nil
}

// header builds the JSON header, keeping tensor order, padded to 8 bytes.
func (f *File) header() ([]byte, error) {
	buf := bytes.Buffer{}
	buf.WriteByte('{')
	if len(f.Metadata) > 0 {
		m, err := json.Marshal(f.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to JSON-marshal metadata: %w", err)
		}
		buf.WriteString(`"__metadata__":`)
		buf.Write(m)
	}
	seen := make(map[string]bool, len(f.Tensors))
	offset := uint64(0)
	for i := range f.Tensors {
		t := &f.Tensors[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.Name == "__metadata__" || seen[t.Name] {
			return nil, fmt.Errorf("invalid tensor name %q", t.Name)
		}
		seen[t.Name] = true
		n := uint64(len(t.Data))
		shape := t.Shape
		if shape == nil {
			shape = []uint64{}
		}
		info, err := json.Marshal(tensorInfo{DType: t.DType, Shape: shape, DataOffsets: [2]uint64{offset, offset + n}})
		if err != nil {
			return nil, fmt.Errorf("failed to JSON-marshal tensor %q: %w", t.Name, err)
		}
		name, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(info)
		offset += n
	}
	buf.WriteByte('}')
	// Force alignment to 8 bytes.
	if extra := (8 - buf.Len()%8) % 8; extra > 0 {
		buf.WriteString("       "[:extra])
	}
	return buf.Bytes(), nil
}

func numBytes(dt tensornet.DType, shape []uint64) (uint64, error) {
	if !dt.Valid() {
		return 0, fmt.Errorf("invalid dtype %q", dt)
	}
	n := uint64(1)
	for _, v := range shape {
		var err error
		if n, err = checkedMul(n, v); err != nil {
			return 0, fmt.Errorf("failed to compute num elements from shape: %w", err)
		}
	}
	return checkedMul(n, dt.WordSize())
}

// checkedMul multiplies a and b and checks for overflow.
func checkedMul(a, b uint64) (uint64, error) {
	c := a * b
	if a > 1 && b > 1 && c/a != b {
		return c, fmt.Errorf("multiplication overflow: %d * %d", a, b)
	}
	return c, nil
}
