// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensornet

import (
	"encoding/json"
	"fmt"
	"sync"
)

// DType identifies the element type of a tensor.
//
// It matches the DType type at
// https://github.com/huggingface/safetensors/blob/main/safetensors/src/tensor.rs.
type DType string

const (
	// Boolan type
	BOOL DType = "BOOL"
	// Unsigned byte
	U8 DType = "U8"
	// Signed byte
	I8 DType = "I8"
	// FP8 <https://arxiv.org/pdf/2209.05433.pdf>
	F8_E5M2 DType = "F8_E5M2"
	// FP8 <https://arxiv.org/pdf/2209.05433.pdf>
	F8_E4M3 DType = "F8_E4M3"
	// Signed integer (16-bit)
	I16 DType = "I16"
	// Unsigned integer (16-bit)
	U16 DType = "U16"
	// Half-precision floating point
	F16 DType = "F16"
	// Brain floating point
	BF16 DType = "BF16"
	// Signed integer (32-bit)
	I32 DType = "I32"
	// Unsigned integer (32-bit)
	U32 DType = "U32"
	// Floating point (32-bit)
	F32 DType = "F32"
	// Floating point (64-bit)
	F64 DType = "F64"
	// Signed integer (64-bit)
	I64 DType = "I64"
	// Unsigned integer (64-bit)
	U64 DType = "U64"
)

var dTypeToSize = map[DType]uint64{
	BOOL:    1,
	U8:      1,
	I8:      1,
	F8_E5M2: 1,
	F8_E4M3: 1,
	I16:     2,
	U16:     2,
	F16:     2,
	BF16:    2,
	I32:     4,
	U32:     4,
	F32:     4,
	F64:     8,
	I64:     8,
	U64:     8,
}

// WordSize returns the size in bytes of one element of this data type.
func (dt DType) WordSize() uint64 {
	return dTypeToSize[dt]
}

// Valid reports whether dt is a known data type.
func (dt DType) Valid() bool {
	return dTypeToSize[dt] != 0
}

func (dt *DType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !DType(s).Valid() {
		return fmt.Errorf("%q is not a valid DType", s)
	}
	*dt = DType(s)
	return nil
}

// Promote returns the data type of a result combining a and b.
//
// Identical types are kept, anything mixed is computed as F64.
func Promote(a, b DType) DType {
	if a == b {
		return a
	}
	return F64
}

// Accumulate returns the data type holding sums of dt values.
//
// Summed BOOL values are counts and are stored as I64. Every other type is
// kept.
func Accumulate(dt DType) DType {
	if dt == BOOL {
		return I64
	}
	return dt
}

var (
	fastPathMu sync.RWMutex
	fastPath   = map[DType]bool{
		F32: true,
		F64: true,
	}
)

// SupportsFastPath reports whether a backend may route tensors of this data
// type through its optimized numeric kernels.
func SupportsFastPath(dt DType) bool {
	fastPathMu.RLock()
	defer fastPathMu.RUnlock()
	return fastPath[dt]
}

// RegisterFastPath enables or disables the fast path for a data type.
//
// It returns the previous setting so callers can restore it.
func RegisterFastPath(dt DType, enabled bool) bool {
	fastPathMu.Lock()
	defer fastPathMu.Unlock()
	prev := fastPath[dt]
	if enabled {
		fastPath[dt] = true
	} else {
		delete(fastPath, dt)
	}
	return prev
}
