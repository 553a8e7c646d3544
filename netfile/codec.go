// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package netfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/maruel/tensornet"
)

// ErrUnsupportedDType is returned when converting a tensor whose data type
// has no float64 conversion (F16 and the FP8 variants).
var ErrUnsupportedDType = errors.New("netfile: unsupported dtype")

// Dense decodes the tensor into a tensornet.Dense. The data is copied.
func (t *Tensor) Dense() (*tensornet.Dense, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	shape := make([]int, len(t.Shape))
	for i, v := range t.Shape {
		if v > math.MaxInt32 {
			return nil, fmt.Errorf("tensor %q: extent %d too large", t.Name, v)
		}
		shape[i] = int(v)
	}
	size := int(t.DType.WordSize())
	values := make([]float64, len(t.Data)/size)
	le := binary.LittleEndian
	for i := range values {
		b := t.Data[i*size : (i+1)*size]
		switch t.DType {
		case tensornet.BOOL:
			if b[0] != 0 {
				values[i] = 1
			}
		case tensornet.U8:
			values[i] = float64(b[0])
		case tensornet.I8:
			values[i] = float64(int8(b[0]))
		case tensornet.I16:
			values[i] = float64(int16(le.Uint16(b)))
		case tensornet.U16:
			values[i] = float64(le.Uint16(b))
		case tensornet.I32:
			values[i] = float64(int32(le.Uint32(b)))
		case tensornet.U32:
			values[i] = float64(le.Uint32(b))
		case tensornet.I64:
			values[i] = float64(int64(le.Uint64(b)))
		case tensornet.U64:
			values[i] = float64(le.Uint64(b))
		case tensornet.BF16:
			values[i] = float64(math.Float32frombits(uint32(le.Uint16(b)) << 16))
		case tensornet.F32:
			values[i] = float64(math.Float32frombits(le.Uint32(b)))
		case tensornet.F64:
			values[i] = math.Float64frombits(le.Uint64(b))
		default:
			return nil, fmt.Errorf("tensor %q: %w %s", t.Name, ErrUnsupportedDType, t.DType)
		}
	}
	return tensornet.NewDense(t.DType, shape, values)
}

// FromDense encodes d as a file tensor named name, in d's data type.
//
// Integer types truncate toward zero and BF16 truncates the mantissa. BOOL
// stores any non-zero value as 1.
func FromDense(name string, d *tensornet.Dense) (Tensor, error) {
	dt := d.DType()
	size := int(dt.WordSize())
	values := d.Data()
	data := make([]byte, len(values)*size)
	le := binary.LittleEndian
	for i, v := range values {
		b := data[i*size : (i+1)*size]
		switch dt {
		case tensornet.BOOL:
			if v != 0 {
				b[0] = 1
			}
		case tensornet.U8:
			b[0] = uint8(v)
		case tensornet.I8:
			b[0] = uint8(int8(v))
		case tensornet.I16:
			le.PutUint16(b, uint16(int16(v)))
		case tensornet.U16:
			le.PutUint16(b, uint16(v))
		case tensornet.I32:
			le.PutUint32(b, uint32(int32(v)))
		case tensornet.U32:
			le.PutUint32(b, uint32(v))
		case tensornet.I64:
			le.PutUint64(b, uint64(int64(v)))
		case tensornet.U64:
			le.PutUint64(b, uint64(v))
		case tensornet.BF16:
			le.PutUint16(b, uint16(math.Float32bits(float32(v))>>16))
		case tensornet.F32:
			le.PutUint32(b, math.Float32bits(float32(v)))
		case tensornet.F64:
			le.PutUint64(b, math.Float64bits(v))
		default:
			return Tensor{}, fmt.Errorf("tensor %q: %w %s", name, ErrUnsupportedDType, dt)
		}
	}
	shape := make([]uint64, len(d.Shape()))
	for i, v := range d.Shape() {
		shape[i] = uint64(v)
	}
	return Tensor{Name: name, DType: dt, Shape: shape, Data: data}, nil
}
