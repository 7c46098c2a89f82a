package tensor

import (
	"fmt"

	"github.com/x448/float16"
)

// ToFloat16 converts a Float64 or Float32 tensor to IEEE 754 half precision.
// Out-of-range magnitudes saturate to ±Inf per the float16 rounding rules.
func (t *Tensor) ToFloat16() (*Tensor, error) {
	var bits []uint16

	switch t.DType {
	case Float16:
		return t.Clone()
	case Float64:
		data := t.Data.([]float64)
		bits = make([]uint16, len(data))
		for i, v := range data {
			bits[i] = float16.Fromfloat32(float32(v)).Bits()
		}
	case Float32:
		data := t.Data.([]float32)
		bits = make([]uint16, len(data))
		for i, v := range data {
			bits[i] = float16.Fromfloat32(v).Bits()
		}
	default:
		return nil, fmt.Errorf("unsupported dtype for ToFloat16: %s", t.DType)
	}

	return New(t.Shape, Float16, bits)
}

// ToFloat64 widens a tensor of any supported dtype to Float64.
func (t *Tensor) ToFloat64() (*Tensor, error) {
	switch t.DType {
	case Float64:
		return t.Clone()
	case Float32:
		data := t.Data.([]float32)
		wide := make([]float64, len(data))
		for i, v := range data {
			wide[i] = float64(v)
		}
		return New(t.Shape, Float64, wide)
	case Float16:
		data := t.Data.([]uint16)
		wide := make([]float64, len(data))
		for i, v := range data {
			wide[i] = float64(float16.Frombits(v).Float32())
		}
		return New(t.Shape, Float64, wide)
	default:
		return nil, fmt.Errorf("unsupported dtype for ToFloat64: %s", t.DType)
	}
}
