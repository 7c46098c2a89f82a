package tensor

import (
	"fmt"
)

type DType int

const (
	Float64 DType = iota
	Float32
	Float16
)

func (d DType) String() string {
	switch d {
	case Float64:
		return "Float64"
	case Float32:
		return "Float32"
	case Float16:
		return "Float16"
	default:
		return "Unknown"
	}
}

// Tensor is a dense, row-major, CPU-resident n-dimensional array.
// Float64 is the working dtype for all kernel math; Float32 and Float16
// exist for compact parameter storage and interchange.
type Tensor struct {
	Shape    []int
	Strides  []int
	DType    DType
	Data     interface{}
	NumElems int
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, dtype=%s, elements=%d)", t.Shape, t.DType, t.NumElems)
}

// Float64s returns the backing slice of a Float64 tensor.
func (t *Tensor) Float64s() ([]float64, error) {
	if t.DType != Float64 {
		return nil, fmt.Errorf("tensor dtype is %s, not Float64", t.DType)
	}
	data, ok := t.Data.([]float64)
	if !ok || data == nil {
		return nil, fmt.Errorf("tensor has nil or mistyped data")
	}
	return data, nil
}

// At reads the element at a multi-dimensional index of a Float64 tensor.
func (t *Tensor) At(indices ...int) (float64, error) {
	if len(indices) != len(t.Shape) {
		return 0, fmt.Errorf("index rank %d does not match tensor rank %d", len(indices), len(t.Shape))
	}
	data, err := t.Float64s()
	if err != nil {
		return 0, err
	}
	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape[i] {
			return 0, fmt.Errorf("index %d out of range for dimension %d (size %d)", idx, i, t.Shape[i])
		}
	}
	return data[getIndex(indices, t.Strides)], nil
}

// Set writes the element at a multi-dimensional index of a Float64 tensor.
func (t *Tensor) Set(value float64, indices ...int) error {
	if len(indices) != len(t.Shape) {
		return fmt.Errorf("index rank %d does not match tensor rank %d", len(indices), len(t.Shape))
	}
	data, err := t.Float64s()
	if err != nil {
		return err
	}
	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape[i] {
			return fmt.Errorf("index %d out of range for dimension %d (size %d)", idx, i, t.Shape[i])
		}
	}
	data[getIndex(indices, t.Strides)] = value
	return nil
}

func getIndex(indices []int, strides []int) int {
	index := 0
	for i, idx := range indices {
		index += idx * strides[i]
	}
	return index
}

func getIndicesFromLinear(linearIndex int, shape []int) []int {
	indices := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		indices[i] = linearIndex % shape[i]
		linearIndex /= shape[i]
	}
	return indices
}

func calculateStrides(shape []int) []int {
	if len(shape) == 0 {
		return []int{}
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func calculateNumElements(shape []int) int {
	if len(shape) == 0 {
		return 0
	}

	elements := 1
	for _, dim := range shape {
		elements *= dim
	}
	return elements
}

func validateShape(shape []int) error {
	for i, dim := range shape {
		if dim <= 0 {
			return fmt.Errorf("invalid shape: dimension %d has size %d, must be positive", i, dim)
		}
	}
	return nil
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
