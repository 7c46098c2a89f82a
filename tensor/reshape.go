package tensor

import (
	"fmt"
)

// Reshape returns a new tensor sharing the same backing data with a
// different shape. The new shape must cover the same number of elements;
// one dimension may be -1 and is inferred.
func (t *Tensor) Reshape(newShape []int) (*Tensor, error) {
	newNumElems := 1
	hasNegOne := false
	negOneIdx := -1

	for i, dim := range newShape {
		if dim < 0 {
			if dim != -1 {
				return nil, fmt.Errorf("negative dimension %d at index %d is not allowed (only -1 is allowed)", dim, i)
			}
			if hasNegOne {
				return nil, fmt.Errorf("only one dimension can be -1")
			}
			hasNegOne = true
			negOneIdx = i
		} else if dim == 0 {
			return nil, fmt.Errorf("dimension %d cannot be 0", i)
		} else {
			newNumElems *= dim
		}
	}

	shape := make([]int, len(newShape))
	copy(shape, newShape)

	if hasNegOne {
		if t.NumElems%newNumElems != 0 {
			return nil, fmt.Errorf("cannot reshape tensor of size %d into shape with -1: size must be divisible by %d", t.NumElems, newNumElems)
		}
		inferred := t.NumElems / newNumElems
		shape[negOneIdx] = inferred
		newNumElems *= inferred
	}

	if newNumElems != t.NumElems {
		return nil, fmt.Errorf("cannot reshape tensor of size %d into shape %v (size %d)", t.NumElems, shape, newNumElems)
	}

	return &Tensor{
		Shape:    shape,
		Strides:  calculateStrides(shape),
		DType:    t.DType,
		Data:     t.Data, // share the backing slice
		NumElems: t.NumElems,
	}, nil
}

// Transpose returns a materialized copy with axes permuted. perm must be a
// permutation of [0, rank).
func (t *Tensor) Transpose(perm []int) (*Tensor, error) {
	rank := len(t.Shape)
	if len(perm) != rank {
		return nil, fmt.Errorf("permutation length %d does not match tensor rank %d", len(perm), rank)
	}
	seen := make([]bool, rank)
	for _, p := range perm {
		if p < 0 || p >= rank {
			return nil, fmt.Errorf("axis %d out of range for rank %d", p, rank)
		}
		if seen[p] {
			return nil, fmt.Errorf("axis %d repeated in permutation %v", p, perm)
		}
		seen[p] = true
	}

	data, err := t.Float64s()
	if err != nil {
		return nil, err
	}

	newShape := make([]int, rank)
	for i, p := range perm {
		newShape[i] = t.Shape[p]
	}

	out, err := Zeros(newShape, Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	srcIdx := make([]int, rank)
	for linear := 0; linear < t.NumElems; linear++ {
		dstIdx := getIndicesFromLinear(linear, newShape)
		for i, p := range perm {
			srcIdx[p] = dstIdx[i]
		}
		outData[linear] = data[getIndex(srcIdx, t.Strides)]
	}

	return out, nil
}

func (t *Tensor) Clone() (*Tensor, error) {
	clone := &Tensor{
		Shape:    make([]int, len(t.Shape)),
		Strides:  make([]int, len(t.Strides)),
		DType:    t.DType,
		NumElems: t.NumElems,
	}
	copy(clone.Shape, t.Shape)
	copy(clone.Strides, t.Strides)

	switch t.DType {
	case Float64:
		if t.Data == nil {
			return nil, fmt.Errorf("tensor has nil data")
		}
		data := t.Data.([]float64)
		cloneData := make([]float64, len(data))
		copy(cloneData, data)
		clone.Data = cloneData
	case Float32:
		if t.Data == nil {
			return nil, fmt.Errorf("tensor has nil data")
		}
		data := t.Data.([]float32)
		cloneData := make([]float32, len(data))
		copy(cloneData, data)
		clone.Data = cloneData
	case Float16:
		if t.Data == nil {
			return nil, fmt.Errorf("tensor has nil data")
		}
		data := t.Data.([]uint16)
		cloneData := make([]uint16, len(data))
		copy(cloneData, data)
		clone.Data = cloneData
	default:
		return nil, fmt.Errorf("unsupported dtype for Clone: %s", t.DType)
	}

	return clone, nil
}
