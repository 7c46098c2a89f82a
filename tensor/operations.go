package tensor

import (
	"fmt"
)

func checkCompatibility(t1, t2 *Tensor) error {
	if t1.DType != t2.DType {
		return fmt.Errorf("tensors must have same dtype: %s vs %s", t1.DType, t2.DType)
	}
	return nil
}

func checkShapesCompatible(shape1, shape2 []int) ([]int, error) {
	if len(shape1) == 0 || len(shape2) == 0 {
		return nil, fmt.Errorf("cannot operate on empty tensors")
	}
	if !shapesEqual(shape1, shape2) {
		return nil, fmt.Errorf("tensor shapes must match: %v vs %v", shape1, shape2)
	}
	return shape1, nil
}

func elementwise(t1, t2 *Tensor, op func(a, b float64) float64) (*Tensor, error) {
	if err := checkCompatibility(t1, t2); err != nil {
		return nil, err
	}
	outputShape, err := checkShapesCompatible(t1.Shape, t2.Shape)
	if err != nil {
		return nil, err
	}

	data1, err := t1.Float64s()
	if err != nil {
		return nil, err
	}
	data2, err := t2.Float64s()
	if err != nil {
		return nil, err
	}

	result, err := Zeros(outputShape, Float64)
	if err != nil {
		return nil, err
	}
	resultData := result.Data.([]float64)
	for i := 0; i < t1.NumElems; i++ {
		resultData[i] = op(data1[i], data2[i])
	}
	return result, nil
}

func Add(t1, t2 *Tensor) (*Tensor, error) {
	return elementwise(t1, t2, func(a, b float64) float64 { return a + b })
}

func Sub(t1, t2 *Tensor) (*Tensor, error) {
	return elementwise(t1, t2, func(a, b float64) float64 { return a - b })
}

func Mul(t1, t2 *Tensor) (*Tensor, error) {
	return elementwise(t1, t2, func(a, b float64) float64 { return a * b })
}

// Scale multiplies every element by a scalar, returning a new tensor.
func Scale(t *Tensor, s float64) (*Tensor, error) {
	data, err := t.Float64s()
	if err != nil {
		return nil, err
	}
	result, err := Zeros(t.Shape, Float64)
	if err != nil {
		return nil, err
	}
	resultData := result.Data.([]float64)
	for i := range data {
		resultData[i] = data[i] * s
	}
	return result, nil
}

// Apply maps fn over every element, returning a new tensor.
func Apply(t *Tensor, fn func(float64) float64) (*Tensor, error) {
	data, err := t.Float64s()
	if err != nil {
		return nil, err
	}
	result, err := Zeros(t.Shape, Float64)
	if err != nil {
		return nil, err
	}
	resultData := result.Data.([]float64)
	for i := range data {
		resultData[i] = fn(data[i])
	}
	return result, nil
}
