package tensor

import (
	"fmt"
	"math/rand"

	"github.com/x448/float16"
)

func New(shape []int, dtype DType, data interface{}) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	numElems := calculateNumElements(shape)
	strides := calculateStrides(shape)

	t := &Tensor{
		Shape:    shape,
		Strides:  strides,
		DType:    dtype,
		NumElems: numElems,
	}

	if data != nil {
		if err := t.setData(data); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Tensor) setData(data interface{}) error {
	switch t.DType {
	case Float64:
		switch d := data.(type) {
		case []float64:
			if len(d) != t.NumElems {
				return fmt.Errorf("data length %d does not match tensor size %d", len(d), t.NumElems)
			}
			t.Data = d
		case float64:
			slice := make([]float64, t.NumElems)
			for i := range slice {
				slice[i] = d
			}
			t.Data = slice
		default:
			return fmt.Errorf("unsupported data type for Float64 tensor: %T", data)
		}
	case Float32:
		switch d := data.(type) {
		case []float32:
			if len(d) != t.NumElems {
				return fmt.Errorf("data length %d does not match tensor size %d", len(d), t.NumElems)
			}
			t.Data = d
		case float32:
			slice := make([]float32, t.NumElems)
			for i := range slice {
				slice[i] = d
			}
			t.Data = slice
		default:
			return fmt.Errorf("unsupported data type for Float32 tensor: %T", data)
		}
	case Float16:
		switch d := data.(type) {
		case []uint16:
			if len(d) != t.NumElems {
				return fmt.Errorf("data length %d does not match tensor size %d", len(d), t.NumElems)
			}
			t.Data = d
		default:
			return fmt.Errorf("unsupported data type for Float16 tensor: %T", data)
		}
	default:
		return fmt.Errorf("unsupported dtype: %s", t.DType)
	}
	return nil
}

func Zeros(shape []int, dtype DType) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	numElems := calculateNumElements(shape)

	var data interface{}
	switch dtype {
	case Float64:
		data = make([]float64, numElems)
	case Float32:
		data = make([]float32, numElems)
	case Float16:
		data = make([]uint16, numElems)
	default:
		return nil, fmt.Errorf("unsupported dtype for Zeros: %s", dtype)
	}

	return New(shape, dtype, data)
}

func Ones(shape []int, dtype DType) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	numElems := calculateNumElements(shape)

	var data interface{}
	switch dtype {
	case Float64:
		slice := make([]float64, numElems)
		for i := range slice {
			slice[i] = 1.0
		}
		data = slice
	case Float32:
		slice := make([]float32, numElems)
		for i := range slice {
			slice[i] = 1.0
		}
		data = slice
	case Float16:
		one := float16.Fromfloat32(1.0).Bits()
		slice := make([]uint16, numElems)
		for i := range slice {
			slice[i] = one
		}
		data = slice
	default:
		return nil, fmt.Errorf("unsupported dtype for Ones: %s", dtype)
	}

	return New(shape, dtype, data)
}

func Full(shape []int, value interface{}, dtype DType) (*Tensor, error) {
	return New(shape, dtype, value)
}

// Uniform draws Float64 samples from the half-open interval [lo, hi).
// The caller owns the rng, so repeated construction with the same seed is
// reproducible.
func Uniform(shape []int, lo, hi float64, rng *rand.Rand) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}
	if hi <= lo {
		return nil, fmt.Errorf("invalid uniform range [%g, %g)", lo, hi)
	}

	numElems := calculateNumElements(shape)
	slice := make([]float64, numElems)
	for i := range slice {
		slice[i] = lo + (hi-lo)*rng.Float64()
	}

	return New(shape, Float64, slice)
}

// RandomNormal draws Float64 samples from a normal distribution.
func RandomNormal(shape []int, mean, std float64, rng *rand.Rand) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	numElems := calculateNumElements(shape)
	slice := make([]float64, numElems)
	for i := range slice {
		slice[i] = rng.NormFloat64()*std + mean
	}

	return New(shape, Float64, slice)
}
