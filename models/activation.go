package models

import (
	"fmt"
	"math"

	"github.com/tsawler/go-clifford/tensor"
)

// MVGELU applies a multivector GELU: every blade of a multivector is gated
// by the Gaussian CDF of its invariant scalar blade. The scalar blade
// itself receives the ordinary GELU, and the gate is grade-blind, so
// equivariance is untouched.
func MVGELU(x *tensor.Tensor, nBlades int) (*tensor.Tensor, error) {
	if len(x.Shape) < 1 || x.Shape[len(x.Shape)-1] != nBlades {
		return nil, fmt.Errorf("last axis must index %d blades, got shape %v", nBlades, x.Shape)
	}

	data, err := x.Float64s()
	if err != nil {
		return nil, err
	}

	out, err := tensor.Zeros(x.Shape, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	for base := 0; base < len(data); base += nBlades {
		gate := 0.5 * (1 + math.Erf(data[base]/math.Sqrt2))
		for b := 0; b < nBlades; b++ {
			outData[base+b] = data[base+b] * gate
		}
	}
	return out, nil
}
