package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/tensor"
)

const normEps = 1e-6

// MVLayerNorm divides each channel's multivector by the mean multivector
// magnitude across channels at the same spatial position. The magnitude is
// sqrt(|q|) of the full multivector, an invariant, so the layer commutes
// with the algebra's automorphisms.
//
// x has shape (batch, channels, spatial..., n_blades).
func MVLayerNorm(alg *algebra.Algebra, x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) < 3 || x.Shape[len(x.Shape)-1] != alg.NBlades {
		return nil, fmt.Errorf("input must have shape (batch, channels, spatial..., %d), got %v", alg.NBlades, x.Shape)
	}

	data, err := x.Float64s()
	if err != nil {
		return nil, err
	}

	batch := x.Shape[0]
	channels := x.Shape[1]
	nBlades := alg.NBlades
	spatial := 1
	for _, s := range x.Shape[2 : len(x.Shape)-1] {
		spatial *= s
	}

	out, err := tensor.Zeros(x.Shape, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	norms := make([]float64, channels)
	for n := 0; n < batch; n++ {
		for s := 0; s < spatial; s++ {
			for c := 0; c < channels; c++ {
				base := ((n*channels+c)*spatial + s) * nBlades
				q, err := alg.Q(data[base : base+nBlades])
				if err != nil {
					return nil, err
				}
				norms[c] = math.Sqrt(math.Abs(q))
			}
			mean := floats.Sum(norms) / float64(channels)
			scale := 1 / (mean + normEps)
			for c := 0; c < channels; c++ {
				base := ((n*channels+c)*spatial + s) * nBlades
				for b := 0; b < nBlades; b++ {
					outData[base+b] = data[base+b] * scale
				}
			}
		}
	}

	return out, nil
}

// GradeNorm normalizes each grade's blade block by that grade's invariant
// magnitude, so every grade component comes out at unit scale. Shape is
// preserved.
func GradeNorm(alg *algebra.Algebra, x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) < 1 || x.Shape[len(x.Shape)-1] != alg.NBlades {
		return nil, fmt.Errorf("last axis must index %d blades, got shape %v", alg.NBlades, x.Shape)
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

	nBlades := alg.NBlades
	masked := make([]float64, nBlades)
	for base := 0; base < len(data); base += nBlades {
		blade := 0
		for g := 0; g < alg.NSubspaces; g++ {
			span := alg.Subspaces[g]
			for i := range masked {
				masked[i] = 0
			}
			copy(masked[blade:blade+span], data[base+blade:base+blade+span])
			q, err := alg.Q(masked)
			if err != nil {
				return nil, err
			}
			scale := 1 / (math.Sqrt(math.Abs(q)) + normEps)
			for b := blade; b < blade+span; b++ {
				outData[base+b] = data[base+b] * scale
			}
			blade += span
		}
	}

	return out, nil
}
