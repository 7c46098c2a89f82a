package kernel

import (
	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/tensor"
)

// WeightedCayley scales each nonzero structure constant of the algebra's
// Cayley table by exactly one learned weight. Weights are consumed in flat
// row-major order over (i, j, k), so the path-to-weight assignment is
// stable across calls. The zero pattern of the table is preserved exactly.
func WeightedCayley(alg *algebra.Algebra, weights *tensor.Tensor) (*tensor.Tensor, error) {
	if len(weights.Shape) != 1 {
		return nil, configErrorf("cayley weights must be a vector, got shape %v", weights.Shape)
	}
	if weights.Shape[0] != alg.ProductPathsSum() {
		return nil, configErrorf("cayley weight vector has length %d, algebra has %d product paths", weights.Shape[0], alg.ProductPathsSum())
	}

	wData, err := weights.Float64s()
	if err != nil {
		return nil, err
	}

	weighted, err := alg.Cayley()
	if err != nil {
		return nil, err
	}
	data, err := weighted.Float64s()
	if err != nil {
		return nil, err
	}

	wi := 0
	for flat, onPath := range alg.GeometricProductPaths() {
		if onPath {
			data[flat] *= wData[wi]
			wi++
		}
	}

	return weighted, nil
}
