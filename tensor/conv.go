package tensor

import (
	"fmt"
)

// SamePadding computes per-axis zero padding so that a strided
// cross-correlation produces ceil(inSize/stride) outputs, matching the
// "SAME" convention. Asymmetric remainders pad more on the trailing side.
func SamePadding(inSize, kernelSize, stride []int) (before, after []int, err error) {
	if len(inSize) != len(kernelSize) || len(inSize) != len(stride) {
		return nil, nil, fmt.Errorf("rank mismatch: input %d, kernel %d, stride %d", len(inSize), len(kernelSize), len(stride))
	}
	before = make([]int, len(inSize))
	after = make([]int, len(inSize))
	for i := range inSize {
		if stride[i] < 1 {
			return nil, nil, fmt.Errorf("stride must be >= 1, got %d for axis %d", stride[i], i)
		}
		outSize := (inSize[i] + stride[i] - 1) / stride[i]
		total := (outSize-1)*stride[i] + kernelSize[i] - inSize[i]
		if total < 0 {
			total = 0
		}
		before[i] = total / 2
		after[i] = total - before[i]
	}
	return before, after, nil
}

// CrossCorrelate applies direct N-dimensional cross-correlation.
//
//	input:  (N, C, S_1, ..., S_r)
//	filter: (O, C, K_1, ..., K_r)
//	output: (N, O, out_1, ..., out_r) with out_i = (S_i + before_i + after_i - K_i)/stride_i + 1
//
// Zero padding is applied virtually; no padded copy of the input is built.
func CrossCorrelate(input, filter *Tensor, stride, padBefore, padAfter []int) (*Tensor, error) {
	if len(input.Shape) < 3 {
		return nil, fmt.Errorf("input must have at least one spatial dimension, got shape %v", input.Shape)
	}
	rank := len(input.Shape) - 2
	if len(filter.Shape) != rank+2 {
		return nil, fmt.Errorf("filter rank %d does not match input rank %d", len(filter.Shape), len(input.Shape))
	}
	if len(stride) != rank || len(padBefore) != rank || len(padAfter) != rank {
		return nil, fmt.Errorf("stride/padding must have %d entries, got %d/%d/%d", rank, len(stride), len(padBefore), len(padAfter))
	}

	batch := input.Shape[0]
	cIn := input.Shape[1]
	cOut := filter.Shape[0]
	if filter.Shape[1] != cIn {
		return nil, fmt.Errorf("filter input channels %d do not match input channels %d", filter.Shape[1], cIn)
	}

	inSpatial := input.Shape[2:]
	kSpatial := filter.Shape[2:]
	outSpatial := make([]int, rank)
	for i := 0; i < rank; i++ {
		if stride[i] < 1 {
			return nil, fmt.Errorf("stride must be >= 1, got %d for axis %d", stride[i], i)
		}
		span := inSpatial[i] + padBefore[i] + padAfter[i] - kSpatial[i]
		if span < 0 {
			return nil, fmt.Errorf("kernel size %d exceeds padded input size %d on axis %d", kSpatial[i], inSpatial[i]+padBefore[i]+padAfter[i], i)
		}
		outSpatial[i] = span/stride[i] + 1
	}

	inData, err := input.Float64s()
	if err != nil {
		return nil, err
	}
	fData, err := filter.Float64s()
	if err != nil {
		return nil, err
	}

	outShape := append([]int{batch, cOut}, outSpatial...)
	out, err := Zeros(outShape, Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	outSpatialElems := calculateNumElements(outSpatial)
	kSpatialElems := calculateNumElements(kSpatial)
	inSpatialStrides := calculateStrides(inSpatial)

	inPos := make([]int, rank)
	for n := 0; n < batch; n++ {
		for o := 0; o < cOut; o++ {
			for outLinear := 0; outLinear < outSpatialElems; outLinear++ {
				outPos := getIndicesFromLinear(outLinear, outSpatial)
				var acc float64
				for c := 0; c < cIn; c++ {
					inBase := (n*cIn + c) * calculateNumElements(inSpatial)
					fBase := ((o*cIn + c) * kSpatialElems)
					for kLinear := 0; kLinear < kSpatialElems; kLinear++ {
						kPos := getIndicesFromLinear(kLinear, kSpatial)
						inside := true
						for i := 0; i < rank; i++ {
							p := outPos[i]*stride[i] + kPos[i] - padBefore[i]
							if p < 0 || p >= inSpatial[i] {
								inside = false
								break
							}
							inPos[i] = p
						}
						if !inside {
							continue
						}
						acc += inData[inBase+getIndex(inPos, inSpatialStrides)] * fData[fBase+kLinear]
					}
				}
				outData[(n*cOut+o)*outSpatialElems+outLinear] = acc
			}
		}
	}

	return out, nil
}
