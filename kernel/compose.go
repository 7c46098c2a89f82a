package kernel

import (
	"math/rand"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/tensor"
)

// ComposedKernel synthesizes an extended-receptive-field steerable kernel
// by convolving two independently parameterized steerable kernels along
// their spatial axes. Convolving two equivariant kernels is itself
// equivariant, so steerability survives the composition.
type ComposedKernel struct {
	k1    *Kernel
	k2    *Kernel
	shell *ComposedShellWidths
}

// NewComposed builds both factor kernels with identical configuration but
// independent parameter draws, plus the pair-of-subspaces shell widths.
func NewComposed(alg *algebra.Algebra, cIn, cOut, kernelSize int, cfg KernelNetConfig, productPathsSum int, rng *rand.Rand) (*ComposedKernel, error) {
	k1, err := New(alg, cIn, cOut, kernelSize, cfg, productPathsSum, rng)
	if err != nil {
		return nil, err
	}
	k2, err := New(alg, cIn, cOut, kernelSize, cfg, productPathsSum, rng)
	if err != nil {
		return nil, err
	}
	shell, err := NewComposedShellWidths(alg, cOut, cIn, rng)
	if err != nil {
		return nil, err
	}
	return &ComposedKernel{k1: k1, k2: k2, shell: shell}, nil
}

// Factors returns the two underlying steerable kernels.
func (ck *ComposedKernel) Factors() (*Kernel, *Kernel) {
	return ck.k1, ck.k2
}

// Shell returns the composed shell widths, indexed by a pair of subspaces.
func (ck *ComposedKernel) Shell() *ComposedShellWidths {
	return ck.shell
}

// Assemble evaluates both factors and convolves them, returning the flat
// (c_out*n_blades, c_in*n_blades, spatial...) layout. With SAME padding the
// spatial kernel size is preserved.
func (ck *ComposedKernel) Assemble() (*tensor.Tensor, error) {
	a1, err := ck.k1.Assemble()
	if err != nil {
		return nil, err
	}
	a2, err := ck.k2.Assemble()
	if err != nil {
		return nil, err
	}
	return ConvKernel(ck.k1.alg, a1, a2)
}

// ConvKernel cross-correlates two assembled kernels blockwise: for every
// (c_out, c_in) pair, the (n_blades, n_blades, spatial...) block of k1 is
// correlated with the matching block of k2 under stride 1 and SAME padding,
// batched over the blade axes by the convolution primitive rather than
// iterated per element.
func ConvKernel(alg *algebra.Algebra, k1, k2 *tensor.Tensor) (*tensor.Tensor, error) {
	r1, err := ReshapeMV(alg, k1)
	if err != nil {
		return nil, err
	}
	r2, err := ReshapeMV(alg, k2)
	if err != nil {
		return nil, err
	}
	if r1.Shape[0] != r2.Shape[0] || r1.Shape[2] != r2.Shape[2] {
		return nil, shapeErrorf("kernel channel blocks disagree: %v vs %v", r1.Shape, r2.Shape)
	}

	rank := len(r1.Shape) - 4
	if rank < 1 {
		return nil, shapeErrorf("kernels must have at least one spatial dimension, got shape %v", k1.Shape)
	}

	// (M, b, N, b, s...) -> (M, N, b, b, s...)
	perm := []int{0, 2, 1, 3}
	for i := 0; i < rank; i++ {
		perm = append(perm, 4+i)
	}
	t1, err := r1.Transpose(perm)
	if err != nil {
		return nil, err
	}
	t2, err := r2.Transpose(perm)
	if err != nil {
		return nil, err
	}

	m, n, b := t1.Shape[0], t1.Shape[1], t1.Shape[2]
	s1 := t1.Shape[4:]
	s2 := t2.Shape[4:]

	stride := make([]int, rank)
	for i := range stride {
		stride[i] = 1
	}
	padBefore, padAfter, err := tensor.SamePadding(s1, s2, stride)
	if err != nil {
		return nil, err
	}

	d1, err := t1.Float64s()
	if err != nil {
		return nil, err
	}
	d2, err := t2.Float64s()
	if err != nil {
		return nil, err
	}

	blockElems1 := b * b * numElements(s1)
	blockElems2 := b * b * numElements(s2)

	outShape := append([]int{m, n, b, b}, s1...)
	out, err := tensor.Zeros(outShape, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)
	blockOut := b * b * numElements(s1)

	for o := 0; o < m; o++ {
		for i := 0; i < n; i++ {
			pair := o*n + i
			in1, err := tensor.New(append([]int{b, b}, s1...), tensor.Float64, d1[pair*blockElems1:(pair+1)*blockElems1])
			if err != nil {
				return nil, err
			}
			in2, err := tensor.New(append([]int{b, b}, s2...), tensor.Float64, d2[pair*blockElems2:(pair+1)*blockElems2])
			if err != nil {
				return nil, err
			}
			conv, err := tensor.CrossCorrelate(in1, in2, stride, padBefore, padAfter)
			if err != nil {
				return nil, err
			}
			convData, err := conv.Float64s()
			if err != nil {
				return nil, err
			}
			copy(outData[pair*blockOut:(pair+1)*blockOut], convData)
		}
	}

	// (M, N, b, b, s...) -> (M, b, N, b, s...)
	back, err := out.Transpose(perm)
	if err != nil {
		return nil, err
	}
	return ReshapeBack(alg, back)
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
