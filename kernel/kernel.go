package kernel

import (
	"fmt"
	"math/rand"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/tensor"
)

// Kernel assembles a Clifford-steerable convolution kernel: a kernel
// network evaluated over the spatial sampling grid, folded through the
// weighted Cayley contraction and masked by the scalar shell. The result is
// conv-ready, with blade indices fused into the channel axes.
type Kernel struct {
	alg        *algebra.Algebra
	cIn        int
	cOut       int
	kernelSize int

	net           *KernelNetwork
	cayleyWeights *tensor.Tensor
	shell         *ShellWidths
}

// New validates the configuration and initializes all kernel parameters.
// productPathsSum must equal the number of nonzero Cayley entries of the
// algebra; a mismatch would mis-size the per-path weight vector and is
// rejected before any parameter is created.
func New(alg *algebra.Algebra, cIn, cOut, kernelSize int, cfg KernelNetConfig, productPathsSum int, rng *rand.Rand) (*Kernel, error) {
	if alg == nil {
		return nil, configErrorf("algebra must not be nil")
	}
	if cIn < 1 || cOut < 1 {
		return nil, shapeErrorf("channel counts must be positive, got c_in=%d c_out=%d", cIn, cOut)
	}
	if kernelSize < 1 {
		return nil, shapeErrorf("kernel_size must be >= 1, got %d", kernelSize)
	}
	if productPathsSum != alg.ProductPathsSum() {
		return nil, configErrorf("product_paths_sum is %d but the Cayley table has %d nonzero entries", productPathsSum, alg.ProductPathsSum())
	}

	net, err := NewKernelNetwork(cfg, alg.Dim, cOut*cIn*alg.NBlades, rng)
	if err != nil {
		return nil, err
	}

	// Per-path weights start at one, so the initial contraction is the
	// plain geometric product.
	cayleyWeights, err := tensor.Ones([]int{productPathsSum}, tensor.Float64)
	if err != nil {
		return nil, err
	}

	shell, err := NewShellWidths(alg, cOut, cIn, rng)
	if err != nil {
		return nil, err
	}

	return &Kernel{
		alg:           alg,
		cIn:           cIn,
		cOut:          cOut,
		kernelSize:    kernelSize,
		net:           net,
		cayleyWeights: cayleyWeights,
		shell:         shell,
	}, nil
}

func (k *Kernel) Algebra() *algebra.Algebra { return k.alg }
func (k *Kernel) CIn() int                  { return k.cIn }
func (k *Kernel) COut() int                 { return k.cOut }
func (k *Kernel) KernelSize() int           { return k.kernelSize }

// Grid returns the kernel's spatial sampling offsets, centered at the
// origin: (kernelSize^dim, dim) with coordinate i - (kernelSize-1)/2 on
// each axis, row-major over axes.
func (k *Kernel) Grid() (*tensor.Tensor, error) {
	dim := k.alg.Dim
	positions := 1
	for i := 0; i < dim; i++ {
		positions *= k.kernelSize
	}

	center := float64(k.kernelSize-1) / 2
	data := make([]float64, positions*dim)
	for p := 0; p < positions; p++ {
		rest := p
		for axis := dim - 1; axis >= 0; axis-- {
			data[p*dim+axis] = float64(rest%k.kernelSize) - center
			rest /= k.kernelSize
		}
	}

	return tensor.New([]int{positions, dim}, tensor.Float64, data)
}

// Assemble evaluates the steerable kernel, returning shape
// (c_out*n_blades, c_in*n_blades, kernelSize, ..., kernelSize) with one
// spatial axis per algebra dimension. The contraction only mixes blades
// along Cayley-permitted paths, which is what keeps the kernel steerable.
func (k *Kernel) Assemble() (*tensor.Tensor, error) {
	offsets, err := k.Grid()
	if err != nil {
		return nil, err
	}
	positions := offsets.Shape[0]

	raw, err := k.net.Forward(offsets)
	if err != nil {
		return nil, err
	}
	if raw.Shape[1] != k.cOut*k.cIn*k.alg.NBlades {
		return nil, shapeErrorf("kernel network produced width %d, want %d", raw.Shape[1], k.cOut*k.cIn*k.alg.NBlades)
	}
	rawData, err := raw.Float64s()
	if err != nil {
		return nil, err
	}

	weighted, err := WeightedCayley(k.alg, k.cayleyWeights)
	if err != nil {
		return nil, err
	}
	cayleyData, err := weighted.Float64s()
	if err != nil {
		return nil, err
	}

	shellVals, err := EvalShell(k.alg, offsets, k.shell)
	if err != nil {
		return nil, err
	}
	shellData, err := shellVals.Float64s()
	if err != nil {
		return nil, err
	}

	b := k.alg.NBlades
	rows := k.cOut * b
	cols := k.cIn * b

	out, err := tensor.Zeros([]int{rows, cols, positions}, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	// K[o*b+m, i*b+n, p] = shell[p,o,i,m] * sum_j raw[p,o,i,j] * Cw[j,n,m]
	for p := 0; p < positions; p++ {
		for o := 0; o < k.cOut; o++ {
			for i := 0; i < k.cIn; i++ {
				rawBase := (p*k.cOut*k.cIn + o*k.cIn + i) * b
				shellBase := ((p*k.cOut+o)*k.cIn + i) * b
				for m := 0; m < b; m++ {
					mask := shellData[shellBase+m]
					row := o*b + m
					for n := 0; n < b; n++ {
						var acc float64
						for j := 0; j < b; j++ {
							c := cayleyData[(j*b+n)*b+m]
							if c != 0 {
								acc += rawData[rawBase+j] * c
							}
						}
						outData[(row*cols+(i*b+n))*positions+p] = mask * acc
					}
				}
			}
		}
	}

	spatial := make([]int, k.alg.Dim)
	for i := range spatial {
		spatial[i] = k.kernelSize
	}
	return out.Reshape(append([]int{rows, cols}, spatial...))
}

// Parameters exposes the learned state by name for external persistence.
// The returned tensors are the live parameters; callers must not mutate
// them during a concurrent forward evaluation.
func (k *Kernel) Parameters() map[string]*tensor.Tensor {
	params := map[string]*tensor.Tensor{
		"cayley_weights": k.cayleyWeights,
		"shell_width":    k.shell.Raw,
	}
	for i, layer := range k.net.layers {
		params[fmt.Sprintf("network.layer%d.weight", i)] = layer.weight
		params[fmt.Sprintf("network.layer%d.bias", i)] = layer.bias
	}
	return params
}

// LoadParameters replaces the learned state from a named tensor map, shape
// checked per parameter. Unknown names are rejected.
func (k *Kernel) LoadParameters(params map[string]*tensor.Tensor) error {
	current := k.Parameters()
	for name, incoming := range params {
		existing, ok := current[name]
		if !ok {
			return configErrorf("unknown parameter %q", name)
		}
		if !sameShape(existing.Shape, incoming.Shape) {
			return shapeErrorf("parameter %q has shape %v, want %v", name, incoming.Shape, existing.Shape)
		}
		dst, err := existing.Float64s()
		if err != nil {
			return err
		}
		src, err := incoming.Float64s()
		if err != nil {
			return err
		}
		copy(dst, src)
	}
	return nil
}

func sameShape(a, b []int) bool {
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

// ReshapeMV reinterprets a flat (M*n_blades, N*n_blades, spatial...) kernel
// tensor as (M, n_blades, N, n_blades, spatial...). Pure reshape; the
// backing data is shared.
func ReshapeMV(alg *algebra.Algebra, t *tensor.Tensor) (*tensor.Tensor, error) {
	if len(t.Shape) < 2 {
		return nil, shapeErrorf("kernel tensor must have at least 2 dimensions, got %v", t.Shape)
	}
	a, bb := t.Shape[0], t.Shape[1]
	if a%alg.NBlades != 0 || bb%alg.NBlades != 0 {
		return nil, shapeErrorf("kernel axes (%d, %d) are not divisible by blade count %d", a, bb, alg.NBlades)
	}
	newShape := append([]int{a / alg.NBlades, alg.NBlades, bb / alg.NBlades, alg.NBlades}, t.Shape[2:]...)
	return t.Reshape(newShape)
}

// ReshapeBack undoes ReshapeMV, fusing the blade axes back into the
// channel axes.
func ReshapeBack(alg *algebra.Algebra, t *tensor.Tensor) (*tensor.Tensor, error) {
	if len(t.Shape) < 4 {
		return nil, shapeErrorf("multivector kernel tensor must have at least 4 dimensions, got %v", t.Shape)
	}
	if t.Shape[1] != alg.NBlades || t.Shape[3] != alg.NBlades {
		return nil, shapeErrorf("blade axes of %v do not match blade count %d", t.Shape, alg.NBlades)
	}
	newShape := append([]int{t.Shape[0] * alg.NBlades, t.Shape[2] * alg.NBlades}, t.Shape[4:]...)
	return t.Reshape(newShape)
}
