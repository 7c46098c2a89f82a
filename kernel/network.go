package kernel

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tsawler/go-clifford/tensor"
)

// KernelNetConfig configures the position-to-multivector kernel network.
// This is pure configuration; parameters live on the network itself.
type KernelNetConfig struct {
	NumLayers int
	HiddenDim int
	// BiasDims lists the blade indices that receive an additive bias in the
	// convolution wrapper; the network itself does not consume it but the
	// config travels as one unit.
	BiasDims []int
}

func (c KernelNetConfig) validate() error {
	if c.NumLayers < 1 {
		return fmt.Errorf("num_layers must be >= 1, got %d", c.NumLayers)
	}
	if c.NumLayers > 1 && c.HiddenDim < 1 {
		return fmt.Errorf("hidden_dim must be >= 1, got %d", c.HiddenDim)
	}
	return nil
}

type linear struct {
	weight *tensor.Tensor // (in, out)
	bias   *tensor.Tensor // (out)
}

// KernelNetwork is an ordinary feed-forward network mapping a spatial
// offset vector to raw, unconstrained kernel coefficients. Each position is
// mapped independently; there is no cross-position mixing, which is what
// makes the sampled result a valid convolution kernel.
type KernelNetwork struct {
	cfg    KernelNetConfig
	inDim  int
	outDim int
	layers []linear
}

// NewKernelNetwork builds the network with NumLayers linear maps:
// in -> hidden -> ... -> hidden -> out, GELU between consecutive maps.
// Weights use scaled-uniform initialization over the caller's rng.
func NewKernelNetwork(cfg KernelNetConfig, inDim, outDim int, rng *rand.Rand) (*KernelNetwork, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if inDim < 1 || outDim < 1 {
		return nil, fmt.Errorf("network dimensions must be positive, got in=%d out=%d", inDim, outDim)
	}

	dims := make([]int, 0, cfg.NumLayers+1)
	dims = append(dims, inDim)
	for i := 0; i < cfg.NumLayers-1; i++ {
		dims = append(dims, cfg.HiddenDim)
	}
	dims = append(dims, outDim)

	layers := make([]linear, cfg.NumLayers)
	for i := 0; i < cfg.NumLayers; i++ {
		fanIn := dims[i]
		scale := 1.0 / math.Sqrt(float64(fanIn))
		w, err := tensor.Uniform([]int{dims[i], dims[i+1]}, -scale, scale, rng)
		if err != nil {
			return nil, err
		}
		b, err := tensor.Zeros([]int{dims[i+1]}, tensor.Float64)
		if err != nil {
			return nil, err
		}
		layers[i] = linear{weight: w, bias: b}
	}

	return &KernelNetwork{cfg: cfg, inDim: inDim, outDim: outDim, layers: layers}, nil
}

// OutDim is the width of the raw coefficient vector per position.
func (n *KernelNetwork) OutDim() int {
	return n.outDim
}

// Forward evaluates the network on a batch of offset vectors of shape
// (positions, inDim), returning (positions, outDim). Deterministic given
// weights and input; never mutates parameters.
func (n *KernelNetwork) Forward(positions *tensor.Tensor) (*tensor.Tensor, error) {
	if len(positions.Shape) != 2 || positions.Shape[1] != n.inDim {
		return nil, shapeErrorf("kernel network expects positions of shape (N, %d), got %v", n.inDim, positions.Shape)
	}

	x := positions
	for i, layer := range n.layers {
		y, err := tensor.MatMul(x, layer.weight)
		if err != nil {
			return nil, err
		}
		if err := addRowBias(y, layer.bias); err != nil {
			return nil, err
		}
		if i < len(n.layers)-1 {
			y, err = tensor.Apply(y, gelu)
			if err != nil {
				return nil, err
			}
		}
		x = y
	}
	return x, nil
}

// addRowBias adds a (cols) bias vector to every row of a (rows, cols)
// tensor in place.
func addRowBias(t *tensor.Tensor, bias *tensor.Tensor) error {
	if len(t.Shape) != 2 || len(bias.Shape) != 1 || bias.Shape[0] != t.Shape[1] {
		return shapeErrorf("bias shape %v does not match matrix shape %v", bias.Shape, t.Shape)
	}
	data, err := t.Float64s()
	if err != nil {
		return err
	}
	bData, err := bias.Float64s()
	if err != nil {
		return err
	}
	rows, cols := t.Shape[0], t.Shape[1]
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data[r*cols+c] += bData[c]
		}
	}
	return nil
}

// gelu is the exact (erf-based) Gaussian error linear unit.
func gelu(x float64) float64 {
	return 0.5 * x * (1 + math.Erf(x/math.Sqrt2))
}
