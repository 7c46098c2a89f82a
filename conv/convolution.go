package conv

import (
	"fmt"
	"math/rand"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/kernel"
	"github.com/tsawler/go-clifford/tensor"
)

// Padding selects the spatial padding policy of the convolution.
type Padding int

const (
	// PaddingSame zero-pads so output spatial size is ceil(in/stride).
	PaddingSame Padding = iota
	// PaddingValid applies no padding.
	PaddingValid
)

func (p Padding) String() string {
	switch p {
	case PaddingSame:
		return "SAME"
	case PaddingValid:
		return "VALID"
	default:
		return "Unknown"
	}
}

// Config is the pure configuration of a Clifford-steerable convolution.
type Config struct {
	Algebra         *algebra.Algebra
	CIn             int
	COut            int
	KernelSize      int
	NumLayers       int
	HiddenDim       int
	BiasDims        []int
	ProductPathsSum int
	Stride          int
	Padding         Padding
	Bias            bool
}

// CliffordSteerableConv applies a steerable kernel to a multivector field
// by standard multi-dimensional cross-correlation. The kernel core hands
// over a conv-ready tensor with blades fused into channels, so this wrapper
// only fuses/defuses the blade axis and runs the correlation.
type CliffordSteerableConv struct {
	cfg    Config
	kernel *kernel.Kernel
	bias   *tensor.Tensor // (c_out, len(BiasDims)); nil when Bias is false
}

// New validates the configuration and initializes the layer's parameters.
func New(cfg Config, rng *rand.Rand) (*CliffordSteerableConv, error) {
	if cfg.Stride < 1 {
		cfg.Stride = 1
	}

	netCfg := kernel.KernelNetConfig{
		NumLayers: cfg.NumLayers,
		HiddenDim: cfg.HiddenDim,
		BiasDims:  cfg.BiasDims,
	}
	k, err := kernel.New(cfg.Algebra, cfg.CIn, cfg.COut, cfg.KernelSize, netCfg, cfg.ProductPathsSum, rng)
	if err != nil {
		return nil, err
	}

	layer := &CliffordSteerableConv{cfg: cfg, kernel: k}
	if cfg.Bias && len(cfg.BiasDims) > 0 {
		for _, d := range cfg.BiasDims {
			if d < 0 || d >= cfg.Algebra.NBlades {
				return nil, &kernel.ShapeError{Msg: fmt.Sprintf("bias blade index %d out of range [0, %d)", d, cfg.Algebra.NBlades)}
			}
		}
		b, err := tensor.Zeros([]int{cfg.COut, len(cfg.BiasDims)}, tensor.Float64)
		if err != nil {
			return nil, err
		}
		layer.bias = b
	}
	return layer, nil
}

// Kernel returns the underlying steerable kernel.
func (c *CliffordSteerableConv) Kernel() *kernel.Kernel {
	return c.kernel
}

// Parameters exposes the layer's learned state by name.
func (c *CliffordSteerableConv) Parameters() map[string]*tensor.Tensor {
	params := c.kernel.Parameters()
	if c.bias != nil {
		params["bias"] = c.bias
	}
	return params
}

// Forward convolves an input multivector field of shape
// (batch, c_in, S_1, ..., S_d, n_blades) and returns
// (batch, c_out, out_1, ..., out_d, n_blades). Shape errors surface before
// any arithmetic runs.
func (c *CliffordSteerableConv) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	alg := c.cfg.Algebra
	rank := alg.Dim

	if len(x.Shape) != rank+3 {
		return nil, &kernel.ShapeError{Msg: fmt.Sprintf("input must have shape (batch, c_in, spatial..., n_blades) with %d spatial dimensions, got %v", rank, x.Shape)}
	}
	if x.Shape[1] != c.cfg.CIn {
		return nil, &kernel.ShapeError{Msg: fmt.Sprintf("input has %d channels, layer expects %d", x.Shape[1], c.cfg.CIn)}
	}
	if x.Shape[len(x.Shape)-1] != alg.NBlades {
		return nil, &kernel.ShapeError{Msg: fmt.Sprintf("input blade axis has size %d, algebra has %d blades", x.Shape[len(x.Shape)-1], alg.NBlades)}
	}

	k, err := c.kernel.Assemble()
	if err != nil {
		return nil, err
	}

	fused, err := fuseBlades(x, rank)
	if err != nil {
		return nil, err
	}

	stride := make([]int, rank)
	kSize := make([]int, rank)
	for i := 0; i < rank; i++ {
		stride[i] = c.cfg.Stride
		kSize[i] = c.cfg.KernelSize
	}

	var padBefore, padAfter []int
	switch c.cfg.Padding {
	case PaddingSame:
		padBefore, padAfter, err = tensor.SamePadding(fused.Shape[2:], kSize, stride)
		if err != nil {
			return nil, err
		}
	default:
		padBefore = make([]int, rank)
		padAfter = make([]int, rank)
	}

	y, err := tensor.CrossCorrelate(fused, k, stride, padBefore, padAfter)
	if err != nil {
		return nil, err
	}

	out, err := defuseBlades(y, rank, alg.NBlades)
	if err != nil {
		return nil, err
	}

	if c.bias != nil {
		if err := c.addBias(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fuseBlades moves the trailing blade axis next to the channel axis and
// flattens them: (N, C, S..., B) -> (N, C*B, S...).
func fuseBlades(x *tensor.Tensor, rank int) (*tensor.Tensor, error) {
	perm := []int{0, 1, rank + 2}
	for i := 0; i < rank; i++ {
		perm = append(perm, 2+i)
	}
	t, err := x.Transpose(perm)
	if err != nil {
		return nil, err
	}
	newShape := append([]int{x.Shape[0], x.Shape[1] * x.Shape[rank+2]}, x.Shape[2:rank+2]...)
	return t.Reshape(newShape)
}

// defuseBlades splits the fused channel axis and moves blades back to the
// end: (N, C*B, S...) -> (N, C, S..., B).
func defuseBlades(y *tensor.Tensor, rank, nBlades int) (*tensor.Tensor, error) {
	cOut := y.Shape[1] / nBlades
	split, err := y.Reshape(append([]int{y.Shape[0], cOut, nBlades}, y.Shape[2:]...))
	if err != nil {
		return nil, err
	}
	perm := []int{0, 1}
	for i := 0; i < rank; i++ {
		perm = append(perm, 3+i)
	}
	perm = append(perm, 2)
	return split.Transpose(perm)
}

// addBias adds the (c_out, len(BiasDims)) bias to the listed blade indices
// of every output position, in place.
func (c *CliffordSteerableConv) addBias(out *tensor.Tensor) error {
	data, err := out.Float64s()
	if err != nil {
		return err
	}
	bData, err := c.bias.Float64s()
	if err != nil {
		return err
	}

	nBlades := c.cfg.Algebra.NBlades
	batch := out.Shape[0]
	cOut := out.Shape[1]
	spatial := 1
	for _, s := range out.Shape[2 : len(out.Shape)-1] {
		spatial *= s
	}

	for n := 0; n < batch; n++ {
		for o := 0; o < cOut; o++ {
			for s := 0; s < spatial; s++ {
				base := ((n*cOut+o)*spatial + s) * nBlades
				for bi, blade := range c.cfg.BiasDims {
					data[base+blade] += bData[o*len(c.cfg.BiasDims)+bi]
				}
			}
		}
	}
	return nil
}
