package models

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/conv"
	"github.com/tsawler/go-clifford/tensor"
)

// BlockConfig configures one residual basic block.
type BlockConfig struct {
	Algebra         *algebra.Algebra
	InChannels      int
	Channels        int
	ProductPathsSum int
	Norm            bool
	NumLayers       int
	HiddenDim       int
	KernelSize      int
	BiasDims        []int
	Stride          int
	Expansion       int
}

// BasicBlock is the residual unit of the Clifford-steerable ResNet:
// conv -> norm -> gelu -> conv -> norm -> (+ shortcut) -> gelu.
type BasicBlock struct {
	cfg      BlockConfig
	conv1    *conv.CliffordSteerableConv
	conv2    *conv.CliffordSteerableConv
	shortcut *conv.CliffordSteerableConv // nil when the identity shortcut applies
}

func NewBasicBlock(cfg BlockConfig, rng *rand.Rand) (*BasicBlock, error) {
	if cfg.Stride == 0 {
		cfg.Stride = 1
	}
	if cfg.Expansion == 0 {
		cfg.Expansion = 1
	}

	convCfg := conv.Config{
		Algebra:         cfg.Algebra,
		KernelSize:      cfg.KernelSize,
		NumLayers:       cfg.NumLayers,
		HiddenDim:       cfg.HiddenDim,
		BiasDims:        cfg.BiasDims,
		ProductPathsSum: cfg.ProductPathsSum,
		Stride:          cfg.Stride,
		Padding:         conv.PaddingSame,
		Bias:            true,
	}

	c1 := convCfg
	c1.CIn = cfg.InChannels
	c1.COut = cfg.Channels
	conv1, err := conv.New(c1, rng)
	if err != nil {
		return nil, err
	}

	c2 := convCfg
	c2.CIn = cfg.Channels
	c2.COut = cfg.Channels
	conv2, err := conv.New(c2, rng)
	if err != nil {
		return nil, err
	}

	block := &BasicBlock{cfg: cfg, conv1: conv1, conv2: conv2}

	if cfg.Stride != 1 || cfg.InChannels != cfg.Expansion*cfg.Channels {
		cs := convCfg
		cs.CIn = cfg.InChannels
		cs.COut = cfg.Expansion * cfg.Channels
		shortcut, err := conv.New(cs, rng)
		if err != nil {
			return nil, err
		}
		block.shortcut = shortcut
	}

	return block, nil
}

func (b *BasicBlock) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	alg := b.cfg.Algebra

	out, err := b.conv1.Forward(x)
	if err != nil {
		return nil, err
	}
	if b.cfg.Norm {
		if out, err = MVLayerNorm(alg, out); err != nil {
			return nil, err
		}
	}
	if out, err = MVGELU(out, alg.NBlades); err != nil {
		return nil, err
	}

	if out, err = b.conv2.Forward(out); err != nil {
		return nil, err
	}
	if b.cfg.Norm {
		if out, err = MVLayerNorm(alg, out); err != nil {
			return nil, err
		}
	}

	residual := x
	if b.shortcut != nil {
		if residual, err = b.shortcut.Forward(x); err != nil {
			return nil, err
		}
		if b.cfg.Norm {
			if residual, err = MVLayerNorm(alg, residual); err != nil {
				return nil, err
			}
		}
	}

	sum, err := tensor.Add(out, residual)
	if err != nil {
		return nil, err
	}
	return MVGELU(sum, alg.NBlades)
}

// ResNetConfig configures the Clifford-steerable ResNet classifier.
type ResNetConfig struct {
	Algebra         *algebra.Algebra
	CIn             int
	COut            int
	HiddenChannels  int
	KernelNumLayers int
	KernelHiddenDim int
	KernelSize      int
	BiasDims        []int
	ProductPathsSum int
	Blocks          []int
	Norm            bool
	OutFeatures     int
	// SpatialSize fixes the input field's spatial extent so the dense head
	// can be sized at construction.
	SpatialSize []int
}

// ResNetMnist classifies stacked MNIST-like multivector fields:
// two 1x1 embedding convolutions, a stack of basic blocks, two 1x1 head
// convolutions, grade normalization, then a dense readout.
type ResNetMnist struct {
	cfg    ResNetConfig
	embed1 *conv.CliffordSteerableConv
	embed2 *conv.CliffordSteerableConv
	blocks []*BasicBlock
	head1  *conv.CliffordSteerableConv
	head2  *conv.CliffordSteerableConv

	denseW *tensor.Tensor // (features, out_features)
	denseB *tensor.Tensor // (out_features)
}

func NewResNetMnist(cfg ResNetConfig, rng *rand.Rand) (*ResNetMnist, error) {
	alg := cfg.Algebra
	if alg == nil {
		return nil, fmt.Errorf("algebra must not be nil")
	}
	if len(cfg.SpatialSize) != alg.Dim {
		return nil, fmt.Errorf("spatial size %v must have %d dimensions", cfg.SpatialSize, alg.Dim)
	}

	oneByOne := conv.Config{
		Algebra:         alg,
		KernelSize:      1,
		NumLayers:       cfg.KernelNumLayers,
		HiddenDim:       cfg.KernelHiddenDim,
		BiasDims:        cfg.BiasDims,
		ProductPathsSum: cfg.ProductPathsSum,
		Stride:          1,
		Padding:         conv.PaddingSame,
	}

	e1 := oneByOne
	e1.CIn, e1.COut = cfg.CIn, cfg.HiddenChannels
	embed1, err := conv.New(e1, rng)
	if err != nil {
		return nil, err
	}
	e2 := oneByOne
	e2.CIn, e2.COut = cfg.HiddenChannels, cfg.HiddenChannels
	embed2, err := conv.New(e2, rng)
	if err != nil {
		return nil, err
	}

	var blocks []*BasicBlock
	for _, count := range cfg.Blocks {
		for i := 0; i < count; i++ {
			block, err := NewBasicBlock(BlockConfig{
				Algebra:         alg,
				InChannels:      cfg.HiddenChannels,
				Channels:        cfg.HiddenChannels,
				ProductPathsSum: cfg.ProductPathsSum,
				Norm:            cfg.Norm,
				NumLayers:       cfg.KernelNumLayers,
				HiddenDim:       cfg.KernelHiddenDim,
				KernelSize:      cfg.KernelSize,
				BiasDims:        cfg.BiasDims,
			}, rng)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
	}

	h1 := oneByOne
	h1.CIn, h1.COut = cfg.HiddenChannels, cfg.HiddenChannels
	head1, err := conv.New(h1, rng)
	if err != nil {
		return nil, err
	}
	h2 := oneByOne
	h2.CIn, h2.COut = cfg.HiddenChannels, cfg.COut
	head2, err := conv.New(h2, rng)
	if err != nil {
		return nil, err
	}

	features := cfg.COut * alg.NBlades
	for _, s := range cfg.SpatialSize {
		features *= s
	}
	scale := 1.0 / math.Sqrt(float64(features))
	denseW, err := tensor.Uniform([]int{features, cfg.OutFeatures}, -scale, scale, rng)
	if err != nil {
		return nil, err
	}
	denseB, err := tensor.Zeros([]int{cfg.OutFeatures}, tensor.Float64)
	if err != nil {
		return nil, err
	}

	return &ResNetMnist{
		cfg:    cfg,
		embed1: embed1,
		embed2: embed2,
		blocks: blocks,
		head1:  head1,
		head2:  head2,
		denseW: denseW,
		denseB: denseB,
	}, nil
}

// Forward maps an input field (batch, c_in, spatial..., n_blades) to class
// logits (batch, out_features).
func (m *ResNetMnist) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	alg := m.cfg.Algebra

	out, err := m.embed1.Forward(x)
	if err != nil {
		return nil, err
	}
	if out, err = MVGELU(out, alg.NBlades); err != nil {
		return nil, err
	}
	if out, err = m.embed2.Forward(out); err != nil {
		return nil, err
	}
	if out, err = MVGELU(out, alg.NBlades); err != nil {
		return nil, err
	}

	for _, block := range m.blocks {
		if out, err = block.Forward(out); err != nil {
			return nil, err
		}
	}

	if out, err = m.head1.Forward(out); err != nil {
		return nil, err
	}
	if out, err = MVGELU(out, alg.NBlades); err != nil {
		return nil, err
	}
	if out, err = m.head2.Forward(out); err != nil {
		return nil, err
	}

	if out, err = GradeNorm(alg, out); err != nil {
		return nil, err
	}

	flat, err := out.Reshape([]int{out.Shape[0], -1})
	if err != nil {
		return nil, err
	}
	if flat.Shape[1] != m.denseW.Shape[0] {
		return nil, fmt.Errorf("flattened features %d do not match dense head input %d", flat.Shape[1], m.denseW.Shape[0])
	}

	logits, err := tensor.MatMul(flat, m.denseW)
	if err != nil {
		return nil, err
	}
	data, err := logits.Float64s()
	if err != nil {
		return nil, err
	}
	bData, err := m.denseB.Float64s()
	if err != nil {
		return nil, err
	}
	outF := len(bData)
	for r := 0; r < logits.Shape[0]; r++ {
		for c := 0; c < outF; c++ {
			data[r*outF+c] += bData[c]
		}
	}
	return logits, nil
}
