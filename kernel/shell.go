package kernel

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/tensor"
)

const (
	// widthFloor is added to the raw width draw so an initialized width is
	// always strictly positive.
	widthFloor = 0.4
	// rawWidthScale bounds the uniform initializer of the raw widths.
	rawWidthScale = 0.2
	// degenerateWidth is the threshold below which a width produces a
	// near-delta mask; crossing it is logged, not raised.
	degenerateWidth = 1e-3
)

// ComputeScalarShell evaluates the signed radial mask
// sign(q(v)) * exp(-|q(v)| / (2 sigma^2)) for a spatial offset v, where q is
// the algebra's quadratic form on the grade-1 embedding of v. The sign is +1
// when q(v) >= 0, so the shell equals +1 at the origin; across the null cone
// of a Lorentzian signature it flips polarity.
func ComputeScalarShell(alg *algebra.Algebra, v []float64, sigma float64) (float64, error) {
	mv, err := alg.EmbedGrade(v, 1)
	if err != nil {
		return 0, err
	}
	q, err := alg.Q(mv)
	if err != nil {
		return 0, err
	}
	return shellValue(q, sigma), nil
}

func shellValue(q, sigma float64) float64 {
	sgn := 1.0
	if q < 0 {
		sgn = -1
	}
	return sgn * math.Exp(-math.Abs(q)/(2*sigma*sigma))
}

// ShellWidths holds the learned radial widths of the scalar shell, one per
// (c_out, c_in, grade) combination. Every blade within a grade shares one
// width.
type ShellWidths struct {
	// Raw is the unconstrained parameter of shape (c_out, c_in, n_subspaces);
	// the effective width is Raw + widthFloor.
	Raw *tensor.Tensor
}

// NewShellWidths draws raw widths from [0, rawWidthScale), giving effective
// widths in [widthFloor, widthFloor+rawWidthScale).
func NewShellWidths(alg *algebra.Algebra, cOut, cIn int, rng *rand.Rand) (*ShellWidths, error) {
	raw, err := tensor.Uniform([]int{cOut, cIn, alg.NSubspaces}, 0, rawWidthScale, rng)
	if err != nil {
		return nil, err
	}
	return &ShellWidths{Raw: raw}, nil
}

// PerBlade broadcasts the effective widths from per-subspace to per-blade
// resolution by repeating each grade's width across that grade's blade
// span, returning shape (c_out, c_in, n_blades). Widths that have collapsed
// toward zero are reported as a warning.
func (w *ShellWidths) PerBlade(alg *algebra.Algebra) (*tensor.Tensor, error) {
	if len(w.Raw.Shape) != 3 || w.Raw.Shape[2] != alg.NSubspaces {
		return nil, shapeErrorf("shell width tensor has shape %v, want (c_out, c_in, %d)", w.Raw.Shape, alg.NSubspaces)
	}
	raw, err := w.Raw.Float64s()
	if err != nil {
		return nil, err
	}

	cOut, cIn := w.Raw.Shape[0], w.Raw.Shape[1]
	out, err := tensor.Zeros([]int{cOut, cIn, alg.NBlades}, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	for o := 0; o < cOut; o++ {
		for i := 0; i < cIn; i++ {
			blade := 0
			for g := 0; g < alg.NSubspaces; g++ {
				width := raw[(o*cIn+i)*alg.NSubspaces+g] + widthFloor
				if math.Abs(width) < degenerateWidth {
					slog.Warn("scalar shell width collapsed toward zero",
						"c_out", o, "c_in", i, "grade", g, "width", width)
				}
				for b := 0; b < alg.Subspaces[g]; b++ {
					outData[(o*cIn+i)*alg.NBlades+blade] = width
					blade++
				}
			}
		}
	}

	return out, nil
}

// EvalShell evaluates the scalar shell at a batch of offsets of shape
// (positions, dim), returning (positions, c_out, c_in, n_blades).
func EvalShell(alg *algebra.Algebra, offsets *tensor.Tensor, w *ShellWidths) (*tensor.Tensor, error) {
	if len(offsets.Shape) != 2 || offsets.Shape[1] != alg.Dim {
		return nil, shapeErrorf("offsets must have shape (N, %d), got %v", alg.Dim, offsets.Shape)
	}

	widths, err := w.PerBlade(alg)
	if err != nil {
		return nil, err
	}
	wData := widths.Data.([]float64)
	cOut, cIn := widths.Shape[0], widths.Shape[1]

	offData, err := offsets.Float64s()
	if err != nil {
		return nil, err
	}
	positions := offsets.Shape[0]

	out, err := tensor.Zeros([]int{positions, cOut, cIn, alg.NBlades}, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	widthElems := cOut * cIn * alg.NBlades
	for p := 0; p < positions; p++ {
		v := offData[p*alg.Dim : (p+1)*alg.Dim]
		mv, err := alg.EmbedGrade(v, 1)
		if err != nil {
			return nil, err
		}
		q, err := alg.Q(mv)
		if err != nil {
			return nil, err
		}
		for i := 0; i < widthElems; i++ {
			outData[p*widthElems+i] = shellValue(q, wData[i])
		}
	}

	return out, nil
}

// ComposedShellWidths indexes the shell widths by a pair of subspaces,
// matching the outer structure of a composed kernel's two factors.
type ComposedShellWidths struct {
	// Raw has shape (c_out, c_in, n_subspaces, n_subspaces).
	Raw *tensor.Tensor
}

func NewComposedShellWidths(alg *algebra.Algebra, cOut, cIn int, rng *rand.Rand) (*ComposedShellWidths, error) {
	raw, err := tensor.Uniform([]int{cOut, cIn, alg.NSubspaces, alg.NSubspaces}, 0, rawWidthScale, rng)
	if err != nil {
		return nil, err
	}
	return &ComposedShellWidths{Raw: raw}, nil
}

// PerBlade broadcasts paired widths to (c_out, c_in, n_blades, n_blades) by
// repeating along both blade axes, outer axis first.
func (w *ComposedShellWidths) PerBlade(alg *algebra.Algebra) (*tensor.Tensor, error) {
	if len(w.Raw.Shape) != 4 || w.Raw.Shape[2] != alg.NSubspaces || w.Raw.Shape[3] != alg.NSubspaces {
		return nil, shapeErrorf("composed shell width tensor has shape %v, want (c_out, c_in, %d, %d)", w.Raw.Shape, alg.NSubspaces, alg.NSubspaces)
	}
	raw, err := w.Raw.Float64s()
	if err != nil {
		return nil, err
	}

	cOut, cIn := w.Raw.Shape[0], w.Raw.Shape[1]
	nSub, nBlades := alg.NSubspaces, alg.NBlades
	out, err := tensor.Zeros([]int{cOut, cIn, nBlades, nBlades}, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	// bladeGrade[b] = subspace owning blade b
	bladeGrade := make([]int, nBlades)
	blade := 0
	for g := 0; g < nSub; g++ {
		for b := 0; b < alg.Subspaces[g]; b++ {
			bladeGrade[blade] = g
			blade++
		}
	}

	for o := 0; o < cOut; o++ {
		for i := 0; i < cIn; i++ {
			for m := 0; m < nBlades; m++ {
				for n := 0; n < nBlades; n++ {
					width := raw[((o*cIn+i)*nSub+bladeGrade[m])*nSub+bladeGrade[n]] + widthFloor
					if math.Abs(width) < degenerateWidth {
						slog.Warn("composed scalar shell width collapsed toward zero",
							"c_out", o, "c_in", i, "grade_out", bladeGrade[m], "grade_in", bladeGrade[n], "width", width)
					}
					outData[((o*cIn+i)*nBlades+m)*nBlades+n] = width
				}
			}
		}
	}

	return out, nil
}

// EvalComposedShell evaluates the composed shell at a batch of offsets,
// returning (positions, c_out, c_in, n_blades, n_blades).
func EvalComposedShell(alg *algebra.Algebra, offsets *tensor.Tensor, w *ComposedShellWidths) (*tensor.Tensor, error) {
	if len(offsets.Shape) != 2 || offsets.Shape[1] != alg.Dim {
		return nil, shapeErrorf("offsets must have shape (N, %d), got %v", alg.Dim, offsets.Shape)
	}

	widths, err := w.PerBlade(alg)
	if err != nil {
		return nil, err
	}
	wData := widths.Data.([]float64)
	cOut, cIn := widths.Shape[0], widths.Shape[1]

	offData, err := offsets.Float64s()
	if err != nil {
		return nil, err
	}
	positions := offsets.Shape[0]

	out, err := tensor.Zeros([]int{positions, cOut, cIn, alg.NBlades, alg.NBlades}, tensor.Float64)
	if err != nil {
		return nil, err
	}
	outData := out.Data.([]float64)

	widthElems := cOut * cIn * alg.NBlades * alg.NBlades
	for p := 0; p < positions; p++ {
		v := offData[p*alg.Dim : (p+1)*alg.Dim]
		mv, err := alg.EmbedGrade(v, 1)
		if err != nil {
			return nil, err
		}
		q, err := alg.Q(mv)
		if err != nil {
			return nil, err
		}
		for i := 0; i < widthElems; i++ {
			outData[p*widthElems+i] = shellValue(q, wData[i])
		}
	}

	return out, nil
}
