package algebra

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/tsawler/go-clifford/tensor"
)

// Algebra is an immutable description of a real Clifford algebra Cl(p,q):
// its blade basis, geometric-product structure constants (Cayley table),
// grade partition, and diagonal quadratic form. Construct one per distinct
// metric and share it by reference; it is never mutated after New returns.
type Algebra struct {
	Dim        int
	Metric     []float64
	NBlades    int
	NSubspaces int
	// Subspaces holds the blade count of each grade; Subspaces[g] = C(dim, g).
	Subspaces []int

	blades      []uint // bitmask per blade, ordered by (grade, mask)
	bladeOfMask []int  // inverse of blades
	gradeStart  []int  // first blade index of each grade
	cayley      []float64
	paths       []bool
	pathCount   int
	qSign       []float64
}

// New builds the algebra for a diagonal metric whose entries must be +1 or
// -1 (Euclidean, Lorentzian, or any mixed signature).
func New(metric []float64) (*Algebra, error) {
	dim := len(metric)
	if dim == 0 {
		return nil, fmt.Errorf("metric must have at least one entry")
	}
	for i, m := range metric {
		if m != 1 && m != -1 {
			return nil, fmt.Errorf("metric entry %d is %g, must be +1 or -1", i, m)
		}
	}

	nBlades := 1 << dim
	a := &Algebra{
		Dim:        dim,
		Metric:     append([]float64(nil), metric...),
		NBlades:    nBlades,
		NSubspaces: dim + 1,
	}

	// Blade basis ordered by grade, ascending bitmask within a grade.
	a.blades = make([]uint, 0, nBlades)
	for mask := uint(0); mask < uint(nBlades); mask++ {
		a.blades = append(a.blades, mask)
	}
	sort.Slice(a.blades, func(i, j int) bool {
		gi, gj := bits.OnesCount(a.blades[i]), bits.OnesCount(a.blades[j])
		if gi != gj {
			return gi < gj
		}
		return a.blades[i] < a.blades[j]
	})

	a.bladeOfMask = make([]int, nBlades)
	for idx, mask := range a.blades {
		a.bladeOfMask[mask] = idx
	}

	a.Subspaces = make([]int, dim+1)
	a.gradeStart = make([]int, dim+2)
	for _, mask := range a.blades {
		a.Subspaces[bits.OnesCount(mask)]++
	}
	for g := 0; g <= dim; g++ {
		a.gradeStart[g+1] = a.gradeStart[g] + a.Subspaces[g]
	}

	a.buildCayley()

	a.qSign = make([]float64, nBlades)
	for idx, mask := range a.blades {
		sign := 1.0
		for i := 0; i < dim; i++ {
			if mask&(1<<uint(i)) != 0 {
				sign *= metric[i]
			}
		}
		a.qSign[idx] = sign
	}

	return a, nil
}

// buildCayley fills the dense structure-constant table: for basis blades
// e_A, e_B with masks A, B, e_A e_B = sign(A,B) e_{A xor B}.
func (a *Algebra) buildCayley() {
	b := a.NBlades
	a.cayley = make([]float64, b*b*b)
	a.paths = make([]bool, b*b*b)

	for i := 0; i < b; i++ {
		for j := 0; j < b; j++ {
			maskA := a.blades[i]
			maskB := a.blades[j]
			sign := reorderSign(maskA, maskB)
			for bit := 0; bit < a.Dim; bit++ {
				if maskA&maskB&(1<<uint(bit)) != 0 {
					sign *= a.Metric[bit]
				}
			}
			k := a.bladeOfMask[maskA^maskB]
			flat := (i*b+j)*b + k
			a.cayley[flat] = sign
			if sign != 0 {
				a.paths[flat] = true
				a.pathCount++
			}
		}
	}
}

// reorderSign counts the basis-vector swaps needed to bring e_A e_B into
// canonical order; odd counts flip the sign.
func reorderSign(maskA, maskB uint) float64 {
	maskA >>= 1
	swaps := 0
	for maskA != 0 {
		swaps += bits.OnesCount(maskA & maskB)
		maskA >>= 1
	}
	if swaps%2 == 0 {
		return 1
	}
	return -1
}

// Cayley returns the structure-constant tensor of shape
// (NBlades, NBlades, NBlades). The tensor is freshly allocated, so callers
// may scale it freely.
func (a *Algebra) Cayley() (*tensor.Tensor, error) {
	data := make([]float64, len(a.cayley))
	copy(data, a.cayley)
	return tensor.New([]int{a.NBlades, a.NBlades, a.NBlades}, tensor.Float64, data)
}

// GeometricProductPaths returns the 0-1 mask of nonzero Cayley entries,
// flattened row-major over (i, j, k).
func (a *Algebra) GeometricProductPaths() []bool {
	out := make([]bool, len(a.paths))
	copy(out, a.paths)
	return out
}

// ProductPathsSum is the number of nonzero structure-constant entries; it
// sizes the learned per-path weight vector.
func (a *Algebra) ProductPathsSum() int {
	return a.pathCount
}

// BladeGrade returns the grade of blade index i.
func (a *Algebra) BladeGrade(i int) (int, error) {
	if i < 0 || i >= a.NBlades {
		return 0, fmt.Errorf("blade index %d out of range [0, %d)", i, a.NBlades)
	}
	return bits.OnesCount(a.blades[i]), nil
}

// GradeStart returns the first blade index belonging to a grade.
func (a *Algebra) GradeStart(grade int) (int, error) {
	if grade < 0 || grade > a.Dim {
		return 0, fmt.Errorf("grade %d out of range [0, %d]", grade, a.Dim)
	}
	return a.gradeStart[grade], nil
}

// Q evaluates the quadratic form on a full multivector. In the blade basis
// the form is diagonal: sum_i q_i mv_i^2 with q_i the product of metric
// signs over the blade's basis vectors.
func (a *Algebra) Q(mv []float64) (float64, error) {
	if len(mv) != a.NBlades {
		return 0, fmt.Errorf("multivector length %d does not match blade count %d", len(mv), a.NBlades)
	}
	var q float64
	for i, v := range mv {
		q += a.qSign[i] * v * v
	}
	return q, nil
}

// EmbedGrade lifts coefficients into the blades of a single grade, zero
// elsewhere. The result always spans the full blade basis.
func (a *Algebra) EmbedGrade(coeffs []float64, grade int) ([]float64, error) {
	if grade < 0 || grade > a.Dim {
		return nil, fmt.Errorf("grade %d out of range [0, %d]", grade, a.Dim)
	}
	if len(coeffs) != a.Subspaces[grade] {
		return nil, fmt.Errorf("coefficient length %d does not match grade-%d blade count %d", len(coeffs), grade, a.Subspaces[grade])
	}
	mv := make([]float64, a.NBlades)
	copy(mv[a.gradeStart[grade]:], coeffs)
	return mv, nil
}

// GeometricProduct multiplies two multivectors through the Cayley table.
func (a *Algebra) GeometricProduct(x, y []float64) ([]float64, error) {
	if len(x) != a.NBlades || len(y) != a.NBlades {
		return nil, fmt.Errorf("multivector lengths %d, %d do not match blade count %d", len(x), len(y), a.NBlades)
	}
	b := a.NBlades
	out := make([]float64, b)
	for i := 0; i < b; i++ {
		if x[i] == 0 {
			continue
		}
		for j := 0; j < b; j++ {
			if y[j] == 0 {
				continue
			}
			for k := 0; k < b; k++ {
				c := a.cayley[(i*b+j)*b+k]
				if c != 0 {
					out[k] += c * x[i] * y[j]
				}
			}
		}
	}
	return out, nil
}
