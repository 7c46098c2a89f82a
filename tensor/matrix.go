package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatMul multiplies two 2-D Float64 tensors. The inputs wrap their backing
// slices as gonum dense matrices, so no copies are made on the way in.
func MatMul(t1, t2 *Tensor) (*Tensor, error) {
	if err := checkCompatibility(t1, t2); err != nil {
		return nil, err
	}
	if len(t1.Shape) != 2 || len(t2.Shape) != 2 {
		return nil, fmt.Errorf("matmul requires 2-dimensional tensors, got shapes %v and %v", t1.Shape, t2.Shape)
	}

	rows1, cols1 := t1.Shape[0], t1.Shape[1]
	rows2, cols2 := t2.Shape[0], t2.Shape[1]
	if cols1 != rows2 {
		return nil, fmt.Errorf("incompatible dimensions for matmul: (%d, %d) x (%d, %d)", rows1, cols1, rows2, cols2)
	}

	data1, err := t1.Float64s()
	if err != nil {
		return nil, err
	}
	data2, err := t2.Float64s()
	if err != nil {
		return nil, err
	}

	a := mat.NewDense(rows1, cols1, data1)
	b := mat.NewDense(rows2, cols2, data2)
	out := mat.NewDense(rows1, cols2, nil)
	out.Mul(a, b)

	return New([]int{rows1, cols2}, Float64, out.RawMatrix().Data)
}
