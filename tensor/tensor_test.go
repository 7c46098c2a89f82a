package tensor

import (
	"math"
	"math/rand"
	"testing"
)

func TestTensorCreation(t *testing.T) {
	t.Run("New with data", func(t *testing.T) {
		data := []float64{1, 2, 3, 4, 5, 6}
		tr, err := New([]int{2, 3}, Float64, data)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		if tr.NumElems != 6 {
			t.Errorf("Expected 6 elements, got %d", tr.NumElems)
		}
		if tr.Strides[0] != 3 || tr.Strides[1] != 1 {
			t.Errorf("Expected strides [3, 1], got %v", tr.Strides)
		}
	})

	t.Run("Data length mismatch", func(t *testing.T) {
		_, err := New([]int{2, 3}, Float64, []float64{1, 2})
		if err == nil {
			t.Error("Expected error for data length mismatch, got none")
		}
	})

	t.Run("Invalid shape", func(t *testing.T) {
		_, err := Zeros([]int{2, 0}, Float64)
		if err == nil {
			t.Error("Expected error for zero dimension, got none")
		}
	})

	t.Run("Ones", func(t *testing.T) {
		tr, err := Ones([]int{4}, Float64)
		if err != nil {
			t.Fatalf("Failed to create ones tensor: %v", err)
		}
		for i, v := range tr.Data.([]float64) {
			if v != 1 {
				t.Errorf("Element %d: expected 1, got %g", i, v)
			}
		}
	})

	t.Run("Uniform range", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		tr, err := Uniform([]int{100}, 0, 0.2, rng)
		if err != nil {
			t.Fatalf("Failed to create uniform tensor: %v", err)
		}
		for i, v := range tr.Data.([]float64) {
			if v < 0 || v >= 0.2 {
				t.Errorf("Element %d: value %g outside [0, 0.2)", i, v)
			}
		}
	})
}

func TestAtSet(t *testing.T) {
	tr, err := Zeros([]int{2, 3}, Float64)
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}

	if err := tr.Set(7.5, 1, 2); err != nil {
		t.Fatalf("Failed to set element: %v", err)
	}
	v, err := tr.At(1, 2)
	if err != nil {
		t.Fatalf("Failed to read element: %v", err)
	}
	if v != 7.5 {
		t.Errorf("Expected 7.5, got %g", v)
	}

	if err := tr.Set(1, 2, 0); err == nil {
		t.Error("Expected error for out-of-range index, got none")
	}
}

func TestTensorReshape(t *testing.T) {
	t.Run("Basic reshape shares data", func(t *testing.T) {
		data := []float64{1, 2, 3, 4, 5, 6}
		tr, err := New([]int{2, 3}, Float64, data)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}

		reshaped, err := tr.Reshape([]int{3, 2})
		if err != nil {
			t.Fatalf("Failed to reshape tensor: %v", err)
		}
		if len(reshaped.Shape) != 2 || reshaped.Shape[0] != 3 || reshaped.Shape[1] != 2 {
			t.Errorf("Expected shape [3, 2], got %v", reshaped.Shape)
		}

		reshaped.Data.([]float64)[0] = 42
		if tr.Data.([]float64)[0] != 42 {
			t.Error("Reshape did not share the backing data")
		}
	})

	t.Run("Reshape with -1", func(t *testing.T) {
		tr, err := Zeros([]int{3, 4}, Float64)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		reshaped, err := tr.Reshape([]int{2, -1})
		if err != nil {
			t.Fatalf("Failed to reshape tensor with -1: %v", err)
		}
		if reshaped.Shape[0] != 2 || reshaped.Shape[1] != 6 {
			t.Errorf("Expected shape [2, 6], got %v", reshaped.Shape)
		}
	})

	t.Run("Invalid reshape - size mismatch", func(t *testing.T) {
		tr, err := Zeros([]int{2, 2}, Float64)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		if _, err := tr.Reshape([]int{2, 3}); err == nil {
			t.Error("Expected error for size mismatch, got none")
		}
	})

	t.Run("Invalid reshape - multiple -1", func(t *testing.T) {
		tr, err := Zeros([]int{2, 2}, Float64)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		if _, err := tr.Reshape([]int{-1, -1}); err == nil {
			t.Error("Expected error for multiple -1 dimensions, got none")
		}
	})
}

func TestTranspose(t *testing.T) {
	t.Run("2D transpose", func(t *testing.T) {
		tr, err := New([]int{2, 3}, Float64, []float64{1, 2, 3, 4, 5, 6})
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		tt, err := tr.Transpose([]int{1, 0})
		if err != nil {
			t.Fatalf("Failed to transpose: %v", err)
		}
		want := []float64{1, 4, 2, 5, 3, 6}
		got := tt.Data.([]float64)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Element %d: expected %g, got %g", i, want[i], got[i])
			}
		}
	})

	t.Run("Swap middle axes is its own inverse", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		tr, err := Uniform([]int{2, 3, 4, 5}, -1, 1, rng)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		perm := []int{0, 2, 1, 3}
		once, err := tr.Transpose(perm)
		if err != nil {
			t.Fatalf("Failed to transpose: %v", err)
		}
		twice, err := once.Transpose(perm)
		if err != nil {
			t.Fatalf("Failed to transpose back: %v", err)
		}
		orig := tr.Data.([]float64)
		back := twice.Data.([]float64)
		for i := range orig {
			if orig[i] != back[i] {
				t.Fatalf("Element %d changed after double transpose: %g vs %g", i, orig[i], back[i])
			}
		}
	})

	t.Run("Invalid permutation", func(t *testing.T) {
		tr, err := Zeros([]int{2, 3}, Float64)
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		if _, err := tr.Transpose([]int{0, 0}); err == nil {
			t.Error("Expected error for repeated axis, got none")
		}
	})
}

func TestMatMul(t *testing.T) {
	t.Run("Known product", func(t *testing.T) {
		a, err := New([]int{2, 3}, Float64, []float64{1, 2, 3, 4, 5, 6})
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		b, err := New([]int{3, 2}, Float64, []float64{7, 8, 9, 10, 11, 12})
		if err != nil {
			t.Fatalf("Failed to create tensor: %v", err)
		}
		c, err := MatMul(a, b)
		if err != nil {
			t.Fatalf("Failed to multiply: %v", err)
		}
		want := []float64{58, 64, 139, 154}
		got := c.Data.([]float64)
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-12 {
				t.Errorf("Element %d: expected %g, got %g", i, want[i], got[i])
			}
		}
	})

	t.Run("Incompatible dimensions", func(t *testing.T) {
		a, _ := Zeros([]int{2, 3}, Float64)
		b, _ := Zeros([]int{2, 3}, Float64)
		if _, err := MatMul(a, b); err == nil {
			t.Error("Expected error for incompatible dimensions, got none")
		}
	})
}

func TestElementwise(t *testing.T) {
	a, err := New([]int{2, 2}, Float64, []float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}
	b, err := New([]int{2, 2}, Float64, []float64{5, 6, 7, 8})
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if got := sum.Data.([]float64)[3]; got != 12 {
		t.Errorf("Expected 12, got %g", got)
	}

	prod, err := Mul(a, b)
	if err != nil {
		t.Fatalf("Failed to multiply: %v", err)
	}
	if got := prod.Data.([]float64)[0]; got != 5 {
		t.Errorf("Expected 5, got %g", got)
	}

	c, _ := Zeros([]int{3}, Float64)
	if _, err := Add(a, c); err == nil {
		t.Error("Expected error for shape mismatch, got none")
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	tr, err := New([]int{4}, Float64, []float64{0, 1, -2.5, 0.125})
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}

	half, err := tr.ToFloat16()
	if err != nil {
		t.Fatalf("Failed to convert to Float16: %v", err)
	}
	if half.DType != Float16 {
		t.Fatalf("Expected Float16 dtype, got %s", half.DType)
	}

	wide, err := half.ToFloat64()
	if err != nil {
		t.Fatalf("Failed to convert back to Float64: %v", err)
	}
	orig := tr.Data.([]float64)
	got := wide.Data.([]float64)
	for i := range orig {
		// All chosen values are exactly representable in half precision.
		if got[i] != orig[i] {
			t.Errorf("Element %d: expected %g, got %g", i, orig[i], got[i])
		}
	}
}
