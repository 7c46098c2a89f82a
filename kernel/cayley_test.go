package kernel

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/tensor"
)

func TestWeightedCayley(t *testing.T) {
	alg, err := algebra.New([]float64{1, 1})
	if err != nil {
		t.Fatalf("Failed to construct algebra: %v", err)
	}

	t.Run("Sparsity pattern preserved", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		weights, err := tensor.Uniform([]int{alg.ProductPathsSum()}, 0.5, 2, rng)
		if err != nil {
			t.Fatalf("Failed to create weights: %v", err)
		}

		weighted, err := WeightedCayley(alg, weights)
		if err != nil {
			t.Fatalf("WeightedCayley failed: %v", err)
		}

		plain, err := alg.Cayley()
		if err != nil {
			t.Fatalf("Cayley failed: %v", err)
		}

		wData := weighted.Data.([]float64)
		pData := plain.Data.([]float64)
		for i := range pData {
			if (pData[i] == 0) != (wData[i] == 0) {
				t.Fatalf("Zero pattern changed at flat index %d: %g -> %g", i, pData[i], wData[i])
			}
		}
	})

	t.Run("Each weight used exactly once", func(t *testing.T) {
		// Give every path a distinct weight, then recover the weight from
		// each nonzero entry and check the multiset matches.
		n := alg.ProductPathsSum()
		wSlice := make([]float64, n)
		for i := range wSlice {
			wSlice[i] = float64(i + 2)
		}
		weights, err := tensor.New([]int{n}, tensor.Float64, wSlice)
		if err != nil {
			t.Fatalf("Failed to create weights: %v", err)
		}

		weighted, err := WeightedCayley(alg, weights)
		if err != nil {
			t.Fatalf("WeightedCayley failed: %v", err)
		}
		plain, err := alg.Cayley()
		if err != nil {
			t.Fatalf("Cayley failed: %v", err)
		}

		wData := weighted.Data.([]float64)
		pData := plain.Data.([]float64)
		used := make(map[float64]int)
		for i := range pData {
			if pData[i] == 0 {
				continue
			}
			used[wData[i]/pData[i]]++
		}
		if len(used) != n {
			t.Fatalf("Expected %d distinct weights in use, got %d", n, len(used))
		}
		for w, count := range used {
			if count != 1 {
				t.Errorf("Weight %g used %d times, expected once", w, count)
			}
		}
	})

	t.Run("Ones weights leave table unchanged", func(t *testing.T) {
		weights, err := tensor.Ones([]int{alg.ProductPathsSum()}, tensor.Float64)
		if err != nil {
			t.Fatalf("Failed to create weights: %v", err)
		}
		weighted, err := WeightedCayley(alg, weights)
		if err != nil {
			t.Fatalf("WeightedCayley failed: %v", err)
		}
		plain, err := alg.Cayley()
		if err != nil {
			t.Fatalf("Cayley failed: %v", err)
		}
		wData := weighted.Data.([]float64)
		pData := plain.Data.([]float64)
		for i := range pData {
			if wData[i] != pData[i] {
				t.Fatalf("Entry %d changed under unit weights: %g vs %g", i, wData[i], pData[i])
			}
		}
	})

	t.Run("Mis-sized weight vector rejected", func(t *testing.T) {
		weights, err := tensor.Ones([]int{alg.ProductPathsSum() - 1}, tensor.Float64)
		if err != nil {
			t.Fatalf("Failed to create weights: %v", err)
		}
		_, err = WeightedCayley(alg, weights)
		if err == nil {
			t.Fatal("Expected error for mis-sized weights, got none")
		}
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Expected ConfigError, got %T: %v", err, err)
		}
	})
}
