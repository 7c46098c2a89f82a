package checkpoints

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/go-clifford/algebra"
	"github.com/tsawler/go-clifford/kernel"
)

func newTestKernel(t *testing.T, seed int64) *kernel.Kernel {
	t.Helper()
	alg, err := algebra.New([]float64{1, 1})
	if err != nil {
		t.Fatalf("Failed to construct algebra: %v", err)
	}
	k, err := kernel.New(alg, 1, 1, 3, kernel.KernelNetConfig{
		NumLayers: 2,
		HiddenDim: 6,
		BiasDims:  []int{0},
	}, alg.ProductPathsSum(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("Failed to construct kernel: %v", err)
	}
	return k
}

func TestCheckpointFileRoundTrip(t *testing.T) {
	k := newTestKernel(t, 40)

	ckpt, err := FromParameters(k.Parameters(), "test kernel")
	if err != nil {
		t.Fatalf("FromParameters failed: %v", err)
	}
	if ckpt.Metadata.Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0, got %q", ckpt.Metadata.Version)
	}
	if ckpt.Metadata.Description != "test kernel" {
		t.Errorf("Description not recorded: %q", ckpt.Metadata.Description)
	}

	// Weights are sorted by name for stable serialization.
	for i := 1; i < len(ckpt.Weights); i++ {
		if ckpt.Weights[i-1].Name >= ckpt.Weights[i].Name {
			t.Errorf("Weights not sorted: %q before %q", ckpt.Weights[i-1].Name, ckpt.Weights[i].Name)
		}
	}

	path := filepath.Join(t.TempDir(), "kernel.json")
	if err := SaveCheckpoint(path, ckpt); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	loaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	want, err := ckpt.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	got, err := loaded.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed on loaded checkpoint: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d parameters, got %d", len(want), len(got))
	}
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Fatalf("Parameter %q missing after round trip", name)
		}
		if diff := cmp.Diff(w.Shape, g.Shape); diff != "" {
			t.Fatalf("Parameter %q shape mismatch (-want +got):\n%s", name, diff)
		}
		wData := w.Data.([]float64)
		gData := g.Data.([]float64)
		for i := range wData {
			if wData[i] != gData[i] {
				t.Fatalf("Parameter %q differs at index %d: %g vs %g", name, i, wData[i], gData[i])
			}
		}
	}
}

func TestCheckpointRestoresKernel(t *testing.T) {
	original := newTestKernel(t, 41)
	other := newTestKernel(t, 42)

	ckpt, err := FromParameters(original.Parameters(), "")
	if err != nil {
		t.Fatalf("FromParameters failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "restore.json")
	if err := SaveCheckpoint(path, ckpt); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	loaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	params, err := loaded.Parameters()
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if err := other.LoadParameters(params); err != nil {
		t.Fatalf("LoadParameters failed: %v", err)
	}

	wantK, err := original.Assemble()
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	gotK, err := other.Assemble()
	if err != nil {
		t.Fatalf("Assemble failed after restore: %v", err)
	}
	wantData := wantK.Data.([]float64)
	gotData := gotK.Data.([]float64)
	for i := range wantData {
		if math.Abs(wantData[i]-gotData[i]) > 1e-12 {
			t.Fatalf("Assembled kernels differ at index %d: %g vs %g", i, wantData[i], gotData[i])
		}
	}
}

func TestFromParametersCopiesData(t *testing.T) {
	k := newTestKernel(t, 43)
	params := k.Parameters()

	ckpt, err := FromParameters(params, "")
	if err != nil {
		t.Fatalf("FromParameters failed: %v", err)
	}

	cw := params["cayley_weights"].Data.([]float64)
	var saved []float64
	for _, w := range ckpt.Weights {
		if w.Name == "cayley_weights" {
			saved = w.Data
		}
	}
	if saved == nil {
		t.Fatal("cayley_weights missing from checkpoint")
	}
	orig := saved[0]
	cw[0] = orig + 100
	if saved[0] != orig {
		t.Error("Checkpoint shares backing storage with live parameters")
	}
}

func TestLoadCheckpointErrors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		if _, err := LoadCheckpoint(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("Expected error for missing file, got none")
		}
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		_, err := LoadCheckpoint(path)
		if err == nil {
			t.Fatal("Expected error for malformed JSON, got none")
		}
		if !strings.Contains(err.Error(), "unmarshal") {
			t.Errorf("Unexpected error message: %v", err)
		}
	})
}
