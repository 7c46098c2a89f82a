package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/tsawler/go-clifford/tensor"
)

// WeightTensor is one named parameter tensor with its data.
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// CheckpointMetadata records provenance for a saved parameter set.
type CheckpointMetadata struct {
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
}

// Checkpoint is a complete, externally persisted parameter set for a
// steerable kernel or convolution layer. Forward evaluation never touches
// it; only the training procedure writes one out or loads one back.
type Checkpoint struct {
	Weights  []WeightTensor     `json:"weights"`
	Metadata CheckpointMetadata `json:"metadata"`
}

// FromParameters captures a named parameter map into a checkpoint. Weights
// are sorted by name so serialized checkpoints are stable.
func FromParameters(params map[string]*tensor.Tensor, description string) (*Checkpoint, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	ckpt := &Checkpoint{
		Metadata: CheckpointMetadata{
			Version:     "1.0.0",
			CreatedAt:   time.Now().UTC(),
			Description: description,
		},
	}
	for _, name := range names {
		t := params[name]
		data, err := t.Float64s()
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %v", name, err)
		}
		copied := make([]float64, len(data))
		copy(copied, data)
		shape := make([]int, len(t.Shape))
		copy(shape, t.Shape)
		ckpt.Weights = append(ckpt.Weights, WeightTensor{Name: name, Shape: shape, Data: copied})
	}
	return ckpt, nil
}

// Parameters rebuilds the named tensor map from a checkpoint.
func (c *Checkpoint) Parameters() (map[string]*tensor.Tensor, error) {
	params := make(map[string]*tensor.Tensor, len(c.Weights))
	for _, w := range c.Weights {
		t, err := tensor.New(w.Shape, tensor.Float64, w.Data)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %v", w.Name, err)
		}
		params[w.Name] = t
	}
	return params, nil
}

// SaveCheckpoint writes a checkpoint as JSON.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	data, err := json.MarshalIndent(ckpt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %v", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint from a JSON file.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %v", err)
	}
	var ckpt Checkpoint
	if err := json.Unmarshal(data, &ckpt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %v", err)
	}
	return &ckpt, nil
}
