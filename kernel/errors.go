package kernel

import (
	"fmt"
)

// ShapeError reports an input tensor whose channel or blade dimensions
// disagree with the configured layer. It is raised before any contraction
// is attempted.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return e.Msg
}

func shapeErrorf(format string, args ...interface{}) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

// ConfigError reports an algebra configuration that cannot produce a valid
// kernel, e.g. a product-paths count that would mis-size the per-path
// weight vector.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
