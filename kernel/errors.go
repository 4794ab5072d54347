package kernel

import (
	"fmt"

	"github.com/lattice-ml/lattice/tensor"
)

// MatmulDimensionError reports matmul operands whose inner dimensions
// disagree: a's trailing dimension must equal b's second-to-last.
type MatmulDimensionError struct {
	A, B tensor.Shape
}

func (e *MatmulDimensionError) Error() string {
	return fmt.Sprintf("matmul inner dimension mismatch: %v @ %v (%d vs %d)",
		e.A, e.B, e.A[len(e.A)-1], e.B[len(e.B)-2])
}
