package tensor

import "fmt"

// ShapeMismatchError reports two shapes that are not broadcast-compatible.
// It is always raised host-side, before a kernel launch.
type ShapeMismatchError struct {
	A, B Shape
	Dim  int // result dimension at which the shapes disagree
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shapes not compatible for broadcasting: %v vs %v (dimension %d)", e.A, e.B, e.Dim)
}

// RankOverflowError reports a view whose rank exceeds MaxDims, the capacity
// of the fixed per-thread coordinate buffers.
type RankOverflowError struct {
	Rank int
}

func (e *RankOverflowError) Error() string {
	return fmt.Sprintf("tensor rank %d exceeds maximum supported rank %d", e.Rank, MaxDims)
}

// InvalidShapeError reports a shape with a non-positive dimension.
type InvalidShapeError struct {
	Shape Shape
	Dim   int
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid shape %v: dimension %d must be > 0, got %d", e.Shape, e.Dim, e.Shape[e.Dim])
}
