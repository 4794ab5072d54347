package tensor

// MaxDims is the maximum supported tensor rank. Kernel bodies use
// fixed-capacity coordinate buffers of this length so that per-thread
// indexing never heap-allocates.
const MaxDims = 32

// Shape represents the dimensions of a tensor view.
type Shape []int

// Size returns the total number of elements in the shape.
func (s Shape) Size() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has a supported rank and positive dimensions.
func (s Shape) Validate() error {
	if len(s) > MaxDims {
		return &RankOverflowError{Rank: len(s)}
	}
	for i, dim := range s {
		if dim <= 0 {
			return &InvalidShapeError{Shape: s.Clone(), Dim: i}
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing leading dimensions are treated as 1
//
// Returns the broadcast result shape, or a *ShapeMismatchError when the
// shapes are incompatible. This check must run on the host before any kernel
// launch: kernel bodies assume compatibility and cannot fault safely.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5)
//	(1, 5) + (3, 5) → (3, 5)
//	(3, 4) + (3, 5) → error
func BroadcastShapes(a, b Shape) (Shape, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
		case bDim == 1:
			result[maxLen-1-i] = aDim
		default:
			return nil, &ShapeMismatchError{A: a.Clone(), B: b.Clone(), Dim: maxLen - 1 - i}
		}
	}

	return result, nil
}
