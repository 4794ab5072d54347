package tensor

// ToIndex decomposes a flat linear position into a multi-dimensional
// coordinate, writing into index (which must have capacity for len(shape)
// entries). Decomposition is row-major, from the last dimension to the
// first, so that ToIndex and IndexToPosition are mutual inverses for the
// contiguous strides computed by Shape.ComputeStrides.
func ToIndex(pos int, shape Shape, index []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		dim := shape[i]
		index[i] = pos % dim
		pos /= dim
	}
}

// IndexToPosition converts a coordinate into a flat storage position as the
// dot product of coordinate and strides. A stride of 0 collapses the
// corresponding dimension onto a single storage slot (broadcast aliasing).
func IndexToPosition(index, strides []int) int {
	pos := 0
	for i, c := range index {
		pos += c * strides[i]
	}
	return pos
}

// BroadcastIndex converts a coordinate of bigShape into the coordinate of a
// broadcast-compatible smallShape, writing into smallIndex (capacity
// len(smallShape)). smallShape is right-aligned under bigShape: for each
// aligned dimension the big coordinate is copied when the small dimension
// size is > 1, else forced to 0 (collapsing the broadcast dimension).
// Dimensions present only in bigShape are dropped. bigIndex is not mutated.
//
// The shapes must already have been validated as broadcast-compatible;
// kernel threads call this once per operand and cannot report errors.
func BroadcastIndex(bigIndex []int, bigShape, smallShape Shape, smallIndex []int) {
	offset := len(bigShape) - len(smallShape)
	for i, dim := range smallShape {
		if dim > 1 {
			smallIndex[i] = bigIndex[i+offset]
		} else {
			smallIndex[i] = 0
		}
	}
}
