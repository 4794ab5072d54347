package tensor

import "fmt"

// View is a strided window over a flat float32 storage. Shape and Strides
// are immutable for the lifetime of a kernel launch; storage contents are
// mutated only by the kernel writing into its output view.
//
// Several views may share one storage. Broadcast views carry a stride of 0
// along the stretched dimensions and are read-only by contract: engines
// never construct an output view with a 0 stride.
type View struct {
	data    []float32
	shape   Shape
	strides []int
	size    int
}

// NewView wraps an existing storage slice in a contiguous view of the given
// shape. The storage must hold at least shape.Size() elements.
func NewView(data []float32, shape Shape) (*View, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	size := shape.Size()
	if len(data) < size {
		return nil, fmt.Errorf("storage too small for shape %v: have %d elements, need %d", shape, len(data), size)
	}
	return &View{
		data:    data,
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		size:    size,
	}, nil
}

// FromSlice copies data into a fresh contiguous view of the given shape.
// The data length must match the shape size exactly.
func FromSlice(data []float32, shape Shape) (*View, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	size := shape.Size()
	if len(data) != size {
		return nil, fmt.Errorf("data length %d does not match shape %v (size %d)", len(data), shape, size)
	}
	storage := make([]float32, size)
	copy(storage, data)
	v, err := NewView(storage, shape)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Zeros creates a zero-filled contiguous view of the given shape.
// It panics on an invalid shape; engines validate shapes before allocating.
func Zeros(shape Shape) *View {
	v, err := NewView(make([]float32, shape.Size()), shape)
	if err != nil {
		panic(fmt.Sprintf("tensor: zeros: %v", err))
	}
	return v
}

// Shape returns the view's shape. Callers must not mutate it.
func (v *View) Shape() Shape {
	return v.shape
}

// Strides returns the view's strides. Callers must not mutate them.
func (v *View) Strides() []int {
	return v.strides
}

// Size returns the number of logical elements in the view.
func (v *View) Size() int {
	return v.size
}

// Data returns the flat backing storage.
func (v *View) Data() []float32 {
	return v.data
}

// At returns the element at the given coordinate.
func (v *View) At(coord ...int) float32 {
	if len(coord) != len(v.shape) {
		panic(fmt.Sprintf("tensor: coordinate rank %d does not match view rank %d", len(coord), len(v.shape)))
	}
	return v.data[IndexToPosition(coord, v.strides)]
}

// Set stores a value at the given coordinate.
func (v *View) Set(value float32, coord ...int) {
	if len(coord) != len(v.shape) {
		panic(fmt.Sprintf("tensor: coordinate rank %d does not match view rank %d", len(coord), len(v.shape)))
	}
	v.data[IndexToPosition(coord, v.strides)] = value
}

// IsContiguous reports whether the view's strides are the dense row-major
// strides of its shape.
func (v *View) IsContiguous() bool {
	dense := v.shape.ComputeStrides()
	for i := range dense {
		if v.strides[i] != dense[i] {
			return false
		}
	}
	return true
}

// Reshape returns a view of a new shape sharing this view's storage.
// Only contiguous views can be reshaped; the element count must match.
func (v *View) Reshape(shape Shape) (*View, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if !v.IsContiguous() {
		return nil, fmt.Errorf("cannot reshape non-contiguous view with strides %v", v.strides)
	}
	if shape.Size() != v.size {
		return nil, fmt.Errorf("cannot reshape view of size %d to shape %v (size %d)", v.size, shape, shape.Size())
	}
	return &View{
		data:    v.data,
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		size:    v.size,
	}, nil
}

// Expand returns a broadcast view of the given shape sharing this view's
// storage. Expanded dimensions carry stride 0 and alias a single storage
// slot; the result is read-only by contract.
func (v *View) Expand(shape Shape) (*View, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	result, err := BroadcastShapes(v.shape, shape)
	if err != nil {
		return nil, err
	}
	if !result.Equal(shape) {
		return nil, &ShapeMismatchError{A: v.shape.Clone(), B: shape.Clone()}
	}

	strides := make([]int, len(shape))
	offset := len(shape) - len(v.shape)
	for i := range shape {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case v.shape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = v.strides[inIdx]
		}
	}

	return &View{
		data:    v.data,
		shape:   shape.Clone(),
		strides: strides,
		size:    shape.Size(),
	}, nil
}
