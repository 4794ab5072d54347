package tensor

import (
	"errors"
	"testing"
)

func TestShapeSize(t *testing.T) {
	tests := []struct {
		shape Shape
		size  int
	}{
		{Shape{}, 1},
		{Shape{4}, 4},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
		{Shape{1, 1, 1}, 1},
	}

	for _, tt := range tests {
		if got := tt.shape.Size(); got != tt.size {
			t.Errorf("%v.Size() = %d, want %d", tt.shape, got, tt.size)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate(%v) = %v, want nil", Shape{2, 3}, err)
	}

	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Validate with zero dimension should fail")
	}

	if err := (Shape{2, -1}).Validate(); err == nil {
		t.Error("Validate with negative dimension should fail")
	}

	over := make(Shape, MaxDims+1)
	for i := range over {
		over[i] = 1
	}
	err := over.Validate()
	var rankErr *RankOverflowError
	if !errors.As(err, &rankErr) {
		t.Errorf("Validate with rank %d returned %v, want RankOverflowError", len(over), err)
	}
	if rankErr != nil && rankErr.Rank != MaxDims+1 {
		t.Errorf("RankOverflowError.Rank = %d, want %d", rankErr.Rank, MaxDims+1)
	}
}

func TestComputeStrides(t *testing.T) {
	tests := []struct {
		shape   Shape
		strides []int
	}{
		{Shape{4}, []int{1}},
		{Shape{2, 3}, []int{3, 1}},
		{Shape{2, 3, 4}, []int{12, 4, 1}},
		{Shape{5, 1, 2}, []int{2, 2, 1}},
	}

	for _, tt := range tests {
		got := tt.shape.ComputeStrides()
		if len(got) != len(tt.strides) {
			t.Errorf("%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.strides)
			continue
		}
		for i := range got {
			if got[i] != tt.strides[i] {
				t.Errorf("%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.strides)
				break
			}
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b Shape
		want Shape
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}},
		{Shape{1, 5}, Shape{3, 5}, Shape{3, 5}},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}},
		{Shape{5}, Shape{3, 5}, Shape{3, 5}},
		{Shape{3, 1}, Shape{1, 4}, Shape{3, 4}},
		{Shape{1}, Shape{2, 3, 4}, Shape{2, 3, 4}},
		{Shape{2, 1, 4}, Shape{3, 1}, Shape{2, 3, 4}},
	}

	for _, tt := range tests {
		got, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) error: %v", tt.a, tt.b, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBroadcastShapes_Incompatible(t *testing.T) {
	tests := []struct {
		a, b Shape
	}{
		{Shape{3, 4}, Shape{3, 5}},
		{Shape{2}, Shape{3}},
		{Shape{2, 3, 4}, Shape{2, 4, 4}},
	}

	for _, tt := range tests {
		_, err := BroadcastShapes(tt.a, tt.b)
		var mismatch *ShapeMismatchError
		if !errors.As(err, &mismatch) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want ShapeMismatchError", tt.a, tt.b, err)
		}
	}
}

func TestShapeCloneIndependent(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 9
	if s[0] != 2 {
		t.Errorf("Clone aliases original: %v", s)
	}
}
