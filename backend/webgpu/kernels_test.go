//go:build windows

package webgpu

import (
	"math"
	"testing"

	"github.com/lattice-ml/lattice/kernel"
	"github.com/lattice-ml/lattice/tensor"
)

func testBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func mustView(t *testing.T, data []float32, shape tensor.Shape) *tensor.View {
	t.Helper()
	v, err := tensor.FromSlice(data, shape)
	if err != nil {
		t.Fatalf("failed to build view: %v", err)
	}
	return v
}

func compareSlices(t *testing.T, expected, actual []float32, tolerance float32) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("length mismatch: expected %d, got %d", len(expected), len(actual))
	}
	for i := range expected {
		diff := expected[i] - actual[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Errorf("value mismatch at index %d: expected %f, got %f", i, expected[i], actual[i])
		}
	}
}

func TestMapExp(t *testing.T) {
	b := testBackend(t)
	expMap := b.CompileMap(kernel.Exp)

	in := mustView(t, []float32{0, 1, 2, -1}, tensor.Shape{4})
	out, err := expMap(in, nil)
	if err != nil {
		t.Fatalf("map failed: %v", err)
	}

	expected := make([]float32, 4)
	for i, x := range in.Data() {
		expected[i] = float32(math.Exp(float64(x)))
	}
	compareSlices(t, expected, out.Data(), 1e-5)
}

func TestZipAddBroadcast(t *testing.T) {
	b := testBackend(t)
	add := b.CompileZip(kernel.Add)

	x := mustView(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	y := mustView(t, []float32{10, 20}, tensor.Shape{1, 2})
	out, err := add(x, y, nil)
	if err != nil {
		t.Fatalf("zip failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("unexpected shape %v", out.Shape())
	}
	compareSlices(t, []float32{11, 21, 12, 22, 13, 23}, out.Data(), 0)
}

func TestReduceSumMatchesCPU(t *testing.T) {
	b := testBackend(t)
	gpuSum := b.CompileReduce(kernel.Add)
	cpuSum := kernel.NewDefault().CompileReduceOp(kernel.Add)

	data := make([]float32, 2*600)
	for i := range data {
		data[i] = float32(i%17) * 0.25
	}
	in := mustView(t, data, tensor.Shape{2, 600})

	got, err := kernel.ReduceFull(gpuSum, in, 1)
	if err != nil {
		t.Fatalf("gpu reduce failed: %v", err)
	}
	want, err := kernel.ReduceFull(cpuSum, in, 1)
	if err != nil {
		t.Fatalf("cpu reduce failed: %v", err)
	}
	compareSlices(t, want.Data(), got.Data(), 1e-3)
}

func TestMatMulMatchesCPU(t *testing.T) {
	b := testBackend(t)
	gpuMM := b.CompileMatMul()
	cpuMM := kernel.NewDefault().CompileMatMul()

	aData := make([]float32, 2*33*17)
	bData := make([]float32, 2*17*19)
	for i := range aData {
		aData[i] = float32(i%7) - 3
	}
	for i := range bData {
		bData[i] = float32(i%5) - 2
	}
	x := mustView(t, aData, tensor.Shape{2, 33, 17})
	y := mustView(t, bData, tensor.Shape{2, 17, 19})

	got, err := gpuMM(x, y)
	if err != nil {
		t.Fatalf("gpu matmul failed: %v", err)
	}
	want, err := cpuMM(x, y)
	if err != nil {
		t.Fatalf("cpu matmul failed: %v", err)
	}
	if !got.Shape().Equal(want.Shape()) {
		t.Fatalf("shape mismatch: %v vs %v", got.Shape(), want.Shape())
	}
	compareSlices(t, want.Data(), got.Data(), 1e-3)
}

func TestMatMulInnerDimMismatch(t *testing.T) {
	b := testBackend(t)
	mm := b.CompileMatMul()

	x := mustView(t, make([]float32, 6), tensor.Shape{2, 3})
	y := mustView(t, make([]float32, 8), tensor.Shape{4, 2})
	if _, err := mm(x, y); err == nil {
		t.Fatal("expected inner dimension error")
	}
}
