package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-ml/lattice/internal/parallel"
	"github.com/lattice-ml/lattice/tensor"
)

// smallEngine keeps block sizes small so tests exercise multi-step trees
// without spawning thousands of goroutines per block.
func smallEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(Config{
		ThreadsPerBlock: 8,
		ReduceBlockDim:  8,
		MatmulTile:      4,
		Workers:         parallel.DefaultConfig(),
	})
	require.NoError(t, err)
	return eng
}

func TestReduce_SumSingleChunk(t *testing.T) {
	eng := smallEngine(t)
	sum := eng.CompileReduceOp(Add)

	// Axis size 3 <= ReduceBlockDim: one chunk, fully collapsed.
	a, err := tensor.FromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
	}, tensor.Shape{2, 3})
	require.NoError(t, err)

	out, err := sum(a, 1)
	require.NoError(t, err)
	require.True(t, out.Shape().Equal(tensor.Shape{2, 1}), "shape %v", out.Shape())
	assert.Equal(t, float32(6), out.At(0, 0))
	assert.Equal(t, float32(15), out.At(1, 0))
}

func TestReduce_FirstAxis(t *testing.T) {
	eng := smallEngine(t)
	sum := eng.CompileReduceOp(Add)

	a, err := tensor.FromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
	}, tensor.Shape{2, 3})
	require.NoError(t, err)

	out, err := sum(a, 0)
	require.NoError(t, err)
	require.True(t, out.Shape().Equal(tensor.Shape{1, 3}), "shape %v", out.Shape())
	assert.Equal(t, []float32{5, 7, 9}, out.Data())
}

func TestReduce_NegativeAxis(t *testing.T) {
	eng := smallEngine(t)
	sum := eng.CompileReduceOp(Add)

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	out, err := sum(a, -1)
	require.NoError(t, err)
	require.True(t, out.Shape().Equal(tensor.Shape{2, 1}))
	assert.Equal(t, []float32{3, 7}, out.Data())
}

func TestReduce_PartialChunks(t *testing.T) {
	eng := smallEngine(t) // ReduceBlockDim = 8
	sum := eng.CompileReduceOp(Add)

	// Axis of 20 with block capacity 8: first call yields ceil(20/8) = 3
	// partial sums, not a collapsed axis.
	data := make([]float32, 20)
	var total float32
	for i := range data {
		data[i] = float32(i + 1)
		total += data[i]
	}
	a, err := tensor.FromSlice(data, tensor.Shape{20})
	require.NoError(t, err)

	part, err := sum(a, 0)
	require.NoError(t, err)
	require.True(t, part.Shape().Equal(tensor.Shape{3}), "shape %v", part.Shape())
	assert.Equal(t, float32(1+2+3+4+5+6+7+8), part.Data()[0])
	assert.Equal(t, float32(9+10+11+12+13+14+15+16), part.Data()[1])
	assert.Equal(t, float32(17+18+19+20), part.Data()[2])

	// Re-invoking on the partial result collapses the axis to 1.
	final, err := sum(part, 0)
	require.NoError(t, err)
	require.True(t, final.Shape().Equal(tensor.Shape{1}))
	assert.Equal(t, total, final.Data()[0])
}

func TestReduce_MultiChunkFullBlockDim(t *testing.T) {
	if testing.Short() {
		t.Skip("1024-wide blocks in short mode")
	}
	eng := NewDefault() // ReduceBlockDim = 1024
	sum := eng.CompileReduceOp(Add)

	const n = 2050
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	a, err := tensor.FromSlice(data, tensor.Shape{n})
	require.NoError(t, err)

	part, err := sum(a, 0)
	require.NoError(t, err)
	require.True(t, part.Shape().Equal(tensor.Shape{3}), "shape %v", part.Shape())
	assert.Equal(t, float32(1024), part.Data()[0])
	assert.Equal(t, float32(1024), part.Data()[1])
	assert.Equal(t, float32(2), part.Data()[2])

	final, err := ReduceFull(sum, a, 0)
	require.NoError(t, err)
	require.True(t, final.Shape().Equal(tensor.Shape{1}))
	assert.Equal(t, float32(n), final.Data()[0])
}

func TestReduce_MaxWithInfIdentity(t *testing.T) {
	eng := smallEngine(t)
	maxReduce := eng.CompileReduceOp(Max)

	a, err := tensor.FromSlice([]float32{-5, -2, -9, -1, -7}, tensor.Shape{5})
	require.NoError(t, err)

	out, err := maxReduce(a, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(-1), out.Data()[0])

	// The -Inf identity must not leak into results even when the chunk is
	// mostly padding.
	assert.False(t, math.IsInf(float64(out.Data()[0]), -1))
}

func TestReduce_TreeOrderDeterministic(t *testing.T) {
	eng := smallEngine(t)
	sum := eng.CompileReduceOp(Add)

	// Values chosen so sequential and tree rounding could differ; repeat
	// runs must nonetheless agree bit-for-bit with each other.
	data := make([]float32, 8)
	for i := range data {
		data[i] = float32(math.Pi) * float32(i+1) / 7
	}
	a, err := tensor.FromSlice(data, tensor.Shape{8})
	require.NoError(t, err)

	first, err := sum(a, 0)
	require.NoError(t, err)
	for run := 0; run < 20; run++ {
		again, err := sum(a, 0)
		require.NoError(t, err)
		require.Equal(t, first.Data()[0], again.Data()[0], "run %d diverged", run)
	}

	// The fixed combine order is the binary tree over thread indices.
	want := ((data[0] + data[1]) + (data[2] + data[3])) + ((data[4] + data[5]) + (data[6] + data[7]))
	assert.Equal(t, want, first.Data()[0])
}

func TestReduce_DimOutOfRange(t *testing.T) {
	eng := smallEngine(t)
	sum := eng.CompileReduceOp(Add)

	a := tensor.Zeros(tensor.Shape{2, 3})
	_, err := sum(a, 2)
	require.Error(t, err)
	_, err = sum(a, -3)
	require.Error(t, err)
}
