package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-ml/lattice/tensor"
)

func TestNew_ValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	_, err := New(cfg)
	require.NoError(t, err)

	bad := cfg
	bad.ReduceBlockDim = 12 // not a power of two
	_, err = New(bad)
	require.Error(t, err)

	bad = cfg
	bad.ThreadsPerBlock = 0
	_, err = New(bad)
	require.Error(t, err)

	bad = cfg
	bad.MatmulTile = -1
	_, err = New(bad)
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 32, cfg.ThreadsPerBlock)
	assert.Equal(t, 1024, cfg.ReduceBlockDim)
	assert.Equal(t, 32, cfg.MatmulTile)
}

func TestOps_StockFunctions(t *testing.T) {
	assert.Equal(t, float32(-2), Neg.Fn(2))
	assert.Equal(t, float32(0.5), Inv.Fn(2))
	assert.Equal(t, float32(9), Square.Fn(3))
	assert.Equal(t, float32(0), ReLU.Fn(-3))
	assert.Equal(t, float32(3), ReLU.Fn(3))
	assert.Equal(t, float32(7), Add.Fn(3, 4))
	assert.Equal(t, float32(12), Mul.Fn(3, 4))
	assert.Equal(t, float32(4), Max.Fn(3, 4))
	assert.Equal(t, float32(3), Min.Fn(3, 4))
}

// TestPipeline_Softmax composes map, zip, and reduce into a softmax over
// the last axis, the way a host collaborator drives the engine.
func TestPipeline_Softmax(t *testing.T) {
	eng := smallEngine(t)
	expKernel := eng.CompileMapOp(Exp)
	sum := eng.CompileReduceOp(Add)
	div := eng.CompileZip(func(a, b float32) float32 { return a / b })

	x, err := tensor.FromSlice([]float32{
		0, 1, 2,
		0, 0, 0,
	}, tensor.Shape{2, 3})
	require.NoError(t, err)

	exps, err := expKernel(x, nil)
	require.NoError(t, err)
	totals, err := ReduceFull(sum, exps, 1)
	require.NoError(t, err)
	probs, err := div(exps, totals, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		var rowSum float32
		for j := 0; j < 3; j++ {
			rowSum += probs.At(i, j)
		}
		assert.InDelta(t, 1.0, float64(rowSum), 1e-5, "row %d", i)
	}
	// Uniform logits give uniform probabilities.
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 1.0/3.0, float64(probs.At(1, j)), 1e-5)
	}
}
