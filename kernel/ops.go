package kernel

import "math"

// UnaryOp is the compiled form of a host-level scalar function: Fn is the
// Go closure inlined into simulated kernel bodies, Expr the WGSL expression
// (in terms of x) spliced into generated GPU shaders.
type UnaryOp struct {
	Name string
	Fn   UnaryFn
	Expr string
}

// BinaryOp is the compiled form of a host-level binary function. Expr is a
// WGSL expression in terms of a and b. Identity is the start value used
// when the op drives a reduction.
type BinaryOp struct {
	Name     string
	Fn       BinaryFn
	Expr     string
	Identity float32
}

// Stock unary ops.
var (
	Neg = UnaryOp{
		Name: "neg",
		Fn:   func(x float32) float32 { return -x },
		Expr: "-x",
	}
	Inv = UnaryOp{
		Name: "inv",
		Fn:   func(x float32) float32 { return 1 / x },
		Expr: "1.0 / x",
	}
	Square = UnaryOp{
		Name: "square",
		Fn:   func(x float32) float32 { return x * x },
		Expr: "x * x",
	}
	Exp = UnaryOp{
		Name: "exp",
		Fn:   func(x float32) float32 { return float32(math.Exp(float64(x))) },
		Expr: "exp(x)",
	}
	Log = UnaryOp{
		Name: "log",
		Fn:   func(x float32) float32 { return float32(math.Log(float64(x))) },
		Expr: "log(x)",
	}
	ReLU = UnaryOp{
		Name: "relu",
		Fn: func(x float32) float32 {
			if x > 0 {
				return x
			}
			return 0
		},
		Expr: "max(x, 0.0)",
	}
	Sigmoid = UnaryOp{
		Name: "sigmoid",
		Fn:   func(x float32) float32 { return 1 / (1 + float32(math.Exp(float64(-x)))) },
		Expr: "1.0 / (1.0 + exp(-x))",
	}
)

// Stock binary ops.
var (
	Add = BinaryOp{
		Name:     "add",
		Fn:       func(a, b float32) float32 { return a + b },
		Expr:     "a + b",
		Identity: 0,
	}
	Sub = BinaryOp{
		Name: "sub",
		Fn:   func(a, b float32) float32 { return a - b },
		Expr: "a - b",
	}
	Mul = BinaryOp{
		Name:     "mul",
		Fn:       func(a, b float32) float32 { return a * b },
		Expr:     "a * b",
		Identity: 1,
	}
	Div = BinaryOp{
		Name: "div",
		Fn:   func(a, b float32) float32 { return a / b },
		Expr: "a / b",
	}
	Max = BinaryOp{
		Name: "max",
		Fn: func(a, b float32) float32 {
			if a > b {
				return a
			}
			return b
		},
		Expr:     "max(a, b)",
		Identity: float32(math.Inf(-1)),
	}
	Min = BinaryOp{
		Name: "min",
		Fn: func(a, b float32) float32 {
			if a < b {
				return a
			}
			return b
		},
		Expr:     "min(a, b)",
		Identity: float32(math.Inf(1)),
	}
)

// CompileMapOp is CompileMap for a registered op.
func (e *Engine) CompileMapOp(op UnaryOp) MapKernel {
	return e.CompileMap(op.Fn)
}

// CompileZipOp is CompileZip for a registered op.
func (e *Engine) CompileZipOp(op BinaryOp) ZipKernel {
	return e.CompileZip(op.Fn)
}

// CompileReduceOp is CompileReduce for a registered op, using its identity
// as the start value.
func (e *Engine) CompileReduceOp(op BinaryOp) ReduceKernel {
	return e.CompileReduce(op.Fn, op.Identity)
}
