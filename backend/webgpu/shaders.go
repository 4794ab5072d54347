//go:build windows

package webgpu

import "fmt"

// WGSL sources are generated per op: the op's scalar expression is spliced
// into a template and the result cached under the op's name. Shapes and
// strides travel in a u32 meta storage buffer so one pipeline serves every
// view geometry.

// mapShaderTemplate addresses one input through broadcast-aware strides.
// Meta layout: [outSize, outRank, inRank,
//
//	outShape..., outStrides..., inShape..., inStrides...]
const mapShaderTemplate = `
const MAX_DIMS: u32 = 32u;

@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<storage, read> meta: array<u32>;

fn apply(x: f32) -> f32 {
    return %s;
}

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= meta[0]) {
        return;
    }
    let out_rank = meta[1];
    let in_rank = meta[2];
    let out_shape_base = 3u;
    let out_stride_base = out_shape_base + out_rank;
    let in_shape_base = out_stride_base + out_rank;
    let in_stride_base = in_shape_base + in_rank;

    var out_index: array<u32, MAX_DIMS>;
    var rem = i;
    for (var d = out_rank; d > 0u; d = d - 1u) {
        let dim = meta[out_shape_base + d - 1u];
        out_index[d - 1u] = rem %% dim;
        rem = rem / dim;
    }

    var out_pos = 0u;
    for (var d = 0u; d < out_rank; d = d + 1u) {
        out_pos = out_pos + out_index[d] * meta[out_stride_base + d];
    }

    let offset = out_rank - in_rank;
    var in_pos = 0u;
    for (var d = 0u; d < in_rank; d = d + 1u) {
        var c = 0u;
        if (meta[in_shape_base + d] > 1u) {
            c = out_index[d + offset];
        }
        in_pos = in_pos + c * meta[in_stride_base + d];
    }

    output[out_pos] = apply(input[in_pos]);
}
`

// zipShaderTemplate addresses two inputs through broadcast-aware strides.
// Meta layout: [outSize, outRank, aRank, bRank,
//
//	outShape..., outStrides..., aShape..., aStrides..., bShape..., bStrides...]
const zipShaderTemplate = `
const MAX_DIMS: u32 = 32u;

@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;
@group(0) @binding(3) var<storage, read> meta: array<u32>;

fn combine(a_val: f32, b_val: f32) -> f32 {
    let a = a_val;
    let b = b_val;
    return %s;
}

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= meta[0]) {
        return;
    }
    let out_rank = meta[1];
    let a_rank = meta[2];
    let b_rank = meta[3];
    let out_shape_base = 4u;
    let out_stride_base = out_shape_base + out_rank;
    let a_shape_base = out_stride_base + out_rank;
    let a_stride_base = a_shape_base + a_rank;
    let b_shape_base = a_stride_base + a_rank;
    let b_stride_base = b_shape_base + b_rank;

    var out_index: array<u32, MAX_DIMS>;
    var rem = i;
    for (var d = out_rank; d > 0u; d = d - 1u) {
        let dim = meta[out_shape_base + d - 1u];
        out_index[d - 1u] = rem %% dim;
        rem = rem / dim;
    }

    var out_pos = 0u;
    for (var d = 0u; d < out_rank; d = d + 1u) {
        out_pos = out_pos + out_index[d] * meta[out_stride_base + d];
    }

    let a_offset = out_rank - a_rank;
    var a_pos = 0u;
    for (var d = 0u; d < a_rank; d = d + 1u) {
        var c = 0u;
        if (meta[a_shape_base + d] > 1u) {
            c = out_index[d + a_offset];
        }
        a_pos = a_pos + c * meta[a_stride_base + d];
    }

    let b_offset = out_rank - b_rank;
    var b_pos = 0u;
    for (var d = 0u; d < b_rank; d = d + 1u) {
        var c = 0u;
        if (meta[b_shape_base + d] > 1u) {
            c = out_index[d + b_offset];
        }
        b_pos = b_pos + c * meta[b_stride_base + d];
    }

    output[out_pos] = combine(a[a_pos], b[b_pos]);
}
`

// reduceShaderTemplate performs the in-workgroup tree reduction. One
// workgroup per output position; lanes past the axis bound stage the
// identity value so the whole workgroup reaches every barrier together.
// Meta layout: [outSize, rank, dim, axisSize, identityBits,
//
//	outShape..., outStrides..., inStrides...]
const reduceShaderTemplate = `
const MAX_DIMS: u32 = 32u;
const BLOCK_DIM: u32 = %du;

@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;
@group(0) @binding(2) var<storage, read> meta: array<u32>;

var<workgroup> cache: array<f32, BLOCK_DIM>;

fn combine(a_val: f32, b_val: f32) -> f32 {
    let a = a_val;
    let b = b_val;
    return %s;
}

@compute @workgroup_size(BLOCK_DIM)
fn main(@builtin(workgroup_id) wid: vec3<u32>, @builtin(local_invocation_id) lid: vec3<u32>) {
    let out_pos = wid.x;
    let pos = lid.x;
    let rank = meta[1];
    let dim = meta[2];
    let axis = meta[3];
    let identity = bitcast<f32>(meta[4]);
    let out_shape_base = 5u;
    let out_stride_base = out_shape_base + rank;
    let in_stride_base = out_stride_base + rank;

    var out_index: array<u32, MAX_DIMS>;
    var rem = out_pos;
    for (var d = rank; d > 0u; d = d - 1u) {
        let sh = meta[out_shape_base + d - 1u];
        out_index[d - 1u] = rem %% sh;
        rem = rem / sh;
    }

    var src_index = out_index;
    src_index[dim] = out_index[dim] * BLOCK_DIM + pos;

    cache[pos] = identity;
    if (src_index[dim] < axis) {
        var in_pos = 0u;
        for (var d = 0u; d < rank; d = d + 1u) {
            in_pos = in_pos + src_index[d] * meta[in_stride_base + d];
        }
        cache[pos] = input[in_pos];
    }
    workgroupBarrier();

    for (var step = 1u; step < BLOCK_DIM; step = step * 2u) {
        if (pos %% (2u * step) == 0u) {
            cache[pos] = combine(cache[pos], cache[pos + step]);
        }
        workgroupBarrier();
    }

    if (pos == 0u) {
        var flat = 0u;
        for (var d = 0u; d < rank; d = d + 1u) {
            flat = flat + out_index[d] * meta[out_stride_base + d];
        }
        output[flat] = cache[0u];
    }
}
`

// matmulShaderTemplate performs the tiled batched multiply. One workgroup
// per (row-tile, col-tile, batch); tails past the true M/N/K bounds are
// zero-padded in the workgroup tiles.
// Meta layout: [batch, m, k, n,
//
//	aBatchStride, aRowStride, aColStride,
//	bBatchStride, bRowStride, bColStride,
//	outBatchStride, outRowStride, outColStride]
const matmulShaderTemplate = `
const TILE: u32 = %du;

@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;
@group(0) @binding(3) var<storage, read> meta: array<u32>;

var<workgroup> a_tile: array<f32, TILE * TILE>;
var<workgroup> b_tile: array<f32, TILE * TILE>;

@compute @workgroup_size(TILE, TILE)
fn main(@builtin(workgroup_id) wid: vec3<u32>, @builtin(local_invocation_id) lid: vec3<u32>) {
    let batch = wid.z;
    let i = wid.x * TILE + lid.x;
    let j = wid.y * TILE + lid.y;
    let pi = lid.x;
    let pj = lid.y;

    let m = meta[1];
    let k = meta[2];
    let n = meta[3];

    var accum = 0.0;
    for (var kk = 0u; kk < k; kk = kk + TILE) {
        if (i < m && kk + pj < k) {
            a_tile[pi * TILE + pj] = a[meta[4] * batch + meta[5] * i + meta[6] * (kk + pj)];
        } else {
            a_tile[pi * TILE + pj] = 0.0;
        }
        if (j < n && kk + pi < k) {
            b_tile[pi * TILE + pj] = b[meta[7] * batch + meta[8] * (kk + pi) + meta[9] * j];
        } else {
            b_tile[pi * TILE + pj] = 0.0;
        }
        workgroupBarrier();

        for (var kt = 0u; kt < TILE; kt = kt + 1u) {
            if (kk + kt < k) {
                accum = accum + a_tile[pi * TILE + kt] * b_tile[kt * TILE + pj];
            }
        }
        workgroupBarrier();
    }

    if (batch < meta[0] && i < m && j < n) {
        output[meta[10] * batch + meta[11] * i + meta[12] * j] = accum;
    }
}
`

func (b *Backend) mapShader(expr string) string {
	return fmt.Sprintf(mapShaderTemplate, expr, b.cfg.WorkgroupSize)
}

func (b *Backend) zipShader(expr string) string {
	return fmt.Sprintf(zipShaderTemplate, expr, b.cfg.WorkgroupSize)
}

func (b *Backend) reduceShader(expr string) string {
	return fmt.Sprintf(reduceShaderTemplate, b.cfg.ReduceBlockDim, expr)
}

func (b *Backend) matmulShader() string {
	return fmt.Sprintf(matmulShaderTemplate, b.cfg.MatmulTile)
}
