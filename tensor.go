package qtensor

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Number is the element type a Tensor can hold.
type Number interface {
	constraints.Float | constraints.Complex
}

/*
Tensor is a dense row-major array of arbitrary rank. A state vector over n
qubits is viewed as a rank-n tensor with every axis of dimension 2, axis 0
being the most significant bit of the flat index.
*/
type Tensor[T Number] struct {
	shape []int
	data  []T
}

/*
NewTensor wraps data in a tensor of the given shape without copying it.

Returns an error when the shape does not describe exactly len(data) elements.
*/
func NewTensor[T Number](data []T, shape ...int) (*Tensor[T], error) {
	if size := shapeSize(shape); size != len(data) {
		return nil, newError(DimensionMismatch, "NewTensor", "shape %v holds %d elements, got %d", shape, size, len(data))
	}
	return &Tensor[T]{shape: append([]int(nil), shape...), data: data}, nil
}

// Zeros returns a zero-filled tensor of the given shape.
func Zeros[T Number](shape ...int) *Tensor[T] {
	return &Tensor[T]{shape: append([]int(nil), shape...), data: make([]T, shapeSize(shape))}
}

// qubitTensor views a flat buffer as rank tensor with all dimensions equal to 2.
func qubitTensor[T Number](data []T, rank int) *Tensor[T] {
	return &Tensor[T]{shape: qubitShape(rank), data: data}
}

func (t *Tensor[T]) Shape() []int { return append([]int(nil), t.shape...) }
func (t *Tensor[T]) Rank() int    { return len(t.shape) }
func (t *Tensor[T]) Size() int    { return len(t.data) }

// Data exposes the underlying buffer.
func (t *Tensor[T]) Data() []T { return t.data }

/*
Reshape returns a view of the same buffer under a new shape.
*/
func (t *Tensor[T]) Reshape(shape ...int) (*Tensor[T], error) {
	if shapeSize(shape) != len(t.data) {
		return nil, newError(DimensionMismatch, "Reshape", "cannot reshape %v into %v", t.shape, shape)
	}
	return &Tensor[T]{shape: append([]int(nil), shape...), data: t.data}, nil
}

func (t *Tensor[T]) reshape(shape ...int) *Tensor[T] {
	if shapeSize(shape) != len(t.data) {
		panic(fmt.Sprintf("qtensor: cannot reshape %v into %v", t.shape, shape))
	}
	return &Tensor[T]{shape: append([]int(nil), shape...), data: t.data}
}

/*
Transpose permutes the axes of the tensor so that axis i of the result is axis
perm[i] of the receiver. The result owns a fresh buffer. It panics when perm is
not a permutation of the receiver's axes.
*/
func (t *Tensor[T]) Transpose(perm []int) *Tensor[T] {
	rank := len(t.shape)
	if !isPermutation(perm, rank) {
		panic(fmt.Sprintf("qtensor: %v is not a permutation of %d axes", perm, rank))
	}

	if isIdentity(perm) {
		return &Tensor[T]{shape: append([]int(nil), t.shape...), data: append([]T(nil), t.data...)}
	}

	src := strides(t.shape)
	shape := make([]int, rank)
	step := make([]int, rank)
	for i, p := range perm {
		shape[i] = t.shape[p]
		step[i] = src[p]
	}

	out := make([]T, len(t.data))
	idx := make([]int, rank)
	off := 0

	for i := range out {
		out[i] = t.data[off]
		for ax := rank - 1; ax >= 0; ax-- {
			idx[ax]++
			off += step[ax]
			if idx[ax] < shape[ax] {
				break
			}
			off -= step[ax] * shape[ax]
			idx[ax] = 0
		}
	}

	return &Tensor[T]{shape: shape, data: out}
}

// ExpandDims inserts a unit axis at position axis, sharing the buffer.
func (t *Tensor[T]) ExpandDims(axis int) *Tensor[T] {
	shape := make([]int, 0, len(t.shape)+1)
	shape = append(shape, t.shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, t.shape[axis:]...)
	return &Tensor[T]{shape: shape, data: t.data}
}

/*
SumAxes sums the tensor over the given axes, keeping the remaining axes in
their original order.
*/
func (t *Tensor[T]) SumAxes(axes []int) *Tensor[T] {
	kept := complement(axes, len(t.shape))
	moved := t.Transpose(append(append([]int(nil), kept...), axes...))

	shape := make([]int, len(kept))
	for i, ax := range kept {
		shape[i] = t.shape[ax]
	}

	outer := shapeSize(shape)
	inner := 1
	if outer > 0 {
		inner = len(t.data) / outer
	}

	out := make([]T, outer)
	for i := range out {
		var sum T
		for _, v := range moved.data[i*inner : (i+1)*inner] {
			sum += v
		}
		out[i] = sum
	}

	return &Tensor[T]{shape: shape, data: out}
}

/*
Tensordot contracts axesA of a against axesB of b. The result carries the free
axes of a followed by the free axes of b, both in their original order. With
empty axis lists it is the outer product.
*/
func Tensordot[T Number](a, b *Tensor[T], axesA, axesB []int) *Tensor[T] {
	if len(axesA) != len(axesB) {
		panic(fmt.Sprintf("qtensor: contracting %d axes against %d", len(axesA), len(axesB)))
	}

	k := 1
	for i := range axesA {
		if a.shape[axesA[i]] != b.shape[axesB[i]] {
			panic(fmt.Sprintf("qtensor: axis %d of %v does not match axis %d of %v", axesA[i], a.shape, axesB[i], b.shape))
		}
		k *= a.shape[axesA[i]]
	}

	freeA := complement(axesA, len(a.shape))
	freeB := complement(axesB, len(b.shape))

	at := a.Transpose(append(append([]int(nil), freeA...), axesA...))
	bt := b.Transpose(append(append([]int(nil), axesB...), freeB...))

	shape := make([]int, 0, len(freeA)+len(freeB))
	for _, ax := range freeA {
		shape = append(shape, a.shape[ax])
	}
	for _, ax := range freeB {
		shape = append(shape, b.shape[ax])
	}

	m := len(at.data) / max(k, 1)
	n := len(bt.data) / max(k, 1)
	out := make([]T, m*n)
	var zero T

	for i := 0; i < m; i++ {
		row := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := at.data[i*k+p]
			if av == zero {
				continue
			}
			for j, bv := range bt.data[p*n : (p+1)*n] {
				row[j] += av * bv
			}
		}
	}

	return &Tensor[T]{shape: shape, data: out}
}

/*
Concatenate joins tensors along axis. All tensors must agree on every other
dimension.
*/
func Concatenate[T Number](axis int, ts ...*Tensor[T]) *Tensor[T] {
	first := ts[0]
	shape := append([]int(nil), first.shape...)
	shape[axis] = 0

	for _, t := range ts {
		if len(t.shape) != len(first.shape) {
			panic(fmt.Sprintf("qtensor: cannot concatenate %v with %v", first.shape, t.shape))
		}
		for ax := range t.shape {
			if ax != axis && t.shape[ax] != first.shape[ax] {
				panic(fmt.Sprintf("qtensor: cannot concatenate %v with %v along %d", first.shape, t.shape, axis))
			}
		}
		shape[axis] += t.shape[axis]
	}

	outer := shapeSize(first.shape[:axis])
	out := make([]T, 0, shapeSize(shape))

	for o := 0; o < outer; o++ {
		for _, t := range ts {
			chunk := len(t.data) / max(outer, 1)
			out = append(out, t.data[o*chunk:(o+1)*chunk]...)
		}
	}

	return &Tensor[T]{shape: shape, data: out}
}

func shapeSize(shape []int) int {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return size
}

func strides(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

func qubitShape(rank int) []int {
	shape := make([]int, rank)
	for i := range shape {
		shape[i] = 2
	}
	return shape
}
