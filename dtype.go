package qtensor

import (
	"golang.org/x/exp/constraints"
)

/*
Dtype selects the precision of complex elements. Buffers are always stored as
complex128; under Complex64 every value is rounded to single precision when it
enters the engine.
*/
type Dtype int

const (
	Complex128 Dtype = iota
	Complex64
)

func (d Dtype) String() string {
	if d == Complex64 {
		return "complex64"
	}
	return "complex128"
}

// Tolerance is how far probabilities may drift from summing to one.
func (d Dtype) Tolerance() float64 {
	if d == Complex64 {
		return 1e-6
	}
	return 1e-8
}

func (d Dtype) round(v complex128) complex128 {
	if d == Complex64 {
		return complex128(complex64(v))
	}
	return v
}

func castComplex[T constraints.Complex](x []T, d Dtype) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = d.round(complex128(v))
	}
	return out
}

func castReal[T constraints.Float](x []T, d Dtype) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = d.round(complex(float64(v), 0))
	}
	return out
}

// castBuffer rounds into a new buffer unless the input can be aliased.
func castBuffer(x []complex128, d Dtype, copy bool) []complex128 {
	if d == Complex128 && !copy {
		return x
	}
	return castComplex(x, d)
}

/*
CastState converts a state-like value into the engine's flat buffer at the
backend precision. Accepted inputs are []complex128, []complex64, []float64,
[]float32, *Tensor[complex128] and *Dense (flattened row-major). The input is
aliased when no conversion is needed and copy is false.
*/
func (b *Backend) CastState(x any, copy bool) ([]complex128, error) {
	d := b.config.Dtype

	switch v := x.(type) {
	case []complex128:
		return castBuffer(v, d, copy), nil
	case []complex64:
		return castComplex(v, d), nil
	case []float64:
		return castReal(v, d), nil
	case []float32:
		return castReal(v, d), nil
	case *Tensor[complex128]:
		return castBuffer(v.data, d, copy), nil
	case *Dense:
		return castBuffer(v.data, d, copy), nil
	}

	return nil, newError(NotImplemented, "CastState", "cannot cast %T to a state buffer", x)
}

/*
CastMatrix converts a matrix-like value into a Dense or Sparse matrix at the
backend precision. Sparse inputs stay sparse. Accepted inputs are *Dense,
*Sparse, [][]complex128, [][]complex64 and [][]float64.
*/
func (b *Backend) CastMatrix(x any, copy bool) (Matrix, error) {
	d := b.config.Dtype

	switch v := x.(type) {
	case *Dense:
		if d == Complex128 && !copy {
			return v, nil
		}
		return NewDense(v.rows, v.cols, castComplex(v.data, d)), nil
	case *Sparse:
		if d == Complex128 && !copy {
			return v, nil
		}
		out := v.Clone()
		for i, val := range out.data {
			out.data[i] = d.round(val)
		}
		return out, nil
	case [][]complex128:
		return rowsToDense("CastMatrix", v, func(row []complex128) []complex128 { return castComplex(row, d) })
	case [][]complex64:
		return rowsToDense("CastMatrix", v, func(row []complex64) []complex128 { return castComplex(row, d) })
	case [][]float64:
		return rowsToDense("CastMatrix", v, func(row []float64) []complex128 { return castReal(row, d) })
	}

	return nil, newError(NotImplemented, "CastMatrix", "cannot cast %T to a matrix", x)
}

func rowsToDense[T Number](op string, rows [][]T, cast func([]T) []complex128) (Matrix, error) {
	if len(rows) == 0 {
		return NewDense(0, 0, nil), nil
	}

	cols := len(rows[0])
	data := make([]complex128, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, newError(DimensionMismatch, op, "row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, cast(row)...)
	}
	return NewDense(len(rows), cols, data), nil
}

// roundDense returns m at the backend precision, aliasing it under Complex128.
func (b *Backend) roundDense(m *Dense) *Dense {
	if b.config.Dtype == Complex128 {
		return m
	}
	return NewDense(m.rows, m.cols, castComplex(m.data, b.config.Dtype))
}
