package qtensor

import (
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/cmplxs"
)

/*
Matrix is either a *Dense or a *Sparse. Routines that care about the storage
switch on the concrete type; the set of variants is closed.
*/
type Matrix interface {
	Dims() (r, c int)
	At(i, j int) complex128
	isMatrix()
}

// Dense is a row-major complex matrix.
type Dense struct {
	rows, cols int
	data       []complex128
}

/*
NewDense creates a rows x cols matrix backed by data. A nil data allocates a
zero matrix. It panics when data has the wrong length.
*/
func NewDense(rows, cols int, data []complex128) *Dense {
	if data == nil {
		data = make([]complex128, rows*cols)
	}
	if len(data) != rows*cols {
		panic(fmt.Sprintf("qtensor: %d elements cannot fill a %dx%d matrix", len(data), rows, cols))
	}
	return &Dense{rows: rows, cols: cols, data: data}
}

// Eye returns the n x n identity.
func Eye(n int) *Dense {
	m := NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *Dense) isMatrix() {}

func (m *Dense) Dims() (r, c int)           { return m.rows, m.cols }
func (m *Dense) At(i, j int) complex128     { return m.data[i*m.cols+j] }
func (m *Dense) Set(i, j int, v complex128) { m.data[i*m.cols+j] = v }

// RawData exposes the row-major buffer.
func (m *Dense) RawData() []complex128 { return m.data }

func (m *Dense) Clone() *Dense {
	return NewDense(m.rows, m.cols, append([]complex128(nil), m.data...))
}

// Tensor views the matrix as a rank-2 tensor sharing the buffer.
func (m *Dense) Tensor() *Tensor[complex128] {
	return &Tensor[complex128]{shape: []int{m.rows, m.cols}, data: m.data}
}

func (m *Dense) Conj() *Dense {
	out := m.Clone()
	for i, v := range out.data {
		out.data[i] = cmplx.Conj(v)
	}
	return out
}

// H returns the conjugate transpose.
func (m *Dense) H() *Dense {
	out := NewDense(m.cols, m.rows, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = cmplx.Conj(m.data[i*m.cols+j])
		}
	}
	return out
}

func (m *Dense) Trace() complex128 {
	var tr complex128
	for i := 0; i < min(m.rows, m.cols); i++ {
		tr += m.data[i*m.cols+i]
	}
	return tr
}

// Scale returns c*m.
func (m *Dense) Scale(c complex128) *Dense {
	out := m.Clone()
	cmplxs.Scale(c, out.data)
	return out
}

// AddScaled adds alpha*s to the receiver in place.
func (m *Dense) AddScaled(alpha complex128, s *Dense) {
	cmplxs.AddScaled(m.data, alpha, s.data)
}

func (m *Dense) MulVec(v []complex128) []complex128 {
	out := make([]complex128, m.rows)
	for i := 0; i < m.rows; i++ {
		var sum complex128
		for j, x := range m.data[i*m.cols : (i+1)*m.cols] {
			sum += x * v[j]
		}
		out[i] = sum
	}
	return out
}

// IsHermitian reports whether m equals its conjugate transpose within tol.
func (m *Dense) IsHermitian(tol float64) bool {
	if m.rows != m.cols {
		return false
	}
	for i := 0; i < m.rows; i++ {
		for j := i; j < m.cols; j++ {
			if cmplx.Abs(m.At(i, j)-cmplx.Conj(m.At(j, i))) > tol {
				return false
			}
		}
	}
	return true
}

// MatMul returns a @ b.
func MatMul(a, b *Dense) *Dense {
	if a.cols != b.rows {
		panic(fmt.Sprintf("qtensor: cannot multiply %dx%d by %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	out := NewDense(a.rows, b.cols, nil)
	for i := 0; i < a.rows; i++ {
		row := out.data[i*b.cols : (i+1)*b.cols]
		for k := 0; k < a.cols; k++ {
			av := a.data[i*a.cols+k]
			if av == 0 {
				continue
			}
			cmplxs.AddScaled(row, av, b.data[k*b.cols:(k+1)*b.cols])
		}
	}
	return out
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b *Dense) *Dense {
	rows, cols := a.rows*b.rows, a.cols*b.cols
	out := NewDense(rows, cols, nil)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			av := a.data[i*a.cols+j]
			if av == 0 {
				continue
			}
			for k := 0; k < b.rows; k++ {
				for l := 0; l < b.cols; l++ {
					out.data[(i*b.rows+k)*cols+j*b.cols+l] = av * b.data[k*b.cols+l]
				}
			}
		}
	}
	return out
}

/*
Sparse is a compressed sparse row matrix. Column indices inside a row are kept
sorted.
*/
type Sparse struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []complex128
}

/*
NewSparse builds a CSR matrix from its raw arrays.

Returns an error when the arrays are inconsistent with the shape.
*/
func NewSparse(rows, cols int, indptr, indices []int, data []complex128) (*Sparse, error) {
	if len(indptr) != rows+1 || len(indices) != len(data) || indptr[rows] != len(data) {
		return nil, newError(DimensionMismatch, "NewSparse", "inconsistent CSR arrays for a %dx%d matrix", rows, cols)
	}
	for i := 0; i < rows; i++ {
		if indptr[i] > indptr[i+1] {
			return nil, newError(DimensionMismatch, "NewSparse", "row pointer decreases at row %d", i)
		}
		if !sort.IntsAreSorted(indices[indptr[i]:indptr[i+1]]) {
			return nil, newError(DimensionMismatch, "NewSparse", "column indices of row %d are not sorted", i)
		}
	}
	for _, j := range indices {
		if j < 0 || j >= cols {
			return nil, newError(DimensionMismatch, "NewSparse", "column %d outside %d columns", j, cols)
		}
	}
	return &Sparse{rows: rows, cols: cols, indptr: indptr, indices: indices, data: data}, nil
}

// SparseFromDense keeps the entries of d with magnitude above tol.
func SparseFromDense(d *Dense, tol float64) *Sparse {
	s := &Sparse{rows: d.rows, cols: d.cols, indptr: make([]int, 1, d.rows+1)}
	for i := 0; i < d.rows; i++ {
		for j := 0; j < d.cols; j++ {
			if v := d.At(i, j); cmplx.Abs(v) > tol {
				s.indices = append(s.indices, j)
				s.data = append(s.data, v)
			}
		}
		s.indptr = append(s.indptr, len(s.data))
	}
	return s
}

func (s *Sparse) isMatrix() {}

func (s *Sparse) Dims() (r, c int) { return s.rows, s.cols }

func (s *Sparse) At(i, j int) complex128 {
	row := s.indices[s.indptr[i]:s.indptr[i+1]]
	if k := sort.SearchInts(row, j); k < len(row) && row[k] == j {
		return s.data[s.indptr[i]+k]
	}
	return 0
}

// NNZ is the number of stored entries.
func (s *Sparse) NNZ() int { return len(s.data) }

func (s *Sparse) ToDense() *Dense {
	d := NewDense(s.rows, s.cols, nil)
	for i := 0; i < s.rows; i++ {
		for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
			d.data[i*s.cols+s.indices[k]] = s.data[k]
		}
	}
	return d
}

func (s *Sparse) MulVec(v []complex128) []complex128 {
	out := make([]complex128, s.rows)
	for i := 0; i < s.rows; i++ {
		var sum complex128
		for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
			sum += s.data[k] * v[s.indices[k]]
		}
		out[i] = sum
	}
	return out
}

// MulDense returns s @ d as a dense matrix.
func (s *Sparse) MulDense(d *Dense) *Dense {
	out := NewDense(s.rows, d.cols, nil)
	for i := 0; i < s.rows; i++ {
		row := out.data[i*d.cols : (i+1)*d.cols]
		for k := s.indptr[i]; k < s.indptr[i+1]; k++ {
			j := s.indices[k]
			cmplxs.AddScaled(row, s.data[k], d.data[j*d.cols:(j+1)*d.cols])
		}
	}
	return out
}

func (s *Sparse) Clone() *Sparse {
	return &Sparse{
		rows:    s.rows,
		cols:    s.cols,
		indptr:  append([]int(nil), s.indptr...),
		indices: append([]int(nil), s.indices...),
		data:    append([]complex128(nil), s.data...),
	}
}

// toDense densifies any Matrix variant.
func toDense(m Matrix) *Dense {
	switch v := m.(type) {
	case *Dense:
		return v
	case *Sparse:
		return v.ToDense()
	}
	panic(fmt.Sprintf("qtensor: unknown matrix variant %T", m))
}

// mulVec multiplies any Matrix variant by a vector.
func mulVec(m Matrix, v []complex128) []complex128 {
	switch mv := m.(type) {
	case *Dense:
		return mv.MulVec(v)
	case *Sparse:
		return mv.MulVec(v)
	}
	panic(fmt.Sprintf("qtensor: unknown matrix variant %T", m))
}

// mulDense multiplies any Matrix variant by a dense matrix.
func mulDense(m Matrix, d *Dense) *Dense {
	switch mv := m.(type) {
	case *Dense:
		return MatMul(mv, d)
	case *Sparse:
		return mv.MulDense(d)
	}
	panic(fmt.Sprintf("qtensor: unknown matrix variant %T", m))
}
