package qtensor

import (
	"time"
)

/*
Hamiltonian is a Hermitian operator over NQubits qubits, held as a dense or
sparse matrix. Its eigendecomposition is computed on first use and cached.
*/
type Hamiltonian struct {
	NQubits int
	Matrix  Matrix

	eigvals []float64
	eigvecs *Dense
}

// NewHamiltonian checks that m is a 2^n x 2^n matrix.
func NewHamiltonian(n int, m Matrix) (*Hamiltonian, error) {
	if r, c := m.Dims(); r != 1<<n || c != 1<<n {
		return nil, newError(DimensionMismatch, "NewHamiltonian", "matrix of shape %dx%d does not act on %d qubits", r, c, n)
	}
	return &Hamiltonian{NQubits: n, Matrix: m}, nil
}

// Eigenvectors returns the full eigendecomposition, computing it once.
func (h *Hamiltonian) Eigenvectors(b *Backend) ([]float64, *Dense, error) {
	if h.eigvecs == nil {
		r, _ := h.Matrix.Dims()
		vals, vecs, err := b.CalculateEigenvectors(h.Matrix, r)
		if err != nil {
			return nil, nil, err
		}
		h.eigvals, h.eigvecs = vals, vecs
	}
	return h.eigvals, h.eigvecs, nil
}

// GroundStateEnergy is the smallest eigenvalue.
func (h *Hamiltonian) GroundStateEnergy(b *Backend) (float64, error) {
	vals, err := b.CalculateEigenvalues(h.Matrix, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

/*
Exp returns exp(-i a H). Dense Hamiltonians go through their cached
eigendecomposition; sparse ones are exponentiated directly.
*/
func (h *Hamiltonian) Exp(b *Backend, a float64) (Matrix, error) {
	if _, ok := h.Matrix.(*Sparse); ok {
		return b.CalculateMatrixExp(a, h.Matrix, nil, nil)
	}

	vals, vecs, err := h.Eigenvectors(b)
	if err != nil {
		return nil, err
	}
	return b.CalculateMatrixExp(a, h.Matrix, vecs, vals)
}

// Expectation returns the normalized expectation value of h in state.
func (h *Hamiltonian) Expectation(b *Backend, state []complex128) (float64, error) {
	return b.CalculateExpectationState(h.Matrix, state, true)
}

/*
CalculateMatrixProduct multiplies a Hamiltonian with another operand:

  - *Hamiltonian: the product Hamiltonian
  - []complex128: H applied to a state vector
  - *Dense: H @ rho
  - *Tensor[complex128] of rank 1 or 2: treated as a vector or a matrix

Tensors of higher rank and any other operand are NotImplemented.
*/
func (b *Backend) CalculateMatrixProduct(h *Hamiltonian, o any) (any, error) {
	defer b.observe("calculate_matrix_product", time.Now())

	dim := 1 << h.NQubits

	switch v := o.(type) {
	case *Hamiltonian:
		if v.NQubits != h.NQubits {
			return nil, newError(DimensionMismatch, "CalculateMatrixProduct", "Hamiltonians on %d and %d qubits", h.NQubits, v.NQubits)
		}
		product := mulDense(h.Matrix, toDense(v.Matrix))

		_, lsparse := h.Matrix.(*Sparse)
		_, rsparse := v.Matrix.(*Sparse)
		if lsparse && rsparse {
			return &Hamiltonian{NQubits: h.NQubits, Matrix: SparseFromDense(product, 0)}, nil
		}
		return &Hamiltonian{NQubits: h.NQubits, Matrix: product}, nil

	case []complex128:
		if len(v) != dim {
			return nil, newError(DimensionMismatch, "CalculateMatrixProduct", "state of length %d for a Hamiltonian on %d qubits", len(v), h.NQubits)
		}
		return mulVec(h.Matrix, v), nil

	case *Dense:
		if v.rows != dim {
			return nil, newError(DimensionMismatch, "CalculateMatrixProduct", "matrix with %d rows for a Hamiltonian on %d qubits", v.rows, h.NQubits)
		}
		return mulDense(h.Matrix, v), nil

	case *Tensor[complex128]:
		switch v.Rank() {
		case 1:
			return b.CalculateMatrixProduct(h, v.data)
		case 2:
			return b.CalculateMatrixProduct(h, NewDense(v.shape[0], v.shape[1], v.data))
		}
		return nil, newError(NotImplemented, "CalculateMatrixProduct", "cannot multiply a Hamiltonian with a rank-%d tensor", v.Rank())
	}

	return nil, newError(NotImplemented, "CalculateMatrixProduct", "Hamiltonian product with %T is not implemented", o)
}
