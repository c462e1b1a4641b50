package qtensor

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/theapemachine/errnie"
	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"
)

/*
CalculateEigenvalues returns the eigenvalues of a Hermitian matrix in ascending
order. Dense matrices are diagonalized fully and k is ignored. Sparse matrices
go through the eigenvector path and yield the k smallest eigenvalues.
*/
func (b *Backend) CalculateEigenvalues(m Matrix, k int) ([]float64, error) {
	defer b.observe("calculate_eigenvalues", time.Now())

	if _, ok := m.(*Sparse); ok {
		errnie.Info("CalculateEigenvalues - sparse matrix, computing eigenvectors for the %v smallest eigenvalues", k)
		vals, _, err := b.CalculateEigenvectors(m, k)
		return vals, err
	}

	vals, _, err := hermitianEigen("CalculateEigenvalues", toDense(m), false)
	return vals, err
}

/*
CalculateEigenvectors diagonalizes a Hermitian matrix. The eigenvectors are the
columns of the returned matrix, matching the eigenvalues in ascending order.

For sparse matrices only the k smallest eigenpairs are computed, with a Lanczos
iteration, unless k covers the whole dimension in which case the matrix is
densified.
*/
func (b *Backend) CalculateEigenvectors(m Matrix, k int) ([]float64, *Dense, error) {
	defer b.observe("calculate_eigenvectors", time.Now())

	if s, ok := m.(*Sparse); ok {
		if s.rows != s.cols {
			return nil, nil, newError(DimensionMismatch, "CalculateEigenvectors", "matrix of shape %dx%d is not square", s.rows, s.cols)
		}
		if k <= 0 {
			return nil, nil, newError(DimensionMismatch, "CalculateEigenvectors", "cannot compute %d eigenpairs", k)
		}
		if k < s.rows {
			return lanczos(s, k)
		}
	}

	return hermitianEigen("CalculateEigenvectors", toDense(m), true)
}

/*
CalculateMatrixExp returns exp(-i a M). When the eigendecomposition of M is
given it is used directly, V diag(exp(-i a lambda)) V†. Otherwise, and always
for sparse M, the exponential is computed by scaling and squaring a Taylor
series; a sparse input yields a sparse result.
*/
func (b *Backend) CalculateMatrixExp(a float64, m Matrix, eigvecs *Dense, eigvals []float64) (Matrix, error) {
	defer b.observe("calculate_matrix_exp", time.Now())

	r, c := m.Dims()
	if r != c {
		return nil, newError(DimensionMismatch, "CalculateMatrixExp", "matrix of shape %dx%d is not square", r, c)
	}

	_, sparse := m.(*Sparse)
	if eigvecs == nil || sparse {
		out := expm(toDense(m).Scale(complex(0, -a)))
		if sparse {
			return SparseFromDense(out, 0), nil
		}
		return b.roundDense(out), nil
	}

	if vr, vc := eigvecs.Dims(); vr != r || vc != len(eigvals) {
		return nil, newError(DimensionMismatch, "CalculateMatrixExp", "%dx%d eigenvectors for %d eigenvalues of a %dx%d matrix", vr, vc, len(eigvals), r, c)
	}

	scaled := eigvecs.Clone()
	for j, ev := range eigvals {
		phase := cmplx.Exp(complex(0, -a*ev))
		for i := 0; i < r; i++ {
			scaled.data[i*scaled.cols+j] *= phase
		}
	}

	return b.roundDense(MatMul(scaled, eigvecs.H())), nil
}

/*
hermitianEigen diagonalizes a Hermitian matrix through its real symmetric
embedding [[Re A, -Im A], [Im A, Re A]]. Every eigenvalue of A appears twice
in the embedding, with eigenvectors (x, y) and (-y, x) that both stand for the
complex vector x + iy. Eigenvalues come back ascending; eigenvectors, when
asked for, are the columns of the returned matrix.
*/
func hermitianEigen(op string, m *Dense, vectors bool) ([]float64, *Dense, error) {
	n, cols := m.Dims()
	if n != cols || n == 0 {
		return nil, nil, newError(DimensionMismatch, op, "matrix of shape %dx%d is not square", n, cols)
	}

	dim := 2 * n
	emb := make([]float64, dim*dim)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			emb[i*dim+j] = real(v)
			emb[i*dim+n+j] = -imag(v)
			emb[(n+i)*dim+j] = imag(v)
			emb[(n+i)*dim+n+j] = real(v)
		}
	}

	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(dim, emb), vectors) {
		return nil, nil, newError(UnsupportedOperation, op, "eigendecomposition of %dx%d matrix did not converge", n, n)
	}

	all := es.Values(nil)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = (all[2*i] + all[2*i+1]) / 2
	}
	if !vectors {
		return vals, nil, nil
	}

	var q mat.Dense
	es.VectorsTo(&q)

	candidates := make([][]complex128, dim)
	for c := 0; c < dim; c++ {
		z := make([]complex128, n)
		for i := 0; i < n; i++ {
			z[i] = complex(q.At(i, c), q.At(n+i, c))
		}
		candidates[c] = z
	}

	out := NewDense(n, n, nil)
	tol := 1e-8 * math.Max(1, math.Max(math.Abs(vals[0]), math.Abs(vals[n-1])))

	for start := 0; start < n; {
		end := start + 1
		for end < n && vals[end]-vals[start] <= tol {
			end++
		}

		basis := selectBasis(candidates[2*start:2*end], end-start)
		for j, z := range basis {
			for i := 0; i < n; i++ {
				out.data[i*n+start+j] = z[i]
			}
		}
		start = end
	}

	return vals, out, nil
}

/*
selectBasis picks count orthonormal complex vectors spanning the candidates.
At each step the candidate with the largest component outside the vectors
picked so far is taken.
*/
func selectBasis(candidates [][]complex128, count int) [][]complex128 {
	residuals := make([][]complex128, len(candidates))
	for i, c := range candidates {
		residuals[i] = append([]complex128(nil), c...)
	}

	basis := make([][]complex128, 0, count)
	for len(basis) < count {
		best, bestNorm := -1, 0.0
		for i, r := range residuals {
			if norm := cmplxs.Norm(r, 2); norm > bestNorm {
				best, bestNorm = i, norm
			}
		}
		if best < 0 {
			break
		}

		v := residuals[best]
		cmplxs.Scale(complex(1/bestNorm, 0), v)
		basis = append(basis, v)

		residuals = append(residuals[:best], residuals[best+1:]...)
		for _, r := range residuals {
			cmplxs.AddScaled(r, -cmplxs.Dot(v, r), v)
		}
	}
	return basis
}

/*
lanczos computes the k smallest eigenpairs of a Hermitian sparse matrix.
The Krylov basis is fully reorthogonalized at every step and the iteration
restarts from a fresh random direction when it hits an invariant subspace.
The Ritz pairs come from the projection V† A V of the matrix onto the basis.
The basis keeps growing until every returned pair has a residual
‖A y - θ y‖ below lanczosTolerance relative to the spectrum seen so far. Once
the basis spans the whole space the result is exact, so the loop always ends.
*/
func lanczos(a *Sparse, k int) ([]float64, *Dense, error) {
	n := a.rows
	rng := NewRNG(uint64(n)<<32 | uint64(k))

	basis := make([][]complex128, 0, n)
	images := make([][]complex128, 0, n)

	v := randomDirection(n, rng, nil)
	steps := min(n, max(2*k+20, 4*k))

	for {
		for len(basis) < steps && v != nil {
			w := a.MulVec(v)
			basis = append(basis, v)
			images = append(images, w)

			next := append([]complex128(nil), w...)
			orthogonalize(next, basis)
			if norm := cmplxs.Norm(next, 2); norm > 1e-10 {
				cmplxs.Scale(complex(1/norm, 0), next)
				v = next
			} else {
				v = randomDirection(n, rng, basis)
			}
		}

		vals, vecs, converged, err := ritzPairs(basis, images, k)
		if err != nil {
			return nil, nil, err
		}
		if converged || v == nil || len(basis) >= n {
			return vals, vecs, nil
		}

		errnie.Info("lanczos - %v of %v basis vectors, residuals above tolerance", len(basis), n)
		steps = min(n, steps+max(k, 20))
	}
}

const lanczosTolerance = 1e-10

/*
ritzPairs projects the matrix onto the basis and lifts the k smallest
eigenpairs of the projection back to the full space. converged reports
whether all of them satisfy the eigen equation within lanczosTolerance.
*/
func ritzPairs(basis, images [][]complex128, k int) ([]float64, *Dense, bool, error) {
	m := len(basis)
	n := len(basis[0])

	proj := NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			proj.data[i*m+j] = cmplxs.Dot(basis[i], images[j])
		}
	}

	ritz, s, err := hermitianEigen("CalculateEigenvectors", proj, true)
	if err != nil {
		return nil, nil, false, err
	}

	scale := math.Max(1, math.Max(math.Abs(ritz[0]), math.Abs(ritz[m-1])))
	converged := true

	k = min(k, m)
	vecs := NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		y := make([]complex128, n)
		ay := make([]complex128, n)
		for j := range basis {
			w := s.At(j, c)
			cmplxs.AddScaled(y, w, basis[j])
			cmplxs.AddScaled(ay, w, images[j])
		}

		for i := 0; i < n; i++ {
			vecs.data[i*k+c] = y[i]
		}

		cmplxs.AddScaled(ay, complex(-ritz[c], 0), y)
		if cmplxs.Norm(ay, 2) > lanczosTolerance*scale {
			converged = false
		}
	}

	return ritz[:k], vecs, converged, nil
}

// randomDirection returns a random unit vector orthogonal to basis, or nil when
// basis already spans the whole space.
func randomDirection(n int, rng *RNG, basis [][]complex128) []complex128 {
	if len(basis) >= n {
		return nil
	}

	for attempt := 0; attempt < 8; attempt++ {
		v := make([]complex128, n)
		for i := range v {
			v[i] = complex(rng.Float64()-0.5, rng.Float64()-0.5)
		}
		orthogonalize(v, basis)
		if norm := cmplxs.Norm(v, 2); norm > 1e-8 {
			cmplxs.Scale(complex(1/norm, 0), v)
			return v
		}
	}
	return nil
}

// orthogonalize removes the components of v along basis, in two passes.
func orthogonalize(v []complex128, basis [][]complex128) {
	for pass := 0; pass < 2; pass++ {
		for _, u := range basis {
			cmplxs.AddScaled(v, -cmplxs.Dot(u, v), u)
		}
	}
}

/*
expm computes the matrix exponential by scaling m down until its 1-norm is
below one half, summing the Taylor series and squaring the result back up.
*/
func expm(m *Dense) *Dense {
	n := m.rows

	var norm float64
	for j := 0; j < n; j++ {
		var col float64
		for i := 0; i < n; i++ {
			col += cmplx.Abs(m.data[i*n+j])
		}
		norm = math.Max(norm, col)
	}

	squarings := 0
	if norm > 0.5 {
		squarings = int(math.Ceil(math.Log2(norm / 0.5)))
	}
	scaled := m.Scale(complex(math.Ldexp(1, -squarings), 0))

	out := Eye(n)
	term := Eye(n)
	for i := 1; i <= 30; i++ {
		term = MatMul(term, scaled).Scale(complex(1/float64(i), 0))
		out.AddScaled(1, term)
		if maxAbs(term.data) < 1e-17 {
			break
		}
	}

	for i := 0; i < squarings; i++ {
		out = MatMul(out, out)
	}
	return out
}

func maxAbs(data []complex128) float64 {
	var m float64
	for _, v := range data {
		m = math.Max(m, cmplx.Abs(v))
	}
	return m
}
