package qtensor

import (
	"math"
	"math/cmplx"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// isingChain builds a transverse-field Ising Hamiltonian on n qubits.
func isingChain(n int, field float64) *Dense {
	dim := 1 << n
	h := NewDense(dim, dim, nil)

	for q := 0; q < n-1; q++ {
		term := Eye(1)
		for i := 0; i < n; i++ {
			if i == q || i == q+1 {
				term = Kron(term, matrixZ)
			} else {
				term = Kron(term, matrixI)
			}
		}
		h.AddScaled(-1, term)
	}
	for q := 0; q < n; q++ {
		term := Eye(1)
		for i := 0; i < n; i++ {
			if i == q {
				term = Kron(term, matrixX)
			} else {
				term = Kron(term, matrixI)
			}
		}
		h.AddScaled(complex(-field, 0), term)
	}
	return h
}

// column extracts column j of m.
func column(m *Dense, j int) []complex128 {
	r, _ := m.Dims()
	out := make([]complex128, r)
	for i := range out {
		out[i] = m.At(i, j)
	}
	return out
}

func scaled(v []complex128, c complex128) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = c * x
	}
	return out
}

func TestCalculateEigenvalues(t *testing.T) {
	Convey("Given Hermitian matrices", t, func() {
		b := newTestBackend()

		Convey("When the matrix is real", func() {
			vals, err := b.CalculateEigenvalues(matrixZ, 0)

			Convey("Then the eigenvalues are ascending", func() {
				So(err, ShouldBeNil)
				So(vals, ShouldBeAllClose, []float64{-1, 1})
			})
		})

		Convey("When the matrix is complex", func() {
			vals, err := b.CalculateEigenvalues(matrixY, 0)

			Convey("Then the eigenvalues are real", func() {
				So(err, ShouldBeNil)
				So(vals, ShouldBeAllClose, []float64{-1, 1})
			})
		})

		Convey("When the matrix is sparse", func() {
			h := isingChain(3, 0.7)
			dense, _ := b.CalculateEigenvalues(h, 0)
			sparse, err := b.CalculateEigenvalues(SparseFromDense(h, 0), 2)

			Convey("Then the smallest eigenvalues agree with the dense path", func() {
				So(err, ShouldBeNil)
				So(len(sparse), ShouldEqual, 2)
				So(sparse, ShouldBeAllClose, dense[:2], 1e-7, 1e-8)
			})
		})
	})
}

func TestCalculateEigenvectors(t *testing.T) {
	Convey("Given a Hermitian matrix with degenerate eigenvalues", t, func() {
		b := newTestBackend()
		h := Kron(matrixZ, matrixI)
		h.AddScaled(0.5, Kron(matrixY, matrixX))

		vals, vecs, err := b.CalculateEigenvectors(h, 4)
		So(err, ShouldBeNil)

		Convey("Then every column is an eigenvector", func() {
			for j, ev := range vals {
				v := column(vecs, j)
				So(h.MulVec(v), ShouldBeAllClose, scaled(v, complex(ev, 0)), 1e-7, 1e-9)
			}
		})

		Convey("Then the columns are orthonormal", func() {
			So(MatMul(vecs.H(), vecs), ShouldBeAllClose, Eye(4), 1e-7, 1e-9)
		})
	})

	Convey("Given a sparse Hamiltonian", t, func() {
		b := newTestBackend()
		h := isingChain(4, 1.3)

		Convey("When asking for the two lowest eigenpairs", func() {
			vals, vecs, err := b.CalculateEigenvectors(SparseFromDense(h, 0), 2)

			Convey("Then the Ritz vectors satisfy the eigen equation", func() {
				So(err, ShouldBeNil)
				r, c := vecs.Dims()
				So(r, ShouldEqual, 16)
				So(c, ShouldEqual, 2)

				for j, ev := range vals {
					v := column(vecs, j)
					So(h.MulVec(v), ShouldBeAllClose, scaled(v, complex(ev, 0)), 1e-6, 1e-7)
				}
			})
		})

		Convey("When the register is wider than the first Krylov block", func() {
			wide := isingChain(8, 1.3)
			want, _, err := hermitianEigen("CalculateEigenvalues", wide, false)
			So(err, ShouldBeNil)

			vals, vecs, err := b.CalculateEigenvectors(SparseFromDense(wide, 0), 6)

			Convey("Then the six lowest eigenpairs match the dense spectrum", func() {
				So(err, ShouldBeNil)
				So(vals, ShouldBeAllClose, want[:6], 0.0, 1e-8)

				for j, ev := range vals {
					v := column(vecs, j)
					So(wide.MulVec(v), ShouldBeAllClose, scaled(v, complex(ev, 0)), 0.0, 1e-8)
				}
			})
		})

		Convey("When k covers the whole space", func() {
			vals, vecs, err := b.CalculateEigenvectors(SparseFromDense(h, 0), 16)

			Convey("Then the matrix is diagonalized densely", func() {
				So(err, ShouldBeNil)
				So(len(vals), ShouldEqual, 16)
				So(MatMul(vecs.H(), vecs), ShouldBeAllClose, Eye(16), 1e-7, 1e-9)
			})
		})
	})
}

func TestCalculateMatrixExp(t *testing.T) {
	Convey("Given the Pauli Z matrix", t, func() {
		b := newTestBackend()
		a := 0.3
		want := []complex128{cmplx.Exp(complex(0, -a)), 0, 0, cmplx.Exp(complex(0, a))}

		Convey("When exponentiating through its eigenbasis", func() {
			vals, vecs, _ := b.CalculateEigenvectors(matrixZ, 2)
			out, err := b.CalculateMatrixExp(a, matrixZ, vecs, vals)

			Convey("Then the phases sit on the diagonal", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeAllClose, want, 1e-7, 1e-9)
			})
		})

		Convey("When exponentiating without an eigenbasis", func() {
			out, err := b.CalculateMatrixExp(a, matrixZ, nil, nil)

			Convey("Then the series gives the same result", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeAllClose, want, 1e-7, 1e-9)
			})
		})

		Convey("When the matrix is sparse", func() {
			out, err := b.CalculateMatrixExp(a, SparseFromDense(matrixZ, 0), nil, nil)

			Convey("Then the result stays sparse", func() {
				So(err, ShouldBeNil)
				_, ok := out.(*Sparse)
				So(ok, ShouldBeTrue)
				So(out, ShouldBeAllClose, want, 1e-7, 1e-9)
			})
		})
	})

	Convey("Given a matrix with a large norm", t, func() {
		b := newTestBackend()
		h := isingChain(2, 0.4)

		Convey("When exponentiating both ways", func() {
			vals, vecs, _ := b.CalculateEigenvectors(h, 4)
			spectral, _ := b.CalculateMatrixExp(2.5, h, vecs, vals)
			series, _ := b.CalculateMatrixExp(2.5, h, nil, nil)

			Convey("Then the results agree and are unitary", func() {
				So(series, ShouldBeAllClose, spectral, 1e-7, 1e-9)

				u := series.(*Dense)
				So(MatMul(u.H(), u), ShouldBeAllClose, Eye(4), 1e-7, 1e-9)
			})
		})

		Convey("When exponentiating X by a quarter turn", func() {
			out, _ := b.CalculateMatrixExp(math.Pi/2, matrixX, nil, nil)

			Convey("Then the result is -iX", func() {
				So(out, ShouldBeAllClose, matrixX.Scale(-1i), 1e-7, 1e-9)
			})
		})
	})
}
