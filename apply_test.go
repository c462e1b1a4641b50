package qtensor

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const tol = 1e-10

func newTestBackend() *Backend {
	b, err := NewBackend(WithSeed(1234))
	if err != nil {
		panic(err)
	}
	return b
}

// outer builds |psi><psi|.
func outer(psi []complex128) *Dense {
	n := len(psi)
	rho := NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rho.Set(i, j, psi[i]*cmplx.Conj(psi[j]))
		}
	}
	return rho
}

// basis returns |index> over n qubits.
func basis(index, n int) []complex128 {
	state := make([]complex128, 1<<n)
	state[index] = 1
	return state
}

func applyAll(b *Backend, state []complex128, n int, gates ...*Gate) []complex128 {
	var err error
	for _, g := range gates {
		if state, err = b.ApplyGate(g, state, n); err != nil {
			panic(err)
		}
	}
	return state
}

func TestApplyGate(t *testing.T) {
	Convey("Given a backend", t, func() {
		b := newTestBackend()

		Convey("When applying X to |0>", func() {
			state, err := b.ApplyGate(X(0), b.ZeroState(1), 1)

			Convey("Then the state is |1>", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, []complex128{0, 1})
			})
		})

		Convey("When preparing a Bell state", func() {
			state := applyAll(b, b.ZeroState(2), 2, H(0), CNOT(0, 1))

			Convey("Then the amplitudes sit on |00> and |11>", func() {
				s := complex(1/math.Sqrt2, 0)
				So(state, ShouldBeAllClose, []complex128{s, 0, 0, s}, 1e-7, tol)
			})

			Convey("Then the norm is preserved", func() {
				So(b.CalculateNorm(state), ShouldAlmostEqual, 1, tol)
			})
		})

		Convey("When applying a gate and its adjoint", func() {
			start := applyAll(b, b.ZeroState(3), 3, H(0), RY(1, 0.4), CNOT(0, 2))
			gate := UnitaryGate(Kron(matrixH, matrixT), 2, 0)
			out := applyAll(b, start, 3, gate, gate.Dagger())

			Convey("Then the state is restored", func() {
				So(out, ShouldBeAllClose, start, 1e-7, tol)
			})
		})

		Convey("When the gate targets qubits in reverse order", func() {
			state, err := b.ApplyGate(CNOT(1, 0), basis(1, 2), 2)

			Convey("Then the control is read from the second qubit", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(3, 2))
			})
		})

		Convey("When the matrix does not fit the targets", func() {
			_, err := b.ApplyGate(NewGate("bad", Eye(4), 0), b.ZeroState(2), 2)

			Convey("Then it should be a dimension mismatch", func() {
				So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
			})
		})

		Convey("When a qubit is outside the register", func() {
			_, err := b.ApplyGate(X(2), b.ZeroState(2), 2)

			Convey("Then it should be a dimension mismatch", func() {
				So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestApplyControlledGate(t *testing.T) {
	Convey("Given controlled gates", t, func() {
		b := newTestBackend()

		Convey("When the control is set", func() {
			state, err := b.ApplyGate(X(1).ControlledBy(0), basis(2, 2), 2)

			Convey("Then the target flips", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(3, 2))
			})
		})

		Convey("When the control is not set", func() {
			state, err := b.ApplyGate(X(1).ControlledBy(0), basis(1, 2), 2)

			Convey("Then the state is unchanged", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(1, 2))
			})
		})

		Convey("When the control is above the target", func() {
			state, err := b.ApplyGate(X(0).ControlledBy(2), basis(1, 3), 3)

			Convey("Then |001> becomes |101>", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(5, 3))
			})
		})

		Convey("When applying a Toffoli", func() {
			set, _ := b.ApplyGate(Toffoli(0, 1, 2), basis(6, 3), 3)
			unset, _ := b.ApplyGate(Toffoli(0, 1, 2), basis(4, 3), 3)

			Convey("Then only |110> is flipped", func() {
				So(set, ShouldBeAllClose, basis(7, 3))
				So(unset, ShouldBeAllClose, basis(4, 3))
			})
		})

		Convey("When the controlled gate acts on a superposition", func() {
			start := applyAll(b, b.ZeroState(3), 3, H(0), H(1), H(2))
			controlled := applyAll(b, start, 3, RY(1, 0.7).ControlledBy(2))
			full := applyAll(b, start, 3, UnitaryGate(fullMatrixOf(b, RY(1, 0.7).ControlledBy(2)), 2, 1))

			Convey("Then it matches the full controlled matrix", func() {
				So(controlled, ShouldBeAllClose, full, 1e-7, tol)
			})
		})
	})
}

func fullMatrixOf(b *Backend, g *Gate) *Dense {
	m, err := g.fullMatrix(b)
	if err != nil {
		panic(err)
	}
	return m
}

func TestApplyGateDensityMatrix(t *testing.T) {
	Convey("Given a density matrix", t, func() {
		b := newTestBackend()

		Convey("When applying X to |0><0|", func() {
			rho, err := b.ApplyGateDensityMatrix(X(0), b.ZeroDensityMatrix(1), 1)

			Convey("Then the result is |1><1|", func() {
				So(err, ShouldBeNil)
				So(rho, ShouldBeAllClose, []complex128{0, 0, 0, 1})
			})
		})

		Convey("When evolving a pure state both ways", func() {
			psi := applyAll(b, b.ZeroState(3), 3, H(0), RX(1, 0.3), CNOT(0, 2), RY(2, 1.1))
			gates := []*Gate{
				RY(0, 0.7).ControlledBy(1),
				RX(2, 0.2).ControlledBy(0, 1),
				H(1).ControlledBy(2),
				UnitaryGate(Kron(matrixS, matrixH), 2, 0),
			}

			for _, g := range gates {
				rho, err := b.ApplyGateDensityMatrix(g, outer(psi), 3)
				So(err, ShouldBeNil)

				next, err := b.ApplyGate(g, psi, 3)
				So(err, ShouldBeNil)

				So(rho, ShouldBeAllClose, outer(next), 1e-7, tol)
				So(real(rho.Trace()), ShouldAlmostEqual, 1, tol)
			}
		})

		Convey("When applying half of a gate", func() {
			rho, err := b.ApplyGateHalfDensityMatrix(X(0), b.ZeroDensityMatrix(1), 1)

			Convey("Then only the rows are transformed", func() {
				So(err, ShouldBeNil)
				So(rho, ShouldBeAllClose, []complex128{0, 0, 1, 0})
			})
		})

		Convey("When applying half of a controlled gate", func() {
			_, err := b.ApplyGateHalfDensityMatrix(X(1).ControlledBy(0), b.ZeroDensityMatrix(2), 2)

			Convey("Then it is unsupported", func() {
				So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
			})
		})

		Convey("When the matrix has the wrong size", func() {
			_, err := b.ApplyGateDensityMatrix(X(0), b.ZeroDensityMatrix(1), 2)

			Convey("Then it should be a dimension mismatch", func() {
				So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestControlMatrix(t *testing.T) {
	Convey("Given controlled gates", t, func() {
		b := newTestBackend()

		Convey("When the gate has one control", func() {
			m, err := b.ControlMatrix(X(1).ControlledBy(0))

			Convey("Then it is the CNOT matrix", func() {
				So(err, ShouldBeNil)
				So(m, ShouldBeAllClose, matrixCNOT)
			})
		})

		Convey("When the gate has two controls", func() {
			_, err := b.ControlMatrix(Toffoli(0, 1, 2))

			Convey("Then it is unsupported", func() {
				So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
			})
		})

		Convey("When the target matrix is not 2x2", func() {
			_, err := b.ControlMatrix(SWAP(1, 2).ControlledBy(0))

			Convey("Then it should be a dimension mismatch", func() {
				So(errors.Is(err, ErrDimensionMismatch), ShouldBeTrue)
			})
		})
	})
}

func TestAsMatrixFused(t *testing.T) {
	Convey("Given a fused gate", t, func() {
		b := newTestBackend()

		Convey("When fusing H and CNOT", func() {
			fused := NewFusedGate(H(0), CNOT(0, 1))
			m, err := b.AsMatrixFused(fused)

			Convey("Then the matrix is the product in application order", func() {
				So(err, ShouldBeNil)
				So(m, ShouldBeAllClose, MatMul(matrixCNOT, Kron(matrixH, matrixI)), 1e-7, tol)
			})

			Convey("Then applying it prepares a Bell state", func() {
				state, err := b.ApplyGate(fused, b.ZeroState(2), 2)
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, applyAll(b, b.ZeroState(2), 2, H(0), CNOT(0, 1)), 1e-7, tol)
			})
		})

		Convey("When a sub-gate lists its qubits in reverse order", func() {
			m, err := b.AsMatrixFused(NewFusedGate(CNOT(1, 0)))

			Convey("Then its axes are permuted into the fused order", func() {
				So(err, ShouldBeNil)
				So(m.At(3, 1), ShouldEqual, complex128(1))
				So(m.At(1, 1), ShouldEqual, complex128(0))
				So(m.At(2, 2), ShouldEqual, complex128(1))
			})
		})

		Convey("When fusing gates on a wider register", func() {
			parts := []*Gate{H(2), X(0).ControlledBy(2), RZ(1, 0.3), SWAP(0, 1)}
			start := applyAll(b, b.ZeroState(4), 4, H(3), RY(0, 0.5))
			fused, err := b.ApplyGate(NewFusedGate(parts...), start, 4)

			Convey("Then it matches applying the parts one by one", func() {
				So(err, ShouldBeNil)
				So(fused, ShouldBeAllClose, applyAll(b, start, 4, parts...), 1e-7, tol)
			})
		})

		Convey("When the gate is not fused", func() {
			_, err := b.AsMatrixFused(H(0))

			Convey("Then it is unsupported", func() {
				So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
			})
		})
	})
}

func TestControlledFusedGate(t *testing.T) {
	Convey("Given a fused gate controlled by another qubit", t, func() {
		b := newTestBackend()
		g := NewFusedGate(X(1)).ControlledBy(0)

		Convey("Then every part carries the control", func() {
			So(g.Kind(), ShouldEqual, Fused)
			So(g.TargetQubits(), ShouldResemble, []int{0, 1})
			So(g.Parts()[0].ControlQubits(), ShouldResemble, []int{0})
		})

		Convey("When the control is 0", func() {
			state, err := b.ApplyGate(g, basis(0, 2), 2)

			Convey("Then the state is untouched", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(0, 2))
			})
		})

		Convey("When the control is 1", func() {
			state, err := b.ApplyGate(g, basis(2, 2), 2)

			Convey("Then the target flips", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(3, 2))
			})
		})
	})

	Convey("Given a fused Bell preparation controlled by a third qubit", t, func() {
		b := newTestBackend()
		g := NewFusedGate(H(0), CNOT(0, 1)).ControlledBy(2)

		Convey("When the control is 0", func() {
			state, err := b.ApplyGate(g, basis(0, 3), 3)

			Convey("Then nothing happens", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, basis(0, 3))
			})
		})

		Convey("When the control is 1", func() {
			state, err := b.ApplyGate(g, basis(1, 3), 3)

			Convey("Then the Bell pair is prepared next to it", func() {
				So(err, ShouldBeNil)
				So(state, ShouldBeAllClose, applyAll(b, basis(1, 3), 3, H(0), CNOT(0, 1)), 1e-7, tol)
			})
		})
	})
}
