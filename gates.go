package qtensor

import (
	"math"
	"math/cmplx"
)

var (
	matrixI = NewDense(2, 2, []complex128{1, 0, 0, 1})
	matrixH = NewDense(2, 2, []complex128{
		complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0),
		complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0),
	})
	matrixX = NewDense(2, 2, []complex128{0, 1, 1, 0})
	matrixY = NewDense(2, 2, []complex128{0, -1i, 1i, 0})
	matrixZ = NewDense(2, 2, []complex128{1, 0, 0, -1})
	matrixS = NewDense(2, 2, []complex128{1, 0, 0, 1i})
	matrixT = NewDense(2, 2, []complex128{1, 0, 0, cmplx.Exp(complex(0, math.Pi/4))})

	matrixCNOT = NewDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
		0, 0, 1, 0,
	})
	matrixCZ = NewDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, -1,
	})
	matrixSWAP = NewDense(4, 4, []complex128{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	})
)

func I(q int) *Gate { return NewGate("id", matrixI, q) }
func H(q int) *Gate { return NewGate("h", matrixH, q) }
func X(q int) *Gate { return NewGate("x", matrixX, q) }
func Y(q int) *Gate { return NewGate("y", matrixY, q) }
func Z(q int) *Gate { return NewGate("z", matrixZ, q) }
func S(q int) *Gate { return NewGate("s", matrixS, q) }
func T(q int) *Gate { return NewGate("t", matrixT, q) }

func RX(q int, theta float64) *Gate {
	c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
	return NewGate("rx", NewDense(2, 2, []complex128{c, s, s, c}), q)
}

func RY(q int, theta float64) *Gate {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return NewGate("ry", NewDense(2, 2, []complex128{c, -s, s, c}), q)
}

func RZ(q int, theta float64) *Gate {
	phase := cmplx.Exp(complex(0, theta/2))
	return NewGate("rz", NewDense(2, 2, []complex128{cmplx.Conj(phase), 0, 0, phase}), q)
}

// CNOT is the two-qubit matrix form; X(target).ControlledBy(control) is the
// controlled form of the same operator.
func CNOT(control, target int) *Gate { return NewGate("cx", matrixCNOT, control, target) }
func CZ(control, target int) *Gate   { return NewGate("cz", matrixCZ, control, target) }
func SWAP(q0, q1 int) *Gate          { return NewGate("swap", matrixSWAP, q0, q1) }

// Toffoli flips target where both controls are 1.
func Toffoli(c0, c1, target int) *Gate { return X(target).ControlledBy(c0, c1) }

// UnitaryGate builds an arbitrary gate from a matrix.
func UnitaryGate(matrix *Dense, targets ...int) *Gate {
	return NewGate("unitary", matrix, targets...)
}
