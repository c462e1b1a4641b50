package qtensor

import (
	"time"
)

/*
applyMatrix contracts a 2^k x 2^k matrix with the given axes of a flat buffer
viewed as a rank-qubit tensor. The input legs of the matrix are contracted with
the target legs of the state, after which the output legs are moved back into
the positions of the targets. The input buffer is left untouched.
*/
func applyMatrix(m *Dense, state []complex128, axes []int, rank int) []complex128 {
	k := len(axes)
	in := make([]int, k)
	for i := range in {
		in[i] = k + i
	}

	res := Tensordot(qubitTensor(m.data, 2*k), qubitTensor(state, rank), in, axes)
	return res.Transpose(reverseOrder(targetOrder(axes, rank))).data
}

/*
ApplyGate applies a gate to a state vector over n qubits and returns the new
state. Controlled gates are contracted only against the slice of the state in
which every control qubit is 1; the rest of the state is copied through.
*/
func (b *Backend) ApplyGate(g *Gate, state []complex128, n int) ([]complex128, error) {
	defer b.observe("apply_gate", time.Now())

	state, m, err := b.prepareVector("ApplyGate", g, state, n)
	if err != nil {
		return nil, err
	}

	if !g.IsControlledBy() {
		return b.round(applyMatrix(m, state, g.Qubits(), n)), nil
	}

	order, targets := controlOrder(g, n)
	nactive := n - len(g.ControlQubits())

	t := qubitTensor(state, n).Transpose(order).data
	active := t[len(t)-1<<nactive:]
	copy(active, applyMatrix(m, active, targets, nactive))

	return b.round(qubitTensor(t, n).Transpose(reverseOrder(order)).data), nil
}

/*
ApplyGateDensityMatrix conjugates a density matrix with a gate, rho -> U rho U†.
The matrix acts on the row legs of the targets and its conjugate on the column
legs. For controlled gates the control block splits rho into quadrants: the
block where both row and column controls are active gets both factors, the
blocks where only one side is active get that side's factor, and the rest is
left untouched.
*/
func (b *Backend) ApplyGateDensityMatrix(g *Gate, rho *Dense, n int) (*Dense, error) {
	defer b.observe("apply_gate_density_matrix", time.Now())

	data, m, err := b.prepareDensity("ApplyGateDensityMatrix", g, rho, n)
	if err != nil {
		return nil, err
	}
	mc := m.Conj()

	if !g.IsControlledBy() {
		targets := g.Qubits()
		data = applyMatrix(m, data, targets, 2*n)
		data = applyMatrix(mc, data, shift(targets, n), 2*n)
		return NewDense(1<<n, 1<<n, b.round(data)), nil
	}

	order, targets := controlOrderDensityMatrix(g, n)
	nactive := n - len(g.ControlQubits())
	nc := 1 << len(g.ControlQubits())
	block := 1 << (2 * nactive)
	rows, cols := targets, shift(targets, nactive)

	t := qubitTensor(data, 2*n).Transpose(order).data
	quadrant := func(r, c int) []complex128 {
		off := (r*nc + c) * block
		return t[off : off+block]
	}

	for i := 0; i < nc-1; i++ {
		// active rows, inactive columns
		sub := quadrant(nc-1, i)
		copy(sub, applyMatrix(m, sub, rows, 2*nactive))
		// inactive rows, active columns
		sub = quadrant(i, nc-1)
		copy(sub, applyMatrix(mc, sub, cols, 2*nactive))
	}

	sub := quadrant(nc-1, nc-1)
	copy(sub, applyMatrix(mc, applyMatrix(m, sub, rows, 2*nactive), cols, 2*nactive))

	data = qubitTensor(t, 2*n).Transpose(reverseOrder(order)).data
	return NewDense(1<<n, 1<<n, b.round(data)), nil
}

/*
ApplyGateHalfDensityMatrix multiplies a density matrix by the gate from the
left only. Controlled gates are not supported.
*/
func (b *Backend) ApplyGateHalfDensityMatrix(g *Gate, rho *Dense, n int) (*Dense, error) {
	defer b.observe("apply_gate_half_density_matrix", time.Now())

	if g.IsControlledBy() {
		return nil, newError(UnsupportedOperation, "ApplyGateHalfDensityMatrix", "half application of controlled gate %s is not supported", g.Name)
	}

	data, m, err := b.prepareDensity("ApplyGateHalfDensityMatrix", g, rho, n)
	if err != nil {
		return nil, err
	}

	return NewDense(1<<n, 1<<n, b.round(applyMatrix(m, data, g.Qubits(), 2*n))), nil
}

func (b *Backend) prepareVector(op string, g *Gate, state []complex128, n int) ([]complex128, *Dense, error) {
	if len(state) != 1<<n {
		return nil, nil, newError(DimensionMismatch, op, "state of length %d does not hold %d qubits", len(state), n)
	}
	if err := checkQubits(op, g.Qubits(), n); err != nil {
		return nil, nil, err
	}

	m, err := g.Matrix(b)
	if err != nil {
		return nil, nil, err
	}

	state, err = b.CastState(state, false)
	return state, m, err
}

func (b *Backend) prepareDensity(op string, g *Gate, rho *Dense, n int) ([]complex128, *Dense, error) {
	if err := checkDensity(op, rho, n); err != nil {
		return nil, nil, err
	}
	if err := checkQubits(op, g.Qubits(), n); err != nil {
		return nil, nil, err
	}

	m, err := g.Matrix(b)
	if err != nil {
		return nil, nil, err
	}

	data, err := b.CastState(rho, false)
	return data, m, err
}

func checkDensity(op string, rho *Dense, n int) error {
	if r, c := rho.Dims(); r != 1<<n || c != 1<<n {
		return newError(DimensionMismatch, op, "density matrix of shape %dx%d does not hold %d qubits", r, c, n)
	}
	return nil
}

// round brings a freshly computed buffer to the backend precision in place.
func (b *Backend) round(buf []complex128) []complex128 {
	if b.config.Dtype == Complex64 {
		for i, v := range buf {
			buf[i] = b.config.Dtype.round(v)
		}
	}
	return buf
}
