package qtensor

import (
	"slices"
	"time"
)

/*
ApplyChannel applies a channel to a state vector by sampling it. Each gate of a
mixture gets its own uniform draw and is applied when the draw falls below its
probability. Reset channels collapse and flip the target; thermal relaxation
has no pure-state form and is rejected.
*/
func (b *Backend) ApplyChannel(ch *Channel, state []complex128, n int) ([]complex128, error) {
	defer b.observe("apply_channel", time.Now())

	switch ch.Kind() {
	case ResetChannel:
		return b.ResetErrorState(ch, state, n)
	case ThermalChannel:
		return nil, newError(UnsupportedOperation, "ApplyChannel", "%s cannot act on a state vector, use a density matrix", ch.Name)
	}

	var err error
	for i, g := range ch.Gates() {
		if b.rng.Float64() < ch.Coefficients()[i] {
			if state, err = b.ApplyGate(g, state, n); err != nil {
				return nil, err
			}
		}
	}
	return state, nil
}

/*
ApplyChannelDensityMatrix applies a channel to a density matrix exactly. A
mixture maps rho to (1 - sum p) rho + sum p_i G_i(rho).
*/
func (b *Backend) ApplyChannelDensityMatrix(ch *Channel, rho *Dense, n int) (*Dense, error) {
	defer b.observe("apply_channel_density_matrix", time.Now())

	switch ch.Kind() {
	case ResetChannel:
		return b.ResetErrorDensityMatrix(ch, rho, n)
	case ThermalChannel:
		return b.ThermalErrorDensityMatrix(ch, rho, n)
	}

	if err := checkDensity("ApplyChannelDensityMatrix", rho, n); err != nil {
		return nil, err
	}

	out := rho.Scale(complex(1-ch.CoefficientSum(), 0))
	for i, g := range ch.Gates() {
		next, err := b.ApplyGateDensityMatrix(g, rho, n)
		if err != nil {
			return nil, err
		}
		out.AddScaled(complex(ch.Coefficients()[i], 0), next)
	}

	b.round(out.data)
	return out, nil
}

/*
ResetErrorState samples a reset channel on a state vector with a single draw
r: below p0 the target is measured and brought to |0>, between p0 and p0+p1 it
is measured and brought to |1>, otherwise the state is returned as is.
*/
func (b *Backend) ResetErrorState(ch *Channel, state []complex128, n int) ([]complex128, error) {
	if ch.Kind() != ResetChannel {
		return nil, newError(UnsupportedOperation, "ResetErrorState", "channel %s is not a reset channel", ch.Name)
	}

	p0, p1 := ch.Coefficients()[0], ch.Coefficients()[1]
	r := b.rng.Float64()

	var want int
	switch {
	case r < p0:
		want = 0
	case r < p0+p1:
		want = 1
	default:
		return state, nil
	}

	m := NewMeasurement(ch.target)
	state, err := b.CollapseState(m, state, n)
	if err != nil {
		return nil, err
	}

	if m.Result.Samples()[0][0] != want {
		return b.ApplyGate(X(ch.target), state, n)
	}
	return state, nil
}

/*
ResetErrorDensityMatrix maps rho to (1-p0-p1) rho + p0 rho0 + p1 X rho0 X where
rho0 is rho with the target traced out and replaced by |0><0|.
*/
func (b *Backend) ResetErrorDensityMatrix(ch *Channel, rho *Dense, n int) (*Dense, error) {
	defer b.observe("reset_error_density_matrix", time.Now())

	if ch.Kind() != ResetChannel {
		return nil, newError(UnsupportedOperation, "ResetErrorDensityMatrix", "channel %s is not a reset channel", ch.Name)
	}

	q := ch.target
	p0, p1 := ch.Coefficients()[0], ch.Coefficients()[1]

	traced, err := b.PartialTraceDensityMatrix(rho, []int{q}, n)
	if err != nil {
		return nil, err
	}

	zero := b.ZeroDensityMatrix(1)
	t := Tensordot(qubitTensor(traced.data, 2*(n-1)), qubitTensor(zero.data, 2), nil, nil)

	// the |0><0| legs sit last; move them back to row q and column q+n
	order := make([]int, 0, 2*n)
	for i := 0; i < 2*(n-1); i++ {
		order = append(order, i)
	}
	order = slices.Insert(order, q, 2*n-2)
	order = slices.Insert(order, q+n, 2*n-1)
	rho0 := NewDense(1<<n, 1<<n, t.Transpose(order).data)

	out := rho.Scale(complex(1-p0-p1, 0))
	out.AddScaled(complex(p0, 0), rho0)

	if p1 > 0 {
		flipped, err := b.ApplyGateDensityMatrix(X(q), rho0, n)
		if err != nil {
			return nil, err
		}
		out.AddScaled(complex(p1, 0), flipped)
	}

	b.round(out.data)
	return out, nil
}

/*
ThermalErrorDensityMatrix applies the 4x4 relaxation operator of a thermal
channel to the row and column legs of its target, treating the flattened
density matrix as a state over 2n qubits.
*/
func (b *Backend) ThermalErrorDensityMatrix(ch *Channel, rho *Dense, n int) (*Dense, error) {
	defer b.observe("thermal_error_density_matrix", time.Now())

	if ch.Kind() != ThermalChannel {
		return nil, newError(UnsupportedOperation, "ThermalErrorDensityMatrix", "channel %s is not a thermal relaxation channel", ch.Name)
	}
	if err := checkDensity("ThermalErrorDensityMatrix", rho, n); err != nil {
		return nil, err
	}

	g := NewGate(ch.Name, ch.matrix, ch.target, ch.target+n)
	data, err := b.ApplyGate(g, rho.data, 2*n)
	if err != nil {
		return nil, err
	}
	return NewDense(1<<n, 1<<n, data), nil
}
