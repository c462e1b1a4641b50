package qtensor

import (
	"slices"
	"time"

	"github.com/theapemachine/errnie"
)

// Operation is anything a circuit can hold: *Gate, *Channel or *Measurement.
type Operation interface {
	TargetQubits() []int
}

/*
Circuit is an ordered list of operations over NQubits qubits. A density matrix
circuit evolves a mixed state and applies channels exactly; otherwise channels
are sampled on the state vector.
*/
type Circuit struct {
	NQubits int
	Density bool

	ops []Operation
}

func NewCircuit(nqubits int, density bool) *Circuit {
	return &Circuit{NQubits: nqubits, Density: density}
}

// Add appends operations in application order.
func (c *Circuit) Add(ops ...Operation) *Circuit {
	c.ops = append(c.ops, ops...)
	return c
}

func (c *Circuit) Operations() []Operation { return slices.Clone(c.ops) }

/*
Append returns a new circuit running the operations of c followed by those of
other. Both circuits must act on the same number of qubits and agree on
whether they evolve a density matrix.
*/
func (c *Circuit) Append(other *Circuit) (*Circuit, error) {
	if c.NQubits != other.NQubits {
		return nil, newError(DimensionMismatch, "Append", "cannot append a circuit of %d qubits to one of %d", other.NQubits, c.NQubits)
	}
	if c.Density != other.Density {
		return nil, newError(UnsupportedOperation, "Append", "cannot mix density matrix and state vector circuits")
	}

	out := NewCircuit(c.NQubits, c.Density)
	out.ops = append(slices.Clone(c.ops), other.ops...)
	return out, nil
}

/*
Depth is the number of layers the operations fall into when each one is
placed right after the last operation touching any of its qubits. Controls
count as touched qubits.
*/
func (c *Circuit) Depth() int {
	levels := make([]int, c.NQubits)
	depth := 0

	for _, op := range c.ops {
		qubits := op.TargetQubits()
		if g, ok := op.(*Gate); ok {
			qubits = g.Qubits()
		}

		level := 0
		for _, q := range qubits {
			level = max(level, levels[q])
		}
		level++

		for _, q := range qubits {
			levels[q] = level
		}
		if len(qubits) > 0 {
			depth = max(depth, level)
		}
	}
	return depth
}

// Measurements returns the measurement operations of the circuit in order.
func (c *Circuit) Measurements() []*Measurement {
	var out []*Measurement
	for _, op := range c.ops {
		if m, ok := op.(*Measurement); ok {
			out = append(out, m)
		}
	}
	return out
}

/*
ExecutionResult holds the final state of a circuit run, either State or
DensityMatrix depending on the circuit, and its measurements.
*/
type ExecutionResult struct {
	NQubits       int
	State         []complex128
	DensityMatrix *Dense
	Measurements  []*Measurement
}

// Probabilities of the given qubits in the final state.
func (r *ExecutionResult) Probabilities(b *Backend, qubits ...int) ([]float64, error) {
	if r.DensityMatrix != nil {
		return b.CalculateProbabilitiesDensityMatrix(r.DensityMatrix, qubits, r.NQubits)
	}
	return b.CalculateProbabilities(r.State, qubits, r.NQubits)
}

// Frequencies samples nshots outcomes of the given qubits from the final state.
func (r *ExecutionResult) Frequencies(b *Backend, nshots int, qubits ...int) (Frequencies, error) {
	probs, err := r.Probabilities(b, qubits...)
	if err != nil {
		return nil, err
	}
	return b.SampleFrequencies(probs, nshots)
}

// Symbolic renders the final state as a sum of kets or |i><j| terms.
func (r *ExecutionResult) Symbolic(b *Backend) ([]string, error) {
	if r.DensityMatrix != nil {
		return b.CalculateSymbolicDensityMatrix(r.DensityMatrix, r.NQubits)
	}
	return b.CalculateSymbolic(r.State, r.NQubits)
}

/*
Execute runs a circuit from an initial state. A nil initial state starts from
|0...0>; otherwise it must be a state vector ([]complex128 or anything CastState
accepts) for vector circuits and a *Dense for density matrix circuits.

Returns an error from the first operation that fails, or UnsupportedOperation
for an operation type the engine does not know.
*/
func (b *Backend) Execute(c *Circuit, initial any) (*ExecutionResult, error) {
	defer b.observe("execute", time.Now())

	errnie.Info("Execute - %v qubits, %v operations, density %v", c.NQubits, len(c.ops), c.Density)

	result := &ExecutionResult{NQubits: c.NQubits, Measurements: c.Measurements()}

	if c.Density {
		rho, err := b.initialDensityMatrix(initial, c.NQubits)
		if err != nil {
			return nil, err
		}
		for _, op := range c.ops {
			if rho, err = b.executeDensityMatrix(op, rho, c.NQubits); err != nil {
				return nil, err
			}
		}
		result.DensityMatrix = rho
		return result, nil
	}

	state, err := b.initialState(initial, c.NQubits)
	if err != nil {
		return nil, err
	}
	for _, op := range c.ops {
		if state, err = b.executeState(op, state, c.NQubits); err != nil {
			return nil, err
		}
	}
	result.State = state
	return result, nil
}

func (b *Backend) executeState(op Operation, state []complex128, n int) ([]complex128, error) {
	switch v := op.(type) {
	case *Gate:
		return b.ApplyGate(v, state, n)
	case *Channel:
		return b.ApplyChannel(v, state, n)
	case *Measurement:
		return b.CollapseState(v, state, n)
	}
	return nil, newError(UnsupportedOperation, "Execute", "unknown operation %T", op)
}

func (b *Backend) executeDensityMatrix(op Operation, rho *Dense, n int) (*Dense, error) {
	switch v := op.(type) {
	case *Gate:
		return b.ApplyGateDensityMatrix(v, rho, n)
	case *Channel:
		return b.ApplyChannelDensityMatrix(v, rho, n)
	case *Measurement:
		return b.CollapseDensityMatrix(v, rho, n)
	}
	return nil, newError(UnsupportedOperation, "Execute", "unknown operation %T", op)
}

func (b *Backend) initialState(initial any, n int) ([]complex128, error) {
	if initial == nil {
		return b.ZeroState(n), nil
	}

	state, err := b.CastState(initial, true)
	if err != nil {
		return nil, err
	}
	if len(state) != 1<<n {
		return nil, newError(DimensionMismatch, "Execute", "initial state of length %d does not hold %d qubits", len(state), n)
	}
	return state, nil
}

func (b *Backend) initialDensityMatrix(initial any, n int) (*Dense, error) {
	if initial == nil {
		return b.ZeroDensityMatrix(n), nil
	}

	rho, ok := initial.(*Dense)
	if !ok {
		return nil, newError(UnsupportedOperation, "Execute", "a density matrix circuit cannot start from %T", initial)
	}
	if err := checkDensity("Execute", rho, n); err != nil {
		return nil, err
	}

	data, err := b.CastState(rho, true)
	if err != nil {
		return nil, err
	}
	return NewDense(rho.rows, rho.cols, data), nil
}
