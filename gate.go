package qtensor

import (
	"slices"
)

// GateKind tags the variant a Gate belongs to.
type GateKind int

const (
	// Unitary gates carry a 2^k x 2^k matrix acting on all of their qubits.
	Unitary GateKind = iota
	// Controlled gates act with their matrix on the targets only where every
	// control qubit is 1.
	Controlled
	// Fused gates are the product of a sequence of sub-gates.
	Fused
)

func (k GateKind) String() string {
	switch k {
	case Unitary:
		return "unitary"
	case Controlled:
		return "controlled"
	case Fused:
		return "fused"
	}
	return "unknown"
}

/*
Gate describes an operator acting on a subset of qubits. Gates are immutable
once built; the engine only reads them.
*/
type Gate struct {
	Name string

	kind     GateKind
	targets  []int
	controls []int
	matrix   *Dense
	parts    []*Gate
}

/*
NewGate creates a gate applying matrix to the given target qubits, the first
target being the most significant index of the matrix.
*/
func NewGate(name string, matrix *Dense, targets ...int) *Gate {
	return &Gate{
		Name:    name,
		kind:    Unitary,
		targets: slices.Clone(targets),
		matrix:  matrix,
	}
}

/*
ControlledBy returns a copy of the gate that only acts where all the given
control qubits are 1. Calling it on a gate without controls turns it into a
Controlled gate. A fused gate is controlled part by part, since controlling a
product is the product of the controlled factors.
*/
func (g *Gate) ControlledBy(controls ...int) *Gate {
	if len(controls) == 0 {
		return g
	}
	if g.kind == Fused {
		parts := make([]*Gate, len(g.parts))
		for i, p := range g.parts {
			parts[i] = p.ControlledBy(controls...)
		}
		return NewFusedGate(parts...)
	}
	return &Gate{
		Name:     g.Name,
		kind:     Controlled,
		targets:  slices.Clone(g.targets),
		controls: append(slices.Clone(g.controls), controls...),
		matrix:   g.matrix,
	}
}

/*
NewFusedGate composes gates into a single gate acting on the union of their
qubits, kept in ascending order.
*/
func NewFusedGate(gates ...*Gate) *Gate {
	var qubits []int
	for _, g := range gates {
		for _, q := range g.Qubits() {
			if !slices.Contains(qubits, q) {
				qubits = append(qubits, q)
			}
		}
	}
	slices.Sort(qubits)

	return &Gate{
		Name:    "fused",
		kind:    Fused,
		targets: qubits,
		parts:   slices.Clone(gates),
	}
}

func (g *Gate) Kind() GateKind { return g.kind }

// Qubits is the control qubits followed by the target qubits.
func (g *Gate) Qubits() []int {
	return append(slices.Clone(g.controls), g.targets...)
}

func (g *Gate) TargetQubits() []int  { return g.targets }
func (g *Gate) ControlQubits() []int { return g.controls }
func (g *Gate) IsControlledBy() bool { return g.kind == Controlled }

// Parts returns the sub-gates of a fused gate.
func (g *Gate) Parts() []*Gate { return g.parts }

/*
Matrix returns the operator of the gate on its targets at the precision of the
backend. Fused gates are composed on demand.
*/
func (g *Gate) Matrix(b *Backend) (*Dense, error) {
	if g.kind == Fused {
		return b.AsMatrixFused(g)
	}

	k := len(g.targets)
	if r, c := g.matrix.Dims(); r != 1<<k || c != 1<<k {
		return nil, newError(DimensionMismatch, "Matrix", "gate %s on %d qubits has a %dx%d matrix", g.Name, k, r, c)
	}
	return b.roundDense(g.matrix), nil
}

/*
fullMatrix is the matrix of the gate over Qubits(): for controlled gates the
identity with the target matrix placed in the block where all controls are 1.
*/
func (g *Gate) fullMatrix(b *Backend) (*Dense, error) {
	m, err := g.Matrix(b)
	if err != nil || g.kind != Controlled {
		return m, err
	}

	dim := 1 << len(g.Qubits())
	block, _ := m.Dims()
	full := Eye(dim)
	offset := dim - block

	for i := 0; i < block; i++ {
		for j := 0; j < block; j++ {
			full.Set(offset+i, offset+j, m.At(i, j))
		}
	}
	return full, nil
}

// Dagger returns the adjoint gate.
func (g *Gate) Dagger() *Gate {
	if g.kind == Fused {
		parts := make([]*Gate, len(g.parts))
		for i, p := range g.parts {
			parts[len(g.parts)-1-i] = p.Dagger()
		}
		return NewFusedGate(parts...)
	}

	out := *g
	out.Name = g.Name + "_dg"
	out.matrix = g.matrix.H()
	return &out
}
