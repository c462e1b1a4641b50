package qtensor

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ChannelKind tags the variant a Channel belongs to.
type ChannelKind int

const (
	// MixtureChannel applies each of its gates with the matching probability.
	MixtureChannel ChannelKind = iota
	// ResetChannel sends one qubit to |0> with probability p0 and to |1> with p1.
	ResetChannel
	// ThermalChannel is amplitude and phase damping of one qubit.
	ThermalChannel
)

// ChannelTerm pairs a gate with the probability it is applied with.
type ChannelTerm struct {
	P    float64
	Gate *Gate
}

/*
Channel is a probabilistic mixture of operations used to model noise.
*/
type Channel struct {
	Name string

	kind         ChannelKind
	coefficients []float64
	gates        []*Gate
	target       int
	matrix       *Dense
	sum          float64
}

/*
NewChannel builds a mixture channel. Every probability must lie in [0, 1] and
together they may not exceed 1; the remainder is the probability that nothing
happens.
*/
func NewChannel(name string, terms ...ChannelTerm) (*Channel, error) {
	ch := &Channel{Name: name, kind: MixtureChannel}
	for _, term := range terms {
		ch.coefficients = append(ch.coefficients, term.P)
		ch.gates = append(ch.gates, term.Gate)
	}
	if err := ch.checkCoefficients("NewChannel"); err != nil {
		return nil, err
	}
	return ch, nil
}

// PauliNoiseChannel applies X, Y or Z to q with the given probabilities.
func PauliNoiseChannel(q int, px, py, pz float64) (*Channel, error) {
	var terms []ChannelTerm
	for _, term := range []ChannelTerm{{px, X(q)}, {py, Y(q)}, {pz, Z(q)}} {
		if term.P > 0 {
			terms = append(terms, term)
		}
	}
	return NewChannel("pauli_noise", terms...)
}

// NewResetChannel resets q to |0> with probability p0 and to |1> with p1.
func NewResetChannel(q int, p0, p1 float64) (*Channel, error) {
	ch := &Channel{
		Name:         "reset",
		kind:         ResetChannel,
		coefficients: []float64{p0, p1},
		target:       q,
	}
	if err := ch.checkCoefficients("NewResetChannel"); err != nil {
		return nil, err
	}
	return ch, nil
}

/*
NewThermalRelaxationChannel models a qubit relaxing for time toward the
thermal state with the given excited population. The coherences decay with t2
and the populations with t1, which requires t2 <= 2*t1.

The channel acts on the pair of row and column indices of q in a density
matrix through a 4x4 operator.
*/
func NewThermalRelaxationChannel(q int, t1, t2, time, excitedPopulation float64) (*Channel, error) {
	switch {
	case t1 <= 0 || t2 <= 0:
		return nil, newError(ConfigurationError, "NewThermalRelaxationChannel", "relaxation times must be positive, got t1=%g t2=%g", t1, t2)
	case t2 > 2*t1:
		return nil, newError(ConfigurationError, "NewThermalRelaxationChannel", "t2=%g exceeds 2*t1=%g", t2, 2*t1)
	case time < 0:
		return nil, newError(ConfigurationError, "NewThermalRelaxationChannel", "gate time must be non-negative, got %g", time)
	case excitedPopulation < 0 || excitedPopulation > 1:
		return nil, newError(ConfigurationError, "NewThermalRelaxationChannel", "excited population %g is not a probability", excitedPopulation)
	}

	pReset := 1 - math.Exp(-time/t1)
	p0 := pReset * (1 - excitedPopulation)
	p1 := pReset * excitedPopulation
	decay := complex(math.Exp(-time/t2), 0)

	matrix := NewDense(4, 4, []complex128{
		complex(1-p1, 0), 0, 0, complex(p0, 0),
		0, decay, 0, 0,
		0, 0, decay, 0,
		complex(p1, 0), 0, 0, complex(1-p0, 0),
	})

	return &Channel{
		Name:         "thermal_relaxation",
		kind:         ThermalChannel,
		coefficients: []float64{p0, p1},
		target:       q,
		matrix:       matrix,
		sum:          p0 + p1,
	}, nil
}

func (c *Channel) Kind() ChannelKind       { return c.kind }
func (c *Channel) Coefficients() []float64 { return c.coefficients }
func (c *Channel) Gates() []*Gate          { return c.gates }

// CoefficientSum is the total probability that the channel acts.
func (c *Channel) CoefficientSum() float64 { return c.sum }

// TargetQubits lists the qubits the channel may act on.
func (c *Channel) TargetQubits() []int {
	if c.kind != MixtureChannel {
		return []int{c.target}
	}
	var qubits []int
	for _, g := range c.gates {
		qubits = append(qubits, g.Qubits()...)
	}
	return qubits
}

func (c *Channel) checkCoefficients(op string) error {
	for _, p := range c.coefficients {
		if p < 0 || p > 1 {
			return newError(ConfigurationError, op, "probability %g is outside [0, 1]", p)
		}
	}
	c.sum = floats.Sum(c.coefficients)
	if c.sum > 1+1e-12 {
		return newError(ConfigurationError, op, "probabilities sum to %g", c.sum)
	}
	return nil
}
