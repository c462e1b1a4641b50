package qtensor

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

/*
Outcome is an immutable record of one collapse. Bits hold the measured values
in the target order of the measurement that produced them.
*/
type Outcome struct {
	ResultID  string
	Sequence  uint64
	Timestamp time.Time
	Bits      []int
}

/*
MeasurementResult accumulates the outcomes of a measurement in an append-only
ledger. Every outcome carries the ID of the result that recorded it, so one
callback can tell several measurements of a circuit apart. Outcomes are never removed, so a reader that started late can replay
everything it missed through History.

Thread-safe: the ledger is guarded by a read-write mutex. The OnOutcome callback
is invoked with the lock held and must not call back into the result.
*/
type MeasurementResult struct {
	ID        string
	Qubits    []int
	OnOutcome func(Outcome)

	mu     sync.RWMutex
	ledger []Outcome
}

// NewMeasurementResult creates an empty result for the given qubits.
func NewMeasurementResult(qubits ...int) *MeasurementResult {
	return &MeasurementResult{
		ID:     uuid.NewString(),
		Qubits: slices.Clone(qubits),
		ledger: make([]Outcome, 0),
	}
}

/*
Append records a new outcome and notifies OnOutcome if it is set.

Parameters:
  - bits: The measured values, one per qubit of the result

Returns:
  - Outcome: The ledger entry that was recorded
*/
func (r *MeasurementResult) Append(bits []int) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcome := Outcome{
		ResultID:  r.ID,
		Sequence:  uint64(len(r.ledger)),
		Timestamp: time.Now(),
		Bits:      slices.Clone(bits),
	}
	r.ledger = append(r.ledger, outcome)

	if r.OnOutcome != nil {
		r.OnOutcome(outcome)
	}
	return outcome
}

func (r *MeasurementResult) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledger)
}

/*
History returns the outcomes recorded since a given sequence number, in the
order they were appended. Use 0 for the full history.
*/
func (r *MeasurementResult) History(since uint64) []Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if since >= uint64(len(r.ledger)) {
		return []Outcome{}
	}
	return slices.Clone(r.ledger[since:])
}

// Samples returns every outcome as a row of bits.
func (r *MeasurementResult) Samples() [][]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([][]int, len(r.ledger))
	for i, o := range r.ledger {
		out[i] = slices.Clone(o.Bits)
	}
	return out
}

// DecimalSamples returns every outcome as an integer, first qubit most significant.
func (r *MeasurementResult) DecimalSamples() []int {
	return SamplesToDecimal(r.Samples())
}

func (r *MeasurementResult) Frequencies() Frequencies {
	return CalculateFrequencies(r.DecimalSamples())
}

func (r *MeasurementResult) BinaryFrequencies() map[string]int64 {
	return r.Frequencies().Binary(len(r.Qubits))
}

/*
ApplyBitflips returns a new result holding the outcomes of r with readout
noise applied. The receiver is left untouched.
*/
func (r *MeasurementResult) ApplyBitflips(b *Backend, p0, p1 []float64) (*MeasurementResult, error) {
	noisy, err := b.ApplyBitflips(r.Samples(), p0, p1)
	if err != nil {
		return nil, err
	}

	out := NewMeasurementResult(r.Qubits...)
	for _, bits := range noisy {
		out.Append(bits)
	}
	return out, nil
}

/*
Measurement is the circuit operation that collapses the state on its target
qubits and records the outcome in Result.
*/
type Measurement struct {
	Result *MeasurementResult

	targets []int
}

func NewMeasurement(targets ...int) *Measurement {
	return &Measurement{
		Result:  NewMeasurementResult(targets...),
		targets: slices.Clone(targets),
	}
}

func (m *Measurement) TargetQubits() []int { return m.targets }
