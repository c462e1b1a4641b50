package qtensor

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/cmplxs"
)

/*
CalculateProbabilities returns the marginal distribution of the given qubits of
a state vector. Outcome i of the result reads the qubits in the order they were
passed, the first one being the most significant bit.
*/
func (b *Backend) CalculateProbabilities(state []complex128, qubits []int, n int) ([]float64, error) {
	defer b.observe("calculate_probabilities", time.Now())

	if len(state) != 1<<n {
		return nil, newError(DimensionMismatch, "CalculateProbabilities", "state of length %d does not hold %d qubits", len(state), n)
	}
	if err := checkQubits("CalculateProbabilities", qubits, n); err != nil {
		return nil, err
	}

	probs := make([]float64, len(state))
	for i, v := range state {
		probs[i] = real(v)*real(v) + imag(v)*imag(v)
	}

	marginal := qubitTensor(probs, n).SumAxes(complement(qubits, n))
	return marginal.Transpose(probabilityOrder(qubits, n)).data, nil
}

// CalculateProbabilitiesDensityMatrix is CalculateProbabilities read off the
// diagonal of a density matrix.
func (b *Backend) CalculateProbabilitiesDensityMatrix(rho *Dense, qubits []int, n int) ([]float64, error) {
	defer b.observe("calculate_probabilities_density_matrix", time.Now())

	if err := checkDensity("CalculateProbabilitiesDensityMatrix", rho, n); err != nil {
		return nil, err
	}
	if err := checkQubits("CalculateProbabilitiesDensityMatrix", qubits, n); err != nil {
		return nil, err
	}

	m, r := 1<<len(qubits), 1<<(n-len(qubits))
	t := qubitTensor(rho.data, 2*n).Transpose(densityOrder(qubits, n)).data

	probs := make([]float64, m)
	for a := 0; a < m; a++ {
		for c := 0; c < r; c++ {
			probs[a] += real(t[((a*r+c)*m+a)*r+c])
		}
	}

	return qubitTensor(probs, len(qubits)).Transpose(probabilityOrder(qubits, n)).data, nil
}

/*
CollapseState measures the targets of m on a state vector. One outcome is
sampled, recorded in m.Result and the state is projected onto it and
renormalized.
*/
func (b *Backend) CollapseState(m *Measurement, state []complex128, n int) ([]complex128, error) {
	defer b.observe("collapse_state", time.Now())

	bits, err := b.measure(m, func() ([]float64, error) {
		return b.CalculateProbabilities(state, m.TargetQubits(), n)
	})
	if err != nil {
		return nil, err
	}

	return b.project(state, m.TargetQubits(), bits, n)
}

// CollapseDensityMatrix is CollapseState for density matrices, renormalized by
// the trace.
func (b *Backend) CollapseDensityMatrix(m *Measurement, rho *Dense, n int) (*Dense, error) {
	defer b.observe("collapse_density_matrix", time.Now())

	bits, err := b.measure(m, func() ([]float64, error) {
		return b.CalculateProbabilitiesDensityMatrix(rho, m.TargetQubits(), n)
	})
	if err != nil {
		return nil, err
	}

	return b.projectDensityMatrix(rho, m.TargetQubits(), bits, n)
}

func (b *Backend) measure(m *Measurement, probabilities func() ([]float64, error)) ([]int, error) {
	probs, err := probabilities()
	if err != nil {
		return nil, err
	}

	shots, err := b.SampleShots(probs, 1)
	if err != nil {
		return nil, err
	}

	bits := toBinary(shots[0], len(m.TargetQubits()))
	m.Result.Append(bits)
	b.metrics.recordCollapse()
	return bits, nil
}

/*
project keeps the slice of state where qubits read bits, renormalizes it and
pads it back to the full register with zeros.
*/
func (b *Backend) project(state []complex128, qubits, bits []int, n int) ([]complex128, error) {
	sorted, sortedBits := sortMeasured(qubits, bits)
	rest := 1 << (n - len(qubits))
	shot := toDecimal(sortedBits)

	t := qubitTensor(state, n).Transpose(append(slices.Clone(sorted), complement(sorted, n)...)).data
	sub := t[shot*rest : (shot+1)*rest]

	norm := cmplxs.Norm(sub, 2)
	if norm == 0 {
		return nil, newError(DimensionMismatch, "CollapseState", "outcome %v has zero probability", bits)
	}
	cmplxs.Scale(complex(1/norm, 0), sub)

	return b.round(appendZeros(qubitTensor(sub, n-len(qubits)), sorted, sortedBits).data), nil
}

func (b *Backend) projectDensityMatrix(rho *Dense, qubits, bits []int, n int) (*Dense, error) {
	sorted, sortedBits := sortMeasured(qubits, bits)
	m, rest := 1<<len(qubits), 1<<(n-len(qubits))
	shot := toDecimal(sortedBits)

	order := append(slices.Clone(sorted), shift(sorted, n)...)
	rows := complement(sorted, n)
	order = append(append(order, rows...), shift(rows, n)...)

	t := qubitTensor(rho.data, 2*n).Transpose(order).data
	off := (shot*m + shot) * rest * rest
	sub := t[off : off+rest*rest]

	var trace complex128
	for i := 0; i < rest; i++ {
		trace += sub[i*rest+i]
	}
	if trace == 0 {
		return nil, newError(DimensionMismatch, "CollapseDensityMatrix", "outcome %v has zero probability", bits)
	}
	cmplxs.Scale(1/trace, sub)

	axes := append(slices.Clone(sorted), shift(sorted, n)...)
	values := append(slices.Clone(sortedBits), sortedBits...)
	data := appendZeros(qubitTensor(sub, 2*(n-len(qubits))), axes, values).data

	return NewDense(1<<n, 1<<n, b.round(data)), nil
}

// sortMeasured orders the measured qubits ascending and carries each bit along
// with its qubit.
func sortMeasured(qubits, bits []int) ([]int, []int) {
	idx := argsort(qubits)
	sorted := make([]int, len(idx))
	sortedBits := make([]int, len(idx))
	for i, j := range idx {
		sorted[i] = qubits[j]
		sortedBits[i] = bits[j]
	}
	return sorted, sortedBits
}

/*
appendZeros re-inserts the collapsed axes into t in ascending order. Each axis
is grown to length two with a zero slab, placed after the data when the bit is
0 and before it when the bit is 1.
*/
func appendZeros(t *Tensor[complex128], axes, bits []int) *Tensor[complex128] {
	for i, ax := range axes {
		t = t.ExpandDims(ax)
		zeros := Zeros[complex128](t.shape...)
		if bits[i] == 1 {
			t = Concatenate(ax, zeros, t)
		} else {
			t = Concatenate(ax, t, zeros)
		}
	}
	return t
}

/*
CalculateSymbolic renders a state vector as a sum of kets, one string per
amplitude whose magnitude reaches Config.SymbolicCutoff. Amplitudes are rounded
to Config.SymbolicDecimals places. Once Config.SymbolicMaxTerms terms have been
written the listing ends with "...".
*/
func (b *Backend) CalculateSymbolic(state []complex128, n int) ([]string, error) {
	if len(state) != 1<<n {
		return nil, newError(DimensionMismatch, "CalculateSymbolic", "state of length %d does not hold %d qubits", len(state), n)
	}

	cfg := b.config
	terms := make([]string, 0, max(cfg.SymbolicMaxTerms, 0))
	for i, v := range state {
		if v == 0 {
			continue
		}
		if cmplxAbs(v) >= cfg.SymbolicCutoff {
			terms = append(terms, formatComplex(v, cfg.SymbolicDecimals)+"|"+bitstring(toBinary(i, n))+">")
		}
		if len(terms) >= cfg.SymbolicMaxTerms {
			return append(terms, "..."), nil
		}
	}
	return terms, nil
}

// CalculateSymbolicDensityMatrix renders rho as a sum of |i><j| terms, walking
// the matrix in row-major order.
func (b *Backend) CalculateSymbolicDensityMatrix(rho *Dense, n int) ([]string, error) {
	if err := checkDensity("CalculateSymbolicDensityMatrix", rho, n); err != nil {
		return nil, err
	}

	cfg := b.config
	terms := make([]string, 0, max(cfg.SymbolicMaxTerms, 0))
	for i := 0; i < rho.rows; i++ {
		for j := 0; j < rho.cols; j++ {
			v := rho.At(i, j)
			if v == 0 {
				continue
			}
			if cmplxAbs(v) >= cfg.SymbolicCutoff {
				ket := bitstring(toBinary(i, n))
				bra := bitstring(toBinary(j, n))
				terms = append(terms, formatComplex(v, cfg.SymbolicDecimals)+"|"+ket+"><"+bra+"|")
			}
			if len(terms) >= cfg.SymbolicMaxTerms {
				return append(terms, "..."), nil
			}
		}
	}
	return terms, nil
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

/*
formatComplex writes v rounded to decimals places as "(re+imj)", or "imj"
when the real part is a positive zero, e.g. "(0.70711+0j)" and "0.5j".
*/
func formatComplex(v complex128, decimals int) string {
	re := roundTo(real(v), decimals)
	im := roundTo(imag(v), decimals)

	if re == 0 && !math.Signbit(re) {
		return formatFloat(im) + "j"
	}

	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(formatFloat(re))
	if math.Signbit(im) {
		sb.WriteByte('-')
	} else {
		sb.WriteByte('+')
	}
	sb.WriteString(formatFloat(math.Abs(im)))
	sb.WriteString("j)")
	return sb.String()
}

func roundTo(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
