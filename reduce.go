package qtensor

import (
	"math"
	"time"

	"gonum.org/v1/gonum/cmplxs"
)

/*
PartialTrace traces the given qubits out of a pure state and returns the
reduced density matrix over the remaining qubits, in ascending order.
*/
func (b *Backend) PartialTrace(state []complex128, qubits []int, n int) (*Dense, error) {
	defer b.observe("partial_trace", time.Now())

	if len(state) != 1<<n {
		return nil, newError(DimensionMismatch, "PartialTrace", "state of length %d does not hold %d qubits", len(state), n)
	}
	if err := checkQubits("PartialTrace", qubits, n); err != nil {
		return nil, err
	}

	conj := make([]complex128, len(state))
	for i, v := range state {
		conj[i] = complex(real(v), -imag(v))
	}

	rho := Tensordot(qubitTensor(state, n), qubitTensor(conj, n), qubits, qubits)
	dim := 1 << (n - len(qubits))
	return NewDense(dim, dim, b.round(rho.data)), nil
}

// PartialTraceDensityMatrix traces the given qubits out of a density matrix.
func (b *Backend) PartialTraceDensityMatrix(rho *Dense, qubits []int, n int) (*Dense, error) {
	defer b.observe("partial_trace_density_matrix", time.Now())

	if err := checkDensity("PartialTraceDensityMatrix", rho, n); err != nil {
		return nil, err
	}
	if err := checkQubits("PartialTraceDensityMatrix", qubits, n); err != nil {
		return nil, err
	}

	m, r := 1<<len(qubits), 1<<(n-len(qubits))
	t := qubitTensor(rho.data, 2*n).Transpose(densityOrder(qubits, n)).data

	out := NewDense(r, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			var sum complex128
			for a := 0; a < m; a++ {
				sum += t[((a*r+i)*m+a)*r+j]
			}
			out.data[i*r+j] = sum
		}
	}

	b.round(out.data)
	return out, nil
}

/*
EntanglementEntropy returns the von Neumann entropy of rho in bits together
with its entanglement spectrum, -ln(lambda) for every eigenvalue above
Config.EigvalCutoff.
*/
func (b *Backend) EntanglementEntropy(rho *Dense) (float64, []float64, error) {
	defer b.observe("entanglement_entropy", time.Now())

	eigvals, _, err := hermitianEigen("EntanglementEntropy", rho, false)
	if err != nil {
		return 0, nil, err
	}

	var entropy float64
	spectrum := make([]float64, 0, len(eigvals))
	for _, ev := range eigvals {
		if ev <= b.config.EigvalCutoff {
			continue
		}
		s := -math.Log(ev)
		spectrum = append(spectrum, s)
		entropy += ev * s
	}

	return entropy / math.Ln2, spectrum, nil
}

// CalculateNorm is the Euclidean norm of a state vector.
func (b *Backend) CalculateNorm(state []complex128) float64 {
	return cmplxs.Norm(state, 2)
}

// CalculateNormDensityMatrix is the trace of rho.
func (b *Backend) CalculateNormDensityMatrix(rho *Dense) complex128 {
	return rho.Trace()
}

// CalculateOverlap returns |<a|b>|.
func (b *Backend) CalculateOverlap(a, c []complex128) (float64, error) {
	if len(a) != len(c) {
		return 0, newError(DimensionMismatch, "CalculateOverlap", "states of length %d and %d", len(a), len(c))
	}
	return cmplxAbs(cmplxs.Dot(a, c)), nil
}

func (b *Backend) CalculateOverlapDensityMatrix(a, c *Dense) (float64, error) {
	return 0, newError(UnsupportedOperation, "CalculateOverlapDensityMatrix", "overlap of density matrices is not defined")
}

/*
CalculateExpectationState returns <psi|H|psi>, divided by <psi|psi> when
normalize is set. H may be dense or sparse.
*/
func (b *Backend) CalculateExpectationState(h Matrix, state []complex128, normalize bool) (float64, error) {
	defer b.observe("calculate_expectation_state", time.Now())

	if r, c := h.Dims(); r != len(state) || c != len(state) {
		return 0, newError(DimensionMismatch, "CalculateExpectationState", "operator of shape %dx%d on state of length %d", r, c, len(state))
	}

	ev := real(cmplxs.Dot(state, mulVec(h, state)))
	if normalize {
		norm := cmplxs.Norm(state, 2)
		ev /= norm * norm
	}
	return ev, nil
}

// CalculateExpectationDensityMatrix returns Tr(H rho), divided by Tr(rho) when
// normalize is set.
func (b *Backend) CalculateExpectationDensityMatrix(h Matrix, rho *Dense, normalize bool) (float64, error) {
	defer b.observe("calculate_expectation_density_matrix", time.Now())

	if r, c := h.Dims(); r != rho.rows || c != rho.cols {
		return 0, newError(DimensionMismatch, "CalculateExpectationDensityMatrix", "operator of shape %dx%d on density matrix of shape %dx%d", r, c, rho.rows, rho.cols)
	}

	ev := real(mulDense(h, rho).Trace())
	if normalize {
		ev /= real(rho.Trace())
	}
	return ev, nil
}
