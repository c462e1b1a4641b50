package qtensor

import (
	"slices"
)

// targetOrder moves the target axes in front of the remaining ones.
func targetOrder(targets []int, n int) []int {
	order := append([]int(nil), targets...)
	return append(order, complement(targets, n)...)
}

// reverseOrder is the inverse permutation: reverseOrder(order)[order[i]] == i.
func reverseOrder(order []int) []int {
	rev := make([]int, len(order))
	for i, ax := range order {
		rev[ax] = i
	}
	return rev
}

/*
controlOrder arranges the axes as [controls..., rest...] with controls sorted
and the rest in ascending order. The returned targets are re-indexed to their
position inside the active block, i.e. the rest of the axes once the control
block has been sliced away.
*/
func controlOrder(g *Gate, n int) (order []int, targets []int) {
	controls := slices.Clone(g.ControlQubits())
	slices.Sort(controls)

	order = append(order, controls...)
	targets = slices.Clone(g.TargetQubits())

	start := 0
	for _, c := range controls {
		for i := start; i < c; i++ {
			order = append(order, i)
		}
		start = c + 1
		for i, t := range g.TargetQubits() {
			if t > c {
				targets[i]--
			}
		}
	}
	for i := start; i < n; i++ {
		order = append(order, i)
	}

	return order, targets
}

// controlOrderDensityMatrix is controlOrder for row and column axes:
// [controls, controls+n, rest, rest+n].
func controlOrderDensityMatrix(g *Gate, n int) (order []int, targets []int) {
	ncontrol := len(g.ControlQubits())
	single, targets := controlOrder(g, n)

	order = append(order, single[:ncontrol]...)
	for _, ax := range single[:ncontrol] {
		order = append(order, ax+n)
	}
	order = append(order, single[ncontrol:]...)
	for _, ax := range single[ncontrol:] {
		order = append(order, ax+n)
	}

	return order, targets
}

// densityOrder is [sorted qubits, rest, sorted qubits+n, rest+n].
func densityOrder(qubits []int, n int) []int {
	rows := slices.Clone(qubits)
	slices.Sort(rows)
	rows = append(rows, complement(qubits, n)...)

	order := slices.Clone(rows)
	for _, ax := range rows {
		order = append(order, ax+n)
	}
	return order
}

/*
probabilityOrder maps the caller's qubit order onto the axes of a tensor that
only carries the measured qubits in ascending order: each measured qubit is
addressed by its rank among the measured qubits, not by its raw index.
*/
func probabilityOrder(qubits []int, n int) []int {
	reduced := make(map[int]int, len(qubits))
	unmeasured := 0
	for i := 0; i < n; i++ {
		if slices.Contains(qubits, i) {
			reduced[i] = i - unmeasured
		} else {
			unmeasured++
		}
	}

	order := make([]int, len(qubits))
	for i, q := range qubits {
		order[i] = reduced[q]
	}
	return order
}

// argsort returns the positions that would sort values ascending.
func argsort(values []int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return values[a] - values[b] })
	return idx
}

func shift(axes []int, offset int) []int {
	out := make([]int, len(axes))
	for i, ax := range axes {
		out[i] = ax + offset
	}
	return out
}

// complement returns the axes of [0, rank) that are not in axes, ascending.
func complement(axes []int, rank int) []int {
	rest := make([]int, 0, rank)
	for i := 0; i < rank; i++ {
		if !slices.Contains(axes, i) {
			rest = append(rest, i)
		}
	}
	return rest
}

func isPermutation(perm []int, rank int) bool {
	if len(perm) != rank {
		return false
	}
	seen := make([]bool, rank)
	for _, p := range perm {
		if p < 0 || p >= rank || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

func isIdentity(perm []int) bool {
	for i, p := range perm {
		if i != p {
			return false
		}
	}
	return true
}

// checkQubits rejects indices outside [0, n) and repeated indices.
func checkQubits(op string, qubits []int, n int) error {
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= n {
			return newError(DimensionMismatch, op, "qubit %d is outside a register of %d qubits", q, n)
		}
		if seen[q] {
			return newError(DimensionMismatch, op, "qubit %d appears more than once in %v", q, qubits)
		}
		seen[q] = true
	}
	return nil
}

// toBinary writes value as width bits, most significant first.
func toBinary(value, width int) []int {
	bits := make([]int, width)
	for i := 0; i < width; i++ {
		bits[i] = (value >> (width - 1 - i)) & 1
	}
	return bits
}

func toDecimal(bits []int) int {
	value := 0
	for _, b := range bits {
		value = value<<1 | b
	}
	return value
}
