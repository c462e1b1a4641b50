package qtensor

import (
	"math"
	"sort"
	"time"

	"github.com/theapemachine/errnie"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
RNG is a seedable source of randomness shared by shot sampling, stochastic
channels and bitflip noise. It satisfies rand.Source, so gonum distributions
can draw from it directly.
*/
type RNG struct {
	r *rand.Rand
}

// DefaultRNG is the generator every backend uses unless it is given its own.
var DefaultRNG = NewRNG(uint64(time.Now().UnixNano()))

func NewRNG(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

func (g *RNG) Seed(seed uint64) { g.r.Seed(seed) }
func (g *RNG) Uint64() uint64   { return g.r.Uint64() }
func (g *RNG) Float64() float64 { return g.r.Float64() }

// Frequencies maps an outcome, as a decimal index, to how often it occurred.
type Frequencies map[int]int64

func (f Frequencies) Add(outcome int, count int64) {
	f[outcome] += count
}

func (f Frequencies) Merge(other Frequencies) {
	for k, v := range other {
		f[k] += v
	}
}

// Total is the number of shots the table was built from.
func (f Frequencies) Total() int64 {
	var total int64
	for _, v := range f {
		total += v
	}
	return total
}

// Binary re-keys the table by nbits-wide bitstrings such as "010".
func (f Frequencies) Binary(nbits int) map[string]int64 {
	out := make(map[string]int64, len(f))
	for k, v := range f {
		out[bitstring(toBinary(k, nbits))] += v
	}
	return out
}

// Outcomes lists the recorded outcomes in ascending order.
func (f Frequencies) Outcomes() []int {
	keys := make([]int, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

/*
SampleShots draws nshots outcomes from the distribution probs, returning each
as a decimal index into probs.

Returns a DimensionMismatch error when the probabilities are negative or do not
sum to one within the tolerance of the backend precision.
*/
func (b *Backend) SampleShots(probs []float64, nshots int) ([]int, error) {
	defer b.observe("sample_shots", time.Now())

	if nshots < 0 {
		return nil, newError(DimensionMismatch, "SampleShots", "cannot draw %d shots", nshots)
	}
	for _, p := range probs {
		if p < 0 {
			return nil, newError(DimensionMismatch, "SampleShots", "probability %g is negative", p)
		}
	}
	if sum := floats.Sum(probs); math.Abs(sum-1) > b.config.Dtype.Tolerance() {
		return nil, newError(DimensionMismatch, "SampleShots", "probabilities sum to %g, not 1", sum)
	}

	dist := distuv.NewCategorical(probs, b.rng)
	shots := make([]int, nshots)
	for i := range shots {
		shots[i] = int(dist.Rand())
	}

	b.metrics.recordShots(nshots)
	return shots, nil
}

/*
UpdateFrequencies draws nsamples shots from probs and adds them to freqs in
place. freqs must have one counter per outcome.
*/
func (b *Backend) UpdateFrequencies(freqs []int64, probs []float64, nsamples int) error {
	if len(freqs) != len(probs) {
		return newError(DimensionMismatch, "UpdateFrequencies", "%d counters for %d outcomes", len(freqs), len(probs))
	}

	shots, err := b.SampleShots(probs, nsamples)
	if err != nil {
		return err
	}
	for _, s := range shots {
		freqs[s]++
	}
	return nil
}

/*
SampleFrequencies draws nshots outcomes without keeping the individual shots.
The distribution is renormalized first and the shots are taken in batches of
Config.ShotBatchSize, so the memory used does not grow with nshots.

Only outcomes that occurred at least once appear in the result.
*/
func (b *Backend) SampleFrequencies(probs []float64, nshots int) (Frequencies, error) {
	defer b.observe("sample_frequencies", time.Now())

	if nshots < 0 {
		return nil, newError(DimensionMismatch, "SampleFrequencies", "cannot draw %d shots", nshots)
	}
	sum := floats.Sum(probs)
	if sum <= 0 {
		return nil, newError(DimensionMismatch, "SampleFrequencies", "probabilities sum to %g", sum)
	}

	nprobs := append([]float64(nil), probs...)
	floats.Scale(1/sum, nprobs)

	batch := b.config.ShotBatchSize
	freqs := make([]int64, len(nprobs))

	for i := 0; i < nshots/batch; i++ {
		if err := b.UpdateFrequencies(freqs, nprobs, batch); err != nil {
			return nil, err
		}
		errnie.Info("SampleFrequencies - batch %v of %v shots", i, batch)
	}
	if err := b.UpdateFrequencies(freqs, nprobs, nshots%batch); err != nil {
		return nil, err
	}

	out := make(Frequencies)
	for outcome, f := range freqs {
		if f > 0 {
			out[outcome] = f
		}
	}
	return out, nil
}

// CalculateFrequencies counts the decimal samples.
func CalculateFrequencies(samples []int) Frequencies {
	out := make(Frequencies)
	for _, s := range samples {
		out[s]++
	}
	return out
}

// SamplesToBinary expands each decimal sample into nbits bits, MSB first.
func SamplesToBinary(samples []int, nbits int) [][]int {
	out := make([][]int, len(samples))
	for i, s := range samples {
		out[i] = toBinary(s, nbits)
	}
	return out
}

// SamplesToDecimal folds each row of bits, MSB first, into an integer.
func SamplesToDecimal(samples [][]int) []int {
	out := make([]int, len(samples))
	for i, bits := range samples {
		out[i] = toDecimal(bits)
	}
	return out
}

/*
ApplyBitflips simulates readout noise on binary samples. For every bit one
uniform draw r is taken: a 0 becomes 1 when r < p0 and a 1 becomes 0 when
r < p1. p0 and p1 hold one probability per bit, or a single value applied to
every bit.

Both updates read the original bit, so every bit flips at most once.
*/
func (b *Backend) ApplyBitflips(samples [][]int, p0, p1 []float64) ([][]int, error) {
	defer b.observe("apply_bitflips", time.Now())

	out := make([][]int, len(samples))
	for i, row := range samples {
		q0, err := broadcastProbabilities("ApplyBitflips", p0, len(row))
		if err != nil {
			return nil, err
		}
		q1, err := broadcastProbabilities("ApplyBitflips", p1, len(row))
		if err != nil {
			return nil, err
		}

		noisy := make([]int, len(row))
		for j, s := range row {
			r := b.rng.Float64()
			flip0, flip1 := 0, 0
			if r < q0[j] {
				flip0 = 1
			}
			if r < q1[j] {
				flip1 = 1
			}

			noisy[j] = s + (1-s)*flip0
			noisy[j] -= s * flip1
		}
		out[i] = noisy
	}

	return out, nil
}

func broadcastProbabilities(op string, p []float64, n int) ([]float64, error) {
	switch len(p) {
	case n:
		return p, nil
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = p[0]
		}
		return out, nil
	}
	return nil, newError(DimensionMismatch, op, "%d probabilities for %d bits", len(p), n)
}

func bitstring(bits []int) string {
	buf := make([]byte, len(bits))
	for i, b := range bits {
		buf[i] = byte('0' + b)
	}
	return string(buf)
}
