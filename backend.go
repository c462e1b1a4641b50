package qtensor

import (
	"slices"
	"time"

	"github.com/theapemachine/errnie"
)

/*
Backend simulates quantum states with tensor contractions on a single CPU
thread. Every sampling operation draws from the backend's RNG handle, which by
default is the process-wide DefaultRNG.

A Backend is not safe for concurrent use.
*/
type Backend struct {
	config  *Config
	rng     *RNG
	metrics *Metrics
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) BackendOption {
	return func(b *Backend) {
		b.config = config
	}
}

// WithDtype sets the precision of the backend.
func WithDtype(dtype Dtype) BackendOption {
	return func(b *Backend) {
		b.config.Dtype = dtype
	}
}

// WithRNG gives the backend its own random generator.
func WithRNG(rng *RNG) BackendOption {
	return func(b *Backend) {
		b.rng = rng
	}
}

// WithSeed gives the backend a private generator seeded with seed.
func WithSeed(seed uint64) BackendOption {
	return func(b *Backend) {
		b.rng = NewRNG(seed)
	}
}

/*
NewBackend creates a backend from the default configuration and the given
options.

Returns an error when the configuration asks for a device other than the CPU
or for more than one thread.
*/
func NewBackend(opts ...BackendOption) (*Backend, error) {
	b := &Backend{
		config:  NewConfig(),
		rng:     DefaultRNG,
		metrics: NewMetrics(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if err := b.config.validate(); err != nil {
		return nil, err
	}

	errnie.Info("NewBackend - dtype %v, device %v, shot batch %v", b.config.Dtype, b.config.Device, b.config.ShotBatchSize)
	return b, nil
}

func (b *Backend) Config() *Config   { return b.config }
func (b *Backend) Dtype() Dtype      { return b.config.Dtype }
func (b *Backend) RNG() *RNG         { return b.rng }
func (b *Backend) Metrics() *Metrics { return b.metrics }

// SetDevice accepts only the CPU device.
func (b *Backend) SetDevice(device string) error {
	if device != CPUDevice {
		return newError(ConfigurationError, "SetDevice", "device %q is not available, only %q is supported", device, CPUDevice)
	}
	b.config.Device = device
	return nil
}

// SetThreads rejects any request for more than one thread.
func (b *Backend) SetThreads(n int) error {
	if n > 1 {
		return newError(ConfigurationError, "SetThreads", "cannot use %d threads, the engine is single-threaded", n)
	}
	b.config.Threads = 1
	return nil
}

// SetSeed reseeds the backend's generator, which is DefaultRNG unless the
// backend was given its own.
func (b *Backend) SetSeed(seed uint64) {
	b.rng.Seed(seed)
}

// ZeroState returns |0...0> over n qubits.
func (b *Backend) ZeroState(n int) []complex128 {
	state := make([]complex128, 1<<n)
	state[0] = 1
	return state
}

// ZeroDensityMatrix returns |0...0><0...0| over n qubits.
func (b *Backend) ZeroDensityMatrix(n int) *Dense {
	dim := 1 << n
	rho := NewDense(dim, dim, nil)
	rho.Set(0, 0, 1)
	return rho
}

/*
ControlMatrix returns the 4x4 matrix of a single-qubit gate controlled by
exactly one qubit. More controls or a target matrix other than 2x2 are
rejected; the general application path handles any number of controls.
*/
func (b *Backend) ControlMatrix(g *Gate) (*Dense, error) {
	if len(g.ControlQubits()) > 1 {
		return nil, newError(UnsupportedOperation, "ControlMatrix", "cannot build the controlled matrix of %s for %d control qubits", g.Name, len(g.ControlQubits()))
	}

	m, err := g.Matrix(b)
	if err != nil {
		return nil, err
	}
	if r, c := m.Dims(); r != 2 || c != 2 {
		return nil, newError(DimensionMismatch, "ControlMatrix", "cannot control a gate matrix of shape %dx%d", r, c)
	}

	out := Eye(4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out.Set(2+i, 2+j, m.At(i, j))
		}
	}
	return out, nil
}

/*
AsMatrixFused multiplies the sub-gates of a fused gate into one matrix over
the fused target qubits. Each sub-gate matrix is expanded with the identity,
its axes permuted onto the fused target order, and left-multiplied so that the
last applied gate is the leftmost factor.
*/
func (b *Backend) AsMatrixFused(fused *Gate) (*Dense, error) {
	if fused.Kind() != Fused {
		return nil, newError(UnsupportedOperation, "AsMatrixFused", "gate %s is %v, not fused", fused.Name, fused.Kind())
	}

	rank := len(fused.TargetQubits())
	matrix := Eye(1 << rank)

	for _, g := range fused.Parts() {
		gm, err := g.fullMatrix(b)
		if err != nil {
			return nil, err
		}

		qubits := g.Qubits()
		gm = Kron(gm, Eye(1<<(rank-len(qubits))))

		indices := append([]int(nil), qubits...)
		for _, q := range fused.TargetQubits() {
			if !slices.Contains(qubits, q) {
				indices = append(indices, q)
			}
		}

		perm := argsort(indices)
		transpose := append(append([]int(nil), perm...), shift(perm, rank)...)

		t := qubitTensor(gm.data, 2*rank).Transpose(transpose)
		matrix = MatMul(NewDense(1<<rank, 1<<rank, t.data), matrix)
	}

	return b.roundDense(matrix), nil
}

func (b *Backend) observe(op string, start time.Time) {
	b.metrics.recordOperation(op, start)
}
