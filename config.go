package qtensor

import (
	"github.com/spf13/viper"
)

// CPUDevice is the only device identifier the engine accepts.
const CPUDevice = "/CPU:0"

// Config holds the numeric knobs of a Backend.
type Config struct {
	Device  string
	Threads int
	Dtype   Dtype

	// ShotBatchSize bounds how many shots are drawn at once by SampleFrequencies.
	ShotBatchSize int
	// EigvalCutoff is the smallest eigenvalue kept by EntanglementEntropy.
	EigvalCutoff float64

	SymbolicDecimals int
	SymbolicCutoff   float64
	SymbolicMaxTerms int
}

func NewConfig() *Config {
	return &Config{
		Device:           CPUDevice,
		Threads:          1,
		Dtype:            Complex128,
		ShotBatchSize:    1 << 18,
		EigvalCutoff:     1e-14,
		SymbolicDecimals: 5,
		SymbolicCutoff:   1e-10,
		SymbolicMaxTerms: 20,
	}
}

// validate checks the device and thread settings the engine can honor.
func (c *Config) validate() error {
	if c.Device != CPUDevice {
		return newError(ConfigurationError, "SetDevice", "device %q is not available, only %q is supported", c.Device, CPUDevice)
	}
	if c.Threads > 1 {
		return newError(ConfigurationError, "SetThreads", "cannot use %d threads, the engine is single-threaded", c.Threads)
	}
	if c.ShotBatchSize <= 0 {
		return newError(ConfigurationError, "NewBackend", "shot batch size must be positive, got %d", c.ShotBatchSize)
	}
	if c.SymbolicMaxTerms < 0 {
		return newError(ConfigurationError, "NewBackend", "symbolic term limit must not be negative, got %d", c.SymbolicMaxTerms)
	}
	return nil
}

/*
LoadConfig reads a Config from v, falling back to the defaults of NewConfig for
every key that is not set. Recognized keys:

	device, threads, dtype ("complex64" or "complex128"), shot_batch_size,
	eigval_cutoff, symbolic.decimals, symbolic.cutoff, symbolic.max_terms

Returns a ConfigurationError for an unknown dtype or for settings the engine
cannot honor.
*/
func LoadConfig(v *viper.Viper) (*Config, error) {
	config := NewConfig()

	v.SetDefault("device", config.Device)
	v.SetDefault("threads", config.Threads)
	v.SetDefault("dtype", config.Dtype.String())
	v.SetDefault("shot_batch_size", config.ShotBatchSize)
	v.SetDefault("eigval_cutoff", config.EigvalCutoff)
	v.SetDefault("symbolic.decimals", config.SymbolicDecimals)
	v.SetDefault("symbolic.cutoff", config.SymbolicCutoff)
	v.SetDefault("symbolic.max_terms", config.SymbolicMaxTerms)

	switch dtype := v.GetString("dtype"); dtype {
	case Complex128.String():
		config.Dtype = Complex128
	case Complex64.String():
		config.Dtype = Complex64
	default:
		return nil, newError(ConfigurationError, "LoadConfig", "unknown dtype %q", dtype)
	}

	config.Device = v.GetString("device")
	config.Threads = v.GetInt("threads")
	config.ShotBatchSize = v.GetInt("shot_batch_size")
	config.EigvalCutoff = v.GetFloat64("eigval_cutoff")
	config.SymbolicDecimals = v.GetInt("symbolic.decimals")
	config.SymbolicCutoff = v.GetFloat64("symbolic.cutoff")
	config.SymbolicMaxTerms = v.GetInt("symbolic.max_terms")

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}
