package utils

import (
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
)

// Supported transcript hash functions
const (
	HashSHA256   = "sha256"
	HashSHA3     = "sha3"
	HashPoseidon = "poseidon"
)

// Config holds the knobs of a bus-mapping build
type Config struct {
	// Transcript hash used to draw permutation-argument challenges
	HashFunction string // "sha256", "sha3" or "poseidon"

	// Number of domain views built concurrently (1..3)
	Parallelism int

	// Derivation checks
	CheckProgramCounter bool   // verify pc continuity between steps
	MaxRangeBytes       uint64 // largest memory range one access may cover

	// Pad bus tables to a power-of-two height
	PadTables bool
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() *Config {
	return &Config{
		HashFunction:        HashSHA3,
		Parallelism:         3,
		CheckProgramCounter: true,
		MaxRangeBytes:       1 << 20,
		PadTables:           true,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.HashFunction {
	case HashSHA256, HashSHA3, HashPoseidon:
	default:
		return core.NewError(core.ErrInvalidConfig,
			"hash function must be 'sha256', 'sha3' or 'poseidon', got '%s'", c.HashFunction)
	}

	if c.Parallelism < 1 || c.Parallelism > 3 {
		return core.NewError(core.ErrInvalidConfig, "parallelism must be between 1 and 3, got %d", c.Parallelism)
	}

	if c.MaxRangeBytes == 0 {
		return core.NewError(core.ErrInvalidConfig, "max range bytes must be positive")
	}

	return nil
}

// WithHashFunction sets the transcript hash function
func (c *Config) WithHashFunction(hashFunc string) *Config {
	c.HashFunction = hashFunc
	return c
}

// WithParallelism sets the number of concurrent view builders
func (c *Config) WithParallelism(n int) *Config {
	c.Parallelism = n
	return c
}

// WithProgramCounterCheck toggles pc continuity checking
func (c *Config) WithProgramCounterCheck(enabled bool) *Config {
	c.CheckProgramCounter = enabled
	return c
}

// WithMaxRangeBytes bounds memory range accesses
func (c *Config) WithMaxRangeBytes(n uint64) *Config {
	c.MaxRangeBytes = n
	return c
}

// WithPadTables toggles power-of-two padding of bus tables
func (c *Config) WithPadTables(enabled bool) *Config {
	c.PadTables = enabled
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
