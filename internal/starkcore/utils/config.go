package utils

import (
	"fmt"
	"math/big"
)

// DefaultModulus is 2^256 - 351*2^32 + 1, a prime whose predecessor is
// divisible by a large power of two, admitting FFT domains up to size 2^32.
func DefaultModulus() *big.Int {
	modulus := new(big.Int).Lsh(big.NewInt(1), 256)
	term := new(big.Int).Lsh(big.NewInt(351), 32)
	modulus.Sub(modulus, term)
	modulus.Add(modulus, big.NewInt(1))
	return modulus
}

// Config is the single explicit configuration value threaded through every
// proving and verification call. There is no package-level modulus, field,
// or hash choice: every call site that needs one takes a *Config.
type Config struct {
	// FieldModulus is the prime p. p-1 must be divisible by a power of two
	// at least as large as ExtensionFactor * TraceLength for any given proof.
	FieldModulus *big.Int

	// Width is the dimensionality w of the execution trace's state vectors.
	Width int

	// ConstraintDegree bounds the degree of each transition constraint
	// polynomial; it determines the FRI degree bound steps*ConstraintDegree.
	ConstraintDegree int

	// ExtensionFactor is the low-degree-extension blowup between the
	// trace domain and the evaluation domain. Must be a power of two.
	ExtensionFactor int

	// SpotCheckSecurityFactor is the number of pseudorandom positions
	// sampled from the combined codeword during proving/verification.
	SpotCheckSecurityFactor int

	// HashFunction names the fixed 256-bit hash used for every Merkle leaf
	// and transcript derivation: "sha256", "sha3", or "blake2b".
	HashFunction string
}

// DefaultConfig returns the STARK parameters used across the example
// end-to-end scenarios: a 256-bit field, width 1, quadratic constraints,
// 8x extension, and 80 spot checks.
func DefaultConfig() *Config {
	return &Config{
		FieldModulus:            DefaultModulus(),
		Width:                   1,
		ConstraintDegree:        2,
		ExtensionFactor:         8,
		SpotCheckSecurityFactor: 80,
		HashFunction:            "sha3",
	}
}

// Validate checks that the configuration can support a consistent FFT
// domain and a well-formed proof pipeline. It does not check TraceLength
// since that varies per proof; callers validate steps against the modulus
// at prove()/verify() time.
func (c *Config) Validate() error {
	if c.FieldModulus == nil || c.FieldModulus.Cmp(big.NewInt(2)) <= 0 {
		return fmt.Errorf("field modulus must be greater than 2")
	}

	if c.Width <= 0 {
		return fmt.Errorf("width must be positive")
	}

	if c.ConstraintDegree <= 0 {
		return fmt.Errorf("constraint degree must be positive")
	}

	if c.ExtensionFactor < 2 || c.ExtensionFactor&(c.ExtensionFactor-1) != 0 {
		return fmt.Errorf("extension factor must be a power of 2 >= 2, got %d", c.ExtensionFactor)
	}

	if c.SpotCheckSecurityFactor <= 0 {
		return fmt.Errorf("spot check security factor must be positive")
	}

	switch c.HashFunction {
	case "sha256", "sha3", "blake2b":
	default:
		return fmt.Errorf("hash function must be 'sha256', 'sha3', or 'blake2b', got '%s'", c.HashFunction)
	}

	return nil
}

// WithFieldModulus sets the field modulus.
func (c *Config) WithFieldModulus(modulus *big.Int) *Config {
	c.FieldModulus = new(big.Int).Set(modulus)
	return c
}

// WithWidth sets the trace width.
func (c *Config) WithWidth(width int) *Config {
	c.Width = width
	return c
}

// WithConstraintDegree sets the transition constraint degree bound.
func (c *Config) WithConstraintDegree(degree int) *Config {
	c.ConstraintDegree = degree
	return c
}

// WithExtensionFactor sets the low-degree-extension blowup factor.
func (c *Config) WithExtensionFactor(factor int) *Config {
	c.ExtensionFactor = factor
	return c
}

// WithSpotCheckSecurityFactor sets the number of spot-check queries.
func (c *Config) WithSpotCheckSecurityFactor(factor int) *Config {
	c.SpotCheckSecurityFactor = factor
	return c
}

// WithHashFunction sets the hash function.
func (c *Config) WithHashFunction(hashFunc string) *Config {
	c.HashFunction = hashFunc
	return c
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		FieldModulus:            new(big.Int).Set(c.FieldModulus),
		Width:                   c.Width,
		ConstraintDegree:        c.ConstraintDegree,
		ExtensionFactor:         c.ExtensionFactor,
		SpotCheckSecurityFactor: c.SpotCheckSecurityFactor,
		HashFunction:            c.HashFunction,
	}
}
