package core

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// NewHashFunc resolves a configured hash function name into the HashFunc
// used throughout the Merkle tree (C5) and Fiat-Shamir transcript (C6).
// Every option here is a fixed 256-bit cryptographic hash; the core never
// reaches for a field-friendly permutation (Poseidon/Rescue/etc.) because
// the prover and verifier must agree on the digest byte-for-byte regardless
// of which field modulus is configured, and a field-friendly permutation is
// tied to a specific field and round count.
func NewHashFunc(name string) (HashFunc, error) {
	switch name {
	case "sha256":
		return func(data []byte) []byte {
			digest := sha256.Sum256(data)
			return digest[:]
		}, nil
	case "sha3", "sha3-256":
		return func(data []byte) []byte {
			digest := sha3.Sum256(data)
			return digest[:]
		}, nil
	case "blake2b":
		return func(data []byte) []byte {
			digest := blake2b.Sum256(data)
			return digest[:]
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash function %q", name)
	}
}
