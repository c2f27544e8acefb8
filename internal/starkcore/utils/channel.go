package utils

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/vybium/stark-core/internal/starkcore/core"
)

// Channel is the non-interactive Fiat-Shamir transcript used to derive every
// verifier challenge from a single committed Merkle root. There is no
// running absorb/squeeze state: each challenge or sampled index is an
// independent hash of the root concatenated with a small tag or counter, so
// prover and verifier reconstruct identical values from the same root
// without exchanging anything beyond the root itself.
type Channel struct {
	root []byte
	hash core.HashFunc
}

// NewChannel binds a transcript to a committed root using the given hash.
func NewChannel(root []byte, hash core.HashFunc) *Channel {
	return &Channel{root: append([]byte(nil), root...), hash: hash}
}

// Root returns the root this channel is bound to.
func (c *Channel) Root() []byte {
	return append([]byte(nil), c.root...)
}

// Challenge derives the tag-th pseudorandom field element bound to the
// committed root: k = int(H(root || tag)) mod p. Distinct tags give
// independent, deterministically reproducible challenges.
func (c *Channel) Challenge(field *core.Field, tag byte) *core.FieldElement {
	digest := c.hash(append(append([]byte{}, c.root...), tag))
	value := new(big.Int).SetBytes(digest)
	value.Mod(value, field.Modulus())
	return field.NewElement(value)
}

// SampleIndices derives count pseudorandom positions in [0, domainSize) by
// repeatedly hashing root || counter and reducing modulo domainSize,
// rejecting any sample that is a multiple of excludeMultiplesOf (pass 0 to
// disable the rejection rule). domainSize must be a power of two.
func (c *Channel) SampleIndices(domainSize, count, excludeMultiplesOf int) ([]int, error) {
	if domainSize <= 0 || domainSize&(domainSize-1) != 0 {
		return nil, fmt.Errorf("domain size must be a positive power of two, got %d", domainSize)
	}
	if count < 0 {
		return nil, fmt.Errorf("count must be non-negative, got %d", count)
	}

	domainSizeBig := big.NewInt(int64(domainSize))
	indices := make([]int, 0, count)
	maxAttempts := count*1000 + 1000

	for counter := 0; len(indices) < count; counter++ {
		if counter >= maxAttempts {
			return nil, fmt.Errorf("failed to sample %d indices from domain size %d after %d attempts", count, domainSize, counter)
		}

		counterBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(counterBytes, uint32(counter))

		digest := c.hash(append(append([]byte{}, c.root...), counterBytes...))
		value := new(big.Int).SetBytes(digest)
		value.Mod(value, domainSizeBig)
		index := int(value.Int64())

		if excludeMultiplesOf > 0 && index%excludeMultiplesOf == 0 {
			continue
		}

		indices = append(indices, index)
	}

	return indices, nil
}
