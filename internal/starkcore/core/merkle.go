package core

import "fmt"

// HashFunc is the fixed 256-bit collision-resistant hash used for every leaf
// and internal node of a MerkleTree, and for deriving Fiat-Shamir challenges
// from a committed root. Prover and verifier must use byte-identical
// implementations; see utils.Config.HashFunction for the supported choices.
type HashFunc func(data []byte) []byte

// MerkleTree is a binary hash tree over a power-of-two number of leaves.
// The tree is stored level by level: levels[0] holds the n leaf hashes and
// the last level holds the single root hash. Non-power-of-two leaf counts are rejected: callers that need to commit an
// odd-sized column must pad it to the next power of two themselves.
type MerkleTree struct {
	hash   HashFunc
	leaves [][]byte
	levels [][][]byte
}

// NewMerkleTree builds a Merkle tree over data, hashing each entry to form
// the leaf layer and then each pair of siblings up to the root.
func NewMerkleTree(data [][]byte, hash HashFunc) (*MerkleTree, error) {
	n := len(data)
	if n == 0 {
		return nil, fmt.Errorf("cannot create Merkle tree with empty data")
	}
	if n&(n-1) != 0 {
		return nil, fmt.Errorf("merkle tree requires a power-of-two leaf count, got %d", n)
	}

	leaves := make([][]byte, n)
	for i, item := range data {
		leaves[i] = hash(item)
	}

	levels := [][][]byte{leaves}
	currentLevel := leaves
	for len(currentLevel) > 1 {
		nextLevel := make([][]byte, len(currentLevel)/2)
		for i := 0; i < len(currentLevel); i += 2 {
			combined := make([]byte, 0, len(currentLevel[i])+len(currentLevel[i+1]))
			combined = append(combined, currentLevel[i]...)
			combined = append(combined, currentLevel[i+1]...)
			nextLevel[i/2] = hash(combined)
		}
		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &MerkleTree{
		hash:   hash,
		leaves: leaves,
		levels: levels,
	}, nil
}

// Root returns the Merkle root.
func (mt *MerkleTree) Root() []byte {
	root := mt.levels[len(mt.levels)-1][0]
	out := make([]byte, len(root))
	copy(out, root)
	return out
}

// ProofNode is one sibling hash on the path from a leaf to the root.
type ProofNode struct {
	Hash    []byte
	IsRight bool // true if the sibling is the right child at this level
}

// Branch returns the authentication path for leaf index, ordered from leaf
// to root, as required by the proof object's opening serialisation.
func (mt *MerkleTree) Branch(index int) ([]ProofNode, error) {
	if index < 0 || index >= len(mt.leaves) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(mt.leaves))
	}

	branch := make([]ProofNode, 0, len(mt.levels)-1)
	currentIndex := index
	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		var siblingIndex int
		var isRight bool
		if currentIndex%2 == 0 {
			siblingIndex = currentIndex + 1
			isRight = true
		} else {
			siblingIndex = currentIndex - 1
			isRight = false
		}

		branch = append(branch, ProofNode{Hash: currentLevel[siblingIndex], IsRight: isRight})
		currentIndex /= 2
	}

	return branch, nil
}

// VerifyBranch recomputes the path from leaf up to the root using the
// supplied hash function and reports whether it matches root.
func VerifyBranch(hash HashFunc, root []byte, leaf []byte, branch []ProofNode, index int) bool {
	current := hash(leaf)
	for _, node := range branch {
		var combined []byte
		if node.IsRight {
			combined = append(append([]byte{}, current...), node.Hash...)
		} else {
			combined = append(append([]byte{}, node.Hash...), current...)
		}
		current = hash(combined)
	}
	_ = index // index is implicit in branch ordering, kept for caller symmetry with the prover side
	return bytesEqual(current, root)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
