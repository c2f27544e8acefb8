package protocols

import (
	"fmt"

	"github.com/vybium/stark-core/internal/starkcore/codes"
	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/internal/starkcore/utils"
)

// Halve returns the domain reached by one FRI folding round: both offset
// and generator are squared, halving the domain's length. x and -x in the
// current domain (at index i and i+length/2) fold to the same point in the
// halved domain.
func (d *ArithmeticDomain) Halve() *ArithmeticDomain {
	return &ArithmeticDomain{Offset: d.Offset.Mul(d.Offset), Generator: d.Generator.Mul(d.Generator), Length: d.Length / 2}
}

// FRILayer is one round's committed codeword, kept by the prover so it can
// answer verifier queries after the fact.
type FRILayer struct {
	Domain *ArithmeticDomain
	Values []*core.FieldElement
	Tree   *core.MerkleTree
}

// FRIProof is the sequence of per-round Merkle roots together with the
// terminal codeword, sent in the clear once folding reaches the size
// threshold below which a direct degree check is cheaper than another
// round.
type FRIProof struct {
	Roots         [][]byte
	FinalCodeword []*core.FieldElement
}

// FRIRoundOpening is the pair of leaves (at a point and its negation) the
// verifier needs to check one round's folding relation at a sampled
// position, each with its Merkle authentication path.
type FRIRoundOpening struct {
	ValueA  *core.FieldElement
	BranchA []core.ProofNode
	ValueB  *core.FieldElement
	BranchB []core.ProofNode
}

// FRIOpening collects every round's opening for a single sampled position.
type FRIOpening struct {
	Rounds []FRIRoundOpening
}

// FRI runs the low-degree test: it folds a committed codeword by half each
// round using a transcript-derived challenge, Merkle-committing every
// intermediate codeword, until the remaining codeword is small enough to
// send in the clear and check directly for low degree.
type FRI struct {
	field          *core.Field
	hash           core.HashFunc
	finalRoundSize int
}

// NewFRI constructs a FRI instance. finalRoundSize is the codeword length at
// or below which folding stops and the codeword is sent in the clear; it
// must be a power of two.
func NewFRI(field *core.Field, hash core.HashFunc, finalRoundSize int) *FRI {
	if finalRoundSize <= 0 {
		finalRoundSize = 16
	}
	return &FRI{field: field, hash: hash, finalRoundSize: finalRoundSize}
}

func fieldElementsToBytes(values []*core.FieldElement) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = v.Bytes()
	}
	return out
}

// Prove folds codeword (the evaluations of the combined polynomial L over
// domain) down to a small final codeword. Each round commits its folded
// codeword to a Merkle tree and derives that round's folding challenge from
// a hash binding transcriptRoot (the outer proof's commitment) to the
// round's own root, so challenges cannot be replayed across proofs or
// reordered across rounds. It returns the compact proof plus the retained
// per-round layers the prover needs to answer later queries.
func (f *FRI) Prove(codeword []*core.FieldElement, domain *ArithmeticDomain, transcriptRoot []byte) (*FRIProof, []*FRILayer, error) {
	if len(codeword) != domain.Length {
		return nil, nil, fmt.Errorf("codeword length %d does not match domain length %d", len(codeword), domain.Length)
	}

	layers := make([]*FRILayer, 0)
	roots := make([][]byte, 0)

	currentValues := codeword
	currentDomain := domain
	currentRoot := transcriptRoot

	for currentDomain.Length > f.finalRoundSize {
		tree, err := core.NewMerkleTree(fieldElementsToBytes(currentValues), f.hash)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to commit FRI round: %w", err)
		}
		layers = append(layers, &FRILayer{Domain: currentDomain, Values: currentValues, Tree: tree})
		roots = append(roots, tree.Root())

		alpha := f.roundChallenge(transcriptRoot, tree.Root())

		nextValues, err := f.fold(currentValues, currentDomain, alpha)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fold FRI round: %w", err)
		}

		currentValues = nextValues
		currentDomain = currentDomain.Halve()
		currentRoot = tree.Root()
	}
	_ = currentRoot

	return &FRIProof{Roots: roots, FinalCodeword: currentValues}, layers, nil
}

// roundChallenge derives one round's folding challenge, binding both the
// outer proof transcript root and this round's own committed root.
func (f *FRI) roundChallenge(transcriptRoot, roundRoot []byte) *core.FieldElement {
	combined := f.hash(append(append([]byte{}, transcriptRoot...), roundRoot...))
	channel := utils.NewChannel(combined, f.hash)
	return channel.Challenge(f.field, 0xFB)
}

// fold applies f(x) -> (f(x)+f(-x))/2 + alpha*(f(x)-f(-x))/(2x) pointwise,
// pairing domain element i with its negation at i+length/2.
func (f *FRI) fold(values []*core.FieldElement, domain *ArithmeticDomain, alpha *core.FieldElement) ([]*core.FieldElement, error) {
	n := len(values)
	if n%2 != 0 {
		return nil, fmt.Errorf("domain size must be even to fold, got %d", n)
	}
	half := n / 2

	two := f.field.NewElementFromInt64(2)
	twoInv, err := two.Inv()
	if err != nil {
		return nil, fmt.Errorf("failed to invert 2: %w", err)
	}

	folded := make([]*core.FieldElement, half)
	for i := 0; i < half; i++ {
		fx := values[i]
		fNegX := values[i+half]

		sum := fx.Add(fNegX).Mul(twoInv)

		diff := fx.Sub(fNegX)
		x := domain.Element(i)
		xInv, err := x.Mul(two).Inv()
		if err != nil {
			return nil, fmt.Errorf("failed to invert domain point: %w", err)
		}
		scaled := diff.Mul(xInv)

		folded[i] = sum.Add(alpha.Mul(scaled))
	}
	return folded, nil
}

// Open returns the Merkle openings every round needs to check a single
// sampled position's folding relation.
func (f *FRI) Open(layers []*FRILayer, position int) (*FRIOpening, error) {
	rounds := make([]FRIRoundOpening, len(layers))
	foldedIndex := position

	for i, layer := range layers {
		half := layer.Domain.Length / 2
		pairIndex := foldedIndex % half

		branchA, err := layer.Tree.Branch(pairIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to open FRI round %d at %d: %w", i, pairIndex, err)
		}
		branchB, err := layer.Tree.Branch(pairIndex + half)
		if err != nil {
			return nil, fmt.Errorf("failed to open FRI round %d at %d: %w", i, pairIndex+half, err)
		}

		rounds[i] = FRIRoundOpening{
			ValueA:  layer.Values[pairIndex],
			BranchA: branchA,
			ValueB:  layer.Values[pairIndex+half],
			BranchB: branchB,
		}

		foldedIndex = pairIndex
	}

	return &FRIOpening{Rounds: rounds}, nil
}

// Verify checks a FRI proof at one sampled position: it re-derives each
// round's folding challenge, verifies the Merkle openings at x and -x,
// confirms each round's folded value matches what the next round committed,
// and finally checks the last folded value against the codeword published
// in the clear. It additionally checks that final codeword is itself a
// valid low-degree Reed-Solomon codeword.
func (f *FRI) Verify(proof *FRIProof, domain *ArithmeticDomain, transcriptRoot []byte, position int, opening *FRIOpening) error {
	if len(proof.Roots) != len(opening.Rounds) {
		return fmt.Errorf("opening round count %d does not match proof round count %d", len(opening.Rounds), len(proof.Roots))
	}
	if position < 0 || position >= domain.Length {
		return fmt.Errorf("position %d out of range [0, %d)", position, domain.Length)
	}

	currentDomain := domain
	foldedIndex := position
	var pendingExpected *core.FieldElement

	for round, root := range proof.Roots {
		half := currentDomain.Length / 2
		pairIndex := foldedIndex % half
		ro := opening.Rounds[round]

		if !core.VerifyBranch(f.hash, root, ro.ValueA.Bytes(), ro.BranchA, pairIndex) {
			return fmt.Errorf("FRI round %d: merkle branch for f(x) failed to verify", round)
		}
		if !core.VerifyBranch(f.hash, root, ro.ValueB.Bytes(), ro.BranchB, pairIndex+half) {
			return fmt.Errorf("FRI round %d: merkle branch for f(-x) failed to verify", round)
		}

		if pendingExpected != nil {
			var committed *core.FieldElement
			if foldedIndex < half {
				committed = ro.ValueA
			} else {
				committed = ro.ValueB
			}
			if !pendingExpected.Equal(committed) {
				return fmt.Errorf("FRI round %d: folded value from the previous round does not match the committed value", round)
			}
		}

		alpha := f.roundChallenge(transcriptRoot, root)

		two := f.field.NewElementFromInt64(2)
		twoInv, err := two.Inv()
		if err != nil {
			return fmt.Errorf("failed to invert 2: %w", err)
		}
		sum := ro.ValueA.Add(ro.ValueB).Mul(twoInv)

		diff := ro.ValueA.Sub(ro.ValueB)
		x := currentDomain.Element(pairIndex)
		xInv, err := x.Mul(two).Inv()
		if err != nil {
			return fmt.Errorf("failed to invert domain point: %w", err)
		}
		scaled := diff.Mul(xInv)

		pendingExpected = sum.Add(alpha.Mul(scaled))
		foldedIndex = pairIndex
		currentDomain = currentDomain.Halve()
	}

	if foldedIndex >= len(proof.FinalCodeword) {
		return fmt.Errorf("index %d out of range for final codeword of size %d", foldedIndex, len(proof.FinalCodeword))
	}
	if pendingExpected != nil && !pendingExpected.Equal(proof.FinalCodeword[foldedIndex]) {
		return fmt.Errorf("final folded value does not match the published codeword")
	}

	return f.verifyFinalCodewordDegree(proof.FinalCodeword, currentDomain)
}

// verifyFinalCodewordDegree checks that the codeword sent in the clear is
// itself consistent with a low-degree polynomial over its domain, using the
// degree share (1/4, matching the prover's folding rate) that the rest of
// the pipeline uses for the combined polynomial.
func (f *FRI) verifyFinalCodewordDegree(finalCodeword []*core.FieldElement, domain *ArithmeticDomain) error {
	if len(finalCodeword) != domain.Length {
		return fmt.Errorf("final codeword length %d does not match final domain length %d", len(finalCodeword), domain.Length)
	}

	quarter, err := f.field.One().Div(f.field.NewElementFromInt64(4))
	if err != nil {
		return fmt.Errorf("failed to compute rate: %w", err)
	}

	rs, err := codes.NewReedSolomonCode(f.field, domain.Elements(), quarter)
	if err != nil {
		return fmt.Errorf("failed to build Reed-Solomon code for final codeword check: %w", err)
	}

	ok, err := rs.IsInCode(finalCodeword)
	if err != nil {
		return fmt.Errorf("failed to check final codeword degree: %w", err)
	}
	if !ok {
		return fmt.Errorf("final codeword is not a low-degree codeword")
	}
	return nil
}
