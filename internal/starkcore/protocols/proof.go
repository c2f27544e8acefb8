package protocols

import (
	"fmt"

	"github.com/vybium/stark-core/internal/starkcore/core"
)

// RowOpening is one row of the committed trace-and-quotient table, opened
// against TraceRoot at a sampled position: the values of every column's
// trace polynomial P, constraint quotient D, and boundary quotient B at
// that domain point, together with the Merkle authentication path.
type RowOpening struct {
	Position int
	Values   []*core.FieldElement // P_0..P_{w-1}, D_0..D_{w-1}, B_0..B_{w-1}
	Branch   []core.ProofNode
}

// SpotCheck is everything the verifier needs to check one sampled position:
// the row itself, the next row (position+ExtensionFactor, the next trace
// step), and the FRI opening for the combined codeword at that position.
type SpotCheck struct {
	Row     RowOpening
	NextRow RowOpening
	FRI     *FRIOpening
}

// Proof is the STARK proof: a commitment to the trace-and-quotient table, a
// commitment to the combined low-degree codeword, and the spot-check
// openings that let the verifier probabilistically confirm both
// commitments are consistent with a valid computation.
type Proof struct {
	TraceRoot    []byte
	CombinedRoot []byte
	Positions    []int
	SpotChecks   []SpotCheck
	FRIProof     *FRIProof
}

// EncodeRow canonically serialises one row's P/D/B values for Merkle
// hashing. Prover and verifier must use the same encoding to agree on leaf
// hashes.
func EncodeRow(values []*core.FieldElement) []byte {
	encoded := make([]byte, 0, len(values)*32)
	for _, v := range values {
		b := v.FixedBytes(32)
		encoded = append(encoded, b...)
	}
	return encoded
}

// Validate checks that a proof is structurally well-formed before
// verification attempts to interpret its contents.
func (p *Proof) Validate() error {
	if len(p.TraceRoot) == 0 {
		return fmt.Errorf("proof is missing a trace root")
	}
	if len(p.CombinedRoot) == 0 {
		return fmt.Errorf("proof is missing a combined codeword root")
	}
	if p.FRIProof == nil {
		return fmt.Errorf("proof is missing a FRI proof")
	}
	if len(p.Positions) != len(p.SpotChecks) {
		return fmt.Errorf("position count %d does not match spot check count %d", len(p.Positions), len(p.SpotChecks))
	}
	if len(p.Positions) == 0 {
		return fmt.Errorf("proof contains no sampled positions")
	}
	return nil
}

// Size returns the approximate serialised size of the proof in bytes.
func (p *Proof) Size() int {
	size := len(p.TraceRoot) + len(p.CombinedRoot)
	for _, sc := range p.SpotChecks {
		size += rowOpeningSize(sc.Row) + rowOpeningSize(sc.NextRow)
		for _, round := range sc.FRI.Rounds {
			size += 32 * 2
			size += (len(round.BranchA) + len(round.BranchB)) * 32
		}
	}
	for _, root := range p.FRIProof.Roots {
		size += len(root)
	}
	size += len(p.FRIProof.FinalCodeword) * 32
	return size
}

func rowOpeningSize(row RowOpening) int {
	size := len(row.Values) * 32
	size += len(row.Branch) * 32
	return size
}

func (p *Proof) String() string {
	return fmt.Sprintf("Proof{positions: %d, friRounds: %d, size: %d bytes}", len(p.Positions), len(p.FRIProof.Roots), p.Size())
}
