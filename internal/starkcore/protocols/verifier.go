package protocols

import (
	"fmt"
	"math/big"

	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/internal/starkcore/utils"
)

// ComputationShape is the public claim a Verifier checks a proof against:
// everything about the computation that is not itself part of the witness.
type ComputationShape struct {
	Width                 int
	Steps                 int
	Input                 []*core.FieldElement
	Output                []*core.FieldElement
	RoundConstants        [][]*core.FieldElement
	TransitionPolynomials []*core.MultivariatePolynomial
}

// Verifier checks STARK proofs against a ComputationShape and Config. It
// recomputes every domain, challenge, and sampled position from public
// data; nothing about the witness is trusted.
type Verifier struct {
	config *utils.Config
	field  *core.Field
	hash   core.HashFunc
	fri    *FRI
}

// NewVerifier builds a verifier bound to the given configuration.
func NewVerifier(config *utils.Config) (*Verifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	field, err := core.NewField(config.FieldModulus)
	if err != nil {
		return nil, fmt.Errorf("failed to build field: %w", err)
	}
	hashFn, err := core.NewHashFunc(config.HashFunction)
	if err != nil {
		return nil, fmt.Errorf("failed to build hash function: %w", err)
	}
	return &Verifier{
		config: config,
		field:  field,
		hash:   hashFn,
		fri:    NewFRI(field, hashFn, 16),
	}, nil
}

type boundaryInterpolant struct {
	interpolant *core.Polynomial
	denominator *core.Polynomial
}

// Verify checks proof against shape. It returns nil only if the trace and
// combination commitments are consistent, every sampled transition and
// boundary identity holds, and the FRI proof of low degree checks out at
// every sampled position.
func (v *Verifier) Verify(proof *Proof, shape *ComputationShape) error {
	if err := proof.Validate(); err != nil {
		return fmt.Errorf("malformed proof: %w", err)
	}
	if shape.Width != v.config.Width {
		return fmt.Errorf("claimed width %d does not match configured width %d", shape.Width, v.config.Width)
	}
	if len(shape.TransitionPolynomials) != shape.Width {
		return fmt.Errorf("expected %d transition polynomials, got %d", shape.Width, len(shape.TransitionPolynomials))
	}

	domains, err := DeriveProofDomains(v.field, shape.Steps, v.config.ExtensionFactor)
	if err != nil {
		return fmt.Errorf("failed to derive proof domains: %w", err)
	}

	cw := constantsWidth(shape.RoundConstants)
	for j, poly := range shape.TransitionPolynomials {
		if poly.NumVars() != 2*shape.Width+cw {
			return fmt.Errorf("transition polynomial %d must be over %d variables, got %d", j, 2*shape.Width+cw, poly.NumVars())
		}
	}
	constantsPolys, err := interpolateConstantsPolynomials(v.field, shape.RoundConstants, shape.Steps, domains.Trace.Generator)
	if err != nil {
		return fmt.Errorf("failed to interpolate round-constants polynomials: %w", err)
	}

	boundaryByColumn, err := v.boundaryConstraints(shape, domains)
	if err != nil {
		return fmt.Errorf("failed to derive boundary constraints: %w", err)
	}

	transcript := utils.NewChannel(append(append([]byte{}, proof.TraceRoot...), proof.CombinedRoot...), v.hash)
	expectedPositions, err := transcript.SampleIndices(domains.Evaluation.Length, v.config.SpotCheckSecurityFactor, v.config.ExtensionFactor)
	if err != nil {
		return fmt.Errorf("failed to sample spot-check positions: %w", err)
	}
	if len(expectedPositions) != len(proof.Positions) {
		return fmt.Errorf("expected %d sampled positions, proof has %d", len(expectedPositions), len(proof.Positions))
	}
	for i := range expectedPositions {
		if expectedPositions[i] != proof.Positions[i] {
			return fmt.Errorf("sampled position %d does not match transcript: expected %d, got %d", i, expectedPositions[i], proof.Positions[i])
		}
	}

	challengeChannel := utils.NewChannel(proof.TraceRoot, v.hash)
	k1 := make([]*core.FieldElement, shape.Width)
	k2 := make([]*core.FieldElement, shape.Width)
	k3 := make([]*core.FieldElement, shape.Width)
	k4 := make([]*core.FieldElement, shape.Width)
	for j := 0; j < shape.Width; j++ {
		k1[j] = challengeChannel.Challenge(v.field, byte(4*j))
		k2[j] = challengeChannel.Challenge(v.field, byte(4*j+1))
		k3[j] = challengeChannel.Challenge(v.field, byte(4*j+2))
		k4[j] = challengeChannel.Challenge(v.field, byte(4*j+3))
	}

	stepsBig := big.NewInt(int64(shape.Steps))

	for i, position := range proof.Positions {
		sc := proof.SpotChecks[i]
		nextPosition := (position + v.config.ExtensionFactor) % domains.Evaluation.Length

		if sc.Row.Position != position || sc.NextRow.Position != nextPosition {
			return fmt.Errorf("spot check %d: row positions do not match the expected transcript positions", i)
		}
		if len(sc.Row.Values) != 3*shape.Width || len(sc.NextRow.Values) != 3*shape.Width {
			return fmt.Errorf("spot check %d: row has %d values, expected %d", i, len(sc.Row.Values), 3*shape.Width)
		}

		if !core.VerifyBranch(v.hash, proof.TraceRoot, EncodeRow(sc.Row.Values), sc.Row.Branch, position) {
			return fmt.Errorf("spot check %d: row Merkle branch failed to verify", i)
		}
		if !core.VerifyBranch(v.hash, proof.TraceRoot, EncodeRow(sc.NextRow.Values), sc.NextRow.Branch, nextPosition) {
			return fmt.Errorf("spot check %d: next row Merkle branch failed to verify", i)
		}

		p := sc.Row.Values[0:shape.Width]
		d := sc.Row.Values[shape.Width : 2*shape.Width]
		b := sc.Row.Values[2*shape.Width : 3*shape.Width]
		pNext := sc.NextRow.Values[0:shape.Width]

		x := domains.Evaluation.Element(position)

		args := make([]*core.FieldElement, 2*shape.Width+cw)
		copy(args[:shape.Width], p)
		copy(args[shape.Width:2*shape.Width], pNext)
		for ci := 0; ci < cw; ci++ {
			args[2*shape.Width+ci] = constantsPolys[ci].Eval(x)
		}

		zAtX := x.Exp(stepsBig).Sub(v.field.One())
		for j, poly := range shape.TransitionPolynomials {
			c, err := poly.Evaluate(args)
			if err != nil {
				return fmt.Errorf("spot check %d: failed to evaluate transition polynomial %d: %w", i, j, err)
			}
			expected := d[j].Mul(zAtX)
			if !expected.Equal(c) {
				return fmt.Errorf("spot check %d: transition constraint %d violated at position %d", i, j, position)
			}
		}

		for j := 0; j < shape.Width; j++ {
			constraints := boundaryByColumn[j]
			if constraints == nil {
				continue
			}
			interpolantAtX := constraints.interpolant.Eval(x)
			denomAtX := constraints.denominator.Eval(x)
			expected := b[j].Mul(denomAtX)
			actual := p[j].Sub(interpolantAtX)
			if !expected.Equal(actual) {
				return fmt.Errorf("spot check %d: boundary constraint for column %d violated at position %d", i, j, position)
			}
		}

		xToSteps := x.Exp(stepsBig)
		combinedExpected := v.field.Zero()
		for j := 0; j < shape.Width; j++ {
			term := d[j]
			term = term.Add(k1[j].Mul(p[j]))
			term = term.Add(k2[j].Mul(xToSteps).Mul(p[j]))
			term = term.Add(k3[j].Mul(b[j]))
			term = term.Add(k4[j].Mul(xToSteps).Mul(b[j]))
			combinedExpected = combinedExpected.Add(term)
		}

		if err := v.fri.Verify(proof.FRIProof, domains.Evaluation, proof.TraceRoot, position, sc.FRI); err != nil {
			return fmt.Errorf("spot check %d: FRI verification failed: %w", i, err)
		}

		if len(sc.FRI.Rounds) == 0 {
			return fmt.Errorf("spot check %d: FRI opening has no rounds", i)
		}
		half := domains.Evaluation.Length / 2
		var committedCombined *core.FieldElement
		if position < half {
			committedCombined = sc.FRI.Rounds[0].ValueA
		} else {
			committedCombined = sc.FRI.Rounds[0].ValueB
		}
		if !committedCombined.Equal(combinedExpected) {
			return fmt.Errorf("spot check %d: combined codeword value does not match the committed FRI leaf", i)
		}
	}

	return nil
}

// boundaryConstraints derives, per column, the boundary constraints implied
// by shape.Input (pinned at step 0) and shape.Output (pinned at the final
// step, if provided), then builds the Lagrange interpolant through those
// points and the vanishing polynomial of their domain positions.
func (v *Verifier) boundaryConstraints(shape *ComputationShape, domains *ProofDomains) ([]*boundaryInterpolant, error) {
	byColumn := make([][]core.Point, shape.Width)
	roots := make([][]*core.FieldElement, shape.Width)

	if len(shape.Input) != shape.Width {
		return nil, fmt.Errorf("input width %d does not match computation width %d", len(shape.Input), shape.Width)
	}
	x0 := domains.Trace.Element(0)
	for j := 0; j < shape.Width; j++ {
		byColumn[j] = append(byColumn[j], *core.NewPoint(x0, shape.Input[j]))
		roots[j] = append(roots[j], x0)
	}

	if shape.Output != nil {
		if len(shape.Output) != shape.Width {
			return nil, fmt.Errorf("output width %d does not match computation width %d", len(shape.Output), shape.Width)
		}
		xLast := domains.Trace.Element(shape.Steps - 1)
		for j := 0; j < shape.Width; j++ {
			byColumn[j] = append(byColumn[j], *core.NewPoint(xLast, shape.Output[j]))
			roots[j] = append(roots[j], xLast)
		}
	}

	result := make([]*boundaryInterpolant, shape.Width)
	for j := 0; j < shape.Width; j++ {
		var interpolant *core.Polynomial
		var err error
		if len(byColumn[j]) == 2 {
			interpolant, err = core.LagrangeInterp2(v.field, [2]*core.FieldElement{byColumn[j][0].X, byColumn[j][1].X}, [2]*core.FieldElement{byColumn[j][0].Y, byColumn[j][1].Y})
		} else {
			interpolant, err = core.LagrangeInterpolation(byColumn[j], v.field)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate boundary constraints for column %d: %w", j, err)
		}

		denominator, err := core.Zpoly(v.field, roots[j])
		if err != nil {
			return nil, fmt.Errorf("failed to build boundary vanishing polynomial for column %d: %w", j, err)
		}

		result[j] = &boundaryInterpolant{interpolant: interpolant, denominator: denominator}
	}

	return result, nil
}
