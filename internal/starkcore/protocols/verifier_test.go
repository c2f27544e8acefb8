package protocols

import (
	"math/big"
	"testing"

	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/internal/starkcore/utils"
)

// fibonacciComputation builds a width-2 Fibonacci computation: state (a, b)
// steps to (b, a+b), starting from (1, 1).
func fibonacciComputation(field *core.Field, steps int) (*Computation, error) {
	x0, err := core.Variable(field, 4, 0)
	if err != nil {
		return nil, err
	}
	x1, err := core.Variable(field, 4, 1)
	if err != nil {
		return nil, err
	}
	y0, err := core.Variable(field, 4, 2)
	if err != nil {
		return nil, err
	}
	y1, err := core.Variable(field, 4, 3)
	if err != nil {
		return nil, err
	}

	p0, err := y0.Sub(x1)
	if err != nil {
		return nil, err
	}
	sum, err := x0.Add(x1)
	if err != nil {
		return nil, err
	}
	p1, err := y1.Sub(sum)
	if err != nil {
		return nil, err
	}

	step := func(field *core.Field, current []*core.FieldElement, constants []*core.FieldElement) ([]*core.FieldElement, error) {
		a, b := current[0], current[1]
		return []*core.FieldElement{b, a.Add(b)}, nil
	}

	one := field.One()
	return &Computation{
		Width:                 2,
		Steps:                 steps,
		Input:                 []*core.FieldElement{one, one},
		Step:                  step,
		TransitionPolynomials: []*core.MultivariatePolynomial{p0, p1},
	}, nil
}

// mimcComputation builds the width-1 MiMC computation from the round-constant
// end-to-end scenario: x -> x^3 + c[i mod 64], with 64 round constants
// c[i] = (i^7) xor 42.
func mimcComputation(field *core.Field, steps int) (*Computation, error) {
	y, err := core.Variable(field, 3, 1)
	if err != nil {
		return nil, err
	}
	k, err := core.Variable(field, 3, 2)
	if err != nil {
		return nil, err
	}

	xCubed := core.NewMultivariatePolynomial(field, 3)
	if err := xCubed.AddTerm(field.One(), []int{3, 0, 0}); err != nil {
		return nil, err
	}

	yMinusXCubed, err := y.Sub(xCubed)
	if err != nil {
		return nil, err
	}
	p0, err := yMinusXCubed.Sub(k)
	if err != nil {
		return nil, err
	}

	roundConstants := make([][]*core.FieldElement, 64)
	for i := 0; i < 64; i++ {
		pow := int64(1)
		for n := 0; n < 7; n++ {
			pow *= int64(i)
		}
		roundConstants[i] = []*core.FieldElement{field.NewElementFromInt64(pow ^ 42)}
	}

	step := func(field *core.Field, current []*core.FieldElement, constants []*core.FieldElement) ([]*core.FieldElement, error) {
		cubed := current[0].Mul(current[0]).Mul(current[0])
		return []*core.FieldElement{cubed.Add(constants[0])}, nil
	}

	return &Computation{
		Width:                 1,
		Steps:                 steps,
		Input:                 []*core.FieldElement{field.NewElementFromInt64(5)},
		RoundConstants:        roundConstants,
		Step:                  step,
		TransitionPolynomials: []*core.MultivariatePolynomial{p0},
	}, nil
}

// TestMiMCProofRoundTrip is scenario B: an honest MiMC proof, whose symbolic
// transition constraint carries a per-step round-constant term, must verify;
// flipping a byte of the committed trace root must then be rejected.
func TestMiMCProofRoundTrip(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 512
	comp, err := mimcComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}

	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	config := fibonacciConfig(field.Modulus())
	config.Width = 1
	config.ConstraintDegree = 3
	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		RoundConstants:        comp.RoundConstants,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err != nil {
		t.Fatalf("Verify failed on honest MiMC proof: %v", err)
	}

	proof.TraceRoot[0] ^= 0xFF
	if err := verifier.Verify(proof, shape); err == nil {
		t.Fatal("expected verification to fail against a tampered MiMC trace root")
	}
}

// TestMiMCTamperedFRIRejected is scenario D: scenario B with one byte of the
// FRI proof flipped must be rejected.
func TestMiMCTamperedFRIRejected(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 512
	comp, err := mimcComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}

	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	config := fibonacciConfig(field.Modulus())
	config.Width = 1
	config.ConstraintDegree = 3
	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	if len(proof.FRIProof.FinalCodeword) == 0 {
		t.Fatal("expected a non-empty final FRI codeword")
	}
	proof.FRIProof.FinalCodeword[0] = proof.FRIProof.FinalCodeword[0].Add(field.One())

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		RoundConstants:        comp.RoundConstants,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err == nil {
		t.Fatal("expected verification to fail against a tampered FRI proof")
	}
}

func fibonacciConfig(modulus *big.Int) *utils.Config {
	return &utils.Config{
		FieldModulus:            modulus,
		Width:                   2,
		ConstraintDegree:        1,
		ExtensionFactor:         8,
		SpotCheckSecurityFactor: 12,
		HashFunction:            "sha256",
	}
}

// TestFibonacciProofRoundTrip is scenario A: an honest Fibonacci proof must
// verify.
func TestFibonacciProofRoundTrip(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 8
	comp, err := fibonacciComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}

	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	config := fibonacciConfig(field.Modulus())
	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}

	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}

	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err != nil {
		t.Fatalf("Verify failed on honest proof: %v", err)
	}
}

// TestFibonacciTamperedTraceRootRejected checks that a Fibonacci proof whose
// committed trace root has been mutated is rejected.
func TestFibonacciTamperedTraceRootRejected(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 8
	comp, err := fibonacciComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}
	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	config := fibonacciConfig(field.Modulus())
	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	proof.TraceRoot[0] ^= 0xFF

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err == nil {
		t.Fatal("expected verification to fail against a tampered trace root")
	}
}

// TestFibonacciWrongOutputRejected is scenario C: claiming the wrong output
// boundary value must fail verification.
func TestFibonacciWrongOutputRejected(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 8
	comp, err := fibonacciComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}
	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	config := fibonacciConfig(field.Modulus())
	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}

	wrongOutput := []*core.FieldElement{field.NewElementFromInt64(999), field.NewElementFromInt64(999)}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		Output:                wrongOutput,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err == nil {
		t.Fatal("expected verification to fail against an incorrect output claim")
	}
}

// TestFibonacciTamperedFRIRejected is scenario D: corrupting a byte inside
// the FRI proof's final codeword must be caught.
func TestFibonacciTamperedFRIRejected(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 16
	comp, err := fibonacciComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}
	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	config := fibonacciConfig(field.Modulus())
	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	if len(proof.FRIProof.FinalCodeword) == 0 {
		t.Fatal("expected a non-empty final FRI codeword")
	}
	proof.FRIProof.FinalCodeword[0] = proof.FRIProof.FinalCodeword[0].Add(field.One())

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err == nil {
		t.Fatal("expected verification to fail against a tampered FRI proof")
	}
}

// TestFibonacciMismatchedExtensionFactorRejected is scenario E: verifying
// with a different ExtensionFactor than the proof was produced under must
// fail because the derived challenges and sampled positions diverge.
func TestFibonacciMismatchedExtensionFactorRejected(t *testing.T) {
	field, err := core.NewField(big.NewInt(3221225473))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	steps := 8
	comp, err := fibonacciComputation(field, steps)
	if err != nil {
		t.Fatalf("failed to build computation: %v", err)
	}
	air, err := NewAIR(field, comp, nil)
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	proverConfig := fibonacciConfig(field.Modulus())
	prover, err := NewProver(proverConfig)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	verifierConfig := fibonacciConfig(field.Modulus())
	verifierConfig.ExtensionFactor = 16
	verifier, err := NewVerifier(verifierConfig)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err == nil {
		t.Fatal("expected verification to fail under a mismatched extension factor")
	}
}

// TestTinyFieldProofRoundTrip is scenario F: a tiny field (p = 2^16+1),
// width 1, step x -> x+1, over 4 steps.
func TestTinyFieldProofRoundTrip(t *testing.T) {
	field, err := core.NewField(big.NewInt(65537))
	if err != nil {
		t.Fatalf("failed to build field: %v", err)
	}

	x0, err := core.Variable(field, 2, 0)
	if err != nil {
		t.Fatalf("failed to build variable: %v", err)
	}
	y0, err := core.Variable(field, 2, 1)
	if err != nil {
		t.Fatalf("failed to build variable: %v", err)
	}
	xPlusOne, err := x0.Add(core.MultivariateConstant(field, 2, field.One()))
	if err != nil {
		t.Fatalf("failed to build x+1: %v", err)
	}
	p0, err := y0.Sub(xPlusOne)
	if err != nil {
		t.Fatalf("failed to build transition polynomial: %v", err)
	}

	step := func(field *core.Field, current []*core.FieldElement, constants []*core.FieldElement) ([]*core.FieldElement, error) {
		return []*core.FieldElement{current[0].Add(field.One())}, nil
	}

	comp := &Computation{
		Width:                 1,
		Steps:                 4,
		Input:                 []*core.FieldElement{field.Zero()},
		Step:                  step,
		TransitionPolynomials: []*core.MultivariatePolynomial{p0},
	}

	air, err := NewAIR(field, comp, []*core.FieldElement{field.NewElementFromInt64(3)})
	if err != nil {
		t.Fatalf("failed to build AIR: %v", err)
	}

	trace := air.Trace()
	expected := []int64{0, 1, 2, 3}
	for i, row := range trace {
		if row[0].Big().Int64() != expected[i] {
			t.Fatalf("trace row %d = %v, expected %d", i, row[0], expected[i])
		}
	}

	config := &utils.Config{
		FieldModulus:            big.NewInt(65537),
		Width:                   1,
		ConstraintDegree:        1,
		ExtensionFactor:         8,
		SpotCheckSecurityFactor: 2,
		HashFunction:            "sha256",
	}

	prover, err := NewProver(config)
	if err != nil {
		t.Fatalf("failed to build prover: %v", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	verifier, err := NewVerifier(config)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	shape := &ComputationShape{
		Width:                 comp.Width,
		Steps:                 comp.Steps,
		Input:                 comp.Input,
		Output:                []*core.FieldElement{field.NewElementFromInt64(3)},
		TransitionPolynomials: comp.TransitionPolynomials,
	}

	if err := verifier.Verify(proof, shape); err != nil {
		t.Fatalf("Verify failed on honest tiny-field proof: %v", err)
	}
}
