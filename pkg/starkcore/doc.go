// Package starkcore provides a transparent STARK prover and verifier:
// finite-field and polynomial arithmetic, an algebraic-intermediate-
// representation (AIR) builder, a FRI low-degree test, and the Fiat-Shamir
// transcript tying them into a non-interactive proof.
//
// # Quick Start
//
// Build a Computation's step function and symbolic transition polynomials,
// generate its execution trace, prove it, and verify the proof:
//
//	config := starkcore.DefaultConfig()
//	field, err := starkcore.NewField(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	air, err := starkcore.BuildTrace(field, computation, output)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	proof, err := starkcore.Prove(config, air)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	shape := &starkcore.ComputationShape{
//		Width:                 computation.Width,
//		Steps:                 computation.Steps,
//		Input:                 computation.Input,
//		Output:                output,
//		TransitionPolynomials: computation.TransitionPolynomials,
//	}
//	if err := starkcore.Verify(config, proof, shape); err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
// - pkg/starkcore/: public API (this package)
// - internal/starkcore/core/: field, polynomial, multivariate polynomial,
//   FFT/NTT, and Merkle tree primitives
// - internal/starkcore/codes/: the Reed-Solomon code used for the FRI
//   final-round degree check
// - internal/starkcore/utils/: configuration and the Fiat-Shamir transcript
// - internal/starkcore/protocols/: the AIR builder, FRI, and the STARK
//   prover and verifier themselves
//
// Errors returned by Prove and Verify are *Error values carrying an
// ErrorCode, so callers can branch on failure class (a constraint
// violation versus a malformed proof versus a transcript mismatch) without
// parsing message text.
//
// # References
//
//   - STARK paper: https://eprint.iacr.org/2018/046
//   - FRI paper: https://eccc.weizmann.ac.il/report/2017/134/
package starkcore
