package starkcore

import (
	"strings"

	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/internal/starkcore/protocols"
	"github.com/vybium/stark-core/internal/starkcore/utils"
)

// FieldElement is an element of the prime field a proof is built over.
type FieldElement = core.FieldElement

// Field is the finite field itself.
type Field = core.Field

// MultivariatePolynomial describes a transition constraint symbolically.
type MultivariatePolynomial = core.MultivariatePolynomial

// Config is the prover/verifier configuration: field modulus, trace width,
// constraint degree bound, low-degree-extension blowup, spot-check count,
// and hash function.
type Config = utils.Config

// DefaultConfig returns a reasonable configuration for a width-1 computation
// over the package's default 256-bit field.
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}

// StepFunction advances one execution-trace row to the next.
type StepFunction = protocols.StepFunction

// Computation is the concrete definition of an algebraic computation: an
// initial state, an optional per-step round-constant schedule, the step
// function that generates the trace, and the symbolic transition
// polynomials that bound its degree.
type Computation = protocols.Computation

// Proof is an opaque STARK proof returned by Prove and consumed by Verify.
type Proof = protocols.Proof

// ComputationShape is everything about a computation that is public: its
// width, length, claimed input/output, and transition polynomials. Verify
// checks a Proof against a ComputationShape without ever seeing the
// execution trace that produced it.
type ComputationShape = protocols.ComputationShape

// NewField builds the finite field a Config's FieldModulus describes.
func NewField(config *Config) (*Field, error) {
	field, err := core.NewField(config.FieldModulus)
	if err != nil {
		return nil, newError(ErrInvalidParameter, "failed to construct field", err)
	}
	return field, nil
}

// BuildTrace runs computation.Step to generate the execution trace and its
// implied boundary constraints, self-checking every transition along the
// way. output pins the expected final-row values, or nil to leave the
// output unconstrained (the verifier then only checks the input boundary).
func BuildTrace(field *Field, computation *Computation, output []*FieldElement) (*protocols.AIR, error) {
	air, err := protocols.NewAIR(field, computation, output)
	if err != nil {
		return nil, newError(ErrInvalidParameter, "failed to build execution trace", err)
	}
	return air, nil
}

// Prove generates a STARK proof that air's execution trace satisfies its
// transition and boundary constraints.
func Prove(config *Config, air *protocols.AIR) (*Proof, error) {
	prover, err := protocols.NewProver(config)
	if err != nil {
		return nil, newError(ErrInvalidParameter, "failed to construct prover", err)
	}
	proof, err := prover.Prove(air)
	if err != nil {
		return nil, classifyProveError(err)
	}
	return proof, nil
}

// Verify checks proof against shape, returning nil only if every sampled
// transition and boundary identity holds and the attached FRI proof of low
// degree checks out.
func Verify(config *Config, proof *Proof, shape *ComputationShape) error {
	verifier, err := protocols.NewVerifier(config)
	if err != nil {
		return newError(ErrInvalidParameter, "failed to construct verifier", err)
	}
	if err := verifier.Verify(proof, shape); err != nil {
		return classifyVerifyError(err)
	}
	return nil
}

// classifyProveError maps a proving failure to the closest ErrorCode. The
// internal packages return plain wrapped errors, not typed ones, so
// classification is a best-effort match against their message text.
func classifyProveError(err error) error {
	if containsAny(err.Error(), "inverse of zero", "inverse does not exist") {
		return newError(ErrDivisionByZero, "proving failed", err)
	}
	return newError(ErrInvalidParameter, "proving failed", err)
}

// classifyVerifyError maps a verification failure to the closest
// ErrorCode by inspecting which stage of Verify produced it.
func classifyVerifyError(err error) error {
	msg := err.Error()
	switch {
	case containsAny(msg, "merkle branch", "Merkle branch"):
		return newError(ErrMerkleVerifyFailed, "verification failed", err)
	case containsAny(msg, "FRI verification failed", "FRI proof", "final codeword"):
		return newError(ErrFriVerifyFailed, "verification failed", err)
	case containsAny(msg, "transition constraint", "boundary constraint", "combined codeword value"):
		return newError(ErrConstraintViolation, "verification failed", err)
	case containsAny(msg, "sampled position", "do not match the expected transcript"):
		return newError(ErrTranscriptMismatch, "verification failed", err)
	case containsAny(msg, "malformed proof", "does not match configured width", "transition polynomials"):
		return newError(ErrInvalidParameter, "verification failed", err)
	default:
		return newError(ErrUnknown, "verification failed", err)
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
