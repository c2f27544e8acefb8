package protocols

import (
	"fmt"
	"math/big"

	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/internal/starkcore/utils"
)

// ArithmeticDomain is a coset of a multiplicative subgroup:
// {offset * generator^i : i = 0..length-1}. Every domain used by the prover
// and verifier has a power-of-two length so evaluation and interpolation can
// use the radix-2 NTT.
type ArithmeticDomain struct {
	Offset    *core.FieldElement
	Generator *core.FieldElement
	Length    int
}

// NewArithmeticDomain creates an unshifted domain of the given length: the
// cyclic subgroup generated by a primitive length-th root of unity.
func NewArithmeticDomain(field *core.Field, length int) (*ArithmeticDomain, error) {
	if !utils.IsPowerOfTwo(length) {
		return nil, fmt.Errorf("domain length must be a power of 2, got %d", length)
	}
	generator := field.GetPrimitiveRootOfUnity(length)
	if generator == nil {
		return nil, fmt.Errorf("field has no primitive %d-th root of unity", length)
	}
	return &ArithmeticDomain{Offset: field.One(), Generator: generator, Length: length}, nil
}

// WithOffset returns a copy of the domain shifted by offset.
func (d *ArithmeticDomain) WithOffset(offset *core.FieldElement) *ArithmeticDomain {
	return &ArithmeticDomain{Offset: offset, Generator: d.Generator, Length: d.Length}
}

// Elements returns every element of the domain in order.
func (d *ArithmeticDomain) Elements() []*core.FieldElement {
	elements := make([]*core.FieldElement, d.Length)
	current := d.Offset
	for i := 0; i < d.Length; i++ {
		elements[i] = current
		current = current.Mul(d.Generator)
	}
	return elements
}

// Element returns the i-th element of the domain without materialising the
// rest.
func (d *ArithmeticDomain) Element(i int) *core.FieldElement {
	return d.Offset.Mul(d.Generator.Exp(big.NewInt(int64(i))))
}

// Evaluate evaluates poly (in coefficient form) at every point of the
// domain, in domain order.
func (d *ArithmeticDomain) Evaluate(poly *core.Polynomial) []*core.FieldElement {
	elements := d.Elements()
	values := make([]*core.FieldElement, len(elements))
	for i, x := range elements {
		values[i] = poly.Eval(x)
	}
	return values
}

func (d *ArithmeticDomain) String() string {
	return fmt.Sprintf("Domain{length: %d, offset: %s, generator: %s}", d.Length, d.Offset.String(), d.Generator.String())
}

// ProofDomains are the two evaluation domains every proof is built over:
// Trace is the size-T subgroup the execution trace is interpolated on,
// Evaluation is the size-(extensionFactor*T) subgroup the committed
// codewords (P, D, B, L) live on.
type ProofDomains struct {
	Trace      *ArithmeticDomain
	Evaluation *ArithmeticDomain
}

// DeriveProofDomains builds the trace and low-degree-extension domains for a
// computation of the given length and extension factor. The trace
// generator is derived by raising the evaluation domain's generator to the
// extensionFactor power rather than being searched for independently, so
// that the trace domain is exactly the size-steps subgroup of the
// evaluation domain: stepping one trace row forward always corresponds to
// advancing extensionFactor positions in the evaluation domain.
func DeriveProofDomains(field *core.Field, steps, extensionFactor int) (*ProofDomains, error) {
	if !utils.IsPowerOfTwo(steps) {
		return nil, fmt.Errorf("steps must be a power of 2, got %d", steps)
	}
	if !utils.IsPowerOfTwo(extensionFactor) {
		return nil, fmt.Errorf("extension factor must be a power of 2, got %d", extensionFactor)
	}

	evaluationLength := steps * extensionFactor
	evaluation, err := NewArithmeticDomain(field, evaluationLength)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation domain: %w", err)
	}

	traceGenerator := evaluation.Generator.Exp(big.NewInt(int64(extensionFactor)))
	trace := &ArithmeticDomain{Offset: field.One(), Generator: traceGenerator, Length: steps}

	return &ProofDomains{Trace: trace, Evaluation: evaluation}, nil
}
