package protocols

import (
	"fmt"

	"github.com/vybium/stark-core/internal/starkcore/core"
)

// StepFunction advances one trace row to the next, given the round
// constants active for this step. It returns a width-w vector.
type StepFunction func(field *core.Field, current []*core.FieldElement, constants []*core.FieldElement) ([]*core.FieldElement, error)

// BoundaryConstraint pins the value of one trace column at one step: the
// tuple (step, column, value) checked by the boundary quotient.
type BoundaryConstraint struct {
	Step   int
	Column int
	Value  *core.FieldElement
}

// Computation is the concrete definition of an algebraic computation: a
// width-w state vector stepped Steps-1 times from Input, optionally
// modulated by per-step round constants, together with the symbolic
// transition polynomials p_j(X_1..X_w, Y_1..Y_w, K_1..K_c) = Y_j -
// step_j(X, K) that bound the constraint degree and self-check the
// generated trace. K carries the round constants active for that step, in
// the same order Step itself receives them; a computation with no round
// constants simply has c = 0 and every TransitionPolynomials entry is over
// 2*Width variables.
type Computation struct {
	Width                 int
	Steps                 int
	Input                 []*core.FieldElement
	RoundConstants        [][]*core.FieldElement
	Step                  StepFunction
	TransitionPolynomials []*core.MultivariatePolynomial
}

// ConstantsWidth returns the number of round-constant variables K each
// transition polynomial must carry: the width of one row of RoundConstants,
// or 0 if the computation defines none.
func (c *Computation) ConstantsWidth() int {
	return constantsWidth(c.RoundConstants)
}

// AIR holds the execution trace generated from a Computation together with
// the boundary constraints it must satisfy.
type AIR struct {
	field       *core.Field
	computation *Computation
	trace       [][]*core.FieldElement
	boundary    []BoundaryConstraint
}

// NewAIR generates the execution trace by iterating Computation.Step, then
// derives the boundary constraints: the input pinned at step 0, and (when
// output is non-nil) the expected output pinned at the final step.
func NewAIR(field *core.Field, computation *Computation, output []*core.FieldElement) (*AIR, error) {
	if computation.Width <= 0 {
		return nil, fmt.Errorf("computation width must be positive")
	}
	if computation.Steps <= 0 || computation.Steps&(computation.Steps-1) != 0 {
		return nil, fmt.Errorf("computation steps must be a power of two, got %d", computation.Steps)
	}
	if len(computation.Input) != computation.Width {
		return nil, fmt.Errorf("input width mismatch: expected %d, got %d", computation.Width, len(computation.Input))
	}
	if len(computation.TransitionPolynomials) != computation.Width {
		return nil, fmt.Errorf("expected %d transition polynomials, got %d", computation.Width, len(computation.TransitionPolynomials))
	}
	cw := computation.ConstantsWidth()
	for j, poly := range computation.TransitionPolynomials {
		if poly.NumVars() != 2*computation.Width+cw {
			return nil, fmt.Errorf("transition polynomial %d must be over %d variables, got %d", j, 2*computation.Width+cw, poly.NumVars())
		}
	}

	trace := make([][]*core.FieldElement, computation.Steps)
	trace[0] = append([]*core.FieldElement(nil), computation.Input...)

	for i := 1; i < computation.Steps; i++ {
		var constants []*core.FieldElement
		if len(computation.RoundConstants) > 0 {
			constants = computation.RoundConstants[(i-1)%len(computation.RoundConstants)]
		}
		next, err := computation.Step(field, trace[i-1], constants)
		if err != nil {
			return nil, fmt.Errorf("step function failed at row %d: %w", i, err)
		}
		if len(next) != computation.Width {
			return nil, fmt.Errorf("step function returned width %d at row %d, expected %d", len(next), i, computation.Width)
		}
		trace[i] = next
	}

	boundary := make([]BoundaryConstraint, 0, 2*computation.Width)
	for j := 0; j < computation.Width; j++ {
		boundary = append(boundary, BoundaryConstraint{Step: 0, Column: j, Value: computation.Input[j]})
	}
	if output != nil {
		if len(output) != computation.Width {
			return nil, fmt.Errorf("output width mismatch: expected %d, got %d", computation.Width, len(output))
		}
		for j := 0; j < computation.Width; j++ {
			boundary = append(boundary, BoundaryConstraint{Step: computation.Steps - 1, Column: j, Value: output[j]})
		}
	}

	air := &AIR{field: field, computation: computation, trace: trace, boundary: boundary}

	if err := air.checkTransitionConstraints(); err != nil {
		return nil, err
	}

	return air, nil
}

// checkTransitionConstraints re-evaluates every transition polynomial at
// every consecutive row pair. This is a debug consistency check between the
// supplied step function and its symbolic description; it never appears in
// the proof itself.
func (air *AIR) checkTransitionConstraints() error {
	w := air.computation.Width
	cw := air.computation.ConstantsWidth()
	args := make([]*core.FieldElement, 2*w+cw)
	for i := 0; i < len(air.trace)-1; i++ {
		copy(args[:w], air.trace[i])
		copy(args[w:2*w], air.trace[i+1])
		if cw > 0 {
			copy(args[2*w:], air.computation.RoundConstants[i%len(air.computation.RoundConstants)])
		}

		for j, poly := range air.computation.TransitionPolynomials {
			value, err := poly.Evaluate(args)
			if err != nil {
				return fmt.Errorf("failed to evaluate transition polynomial %d at row %d: %w", j, i, err)
			}
			if !value.IsZero() {
				return fmt.Errorf("transition constraint %d violated between row %d and %d", j, i, i+1)
			}
		}
	}
	return nil
}

// Trace returns the generated execution trace, Steps rows of Width columns.
func (air *AIR) Trace() [][]*core.FieldElement {
	return air.trace
}

// Column extracts a single state column across every trace row.
func (air *AIR) Column(j int) ([]*core.FieldElement, error) {
	if j < 0 || j >= air.computation.Width {
		return nil, fmt.Errorf("column %d out of range [0, %d)", j, air.computation.Width)
	}
	column := make([]*core.FieldElement, len(air.trace))
	for i, row := range air.trace {
		column[i] = row[j]
	}
	return column, nil
}

// BoundaryConstraints returns the (step, column, value) triples the proof
// must satisfy.
func (air *AIR) BoundaryConstraints() []BoundaryConstraint {
	return air.boundary
}

// Width returns the trace's state vector width w.
func (air *AIR) Width() int {
	return air.computation.Width
}

// Steps returns the trace length T (a power of two).
func (air *AIR) Steps() int {
	return air.computation.Steps
}

// TransitionPolynomials returns the symbolic p_j(X, Y) = Y_j - step_j(X)
// constraints, one per state column.
func (air *AIR) TransitionPolynomials() []*core.MultivariatePolynomial {
	return air.computation.TransitionPolynomials
}

// RoundConstants returns the per-step round constant vectors, or nil if the
// computation has none.
func (air *AIR) RoundConstants() [][]*core.FieldElement {
	return air.computation.RoundConstants
}

// EvaluateStep evaluates the width transition polynomials at a pair of
// concrete rows (current, next) for the transition leaving row stepIndex,
// returning the per-column residual. A well-formed trace produces all
// zeros.
func (air *AIR) EvaluateStep(current, next []*core.FieldElement, stepIndex int) ([]*core.FieldElement, error) {
	w := air.computation.Width
	cw := air.computation.ConstantsWidth()
	args := make([]*core.FieldElement, 2*w+cw)
	copy(args[:w], current)
	copy(args[w:2*w], next)
	if cw > 0 {
		copy(args[2*w:], air.computation.RoundConstants[stepIndex%len(air.computation.RoundConstants)])
	}

	residuals := make([]*core.FieldElement, w)
	for j, poly := range air.computation.TransitionPolynomials {
		value, err := poly.Evaluate(args)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate transition polynomial %d: %w", j, err)
		}
		residuals[j] = value
	}
	return residuals, nil
}
