package protocols

import (
	"fmt"

	"github.com/vybium/stark-core/internal/starkcore/core"
)

// constantsWidth returns the number of round-constant columns a cycle
// carries: the width of its first row, or 0 if the cycle is empty.
func constantsWidth(roundConstants [][]*core.FieldElement) int {
	if len(roundConstants) == 0 {
		return 0
	}
	return len(roundConstants[0])
}

// tileRoundConstants repeats a round-constants cycle out to steps rows.
// cycle[i % len(cycle)] mirrors the indexing Computation.Step is itself
// called with while the trace is built, so the tiled table and the trace
// agree on which constant row backs which step.
func tileRoundConstants(cycle [][]*core.FieldElement, steps, width int) ([][]*core.FieldElement, error) {
	if len(cycle) == 0 {
		return nil, nil
	}
	if steps%len(cycle) != 0 {
		return nil, fmt.Errorf("round-constants cycle length %d must divide the trace length %d", len(cycle), steps)
	}
	tiled := make([][]*core.FieldElement, steps)
	for i := 0; i < steps; i++ {
		row := cycle[i%len(cycle)]
		if len(row) != width {
			return nil, fmt.Errorf("round-constants row %d has width %d, expected %d", i%len(cycle), len(row), width)
		}
		tiled[i] = row
	}
	return tiled, nil
}

// constantsDimension extracts one round-constant dimension across a tiled
// round-constants table, the way AIR.Column extracts one trace column.
func constantsDimension(tiled [][]*core.FieldElement, d int) []*core.FieldElement {
	dimension := make([]*core.FieldElement, len(tiled))
	for i, row := range tiled {
		dimension[i] = row[d]
	}
	return dimension
}

// interpolateConstantsPolynomials low-degree-extends each round-constants
// dimension from its declared cycle into coefficient form: the cycle is
// tiled out to the full trace length, then IFFT'd over the trace domain's
// generator, exactly the way interpolateColumns treats a trace column.
//
// This plays the role of construct_constraint_polynomial's
// constants_mini_polynomial/constants_mini_extension step, but always tiles
// to the full trace length first rather than running a second, shorter FFT
// keyed off the cycle length: the original source's sub-length FFT produces
// an extension array sized params.precision/skips2 that its own constraint
// loop then indexes as if it were sized params.precision whenever the cycle
// repeats more than once, which only happens to line up when skips2 == 1.
// Tiling first sidesteps that mismatch and gives every dimension a single
// Steps-length polynomial, valid to evaluate anywhere.
func interpolateConstantsPolynomials(field *core.Field, roundConstants [][]*core.FieldElement, steps int, traceGenerator *core.FieldElement) ([]*core.Polynomial, error) {
	width := constantsWidth(roundConstants)
	if width == 0 {
		return nil, nil
	}
	tiled, err := tileRoundConstants(roundConstants, steps, width)
	if err != nil {
		return nil, err
	}

	polys := make([]*core.Polynomial, width)
	for d := 0; d < width; d++ {
		coeffs, err := core.IFFT(constantsDimension(tiled, d), traceGenerator, field)
		if err != nil {
			return nil, fmt.Errorf("IFFT failed for round-constants dimension %d: %w", d, err)
		}
		poly, err := core.NewPolynomial(coeffs)
		if err != nil {
			return nil, err
		}
		polys[d] = poly
	}
	return polys, nil
}
