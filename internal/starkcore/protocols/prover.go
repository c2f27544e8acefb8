package protocols

import (
	"fmt"
	"math/big"

	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/internal/starkcore/utils"
)

// Prover generates STARK proofs for an algebraic computation's execution
// trace. Every quantity it derives (domains, challenges, query positions)
// is recomputed independently by Verifier from the data the proof makes
// public, so the prover carries no secret state beyond the witness itself.
type Prover struct {
	config *utils.Config
	field  *core.Field
	hash   core.HashFunc
	fri    *FRI
}

// NewProver builds a prover bound to the given configuration.
func NewProver(config *utils.Config) (*Prover, error) {
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
	return &Prover{
		config: config,
		field:  field,
		hash:   hashFn,
		fri:    NewFRI(field, hashFn, 16),
	}, nil
}

// columnCodeword is one column's trace polynomial together with its
// evaluation over the low-degree-extension domain.
type columnCodeword struct {
	poly   *core.Polynomial
	evals  []*core.FieldElement
	column int
}

// Prove runs the full proving pipeline against air: interpolate the trace,
// extend it, evaluate the transition and boundary constraints, combine
// everything into a single codeword, commit it, and attach a FRI proof plus
// the spot-check openings a verifier needs.
func (p *Prover) Prove(air *AIR) (*Proof, error) {
	if air.Width() != p.config.Width {
		return nil, fmt.Errorf("air width %d does not match configured width %d", air.Width(), p.config.Width)
	}

	domains, err := DeriveProofDomains(p.field, air.Steps(), p.config.ExtensionFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to derive proof domains: %w", err)
	}

	columns, err := p.interpolateColumns(air, domains)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate trace columns: %w", err)
	}

	dCodewords, err := p.computeConstraintQuotients(air, domains, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to compute constraint quotients: %w", err)
	}

	bCodewords, err := p.computeBoundaryQuotients(air, domains, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to compute boundary quotients: %w", err)
	}

	traceRoot, rowLeaves, err := p.commitRows(domains.Evaluation.Length, columns, dCodewords, bCodewords)
	if err != nil {
		return nil, fmt.Errorf("failed to commit trace and quotients: %w", err)
	}

	combined, err := p.combineCodewords(domains, traceRoot, columns, dCodewords, bCodewords)
	if err != nil {
		return nil, fmt.Errorf("failed to combine codewords: %w", err)
	}

	combinedTree, err := core.NewMerkleTree(fieldElementsToBytes(combined), p.hash)
	if err != nil {
		return nil, fmt.Errorf("failed to commit combined codeword: %w", err)
	}
	combinedRoot := combinedTree.Root()

	friProof, friLayers, err := p.fri.Prove(combined, domains.Evaluation, traceRoot)
	if err != nil {
		return nil, fmt.Errorf("FRI proving failed: %w", err)
	}

	transcript := utils.NewChannel(append(append([]byte{}, traceRoot...), combinedRoot...), p.hash)
	positions, err := transcript.SampleIndices(domains.Evaluation.Length, p.config.SpotCheckSecurityFactor, p.config.ExtensionFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to sample spot-check positions: %w", err)
	}

	rowTree, err := core.NewMerkleTree(rowLeaves, p.hash)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild row Merkle tree: %w", err)
	}

	spotChecks := make([]SpotCheck, len(positions))
	for i, position := range positions {
		nextPosition := (position + p.config.ExtensionFactor) % domains.Evaluation.Length

		row, err := p.openRow(rowTree, position, columns, dCodewords, bCodewords)
		if err != nil {
			return nil, fmt.Errorf("failed to open row at position %d: %w", position, err)
		}
		nextRow, err := p.openRow(rowTree, nextPosition, columns, dCodewords, bCodewords)
		if err != nil {
			return nil, fmt.Errorf("failed to open row at position %d: %w", nextPosition, err)
		}
		friOpening, err := p.fri.Open(friLayers, position)
		if err != nil {
			return nil, fmt.Errorf("failed to open FRI proof at position %d: %w", position, err)
		}

		spotChecks[i] = SpotCheck{Row: row, NextRow: nextRow, FRI: friOpening}
	}

	return &Proof{
		TraceRoot:    traceRoot,
		CombinedRoot: combinedRoot,
		Positions:    positions,
		SpotChecks:   spotChecks,
		FRIProof:     friProof,
	}, nil
}

// interpolateColumns converts each trace column from evaluations on the
// trace domain to coefficient form (via IFFT), then evaluates that
// polynomial over the larger low-degree-extension domain.
func (p *Prover) interpolateColumns(air *AIR, domains *ProofDomains) ([]columnCodeword, error) {
	columns := make([]columnCodeword, air.Width())
	for j := 0; j < air.Width(); j++ {
		values, err := air.Column(j)
		if err != nil {
			return nil, err
		}

		coeffs, err := core.IFFT(values, domains.Trace.Generator, p.field)
		if err != nil {
			return nil, fmt.Errorf("IFFT failed for column %d: %w", j, err)
		}
		poly, err := core.NewPolynomial(coeffs)
		if err != nil {
			return nil, err
		}

		evals := domains.Evaluation.Evaluate(poly)
		columns[j] = columnCodeword{poly: poly, evals: evals, column: j}
	}
	return columns, nil
}

// computeConstraintQuotients evaluates every transition polynomial
// p_j(P(x), P(x*g)) pointwise over the evaluation domain and divides by the
// trace domain's vanishing polynomial Z_H(x) = x^steps - 1. Z_H is zero
// exactly at the positions that are multiples of ExtensionFactor (the
// actual trace rows embedded in the evaluation domain); those positions are
// never sampled by the verifier, so the corresponding quotient entries are
// set to zero rather than inverted.
func (p *Prover) computeConstraintQuotients(air *AIR, domains *ProofDomains, columns []columnCodeword) ([][]*core.FieldElement, error) {
	n := domains.Evaluation.Length
	w := air.Width()
	cw := air.computation.ConstantsWidth()

	constantsPolys, err := interpolateConstantsPolynomials(p.field, air.RoundConstants(), air.Steps(), domains.Trace.Generator)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate round-constants polynomials: %w", err)
	}
	constantsEvals := make([][]*core.FieldElement, cw)
	for d := 0; d < cw; d++ {
		constantsEvals[d] = domains.Evaluation.Evaluate(constantsPolys[d])
	}

	zEvals := make([]*core.FieldElement, n)
	steps := big.NewInt(int64(air.Steps()))
	one := p.field.One()
	for i := 0; i < n; i++ {
		x := domains.Evaluation.Element(i)
		zEvals[i] = x.Exp(steps).Sub(one)
	}
	zInv, err := safeBatchInvertWithZeros(p.field, zEvals)
	if err != nil {
		return nil, fmt.Errorf("failed to invert vanishing polynomial: %w", err)
	}

	polys := air.TransitionPolynomials()
	dCodewords := make([][]*core.FieldElement, w)
	for j := 0; j < w; j++ {
		dCodewords[j] = make([]*core.FieldElement, n)
	}

	args := make([]*core.FieldElement, 2*w+cw)
	for i := 0; i < n; i++ {
		nextIndex := (i + p.config.ExtensionFactor) % n
		for j := 0; j < w; j++ {
			args[j] = columns[j].evals[i]
			args[w+j] = columns[j].evals[nextIndex]
		}
		for d := 0; d < cw; d++ {
			args[2*w+d] = constantsEvals[d][i]
		}
		for j, poly := range polys {
			c, err := poly.Evaluate(args)
			if err != nil {
				return nil, fmt.Errorf("failed to evaluate transition polynomial %d at position %d: %w", j, i, err)
			}
			dCodewords[j][i] = c.Mul(zInv[i])
		}
	}

	return dCodewords, nil
}

// computeBoundaryQuotients interpolates each column's boundary constraints
// (step, value) pairs into a low-degree polynomial, subtracts it from the
// column's trace polynomial, and divides by the vanishing polynomial of the
// constrained points. As with the transition quotient, the denominator is
// zero only at the constrained rows themselves, which are never sampled.
func (p *Prover) computeBoundaryQuotients(air *AIR, domains *ProofDomains, columns []columnCodeword) ([][]*core.FieldElement, error) {
	n := domains.Evaluation.Length
	w := air.Width()

	byColumn := make([][]BoundaryConstraint, w)
	for _, bc := range air.BoundaryConstraints() {
		byColumn[bc.Column] = append(byColumn[bc.Column], bc)
	}

	bCodewords := make([][]*core.FieldElement, w)

	for j := 0; j < w; j++ {
		constraints := byColumn[j]
		if len(constraints) == 0 {
			bCodewords[j] = make([]*core.FieldElement, n)
			for i := range bCodewords[j] {
				bCodewords[j][i] = p.field.Zero()
			}
			continue
		}

		points := make([]core.Point, len(constraints))
		roots := make([]*core.FieldElement, len(constraints))
		for k, bc := range constraints {
			x := domains.Trace.Element(bc.Step)
			points[k] = *core.NewPoint(x, bc.Value)
			roots[k] = x
		}

		var interpolant *core.Polynomial
		var err error
		if len(constraints) == 2 {
			interpolant, err = core.LagrangeInterp2(p.field, [2]*core.FieldElement{points[0].X, points[1].X}, [2]*core.FieldElement{points[0].Y, points[1].Y})
		} else {
			interpolant, err = core.LagrangeInterpolation(points, p.field)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate boundary constraints for column %d: %w", j, err)
		}

		denomPoly, err := core.Zpoly(p.field, roots)
		if err != nil {
			return nil, fmt.Errorf("failed to build boundary vanishing polynomial for column %d: %w", j, err)
		}

		denomEvals := domains.Evaluation.Evaluate(denomPoly)
		denomInv, err := safeBatchInvertWithZeros(p.field, denomEvals)
		if err != nil {
			return nil, fmt.Errorf("failed to invert boundary denominator for column %d: %w", j, err)
		}

		interpolantEvals := domains.Evaluation.Evaluate(interpolant)

		bCodewords[j] = make([]*core.FieldElement, n)
		for i := 0; i < n; i++ {
			numerator := columns[j].evals[i].Sub(interpolantEvals[i])
			bCodewords[j][i] = numerator.Mul(denomInv[i])
		}
	}

	return bCodewords, nil
}

// commitRows builds the per-position Merkle leaves packing every column's
// P, D, and B value and commits them to a single Merkle tree.
func (p *Prover) commitRows(n int, columns []columnCodeword, dCodewords, bCodewords [][]*core.FieldElement) ([]byte, [][]byte, error) {
	w := len(columns)
	leaves := make([][]byte, n)
	for i := 0; i < n; i++ {
		row := make([]*core.FieldElement, 0, 3*w)
		for j := 0; j < w; j++ {
			row = append(row, columns[j].evals[i])
		}
		for j := 0; j < w; j++ {
			row = append(row, dCodewords[j][i])
		}
		for j := 0; j < w; j++ {
			row = append(row, bCodewords[j][i])
		}
		leaves[i] = EncodeRow(row)
	}

	tree, err := core.NewMerkleTree(leaves, p.hash)
	if err != nil {
		return nil, nil, err
	}
	return tree.Root(), leaves, nil
}

// combineCodewords derives four Fiat-Shamir challenges per column from
// traceRoot and folds every column's D and B codewords, boosted by P, into
// a single bounded-degree codeword: for each column j,
// D_j + k1*P_j + k2*x^steps*P_j + k3*B_j + k4*x^steps*B_j, summed across
// columns.
func (p *Prover) combineCodewords(domains *ProofDomains, traceRoot []byte, columns []columnCodeword, dCodewords, bCodewords [][]*core.FieldElement) ([]*core.FieldElement, error) {
	n := domains.Evaluation.Length
	w := len(columns)

	xToSteps := make([]*core.FieldElement, n)
	steps := big.NewInt(int64(domains.Trace.Length))
	for i := 0; i < n; i++ {
		xToSteps[i] = domains.Evaluation.Element(i).Exp(steps)
	}

	channel := utils.NewChannel(traceRoot, p.hash)

	combined := make([]*core.FieldElement, n)
	for i := range combined {
		combined[i] = p.field.Zero()
	}

	for j := 0; j < w; j++ {
		k1 := channel.Challenge(p.field, byte(4*j))
		k2 := channel.Challenge(p.field, byte(4*j+1))
		k3 := channel.Challenge(p.field, byte(4*j+2))
		k4 := channel.Challenge(p.field, byte(4*j+3))

		for i := 0; i < n; i++ {
			term := dCodewords[j][i]
			term = term.Add(k1.Mul(columns[j].evals[i]))
			term = term.Add(k2.Mul(xToSteps[i]).Mul(columns[j].evals[i]))
			term = term.Add(k3.Mul(bCodewords[j][i]))
			term = term.Add(k4.Mul(xToSteps[i]).Mul(bCodewords[j][i]))
			combined[i] = combined[i].Add(term)
		}
	}

	return combined, nil
}

// openRow returns the Merkle opening for one evaluation-domain position,
// packing the same P/D/B values and ordering used by commitRows.
func (p *Prover) openRow(tree *core.MerkleTree, position int, columns []columnCodeword, dCodewords, bCodewords [][]*core.FieldElement) (RowOpening, error) {
	w := len(columns)
	row := make([]*core.FieldElement, 0, 3*w)
	for j := 0; j < w; j++ {
		row = append(row, columns[j].evals[position])
	}
	for j := 0; j < w; j++ {
		row = append(row, dCodewords[j][position])
	}
	for j := 0; j < w; j++ {
		row = append(row, bCodewords[j][position])
	}

	branch, err := tree.Branch(position)
	if err != nil {
		return RowOpening{}, err
	}

	return RowOpening{Position: position, Values: row, Branch: branch}, nil
}

// safeBatchInvertWithZeros inverts every nonzero element of values via
// batched inversion, leaving zero entries as zero instead of failing. Used
// for denominators that are zero only at domain positions the verifier
// never samples.
func safeBatchInvertWithZeros(field *core.Field, values []*core.FieldElement) ([]*core.FieldElement, error) {
	nonZero := make([]*core.FieldElement, 0, len(values))
	positions := make([]int, 0, len(values))
	for i, v := range values {
		if !v.IsZero() {
			nonZero = append(nonZero, v)
			positions = append(positions, i)
		}
	}

	invNonZero, err := field.BatchInversion(nonZero)
	if err != nil {
		return nil, err
	}

	result := make([]*core.FieldElement, len(values))
	for i := range result {
		result[i] = field.Zero()
	}
	for k, pos := range positions {
		result[pos] = invNonZero[k]
	}
	return result, nil
}
