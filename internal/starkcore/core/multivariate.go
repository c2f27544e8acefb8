package core

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MultivariatePolynomial is a sparse polynomial in NumVars variables,
// represented as a map from an exponent tuple to its coefficient. It is used
// to describe transition constraints p_j(X_1..X_w, Y_1..Y_w) symbolically:
// a step relation Y_j = step_j(X) becomes the polynomial Y_j - step_j(X),
// which the prover and verifier check evaluates to zero at every pair of
// consecutive trace rows.
type MultivariatePolynomial struct {
	field   *Field
	numVars int
	terms   map[string]*FieldElement
}

// NewMultivariatePolynomial returns the zero polynomial in numVars variables.
func NewMultivariatePolynomial(field *Field, numVars int) *MultivariatePolynomial {
	return &MultivariatePolynomial{field: field, numVars: numVars, terms: make(map[string]*FieldElement)}
}

// NumVars returns the number of variables the polynomial is defined over.
func (mp *MultivariatePolynomial) NumVars() int {
	return mp.numVars
}

func encodeExponents(exponents []int) string {
	parts := make([]string, len(exponents))
	for i, e := range exponents {
		parts[i] = strconv.Itoa(e)
	}
	return strings.Join(parts, ",")
}

func decodeExponents(key string) []int {
	parts := strings.Split(key, ",")
	exponents := make([]int, len(parts))
	for i, p := range parts {
		v, _ := strconv.Atoi(p)
		exponents[i] = v
	}
	return exponents
}

// AddTerm adds coeff * prod(var_i ^ exponents[i]) into the polynomial,
// combining with any existing term of the same exponent tuple.
func (mp *MultivariatePolynomial) AddTerm(coeff *FieldElement, exponents []int) error {
	if len(exponents) != mp.numVars {
		return fmt.Errorf("expected %d exponents, got %d", mp.numVars, len(exponents))
	}
	key := encodeExponents(exponents)
	if existing, ok := mp.terms[key]; ok {
		sum := existing.Add(coeff)
		if sum.IsZero() {
			delete(mp.terms, key)
		} else {
			mp.terms[key] = sum
		}
	} else if !coeff.IsZero() {
		mp.terms[key] = coeff
	}
	return nil
}

// Variable returns the monomial X_index: the single variable at index,
// degree 1, coefficient 1.
func Variable(field *Field, numVars, index int) (*MultivariatePolynomial, error) {
	if index < 0 || index >= numVars {
		return nil, fmt.Errorf("variable index %d out of range [0, %d)", index, numVars)
	}
	mp := NewMultivariatePolynomial(field, numVars)
	exponents := make([]int, numVars)
	exponents[index] = 1
	mp.terms[encodeExponents(exponents)] = field.One()
	return mp, nil
}

// MultivariateConstant returns the constant polynomial equal to value.
func MultivariateConstant(field *Field, numVars int, value *FieldElement) *MultivariatePolynomial {
	mp := NewMultivariatePolynomial(field, numVars)
	if !value.IsZero() {
		mp.terms[encodeExponents(make([]int, numVars))] = value
	}
	return mp
}

// Add returns mp + other.
func (mp *MultivariatePolynomial) Add(other *MultivariatePolynomial) (*MultivariatePolynomial, error) {
	if mp.numVars != other.numVars {
		return nil, fmt.Errorf("variable count mismatch: %d vs %d", mp.numVars, other.numVars)
	}
	result := NewMultivariatePolynomial(mp.field, mp.numVars)
	for k, v := range mp.terms {
		result.terms[k] = v
	}
	for k, v := range other.terms {
		if existing, ok := result.terms[k]; ok {
			sum := existing.Add(v)
			if sum.IsZero() {
				delete(result.terms, k)
			} else {
				result.terms[k] = sum
			}
		} else {
			result.terms[k] = v
		}
	}
	return result, nil
}

// Sub returns mp - other.
func (mp *MultivariatePolynomial) Sub(other *MultivariatePolynomial) (*MultivariatePolynomial, error) {
	if mp.numVars != other.numVars {
		return nil, fmt.Errorf("variable count mismatch: %d vs %d", mp.numVars, other.numVars)
	}
	negated := NewMultivariatePolynomial(other.field, other.numVars)
	for k, v := range other.terms {
		negated.terms[k] = v.Neg()
	}
	return mp.Add(negated)
}

// MulScalar returns mp scaled by a constant factor.
func (mp *MultivariatePolynomial) MulScalar(factor *FieldElement) *MultivariatePolynomial {
	result := NewMultivariatePolynomial(mp.field, mp.numVars)
	for k, v := range mp.terms {
		scaled := v.Mul(factor)
		if !scaled.IsZero() {
			result.terms[k] = scaled
		}
	}
	return result
}

// Degree returns the maximum total degree across all terms (0 for the zero
// polynomial).
func (mp *MultivariatePolynomial) Degree() int {
	maxDegree := 0
	for key := range mp.terms {
		total := 0
		for _, e := range decodeExponents(key) {
			total += e
		}
		if total > maxDegree {
			maxDegree = total
		}
	}
	return maxDegree
}

// Evaluate substitutes args (one value per variable) into the polynomial.
func (mp *MultivariatePolynomial) Evaluate(args []*FieldElement) (*FieldElement, error) {
	if len(args) != mp.numVars {
		return nil, fmt.Errorf("expected %d arguments, got %d", mp.numVars, len(args))
	}

	result := mp.field.Zero()
	for key, coeff := range mp.terms {
		term := coeff
		for i, e := range decodeExponents(key) {
			if e == 0 {
				continue
			}
			term = term.Mul(args[i].Exp(big.NewInt(int64(e))))
		}
		result = result.Add(term)
	}
	return result, nil
}
