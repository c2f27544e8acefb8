// Command starkcore-prove generates and verifies a STARK proof for one of
// the package's example computations.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vybium/stark-core/internal/starkcore/core"
	"github.com/vybium/stark-core/pkg/starkcore"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

func main() {
	var (
		computationName string
		logSteps        int
		extensionFactor int
		spotChecks      int
		hashFunction    string
	)

	cmd := &cobra.Command{
		Use:   "starkcore-prove",
		Short: "Prove and verify an example computation's execution trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(computationName, logSteps, extensionFactor, spotChecks, hashFunction)
		},
	}

	cmd.Flags().StringVar(&computationName, "computation", "fibonacci", "example computation to run: fibonacci or counter")
	cmd.Flags().IntVar(&logSteps, "log2-steps", 6, "log2 of the number of execution steps")
	cmd.Flags().IntVar(&extensionFactor, "extension-factor", 8, "low-degree-extension blowup factor, must be a power of two")
	cmd.Flags().IntVar(&spotChecks, "spot-checks", 40, "number of spot-check positions sampled from the combined codeword")
	cmd.Flags().StringVar(&hashFunction, "hash", "sha3", "hash function: sha256, sha3, or blake2b")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(computationName string, logSteps, extensionFactor, spotChecks int, hashFunction string) error {
	steps := 1 << logSteps

	config := starkcore.DefaultConfig()
	config.ExtensionFactor = extensionFactor
	config.SpotCheckSecurityFactor = spotChecks
	config.HashFunction = hashFunction

	field, err := starkcore.NewField(config)
	if err != nil {
		return fmt.Errorf("failed to construct field: %w", err)
	}

	var computation *starkcore.Computation
	var output []*starkcore.FieldElement

	switch computationName {
	case "fibonacci":
		config.Width = 2
		computation, output = fibonacciComputation(field, steps)
	case "counter":
		config.Width = 1
		computation, output = counterComputation(field, steps)
	default:
		return fmt.Errorf("unknown computation %q (expected fibonacci or counter)", computationName)
	}

	log.Info().Str("computation", computationName).Int("steps", steps).Msg("building execution trace")
	air, err := starkcore.BuildTrace(field, computation, output)
	if err != nil {
		return fmt.Errorf("failed to build execution trace: %w", err)
	}

	log.Info().Msg("proving")
	started := time.Now()
	proof, err := starkcore.Prove(config, air)
	if err != nil {
		return fmt.Errorf("proving failed: %w", err)
	}
	log.Info().
		Dur("elapsed", time.Since(started)).
		Int("proof_bytes", proof.Size()).
		Int("spot_checks", len(proof.Positions)).
		Msg("proof generated")

	shape := &starkcore.ComputationShape{
		Width:                 computation.Width,
		Steps:                 computation.Steps,
		Input:                 computation.Input,
		Output:                output,
		TransitionPolynomials: computation.TransitionPolynomials,
	}

	log.Info().Msg("verifying")
	started = time.Now()
	if err := starkcore.Verify(config, proof, shape); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(started)).Msg("verification succeeded")

	fmt.Println(proof.String())
	return nil
}

// fibonacciComputation builds a width-2 Fibonacci computation: state (a, b)
// steps to (b, a+b), starting from (1, 1).
func fibonacciComputation(field *core.Field, steps int) (*starkcore.Computation, []*starkcore.FieldElement) {
	x0, err := core.Variable(field, 4, 0)
	failOnBuildErr(err)
	x1, err := core.Variable(field, 4, 1)
	failOnBuildErr(err)
	y0, err := core.Variable(field, 4, 2)
	failOnBuildErr(err)
	y1, err := core.Variable(field, 4, 3)
	failOnBuildErr(err)

	p0, err := y0.Sub(x1)
	failOnBuildErr(err)
	sum, err := x0.Add(x1)
	failOnBuildErr(err)
	p1, err := y1.Sub(sum)
	failOnBuildErr(err)

	step := func(field *core.Field, current []*core.FieldElement, constants []*core.FieldElement) ([]*core.FieldElement, error) {
		a, b := current[0], current[1]
		return []*core.FieldElement{b, a.Add(b)}, nil
	}

	one := field.One()
	computation := &starkcore.Computation{
		Width:                 2,
		Steps:                 steps,
		Input:                 []*core.FieldElement{one, one},
		Step:                  step,
		TransitionPolynomials: []*core.MultivariatePolynomial{p0, p1},
	}

	trace := runTrace(field, computation)
	return computation, trace[len(trace)-1]
}

// counterComputation builds a width-1 computation stepping x -> x+1.
func counterComputation(field *core.Field, steps int) (*starkcore.Computation, []*starkcore.FieldElement) {
	x0, err := core.Variable(field, 2, 0)
	failOnBuildErr(err)
	y0, err := core.Variable(field, 2, 1)
	failOnBuildErr(err)
	xPlusOne, err := x0.Add(core.MultivariateConstant(field, 2, field.One()))
	failOnBuildErr(err)
	p0, err := y0.Sub(xPlusOne)
	failOnBuildErr(err)

	step := func(field *core.Field, current []*core.FieldElement, constants []*core.FieldElement) ([]*core.FieldElement, error) {
		return []*core.FieldElement{current[0].Add(field.One())}, nil
	}

	computation := &starkcore.Computation{
		Width:                 1,
		Steps:                 steps,
		Input:                 []*core.FieldElement{field.Zero()},
		Step:                  step,
		TransitionPolynomials: []*core.MultivariatePolynomial{p0},
	}

	trace := runTrace(field, computation)
	return computation, trace[len(trace)-1]
}

// runTrace executes a computation's step function to find its output,
// without yet constraining the output boundary (BuildTrace does that once
// the real output is known).
func runTrace(field *core.Field, computation *starkcore.Computation) [][]*core.FieldElement {
	trace := make([][]*core.FieldElement, computation.Steps)
	trace[0] = computation.Input
	for i := 1; i < computation.Steps; i++ {
		var constants []*core.FieldElement
		if len(computation.RoundConstants) > 0 {
			constants = computation.RoundConstants[(i-1)%len(computation.RoundConstants)]
		}
		next, err := computation.Step(field, trace[i-1], constants)
		if err != nil {
			log.Fatal().Err(err).Msg("step function failed while pre-computing output")
		}
		trace[i] = next
	}
	return trace
}

func failOnBuildErr(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build transition polynomial")
	}
}
