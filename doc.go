// Package lagrangia searches for the coefficients of a scalar-field Lagrangian
// whose derived observables reproduce the measured speed of light, the
// fine-structure constant and Newton's gravitational constant.
//
// The search is a population-based evolutionary loop over a six-gene
// coefficient vector. Hard physical constraints (causal propagation, real
// vacuum, gravitational stability) act as a progressive knockout gate; soft
// penalties and an elegance bonus shape the fitness landscape inside the
// feasible region.
//
// Key packages:
//
//   - genome: the coefficient vector, its legal ranges, and the variation
//     operators (seeded random draw, single-point crossover, class-aware and
//     guided mutation).
//
//   - physics: the derived observables. Dispersion speed, vacuum expectation
//     value, effective fine-structure constant, effective gravitational
//     constant, anisotropy and ghost checks.
//
//   - fitness: candidate evaluation. The progressive constraint gate, penalty
//     terms, elegance scoring and a memoizing evaluator safe for concurrent
//     use.
//
//   - evolution: the run controller. Parallel batch evaluation, tournament
//     selection with a precision-regime bias, elitism with coupling-diversity
//     enforcement, escalating stagnation recovery, a hall-of-fame archive and
//     the generation-update stream.
//
//   - persistence: SQLite checkpointing and per-generation history.
//
//   - export: Parquet export of run histories.
//
//   - config: YAML configuration with validation.
//
// Minimal usage:
//
//	ctrl := evolution.NewController()
//	if err := ctrl.Start(ctx, evolution.DefaultParams()); err != nil {
//	    log.Fatal(err)
//	}
//	for u := range ctrl.Updates() {
//	    if u.Best != nil {
//	        fmt.Printf("gen %d: %d alpha digits\n", u.Generation, u.DigitsAlpha)
//	    }
//	    if u.Status != evolution.StatusRunning {
//	        break
//	    }
//	}
package lagrangia
