package genome

import (
	"math"
	"math/rand"
)

// MutationConfig carries the per-gene-class mutation parameters for one
// generation. The controller adapts these between generations.
type MutationConfig struct {
	Rate          float64 // Per-gene mutation probability
	SigmaKinetic  float64 // Gaussian sigma for c0, c1
	SigmaShape    float64 // Gaussian sigma for c2, c3
	SigmaCoupling float64 // Gaussian sigma for gEM, xi
}

// Guidance is the light-weight gradient hint derived from the current best
// candidate: signed relative errors of the two coupling-driven observables and
// the vacuum expectation value they were computed at. Not a true gradient,
// just sign and magnitude.
type Guidance struct {
	AlphaErr float64 // (alphaModel - alphaTarget) / alphaTarget, signed
	GErr     float64 // (gModel - gTarget) / gTarget, signed
	Phi0     float64 // VEV of the best candidate
	Valid    bool    // False until a best candidate exists
}

// stabilityHeadroom keeps the gravitational coupling strictly inside the
// 1 - xi*phi0^2 > 0 region when directed steps push toward the boundary.
const stabilityHeadroom = 0.95

// Mutate applies the mutation regime selected by locked to the chromosome in
// place. Gene clamping runs after all other logic; the lock constraint, when
// active, is re-applied last so it always wins.
func Mutate(rng *rand.Rand, c *Chromosome, cfg MutationConfig, guide Guidance, locked bool) {
	if locked {
		mutateLocked(rng, c, cfg, guide)
	} else {
		mutateExploratory(rng, c, cfg, guide)
	}

	c.Clamp()
	if locked {
		c.ApplyLock()
	}
}

// mutateExploratory mutates each gene independently with probability cfg.Rate.
// Magnitudes are Gaussian with class-specific sigmas; the two coupling genes
// additionally receive a directed component from the best candidate's errors.
func mutateExploratory(rng *rand.Rand, c *Chromosome, cfg MutationConfig, guide Guidance) {
	for i := range c {
		if rng.Float64() >= cfg.Rate {
			continue
		}

		switch i {
		case GeneC0, GeneC1:
			c[i] += rng.NormFloat64() * cfg.SigmaKinetic
		case GeneC2, GeneC3:
			c[i] += rng.NormFloat64() * cfg.SigmaShape
		case GeneEM:
			c[i] += rng.NormFloat64() * cfg.SigmaCoupling
			c[i] += directedStep(guide.AlphaErr, cfg.SigmaCoupling, guide.Valid)
		case GeneXi:
			c[i] += rng.NormFloat64() * cfg.SigmaCoupling
			c[i] += directedStep(guide.GErr, cfg.SigmaCoupling, guide.Valid)
		}
	}
}

// directedStep converts a signed relative observable error into a coupling
// nudge. Both observables fall as their coupling grows, so the step carries
// the error's own sign: a model above target pushes the coupling up.
func directedStep(signedErr, sigma float64, valid bool) float64 {
	if !valid || signedErr == 0 {
		return 0
	}

	magnitude := math.Min(math.Abs(signedErr), 1.0)
	return math.Copysign(magnitude*sigma, signedErr)
}

// mutateLocked replaces stochastic exploration with small deterministic nudges
// sized from the best candidate's current errors. Steps are capped at 10% of
// the error per application to avoid overshoot; only the kinetic genes keep a
// very small stochastic perturbation.
func mutateLocked(rng *rand.Rand, c *Chromosome, cfg MutationConfig, guide Guidance) {
	if guide.Valid {
		// In locked mode gEM is slaved to c3, so the alpha error steers c3.
		c[GeneC3] += cappedNudge(guide.AlphaErr, c[GeneC3])
		c[GeneXi] += cappedNudge(guide.GErr, c[GeneXi])

		// Keep xi on the stable side of 1 - xi*phi0^2 > 0.
		if guide.Phi0 > 0 {
			limit := stabilityHeadroom / (guide.Phi0 * guide.Phi0)
			if c[GeneXi] > limit {
				c[GeneXi] = limit
			}
		}
	}

	jitter := cfg.SigmaKinetic * 1e-3
	c[GeneC0] += rng.NormFloat64() * jitter
	c[GeneC1] += rng.NormFloat64() * jitter
}

// cappedNudge returns a correction toward shrinking signedErr, no larger than
// 10% of the error's magnitude scaled by the gene's own size.
func cappedNudge(signedErr, gene float64) float64 {
	if signedErr == 0 {
		return 0
	}

	scale := math.Abs(gene)
	if scale < 1e-12 {
		scale = 1e-12
	}

	step := signedErr * 0.1 * scale
	limit := 0.1 * math.Abs(signedErr)
	if math.Abs(step) > limit {
		step = math.Copysign(limit, step)
	}

	return step
}
