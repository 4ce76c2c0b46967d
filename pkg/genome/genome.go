// Package genome defines the coefficient vector searched by the evolutionary
// runtime and the variation operators that act on it. All operators enforce the
// per-gene legal ranges; callers never see an out-of-bounds gene.
package genome

import (
	"math"
	"math/rand"
)

// Gene indices into a Chromosome. The first four are Lagrangian operator
// coefficients, the last two are the electromagnetic and gravitational
// couplings.
const (
	GeneC0 = iota // (d_t phi)^2 kinetic term
	GeneC1        // (d_x phi)^2 gradient term
	GeneC2        // phi^2 mass term
	GeneC3        // phi^4 self-interaction term
	GeneEM        // electromagnetic coupling
	GeneXi        // gravitational (non-minimal) coupling
)

// NumGenes is the fixed chromosome length.
const NumGenes = 6

// Chromosome is one candidate coefficient vector. Value semantics: assignment
// copies, so individuals never alias each other's genes.
type Chromosome [NumGenes]float64

// Bound is the legal range for a single gene.
type Bound struct {
	Lo, Hi float64
}

// Bounds holds the fixed legal range per gene. Mutation, crossover and
// reseeding all clamp into these after every other step.
var Bounds = [NumGenes]Bound{
	GeneC0: {-2.0, 2.0},
	GeneC1: {-2.0, 2.0},
	GeneC2: {-1.0, 1.0},
	GeneC3: {-1.0, 1.0},
	GeneEM: {-1.0, 1.0},
	GeneXi: {-1.0, 1.0},
}

// Clamp forces every gene into its legal range, in place.
func (c *Chromosome) Clamp() {
	for i := range c {
		if c[i] < Bounds[i].Lo {
			c[i] = Bounds[i].Lo
		} else if c[i] > Bounds[i].Hi {
			c[i] = Bounds[i].Hi
		}
	}
}

// ApplyLock enforces the locked-mode constraint gEM = c3. Applied after every
// operator when the lock is active, so it always wins over mutation output.
func (c *Chromosome) ApplyLock() {
	c[GeneEM] = c[GeneC3]
}

// IsFinite reports whether every gene is a finite number.
func (c Chromosome) IsFinite() bool {
	for _, g := range c {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return false
		}
	}
	return true
}

// Random returns a chromosome drawn from the legal ranges with a prior toward
// the physically plausible region: most draws get the causal sign pattern
// (c0 < 0 < c1), half are seeded near the isotropic dispersion point, and half
// get small couplings. Nothing is forced; the tails still cover the full
// ranges.
func Random(rng *rand.Rand) Chromosome {
	var c Chromosome
	for i := range c {
		b := Bounds[i]
		c[i] = b.Lo + rng.Float64()*(b.Hi-b.Lo)
	}

	if rng.Float64() < 0.8 {
		c[GeneC0] = -math.Abs(c[GeneC0])
		c[GeneC1] = math.Abs(c[GeneC1])
	}

	if rng.Float64() < 0.5 {
		// Near-isotropic: c1 ≈ -c0 puts the propagation speed near target.
		c[GeneC1] = -c[GeneC0] * (1 + rng.NormFloat64()*0.005)
	}

	if rng.Float64() < 0.5 {
		c[GeneEM] *= 0.01
		c[GeneXi] *= 0.01
	}

	c.Clamp()
	return c
}

// Crossover performs single-point crossover at a uniform cut in [1, NumGenes-1]
// with probability rate; otherwise the children are plain copies of the
// parents. Children are always fresh values, never aliases.
func Crossover(rng *rand.Rand, a, b Chromosome, rate float64, locked bool) (Chromosome, Chromosome) {
	child1, child2 := a, b

	if rng.Float64() < rate {
		cut := 1 + rng.Intn(NumGenes-1)
		for i := cut; i < NumGenes; i++ {
			child1[i], child2[i] = child2[i], child1[i]
		}
	}

	child1.Clamp()
	child2.Clamp()
	if locked {
		child1.ApplyLock()
		child2.ApplyLock()
	}

	return child1, child2
}
