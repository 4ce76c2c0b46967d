package fitness

import (
	"math"

	"github.com/theoryforge/lagrangia/pkg/genome"
)

// xiMathTarget is the mathematically distinguished value the gravitational
// coupling is rewarded for approaching: 1/(8*pi), the conformal-style
// normalization of the non-minimal coupling term.
var xiMathTarget = 1 / (8 * math.Pi)

// simpleRatios are the gene-ratio values considered "elegant".
var simpleRatios = []float64{0.25, 1.0 / 3.0, 0.5, 1, 2, 3, 4}

// elegance scores how aesthetically simple a chromosome is: closeness of xi to
// its mathematical target, a small-coupling bonus, and simple-ratio bonuses
// between the shape and kinetic gene pairs. Range roughly [0, 4].
func elegance(c genome.Chromosome) float64 {
	score := 1 / (1 + 100*math.Abs(c[genome.GeneXi]-xiMathTarget))
	score += 1 / (1 + 10*math.Abs(c[genome.GeneEM]))

	if c[genome.GeneC3] != 0 {
		score += ratioBonus(c[genome.GeneC2] / c[genome.GeneC3])
	}
	if c[genome.GeneC0] != 0 {
		score += ratioBonus(-c[genome.GeneC1] / c[genome.GeneC0])
	}

	return score
}

// ratioBonus rewards ratios close to small integers and simple fractions.
func ratioBonus(r float64) float64 {
	best := math.Inf(1)
	for _, s := range simpleRatios {
		if d := math.Abs(r - s); d < best {
			best = d
		}
	}
	return 1 / (1 + 50*best)
}
