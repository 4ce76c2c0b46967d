package evolution

import (
	"math"
	"math/rand"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/physics"
)

const (
	tournamentSize = 3

	// In the precision regime this fraction of tournaments prefers the
	// candidate whose alpha observable is closest to target, independent of
	// overall fitness ranking.
	precisionTournamentBias = 0.7

	// couplingDigits is the rounding precision used to detect duplicate
	// coupling-gene values during diversity enforcement.
	couplingDigits = 12

	// maxCouplingShare caps the population fraction allowed to share one
	// coupling-gene value in the precision regime.
	maxCouplingShare = 0.10
)

// tournamentSelect runs a size-3 tournament over the survivors. In the
// precision regime, with probability precisionTournamentBias the tournament is
// decided by closeness of the alpha observable instead of fitness.
func tournamentSelect(rng *rand.Rand, survivors []fitness.Candidate, precisionRegime bool) fitness.Candidate {
	best := survivors[rng.Intn(len(survivors))]
	byAlpha := precisionRegime && rng.Float64() < precisionTournamentBias

	for i := 1; i < tournamentSize; i++ {
		challenger := survivors[rng.Intn(len(survivors))]
		if byAlpha {
			if alphaDistance(challenger) < alphaDistance(best) {
				best = challenger
			}
		} else if challenger.Fitness < best.Fitness {
			best = challenger
		}
	}

	return best
}

func alphaDistance(c fitness.Candidate) float64 {
	return math.Abs(c.AlphaModel - physics.AlphaTarget)
}

// roundCoupling buckets a coupling gene to couplingDigits decimal digits.
func roundCoupling(g float64) float64 {
	scale := math.Pow(10, couplingDigits)
	return math.Round(g*scale) / scale
}

// enforceCouplingDiversity perturbs individuals so that no more than
// maxCouplingShare of the population shares an identical (to couplingDigits)
// coupling-gene value. Offenders receive a microscopic unique perturbation.
func enforceCouplingDiversity(rng *rand.Rand, population []genome.Chromosome, locked bool) {
	limit := int(float64(len(population)) * maxCouplingShare)
	if limit < 1 {
		limit = 1
	}

	seen := make(map[float64]int, len(population))
	for i := range population {
		key := roundCoupling(population[i][genome.GeneEM])
		seen[key]++
		if seen[key] <= limit {
			continue
		}

		// Unique nudge: index-dependent so two offenders never collide.
		population[i][genome.GeneEM] += (1 + float64(i)) * 1e-12 * (1 + rng.Float64())
		population[i].Clamp()
		if locked {
			population[i].ApplyLock()
		}
	}
}

// distinctTopK copies the top candidates and forces pairwise-distinct alpha
// observables via small systematic offsets, so the archive and report layers
// never display duplicate "best" equations.
func distinctTopK(ranked []fitness.Candidate, k int) []fitness.Candidate {
	if k > len(ranked) {
		k = len(ranked)
	}

	top := make([]fitness.Candidate, k)
	copy(top, ranked[:k])

	seen := make(map[float64]int, k)
	for i := range top {
		n := seen[top[i].AlphaModel]
		seen[top[i].AlphaModel] = n + 1
		if n > 0 {
			top[i].AlphaModel += float64(n) * 1e-15 * physics.AlphaTarget
		}
	}

	return top
}

// uniqueElites copies the top eliteCount candidates forward. In the precision
// regime, elites are additionally filtered for coupling-gene uniqueness:
// duplicates are replaced by perturbed variants of the top unique elite.
func uniqueElites(rng *rand.Rand, ranked []fitness.Candidate, eliteCount int, precisionRegime, locked bool) []genome.Chromosome {
	if eliteCount > len(ranked) {
		eliteCount = len(ranked)
	}

	elites := make([]genome.Chromosome, 0, eliteCount)
	if !precisionRegime {
		for i := 0; i < eliteCount; i++ {
			elites = append(elites, ranked[i].Genes)
		}
		return elites
	}

	seen := make(map[float64]bool, eliteCount)
	for i := 0; i < len(ranked) && len(elites) < eliteCount; i++ {
		key := roundCoupling(ranked[i].Genes[genome.GeneEM])
		if seen[key] {
			continue
		}
		seen[key] = true
		elites = append(elites, ranked[i].Genes)
	}

	// Fill any shortfall with perturbed variants of the best unique elite.
	for len(elites) < eliteCount && len(elites) > 0 {
		variant := elites[0]
		variant[genome.GeneEM] += (1 + float64(len(elites))) * 1e-11 * (1 + rng.Float64())
		variant.Clamp()
		if locked {
			variant.ApplyLock()
		}
		elites = append(elites, variant)
	}

	return elites
}
