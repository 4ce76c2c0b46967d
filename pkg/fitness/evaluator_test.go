package fitness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/physics"
)

// exactChromosome hits all three targets: c^2 = 1 and both couplings zero.
func exactChromosome() genome.Chromosome {
	return genome.Chromosome{-0.5, 0.5, 0.1, 0.05, 0, 0}
}

func TestEvaluateExactTargets(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())

	cand := e.Evaluate(exactChromosome(), 0, false, false)

	assert.InDelta(t, 0, cand.DeltaAlpha, 1e-15)
	assert.InDelta(t, 0, cand.DeltaG, 1e-15)
	assert.InDelta(t, 0, cand.DeltaC, 1e-9)
	assert.InDelta(t, physics.AlphaTarget, cand.AlphaModel, 1e-18)
	assert.InDelta(t, physics.GTarget, cand.GModel, 1e-24)
	assert.InDelta(t, math.Sqrt(2), cand.Phi0, 1e-15)

	// Nothing left but shape and elegance terms.
	require.True(t, cand.Valid())
	assert.Less(t, math.Abs(cand.Fitness), 0.05)
	assert.Greater(t, cand.Elegance, 0.0)
}

func TestEvaluateIdempotent(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())
	ch := exactChromosome()

	first := e.Evaluate(ch, 3, false, false)
	second := e.Evaluate(ch, 3, false, false)

	assert.Equal(t, first, second, "bit-identical genes must yield a bit-identical candidate")
	assert.Equal(t, 1, e.CacheSize())
}

func TestEvaluateGateMonotonicity(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())

	// c^2 = 2*c1 with c0 = -0.5, so c1 = 0.5001 puts deltaC near 1e-4:
	// between the strict (1e-6) and relaxed (1e-2) tolerances.
	ch := genome.Chromosome{-0.5, 0.5001, 0.1, 0.05, 0, 0}

	relaxed := e.Evaluate(ch, 5, false, false)
	require.Greater(t, relaxed.DeltaC, DefaultGateSchedule().StrictEpsC)
	require.Less(t, relaxed.DeltaC, DefaultGateSchedule().RelaxedEpsC)
	assert.True(t, relaxed.Valid(), "relaxed gate must pass at generation 5")

	strict := e.Evaluate(ch, 150, false, false)
	assert.Equal(t, KnockoutFitness, strict.Fitness, "strict gate must knock out at generation 150")
	assert.False(t, strict.Valid())
}

func TestEvaluateRecoveryModeForcesRelaxedGate(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())
	ch := genome.Chromosome{-0.5, 0.5001, 0.1, 0.05, 0, 0}

	cand := e.Evaluate(ch, 150, true, false)
	assert.True(t, cand.Valid())
}

func TestGhostPenaltyAppliesRegardlessOfOtherGenes(t *testing.T) {
	ghosts := []genome.Chromosome{
		{0.5, 0.5, 0.1, 0.05, 0, 0},
		{0.5, 0.5, -0.3, 0.9, 0.2, -0.1},
		{-0.5, -0.5, 0.1, 0.05, 0, 0},
	}
	for _, ch := range ghosts {
		p := shapePenalty(ch)
		assert.GreaterOrEqual(t, p, penaltyGhost, "same-sign kinetic genes must carry the ghost penalty")
	}

	clean := shapePenalty(exactChromosome())
	assert.Less(t, clean, penaltyGhost)
}

func TestEvaluateDegenerateKineticGene(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())
	ch := genome.Chromosome{0, 0.5, 0.1, 0.05, 0, 0}

	cand := e.Evaluate(ch, 0, false, false)
	assert.Equal(t, 1.0, cand.DeltaC)
	assert.Equal(t, KnockoutFitness, cand.Fitness, "deltaC saturates past any tolerance")
}

func TestEvaluateUnstableCouplingKeepsCandidate(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())
	// xi*phi0^2 = 1.8 violates the stability margin.
	ch := genome.Chromosome{-0.5, 0.5, 0.1, 0.05, 0, 0.9}

	cand := e.Evaluate(ch, 0, false, false)
	assert.Negative(t, cand.GModel)
	assert.Equal(t, KnockoutFitness, cand.Fitness)
	assert.Equal(t, ch, cand.Genes, "knocked-out candidates are kept, not discarded")
}

func TestEvaluateLockedModeUsesC3(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())
	// gEM would miss alpha badly; locked mode reads the much smaller c3.
	ch := genome.Chromosome{-0.5, 0.5, 0.1, 0.001, 0.9, 0}

	locked := e.Evaluate(ch, 0, false, true)
	unlocked := e.Evaluate(ch, 0, false, false)

	assert.Less(t, locked.DeltaAlpha, unlocked.DeltaAlpha)
}

func TestCacheClearedAtCapacity(t *testing.T) {
	e := NewEvaluator(DefaultGateSchedule())
	e.cache = make(map[string]Candidate)
	for i := 0; i < 10; i++ {
		e.cache[cacheKey(genome.Chromosome{float64(i)}, i, false, false)] = Candidate{}
	}

	// Force the bound low by filling to the real cap is too slow; exercise
	// store directly.
	e.store("overflow", Candidate{})
	assert.LessOrEqual(t, e.CacheSize(), cacheCap)
}

func TestAnisotropyPenaltyRegimes(t *testing.T) {
	assert.Zero(t, anisotropyPenalty(1e-13))
	assert.InDelta(t, 1e-5, anisotropyPenalty(1e-9), 1e-12)
	assert.Greater(t, anisotropyPenalty(1e-6), anisotropyPenalty(1e-8))
	assert.Greater(t, anisotropyPenalty(1.0), 10.0)
}

func TestCandidateValid(t *testing.T) {
	good := Candidate{Fitness: 0.5, Genes: exactChromosome()}
	assert.True(t, good.Valid())

	knocked := Candidate{Fitness: KnockoutFitness, Genes: exactChromosome()}
	assert.False(t, knocked.Valid())

	nanFit := Candidate{Fitness: math.NaN(), Genes: exactChromosome()}
	assert.False(t, nanFit.Valid())

	badGenes := good
	badGenes.Genes[2] = math.Inf(1)
	assert.False(t, badGenes.Valid())
}

func TestSaturatedCandidate(t *testing.T) {
	cand := saturatedCandidate(exactChromosome(), 7)
	assert.Equal(t, KnockoutFitness, cand.Fitness)
	assert.Equal(t, 1.0, cand.DeltaC)
	assert.Equal(t, 1.0, cand.DeltaAlpha)
	assert.Equal(t, 1.0, cand.DeltaG)
	assert.Equal(t, 7, cand.Generation)
	assert.False(t, cand.Valid())
}
