package evolution

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/physics"
)

func TestTournamentSelectReturnsMember(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	survivors := []fitness.Candidate{
		{Fitness: 3.0, AlphaModel: physics.AlphaTarget * 1.5},
		{Fitness: 1.0, AlphaModel: physics.AlphaTarget * 1.2},
		{Fitness: 2.0, AlphaModel: physics.AlphaTarget * 1.1},
	}

	for i := 0; i < 100; i++ {
		winner := tournamentSelect(rng, survivors, false)
		found := false
		for _, s := range survivors {
			if s.Fitness == winner.Fitness {
				found = true
			}
		}
		require.True(t, found)
	}
}

func TestTournamentSelectFavorsFitness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	survivors := []fitness.Candidate{
		{Fitness: 10.0},
		{Fitness: 1.0},
	}

	wins := 0
	for i := 0; i < 1000; i++ {
		if tournamentSelect(rng, survivors, false).Fitness == 1.0 {
			wins++
		}
	}
	// Size-3 tournament over two candidates: the better one wins 7/8 of the
	// time in expectation.
	assert.Greater(t, wins, 700)
}

func TestTournamentSelectPrecisionBiasPrefersAlpha(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// Worse fitness but much closer alpha.
	closeAlpha := fitness.Candidate{Fitness: 5.0, AlphaModel: physics.AlphaTarget * (1 + 1e-9)}
	farAlpha := fitness.Candidate{Fitness: 1.0, AlphaModel: physics.AlphaTarget * 2}
	survivors := []fitness.Candidate{closeAlpha, farAlpha}

	alphaWins := 0
	for i := 0; i < 1000; i++ {
		if tournamentSelect(rng, survivors, true).Fitness == closeAlpha.Fitness {
			alphaWins++
		}
	}
	// 70% of tournaments are alpha-decided; the close-alpha candidate should
	// win clearly more often than its fitness rank alone would allow.
	assert.Greater(t, alphaWins, 400)
}

func TestEnforceCouplingDiversity(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	population := make([]genome.Chromosome, 100)
	for i := range population {
		population[i] = genome.Chromosome{-1, 1, 0.1, 0.05, 0.123456789, 0.01}
	}

	enforceCouplingDiversity(rng, population, false)

	counts := make(map[float64]int, len(population))
	for _, ch := range population {
		counts[roundCoupling(ch[genome.GeneEM])]++
	}
	for key, n := range counts {
		assert.LessOrEqual(t, n, 10, "coupling value %v exceeds the 10%% share cap", key)
	}
}

func TestEnforceCouplingDiversityLockedKeepsConstraint(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	population := make([]genome.Chromosome, 40)
	for i := range population {
		population[i] = genome.Chromosome{-1, 1, 0.1, 0.05, 0.05, 0.01}
	}

	enforceCouplingDiversity(rng, population, true)

	for i, ch := range population {
		assert.Equal(t, ch[genome.GeneC3], ch[genome.GeneEM], "individual %d violates the lock", i)
	}
}

func TestDistinctTopK(t *testing.T) {
	ranked := make([]fitness.Candidate, 20)
	for i := range ranked {
		ranked[i] = fitness.Candidate{
			Fitness:    float64(i),
			AlphaModel: physics.AlphaTarget, // all identical on purpose
		}
	}

	top := distinctTopK(ranked, 10)
	require.Len(t, top, 10)

	seen := make(map[float64]bool, len(top))
	for _, c := range top {
		assert.False(t, seen[c.AlphaModel], "duplicate alpha %v in top-k", c.AlphaModel)
		seen[c.AlphaModel] = true
	}

	// Originals must be untouched.
	assert.Equal(t, physics.AlphaTarget, ranked[1].AlphaModel)
}

func TestDistinctTopKShortInput(t *testing.T) {
	ranked := []fitness.Candidate{{Fitness: 1}, {Fitness: 2}}
	top := distinctTopK(ranked, 10)
	assert.Len(t, top, 2)
}

func TestUniqueElitesExplorationCopiesInOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(6))

	ranked := []fitness.Candidate{
		{Fitness: 1, Genes: genome.Chromosome{-1, 1, 0.1, 0.05, 0.01, 0}},
		{Fitness: 2, Genes: genome.Chromosome{-1, 1, 0.2, 0.05, 0.02, 0}},
		{Fitness: 3, Genes: genome.Chromosome{-1, 1, 0.3, 0.05, 0.03, 0}},
	}

	elites := uniqueElites(rng, ranked, 2, false, false)
	require.Len(t, elites, 2)
	assert.Equal(t, ranked[0].Genes, elites[0])
	assert.Equal(t, ranked[1].Genes, elites[1])
}

func TestUniqueElitesPrecisionDeduplicatesCoupling(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	dup := genome.Chromosome{-1, 1, 0.1, 0.05, 0.0123456789, 0}
	ranked := []fitness.Candidate{
		{Fitness: 1, Genes: dup},
		{Fitness: 2, Genes: dup},
		{Fitness: 3, Genes: dup},
		{Fitness: 4, Genes: genome.Chromosome{-1, 1, 0.1, 0.05, 0.9, 0}},
	}

	elites := uniqueElites(rng, ranked, 3, true, false)
	require.Len(t, elites, 3)

	seen := make(map[float64]bool, len(elites))
	for _, e := range elites {
		key := roundCoupling(e[genome.GeneEM])
		assert.False(t, seen[key], "duplicate elite coupling %v", key)
		seen[key] = true
	}
}
