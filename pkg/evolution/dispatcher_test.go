package evolution

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
)

func testPopulation(n int, seed int64) []genome.Chromosome {
	rng := rand.New(rand.NewSource(seed))
	population := make([]genome.Chromosome, n)
	for i := range population {
		population[i] = genome.Random(rng)
	}
	return population
}

func TestEvaluateBatchMatchesSequential(t *testing.T) {
	ev := fitness.NewEvaluator(fitness.DefaultGateSchedule())
	population := testPopulation(64, 1)

	parallel := evaluateBatch(ev, population, 3, 8, false, false)
	require.Len(t, parallel, len(population))

	// Evaluation is deterministic and cached, so the sequential pass must
	// reproduce every candidate exactly.
	for i, ch := range population {
		sequential := ev.Evaluate(ch, 3, false, false)
		assert.Equal(t, sequential, parallel[i], "candidate %d diverged", i)
	}
}

func TestEvaluateBatchPreservesOrder(t *testing.T) {
	ev := fitness.NewEvaluator(fitness.DefaultGateSchedule())
	population := testPopulation(20, 2)

	results := evaluateBatch(ev, population, 0, 4, false, false)
	require.Len(t, results, len(population))
	for i, cand := range results {
		assert.Equal(t, population[i], cand.Genes, "result %d out of order", i)
	}
}

func TestEvaluateBatchWorkerClamping(t *testing.T) {
	ev := fitness.NewEvaluator(fitness.DefaultGateSchedule())
	population := testPopulation(5, 3)

	// More workers than individuals, and a nonsensical worker count, must both
	// still evaluate everything.
	for _, workers := range []int{0, -1, 1, 100} {
		results := evaluateBatch(ev, population, 0, workers, false, false)
		require.Len(t, results, len(population), "workers=%d", workers)
		for i := range results {
			assert.Equal(t, population[i], results[i].Genes)
		}
	}
}

func TestEvaluateBatchEmptyPopulation(t *testing.T) {
	ev := fitness.NewEvaluator(fitness.DefaultGateSchedule())
	results := evaluateBatch(ev, nil, 0, 4, false, false)
	assert.Empty(t, results)
}
