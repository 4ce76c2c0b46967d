package evolution

import (
	"github.com/sourcegraph/conc/pool"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
)

// Evaluator is the scoring dependency of the batch dispatcher. Implementations
// must be safe for concurrent use.
type Evaluator interface {
	Evaluate(ch genome.Chromosome, generation int, recovery, locked bool) fitness.Candidate
}

// evaluateBatch partitions the population across workers and merges results.
// Each worker owns a disjoint index range of the shared result slice and
// produces fresh Candidate values, so no locking is needed.
func evaluateBatch(ev Evaluator, population []genome.Chromosome, generation, workers int, recovery, locked bool) []fitness.Candidate {
	results := make([]fitness.Candidate, len(population))
	if len(population) == 0 {
		return results
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(population) {
		workers = len(population)
	}

	chunk := (len(population) + workers - 1) / workers

	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < len(population); start += chunk {
		end := start + chunk
		if end > len(population) {
			end = len(population)
		}
		start, end := start, end
		p.Go(func() {
			for i := start; i < end; i++ {
				results[i] = ev.Evaluate(population[i], generation, recovery, locked)
			}
		})
	}
	p.Wait()

	return results
}
