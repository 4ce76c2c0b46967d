package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
)

func stagnantBest(fit, xi float64) fitness.Candidate {
	return fitness.Candidate{
		Genes:      genome.Chromosome{-1, 1, 0.1, 0.05, 0.01, xi},
		Fitness:    fit,
		DeltaC:     1e-3,
		DeltaAlpha: 1e-2,
		DeltaG:     1e-2,
	}
}

func TestStagnationCountersResetOnImprovement(t *testing.T) {
	s := newStagnationState()

	s.observe(stagnantBest(10, 0.5), 10)
	s.observe(stagnantBest(10, 0.5), 10)
	s.observe(stagnantBest(10, 0.5), 10)
	assert.Equal(t, 2, s.shortTerm)
	assert.Equal(t, 2, s.longTerm)

	s.observe(stagnantBest(5, 0.5), 10)
	assert.Equal(t, 0, s.shortTerm)
	assert.Equal(t, 0, s.longTerm)
}

func TestStagnationGravityCounter(t *testing.T) {
	s := newStagnationState()

	s.observe(stagnantBest(10, 0.5), 10)
	assert.Equal(t, 0, s.gravity, "first observation has no previous xi")

	s.observe(stagnantBest(9, 0.5), 10)
	s.observe(stagnantBest(8, 0.5), 10)
	assert.Equal(t, 2, s.gravity)

	// A real xi move resets the counter even while fitness stalls.
	s.observe(stagnantBest(8, 0.6), 10)
	assert.Equal(t, 0, s.gravity)
}

func TestStagnationDeepWindow(t *testing.T) {
	s := newStagnationState()

	window := 5
	for i := 0; i < window; i++ {
		s.observe(stagnantBest(10, 0.5), window)
	}
	assert.Equal(t, 1, s.deep, "a full window with frozen digits counts one tick")

	// A digit gained inside the window suppresses the tick.
	improved := stagnantBest(9, 0.5)
	improved.DeltaAlpha = 1e-6
	s.observe(improved, window)
	assert.Equal(t, 1, s.deep)
}

func TestStagnationReset(t *testing.T) {
	s := newStagnationState()
	for i := 0; i < 20; i++ {
		s.observe(stagnantBest(10, 0.5), 5)
	}
	assert.Positive(t, s.shortTerm)

	s.reset()
	assert.Zero(t, s.shortTerm)
	assert.Zero(t, s.gravity)
	assert.Zero(t, s.deep)
	assert.Zero(t, s.longTerm)
	assert.Empty(t, s.digitsWindow)
}

func TestStagnationThresholdsClamp(t *testing.T) {
	th := StagnationThresholds{ShortTerm: -1}
	th.clamp()

	def := DefaultStagnationThresholds()
	assert.Equal(t, def.ShortTerm, th.ShortTerm)
	assert.Equal(t, def.LongTerm, th.LongTerm)
	assert.Equal(t, def.InjectEvery, th.InjectEvery)
}
