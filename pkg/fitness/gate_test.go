package fitness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToleranceWarmupIsRelaxed(t *testing.T) {
	s := DefaultGateSchedule()

	for gen := 0; gen < s.WarmupGenerations; gen++ {
		epsC, epsG := s.Tolerances(gen, false)
		assert.Equal(t, s.RelaxedEpsC, epsC)
		assert.Equal(t, s.RelaxedEpsG, epsG)
	}
}

func TestToleranceTightensMonotonically(t *testing.T) {
	s := DefaultGateSchedule()

	prevC, prevG := s.Tolerances(s.WarmupGenerations, false)
	for gen := s.WarmupGenerations + 1; gen <= s.TightenUntil; gen++ {
		epsC, epsG := s.Tolerances(gen, false)
		assert.LessOrEqual(t, epsC, prevC, "epsC must not loosen at gen %d", gen)
		assert.LessOrEqual(t, epsG, prevG, "epsG must not loosen at gen %d", gen)
		prevC, prevG = epsC, epsG
	}
}

func TestToleranceStrictAfterSchedule(t *testing.T) {
	s := DefaultGateSchedule()

	epsC, epsG := s.Tolerances(s.TightenUntil, false)
	assert.Equal(t, s.StrictEpsC, epsC)
	assert.Equal(t, s.StrictEpsG, epsG)

	epsC, epsG = s.Tolerances(250, false)
	assert.Equal(t, s.StrictEpsC, epsC)
	assert.Equal(t, s.StrictEpsG, epsG)
}

func TestRecoveryForcesRelaxed(t *testing.T) {
	s := DefaultGateSchedule()

	epsC, epsG := s.Tolerances(1500, true)
	assert.Equal(t, s.RelaxedEpsC, epsC)
	assert.Equal(t, s.RelaxedEpsG, epsG)
}

func TestEmergencyRelaxationIsCapped(t *testing.T) {
	s := DefaultGateSchedule()

	epsC, _ := s.Tolerances(s.EmergencyAfter+100, false)
	assert.Greater(t, epsC, s.StrictEpsC)

	epsC, epsG := s.Tolerances(1_000_000, false)
	assert.Equal(t, s.StrictEpsC*s.EmergencyMaxFactor, epsC)
	assert.Equal(t, s.StrictEpsG*s.EmergencyMaxFactor, epsG)
}
