package fitness

import "math"

// GateSchedule drives the progressive constraint gate: relaxed tolerances
// during warmup, geometric tightening toward the strict values, strict
// afterward with a capped emergency relaxation for very long runs. The exact
// shape is empirically tuned, so everything here is configuration.
type GateSchedule struct {
	RelaxedEpsC float64 `json:"relaxed_eps_c"` // Default: 1e-2
	RelaxedEpsG float64 `json:"relaxed_eps_g"` // Default: 1e-1
	StrictEpsC  float64 `json:"strict_eps_c"`  // Default: 1e-6
	StrictEpsG  float64 `json:"strict_eps_g"`  // Default: 1e-4

	WarmupGenerations int `json:"warmup_generations"` // Default: 10
	TightenUntil      int `json:"tighten_until"`      // Default: 100

	// Past EmergencyAfter generations the strict tolerances relax by
	// EmergencyRate per generation, capped at EmergencyMaxFactor.
	EmergencyAfter     int     `json:"emergency_after"`      // Default: 500
	EmergencyRate      float64 `json:"emergency_rate"`       // Default: 1e-4
	EmergencyMaxFactor float64 `json:"emergency_max_factor"` // Default: 2.0
}

// DefaultGateSchedule returns the schedule used by the original search.
func DefaultGateSchedule() GateSchedule {
	return GateSchedule{
		RelaxedEpsC:        1e-2,
		RelaxedEpsG:        1e-1,
		StrictEpsC:         1e-6,
		StrictEpsG:         1e-4,
		WarmupGenerations:  10,
		TightenUntil:       100,
		EmergencyAfter:     500,
		EmergencyRate:      1e-4,
		EmergencyMaxFactor: 2.0,
	}
}

// Tolerances returns the effective (epsC, epsG) pair for a generation.
// Recovery mode forces the relaxed pair regardless of generation.
func (s GateSchedule) Tolerances(generation int, recovery bool) (float64, float64) {
	if recovery || generation < s.WarmupGenerations {
		return s.RelaxedEpsC, s.RelaxedEpsG
	}

	if generation < s.TightenUntil {
		span := float64(s.TightenUntil - s.WarmupGenerations)
		progress := float64(generation-s.WarmupGenerations) / span

		epsC := s.RelaxedEpsC * math.Pow(s.StrictEpsC/s.RelaxedEpsC, progress)
		epsG := s.RelaxedEpsG * math.Pow(s.StrictEpsG/s.RelaxedEpsG, progress)
		return epsC, epsG
	}

	epsC, epsG := s.StrictEpsC, s.StrictEpsG

	if generation > s.EmergencyAfter {
		factor := 1 + float64(generation-s.EmergencyAfter)*s.EmergencyRate
		if factor > s.EmergencyMaxFactor {
			factor = s.EmergencyMaxFactor
		}
		epsC *= factor
		epsG *= factor
	}

	return epsC, epsG
}
