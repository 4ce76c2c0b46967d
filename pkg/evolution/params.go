package evolution

import (
	"context"
	"runtime"

	"github.com/theoryforge/lagrangia/pkg/logging"
)

// Phase identifies the search regime the controller is in. The transition is
// one-directional: once precision is reached the run never widens back.
type Phase int

const (
	PhaseExploration Phase = iota
	PhasePrecision
)

func (p Phase) String() string {
	if p == PhasePrecision {
		return "precision"
	}
	return "exploration"
}

// Params contains the configuration options for one search session. The
// controller owns a copy and adapts it between generations; external callers
// change it only through UpdateParams.
type Params struct {
	PopulationSize int `json:"population_size"` // Default: 800
	EliteCount     int `json:"elite_count"`     // Default: 20
	Workers        int `json:"workers"`         // Default: runtime.NumCPU()
	MaxGenerations int `json:"max_generations"` // Default: 2000

	MutationRate  float64 `json:"mutation_rate"`  // Default: 0.25
	SigmaKinetic  float64 `json:"sigma_kinetic"`  // Default: 0.02
	SigmaShape    float64 `json:"sigma_shape"`    // Default: 0.05
	SigmaCoupling float64 `json:"sigma_coupling"` // Default: 0.1
	CrossoverRate float64 `json:"crossover_rate"` // Default: 0.7

	StrictEpsC float64 `json:"strict_eps_c"` // Default: 1e-6
	StrictEpsG float64 `json:"strict_eps_g"` // Default: 1e-4

	// LockedMode enables auto-activation of the directed "ultra" regime.
	LockedMode bool `json:"locked_mode"` // Default: true

	// Seed fixes the random stream; 0 means time-seeded.
	Seed int64 `json:"seed"`

	Stagnation StagnationThresholds `json:"stagnation"`
}

// DefaultParams returns the validated default configuration.
func DefaultParams() Params {
	return Params{
		PopulationSize: 800,
		EliteCount:     20,
		Workers:        runtime.NumCPU(),
		MaxGenerations: 2000,
		MutationRate:   0.25,
		SigmaKinetic:   0.02,
		SigmaShape:     0.05,
		SigmaCoupling:  0.1,
		CrossoverRate:  0.7,
		StrictEpsC:     1e-6,
		StrictEpsG:     1e-4,
		LockedMode:     true,
		Stagnation:     DefaultStagnationThresholds(),
	}
}

// Clamp forces every parameter into a safe range, warning rather than
// rejecting: a long-running search must never abort on configuration alone.
func (p *Params) Clamp(ctx context.Context) {
	logger := logging.GetLogger()
	def := DefaultParams()

	clampInt := func(name string, v *int, lo, hi, fallback int) {
		if *v == 0 {
			*v = fallback
			return
		}
		if *v < lo || *v > hi {
			logger.Warn(ctx, "Parameter %s=%d out of range [%d, %d], clamping", name, *v, lo, hi)
			if *v < lo {
				*v = lo
			} else {
				*v = hi
			}
		}
	}
	clampFloat := func(name string, v *float64, lo, hi, fallback float64) {
		if *v == 0 {
			*v = fallback
			return
		}
		if *v < lo || *v > hi {
			logger.Warn(ctx, "Parameter %s=%g out of range [%g, %g], clamping", name, *v, lo, hi)
			if *v < lo {
				*v = lo
			} else {
				*v = hi
			}
		}
	}

	clampInt("population_size", &p.PopulationSize, 10, 100000, def.PopulationSize)
	clampInt("workers", &p.Workers, 1, runtime.NumCPU()*4, def.Workers)
	clampInt("max_generations", &p.MaxGenerations, 1, 10_000_000, def.MaxGenerations)

	clampInt("elite_count", &p.EliteCount, 1, p.PopulationSize/2, def.EliteCount)
	if p.EliteCount > p.PopulationSize/2 {
		p.EliteCount = p.PopulationSize / 2
	}

	clampFloat("mutation_rate", &p.MutationRate, 1e-4, 1, def.MutationRate)
	clampFloat("sigma_kinetic", &p.SigmaKinetic, 1e-12, 1, def.SigmaKinetic)
	clampFloat("sigma_shape", &p.SigmaShape, 1e-12, 1, def.SigmaShape)
	clampFloat("sigma_coupling", &p.SigmaCoupling, 1e-12, 1, def.SigmaCoupling)
	clampFloat("crossover_rate", &p.CrossoverRate, 0.01, 1, def.CrossoverRate)
	clampFloat("strict_eps_c", &p.StrictEpsC, 1e-15, 1e-2, def.StrictEpsC)
	clampFloat("strict_eps_g", &p.StrictEpsG, 1e-15, 1e-1, def.StrictEpsG)

	p.Stagnation.clamp()
}

// applyPrecisionPreset narrows the operator parameters once the run enters the
// precision phase.
func (p *Params) applyPrecisionPreset() {
	p.MutationRate = 0.10
	p.SigmaKinetic = 1e-4
	p.SigmaShape = 1e-3
	p.SigmaCoupling = 5e-3
}
