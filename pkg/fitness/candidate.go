package fitness

import (
	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/physics"
)

// KnockoutFitness is the sentinel reserved for hard-constraint violation. A
// candidate carrying it is kept but effectively unselectable.
const KnockoutFitness = 1e9

// Candidate is an evaluated chromosome. Immutable once created; re-evaluation
// produces a new value, never mutates an existing one.
type Candidate struct {
	ID    string            `json:"id"`
	Genes genome.Chromosome `json:"genes"`

	Fitness float64 `json:"fitness"`

	CModel     float64 `json:"c_model"`
	AlphaModel float64 `json:"alpha_model"`
	GModel     float64 `json:"g_model"`

	DeltaC     float64 `json:"delta_c"`
	DeltaAlpha float64 `json:"delta_alpha"`
	DeltaG     float64 `json:"delta_g"`

	Phi0     float64 `json:"phi0"`
	Elegance float64 `json:"elegance"`

	Generation int `json:"generation"`
}

// Valid reports whether the candidate survived the hard validation gate:
// below-sentinel finite fitness and finite genes.
func (c Candidate) Valid() bool {
	if c.Fitness >= KnockoutFitness || !isFinite(c.Fitness) {
		return false
	}
	return c.Genes.IsFinite()
}

// DigitsC, DigitsAlpha and DigitsG report per-observable solved digits.
func (c Candidate) DigitsC() int     { return physics.DigitsSolved(c.DeltaC) }
func (c Candidate) DigitsAlpha() int { return physics.DigitsSolved(c.DeltaAlpha) }
func (c Candidate) DigitsG() int     { return physics.DigitsSolved(c.DeltaG) }

func isFinite(x float64) bool {
	return x == x && x < 1e308 && x > -1e308
}
