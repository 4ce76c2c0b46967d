// Package physics maps a coefficient vector to its derived observables: the
// propagation speed implied by the dispersion relation, the vacuum expectation
// value of the field, the two effective couplings, and an anisotropy score.
// Every function is pure and total — degenerate inputs come back as flags and
// fallback values, never as errors or panics.
package physics

import (
	"math"

	"github.com/theoryforge/lagrangia/pkg/genome"
)

// DispersionResult carries the propagation speed derived from the two kinetic
// coefficients.
type DispersionResult struct {
	CSquared float64 // -B/A with A = -2*c0, B = -2*c1
	CModel   float64 // Model speed of light, m/s

	Degenerate     bool // |A| below DegenerateEps; CModel is a fallback
	WrongCausality bool // CSquared came out non-positive; continued via |CSquared|
}

// Dispersion derives the propagation speed from the Euler-Lagrange dispersion
// relation A*w^2 + B*k^2 = 0.
func Dispersion(c genome.Chromosome) DispersionResult {
	a := -2 * c[genome.GeneC0]
	b := -2 * c[genome.GeneC1]

	if math.Abs(a) < DegenerateEps {
		return DispersionResult{Degenerate: true, WrongCausality: true}
	}

	cSq := -b / a
	res := DispersionResult{CSquared: cSq}

	if cSq <= 0 {
		res.WrongCausality = true
		cSq = math.Abs(cSq)
	}
	if cSq == 0 || math.IsNaN(cSq) {
		res.Degenerate = true
		return res
	}

	res.CModel = math.Sqrt(cSq) * CTarget

	// Natural-units fallback when the dimensionless speed blows up.
	if math.Abs(res.CModel) > 2*CTarget {
		res.CModel = math.Sqrt(cSq)
	}

	return res
}

// VEVResult is the vacuum expectation value of the field.
type VEVResult struct {
	Phi0   float64
	IsReal bool
}

// VacuumExpectation returns phi0 = sqrt(c2/c3) when the potential has a stable
// minimum (c2 > 0 and c3 > 0); otherwise the VEV is not real and phi0 is 0.
func VacuumExpectation(c genome.Chromosome) VEVResult {
	c2, c3 := c[genome.GeneC2], c[genome.GeneC3]
	if c2 <= 0 || c3 <= 0 {
		return VEVResult{}
	}
	return VEVResult{Phi0: math.Sqrt(c2 / c3), IsReal: true}
}

// EffectiveAlpha computes the fine-structure-like observable
// AlphaTarget / (1 + g*phi0^2). In locked mode the coupling is taken from c3
// instead of the electromagnetic gene.
func EffectiveAlpha(c genome.Chromosome, phi0 float64, locked bool) float64 {
	g := c[genome.GeneEM]
	if locked {
		g = c[genome.GeneC3]
	}

	denom := 1 + g*phi0*phi0
	if math.Abs(denom) < DegenerateEps {
		return 0
	}
	return AlphaTarget / denom
}

// EffectiveGResult carries the gravitational-strength observable together with
// its stability diagnosis.
type EffectiveGResult struct {
	GModel   float64
	Margin   float64 // 1 - xi*phi0^2; must stay positive
	Unstable bool
}

// EffectiveG computes GTarget / (1 + xi*phi0^2) and checks the stability
// condition 1 - xi*phi0^2 > 0. A violated margin yields a negative sentinel so
// the caller never mistakes an unstable configuration for a physical value.
func EffectiveG(c genome.Chromosome, phi0 float64) EffectiveGResult {
	xi := c[genome.GeneXi]
	margin := 1 - xi*phi0*phi0

	denom := 1 + xi*phi0*phi0
	var g float64
	if math.Abs(denom) >= DegenerateEps {
		g = GTarget / denom
	}

	if margin <= 0 {
		return EffectiveGResult{GModel: -math.Abs(g), Margin: margin, Unstable: true}
	}
	return EffectiveGResult{GModel: g, Margin: margin}
}

// Anisotropy scores the isotropy of the kinetic sector: |sqrt(c1/-c0) - 1|
// clamped to [AnisotropyFloor, AnisotropyCeil]. Wrong signs score maximal
// violation.
func Anisotropy(c genome.Chromosome) float64 {
	c0, c1 := c[genome.GeneC0], c[genome.GeneC1]
	if c0 >= 0 || c1 <= 0 {
		return AnisotropyCeil
	}

	score := math.Abs(math.Sqrt(c1/-c0) - 1)
	if score < AnisotropyFloor {
		return AnisotropyFloor
	}
	if score > AnisotropyCeil {
		return AnisotropyCeil
	}
	return score
}

// HasGhost reports the ghost-mode sign pathology: both kinetic coefficients
// sharing a sign.
func HasGhost(c genome.Chromosome) bool {
	c0, c1 := c[genome.GeneC0], c[genome.GeneC1]
	return (c0 > 0 && c1 > 0) || (c0 < 0 && c1 < 0)
}

// DigitsSolved converts a relative error into the count of correct leading
// digits, saturated at 16 (double precision exhausted).
func DigitsSolved(delta float64) int {
	if delta <= 0 {
		return 16
	}
	d := int(math.Floor(-math.Log10(delta)))
	if d < 0 {
		return 0
	}
	if d > 16 {
		return 16
	}
	return d
}
