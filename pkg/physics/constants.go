package physics

// Reference values the search tries to reproduce (CODATA-18).
const (
	// CTarget is the speed of light in vacuum, m/s.
	CTarget = 299792458.0

	// AlphaTarget is the fine-structure constant.
	AlphaTarget = 0.007297352566405895

	// GTarget is the Newtonian gravitational constant.
	GTarget = 6.67430e-11
)

// Numeric guards shared by the observable calculations.
const (
	// DegenerateEps marks a kinetic coefficient too close to zero to divide by.
	DegenerateEps = 1e-15

	// AnisotropyFloor and AnisotropyCeil bound the anisotropy score.
	AnisotropyFloor = 1e-16
	AnisotropyCeil  = 1.0
)
