package kernel

import "math"

// sigma is the magnitude-dependent spatial scale d * exp(gamma * dm), where
// dm is the source magnitude above completeness. For the power-law variant it
// has units of km², for the gaussian variant it is the variance of the
// offspring displacement.
func (p Parameters) sigma(dm float64) float64 {
	return p.D * math.Exp(p.Gamma*dm)
}

// SpatialDensity evaluates the spatial triggering density at squared distance
// r2 (km²) from a source with magnitude mc+dm. Both variants integrate to 1
// over the plane, so productivity keeps its offspring-count interpretation.
//
// Power law:  f(r²) = rho * sigma^rho / pi * (r² + sigma)^-(1+rho)
// Gaussian:   f(r²) = exp(-r² / (2 sigma)) / (2 pi sigma)
func (p Parameters) SpatialDensity(r2, dm float64) float64 {
	sig := p.sigma(dm)
	switch p.Spatial {
	case SpatialGaussian:
		return math.Exp(-r2/(2*sig)) / (2 * math.Pi * sig)
	default:
		return p.Rho * math.Pow(sig, p.Rho) / math.Pi * math.Pow(r2+sig, -(1+p.Rho))
	}
}

// SampleRadius draws an offspring distance from the radial CDF of the spatial
// kernel. The offspring angle is uniform and sampled by the caller.
func (p Parameters) SampleRadius(u, dm float64) float64 {
	sig := p.sigma(dm)
	switch p.Spatial {
	case SpatialGaussian:
		// Rayleigh radius for an isotropic gaussian displacement.
		return math.Sqrt(-2 * sig * math.Log(1-u))
	default:
		return math.Sqrt(sig * (math.Pow(1-u, -1/p.Rho) - 1))
	}
}
