package kernel

import "math"

// MagnitudeDensity is the Gutenberg-Richter density above completeness,
// beta * exp(-beta * dm) for dm = m - mc >= 0.
func (p Parameters) MagnitudeDensity(dm float64) float64 {
	if dm < 0 {
		return 0
	}
	return p.Beta * math.Exp(-p.Beta*dm)
}

// SampleMagnitude draws a magnitude above mc by inverting the GR CDF.
func (p Parameters) SampleMagnitude(u, mc float64) float64 {
	return mc - math.Log(1-u)/p.Beta
}

// EstimateBeta estimates the Gutenberg-Richter beta from magnitudes above mc
// using the Tinti-Mulargia estimator for binned magnitudes (bin size deltaM),
// falling back to the Aki maximum-likelihood estimator when deltaM is zero.
func EstimateBeta(mags []float64, mc, deltaM float64) float64 {
	if len(mags) == 0 {
		return 0
	}
	var sum float64
	for _, m := range mags {
		sum += m - mc
	}
	mean := sum / float64(len(mags))
	if mean <= 0 {
		return 0
	}
	if deltaM > 0 {
		return math.Log(1+deltaM/mean) / deltaM
	}
	return 1 / mean
}

// RoundHalfUp rounds m to the nearest multiple of deltaM, halves away from
// zero. Simulated magnitudes are discretized the same way observed catalogs
// usually are.
func RoundHalfUp(m, deltaM float64) float64 {
	if deltaM <= 0 {
		return m
	}
	return math.Floor(m/deltaM+0.5) * deltaM
}
