package kernel

import "math"

// TemporalDensity is the normalized Omori-Utsu decay
//
//	g(dt) = (p-1) * c^(p-1) * (dt+c)^(-p)
//
// which integrates to 1 over dt in [0, inf) for p > 1. Negative time delays
// return 0 (causality: an event cannot trigger into its past).
func (p Parameters) TemporalDensity(dt float64) float64 {
	if dt < 0 {
		return 0
	}
	c := p.ceff()
	return (p.P - 1) * math.Pow(c, p.P-1) * math.Pow(dt+c, -p.P)
}

// TemporalSurvival is the fraction of offspring expected after time delay dt:
//
//	S(dt) = (c / (dt+c))^(p-1)
//
// S(0) = 1 and S decreases to 0.
func (p Parameters) TemporalSurvival(dt float64) float64 {
	if dt <= 0 {
		return 1
	}
	c := p.ceff()
	return math.Pow(c/(dt+c), p.P-1)
}

// TemporalFraction is the fraction of offspring falling in [t0, t1] after the
// parent, used to clip expected counts to the observation window.
func (p Parameters) TemporalFraction(t0, t1 float64) float64 {
	if t1 <= t0 {
		return 0
	}
	return p.TemporalSurvival(t0) - p.TemporalSurvival(t1)
}

// SampleDelay draws a time delay from the Omori density by inverting the CDF:
//
//	dt = c * ((1-u)^(-1/(p-1)) - 1)
func (p Parameters) SampleDelay(u float64) float64 {
	c := p.ceff()
	return c * (math.Pow(1-u, -1/(p.P-1)) - 1)
}
