package kernel

import "math"

// Productivity is the expected number of direct offspring of a source with
// magnitude mc+dm, integrated over all future time and the whole plane:
//
//	kappa(m) = k0 * 10^(alpha * (m - mc))
//
// Strictly increasing in magnitude.
func (p Parameters) Productivity(dm float64) float64 {
	return p.K0 * math.Pow(10, p.Alpha*dm)
}

// ExpectedOffspring clips Productivity to offspring falling between t0 and
// t1 days after the source event.
func (p Parameters) ExpectedOffspring(dm, t0, t1 float64) float64 {
	return p.Productivity(dm) * p.TemporalFraction(t0, t1)
}

// BranchingRatio is the expected number of direct offspring of an event with
// magnitude drawn from the Gutenberg-Richter density:
//
//	eta = k0 * beta / (beta - alpha*ln10)
//
// The process is sub-critical for eta < 1. Returns +Inf when the magnitude
// integral diverges (alpha*ln10 >= beta), which always means super-critical.
func (p Parameters) BranchingRatio() float64 {
	denom := p.Beta - p.Alpha*Ln10
	if denom <= 0 {
		return math.Inf(1)
	}
	return p.K0 * p.Beta / denom
}
