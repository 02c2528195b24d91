package inversion

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"

	"github.com/quakelab/etas/pkg/kernel"
)

// fitProductivity re-estimates k0 and alpha from the expected offspring
// counts of the E-step. For a fixed alpha the scale k0 has the closed form
//
//	k0 = sum(lHat) / sum(10^(alpha*dm_i) * F_i)
//
// where F_i clips source i's offspring to the observation window, so only a
// one-dimensional profile likelihood over alpha remains.
func fitProductivity(store *pairStore, lHat []float64, params kernel.Parameters, ranges Ranges) (k0, alpha float64, err error) {
	n := len(lHat)
	frac := make([]float64, n)
	var lSum float64
	for i := 0; i < n; i++ {
		frac[i] = params.TemporalFraction(0, store.srcToEnd[i])
		lSum += lHat[i]
	}
	if lSum <= 0 {
		return 0, 0, errors.New("productivity fit: no triggered mass")
	}

	k0For := func(a float64) float64 {
		var denom float64
		for i := 0; i < n; i++ {
			denom += math.Pow(10, a*store.srcDeltaM[i]) * frac[i]
		}
		return lSum / denom
	}

	negLL := func(a float64) float64 {
		k := k0For(a)
		var ll float64
		for i := 0; i < n; i++ {
			g := k * math.Pow(10, a*store.srcDeltaM[i]) * frac[i]
			if g <= 0 {
				if lHat[i] > 0 {
					return math.Inf(1)
				}
				continue
			}
			ll += lHat[i] * math.Log(g)
		}
		// sum of G_i equals lSum by construction of k0, a constant offset.
		return -ll
	}

	a, err := minimizeScalar(negLL, ranges.Alpha)
	if err != nil {
		return 0, 0, errors.Wrap(err, "productivity fit")
	}
	return k0For(a), a, nil
}

// minimizeScalar is a golden-section search over a bounded interval. The
// productivity profile likelihood is smooth and unimodal in alpha, so a
// bracketing method beats restarting a simplex here.
func minimizeScalar(f func(float64) float64, r Range) (float64, error) {
	const phi = 0.6180339887498949
	lo, hi := r.Min, r.Max
	x1 := hi - phi*(hi-lo)
	x2 := lo + phi*(hi-lo)
	f1, f2 := f(x1), f(x2)
	for it := 0; it < 200 && hi-lo > 1e-8; it++ {
		if f1 < f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - phi*(hi-lo)
			f1 = f(x1)
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + phi*(hi-lo)
			f2 = f(x2)
		}
	}
	x := (lo + hi) / 2
	if v := f(x); math.IsNaN(v) || math.IsInf(v, -1) {
		return 0, errors.Errorf("objective is %g at %g", v, x)
	}
	return x, nil
}

// fitShape re-estimates the temporal and spatial shape parameters (c, p, d,
// gamma, rho) by minimizing the weighted complete-data negative
// log-likelihood: every pair contributes its triggering probability times the
// log kernel density, every source a Poisson term for its expected offspring
// count. Productivity is held fixed at the stage-one estimate.
//
// Nelder-Mead runs over a logistic transform of the parameter ranges
// (bounds.go), so every evaluated point respects the kernel domain.
func fitShape(store *pairStore, exp *expectation, params kernel.Parameters, ranges Ranges) (kernel.Parameters, error) {
	objective := func(z []float64) float64 {
		p := ranges.fromVector(z, params)

		var ll float64
		for k, pr := range store.pairs {
			w := exp.pij[k]
			if w == 0 {
				continue
			}
			dm := store.srcDeltaM[pr.src]
			g := p.TemporalDensity(pr.dt) * p.SpatialDensity(pr.r2, dm)
			if g <= 0 {
				return math.Inf(1)
			}
			ll += w * math.Log(g)
		}
		for i, l := range exp.lHat {
			g := p.ExpectedOffspring(store.srcDeltaM[i], 0, store.srcToEnd[i])
			if g <= 0 {
				if l > 0 {
					return math.Inf(1)
				}
				continue
			}
			lg, _ := math.Lgamma(l + 1)
			ll += l*math.Log(g) - g - lg
		}
		if math.IsNaN(ll) {
			return math.Inf(1)
		}
		return -ll
	}

	problem := optimize.Problem{Func: objective}
	x0 := ranges.toVector(params)

	result, err := optimize.Minimize(problem, x0, nil, &optimize.NelderMead{})
	if err != nil && result == nil {
		return params, errors.Wrap(err, "shape fit")
	}
	fitted := ranges.fromVector(result.Location.X, params)
	if err := fitted.Validate(); err != nil {
		return params, errors.Wrap(err, "shape fit")
	}
	return fitted, nil
}

// paramDiff measures the parameter change between iterations in the space
// the optimizer searches: log10 for the scale parameters, linear otherwise.
func paramDiff(a, b kernel.Parameters) float64 {
	logDiff := func(x, y float64) float64 {
		return math.Abs(math.Log10(math.Max(x, 1e-300)) - math.Log10(math.Max(y, 1e-300)))
	}
	return logDiff(a.Mu, b.Mu) +
		logDiff(a.K0, b.K0) +
		math.Abs(a.Alpha-b.Alpha) +
		logDiff(a.C, b.C) +
		math.Abs(a.P-b.P) +
		logDiff(a.D, b.D) +
		math.Abs(a.Gamma-b.Gamma) +
		math.Abs(a.Rho-b.Rho)
}
