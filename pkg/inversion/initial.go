package inversion

import (
	"math"

	"github.com/c-bata/goptuna"
	goptunaTPE "github.com/c-bata/goptuna/tpe"
	"github.com/pkg/errors"

	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/types"
)

const (
	// InitialAlgorithmRandom samples starting parameters uniformly over the
	// search ranges.
	InitialAlgorithmRandom = "random"
	// InitialAlgorithmTPE searches starting parameters with the
	// Tree-structured Parzen Estimator.
	InitialAlgorithmTPE = "tpe"
)

// searchInitial picks a starting parameter guess by maximizing the
// observed-data log-likelihood with a constant background rate over a short
// goptuna study. A good starting point does not change the EM fixed point,
// it just gets there in fewer iterations.
func searchInitial(cat *types.Catalog, store *pairStore, beta float64, ranges Ranges, trials int, algorithm string) (kernel.Parameters, error) {
	muGuess := 0.5 * float64(cat.Len()) / (cat.Region.Area() * cat.Window.Length())

	objective := func(trial goptuna.Trial) (float64, error) {
		p := kernel.Parameters{Mu: muGuess, Beta: beta}
		var err error
		if p.K0, err = suggest(&trial, "k0", ranges.K0); err != nil {
			return 0, err
		}
		if p.Alpha, err = suggest(&trial, "alpha", ranges.Alpha); err != nil {
			return 0, err
		}
		if p.C, err = suggest(&trial, "c", ranges.C); err != nil {
			return 0, err
		}
		if p.P, err = suggest(&trial, "p", ranges.P); err != nil {
			return 0, err
		}
		if p.D, err = suggest(&trial, "d", ranges.D); err != nil {
			return 0, err
		}
		if p.Gamma, err = suggest(&trial, "gamma", ranges.Gamma); err != nil {
			return 0, err
		}
		if p.Rho, err = suggest(&trial, "rho", ranges.Rho); err != nil {
			return 0, err
		}
		ll := constantMuLogLik(cat, store, p)
		if math.IsNaN(ll) {
			return 0, errors.New("non-finite trial likelihood")
		}
		return ll, nil
	}

	var sampler goptuna.Sampler
	switch algorithm {
	case InitialAlgorithmTPE:
		sampler = goptunaTPE.NewSampler()
	default:
		sampler = goptuna.NewRandomSampler()
	}

	study, err := goptuna.CreateStudy("etas-initial-guess",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize),
		goptuna.StudyOptionLogger(nil),
		goptuna.StudyOptionSampler(sampler),
	)
	if err != nil {
		return kernel.Parameters{}, errors.Wrap(err, "initial guess study")
	}
	if err := study.Optimize(objective, trials); err != nil {
		return kernel.Parameters{}, errors.Wrap(err, "initial guess study")
	}

	best, err := study.GetBestParams()
	if err != nil {
		return kernel.Parameters{}, errors.Wrap(err, "initial guess study")
	}
	get := func(name string, r Range) float64 {
		v := best[name].(float64)
		if r.Log10 {
			return math.Pow(10, v)
		}
		return v
	}
	p := kernel.Parameters{
		Mu:    muGuess,
		K0:    get("k0", ranges.K0),
		Alpha: get("alpha", ranges.Alpha),
		C:     get("c", ranges.C),
		P:     get("p", ranges.P),
		D:     get("d", ranges.D),
		Gamma: get("gamma", ranges.Gamma),
		Rho:   get("rho", ranges.Rho),
		Beta:  beta,
	}
	return p, p.Validate()
}

// suggest draws one parameter from its range, in log10 space for the scale
// parameters.
func suggest(trial *goptuna.Trial, name string, r Range) (float64, error) {
	if r.Log10 {
		v, err := trial.SuggestFloat(name, math.Log10(r.Min), math.Log10(r.Max))
		return math.Pow(10, v), err
	}
	return trial.SuggestFloat(name, r.Min, r.Max)
}

// constantMuLogLik is the observed-data log-likelihood with a spatially
// constant background rate, cheap enough to evaluate per trial.
func constantMuLogLik(cat *types.Catalog, store *pairStore, p kernel.Parameters) float64 {
	var ll float64
	for j := 0; j < cat.Len(); j++ {
		tot := p.Mu
		span := store.byTarget[j]
		for k := span[0]; k < span[1]; k++ {
			pr := store.pairs[k]
			dm := store.srcDeltaM[pr.src]
			tot += p.Productivity(dm) * p.TemporalDensity(pr.dt) * p.SpatialDensity(pr.r2, dm)
		}
		if tot <= 0 {
			return math.Inf(-1)
		}
		ll += math.Log(tot)
	}
	ll -= p.Mu * cat.Region.Area() * cat.Window.Length()
	for i := 0; i < cat.Len(); i++ {
		ll -= p.ExpectedOffspring(store.srcDeltaM[i], 0, store.srcToEnd[i])
	}
	return ll
}
