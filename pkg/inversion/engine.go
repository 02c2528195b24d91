package inversion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quakelab/etas/pkg/background"
	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/metrics"
	"github.com/quakelab/etas/pkg/types"
)

var log = logrus.WithField("component", "inversion")

// Config controls one inversion run. Immutable once the run starts.
type Config struct {
	// Tolerance is the convergence threshold on the summed parameter change
	// between iterations (log10 space for the scale parameters).
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// MaxIterations caps the EM loop. Hitting the cap is a warning, not an
	// error: the best-so-far estimate is still returned.
	MaxIterations int `json:"maxIterations" yaml:"maxIterations"`

	// LookbackDays bounds how far back a target searches for sources.
	LookbackDays float64 `json:"lookbackDays" yaml:"lookbackDays"`

	// DistMultiplier scales the rupture-length distance cutoff for pairs.
	DistMultiplier float64 `json:"distMultiplier" yaml:"distMultiplier"`

	// DeltaM is the magnitude bin size of the catalog, used by the beta
	// estimator. Zero means continuous magnitudes.
	DeltaM float64 `json:"deltaM" yaml:"deltaM"`

	// Initial is the starting parameter guess. When nil, a short goptuna
	// study over Ranges picks one.
	Initial *kernel.Parameters `json:"initial,omitempty" yaml:"initial,omitempty"`

	// InitialTrials and InitialAlgorithm configure the starting-guess study.
	InitialTrials    int    `json:"initialTrials" yaml:"initialTrials"`
	InitialAlgorithm string `json:"initialAlgorithm" yaml:"initialAlgorithm"`

	// Spatial selects the spatial kernel variant for the whole run.
	Spatial kernel.SpatialKernel `json:"spatialKernel" yaml:"spatialKernel"`

	Ranges     *Ranges            `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	Background background.Options `json:"background" yaml:"background"`
}

func (c Config) withDefaults() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-3
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 100
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = 365
	}
	if c.DistMultiplier <= 0 {
		c.DistMultiplier = 50
	}
	if c.InitialTrials <= 0 {
		c.InitialTrials = 25
	}
	if c.InitialAlgorithm == "" {
		c.InitialAlgorithm = InitialAlgorithmRandom
	}
	if c.Ranges == nil {
		r := DefaultRanges()
		c.Ranges = &r
	}
	return c
}

// Engine runs the EM-style inversion: alternating expectation steps over the
// event pairs and weighted maximum-likelihood parameter updates, until the
// parameters stop moving.
type Engine struct {
	Config Config
}

func New(cfg Config) *Engine {
	return &Engine{Config: cfg.withDefaults()}
}

// Run fits the model to the catalog. The returned error, if any, is an
// *Error carrying the last valid parameter snapshot.
func (e *Engine) Run(ctx context.Context, cat *types.Catalog) (*Result, error) {
	cfg := e.Config.withDefaults()

	fail := func(iter int, reason string, last kernel.Parameters, err error) (*Result, error) {
		metrics.InversionRuns.WithLabelValues(string(StateFailed)).Inc()
		return nil, &Error{Reason: reason, Iteration: iter, LastValid: last, Err: err}
	}

	if cat == nil || cat.Len() == 0 {
		return fail(0, "empty catalog", kernel.Parameters{}, nil)
	}

	beta := kernel.EstimateBeta(cat.Magnitudes(), cat.Mc, cfg.DeltaM)
	if beta <= 0 {
		return fail(0, "degenerate magnitude distribution", kernel.Parameters{}, nil)
	}
	log.Debugf("beta of catalog is %.4f", beta)

	store := buildPairs(cat, cfg.LookbackDays, cfg.DistMultiplier)
	log.Infof("prepared %d event pairs from %d events", store.numPairs(), cat.Len())

	// starting point
	var theta kernel.Parameters
	if cfg.Initial != nil {
		theta = *cfg.Initial
		theta.Beta = beta
		theta.Spatial = cfg.Spatial
		if err := theta.Validate(); err != nil {
			return fail(0, "invalid initial parameters", theta, err)
		}
		log.Info("using supplied initial parameters")
	} else {
		log.Infof("searching initial parameters (%s, %d trials)", cfg.InitialAlgorithm, cfg.InitialTrials)
		var err error
		theta, err = searchInitial(cat, store, beta, *cfg.Ranges, cfg.InitialTrials, cfg.InitialAlgorithm)
		if err != nil {
			return fail(0, "initial guess search failed", kernel.Parameters{}, err)
		}
		theta.Spatial = cfg.Spatial
	}

	// initial background assignment: every event equally likely background.
	weights := make([]float64, cat.Len())
	for i := range weights {
		weights[i] = 0.5
	}
	field, err := background.Estimate(cat.Events, weights, cat.Region, cat.Window.Length(), cfg.Background)
	if err != nil {
		return fail(0, "background estimate failed", theta, err)
	}

	state := StateMaxIterationsReached
	var exp *expectation
	iterations := 0

	for i := 1; i <= cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return fail(i, "canceled", theta, err)
		}
		iterations = i
		start := time.Now()

		exp, err = computeExpectation(ctx, cat, store, theta, field)
		if err != nil {
			return fail(i, "expectation step failed", theta, err)
		}
		metrics.InversionIterations.Inc()
		metrics.InversionLogLikelihood.Set(exp.logLik)

		next := theta
		next.Mu = exp.nHat / (cat.Region.Area() * cat.Window.Length())

		k0, alpha, err := fitProductivity(store, exp.lHat, theta, *cfg.Ranges)
		if err != nil {
			return fail(i, "productivity fit failed", theta, err)
		}
		next.K0, next.Alpha = k0, alpha

		next, err = fitShape(store, exp, next, *cfg.Ranges)
		if err != nil {
			return fail(i, "shape fit failed", theta, err)
		}
		if err := next.Validate(); err != nil {
			return fail(i, "out-of-domain parameter update", theta, err)
		}

		field, err = background.Estimate(cat.Events, exp.pbg, cat.Region, cat.Window.Length(), cfg.Background)
		if err != nil {
			return fail(i, "background estimate failed", theta, err)
		}

		diff := paramDiff(theta, next)
		log.WithFields(logrus.Fields{
			"iteration": i,
			"nHat":      exp.nHat,
			"logLik":    exp.logLik,
			"diff":      diff,
			"eta":       next.BranchingRatio(),
			"took":      time.Since(start).Round(time.Millisecond),
		}).Info("EM iteration done")

		theta = next
		if diff < cfg.Tolerance {
			state = StateConverged
			break
		}
	}

	if state == StateMaxIterationsReached {
		log.Warnf("not converged after %d iterations, returning best-so-far estimate", iterations)
	}

	// final expectation step under the final parameters, so the reported
	// probabilities and background field match them.
	exp, err = computeExpectation(ctx, cat, store, theta, field)
	if err != nil {
		return fail(iterations, "final expectation step failed", theta, err)
	}
	field, err = background.Estimate(cat.Events, exp.pbg, cat.Region, cat.Window.Length(), cfg.Background)
	if err != nil {
		return fail(iterations, "final background estimate failed", theta, err)
	}

	metrics.InversionRuns.WithLabelValues(string(state)).Inc()
	return &Result{
		ID:              uuid.New(),
		State:           state,
		Params:          theta,
		Field:           field,
		BackgroundProbs: exp.pbg,
		NHat:            exp.nHat,
		BranchingRatio:  theta.BranchingRatio(),
		LogLik:          exp.logLik,
		Iterations:      iterations,
		NumPairs:        store.numPairs(),
		FittedAt:        time.Now(),
	}, nil
}
