package inversion

import (
	"context"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/quakelab/etas/pkg/background"
	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/types"
)

// expectation holds the outcome of one E-step: for every stored pair the
// probability that the source triggered the target, and per target the
// probability of being a background event. For every target j
//
//	pbg[j] + sum over sources of pij = 1
//
// lHat[i] is the expected number of observed offspring of source i, nHat the
// expected total number of background events.
type expectation struct {
	pij  []float64
	pbg  []float64
	lHat []float64
	nHat float64

	// logLik is the observed-data log-likelihood under the evaluated
	// parameters, used for diagnostics and as a secondary convergence signal.
	logLik float64
}

// computeExpectation evaluates the triggering probabilities for every stored
// pair under the given parameters and background field. Targets are
// independent, so the scan is fanned out across workers; each worker writes
// disjoint slices and the per-source reductions run serially afterwards.
//
// A non-finite intermediate halts the step immediately rather than letting
// NaNs propagate through the M-step.
func computeExpectation(ctx context.Context, cat *types.Catalog, store *pairStore, params kernel.Parameters, field *background.Field) (*expectation, error) {
	n := cat.Len()
	exp := &expectation{
		pij:  make([]float64, store.numPairs()),
		pbg:  make([]float64, n),
		lHat: make([]float64, n),
	}
	rates := make([]float64, n)

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for j := lo; j < hi; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				mu := field.RateAt(cat.Events[j].X, cat.Events[j].Y)
				tot := mu
				span := store.byTarget[j]
				for k := span[0]; k < span[1]; k++ {
					pr := store.pairs[k]
					gij := params.Productivity(store.srcDeltaM[pr.src]) *
						params.TemporalDensity(pr.dt) *
						params.SpatialDensity(pr.r2, store.srcDeltaM[pr.src])
					exp.pij[k] = gij
					tot += gij
				}
				if tot <= 0 || math.IsNaN(tot) || math.IsInf(tot, 0) {
					return errors.Errorf("non-finite total rate %g at event #%d", tot, j)
				}
				for k := span[0]; k < span[1]; k++ {
					exp.pij[k] /= tot
				}
				exp.pbg[j] = mu / tot
				rates[j] = tot
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "expectation step")
	}

	for j := 0; j < n; j++ {
		exp.nHat += exp.pbg[j]
		exp.logLik += math.Log(rates[j])
	}
	for k, pr := range store.pairs {
		exp.lHat[pr.src] += exp.pij[k]
	}

	// subtract the expected counts: background over the window plus clipped
	// offspring of every source.
	integral := field.ExpectedCount(cat.Window.Length())
	for i := 0; i < n; i++ {
		integral += params.ExpectedOffspring(store.srcDeltaM[i], 0, store.srcToEnd[i])
	}
	exp.logLik -= integral

	if math.IsNaN(exp.logLik) || math.IsInf(exp.logLik, 0) {
		return nil, errors.Errorf("non-finite log-likelihood %g", exp.logLik)
	}
	return exp, nil
}
