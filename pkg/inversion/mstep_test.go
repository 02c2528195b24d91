package inversion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakelab/etas/pkg/kernel"
)

func Test_minimizeScalar(t *testing.T) {
	x, err := minimizeScalar(func(x float64) float64 {
		return (x - 1.3) * (x - 1.3)
	}, Range{Min: 0.01, Max: 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.3, x, 1e-6)

	// minimum on the boundary
	x, err = minimizeScalar(func(x float64) float64 { return x }, Range{Min: 0.5, Max: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, x, 1e-6)
}

// With expected offspring counts generated exactly by a known productivity
// law, the profile likelihood must recover it.
func Test_fitProductivity_recoversTruth(t *testing.T) {
	const (
		k0True    = 0.15
		alphaTrue = 0.9
	)
	params := threeEventParams()
	params.C = 0.01
	params.P = 1.5 // fast decay so the window clipping is negligible

	deltaM := []float64{0, 0.3, 0.8, 1.2, 1.7, 2.5, 0.1, 0.6}
	store := &pairStore{
		srcDeltaM: deltaM,
		srcToEnd:  make([]float64, len(deltaM)),
	}
	lHat := make([]float64, len(deltaM))
	for i, dm := range deltaM {
		store.srcToEnd[i] = 1e6
		lHat[i] = k0True * math.Pow(10, alphaTrue*dm) * params.TemporalFraction(0, 1e6)
	}

	k0, alpha, err := fitProductivity(store, lHat, params, DefaultRanges())
	require.NoError(t, err)
	assert.InDelta(t, alphaTrue, alpha, 1e-3)
	assert.InEpsilon(t, k0True, k0, 1e-2)
}

func Test_fitProductivity_noTriggeredMass(t *testing.T) {
	store := &pairStore{
		srcDeltaM: []float64{0, 1},
		srcToEnd:  []float64{10, 10},
	}
	_, _, err := fitProductivity(store, []float64{0, 0}, threeEventParams(), DefaultRanges())
	assert.Error(t, err)
}

func Test_paramDiff(t *testing.T) {
	a := threeEventParams()
	assert.Zero(t, paramDiff(a, a))

	// scale parameters compare in log10 space: one decade counts as 1
	b := a
	b.C = a.C * 10
	assert.InDelta(t, 1.0, paramDiff(a, b), 1e-9)

	// shape parameters compare linearly
	c := a
	c.P = a.P + 0.25
	assert.InDelta(t, 0.25, paramDiff(a, c), 1e-9)

	d := a
	d.C *= 10
	d.P += 0.25
	assert.InDelta(t, 1.25, paramDiff(a, d), 1e-9)
}
