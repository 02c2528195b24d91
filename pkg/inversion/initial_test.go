package inversion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakelab/etas/pkg/kernel"
)

func Test_searchInitial(t *testing.T) {
	cat := clusteredCatalog(t)
	store := buildPairs(cat, 365, 50)
	beta := kernel.EstimateBeta(cat.Magnitudes(), cat.Mc, 0)
	require.Greater(t, beta, 0.0)

	ranges := DefaultRanges()
	params, err := searchInitial(cat, store, beta, ranges, 8, InitialAlgorithmRandom)
	require.NoError(t, err)
	require.NoError(t, params.Validate())

	assert.Equal(t, beta, params.Beta)
	assert.Greater(t, params.Mu, 0.0)

	within := func(v float64, r Range) bool { return v >= r.Min && v <= r.Max }
	assert.True(t, within(params.K0, ranges.K0))
	assert.True(t, within(params.Alpha, ranges.Alpha))
	assert.True(t, within(params.C, ranges.C))
	assert.True(t, within(params.P, ranges.P))
	assert.True(t, within(params.D, ranges.D))
	assert.True(t, within(params.Gamma, ranges.Gamma))
	assert.True(t, within(params.Rho, ranges.Rho))
}

func Test_constantMuLogLik(t *testing.T) {
	cat := threeEventCatalog(t)
	store := buildPairs(cat, 365, 50)

	ll := constantMuLogLik(cat, store, threeEventParams())
	assert.False(t, math.IsNaN(ll))
	assert.Less(t, ll, 0.0)

	// a vastly overstated background rate pays for its window integral
	bad := threeEventParams()
	bad.Mu = 10
	assert.Less(t, constantMuLogLik(cat, store, bad), ll)
}
