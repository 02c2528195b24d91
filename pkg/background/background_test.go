package background

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/quakelab/etas/pkg/types"
)

var testRegion = types.Region{MinX: -50, MaxX: 50, MinY: -50, MaxY: 50}

func Test_Uniform(t *testing.T) {
	f := Uniform(testRegion, 0.001)

	assert.Equal(t, testRegion, f.Region())
	assert.InEpsilon(t, 0.001*testRegion.Area(), f.RatePerDay(), 1e-12)
	assert.InEpsilon(t, 0.001*testRegion.Area()*30, f.ExpectedCount(30), 1e-12)

	// flat everywhere
	assert.InEpsilon(t, 0.001, f.RateAt(0, 0), 1e-12)
	assert.InEpsilon(t, 0.001, f.RateAt(-49, 49), 1e-12)
}

func Test_Estimate_rejectsBadInput(t *testing.T) {
	events := []types.Event{{X: 0, Y: 0}}

	_, err := Estimate(events, nil, testRegion, 10, Options{})
	assert.Error(t, err)

	_, err = Estimate(events, []float64{-0.5}, testRegion, 10, Options{})
	assert.Error(t, err)

	_, err = Estimate(events, []float64{0.5}, testRegion, 0, Options{})
	assert.Error(t, err)
}

func Test_Estimate_massAndPositivity(t *testing.T) {
	events := []types.Event{
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: -2, Y: 3}, {X: 30, Y: -20}, {X: 5, Y: 5},
	}
	weights := []float64{0.9, 0.1, 0.5, 0.8, 0.3}
	const windowDays = 100.0

	f, err := Estimate(events, weights, testRegion, windowDays, Options{})
	require.NoError(t, err)

	var total float64
	for _, w := range weights {
		total += w
	}
	assert.InEpsilon(t, total/windowDays, f.RatePerDay(), 1e-12)
	assert.InEpsilon(t, total, f.ExpectedCount(windowDays), 1e-12)

	// the uniform floor keeps the field positive even far from any event
	for x := -50.0; x <= 50; x += 10 {
		for y := -50.0; y <= 50; y += 10 {
			assert.Greater(t, f.RateAt(x, y), 0.0, "x=%g y=%g", x, y)
		}
	}

	// density concentrates near the weighted events
	assert.Greater(t, f.RateAt(0, 0), f.RateAt(-45, -45))
}

func Test_Estimate_zeroWeights(t *testing.T) {
	events := []types.Event{{X: 0, Y: 0}, {X: 1, Y: 1}}
	f, err := Estimate(events, []float64{0, 0}, testRegion, 10, Options{})
	require.NoError(t, err)

	// a field without mass is zero, not uniform
	assert.Zero(t, f.RatePerDay())
	assert.Zero(t, f.ExpectedCount(10))
	assert.Zero(t, f.RateAt(0, 0))
}

func Test_Field_Sample(t *testing.T) {
	events := []types.Event{
		{X: 10, Y: 10}, {X: -10, Y: -10}, {X: 0, Y: 20}, {X: 15, Y: -5},
	}
	weights := []float64{1, 1, 0.5, 0.2}
	f, err := Estimate(events, weights, testRegion, 50, Options{})
	require.NoError(t, err)

	draw := func(seed uint64) [][2]float64 {
		rng := rand.New(rand.NewSource(seed))
		out := make([][2]float64, 100)
		for i := range out {
			x, y := f.Sample(rng)
			out[i] = [2]float64{x, y}
		}
		return out
	}

	first := draw(7)
	for _, pt := range first {
		assert.True(t, testRegion.Contains(pt[0], pt[1]))
	}

	// identical seeds replay the identical sequence
	assert.Equal(t, first, draw(7))
	assert.NotEqual(t, first, draw(8))
}

func Test_bandwidths(t *testing.T) {
	// fewer neighbors than k falls back to the floor
	few := bandwidths([]types.Event{{X: 0}, {X: 1}}, 5, 0.5)
	assert.Equal(t, []float64{0.5, 0.5}, few)

	events := []types.Event{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 100, Y: 0},
	}
	bw := bandwidths(events, 2, 0.5)
	// the isolated event smooths wide, the clustered ones stay near the floor
	assert.InDelta(t, 2.0, bw[0], 1e-12)
	assert.InDelta(t, 99.0, bw[3], 1e-12)
	for _, h := range bw {
		assert.GreaterOrEqual(t, h, 0.5)
	}
}
