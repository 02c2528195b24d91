package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakelab/etas/pkg/inversion"
	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/simulation"
	"github.com/quakelab/etas/pkg/types"
)

var testRegion = types.Region{MinX: -50, MaxX: 50, MinY: -50, MaxY: 50}

func testCatalog(t *testing.T) *types.Catalog {
	cat, err := types.NewCatalog([]types.Event{
		{Time: 5, X: 0, Y: 0, Magnitude: 5.0},
		{Time: 6, X: 1, Y: 1, Magnitude: 3.5},
		{Time: 20, X: -10, Y: 5, Magnitude: 3.2},
	}, testRegion, types.TimeWindow{Start: 0, End: 30}, 3.0)
	require.NoError(t, err)
	return cat
}

func fittedResult() *inversion.Result {
	return &inversion.Result{
		State: inversion.StateConverged,
		Params: kernel.Parameters{
			Mu: 1e-4, K0: 0.1, Alpha: 0.8, C: 0.01, P: 1.2,
			D: 1.0, Gamma: 0.5, Rho: 0.6, Beta: math.Log(10),
		},
	}
}

func Test_Forecaster_Run_continuation(t *testing.T) {
	cat := testCatalog(t)
	fitted := fittedResult()

	cfg := Config{HorizonDays: 10, Ensemble: 3, Seed: 100, Workers: 2}
	ens, err := New(cfg).Run(context.Background(), cat, fitted, inversion.Config{})
	require.NoError(t, err)

	assert.Equal(t, ModeContinuation, ens.Mode)
	assert.Equal(t, types.TimeWindow{Start: 30, End: 40}, ens.Horizon)
	assert.Equal(t, []uint64{100, 101, 102}, ens.Seeds)
	assert.Equal(t, fitted.Params, ens.Params)
	assert.Same(t, fitted, ens.Inversion)
	assert.Zero(t, ens.Overflows)

	require.Len(t, ens.Realizations, 3)
	for i, events := range ens.Realizations {
		for _, ev := range events {
			assert.True(t, ens.Horizon.Contains(ev.Time), "realization %d: time %g", i, ev.Time)
		}
	}

	// the ensemble is reproducible seed for seed
	again, err := New(cfg).Run(context.Background(), cat, fitted, inversion.Config{})
	require.NoError(t, err)
	assert.Equal(t, ens.Realizations, again.Realizations)
}

func Test_Forecaster_Run_freshStart(t *testing.T) {
	cat := testCatalog(t)

	cfg := Config{
		Mode:        ModeFreshStart,
		HorizonDays: 10,
		BurnInDays:  50,
		Ensemble:    2,
		Seed:        7,
	}
	ens, err := New(cfg).Run(context.Background(), cat, fittedResult(), inversion.Config{})
	require.NoError(t, err)

	for _, events := range ens.Realizations {
		for _, ev := range events {
			// burn-in events are clipped away
			assert.GreaterOrEqual(t, ev.Time, ens.Horizon.Start)
			if ev.Parent >= 0 {
				require.Less(t, ev.Parent, len(events))
				assert.LessOrEqual(t, events[ev.Parent].Time, ev.Time)
			}
		}
	}
}

func Test_Forecaster_Run_seedLookback(t *testing.T) {
	cat := testCatalog(t)

	// only the last event of the catalog acts as an ancestor, so nothing can
	// be triggered by the mainshock at t=5
	cfg := Config{HorizonDays: 10, Ensemble: 1, Seed: 1, SeedLookbackDays: 5}
	ens, err := New(cfg).Run(context.Background(), cat, fittedResult(), inversion.Config{})
	require.NoError(t, err)
	require.Len(t, ens.Realizations, 1)
}

func Test_Forecaster_Run_countsOverflows(t *testing.T) {
	cat := testCatalog(t)

	fitted := fittedResult()
	fitted.Params.K0 = 2.0
	fitted.Params.Alpha = 0.5 // super-critical

	cfg := Config{
		HorizonDays: 100,
		Ensemble:    2,
		Seed:        3,
		Simulation:  simulation.Config{MaxEvents: 50},
	}
	ens, err := New(cfg).Run(context.Background(), cat, fitted, inversion.Config{})
	require.NoError(t, err)

	// overflowed realizations are dropped, not fatal
	assert.Greater(t, ens.Overflows, 0)
	dropped := 0
	for _, r := range ens.Realizations {
		if r == nil {
			dropped++
		}
	}
	assert.Equal(t, ens.Overflows, dropped)
}

func Test_Config_withDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, ModeContinuation, cfg.Mode)
	assert.Equal(t, 30.0, cfg.HorizonDays)
	assert.Equal(t, 1, cfg.Ensemble)
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Greater(t, cfg.Workers, 0)
}

func Test_clipToHorizon(t *testing.T) {
	horizon := types.TimeWindow{Start: 10, End: 20}
	events := []types.SimEvent{
		{Event: types.Event{Time: 5}, Parent: types.BackgroundParent, Generation: 0},
		{Event: types.Event{Time: 8}, Parent: 0, Generation: 1},
		{Event: types.Event{Time: 12}, Parent: 1, Generation: 2},
		{Event: types.Event{Time: 15}, Parent: 2, Generation: 3},
		{Event: types.Event{Time: 18}, Parent: types.BackgroundParent, Generation: 0},
	}

	out := clipToHorizon(events, horizon)
	require.Len(t, out, 3)

	// the parent left behind in the burn-in becomes an external ancestor
	assert.Equal(t, 12.0, out[0].Time)
	assert.Equal(t, simulation.ExternalParent, out[0].Parent)

	// surviving parents are remapped to the clipped slice
	assert.Equal(t, 15.0, out[1].Time)
	assert.Equal(t, 0, out[1].Parent)

	assert.Equal(t, 18.0, out[2].Time)
	assert.Equal(t, types.BackgroundParent, out[2].Parent)
}
