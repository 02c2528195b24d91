package forecast

import (
	"context"
	"runtime"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/quakelab/etas/pkg/background"
	"github.com/quakelab/etas/pkg/inversion"
	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/metrics"
	"github.com/quakelab/etas/pkg/simulation"
	"github.com/quakelab/etas/pkg/types"
)

var log = logrus.WithField("component", "forecast")

// Mode selects how a forecast is seeded.
type Mode string

const (
	// ModeContinuation seeds the simulation with the tail of the observed
	// catalog, forecasting forward from its end.
	ModeContinuation Mode = "continuation"
	// ModeFreshStart simulates a burn-in period before the horizon and
	// discards the burn-in events, keeping them only as ancestors.
	ModeFreshStart Mode = "fresh-start"
)

// Config controls one forecast request.
type Config struct {
	Mode        Mode    `json:"mode" yaml:"mode"`
	HorizonDays float64 `json:"horizonDays" yaml:"horizonDays"`

	// Ensemble is the number of independent stochastic realizations.
	Ensemble int    `json:"ensemble" yaml:"ensemble"`
	Seed     uint64 `json:"seed" yaml:"seed"`

	// SeedLookbackDays bounds how much of the observed catalog tail acts as
	// ancestors in continuation mode. Zero means the whole catalog.
	SeedLookbackDays float64 `json:"seedLookbackDays" yaml:"seedLookbackDays"`

	// BurnInDays is the warm-up period of fresh-start mode.
	BurnInDays float64 `json:"burnInDays" yaml:"burnInDays"`

	// Workers caps the number of concurrent realizations, GOMAXPROCS when 0.
	Workers  int  `json:"workers" yaml:"workers"`
	Progress bool `json:"progress" yaml:"progress"`

	Simulation simulation.Config `json:"simulation" yaml:"simulation"`
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeContinuation
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.Ensemble <= 0 {
		c.Ensemble = 1
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Ensemble is the outcome of a forecast request: one synthetic catalog per
// surviving realization, plus the parameters they were generated under.
type Ensemble struct {
	ID      uuid.UUID         `json:"id"`
	Mode    Mode              `json:"mode"`
	Params  kernel.Parameters `json:"parameters"`
	Horizon types.TimeWindow  `json:"horizon"`

	// Realizations holds the synthetic catalogs; Seeds[i] is the random seed
	// realization i was generated with.
	Realizations [][]types.SimEvent `json:"-"`
	Seeds        []uint64           `json:"seeds"`

	// Overflows counts realizations dropped by the simulation safety caps.
	Overflows int `json:"overflows"`

	Inversion *inversion.Result `json:"inversion,omitempty"`
}

// Forecaster composes the inversion and simulation engines.
type Forecaster struct {
	Config Config
}

func New(cfg Config) *Forecaster {
	return &Forecaster{Config: cfg.withDefaults()}
}

// Run produces an ensemble forecast from an observed catalog. When fitted is
// nil the inversion engine is run first with invCfg; otherwise the supplied
// result (externally obtained parameters and field) is used as-is.
func (f *Forecaster) Run(ctx context.Context, cat *types.Catalog, fitted *inversion.Result, invCfg inversion.Config) (*Ensemble, error) {
	cfg := f.Config.withDefaults()

	if fitted == nil {
		log.Info("no fitted parameters supplied, running inversion")
		var err error
		fitted, err = inversion.New(invCfg).Run(ctx, cat)
		if err != nil {
			return nil, errors.Wrap(err, "forecast")
		}
	}

	field := fitted.Field
	if field == nil {
		field = background.Uniform(cat.Region, fitted.Params.Mu)
	}

	horizon := types.TimeWindow{Start: cat.Window.End, End: cat.Window.End + cfg.HorizonDays}

	simCfg := cfg.Simulation
	simCfg.Region = cat.Region
	simCfg.Mc = cat.Mc

	var seedEvents []types.Event
	switch cfg.Mode {
	case ModeFreshStart:
		// burn-in: extend the horizon backwards, drop pre-horizon events
		// after the run.
		simCfg.Horizon = types.TimeWindow{Start: horizon.Start - cfg.BurnInDays, End: horizon.End}
	default:
		simCfg.Horizon = horizon
		from := cat.Window.Start
		if cfg.SeedLookbackDays > 0 {
			from = cat.Window.End - cfg.SeedLookbackDays
		}
		seedEvents = cat.Tail(from)
	}

	engine := simulation.New(fitted.Params, field, simCfg)

	ens := &Ensemble{
		ID:           uuid.New(),
		Mode:         cfg.Mode,
		Params:       fitted.Params,
		Horizon:      horizon,
		Realizations: make([][]types.SimEvent, cfg.Ensemble),
		Seeds:        make([]uint64, cfg.Ensemble),
		Inversion:    fitted,
	}

	var bar *pb.ProgressBar
	if cfg.Progress {
		bar = pb.Full.Start(cfg.Ensemble)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := 0; i < cfg.Ensemble; i++ {
		i := i
		seed := cfg.Seed + uint64(i)
		ens.Seeds[i] = seed
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			events, err := engine.Run(seedEvents, seed)
			if err != nil {
				if simulation.IsOverflow(err) {
					log.WithError(err).Warnf("realization %d dropped", i)
					mu.Lock()
					ens.Overflows++
					mu.Unlock()
					if bar != nil {
						bar.Increment()
					}
					return nil
				}
				return err
			}
			if cfg.Mode == ModeFreshStart {
				events = clipToHorizon(events, horizon)
			}
			ens.Realizations[i] = events
			metrics.EnsembleRealizations.Inc()
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "forecast")
	}
	if bar != nil {
		bar.Finish()
	}

	log.Infof("ensemble %s done: %d realizations, %d overflowed", ens.ID, cfg.Ensemble, ens.Overflows)
	return ens, nil
}

// clipToHorizon drops burn-in events and remaps parent links; parents left
// behind in the burn-in become external ancestors.
func clipToHorizon(events []types.SimEvent, horizon types.TimeWindow) []types.SimEvent {
	newIndex := make(map[int]int, len(events))
	out := make([]types.SimEvent, 0, len(events))
	for i, ev := range events {
		if ev.Time < horizon.Start {
			continue
		}
		newIndex[i] = len(out)
		out = append(out, ev)
	}
	for i := range out {
		p := out[i].Parent
		if p < 0 {
			continue
		}
		if ni, ok := newIndex[p]; ok {
			out[i].Parent = ni
		} else {
			out[i].Parent = simulation.ExternalParent
		}
	}
	return out
}
