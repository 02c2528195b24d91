package simulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quakelab/etas/pkg/background"
	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/metrics"
	"github.com/quakelab/etas/pkg/types"
)

var log = logrus.WithField("component", "simulation")

// BoundaryPolicy decides what happens to offspring sampled outside the
// simulation region.
type BoundaryPolicy string

const (
	// BoundaryDiscard drops out-of-region offspring entirely (they spawn no
	// further offspring). The default.
	BoundaryDiscard BoundaryPolicy = "discard"
	// BoundaryKeep keeps out-of-region offspring in the output and lets them
	// keep triggering.
	BoundaryKeep BoundaryPolicy = "keep"
)

// ExternalParent marks a simulated event triggered by a seed-catalog ancestor
// that is not part of the synthetic output.
const ExternalParent = -2

// OverflowError reports a realization that exceeded the safety caps. The
// partial catalog is discarded, only this realization aborts.
type OverflowError struct {
	Events     int
	Generation int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("simulation overflow: %d events at generation %d exceed the configured caps", e.Events, e.Generation)
}

// IsOverflow reports whether err is a simulation overflow.
func IsOverflow(err error) bool {
	_, ok := err.(*OverflowError)
	return ok
}

// Config bounds one simulation run.
type Config struct {
	Horizon types.TimeWindow `json:"horizon" yaml:"horizon"`
	Region  types.Region     `json:"region" yaml:"region"`

	// Mc is the completeness threshold of the synthetic catalog; magnitudes
	// are sampled above Mc - DeltaM/2 and binned to DeltaM when positive.
	Mc     float64 `json:"mc" yaml:"mc"`
	DeltaM float64 `json:"deltaM" yaml:"deltaM"`

	// Safety caps. Exceeding either aborts the realization with an
	// OverflowError instead of running away on a super-critical draw.
	MaxEvents      int `json:"maxEvents" yaml:"maxEvents"`
	MaxGenerations int `json:"maxGenerations" yaml:"maxGenerations"`

	Boundary BoundaryPolicy `json:"boundary" yaml:"boundary"`
}

func (c Config) withDefaults() Config {
	if c.MaxEvents <= 0 {
		c.MaxEvents = 1_000_000
	}
	if c.MaxGenerations <= 0 {
		c.MaxGenerations = 100
	}
	if c.Boundary == "" {
		c.Boundary = BoundaryDiscard
	}
	return c
}

// Engine generates branching-process realizations from fitted or supplied
// parameters. It is a pure function of its inputs and the random seed:
// identical seeds reproduce identical catalogs.
type Engine struct {
	Params kernel.Parameters
	Field  *background.Field
	Config Config
}

func New(params kernel.Parameters, field *background.Field, cfg Config) *Engine {
	return &Engine{Params: params, Field: field, Config: cfg.withDefaults()}
}

// node is an arena entry. Seed ancestors live in the arena so offspring can
// reference them, but are excluded from the output.
type node struct {
	ev   types.SimEvent
	seed bool
}

// Run simulates one realization. Seed events (continuation mode) act as
// already-realized ancestors: they contribute offspring into the horizon but
// are not re-sampled and do not appear in the output. The returned catalog is
// time-ordered; Parent fields index into the returned slice, with
// BackgroundParent for background events and ExternalParent for direct
// offspring of seed ancestors.
func (e *Engine) Run(seedEvents []types.Event, seed uint64) ([]types.SimEvent, error) {
	cfg := e.Config.withDefaults()
	rng := rand.New(rand.NewSource(seed))

	effMc := cfg.Mc - cfg.DeltaM/2
	horizon := cfg.Horizon

	arena := make([]node, 0, 1024)
	for _, ev := range seedEvents {
		arena = append(arena, node{ev: types.SimEvent{Event: ev, Parent: types.BackgroundParent}, seed: true})
	}
	numSeeds := len(arena)

	// generation 0: background events drawn from the field. Only synthetic
	// events count against the cap, seed ancestors are free.
	lambda := e.Field.ExpectedCount(horizon.Length())
	nbg := poisson(rng, lambda)
	if nbg > cfg.MaxEvents {
		metrics.SimulationOverflows.Inc()
		return nil, &OverflowError{Events: nbg, Generation: 0}
	}
	for i := 0; i < nbg; i++ {
		x, y := e.Field.Sample(rng)
		t := horizon.Start + rng.Float64()*horizon.Length()
		m := e.Params.SampleMagnitude(rng.Float64(), effMc)
		arena = append(arena, node{ev: types.SimEvent{
			Event:  types.Event{Time: t, X: x, Y: y, Magnitude: m},
			Parent: types.BackgroundParent,
		}})
	}
	log.Debugf("seed=%d: %d background events (lambda=%.2f), %d ancestors", seed, nbg, lambda, numSeeds)

	// breadth-first over generations; every event spawns a Poisson number of
	// direct offspring with mean kappa(m), clipped to the horizon.
	frontier := make([]int, 0, len(arena))
	for i := range arena {
		frontier = append(frontier, i)
	}

	for gen := 0; len(frontier) > 0; gen++ {
		if gen >= cfg.MaxGenerations {
			metrics.SimulationOverflows.Inc()
			return nil, &OverflowError{Events: len(arena), Generation: gen}
		}

		var next []int
		for _, src := range frontier {
			parent := arena[src].ev
			dm := parent.Magnitude - cfg.Mc
			n := poisson(rng, e.Params.Productivity(dm))
			for k := 0; k < n; k++ {
				dt := e.Params.SampleDelay(rng.Float64())
				r := e.Params.SampleRadius(rng.Float64(), dm)
				phi := rng.Float64() * 2 * math.Pi
				m := e.Params.SampleMagnitude(rng.Float64(), effMc)

				t := parent.Time + dt
				x := parent.X + r*math.Sin(phi)
				y := parent.Y + r*math.Cos(phi)

				if t <= horizon.Start || t > horizon.End {
					continue
				}
				if cfg.Boundary == BoundaryDiscard && !cfg.Region.Contains(x, y) {
					continue
				}

				arena = append(arena, node{ev: types.SimEvent{
					Event:      types.Event{Time: t, X: x, Y: y, Magnitude: m},
					Parent:     src,
					Generation: parent.Generation + 1,
				}})
				next = append(next, len(arena)-1)

				if len(arena)-numSeeds > cfg.MaxEvents {
					metrics.SimulationOverflows.Inc()
					return nil, &OverflowError{Events: len(arena) - numSeeds, Generation: gen + 1}
				}
			}
		}
		frontier = next
	}

	out := e.flatten(arena, numSeeds, cfg)
	metrics.SimulatedEvents.Add(float64(len(out)))
	return out, nil
}

// flatten drops the seed ancestors, orders the synthetic events by time and
// remaps parent links to indices in the output slice.
func (e *Engine) flatten(arena []node, numSeeds int, cfg Config) []types.SimEvent {
	order := make([]int, 0, len(arena)-numSeeds)
	for i := numSeeds; i < len(arena); i++ {
		order = append(order, i)
	}
	// order by time; ties keep arena (generation) order.
	sort.SliceStable(order, func(a, b int) bool {
		return arena[order[a]].ev.Time < arena[order[b]].ev.Time
	})

	newIndex := make(map[int]int, len(order))
	for newI, oldI := range order {
		newIndex[oldI] = newI
	}

	out := make([]types.SimEvent, 0, len(order))
	for _, oldI := range order {
		ev := arena[oldI].ev
		switch {
		case ev.Parent == types.BackgroundParent:
		case arena[ev.Parent].seed:
			ev.Parent = ExternalParent
		default:
			ev.Parent = newIndex[ev.Parent]
		}
		if cfg.DeltaM > 0 {
			ev.Magnitude = kernel.RoundHalfUp(ev.Magnitude, cfg.DeltaM)
		}
		out = append(out, ev)
	}
	return out
}

// poisson draws a Poisson count using the run's own random stream, so
// realizations stay independent and reproducible.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	p := distuv.Poisson{Lambda: lambda, Src: rng}
	return int(p.Rand())
}
