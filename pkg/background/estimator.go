package background

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quakelab/etas/pkg/types"
)

var log = logrus.WithField("component", "background")

// Options controls the adaptive kernel density estimate.
type Options struct {
	// NearestK sets the neighbor rank used for the adaptive bandwidth: each
	// event gets the distance to its NearestK-th neighbor, so sparse regions
	// are smoothed wider.
	NearestK int `json:"nearestK" yaml:"nearestK"`

	// MinBandwidth floors the per-event bandwidth in km.
	MinBandwidth float64 `json:"minBandwidth" yaml:"minBandwidth"`

	// FloorFraction is the share of background mass spread uniformly over the
	// region. Must be positive so the field never vanishes.
	FloorFraction float64 `json:"floorFraction" yaml:"floorFraction"`
}

func (o Options) withDefaults() Options {
	if o.NearestK <= 0 {
		o.NearestK = 5
	}
	if o.MinBandwidth <= 0 {
		o.MinBandwidth = 0.5
	}
	if o.FloorFraction <= 0 {
		o.FloorFraction = 0.01
	}
	if o.FloorFraction > 1 {
		o.FloorFraction = 1
	}
	return o
}

// Estimate builds the background field from event locations and their current
// background-probability weights. The field is normalized so that its
// integral over the region times windowDays matches the expected background
// count (the sum of weights).
func Estimate(events []types.Event, weights []float64, region types.Region, windowDays float64, opts Options) (*Field, error) {
	if len(events) != len(weights) {
		return nil, errors.Errorf("background: %d events but %d weights", len(events), len(weights))
	}
	if windowDays <= 0 {
		return nil, errors.Errorf("background: non-positive window %g", windowDays)
	}
	opts = opts.withDefaults()

	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, errors.Errorf("background: invalid weight %g for event #%d", w, i)
		}
		total += w
	}
	if total == 0 {
		log.Warn("all background weights are zero, the field carries no mass and evaluates to zero")
	}

	bw := bandwidths(events, opts.NearestK, opts.MinBandwidth)

	f := &Field{
		region:    region,
		perDay:    total / windowDays,
		floorFrac: opts.FloorFraction,
		points:    make([]point, 0, len(events)),
		total:     total,
	}
	var cum float64
	for i, e := range events {
		if weights[i] == 0 {
			continue
		}
		cum += weights[i]
		f.points = append(f.points, point{x: e.X, y: e.Y, w: weights[i], h: bw[i]})
		f.cum = append(f.cum, cum)
	}
	if len(f.points) == 0 {
		f.total = 0
		f.floorFrac = 1
	}
	return f, nil
}

// bandwidths returns, per event, the distance to the k-th nearest neighbor
// floored at hMin. Quadratic scan, the catalog sizes the inversion handles
// keep this well below the cost of one E-step.
func bandwidths(events []types.Event, k int, hMin float64) []float64 {
	n := len(events)
	out := make([]float64, n)
	dists := make([]float64, 0, n)
	for i := range events {
		dists = dists[:0]
		for j := range events {
			if i == j {
				continue
			}
			dists = append(dists, events[i].DistSq(events[j]))
		}
		if len(dists) < k {
			out[i] = hMin
			continue
		}
		sort.Float64s(dists)
		h := math.Sqrt(dists[k-1])
		if h < hMin {
			h = hMin
		}
		out[i] = h
	}
	return out
}
