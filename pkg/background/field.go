package background

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/quakelab/etas/pkg/types"
)

// Field is a spatial background intensity over a region, represented as an
// adaptive-bandwidth gaussian mixture over weighted event locations plus a
// uniform regularization floor. Rates are events per km² per day.
//
// While the field carries mass, the floor keeps it strictly positive
// everywhere in the region; a zero-density point would make the inversion
// log-likelihood undefined. A field built from all-zero weights carries no
// mass and evaluates to zero.
type Field struct {
	region    types.Region
	perDay    float64 // expected background events per day over the region
	floorFrac float64 // share of mass assigned to the uniform floor

	points []point
	cum    []float64 // cumulative weights for mixture sampling
	total  float64
}

type point struct {
	x, y float64
	w    float64 // background probability weight
	h    float64 // bandwidth, km
}

// Uniform returns a flat field with rate mu everywhere in the region. Used in
// fresh-start simulations when no fitted field is available.
func Uniform(region types.Region, mu float64) *Field {
	return &Field{
		region:    region,
		perDay:    mu * region.Area(),
		floorFrac: 1,
	}
}

func (f *Field) Region() types.Region {
	return f.region
}

// RatePerDay is the field integrated over the region, events per day.
func (f *Field) RatePerDay() float64 {
	return f.perDay
}

// ExpectedCount is the expected number of background events over a horizon of
// the given length in days.
func (f *Field) ExpectedCount(days float64) float64 {
	return f.perDay * days
}

// RateAt evaluates the intensity at a location. Strictly positive inside the
// region as long as the field carries any mass.
func (f *Field) RateAt(x, y float64) float64 {
	area := f.region.Area()
	rate := f.perDay * f.floorFrac / area
	if f.total <= 0 {
		return rate
	}
	var kde float64
	for _, pt := range f.points {
		dx := x - pt.x
		dy := y - pt.y
		h2 := pt.h * pt.h
		kde += pt.w * math.Exp(-(dx*dx+dy*dy)/(2*h2)) / (2 * math.Pi * h2)
	}
	return rate + f.perDay*(1-f.floorFrac)*kde/f.total
}

// Sample draws a location from the field: a uniform draw for the floor share,
// otherwise a mixture component chosen by weight with a gaussian jitter.
// Draws landing outside the region are rejected and retried.
func (f *Field) Sample(rng *rand.Rand) (x, y float64) {
	for {
		if f.total <= 0 || rng.Float64() < f.floorFrac {
			x = f.region.MinX + rng.Float64()*(f.region.MaxX-f.region.MinX)
			y = f.region.MinY + rng.Float64()*(f.region.MaxY-f.region.MinY)
			return x, y
		}

		target := rng.Float64() * f.total
		idx := 0
		for idx < len(f.cum)-1 && f.cum[idx] < target {
			idx++
		}
		pt := f.points[idx]
		x = pt.x + rng.NormFloat64()*pt.h
		y = pt.y + rng.NormFloat64()*pt.h
		if f.region.Contains(x, y) {
			return x, y
		}
	}
}
