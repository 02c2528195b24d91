package types

// Region is an axis-aligned rectangle in projected coordinates (km).
// Catalog filtering and boundary policies for simulated offspring both use it.
type Region struct {
	MinX float64 `json:"minX" yaml:"minX"`
	MaxX float64 `json:"maxX" yaml:"maxX"`
	MinY float64 `json:"minY" yaml:"minY"`
	MaxY float64 `json:"maxY" yaml:"maxY"`
}

func (r Region) Area() float64 {
	return (r.MaxX - r.MinX) * (r.MaxY - r.MinY)
}

func (r Region) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Expand returns a region grown by pad km on every side.
func (r Region) Expand(pad float64) Region {
	return Region{
		MinX: r.MinX - pad,
		MaxX: r.MaxX + pad,
		MinY: r.MinY - pad,
		MaxY: r.MaxY + pad,
	}
}

// RegionFromEvents returns the bounding rectangle of the given events.
func RegionFromEvents(events []Event) Region {
	if len(events) == 0 {
		return Region{}
	}

	r := Region{
		MinX: events[0].X, MaxX: events[0].X,
		MinY: events[0].Y, MaxY: events[0].Y,
	}
	for _, e := range events[1:] {
		if e.X < r.MinX {
			r.MinX = e.X
		}
		if e.X > r.MaxX {
			r.MaxX = e.X
		}
		if e.Y < r.MinY {
			r.MinY = e.Y
		}
		if e.Y > r.MaxY {
			r.MaxY = e.Y
		}
	}
	return r
}

// TimeWindow is the observation window of a catalog, in days from the epoch.
type TimeWindow struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

func (w TimeWindow) Length() float64 {
	return w.End - w.Start
}

func (w TimeWindow) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}
