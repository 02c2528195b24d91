package types

// Event is a single earthquake record. Time is measured in days from the
// catalog epoch, X and Y are projected coordinates in km, Depth is in km.
type Event struct {
	Time      float64 `json:"time" csv:"time"`
	X         float64 `json:"x" csv:"x"`
	Y         float64 `json:"y" csv:"y"`
	Depth     float64 `json:"depth" csv:"depth"`
	Magnitude float64 `json:"magnitude" csv:"magnitude"`
}

// DistSq returns the squared epicentral distance to another event in km².
// Depth is ignored, the triggering kernels are defined on the surface plane.
func (e Event) DistSq(o Event) float64 {
	dx := e.X - o.X
	dy := e.Y - o.Y
	return dx*dx + dy*dy
}

// BackgroundParent marks a simulated event with no ancestor.
const BackgroundParent = -1

// SimEvent is an Event generated by the simulation engine, carrying its
// position in the branching forest.
type SimEvent struct {
	Event

	// Parent is the arena index of the triggering event, or BackgroundParent.
	Parent     int `json:"parent"`
	Generation int `json:"generation"`
}

// IsBackground reports whether the event was drawn from the background field
// rather than triggered by an ancestor.
func (e SimEvent) IsBackground() bool {
	return e.Parent == BackgroundParent
}
