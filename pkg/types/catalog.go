package types

import (
	"fmt"
	"sort"
)

// DataError reports a catalog that violates the data-model invariants.
// It is raised at construction time, the numerical core assumes a valid
// catalog and never re-validates.
type DataError struct {
	Index  int
	Reason string
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("catalog: %s", e.Reason)
	}
	return fmt.Sprintf("catalog: event #%d: %s", e.Index, e.Reason)
}

// Catalog is an immutable, time-ordered set of observed events together with
// the spatial region, observation window and completeness threshold they were
// recorded under.
type Catalog struct {
	Events []Event    `json:"events"`
	Region Region     `json:"region"`
	Window TimeWindow `json:"window"`

	// Mc is the magnitude of completeness, supplied by an external estimator.
	Mc float64 `json:"mc"`
}

// NewCatalog sorts the events by time and validates the catalog invariants:
// a positive-length window, all event times inside the window and all
// magnitudes at or above Mc.
func NewCatalog(events []Event, region Region, window TimeWindow, mc float64) (*Catalog, error) {
	if window.Length() <= 0 {
		return nil, &DataError{Index: -1, Reason: fmt.Sprintf("non-positive time window [%g, %g]", window.Start, window.End)}
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	for i, e := range sorted {
		if !window.Contains(e.Time) {
			return nil, &DataError{Index: i, Reason: fmt.Sprintf("time %g outside window [%g, %g]", e.Time, window.Start, window.End)}
		}
		if e.Magnitude < mc {
			return nil, &DataError{Index: i, Reason: fmt.Sprintf("magnitude %g below completeness %g", e.Magnitude, mc)}
		}
	}

	return &Catalog{
		Events: sorted,
		Region: region,
		Window: window,
		Mc:     mc,
	}, nil
}

func (c *Catalog) Len() int {
	return len(c.Events)
}

// Tail returns the events with time >= from, preserving order. Continuation
// mode seeds the simulator with the tail of an observed catalog.
func (c *Catalog) Tail(from float64) []Event {
	idx := sort.Search(len(c.Events), func(i int) bool {
		return c.Events[i].Time >= from
	})
	return c.Events[idx:]
}

// Magnitudes returns the magnitude column.
func (c *Catalog) Magnitudes() []float64 {
	mags := make([]float64, len(c.Events))
	for i, e := range c.Events {
		mags[i] = e.Magnitude
	}
	return mags
}
