package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewCatalog_sortsByTime(t *testing.T) {
	events := []Event{
		{Time: 5, Magnitude: 3.5},
		{Time: 1, Magnitude: 4.0},
		{Time: 3, Magnitude: 3.0},
	}
	cat, err := NewCatalog(events, Region{MinX: -10, MaxX: 10, MinY: -10, MaxY: 10}, TimeWindow{Start: 0, End: 10}, 3.0)
	require.NoError(t, err)
	require.Equal(t, 3, cat.Len())
	assert.Equal(t, []float64{4.0, 3.0, 3.5}, cat.Magnitudes())

	// the input slice is left untouched
	assert.Equal(t, 5.0, events[0].Time)
}

func Test_NewCatalog_rejectsInvalid(t *testing.T) {
	region := Region{MinX: -10, MaxX: 10, MinY: -10, MaxY: 10}

	_, err := NewCatalog(nil, region, TimeWindow{Start: 5, End: 5}, 3.0)
	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, -1, dataErr.Index)

	_, err = NewCatalog([]Event{{Time: 11, Magnitude: 4}}, region, TimeWindow{Start: 0, End: 10}, 3.0)
	require.ErrorAs(t, err, &dataErr)
	assert.Contains(t, dataErr.Error(), "outside window")

	_, err = NewCatalog([]Event{{Time: 1, Magnitude: 2.9}}, region, TimeWindow{Start: 0, End: 10}, 3.0)
	require.ErrorAs(t, err, &dataErr)
	assert.Contains(t, dataErr.Error(), "below completeness")
}

func Test_Catalog_Tail(t *testing.T) {
	cat, err := NewCatalog([]Event{
		{Time: 1, Magnitude: 3},
		{Time: 2, Magnitude: 3},
		{Time: 8, Magnitude: 3},
	}, Region{MaxX: 1, MaxY: 1}, TimeWindow{End: 10}, 3.0)
	require.NoError(t, err)

	assert.Len(t, cat.Tail(0), 3)
	assert.Len(t, cat.Tail(2), 2)
	assert.Len(t, cat.Tail(2.1), 1)
	assert.Empty(t, cat.Tail(9))
}

func Test_Event_DistSq(t *testing.T) {
	a := Event{X: 0, Y: 0, Depth: 10}
	b := Event{X: 3, Y: 4, Depth: 20}
	// depth is ignored
	assert.Equal(t, 25.0, a.DistSq(b))
	assert.Equal(t, 25.0, b.DistSq(a))
	assert.Zero(t, a.DistSq(a))
}

func Test_Region(t *testing.T) {
	r := Region{MinX: -1, MaxX: 1, MinY: -2, MaxY: 2}
	assert.Equal(t, 8.0, r.Area())
	assert.True(t, r.Contains(0, 0))
	assert.True(t, r.Contains(1, 2))
	assert.False(t, r.Contains(1.01, 0))

	grown := r.Expand(1)
	assert.Equal(t, Region{MinX: -2, MaxX: 2, MinY: -3, MaxY: 3}, grown)
}

func Test_RegionFromEvents(t *testing.T) {
	assert.Equal(t, Region{}, RegionFromEvents(nil))

	r := RegionFromEvents([]Event{
		{X: 1, Y: -5},
		{X: -3, Y: 2},
		{X: 0, Y: 0},
	})
	assert.Equal(t, Region{MinX: -3, MaxX: 1, MinY: -5, MaxY: 2}, r)
}

func Test_SimEvent_IsBackground(t *testing.T) {
	assert.True(t, SimEvent{Parent: BackgroundParent}.IsBackground())
	assert.False(t, SimEvent{Parent: 0}.IsBackground())
}
