// Package catalogio holds the thin I/O wrappers around the numerical core:
// CSV catalogs in, CSV synthetic catalogs and JSON fit results out. The core
// itself never touches the filesystem.
package catalogio

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/quakelab/etas/pkg/forecast"
	"github.com/quakelab/etas/pkg/kernel"
	"github.com/quakelab/etas/pkg/types"
)

var catalogHeader = []string{"time", "x", "y", "depth", "magnitude"}

// ReadCatalog loads a catalog CSV with columns time,x,y,depth,magnitude.
// Magnitudes are binned to deltaM when positive and events below mc are
// dropped; region and window default to the data extent when nil.
func ReadCatalog(path string, region *types.Region, window *types.TimeWindow, mc, deltaM float64) (*types.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}
	defer f.Close()

	events, err := readEvents(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}

	kept := events[:0]
	for _, e := range events {
		if deltaM > 0 {
			e.Magnitude = kernel.RoundHalfUp(e.Magnitude, deltaM)
		}
		if e.Magnitude < mc {
			continue
		}
		kept = append(kept, e)
	}

	reg := types.RegionFromEvents(kept)
	if region != nil {
		reg = *region
	}
	win := windowFromEvents(kept)
	if window != nil {
		win = *window
	}
	return types.NewCatalog(kept, reg, win, mc)
}

func windowFromEvents(events []types.Event) types.TimeWindow {
	if len(events) == 0 {
		return types.TimeWindow{}
	}
	w := types.TimeWindow{Start: events[0].Time, End: events[0].Time}
	for _, e := range events[1:] {
		if e.Time < w.Start {
			w.Start = e.Time
		}
		if e.Time > w.End {
			w.End = e.Time
		}
	}
	// half-open guard so the last event stays strictly inside
	w.End += 1e-6
	return w
}

func readEvents(r io.Reader) ([]types.Event, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range catalogHeader {
		if name == "depth" {
			continue // optional
		}
		if _, ok := col[name]; !ok {
			return nil, errors.Errorf("missing column %q", name)
		}
	}

	events := make([]types.Event, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(name string) (float64, error) {
			i, ok := col[name]
			if !ok {
				return 0, nil
			}
			return strconv.ParseFloat(row[i], 64)
		}
		var e types.Event
		fields := []struct {
			name string
			dst  *float64
		}{
			{"time", &e.Time},
			{"x", &e.X},
			{"y", &e.Y},
			{"depth", &e.Depth},
			{"magnitude", &e.Magnitude},
		}
		for _, f := range fields {
			v, err := get(f.name)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: column %s", n+2, f.name)
			}
			*f.dst = v
		}
		events = append(events, e)
	}
	return events, nil
}

// WriteSimEvents writes one synthetic catalog with parent links.
func WriteSimEvents(path string, events []types.SimEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write catalog")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, catalogHeader...), "parent", "generation")); err != nil {
		return err
	}
	for _, e := range events {
		if err := w.Write(simRow(e, -1)); err != nil {
			return err
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "write catalog")
}

// WriteEnsemble writes all realizations into one CSV, tagged by catalog_id.
func WriteEnsemble(path string, ens *forecast.Ensemble) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write ensemble")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, catalogHeader...), "parent", "generation", "catalog_id")); err != nil {
		return err
	}
	for id, events := range ens.Realizations {
		for _, e := range events {
			if err := w.Write(simRow(e, id)); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "write ensemble")
}

func simRow(e types.SimEvent, catalogID int) []string {
	row := []string{
		strconv.FormatFloat(e.Time, 'g', -1, 64),
		strconv.FormatFloat(e.X, 'g', -1, 64),
		strconv.FormatFloat(e.Y, 'g', -1, 64),
		strconv.FormatFloat(e.Depth, 'g', -1, 64),
		strconv.FormatFloat(e.Magnitude, 'g', -1, 64),
		strconv.Itoa(e.Parent),
		strconv.Itoa(e.Generation),
	}
	if catalogID >= 0 {
		row = append(row, strconv.Itoa(catalogID))
	}
	return row
}
