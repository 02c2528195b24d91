package inversion

import (
	"math"

	"github.com/quakelab/etas/pkg/types"
)

// pair is one causally ordered source/target combination surviving the
// lookback and distance pruning. Distances are precomputed once, the E-step
// re-evaluates only the kernel densities on them.
type pair struct {
	src int
	tgt int
	dt  float64 // days
	r2  float64 // km²
}

// pairStore indexes pairs by target event for the E-step normalization and
// by source for the M-step productivity terms.
type pairStore struct {
	pairs []pair

	// byTarget[j] is the half-open range of p.pairs whose target is j.
	byTarget [][2]int

	// srcDeltaM[i] is the source magnitude above completeness, srcToEnd[i]
	// the time from source i to the window end (for offspring clipping).
	srcDeltaM []float64
	srcToEnd  []float64
}

// subsurface rupture length in km after Wells & Coppersmith (oblique
// faulting), used to prune event pairs too far apart to be related.
func ruptureLength(m float64) float64 {
	return math.Pow(10, 0.59*m-2.44)
}

// buildPairs scans the time-ordered catalog and keeps, for every target j,
// the sources i with 0 < t_j - t_i <= lookback and squared distance within
// (ruptureLength(m_i) * distMultiplier)². Events at exactly the same time are
// never paired (ties carry no causal order).
func buildPairs(cat *types.Catalog, lookbackDays, distMultiplier float64) *pairStore {
	n := cat.Len()
	s := &pairStore{
		byTarget:  make([][2]int, n),
		srcDeltaM: make([]float64, n),
		srcToEnd:  make([]float64, n),
	}
	for i, e := range cat.Events {
		s.srcDeltaM[i] = e.Magnitude - cat.Mc
		s.srcToEnd[i] = cat.Window.End - e.Time
	}

	for j := 0; j < n; j++ {
		tgt := cat.Events[j]
		start := len(s.pairs)
		for i := j - 1; i >= 0; i-- {
			src := cat.Events[i]
			dt := tgt.Time - src.Time
			if dt > lookbackDays {
				break
			}
			if dt <= 0 {
				continue
			}
			rangeKm := ruptureLength(src.Magnitude) * distMultiplier
			r2 := src.DistSq(tgt)
			if r2 > rangeKm*rangeKm {
				continue
			}
			s.pairs = append(s.pairs, pair{src: i, tgt: j, dt: dt, r2: r2})
		}
		s.byTarget[j] = [2]int{start, len(s.pairs)}
	}
	return s
}

func (s *pairStore) numPairs() int {
	return len(s.pairs)
}
