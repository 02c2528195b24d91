package inversion

import (
	"math"

	"github.com/quakelab/etas/pkg/kernel"
)

// Range bounds one parameter during optimization. Log10 ranges are searched
// in log space, which is how the scale parameters (k0, c, d) span their many
// orders of magnitude without dwarfing the shape parameters.
type Range struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Log10 bool    `json:"log10,omitempty" yaml:"log10,omitempty"`
}

func (r Range) lo() float64 {
	if r.Log10 {
		return math.Log10(r.Min)
	}
	return r.Min
}

func (r Range) hi() float64 {
	if r.Log10 {
		return math.Log10(r.Max)
	}
	return r.Max
}

// fromUnit maps u in [0,1] into the range.
func (r Range) fromUnit(u float64) float64 {
	v := r.lo() + u*(r.hi()-r.lo())
	if r.Log10 {
		return math.Pow(10, v)
	}
	return v
}

// Ranges is the searchable parameter domain of the M-step and of the initial
// goptuna study.
type Ranges struct {
	K0    Range `json:"k0" yaml:"k0"`
	Alpha Range `json:"alpha" yaml:"alpha"`
	C     Range `json:"c" yaml:"c"`
	P     Range `json:"p" yaml:"p"`
	D     Range `json:"d" yaml:"d"`
	Gamma Range `json:"gamma" yaml:"gamma"`
	Rho   Range `json:"rho" yaml:"rho"`
}

// DefaultRanges mirrors the domains the model is usually fit over.
func DefaultRanges() Ranges {
	return Ranges{
		K0:    Range{Min: 1e-4, Max: 1, Log10: true},
		Alpha: Range{Min: 0.01, Max: 2},
		C:     Range{Min: 1e-8, Max: 1, Log10: true},
		P:     Range{Min: 1.01, Max: 2.5},
		D:     Range{Min: 1e-4, Max: 1e3, Log10: true},
		Gamma: Range{Min: 0, Max: 5},
		Rho:   Range{Min: 0.01, Max: 5},
	}
}

// shapeRanges are the dimensions of the M-step shape optimization, in the
// order the optimizer vector uses: c, p, d, gamma, rho.
func (r Ranges) shapeRanges() []Range {
	return []Range{r.C, r.P, r.D, r.Gamma, r.Rho}
}

// toVector maps shape parameters into unconstrained optimizer coordinates
// through a logistic transform, so the unbounded Nelder-Mead respects the
// parameter domains.
func (r Ranges) toVector(p kernel.Parameters) []float64 {
	rs := r.shapeRanges()
	vals := []float64{p.C, p.P, p.D, p.Gamma, p.Rho}
	z := make([]float64, len(vals))
	for i, v := range vals {
		z[i] = rs[i].encode(v)
	}
	return z
}

// fromVector is the inverse of toVector, leaving non-shape fields untouched.
func (r Ranges) fromVector(z []float64, base kernel.Parameters) kernel.Parameters {
	rs := r.shapeRanges()
	base.C = rs[0].decode(z[0])
	base.P = rs[1].decode(z[1])
	base.D = rs[2].decode(z[2])
	base.Gamma = rs[3].decode(z[3])
	base.Rho = rs[4].decode(z[4])
	return base
}

func (r Range) encode(v float64) float64 {
	x := v
	if r.Log10 {
		x = math.Log10(math.Max(v, r.Min))
	}
	u := (x - r.lo()) / (r.hi() - r.lo())
	u = math.Min(math.Max(u, 1e-6), 1-1e-6)
	return math.Log(u / (1 - u))
}

func (r Range) decode(z float64) float64 {
	u := 1 / (1 + math.Exp(-z))
	return r.fromUnit(u)
}
