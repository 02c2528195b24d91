package kernel

import (
	"math"

	"github.com/pkg/errors"
)

// SpatialKernel selects the spatial triggering density shape. The variant is
// chosen once at configuration time and never changes mid-run.
type SpatialKernel string

const (
	SpatialPowerLaw SpatialKernel = "powerlaw"
	SpatialGaussian SpatialKernel = "gaussian"
)

// TimeFloor regularizes the Omori denominator so that c=0 at zero time delay
// stays finite: g(0) with c=0 evaluates to (p-1)/TimeFloor.
const TimeFloor = 1e-9

// Ln10 shows up in the productivity law and the branching ratio.
var Ln10 = math.Log(10)

// Parameters holds the fitted (or supplied) ETAS model scalars. Immutable
// once produced by the inversion engine, the simulation engine only reads it.
type Parameters struct {
	// Mu is the background rate density, events per km² per day.
	Mu float64 `json:"mu" yaml:"mu"`

	// K0 and Alpha control productivity: kappa(m) = K0 * 10^(Alpha*(m-mc)).
	K0    float64 `json:"k0" yaml:"k0"`
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// C and P are the Omori-Utsu temporal decay constants.
	C float64 `json:"c" yaml:"c"`
	P float64 `json:"p" yaml:"p"`

	// D, Gamma and Rho shape the spatial kernel.
	D     float64 `json:"d" yaml:"d"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
	Rho   float64 `json:"rho" yaml:"rho"`

	// Beta is the Gutenberg-Richter exponent (b * ln10).
	Beta float64 `json:"beta" yaml:"beta"`

	// Spatial picks the spatial kernel variant, SpatialPowerLaw when empty.
	Spatial SpatialKernel `json:"spatialKernel,omitempty" yaml:"spatialKernel,omitempty"`
}

// Validate checks the kernel domain constraints. The inversion engine calls
// it after every M-step, an out-of-domain update aborts the run.
func (p Parameters) Validate() error {
	for _, check := range []struct {
		ok     bool
		reason string
	}{
		{p.Mu >= 0 && isFinite(p.Mu), "mu must be >= 0"},
		{p.K0 > 0 && isFinite(p.K0), "k0 must be > 0"},
		{p.Alpha > 0 && isFinite(p.Alpha), "alpha must be > 0"},
		{p.C >= 0 && isFinite(p.C), "c must be >= 0"},
		{p.P > 1 && isFinite(p.P), "p must be > 1"},
		{p.D > 0 && isFinite(p.D), "d must be > 0"},
		{p.Gamma >= 0 && isFinite(p.Gamma), "gamma must be >= 0"},
		{p.Rho > 0 && isFinite(p.Rho), "rho must be > 0"},
		{p.Beta > 0 && isFinite(p.Beta), "beta must be > 0"},
	} {
		if !check.ok {
			return errors.Errorf("invalid parameters: %s", check.reason)
		}
	}
	switch p.Spatial {
	case "", SpatialPowerLaw, SpatialGaussian:
	default:
		return errors.Errorf("invalid parameters: unknown spatial kernel %q", p.Spatial)
	}
	return nil
}

// ceff is the regularized Omori constant.
func (p Parameters) ceff() float64 {
	return math.Max(p.C, TimeFloor)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
