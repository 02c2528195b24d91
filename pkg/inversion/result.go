package inversion

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quakelab/etas/pkg/background"
	"github.com/quakelab/etas/pkg/kernel"
)

// State is the terminal state of an inversion run.
type State string

const (
	StateConverged            State = "converged"
	StateMaxIterationsReached State = "max-iterations-reached"
	StateFailed               State = "failed"
)

// Error aborts an inversion run. The last parameter set that produced a
// finite likelihood is attached for diagnostics; it must not be trusted as a
// fit.
type Error struct {
	Reason    string
	Iteration int
	LastValid kernel.Parameters
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inversion failed at iteration %d: %s: %v", e.Iteration, e.Reason, e.Err)
	}
	return fmt.Sprintf("inversion failed at iteration %d: %s", e.Iteration, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is what a finished inversion hands to the simulation engine and the
// result writer.
type Result struct {
	ID    uuid.UUID `json:"id"`
	State State     `json:"state"`

	Params kernel.Parameters `json:"parameters"`
	Field  *background.Field `json:"-"`

	// BackgroundProbs is the per-event probability of being a background
	// event under the final parameters, aligned with the catalog order.
	BackgroundProbs []float64 `json:"backgroundProbs,omitempty"`

	NHat           float64   `json:"nHat"`
	BranchingRatio float64   `json:"branchingRatio"`
	LogLik         float64   `json:"logLikelihood"`
	Iterations     int       `json:"iterations"`
	NumPairs       int       `json:"numPairs"`
	FittedAt       time.Time `json:"fittedAt"`
}
