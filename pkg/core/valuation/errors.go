package valuation

import "github.com/rotisserie/eris"

// Error taxonomy. Callers match with errors.Is; engines attach context with
// eris.Wrap / eris.Wrapf so the original sentinel stays reachable.
var (
	// ErrMissingField marks a required input absent before any computation
	// starts. Engines fail fast and produce no partial result.
	ErrMissingField = eris.New("missing required field")

	// ErrInvalidParameter marks a structurally valid but out-of-domain
	// argument (negative discount rate, non-positive CAGR base, ...).
	ErrInvalidParameter = eris.New("invalid parameter")

	// ErrInvalidAssumption marks a violated domain invariant, most commonly
	// wacc <= terminal growth. Never clamped, always surfaced.
	ErrInvalidAssumption = eris.New("invalid valuation assumption")

	// ErrInvalidSelection marks an approval decision that references a
	// scenario that does not exist, or supplies neither scenario nor value.
	ErrInvalidSelection = eris.New("invalid approval selection")

	// ErrInvalidStateTransition marks a lifecycle action attempted from the
	// wrong project state.
	ErrInvalidStateTransition = eris.New("invalid project state transition")

	// ErrConcurrentRunRejected marks a second evaluation run requested while
	// one is already in flight for the same project.
	ErrConcurrentRunRejected = eris.New("evaluation already in progress")
)
