package similarday

import "errors"

var (
	// ErrIncompleteDay is returned when the objective day does not have
	// exactly 24 hourly rows.
	ErrIncompleteDay = errors.New("objective day has missing hours")

	// ErrNoCandidateDays is returned when filtering leaves no
	// qualifying historical date.
	ErrNoCandidateDays = errors.New("no candidate days match the requested criteria")
)
