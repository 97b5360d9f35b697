package simulation

import "errors"

// ErrIncompleteDay signals a calendar day without its 24 hourly rows.
var ErrIncompleteDay = errors.New("hours missing in day")

// ErrDefaultScenarioNotFound signals a scenario enumeration without an
// all-zero-delta combination. This is a programming invariant; it
// cannot happen for a well-formed scenario group.
var ErrDefaultScenarioNotFound = errors.New("default scenario not found")
