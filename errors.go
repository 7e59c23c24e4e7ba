package zonalstats

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the ways a zonal-statistics operation can fail.
type ErrorKind int

const (
	// OutOfExtent indicates a coordinate outside a bounded grid.
	OutOfExtent ErrorKind = iota
	// IncompatibleGrids indicates CommonGrid was called on grids that
	// are not compatible.
	IncompatibleGrids
	// InvalidGeometry indicates an unparseable or topologically invalid
	// polygon, or a non-finite vertex coordinate.
	InvalidGeometry
	// UnknownStatistic indicates a statistic name not in the table of
	// named statistics.
	UnknownStatistic
	// NodataAllCells indicates a zone query with no meaningful value
	// because every cell was skipped. count == 0 on its own is a normal
	// result, not an error; this kind applies only to queries (such as
	// Mode) that have no sentinel-free answer when empty.
	NodataAllCells
)

func (k ErrorKind) String() string {
	switch k {
	case OutOfExtent:
		return "OutOfExtent"
	case IncompatibleGrids:
		return "IncompatibleGrids"
	case InvalidGeometry:
		return "InvalidGeometry"
	case UnknownStatistic:
		return "UnknownStatistic"
	case NodataAllCells:
		return "NodataAllCells"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by this package. It carries a Kind
// from the closed set above plus, when the failure occurred while
// processing a particular zone, the zone's identifier.
type Error struct {
	Kind ErrorKind
	Zone string
	Err  error
}

func (e *Error) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("zonalstats: zone %q: %s: %v", e.Zone, e.Kind, e.Err)
	}
	return fmt.Sprintf("zonalstats: %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause, so errors.Is/As can see through
// Error to a wrapped sentinel or another *Error.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, &zonalstats.Error{Kind: zonalstats.OutOfExtent}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func errf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// withZone returns a copy of err (if it is a *Error) annotated with the
// given zone id, so a caller driving many zones can tell which one
// failed without re-wrapping at every call site.
func withZone(zone string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Zone = zone
		return &cp
	}
	return &Error{Zone: zone, Err: err}
}
