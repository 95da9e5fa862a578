package app

import (
	"errors"
	"fmt"
)

// Operation failure classes. Every operation aborts inside its transaction
// on any of these, so a guard failure never leaves partial state behind.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")

	ErrNotAStudent       = errors.New("only a student may do this")
	ErrNotATeacher       = errors.New("only a teacher may do this")
	ErrAlreadyHasProject = errors.New("student already has a project")
	ErrNoActiveScheme    = errors.New("no active scoring scheme")
	ErrNoScheme          = errors.New("project has no scoring scheme")
	ErrEditWindowClosed  = errors.New("student edit window is closed")
	ErrLeaderAssigned    = errors.New("project already has a leader")
	ErrStateConflict     = errors.New("operation not valid for current project state")
	ErrInvalidInput      = errors.New("invalid input")

	ErrPointsExceedMaximum = errors.New("points exceed scheme maximum")
)

// PointsError names the offending evaluation area.
type PointsError struct {
	Role   string // "leader" | "opponent"
	Area   int
	Points int
	Max    int
}

func (e *PointsError) Error() string {
	return fmt.Sprintf("%s area %d: %d points exceed maximum %d", e.Role, e.Area, e.Points, e.Max)
}

func (e *PointsError) Unwrap() error { return ErrPointsExceedMaximum }

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrNotAStudent),
		errors.Is(err, ErrNotATeacher):
		return "denied"
	case errors.Is(err, ErrEditWindowClosed),
		errors.Is(err, ErrLeaderAssigned),
		errors.Is(err, ErrStateConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyHasProject),
		errors.Is(err, ErrNoActiveScheme),
		errors.Is(err, ErrNoScheme),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrPointsExceedMaximum):
		return "invalid"
	default:
		return "error"
	}
}
