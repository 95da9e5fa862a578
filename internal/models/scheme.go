package models

import "time"

// ScoringScheme is the per-school-year evaluation configuration. One scheme is
// active at a time; projects keep a reference to the scheme that was active
// when they were created and never re-resolve it.
type ScoringScheme struct {
	ID   int64
	Year string

	LeaderArea1Max int
	LeaderArea2Max int
	LeaderArea3Max int

	OpponentArea1Max int
	OpponentArea2Max int

	StudentEditDeadline *time.Time
	Active              bool

	ControlDeadline1 *time.Time
	ControlDeadline2 *time.Time
	ControlDeadline3 *time.Time
}

// LeaderMax returns the cap for leader area 1..3.
func (s *ScoringScheme) LeaderMax(area int) int {
	switch area {
	case 1:
		return s.LeaderArea1Max
	case 2:
		return s.LeaderArea2Max
	case 3:
		return s.LeaderArea3Max
	}
	return 0
}

// OpponentMax returns the cap for opponent area 1..2.
func (s *ScoringScheme) OpponentMax(area int) int {
	switch area {
	case 1:
		return s.OpponentArea1Max
	case 2:
		return s.OpponentArea2Max
	}
	return 0
}

// ControlDeadlines returns the three deadline slots in scheme order; nil
// entries are unset slots.
func (s *ScoringScheme) ControlDeadlines() [3]*time.Time {
	return [3]*time.Time{s.ControlDeadline1, s.ControlDeadline2, s.ControlDeadline3}
}

// StudentEditOpen reports whether a student edit at t is still inside the
// window. The deadline instant itself is inclusive; the window closes
// strictly after it.
func (s *ScoringScheme) StudentEditOpen(t time.Time) bool {
	if s.StudentEditDeadline == nil {
		return true
	}
	return !t.After(*s.StudentEditDeadline)
}
