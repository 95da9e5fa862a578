package models

import "time"

type SubmissionStatus string

const (
	SubmittedOnTime SubmissionStatus = "on_time"
	SubmittedLate   SubmissionStatus = "late"
	NotSubmitted    SubmissionStatus = "not_submitted"
)

func ValidSubmissionStatus(s SubmissionStatus) bool {
	switch s {
	case SubmittedOnTime, SubmittedLate, NotSubmitted:
		return true
	}
	return false
}

// LeaderEvaluation holds one per project, three scored areas.
type LeaderEvaluation struct {
	ID        int64
	ProjectID int64

	Area1Text   string
	Area1Points int
	Area2Text   string
	Area2Points int
	Area3Text   string
	Area3Points int

	DefenseQuestions string
	QuestionsVisible bool

	ExportDate       *time.Time
	SubmissionStatus *SubmissionStatus

	UpdatedAt time.Time
}

func (e *LeaderEvaluation) TotalPoints() int {
	return e.Area1Points + e.Area2Points + e.Area3Points
}

// OpponentEvaluation holds one per project, two scored areas.
type OpponentEvaluation struct {
	ID        int64
	ProjectID int64

	Area1Text   string
	Area1Points int
	Area2Text   string
	Area2Points int

	DefenseQuestions string
	QuestionsVisible bool

	ExportDate *time.Time

	UpdatedAt time.Time
}

func (e *OpponentEvaluation) TotalPoints() int {
	return e.Area1Points + e.Area2Points
}
