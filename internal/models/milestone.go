package models

import "time"

type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneDone       MilestoneStatus = "done"
)

func ValidMilestoneStatus(s MilestoneStatus) bool {
	switch s {
	case MilestoneNotStarted, MilestoneInProgress, MilestoneDone:
		return true
	}
	return false
}

type Milestone struct {
	ID        int64
	ProjectID int64
	Title     string
	Deadline  *time.Time
	Status    MilestoneStatus
	Note      string
}

// Overdue: not done and the deadline day has passed.
func (m *Milestone) Overdue(now time.Time) bool {
	if m.Status == MilestoneDone || m.Deadline == nil {
		return false
	}
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	return m.Deadline.Before(today)
}

// ControlCheck is a dated progress record owned by one project. At most one
// check per project and date, which is what makes bulk generation
// re-runnable.
type ControlCheck struct {
	ID         int64
	ProjectID  int64
	Date       time.Time
	Content    string
	Evaluation string
	CreatedAt  time.Time
}
