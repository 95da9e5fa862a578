package models

import "time"

type ProjectStatus string

const (
	StatusPendingApproval ProjectStatus = "pending_approval"
	StatusApproved        ProjectStatus = "approved"
	StatusFinished        ProjectStatus = "finished"
	StatusRejected        ProjectStatus = "rejected"
	StatusCancelled       ProjectStatus = "cancelled"
)

// Terminal reports whether the status ends the project lifecycle.
func (s ProjectStatus) Terminal() bool {
	return s == StatusFinished || s == StatusRejected || s == StatusCancelled
}

func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusFinished, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Project is the central entity. Student, leader and opponent are nullable:
// a role may be vacant or held by an unregistered external person recorded
// as plain contact fields.
type Project struct {
	ID          int64
	Title       string
	Description string
	Assignment  string
	Status      ProjectStatus

	StudentID  *int64
	LeaderID   *int64
	OpponentID *int64

	ExternalLeader        string
	ExternalLeaderEmail   string
	ExternalLeaderPhone   string
	ExternalOpponent      string
	ExternalOpponentEmail string
	ExternalOpponentPhone string

	SchemeID      *int64
	InternalNotes string

	DeliveryWorkDate          *time.Time
	DeliveryDocumentationDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Project) IsStudentOwner(userID int64) bool {
	return p.StudentID != nil && *p.StudentID == userID
}

func (p *Project) IsLeader(userID int64) bool {
	return p.LeaderID != nil && *p.LeaderID == userID
}

func (p *Project) IsOpponent(userID int64) bool {
	return p.OpponentID != nil && *p.OpponentID == userID
}
