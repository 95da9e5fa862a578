// Package authz holds the single policy table every mutating operation is
// checked against. A rule names the capability a principal must hold and the
// project relation they must be in; administrators pass every check.
package authz

import "github.com/MasterPumpkin/evidence-mp/internal/models"

type Capability string

const (
	CapStudent Capability = "student"
	CapTeacher Capability = "teacher"
	CapAdmin   Capability = "admin"
)

type Relation string

const (
	RelAny          Relation = "any"
	RelStudentOwner Relation = "student_owner"
	RelLeader       Relation = "leader"
	RelOpponent     Relation = "opponent"
)

type Op string

const (
	OpCreateStudentProject  Op = "project.create_student"
	OpCreateTeacherProject  Op = "project.create_teacher"
	OpApprove               Op = "project.approve"
	OpResignLeader          Op = "project.resign_leader"
	OpResignOpponent        Op = "project.resign_opponent"
	OpTakeOpponent          Op = "project.take_opponent"
	OpAssignOpponent        Op = "project.assign_opponent"
	OpEditStudent           Op = "project.edit_student"
	OpEditLeaderFields      Op = "project.edit_leader_fields"
	OpSetStatus             Op = "project.set_status"
	OpSubmitLeaderEval      Op = "evaluation.submit_leader"
	OpSubmitOpponentEval    Op = "evaluation.submit_opponent"
	OpGenerateConsultations Op = "consultation.generate"
	OpManageControls        Op = "consultation.manage"
	OpLeaderMilestone       Op = "milestone.leader"
	OpStudentMilestone      Op = "milestone.student"
	OpManageSchemes         Op = "scheme.manage"
	OpImport                Op = "import.run"
)

type rule struct {
	cap Capability
	rel Relation
}

var rules = map[Op]rule{
	OpCreateStudentProject:  {CapStudent, RelAny},
	OpCreateTeacherProject:  {CapTeacher, RelAny},
	OpApprove:               {CapTeacher, RelAny},
	OpResignLeader:          {CapTeacher, RelLeader},
	OpResignOpponent:        {CapTeacher, RelOpponent},
	OpTakeOpponent:          {CapTeacher, RelAny},
	OpAssignOpponent:        {CapTeacher, RelLeader},
	OpEditStudent:           {CapStudent, RelStudentOwner},
	OpEditLeaderFields:      {CapTeacher, RelLeader},
	OpSetStatus:             {CapTeacher, RelAny},
	OpSubmitLeaderEval:      {CapTeacher, RelLeader},
	OpSubmitOpponentEval:    {CapTeacher, RelOpponent},
	OpGenerateConsultations: {CapTeacher, RelLeader},
	OpManageControls:        {CapTeacher, RelLeader},
	OpLeaderMilestone:       {CapTeacher, RelLeader},
	OpStudentMilestone:      {CapStudent, RelStudentOwner},
	OpManageSchemes:         {CapAdmin, RelAny},
	OpImport:                {CapAdmin, RelAny},
}

// Allowed evaluates the policy for one principal against one project. The
// project may be nil for operations that are not bound to an existing one.
func Allowed(op Op, u *models.User, p *models.Project) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsAdmin {
		return true
	}
	r, ok := rules[op]
	if !ok {
		return false
	}
	if !hasCapability(u, r.cap) {
		return false
	}
	return holdsRelation(u, p, r.rel)
}

func hasCapability(u *models.User, c Capability) bool {
	switch c {
	case CapStudent:
		return u.IsStudent
	case CapTeacher:
		return u.IsTeacher
	case CapAdmin:
		return u.IsAdmin
	}
	return false
}

func holdsRelation(u *models.User, p *models.Project, r Relation) bool {
	if r == RelAny {
		return true
	}
	if p == nil {
		return false
	}
	switch r {
	case RelStudentOwner:
		return p.IsStudentOwner(u.ID)
	case RelLeader:
		return p.IsLeader(u.ID)
	case RelOpponent:
		return p.IsOpponent(u.ID)
	}
	return false
}
