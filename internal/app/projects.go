package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// ProjectInput is the student-editable field set.
type ProjectInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

// TeacherProjectInput is the teacher-path creation payload; the external
// contacts cover roles held by unregistered people.
type TeacherProjectInput struct {
	Title                 string `json:"title" validate:"required,max=200"`
	Description           string `json:"description" validate:"required"`
	Assignment            string `json:"assignment"`
	ExternalLeader        string `json:"external_leader" validate:"max=200"`
	ExternalLeaderEmail   string `json:"external_leader_email" validate:"omitempty,email"`
	ExternalLeaderPhone   string `json:"external_leader_phone" validate:"max=20"`
	ExternalOpponent      string `json:"external_opponent" validate:"max=200"`
	ExternalOpponentEmail string `json:"external_opponent_email" validate:"omitempty,email"`
	ExternalOpponentPhone string `json:"external_opponent_phone" validate:"max=20"`
}

// CreateStudentProject starts the student path: pending approval, no leader,
// bound to the currently active scheme.
func (s *Service) CreateStudentProject(ctx context.Context, actorID int64, in ProjectInput) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpCreateStudentProject, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpCreateStudentProject, actor, nil) {
		return nil, ErrNotAStudent
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	has, err := s.store.StudentHasProject(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrAlreadyHasProject
	}

	scheme, err := s.store.ActiveScheme(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveScheme
		}
		return nil, err
	}

	np := &models.Project{
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPendingApproval,
		StudentID:   &actorID,
		SchemeID:    &scheme.ID,
	}
	id, err := s.store.CreateProject(ctx, np)
	if err != nil {
		// the partial unique index backs up the pre-check under concurrency
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrAlreadyHasProject
		}
		return nil, err
	}
	s.log.Info("project created by student", zap.Int64("project", id), zap.Int64("student", actorID))
	return s.project(ctx, id)
}

// CreateTeacherProject starts the teacher path: the initiating teacher is
// the leader, so the project is approved immediately; the student is
// assigned later.
func (s *Service) CreateTeacherProject(ctx context.Context, actorID int64, in TeacherProjectInput) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpCreateTeacherProject, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpCreateTeacherProject, actor, nil) {
		return nil, ErrNotATeacher
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	scheme, err := s.store.ActiveScheme(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveScheme
		}
		return nil, err
	}

	np := &models.Project{
		Title:                 in.Title,
		Description:           in.Description,
		Assignment:            in.Assignment,
		Status:                models.StatusApproved,
		LeaderID:              &actorID,
		SchemeID:              &scheme.ID,
		ExternalLeader:        in.ExternalLeader,
		ExternalLeaderEmail:   in.ExternalLeaderEmail,
		ExternalLeaderPhone:   in.ExternalLeaderPhone,
		ExternalOpponent:      in.ExternalOpponent,
		ExternalOpponentEmail: in.ExternalOpponentEmail,
		ExternalOpponentPhone: in.ExternalOpponentPhone,
	}
	id, err := s.store.CreateProject(ctx, np)
	if err != nil {
		return nil, err
	}
	s.log.Info("project created by teacher", zap.Int64("project", id), zap.Int64("leader", actorID))
	return s.project(ctx, id)
}

// Approve makes the acting teacher the leader of an unled project. A
// project that already has a leader is not silently re-assigned; the
// teacher has to resign first.
func (s *Service) Approve(ctx context.Context, actorID, projectID int64) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpApprove, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpApprove, actor, proj) {
		return nil, ErrNotATeacher
	}
	if proj.LeaderID != nil {
		return nil, ErrLeaderAssigned
	}
	if proj.Status.Terminal() {
		return nil, ErrStateConflict
	}

	ok, err := s.store.AssignLeader(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race against another approval
		return nil, ErrLeaderAssigned
	}
	s.log.Info("project approved", zap.Int64("project", projectID), zap.Int64("leader", actorID))
	return s.project(ctx, projectID)
}

// ResignLeader clears the leader and reverts the project to pending
// approval. An administrator may resign the current leader on the
// project's behalf.
func (s *Service) ResignLeader(ctx context.Context, actorID, projectID int64) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpResignLeader, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpResignLeader, actor, proj) {
		return nil, ErrPermissionDenied
	}

	leaderID := actorID
	if actor.IsAdmin && !proj.IsLeader(actorID) {
		if proj.LeaderID == nil {
			return nil, ErrStateConflict
		}
		leaderID = *proj.LeaderID
	}
	ok, err := s.store.ClearLeader(ctx, projectID, leaderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// the leader changed under us
		return nil, ErrStateConflict
	}
	s.log.Info("leader resigned", zap.Int64("project", projectID), zap.Int64("teacher", leaderID))
	return s.project(ctx, projectID)
}

// ResignOpponent clears the opponent; the status is untouched. Admins may
// clear the current opponent on the project's behalf.
func (s *Service) ResignOpponent(ctx context.Context, actorID, projectID int64) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpResignOpponent, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpResignOpponent, actor, proj) {
		return nil, ErrPermissionDenied
	}

	opponentID := actorID
	if actor.IsAdmin && !proj.IsOpponent(actorID) {
		if proj.OpponentID == nil {
			return nil, ErrStateConflict
		}
		opponentID = *proj.OpponentID
	}
	ok, err := s.store.ClearOpponent(ctx, projectID, opponentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStateConflict
	}
	return s.project(ctx, projectID)
}

// TakeOpponent lets any teacher self-assign as opponent.
func (s *Service) TakeOpponent(ctx context.Context, actorID, projectID int64) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpTakeOpponent, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpTakeOpponent, actor, proj) {
		return nil, ErrNotATeacher
	}

	if _, err := s.store.SetOpponent(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	s.log.Info("opponent taken", zap.Int64("project", projectID), zap.Int64("teacher", actorID))
	return s.project(ctx, projectID)
}

// AssignOpponent lets the leader (or an administrator) pick any teacher as
// opponent.
func (s *Service) AssignOpponent(ctx context.Context, actorID, projectID, opponentID int64) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpAssignOpponent, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpAssignOpponent, actor, proj) {
		return nil, ErrPermissionDenied
	}

	opponent, err := s.store.UserByID(ctx, opponentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !opponent.IsTeacher {
		return nil, ErrNotATeacher
	}

	if _, err := s.store.SetOpponent(ctx, projectID, opponentID); err != nil {
		return nil, err
	}
	return s.project(ctx, projectID)
}

// UpdateByStudent edits the student field set. Only allowed while pending
// approval and, when the scheme sets a student edit deadline, not after it.
func (s *Service) UpdateByStudent(ctx context.Context, actorID, projectID int64, in ProjectInput) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpEditStudent, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpEditStudent, actor, proj) {
		return nil, ErrPermissionDenied
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if proj.Status != models.StatusPendingApproval {
		return nil, ErrStateConflict
	}
	scheme, err := s.scheme(ctx, proj)
	if err != nil {
		return nil, err
	}
	if scheme != nil && !scheme.StudentEditOpen(s.now()) {
		return nil, ErrEditWindowClosed
	}

	ok, err := s.store.UpdateStudentFields(ctx, projectID, actorID, in.Title, in.Description)
	if err != nil {
		return nil, err
	}
	if !ok {
		// approved (or re-owned) between the read and the write
		return nil, ErrStateConflict
	}
	return s.project(ctx, projectID)
}

// editLeaderField factors the shared shape of the leader-only edits.
func (s *Service) editLeaderField(ctx context.Context, actorID, projectID int64,
	write func(leaderID *int64) (bool, error)) (*models.Project, error) {

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpEditLeaderFields, actor, proj) {
		return nil, ErrPermissionDenied
	}

	ok, err := write(leaderGuardFor(actor))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPermissionDenied
	}
	return s.project(ctx, projectID)
}

// UpdateAssignment sets the official assignment text (not student-editable).
func (s *Service) UpdateAssignment(ctx context.Context, actorID, projectID int64, assignment string) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpEditLeaderFields, actorID, err) }()
	return s.editLeaderField(ctx, actorID, projectID, func(leaderID *int64) (bool, error) {
		return s.store.UpdateAssignment(ctx, projectID, leaderID, assignment)
	})
}

// UpdateNotes sets the internal notes visible only to the leader.
func (s *Service) UpdateNotes(ctx context.Context, actorID, projectID int64, notes string) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpEditLeaderFields, actorID, err) }()
	return s.editLeaderField(ctx, actorID, projectID, func(leaderID *int64) (bool, error) {
		return s.store.UpdateNotes(ctx, projectID, leaderID, notes)
	})
}

// UpdateDelivery records the product and documentation hand-over dates.
func (s *Service) UpdateDelivery(ctx context.Context, actorID, projectID int64, work, documentation *time.Time) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpEditLeaderFields, actorID, err) }()
	return s.editLeaderField(ctx, actorID, projectID, func(leaderID *int64) (bool, error) {
		return s.store.UpdateDelivery(ctx, projectID, leaderID, work, documentation)
	})
}

// ExternalContacts carries the unregistered leader/opponent contact fields.
type ExternalContacts struct {
	Leader        string `json:"leader" validate:"max=200"`
	LeaderEmail   string `json:"leader_email" validate:"omitempty,email"`
	LeaderPhone   string `json:"leader_phone" validate:"max=20"`
	Opponent      string `json:"opponent" validate:"max=200"`
	OpponentEmail string `json:"opponent_email" validate:"omitempty,email"`
	OpponentPhone string `json:"opponent_phone" validate:"max=20"`
}

func (s *Service) UpdateExternals(ctx context.Context, actorID, projectID int64, in ExternalContacts) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpEditLeaderFields, actorID, err) }()
	if err := checkInput(in); err != nil {
		return nil, err
	}
	return s.editLeaderField(ctx, actorID, projectID, func(leaderID *int64) (bool, error) {
		return s.store.UpdateExternals(ctx, projectID, leaderID, &models.Project{
			ExternalLeader:        in.Leader,
			ExternalLeaderEmail:   in.LeaderEmail,
			ExternalLeaderPhone:   in.LeaderPhone,
			ExternalOpponent:      in.Opponent,
			ExternalOpponentEmail: in.OpponentEmail,
			ExternalOpponentPhone: in.OpponentPhone,
		})
	})
}

// SetStatus performs the privileged terminal transitions (finish, reject,
// cancel).
func (s *Service) SetStatus(ctx context.Context, actorID, projectID int64, status models.ProjectStatus) (p *models.Project, err error) {
	defer func() { s.observe(authz.OpSetStatus, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpSetStatus, actor, proj) {
		return nil, ErrNotATeacher
	}
	if !status.Terminal() {
		return nil, ErrInvalidInput
	}

	if _, err := s.store.SetStatus(ctx, projectID, status); err != nil {
		return nil, err
	}
	s.log.Info("project status set", zap.Int64("project", projectID), zap.String("status", string(status)))
	return s.project(ctx, projectID)
}

// GetProject is the read side used by the outer layers.
func (s *Service) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	return s.project(ctx, projectID)
}

func (s *Service) ListProjects(ctx context.Context, f db.ProjectFilter) ([]models.Project, error) {
	return s.store.ListProjects(ctx, f)
}
