package app

import (
	"context"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// MilestoneInput is the editable milestone field set. Status defaults to
// not started when empty.
type MilestoneInput struct {
	Title    string                 `json:"title" validate:"required,max=200"`
	Deadline *time.Time             `json:"deadline"`
	Status   models.MilestoneStatus `json:"status"`
	Note     string                 `json:"note"`
}

func (in *MilestoneInput) status() (models.MilestoneStatus, error) {
	if in.Status == "" {
		return models.MilestoneNotStarted, nil
	}
	if !models.ValidMilestoneStatus(in.Status) {
		return "", ErrInvalidInput
	}
	return in.Status, nil
}

// studentGateOpen reports whether the student may still touch milestones:
// any state except approved and, when the scheme sets one, before the
// student edit deadline.
func (s *Service) studentGateOpen(ctx context.Context, proj *models.Project) error {
	if proj.Status == models.StatusApproved {
		return ErrStateConflict
	}
	scheme, err := s.scheme(ctx, proj)
	if err != nil {
		return err
	}
	if scheme != nil && !scheme.StudentEditOpen(s.now()) {
		return ErrEditWindowClosed
	}
	return nil
}

// CreateMilestone adds a milestone. Leaders and administrators may do so in
// any state; students in any state except approved, inside the edit window.
func (s *Service) CreateMilestone(ctx context.Context, actorID, projectID int64, in MilestoneInput) (m *models.Milestone, err error) {
	op := authz.OpLeaderMilestone
	defer func() { s.observe(op, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	status, err := in.status()
	if err != nil {
		return nil, err
	}
	nm := &models.Milestone{
		ProjectID: projectID,
		Title:     in.Title,
		Deadline:  in.Deadline,
		Status:    status,
		Note:      in.Note,
	}

	switch {
	case authz.Allowed(authz.OpLeaderMilestone, actor, proj):
		id, err := s.store.CreateMilestone(ctx, nm)
		if err != nil {
			return nil, err
		}
		return s.store.MilestoneByID(ctx, id)

	case authz.Allowed(authz.OpStudentMilestone, actor, proj):
		op = authz.OpStudentMilestone
		if err := s.studentGateOpen(ctx, proj); err != nil {
			return nil, err
		}
		// the guarded insert re-checks ownership and the approval gate
		id, ok, err := s.store.CreateMilestoneForStudent(ctx, nm, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrStateConflict
		}
		return s.store.MilestoneByID(ctx, id)
	}
	return nil, ErrPermissionDenied
}

// UpdateMilestone rewrites a milestone under the same two-path gating as
// creation.
func (s *Service) UpdateMilestone(ctx context.Context, actorID, milestoneID int64, in MilestoneInput) (m *models.Milestone, err error) {
	op := authz.OpLeaderMilestone
	defer func() { s.observe(op, actorID, err) }()

	ms, proj, err := s.milestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	status, err := in.status()
	if err != nil {
		return nil, err
	}
	ms.Title = in.Title
	ms.Deadline = in.Deadline
	ms.Status = status
	ms.Note = in.Note

	switch {
	case authz.Allowed(authz.OpLeaderMilestone, actor, proj):
		ok, err := s.store.UpdateMilestone(ctx, ms)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
		return s.store.MilestoneByID(ctx, milestoneID)

	case authz.Allowed(authz.OpStudentMilestone, actor, proj):
		op = authz.OpStudentMilestone
		if err := s.studentGateOpen(ctx, proj); err != nil {
			return nil, err
		}
		ok, err := s.store.UpdateMilestoneForStudent(ctx, ms, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrStateConflict
		}
		return s.store.MilestoneByID(ctx, milestoneID)
	}
	return nil, ErrPermissionDenied
}

// SetMilestoneStatus moves a milestone through its progress states without
// touching the other fields.
func (s *Service) SetMilestoneStatus(ctx context.Context, actorID, milestoneID int64, status models.MilestoneStatus) (m *models.Milestone, err error) {
	op := authz.OpLeaderMilestone
	defer func() { s.observe(op, actorID, err) }()

	ms, proj, err := s.milestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !models.ValidMilestoneStatus(status) {
		return nil, ErrInvalidInput
	}
	ms.Status = status

	switch {
	case authz.Allowed(authz.OpLeaderMilestone, actor, proj):
		ok, err := s.store.UpdateMilestone(ctx, ms)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound
		}
		return s.store.MilestoneByID(ctx, milestoneID)

	case authz.Allowed(authz.OpStudentMilestone, actor, proj):
		op = authz.OpStudentMilestone
		if err := s.studentGateOpen(ctx, proj); err != nil {
			return nil, err
		}
		ok, err := s.store.UpdateMilestoneForStudent(ctx, ms, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrStateConflict
		}
		return s.store.MilestoneByID(ctx, milestoneID)
	}
	return nil, ErrPermissionDenied
}

func (s *Service) DeleteMilestone(ctx context.Context, actorID, milestoneID int64) (err error) {
	op := authz.OpLeaderMilestone
	defer func() { s.observe(op, actorID, err) }()

	_, proj, err := s.milestone(ctx, milestoneID)
	if err != nil {
		return err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}

	switch {
	case authz.Allowed(authz.OpLeaderMilestone, actor, proj):
		ok, err := s.store.DeleteMilestone(ctx, milestoneID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil

	case authz.Allowed(authz.OpStudentMilestone, actor, proj):
		op = authz.OpStudentMilestone
		if err := s.studentGateOpen(ctx, proj); err != nil {
			return err
		}
		ok, err := s.store.DeleteMilestoneForStudent(ctx, milestoneID, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStateConflict
		}
		return nil
	}
	return ErrPermissionDenied
}

func (s *Service) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	return s.store.ListMilestones(ctx, projectID)
}

func (s *Service) milestone(ctx context.Context, id int64) (*models.Milestone, *models.Project, error) {
	ms, err := s.store.MilestoneByID(ctx, id)
	if err != nil {
		return nil, nil, mapNotFound(err)
	}
	proj, err := s.project(ctx, ms.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return ms, proj, nil
}
