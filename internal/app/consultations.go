package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// GenerateConsultations creates one control check per deadline set on the
// project's scheme, using the leader's saved consultation texts. Re-running
// it is harmless: dates already occupied are skipped.
func (s *Service) GenerateConsultations(ctx context.Context, actorID, projectID int64) (created int, err error) {
	defer func() { s.observe(authz.OpGenerateConsultations, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return 0, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if !authz.Allowed(authz.OpGenerateConsultations, actor, proj) {
		return 0, ErrPermissionDenied
	}

	scheme, err := s.scheme(ctx, proj)
	if err != nil {
		return 0, err
	}
	if scheme == nil {
		return 0, ErrNoScheme
	}

	prefs, err := s.store.Preferences(ctx, actorID)
	if err != nil {
		return 0, err
	}

	var checks []models.ControlCheck
	for i, deadline := range scheme.ControlDeadlines() {
		if deadline == nil {
			continue
		}
		text := prefs.ConsultationText(i + 1)
		if text == "" {
			text = fmt.Sprintf("Konzultace #%d", i+1)
		}
		checks = append(checks, models.ControlCheck{
			ProjectID: projectID,
			Date:      *deadline,
			Content:   text,
		})
	}
	if len(checks) == 0 {
		return 0, ErrNoScheme
	}

	created, err = s.store.InsertControlChecks(ctx, projectID, checks)
	if err != nil {
		return 0, err
	}
	s.log.Info("consultations generated",
		zap.Int64("project", projectID), zap.Int64("leader", actorID), zap.Int("created", created))
	return created, nil
}

// ControlCheckInput is a single dated progress record.
type ControlCheckInput struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Content    string `json:"content" validate:"required"`
	Evaluation string `json:"evaluation"`
}

// CreateControlCheck adds one check by hand, outside the generated set.
func (s *Service) CreateControlCheck(ctx context.Context, actorID, projectID int64, in ControlCheckInput) (c *models.ControlCheck, err error) {
	defer func() { s.observe(authz.OpManageControls, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpManageControls, actor, proj) {
		return nil, ErrPermissionDenied
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	date, err := parseDay(in.Date)
	if err != nil {
		return nil, err
	}

	id, err := s.store.CreateControlCheck(ctx, &models.ControlCheck{
		ProjectID:  projectID,
		Date:       date,
		Content:    in.Content,
		Evaluation: in.Evaluation,
	})
	if err != nil {
		// the date already carries a check for this project
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrStateConflict
		}
		return nil, err
	}
	return s.store.ControlCheckByID(ctx, id)
}

// UpdateControlCheck rewrites a check's date, content and evaluation.
func (s *Service) UpdateControlCheck(ctx context.Context, actorID, checkID int64, in ControlCheckInput) (c *models.ControlCheck, err error) {
	defer func() { s.observe(authz.OpManageControls, actorID, err) }()

	check, proj, err := s.controlCheck(ctx, checkID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpManageControls, actor, proj) {
		return nil, ErrPermissionDenied
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	date, err := parseDay(in.Date)
	if err != nil {
		return nil, err
	}

	check.Date = date
	check.Content = in.Content
	check.Evaluation = in.Evaluation
	ok, err := s.store.UpdateControlCheck(ctx, check)
	if err != nil {
		// moving onto an occupied date trips the per-project date uniqueness
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrStateConflict
		}
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.store.ControlCheckByID(ctx, checkID)
}

func (s *Service) DeleteControlCheck(ctx context.Context, actorID, checkID int64) (err error) {
	defer func() { s.observe(authz.OpManageControls, actorID, err) }()

	_, proj, err := s.controlCheck(ctx, checkID)
	if err != nil {
		return err
	}
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if !authz.Allowed(authz.OpManageControls, actor, proj) {
		return ErrPermissionDenied
	}

	ok, err := s.store.DeleteControlCheck(ctx, checkID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ListControlChecks returns a project's checks in date order.
func (s *Service) ListControlChecks(ctx context.Context, projectID int64) ([]models.ControlCheck, error) {
	return s.store.ListControlChecks(ctx, projectID)
}

// controlCheck resolves a check together with its owning project.
func (s *Service) controlCheck(ctx context.Context, checkID int64) (*models.ControlCheck, *models.Project, error) {
	check, err := s.store.ControlCheckByID(ctx, checkID)
	if err != nil {
		return nil, nil, mapNotFound(err)
	}
	proj, err := s.project(ctx, check.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return check, proj, nil
}
