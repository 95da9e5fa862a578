package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// SchemeInput mirrors the scheme row. Zero caps are legal, they just make
// the area unscorable.
type SchemeInput struct {
	Year string `json:"year" validate:"required,max=20"`

	LeaderArea1Max int `json:"leader_area1_max" validate:"min=0"`
	LeaderArea2Max int `json:"leader_area2_max" validate:"min=0"`
	LeaderArea3Max int `json:"leader_area3_max" validate:"min=0"`

	OpponentArea1Max int `json:"opponent_area1_max" validate:"min=0"`
	OpponentArea2Max int `json:"opponent_area2_max" validate:"min=0"`

	StudentEditDeadline *time.Time `json:"student_edit_deadline"`
	ControlDeadline1    *time.Time `json:"control_deadline1"`
	ControlDeadline2    *time.Time `json:"control_deadline2"`
	ControlDeadline3    *time.Time `json:"control_deadline3"`

	Active bool `json:"active"`
}

// CreateScheme adds a scoring scheme for a school year. Activating it here
// deactivates every other scheme.
func (s *Service) CreateScheme(ctx context.Context, actorID int64, in SchemeInput) (sc *models.ScoringScheme, err error) {
	defer func() { s.observe(authz.OpManageSchemes, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpManageSchemes, actor, nil) {
		return nil, ErrPermissionDenied
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}

	id, err := s.store.CreateScheme(ctx, &models.ScoringScheme{
		Year:                in.Year,
		LeaderArea1Max:      in.LeaderArea1Max,
		LeaderArea2Max:      in.LeaderArea2Max,
		LeaderArea3Max:      in.LeaderArea3Max,
		OpponentArea1Max:    in.OpponentArea1Max,
		OpponentArea2Max:    in.OpponentArea2Max,
		StudentEditDeadline: in.StudentEditDeadline,
		ControlDeadline1:    in.ControlDeadline1,
		ControlDeadline2:    in.ControlDeadline2,
		ControlDeadline3:    in.ControlDeadline3,
	})
	if err != nil {
		return nil, err
	}
	if in.Active {
		if _, err := s.store.ActivateScheme(ctx, id); err != nil {
			return nil, err
		}
	}
	s.log.Info("scheme created", zap.Int64("scheme", id), zap.String("year", in.Year), zap.Bool("active", in.Active))
	return s.store.SchemeByID(ctx, id)
}

// ActivateScheme makes one scheme the active one.
func (s *Service) ActivateScheme(ctx context.Context, actorID, schemeID int64) (err error) {
	defer func() { s.observe(authz.OpManageSchemes, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	if !authz.Allowed(authz.OpManageSchemes, actor, nil) {
		return ErrPermissionDenied
	}

	ok, err := s.store.ActivateScheme(ctx, schemeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info("scheme activated", zap.Int64("scheme", schemeID))
	return nil
}

func (s *Service) ListSchemes(ctx context.Context) ([]models.ScoringScheme, error) {
	return s.store.ListSchemes(ctx)
}

func (s *Service) ActiveScheme(ctx context.Context) (*models.ScoringScheme, error) {
	sc, err := s.store.ActiveScheme(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sc, nil
}
