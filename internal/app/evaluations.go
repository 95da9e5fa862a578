package app

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/metrics"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// LeaderEvalInput carries the three leader areas plus the defense block.
type LeaderEvalInput struct {
	Area1Text   string `json:"area1_text"`
	Area1Points int    `json:"area1_points" validate:"min=0"`
	Area2Text   string `json:"area2_text"`
	Area2Points int    `json:"area2_points" validate:"min=0"`
	Area3Text   string `json:"area3_text"`
	Area3Points int    `json:"area3_points" validate:"min=0"`

	DefenseQuestions string `json:"defense_questions"`
	QuestionsVisible bool   `json:"questions_visible"`

	SubmissionStatus *models.SubmissionStatus `json:"submission_status"`
}

// OpponentEvalInput carries the two opponent areas plus the defense block.
type OpponentEvalInput struct {
	Area1Text   string `json:"area1_text"`
	Area1Points int    `json:"area1_points" validate:"min=0"`
	Area2Text   string `json:"area2_text"`
	Area2Points int    `json:"area2_points" validate:"min=0"`

	DefenseQuestions string `json:"defense_questions"`
	QuestionsVisible bool   `json:"questions_visible"`
}

// checkBounds validates one scored area against the scheme cap. A nil
// scheme means the project predates scheme bookkeeping and no cap applies.
func (s *Service) checkBounds(scheme *models.ScoringScheme, role string, area, points, max int) error {
	if points < 0 {
		return &PointsError{Role: role, Area: area, Points: points, Max: max}
	}
	if scheme == nil {
		return nil
	}
	if points > max {
		metrics.PointsRejections.Inc()
		return &PointsError{Role: role, Area: area, Points: points, Max: max}
	}
	return nil
}

// SubmitLeaderEvaluation upserts the leader's evaluation. Points are
// checked against the project's scheme caps before anything is written.
func (s *Service) SubmitLeaderEvaluation(ctx context.Context, actorID, projectID int64, in LeaderEvalInput) (e *models.LeaderEvaluation, err error) {
	defer func() { s.observe(authz.OpSubmitLeaderEval, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpSubmitLeaderEval, actor, proj) {
		return nil, ErrPermissionDenied
	}
	if in.SubmissionStatus != nil && !models.ValidSubmissionStatus(*in.SubmissionStatus) {
		return nil, ErrInvalidInput
	}

	scheme, err := s.scheme(ctx, proj)
	if err != nil {
		return nil, err
	}
	areas := []struct{ points, max int }{
		{in.Area1Points, schemeLeaderMax(scheme, 1)},
		{in.Area2Points, schemeLeaderMax(scheme, 2)},
		{in.Area3Points, schemeLeaderMax(scheme, 3)},
	}
	for i, a := range areas {
		if err := s.checkBounds(scheme, "leader", i+1, a.points, a.max); err != nil {
			return nil, err
		}
	}

	ev := &models.LeaderEvaluation{
		ProjectID:        projectID,
		Area1Text:        in.Area1Text,
		Area1Points:      in.Area1Points,
		Area2Text:        in.Area2Text,
		Area2Points:      in.Area2Points,
		Area3Text:        in.Area3Text,
		Area3Points:      in.Area3Points,
		DefenseQuestions: in.DefenseQuestions,
		QuestionsVisible: in.QuestionsVisible,
		SubmissionStatus: in.SubmissionStatus,
	}
	if err := s.store.UpsertLeaderEval(ctx, ev); err != nil {
		return nil, err
	}
	s.log.Info("leader evaluation saved",
		zap.Int64("project", projectID), zap.Int64("teacher", actorID), zap.Int("total", ev.TotalPoints()))
	return s.store.LeaderEval(ctx, projectID)
}

// SubmitOpponentEvaluation upserts the opponent's evaluation under the same
// bounds discipline as the leader path.
func (s *Service) SubmitOpponentEvaluation(ctx context.Context, actorID, projectID int64, in OpponentEvalInput) (e *models.OpponentEvaluation, err error) {
	defer func() { s.observe(authz.OpSubmitOpponentEval, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpSubmitOpponentEval, actor, proj) {
		return nil, ErrPermissionDenied
	}

	scheme, err := s.scheme(ctx, proj)
	if err != nil {
		return nil, err
	}
	areas := []struct{ points, max int }{
		{in.Area1Points, schemeOpponentMax(scheme, 1)},
		{in.Area2Points, schemeOpponentMax(scheme, 2)},
	}
	for i, a := range areas {
		if err := s.checkBounds(scheme, "opponent", i+1, a.points, a.max); err != nil {
			return nil, err
		}
	}

	ev := &models.OpponentEvaluation{
		ProjectID:        projectID,
		Area1Text:        in.Area1Text,
		Area1Points:      in.Area1Points,
		Area2Text:        in.Area2Text,
		Area2Points:      in.Area2Points,
		DefenseQuestions: in.DefenseQuestions,
		QuestionsVisible: in.QuestionsVisible,
	}
	if err := s.store.UpsertOpponentEval(ctx, ev); err != nil {
		return nil, err
	}
	s.log.Info("opponent evaluation saved",
		zap.Int64("project", projectID), zap.Int64("teacher", actorID), zap.Int("total", ev.TotalPoints()))
	return s.store.OpponentEval(ctx, projectID)
}

// LeaderEvaluation reads the leader evaluation; nil when none exists yet.
func (s *Service) LeaderEvaluation(ctx context.Context, projectID int64) (*models.LeaderEvaluation, error) {
	e, err := s.store.LeaderEval(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (s *Service) OpponentEvaluation(ctx context.Context, projectID int64) (*models.OpponentEvaluation, error) {
	e, err := s.store.OpponentEval(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func schemeLeaderMax(sc *models.ScoringScheme, area int) int {
	if sc == nil {
		return 0
	}
	return sc.LeaderMax(area)
}

func schemeOpponentMax(sc *models.ScoringScheme, area int) int {
	if sc == nil {
		return 0
	}
	return sc.OpponentMax(area)
}
