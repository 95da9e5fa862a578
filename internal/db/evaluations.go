package db

import (
	"context"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

func (s *Store) LeaderEval(ctx context.Context, projectID int64) (*models.LeaderEvaluation, error) {
	var e models.LeaderEvaluation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, area1_text, area1_points, area2_text, area2_points,
		       area3_text, area3_points, defense_questions, questions_visible,
		       export_date, submission_status, updated_at
		FROM leader_evaluations WHERE project_id = $1
	`, projectID).Scan(&e.ID, &e.ProjectID,
		&e.Area1Text, &e.Area1Points, &e.Area2Text, &e.Area2Points,
		&e.Area3Text, &e.Area3Points, &e.DefenseQuestions, &e.QuestionsVisible,
		&e.ExportDate, &e.SubmissionStatus, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertLeaderEval creates the row on first write and updates it in place
// afterwards; at most one row per project either way.
func (s *Store) UpsertLeaderEval(ctx context.Context, e *models.LeaderEvaluation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leader_evaluations (project_id, area1_text, area1_points, area2_text, area2_points,
		                                area3_text, area3_points, defense_questions, questions_visible,
		                                export_date, submission_status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (project_id) DO UPDATE SET
		    area1_text = excluded.area1_text, area1_points = excluded.area1_points,
		    area2_text = excluded.area2_text, area2_points = excluded.area2_points,
		    area3_text = excluded.area3_text, area3_points = excluded.area3_points,
		    defense_questions = excluded.defense_questions,
		    questions_visible = excluded.questions_visible,
		    export_date = excluded.export_date,
		    submission_status = excluded.submission_status,
		    updated_at = now()
	`, e.ProjectID, e.Area1Text, e.Area1Points, e.Area2Text, e.Area2Points,
		e.Area3Text, e.Area3Points, e.DefenseQuestions, e.QuestionsVisible,
		e.ExportDate, e.SubmissionStatus)
	return err
}

func (s *Store) OpponentEval(ctx context.Context, projectID int64) (*models.OpponentEvaluation, error) {
	var e models.OpponentEvaluation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, area1_text, area1_points, area2_text, area2_points,
		       defense_questions, questions_visible, export_date, updated_at
		FROM opponent_evaluations WHERE project_id = $1
	`, projectID).Scan(&e.ID, &e.ProjectID,
		&e.Area1Text, &e.Area1Points, &e.Area2Text, &e.Area2Points,
		&e.DefenseQuestions, &e.QuestionsVisible, &e.ExportDate, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpsertOpponentEval(ctx context.Context, e *models.OpponentEvaluation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO opponent_evaluations (project_id, area1_text, area1_points, area2_text, area2_points,
		                                  defense_questions, questions_visible, export_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (project_id) DO UPDATE SET
		    area1_text = excluded.area1_text, area1_points = excluded.area1_points,
		    area2_text = excluded.area2_text, area2_points = excluded.area2_points,
		    defense_questions = excluded.defense_questions,
		    questions_visible = excluded.questions_visible,
		    export_date = excluded.export_date,
		    updated_at = now()
	`, e.ProjectID, e.Area1Text, e.Area1Points, e.Area2Text, e.Area2Points,
		e.DefenseQuestions, e.QuestionsVisible, e.ExportDate)
	return err
}
