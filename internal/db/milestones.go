package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

const milestoneCols = `id, project_id, title, deadline, status, note`

func scanMilestone(row interface{ Scan(...any) error }) (*models.Milestone, error) {
	var m models.Milestone
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Deadline, &m.Status, &m.Note); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) MilestoneByID(ctx context.Context, id int64) (*models.Milestone, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+milestoneCols+` FROM milestones WHERE id = $1`, id)
	return scanMilestone(row)
}

func (s *Store) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+milestoneCols+` FROM milestones WHERE project_id = $1 ORDER BY deadline NULLS LAST, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) CreateMilestone(ctx context.Context, m *models.Milestone) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO milestones (project_id, title, deadline, status, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.ProjectID, m.Title, m.Deadline, m.Status, m.Note).Scan(&id)
	return id, err
}

// CreateMilestoneForStudent only inserts while the owning project is still
// not approved; the approval gate is re-checked in the same statement.
func (s *Store) CreateMilestoneForStudent(ctx context.Context, m *models.Milestone, studentID int64) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO milestones (project_id, title, deadline, status, note)
		SELECT p.id, $2, $3, $4, $5
		FROM projects p
		WHERE p.id = $1 AND p.student_id = $6 AND p.status <> $7
		RETURNING id
	`, m.ProjectID, m.Title, m.Deadline, m.Status, m.Note, studentID, models.StatusApproved).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (s *Store) UpdateMilestone(ctx context.Context, m *models.Milestone) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE milestones SET title = $1, deadline = $2, status = $3, note = $4 WHERE id = $5
	`, m.Title, m.Deadline, m.Status, m.Note, m.ID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) UpdateMilestoneForStudent(ctx context.Context, m *models.Milestone, studentID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE milestones mi SET title = $1, deadline = $2, status = $3, note = $4
		FROM projects p
		WHERE mi.id = $5 AND p.id = mi.project_id
		  AND p.student_id = $6 AND p.status <> $7
	`, m.Title, m.Deadline, m.Status, m.Note, m.ID, studentID, models.StatusApproved)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) DeleteMilestone(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) DeleteMilestoneForStudent(ctx context.Context, id, studentID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM milestones mi
		USING projects p
		WHERE mi.id = $1 AND p.id = mi.project_id
		  AND p.student_id = $2 AND p.status <> $3
	`, id, studentID, models.StatusApproved)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
