package db

import (
	"context"
	"fmt"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/ctxutil"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

const projectCols = `id, title, description, assignment, status,
	student_id, leader_id, opponent_id,
	external_leader, external_leader_email, external_leader_phone,
	external_opponent, external_opponent_email, external_opponent_phone,
	scheme_id, internal_notes, delivery_work_date, delivery_documentation_date,
	created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Assignment, &p.Status,
		&p.StudentID, &p.LeaderID, &p.OpponentID,
		&p.ExternalLeader, &p.ExternalLeaderEmail, &p.ExternalLeaderPhone,
		&p.ExternalOpponent, &p.ExternalOpponentEmail, &p.ExternalOpponentPhone,
		&p.SchemeID, &p.InternalNotes, &p.DeliveryWorkDate, &p.DeliveryDocumentationDate,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ProjectByID(ctx context.Context, id int64) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectCols+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (title, description, assignment, status,
		                      student_id, leader_id, opponent_id,
		                      external_leader, external_leader_email, external_leader_phone,
		                      external_opponent, external_opponent_email, external_opponent_phone,
		                      scheme_id, internal_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, p.Title, p.Description, p.Assignment, p.Status,
		p.StudentID, p.LeaderID, p.OpponentID,
		p.ExternalLeader, p.ExternalLeaderEmail, p.ExternalLeaderPhone,
		p.ExternalOpponent, p.ExternalOpponentEmail, p.ExternalOpponentPhone,
		p.SchemeID, p.InternalNotes).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

func (s *Store) StudentHasProject(ctx context.Context, studentID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE student_id = $1)`, studentID).Scan(&exists)
	return exists, err
}

// AssignLeader is a compare-and-set: it only succeeds while the project has
// no leader, which both approves the project and blocks silent leader
// replacement by a concurrent teacher.
func (s *Store) AssignLeader(ctx context.Context, projectID, teacherID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET leader_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND leader_id IS NULL
	`, teacherID, models.StatusApproved, projectID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ClearLeader reverts the project to pending approval; only the current
// leader's id matches the guard.
func (s *Store) ClearLeader(ctx context.Context, projectID, leaderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET leader_id = NULL, status = $1, updated_at = now()
		WHERE id = $2 AND leader_id = $3
	`, models.StatusPendingApproval, projectID, leaderID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) SetOpponent(ctx context.Context, projectID, opponentID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET opponent_id = $1, updated_at = now() WHERE id = $2
	`, opponentID, projectID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) ClearOpponent(ctx context.Context, projectID, opponentID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET opponent_id = NULL, updated_at = now()
		WHERE id = $1 AND opponent_id = $2
	`, projectID, opponentID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// UpdateStudentFields writes the student-editable set. The owner and status
// guards sit in the WHERE clause so the edit cannot land after a concurrent
// approval.
func (s *Store) UpdateStudentFields(ctx context.Context, projectID, studentID int64, title, description string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET title = $1, description = $2, updated_at = now()
		WHERE id = $3 AND student_id = $4 AND status = $5
	`, title, description, projectID, studentID, models.StatusPendingApproval)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// leaderGuard appends an optional leader_id condition; a nil leaderID means
// an administrator is acting and the relation guard is waived.
func leaderGuard(q string, args []any, leaderID *int64) (string, []any) {
	if leaderID != nil {
		q += fmt.Sprintf(" AND leader_id = $%d", len(args)+1)
		args = append(args, *leaderID)
	}
	return q, args
}

func (s *Store) UpdateAssignment(ctx context.Context, projectID int64, leaderID *int64, assignment string) (bool, error) {
	q := `UPDATE projects SET assignment = $1, updated_at = now() WHERE id = $2`
	args := []any{assignment, projectID}
	q, args = leaderGuard(q, args, leaderID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) UpdateNotes(ctx context.Context, projectID int64, leaderID *int64, notes string) (bool, error) {
	q := `UPDATE projects SET internal_notes = $1, updated_at = now() WHERE id = $2`
	args := []any{notes, projectID}
	q, args = leaderGuard(q, args, leaderID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) UpdateDelivery(ctx context.Context, projectID int64, leaderID *int64, work, documentation *time.Time) (bool, error) {
	q := `UPDATE projects SET delivery_work_date = $1, delivery_documentation_date = $2, updated_at = now() WHERE id = $3`
	args := []any{work, documentation, projectID}
	q, args = leaderGuard(q, args, leaderID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) UpdateExternals(ctx context.Context, projectID int64, leaderID *int64, p *models.Project) (bool, error) {
	q := `UPDATE projects SET
		external_leader = $1, external_leader_email = $2, external_leader_phone = $3,
		external_opponent = $4, external_opponent_email = $5, external_opponent_phone = $6,
		updated_at = now()
	WHERE id = $7`
	args := []any{p.ExternalLeader, p.ExternalLeaderEmail, p.ExternalLeaderPhone,
		p.ExternalOpponent, p.ExternalOpponentEmail, p.ExternalOpponentPhone, projectID}
	q, args = leaderGuard(q, args, leaderID)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) SetStatus(ctx context.Context, projectID int64, status models.ProjectStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET status = $1, updated_at = now() WHERE id = $2
	`, status, projectID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ProjectFilter narrows ListProjects; zero values mean no filter.
type ProjectFilter struct {
	Status     models.ProjectStatus
	LeaderID   int64
	OpponentID int64
	StudentID  int64
}

func (s *Store) ListProjects(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects WHERE TRUE`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.LeaderID != 0 {
		args = append(args, f.LeaderID)
		q += fmt.Sprintf(" AND leader_id = $%d", len(args))
	}
	if f.OpponentID != 0 {
		args = append(args, f.OpponentID)
		q += fmt.Sprintf(" AND opponent_id = $%d", len(args))
	}
	if f.StudentID != 0 {
		args = append(args, f.StudentID)
		q += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	q += ` ORDER BY id`

	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
