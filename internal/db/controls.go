package db

import (
	"context"
	"database/sql"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

const controlCols = `id, project_id, date, content, evaluation, created_at`

func scanControl(row interface{ Scan(...any) error }) (*models.ControlCheck, error) {
	var c models.ControlCheck
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Date, &c.Content, &c.Evaluation, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ControlCheckByID(ctx context.Context, id int64) (*models.ControlCheck, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+controlCols+` FROM control_checks WHERE id = $1`, id)
	return scanControl(row)
}

func (s *Store) ListControlChecks(ctx context.Context, projectID int64) ([]models.ControlCheck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+controlCols+` FROM control_checks WHERE project_id = $1 ORDER BY date, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ControlCheck
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) CreateControlCheck(ctx context.Context, c *models.ControlCheck) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO control_checks (project_id, date, content, evaluation)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.ProjectID, c.Date, c.Content, c.Evaluation).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

// InsertControlChecks bulk-inserts generated consultation checks in one
// transaction. Dates that already carry a check for the project are skipped,
// which makes generation re-runnable.
func (s *Store) InsertControlChecks(ctx context.Context, projectID int64, checks []models.ControlCheck) (int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO control_checks (project_id, date, content, evaluation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, date) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, c := range checks {
		res, err := stmt.ExecContext(ctx, projectID, c.Date, c.Content, c.Evaluation)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) UpdateControlCheck(ctx context.Context, c *models.ControlCheck) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE control_checks SET date = $1, content = $2, evaluation = $3 WHERE id = $4
	`, c.Date, c.Content, c.Evaluation, c.ID)
	if err != nil {
		return false, mapErr(err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (s *Store) DeleteControlCheck(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM control_checks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
