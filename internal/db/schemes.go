package db

import (
	"context"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

const schemeCols = `id, year, leader_area1_max, leader_area2_max, leader_area3_max,
	opponent_area1_max, opponent_area2_max, student_edit_deadline, active,
	control_deadline1, control_deadline2, control_deadline3`

func scanScheme(row interface{ Scan(...any) error }) (*models.ScoringScheme, error) {
	var sc models.ScoringScheme
	err := row.Scan(&sc.ID, &sc.Year,
		&sc.LeaderArea1Max, &sc.LeaderArea2Max, &sc.LeaderArea3Max,
		&sc.OpponentArea1Max, &sc.OpponentArea2Max,
		&sc.StudentEditDeadline, &sc.Active,
		&sc.ControlDeadline1, &sc.ControlDeadline2, &sc.ControlDeadline3)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Store) SchemeByID(ctx context.Context, id int64) (*models.ScoringScheme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+schemeCols+` FROM scoring_schemes WHERE id = $1`, id)
	return scanScheme(row)
}

// ActiveScheme returns sql.ErrNoRows when no scheme is active.
func (s *Store) ActiveScheme(ctx context.Context) (*models.ScoringScheme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+schemeCols+` FROM scoring_schemes WHERE active LIMIT 1`)
	return scanScheme(row)
}

func (s *Store) CreateScheme(ctx context.Context, sc *models.ScoringScheme) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scoring_schemes (year, leader_area1_max, leader_area2_max, leader_area3_max,
		                             opponent_area1_max, opponent_area2_max,
		                             student_edit_deadline, active,
		                             control_deadline1, control_deadline2, control_deadline3)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, sc.Year, sc.LeaderArea1Max, sc.LeaderArea2Max, sc.LeaderArea3Max,
		sc.OpponentArea1Max, sc.OpponentArea2Max,
		sc.StudentEditDeadline, sc.Active,
		sc.ControlDeadline1, sc.ControlDeadline2, sc.ControlDeadline3).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

// ActivateScheme flips the active flag to exactly one row, atomically.
func (s *Store) ActivateScheme(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE scoring_schemes SET active = FALSE WHERE active`); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE scoring_schemes SET active = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n != 1 {
		return false, nil
	}
	return true, tx.Commit()
}

func (s *Store) ListSchemes(ctx context.Context) ([]models.ScoringScheme, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+schemeCols+` FROM scoring_schemes ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScoringScheme
	for rows.Next() {
		sc, err := scanScheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}
