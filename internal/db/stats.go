package db

import (
	"context"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/ctxutil"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

func (s *Store) CountPendingApproval(ctx context.Context) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM projects WHERE status = $1`, models.StatusPendingApproval).Scan(&n)
	return n, err
}

func (s *Store) CountOverdueMilestones(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM milestones
		WHERE status <> $1 AND deadline IS NOT NULL AND deadline < $2
	`, models.MilestoneDone, now).Scan(&n)
	return n, err
}

// ControlChecksDueOn lists checks dated on the given day together with the
// project title, for the reminder job.
type DueCheck struct {
	Check        models.ControlCheck
	ProjectTitle string
}

func (s *Store) ControlChecksDueOn(ctx context.Context, day time.Time) ([]DueCheck, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.project_id, c.date, c.content, c.evaluation, c.created_at, p.title
		FROM control_checks c
		JOIN projects p ON p.id = c.project_id
		WHERE c.date = $1::date
		ORDER BY p.title
	`, day)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []DueCheck
	for rows.Next() {
		var d DueCheck
		if err := rows.Scan(&d.Check.ID, &d.Check.ProjectID, &d.Check.Date,
			&d.Check.Content, &d.Check.Evaluation, &d.Check.CreatedAt, &d.ProjectTitle); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
