package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/export"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// BuildProjectExport resolves every project into one overview row with
// names and evaluation totals filled in.
func (s *Service) BuildProjectExport(ctx context.Context) ([]export.ProjectRow, error) {
	projects, err := s.store.ListProjects(ctx, db.ProjectFilter{})
	if err != nil {
		return nil, err
	}

	users := map[int64]*models.User{}
	resolve := func(id *int64) *models.User {
		if id == nil {
			return nil
		}
		if u, ok := users[*id]; ok {
			return u
		}
		u, err := s.store.UserByID(ctx, *id)
		if err != nil {
			users[*id] = nil
			return nil
		}
		users[*id] = u
		return u
	}

	rows := make([]export.ProjectRow, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		row := export.ProjectRow{
			ID:     p.ID,
			Title:  p.Title,
			Status: string(p.Status),
		}
		if u := resolve(p.StudentID); u != nil {
			row.Student = u.Name
			row.Class = u.ClassName
		}
		if u := resolve(p.LeaderID); u != nil {
			row.Leader = u.Name
		} else if p.ExternalLeader != "" {
			row.Leader = p.ExternalLeader
		}
		if u := resolve(p.OpponentID); u != nil {
			row.Opponent = u.Name
		} else if p.ExternalOpponent != "" {
			row.Opponent = p.ExternalOpponent
		}

		if le, err := s.store.LeaderEval(ctx, p.ID); err == nil {
			t := le.TotalPoints()
			row.LeaderPoints = &t
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if oe, err := s.store.OpponentEval(ctx, p.ID); err == nil {
			t := oe.TotalPoints()
			row.OpponentPoints = &t
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// BuildConsultationExport returns one project's title and its checks for
// the per-project sheet.
func (s *Service) BuildConsultationExport(ctx context.Context, projectID int64) (string, []models.ControlCheck, error) {
	p, err := s.project(ctx, projectID)
	if err != nil {
		return "", nil, err
	}
	checks, err := s.store.ListControlChecks(ctx, projectID)
	if err != nil {
		return "", nil, err
	}
	return p.Title, checks, nil
}
