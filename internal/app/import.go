package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/export"
	"github.com/MasterPumpkin/evidence-mp/internal/importer"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// ImportUsers bulk-creates accounts from CSV. Every valid row gets a
// generated password; the plaintext is returned once for the credentials
// export and never stored. A duplicate username fails that row only.
func (s *Service) ImportUsers(ctx context.Context, actorID int64, r io.Reader) (creds []export.Credential, rowErrs []importer.RowError, err error) {
	defer func() { s.observe(authz.OpImport, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !authz.Allowed(authz.OpImport, actor, nil) {
		return nil, nil, ErrPermissionDenied
	}

	records, rowErrs, err := importer.ParseUsers(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, rec := range records {
		hash, err := bcrypt.GenerateFromPassword([]byte(rec.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, err
		}
		u := &models.User{
			Username:    rec.Username,
			Name:        rec.Name,
			Email:       rec.Email,
			ClassName:   rec.ClassName,
			StudyBranch: models.StudyBranch(rec.StudyBranch),
			IsStudent:   rec.Role == "student",
			IsTeacher:   rec.Role == "teacher",
			IsAdmin:     rec.Role == "admin",
			IsActive:    true,
		}
		if _, err := s.store.CreateUser(ctx, u, string(hash)); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				rowErrs = append(rowErrs, importer.RowError{Line: rec.Line, Err: fmt.Errorf("username %q already exists", rec.Username)})
				continue
			}
			return nil, nil, err
		}
		creds = append(creds, export.Credential{
			Username: rec.Username,
			Name:     rec.Name,
			Password: rec.Password,
		})
	}
	s.log.Info("users imported", zap.Int("created", len(creds)), zap.Int("rejected", len(rowErrs)))
	return creds, rowErrs, nil
}

// ImportProjects bulk-creates projects from CSV. Rows naming a student are
// bound to that student's account; rows without one become open topics.
// Every imported project starts pending on the active scheme.
func (s *Service) ImportProjects(ctx context.Context, actorID int64, r io.Reader) (created int, rowErrs []importer.RowError, err error) {
	defer func() { s.observe(authz.OpImport, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return 0, nil, err
	}
	if !authz.Allowed(authz.OpImport, actor, nil) {
		return 0, nil, ErrPermissionDenied
	}

	scheme, err := s.store.ActiveScheme(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, ErrNoActiveScheme
		}
		return 0, nil, err
	}

	records, rowErrs, err := importer.ParseProjects(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, rec := range records {
		p := &models.Project{
			Title:       rec.Title,
			Description: rec.Description,
			Status:      models.StatusPendingApproval,
			SchemeID:    &scheme.ID,
		}
		if rec.StudentUsername != "" {
			student, err := s.store.UserByUsername(ctx, rec.StudentUsername)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					rowErrs = append(rowErrs, importer.RowError{Line: rec.Line, Err: fmt.Errorf("no such student %q", rec.StudentUsername)})
					continue
				}
				return created, nil, err
			}
			if !student.IsStudent {
				rowErrs = append(rowErrs, importer.RowError{Line: rec.Line, Err: fmt.Errorf("%q is not a student", rec.StudentUsername)})
				continue
			}
			p.StudentID = &student.ID
		}
		if _, err := s.store.CreateProject(ctx, p); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				rowErrs = append(rowErrs, importer.RowError{Line: rec.Line, Err: fmt.Errorf("student %q already has a project", rec.StudentUsername)})
				continue
			}
			return created, nil, err
		}
		created++
	}
	s.log.Info("projects imported", zap.Int("created", created), zap.Int("rejected", len(rowErrs)))
	return created, rowErrs, nil
}

// ImportMilestones bulk-creates milestones for one project from CSV.
func (s *Service) ImportMilestones(ctx context.Context, actorID, projectID int64, r io.Reader) (created int, rowErrs []importer.RowError, err error) {
	defer func() { s.observe(authz.OpImport, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return 0, nil, err
	}
	if _, err := s.project(ctx, projectID); err != nil {
		return 0, nil, err
	}
	if !authz.Allowed(authz.OpImport, actor, nil) {
		return 0, nil, ErrPermissionDenied
	}

	records, rowErrs, err := importer.ParseMilestones(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, rec := range records {
		m := &models.Milestone{
			ProjectID: projectID,
			Title:     rec.Title,
			Deadline:  rec.Deadline,
			Status:    models.MilestoneNotStarted,
			Note:      rec.Note,
		}
		if _, err := s.store.CreateMilestone(ctx, m); err != nil {
			return created, nil, err
		}
		created++
	}
	s.log.Info("milestones imported", zap.Int64("project", projectID), zap.Int("created", created), zap.Int("rejected", len(rowErrs)))
	return created, rowErrs, nil
}
