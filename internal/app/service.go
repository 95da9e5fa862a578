package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/metrics"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// Store is what the operations layer needs from persistence. *db.Store is
// the production implementation; tests use an in-memory fake. Guarded
// methods return false when the WHERE-clause guard did not match, i.e. the
// transition stopped being legal between read and write.
type Store interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User, passwordHash string) (int64, error)
	ListTeachers(ctx context.Context) ([]models.User, error)
	Preferences(ctx context.Context, userID int64) (*models.Preferences, error)
	SavePreferences(ctx context.Context, p *models.Preferences) error

	SchemeByID(ctx context.Context, id int64) (*models.ScoringScheme, error)
	ActiveScheme(ctx context.Context) (*models.ScoringScheme, error)
	CreateScheme(ctx context.Context, sc *models.ScoringScheme) (int64, error)
	ActivateScheme(ctx context.Context, id int64) (bool, error)
	ListSchemes(ctx context.Context) ([]models.ScoringScheme, error)

	ProjectByID(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	StudentHasProject(ctx context.Context, studentID int64) (bool, error)
	ListProjects(ctx context.Context, f db.ProjectFilter) ([]models.Project, error)
	AssignLeader(ctx context.Context, projectID, teacherID int64) (bool, error)
	ClearLeader(ctx context.Context, projectID, leaderID int64) (bool, error)
	SetOpponent(ctx context.Context, projectID, opponentID int64) (bool, error)
	ClearOpponent(ctx context.Context, projectID, opponentID int64) (bool, error)
	UpdateStudentFields(ctx context.Context, projectID, studentID int64, title, description string) (bool, error)
	UpdateAssignment(ctx context.Context, projectID int64, leaderID *int64, assignment string) (bool, error)
	UpdateNotes(ctx context.Context, projectID int64, leaderID *int64, notes string) (bool, error)
	UpdateDelivery(ctx context.Context, projectID int64, leaderID *int64, work, documentation *time.Time) (bool, error)
	UpdateExternals(ctx context.Context, projectID int64, leaderID *int64, p *models.Project) (bool, error)
	SetStatus(ctx context.Context, projectID int64, status models.ProjectStatus) (bool, error)

	MilestoneByID(ctx context.Context, id int64) (*models.Milestone, error)
	ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error)
	CreateMilestone(ctx context.Context, m *models.Milestone) (int64, error)
	CreateMilestoneForStudent(ctx context.Context, m *models.Milestone, studentID int64) (int64, bool, error)
	UpdateMilestone(ctx context.Context, m *models.Milestone) (bool, error)
	UpdateMilestoneForStudent(ctx context.Context, m *models.Milestone, studentID int64) (bool, error)
	DeleteMilestone(ctx context.Context, id int64) (bool, error)
	DeleteMilestoneForStudent(ctx context.Context, id, studentID int64) (bool, error)

	ControlCheckByID(ctx context.Context, id int64) (*models.ControlCheck, error)
	ListControlChecks(ctx context.Context, projectID int64) ([]models.ControlCheck, error)
	CreateControlCheck(ctx context.Context, c *models.ControlCheck) (int64, error)
	InsertControlChecks(ctx context.Context, projectID int64, checks []models.ControlCheck) (int, error)
	UpdateControlCheck(ctx context.Context, c *models.ControlCheck) (bool, error)
	DeleteControlCheck(ctx context.Context, id int64) (bool, error)

	LeaderEval(ctx context.Context, projectID int64) (*models.LeaderEvaluation, error)
	UpsertLeaderEval(ctx context.Context, e *models.LeaderEvaluation) error
	OpponentEval(ctx context.Context, projectID int64) (*models.OpponentEvaluation, error)
	UpsertOpponentEval(ctx context.Context, e *models.OpponentEvaluation) error
}

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func New(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// actor resolves the acting principal; unknown or inactive principals are
// denied rather than 404'd, only projects get NotFound semantics.
func (s *Service) actor(ctx context.Context, actorID int64) (*models.User, error) {
	u, err := s.store.UserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrPermissionDenied
	}
	return u, nil
}

func (s *Service) project(ctx context.Context, id int64) (*models.Project, error) {
	p, err := s.store.ProjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) scheme(ctx context.Context, p *models.Project) (*models.ScoringScheme, error) {
	if p.SchemeID == nil {
		return nil, nil
	}
	sc, err := s.store.SchemeByID(ctx, *p.SchemeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sc, nil
}

// observe records the operation outcome and logs failures that are not
// plain user errors.
func (s *Service) observe(op authz.Op, actorID int64, err error) {
	o := outcome(err)
	metrics.Operations.WithLabelValues(string(op), o).Inc()
	if o == "error" {
		s.log.Error("operation failed", zap.String("op", string(op)), zap.Int64("actor", actorID), zap.Error(err))
		return
	}
	if err != nil {
		s.log.Debug("operation rejected", zap.String("op", string(op)), zap.Int64("actor", actorID), zap.Error(err))
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// parseDay parses a YYYY-MM-DD value into a midnight UTC instant.
func parseDay(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, ErrInvalidInput
	}
	return t, nil
}

// leaderGuardFor waives the row-level leader guard for administrators.
func leaderGuardFor(u *models.User) *int64 {
	if u.IsAdmin {
		return nil
	}
	id := u.ID
	return &id
}
