package app

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MasterPumpkin/evidence-mp/internal/authz"
	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// UserInput is the administrator-facing account creation payload.
type UserInput struct {
	Username    string             `json:"username" validate:"required,max=150"`
	Name        string             `json:"name" validate:"required,max=200"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Password    string             `json:"password" validate:"required,min=8"`
	ClassName   string             `json:"class_name" validate:"max=10"`
	StudyBranch models.StudyBranch `json:"study_branch"`
	IsStudent   bool               `json:"is_student"`
	IsTeacher   bool               `json:"is_teacher"`
	IsAdmin     bool               `json:"is_admin"`
}

// CreateUser registers an account; admin only. The password is stored as a
// bcrypt hash.
func (s *Service) CreateUser(ctx context.Context, actorID int64, in UserInput) (u *models.User, err error) {
	defer func() { s.observe(authz.OpImport, actorID, err) }()

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.Allowed(authz.OpImport, actor, nil) {
		return nil, ErrPermissionDenied
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	if in.StudyBranch != "" && in.StudyBranch != models.BranchElectro && in.StudyBranch != models.BranchIT {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	nu := &models.User{
		Username:    in.Username,
		Name:        in.Name,
		Email:       in.Email,
		ClassName:   in.ClassName,
		StudyBranch: in.StudyBranch,
		IsStudent:   in.IsStudent,
		IsTeacher:   in.IsTeacher,
		IsAdmin:     in.IsAdmin,
		IsActive:    true,
	}
	id, err := s.store.CreateUser(ctx, nu, string(hash))
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	s.log.Info("user created", zap.Int64("user", id), zap.String("username", in.Username))
	return s.store.UserByID(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return u, nil
}

func (s *Service) ListTeachers(ctx context.Context) ([]models.User, error) {
	return s.store.ListTeachers(ctx)
}

// GetPreferences returns the caller's settings row, creating it on first
// access.
func (s *Service) GetPreferences(ctx context.Context, actorID int64) (*models.Preferences, error) {
	if _, err := s.actor(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.Preferences(ctx, actorID)
}

// PreferencesInput is the user-editable settings payload.
type PreferencesInput struct {
	DefaultYear        string `json:"default_year" validate:"max=20"`
	MyProjectsDefault  bool   `json:"my_projects_default"`
	EmailNotifications bool   `json:"email_notifications"`
	ConsultationText1  string `json:"consultation_text1"`
	ConsultationText2  string `json:"consultation_text2"`
	ConsultationText3  string `json:"consultation_text3"`
}

func (s *Service) SavePreferences(ctx context.Context, actorID int64, in PreferencesInput) (*models.Preferences, error) {
	if _, err := s.actor(ctx, actorID); err != nil {
		return nil, err
	}
	if err := checkInput(in); err != nil {
		return nil, err
	}
	err := s.store.SavePreferences(ctx, &models.Preferences{
		UserID:             actorID,
		DefaultYear:        in.DefaultYear,
		MyProjectsDefault:  in.MyProjectsDefault,
		EmailNotifications: in.EmailNotifications,
		ConsultationText1:  in.ConsultationText1,
		ConsultationText2:  in.ConsultationText2,
		ConsultationText3:  in.ConsultationText3,
	})
	if err != nil {
		return nil, err
	}
	return s.store.Preferences(ctx, actorID)
}
