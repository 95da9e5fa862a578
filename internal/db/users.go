package db

import (
	"context"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

const userCols = `id, username, name, email, class_name, study_branch, is_student, is_teacher, is_admin, is_active`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.ClassName, &u.StudyBranch,
		&u.IsStudent, &u.IsTeacher, &u.IsAdmin, &u.IsActive)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, name, email, class_name, study_branch, is_student, is_teacher, is_admin, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, u.Username, u.Name, u.Email, u.ClassName, u.StudyBranch,
		u.IsStudent, u.IsTeacher, u.IsAdmin, u.IsActive, passwordHash).Scan(&id)
	if err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

func (s *Store) ListTeachers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE is_teacher ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Preferences returns the user's row, creating the defaults on first access.
func (s *Store) Preferences(ctx context.Context, userID int64) (*models.Preferences, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, err
	}

	var p models.Preferences
	err = s.db.QueryRowContext(ctx, `
		SELECT user_id, default_year, myprojects_default, email_notifications,
		       consultation_text1, consultation_text2, consultation_text3
		FROM user_preferences WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.DefaultYear, &p.MyProjectsDefault, &p.EmailNotifications,
		&p.ConsultationText1, &p.ConsultationText2, &p.ConsultationText3)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) SavePreferences(ctx context.Context, p *models.Preferences) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, default_year, myprojects_default, email_notifications,
		                              consultation_text1, consultation_text2, consultation_text3)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
		    default_year = excluded.default_year,
		    myprojects_default = excluded.myprojects_default,
		    email_notifications = excluded.email_notifications,
		    consultation_text1 = excluded.consultation_text1,
		    consultation_text2 = excluded.consultation_text2,
		    consultation_text3 = excluded.consultation_text3
	`, p.UserID, p.DefaultYear, p.MyProjectsDefault, p.EmailNotifications,
		p.ConsultationText1, p.ConsultationText2, p.ConsultationText3)
	return err
}
