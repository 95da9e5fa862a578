package app

import (
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// JSON shapes for the API. Kept separate from the models so the wire
// format can stay stable while the storage structs move.

type projectDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignment  string `json:"assignment,omitempty"`
	Status      string `json:"status"`

	StudentID  *int64 `json:"student_id"`
	LeaderID   *int64 `json:"leader_id"`
	OpponentID *int64 `json:"opponent_id"`
	SchemeID   *int64 `json:"scheme_id"`

	ExternalLeader        string `json:"external_leader,omitempty"`
	ExternalLeaderEmail   string `json:"external_leader_email,omitempty"`
	ExternalLeaderPhone   string `json:"external_leader_phone,omitempty"`
	ExternalOpponent      string `json:"external_opponent,omitempty"`
	ExternalOpponentEmail string `json:"external_opponent_email,omitempty"`
	ExternalOpponentPhone string `json:"external_opponent_phone,omitempty"`

	InternalNotes string `json:"internal_notes,omitempty"`

	DeliveryWorkDate          *string `json:"delivery_work_date,omitempty"`
	DeliveryDocumentationDate *string `json:"delivery_documentation_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toProjectDTO(p *models.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Assignment:  p.Assignment,
		Status:      string(p.Status),

		StudentID:  p.StudentID,
		LeaderID:   p.LeaderID,
		OpponentID: p.OpponentID,
		SchemeID:   p.SchemeID,

		ExternalLeader:        p.ExternalLeader,
		ExternalLeaderEmail:   p.ExternalLeaderEmail,
		ExternalLeaderPhone:   p.ExternalLeaderPhone,
		ExternalOpponent:      p.ExternalOpponent,
		ExternalOpponentEmail: p.ExternalOpponentEmail,
		ExternalOpponentPhone: p.ExternalOpponentPhone,

		InternalNotes: p.InternalNotes,

		DeliveryWorkDate:          dayString(p.DeliveryWorkDate),
		DeliveryDocumentationDate: dayString(p.DeliveryDocumentationDate),

		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type milestoneDTO struct {
	ID        int64   `json:"id"`
	ProjectID int64   `json:"project_id"`
	Title     string  `json:"title"`
	Deadline  *string `json:"deadline"`
	Status    string  `json:"status"`
	Note      string  `json:"note,omitempty"`
}

func toMilestoneDTO(m *models.Milestone) milestoneDTO {
	return milestoneDTO{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Title:     m.Title,
		Deadline:  dayString(m.Deadline),
		Status:    string(m.Status),
		Note:      m.Note,
	}
}

type controlCheckDTO struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"project_id"`
	Date       string `json:"date"`
	Content    string `json:"content"`
	Evaluation string `json:"evaluation,omitempty"`
}

func toControlCheckDTO(c *models.ControlCheck) controlCheckDTO {
	return controlCheckDTO{
		ID:         c.ID,
		ProjectID:  c.ProjectID,
		Date:       c.Date.Format("2006-01-02"),
		Content:    c.Content,
		Evaluation: c.Evaluation,
	}
}

type schemeDTO struct {
	ID   int64  `json:"id"`
	Year string `json:"year"`

	LeaderArea1Max int `json:"leader_area1_max"`
	LeaderArea2Max int `json:"leader_area2_max"`
	LeaderArea3Max int `json:"leader_area3_max"`

	OpponentArea1Max int `json:"opponent_area1_max"`
	OpponentArea2Max int `json:"opponent_area2_max"`

	StudentEditDeadline *time.Time `json:"student_edit_deadline"`
	Active              bool       `json:"active"`

	ControlDeadline1 *string `json:"control_deadline1"`
	ControlDeadline2 *string `json:"control_deadline2"`
	ControlDeadline3 *string `json:"control_deadline3"`
}

func toSchemeDTO(sc *models.ScoringScheme) schemeDTO {
	return schemeDTO{
		ID:                  sc.ID,
		Year:                sc.Year,
		LeaderArea1Max:      sc.LeaderArea1Max,
		LeaderArea2Max:      sc.LeaderArea2Max,
		LeaderArea3Max:      sc.LeaderArea3Max,
		OpponentArea1Max:    sc.OpponentArea1Max,
		OpponentArea2Max:    sc.OpponentArea2Max,
		StudentEditDeadline: sc.StudentEditDeadline,
		Active:              sc.Active,
		ControlDeadline1:    dayString(sc.ControlDeadline1),
		ControlDeadline2:    dayString(sc.ControlDeadline2),
		ControlDeadline3:    dayString(sc.ControlDeadline3),
	}
}

type userDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	ClassName   string `json:"class_name,omitempty"`
	StudyBranch string `json:"study_branch,omitempty"`
	IsStudent   bool   `json:"is_student"`
	IsTeacher   bool   `json:"is_teacher"`
	IsAdmin     bool   `json:"is_admin"`
	IsActive    bool   `json:"is_active"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		ClassName:   u.ClassName,
		StudyBranch: string(u.StudyBranch),
		IsStudent:   u.IsStudent,
		IsTeacher:   u.IsTeacher,
		IsAdmin:     u.IsAdmin,
		IsActive:    u.IsActive,
	}
}

type preferencesDTO struct {
	DefaultYear        string `json:"default_year,omitempty"`
	MyProjectsDefault  bool   `json:"my_projects_default"`
	EmailNotifications bool   `json:"email_notifications"`
	ConsultationText1  string `json:"consultation_text1,omitempty"`
	ConsultationText2  string `json:"consultation_text2,omitempty"`
	ConsultationText3  string `json:"consultation_text3,omitempty"`
}

func toPreferencesDTO(p *models.Preferences) preferencesDTO {
	return preferencesDTO{
		DefaultYear:        p.DefaultYear,
		MyProjectsDefault:  p.MyProjectsDefault,
		EmailNotifications: p.EmailNotifications,
		ConsultationText1:  p.ConsultationText1,
		ConsultationText2:  p.ConsultationText2,
		ConsultationText3:  p.ConsultationText3,
	}
}

type leaderEvalDTO struct {
	ProjectID int64 `json:"project_id"`

	Area1Text   string `json:"area1_text"`
	Area1Points int    `json:"area1_points"`
	Area2Text   string `json:"area2_text"`
	Area2Points int    `json:"area2_points"`
	Area3Text   string `json:"area3_text"`
	Area3Points int    `json:"area3_points"`

	DefenseQuestions string `json:"defense_questions,omitempty"`
	QuestionsVisible bool   `json:"questions_visible"`

	SubmissionStatus *string    `json:"submission_status,omitempty"`
	ExportDate       *time.Time `json:"export_date,omitempty"`

	TotalPoints int `json:"total_points"`
}

func toLeaderEvalDTO(e *models.LeaderEvaluation) leaderEvalDTO {
	dto := leaderEvalDTO{
		ProjectID:        e.ProjectID,
		Area1Text:        e.Area1Text,
		Area1Points:      e.Area1Points,
		Area2Text:        e.Area2Text,
		Area2Points:      e.Area2Points,
		Area3Text:        e.Area3Text,
		Area3Points:      e.Area3Points,
		DefenseQuestions: e.DefenseQuestions,
		QuestionsVisible: e.QuestionsVisible,
		ExportDate:       e.ExportDate,
		TotalPoints:      e.TotalPoints(),
	}
	if e.SubmissionStatus != nil {
		s := string(*e.SubmissionStatus)
		dto.SubmissionStatus = &s
	}
	return dto
}

type opponentEvalDTO struct {
	ProjectID int64 `json:"project_id"`

	Area1Text   string `json:"area1_text"`
	Area1Points int    `json:"area1_points"`
	Area2Text   string `json:"area2_text"`
	Area2Points int    `json:"area2_points"`

	DefenseQuestions string `json:"defense_questions,omitempty"`
	QuestionsVisible bool   `json:"questions_visible"`

	ExportDate *time.Time `json:"export_date,omitempty"`

	TotalPoints int `json:"total_points"`
}

func toOpponentEvalDTO(e *models.OpponentEvaluation) opponentEvalDTO {
	return opponentEvalDTO{
		ProjectID:        e.ProjectID,
		Area1Text:        e.Area1Text,
		Area1Points:      e.Area1Points,
		Area2Text:        e.Area2Text,
		Area2Points:      e.Area2Points,
		DefenseQuestions: e.DefenseQuestions,
		QuestionsVisible: e.QuestionsVisible,
		ExportDate:       e.ExportDate,
		TotalPoints:      e.TotalPoints(),
	}
}

func dayString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
