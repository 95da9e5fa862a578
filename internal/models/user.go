package models

type StudyBranch string

const (
	BranchElectro StudyBranch = "E"
	BranchIT      StudyBranch = "IT"
)

type User struct {
	ID          int64
	Username    string
	Name        string
	Email       string
	ClassName   string
	StudyBranch StudyBranch
	IsStudent   bool
	IsTeacher   bool
	IsAdmin     bool
	IsActive    bool
}

// Preferences holds per-user settings, one row per user, created on first
// access.
// The three consultation texts are the saved templates used when generating
// control checks from the scheme deadlines.
type Preferences struct {
	UserID             int64
	DefaultYear        string
	MyProjectsDefault  bool
	EmailNotifications bool
	ConsultationText1  string
	ConsultationText2  string
	ConsultationText3  string
}

// ConsultationText returns the saved template for slot 1..3, "" otherwise.
func (p *Preferences) ConsultationText(slot int) string {
	switch slot {
	case 1:
		return p.ConsultationText1
	case 2:
		return p.ConsultationText2
	case 3:
		return p.ConsultationText3
	}
	return ""
}
