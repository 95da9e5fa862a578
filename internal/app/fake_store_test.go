package app

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// fakeStore mirrors the SQL layer's guard semantics in memory: guarded
// writes return false instead of touching rows when the guard no longer
// matches.
type fakeStore struct {
	nextID int64

	users      map[int64]*models.User
	passwords  map[int64]string
	prefs      map[int64]*models.Preferences
	schemes    map[int64]*models.ScoringScheme
	projects   map[int64]*models.Project
	milestones map[int64]*models.Milestone
	checks     map[int64]*models.ControlCheck
	leaderEv   map[int64]*models.LeaderEvaluation
	opponentEv map[int64]*models.OpponentEvaluation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[int64]*models.User{},
		passwords:  map[int64]string{},
		prefs:      map[int64]*models.Preferences{},
		schemes:    map[int64]*models.ScoringScheme{},
		projects:   map[int64]*models.Project{},
		milestones: map[int64]*models.Milestone{},
		checks:     map[int64]*models.ControlCheck{},
		leaderEv:   map[int64]*models.LeaderEvaluation{},
		opponentEv: map[int64]*models.OpponentEvaluation{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// seeding helpers

func (f *fakeStore) addUser(u models.User) *models.User {
	u.ID = f.id()
	u.IsActive = true
	f.users[u.ID] = &u
	return &u
}

func (f *fakeStore) addScheme(sc models.ScoringScheme) *models.ScoringScheme {
	sc.ID = f.id()
	f.schemes[sc.ID] = &sc
	return &sc
}

func (f *fakeStore) addProject(p models.Project) *models.Project {
	p.ID = f.id()
	f.projects[p.ID] = &p
	return &p
}

// users

func (f *fakeStore) UserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User, passwordHash string) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return 0, db.ErrDuplicate
		}
	}
	cp := *u
	cp.ID = f.id()
	f.users[cp.ID] = &cp
	f.passwords[cp.ID] = passwordHash
	return cp.ID, nil
}

func (f *fakeStore) ListTeachers(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.IsTeacher && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Preferences(_ context.Context, userID int64) (*models.Preferences, error) {
	p, ok := f.prefs[userID]
	if !ok {
		p = &models.Preferences{UserID: userID}
		f.prefs[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SavePreferences(_ context.Context, p *models.Preferences) error {
	cp := *p
	f.prefs[p.UserID] = &cp
	return nil
}

// schemes

func (f *fakeStore) SchemeByID(_ context.Context, id int64) (*models.ScoringScheme, error) {
	sc, ok := f.schemes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sc
	return &cp, nil
}

func (f *fakeStore) ActiveScheme(_ context.Context) (*models.ScoringScheme, error) {
	for _, sc := range f.schemes {
		if sc.Active {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) CreateScheme(_ context.Context, sc *models.ScoringScheme) (int64, error) {
	cp := *sc
	cp.ID = f.id()
	f.schemes[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) ActivateScheme(_ context.Context, id int64) (bool, error) {
	target, ok := f.schemes[id]
	if !ok {
		return false, nil
	}
	for _, sc := range f.schemes {
		sc.Active = false
	}
	target.Active = true
	return true, nil
}

func (f *fakeStore) ListSchemes(_ context.Context) ([]models.ScoringScheme, error) {
	var out []models.ScoringScheme
	for _, sc := range f.schemes {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// projects

func (f *fakeStore) ProjectByID(_ context.Context, id int64) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateProject(_ context.Context, p *models.Project) (int64, error) {
	if p.StudentID != nil {
		for _, existing := range f.projects {
			if existing.StudentID != nil && *existing.StudentID == *p.StudentID {
				return 0, db.ErrDuplicate
			}
		}
	}
	cp := *p
	cp.ID = f.id()
	f.projects[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) StudentHasProject(_ context.Context, studentID int64) (bool, error) {
	for _, p := range f.projects {
		if p.StudentID != nil && *p.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListProjects(_ context.Context, flt db.ProjectFilter) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if flt.Status != "" && p.Status != flt.Status {
			continue
		}
		if flt.LeaderID != 0 && (p.LeaderID == nil || *p.LeaderID != flt.LeaderID) {
			continue
		}
		if flt.OpponentID != 0 && (p.OpponentID == nil || *p.OpponentID != flt.OpponentID) {
			continue
		}
		if flt.StudentID != 0 && (p.StudentID == nil || *p.StudentID != flt.StudentID) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) AssignLeader(_ context.Context, projectID, teacherID int64) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || p.LeaderID != nil || p.Status.Terminal() {
		return false, nil
	}
	p.LeaderID = &teacherID
	p.Status = models.StatusApproved
	return true, nil
}

func (f *fakeStore) ClearLeader(_ context.Context, projectID, leaderID int64) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || p.LeaderID == nil || *p.LeaderID != leaderID {
		return false, nil
	}
	p.LeaderID = nil
	p.Status = models.StatusPendingApproval
	return true, nil
}

func (f *fakeStore) SetOpponent(_ context.Context, projectID, opponentID int64) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return false, nil
	}
	p.OpponentID = &opponentID
	return true, nil
}

func (f *fakeStore) ClearOpponent(_ context.Context, projectID, opponentID int64) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || p.OpponentID == nil || *p.OpponentID != opponentID {
		return false, nil
	}
	p.OpponentID = nil
	return true, nil
}

func (f *fakeStore) UpdateStudentFields(_ context.Context, projectID, studentID int64, title, description string) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || p.Status != models.StatusPendingApproval ||
		p.StudentID == nil || *p.StudentID != studentID {
		return false, nil
	}
	p.Title = title
	p.Description = description
	return true, nil
}

func (f *fakeStore) leaderMatch(p *models.Project, leaderID *int64) bool {
	if leaderID == nil {
		return true
	}
	return p.LeaderID != nil && *p.LeaderID == *leaderID
}

func (f *fakeStore) UpdateAssignment(_ context.Context, projectID int64, leaderID *int64, assignment string) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || !f.leaderMatch(p, leaderID) {
		return false, nil
	}
	p.Assignment = assignment
	return true, nil
}

func (f *fakeStore) UpdateNotes(_ context.Context, projectID int64, leaderID *int64, notes string) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || !f.leaderMatch(p, leaderID) {
		return false, nil
	}
	p.InternalNotes = notes
	return true, nil
}

func (f *fakeStore) UpdateDelivery(_ context.Context, projectID int64, leaderID *int64, work, documentation *time.Time) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || !f.leaderMatch(p, leaderID) {
		return false, nil
	}
	p.DeliveryWorkDate = work
	p.DeliveryDocumentationDate = documentation
	return true, nil
}

func (f *fakeStore) UpdateExternals(_ context.Context, projectID int64, leaderID *int64, src *models.Project) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok || !f.leaderMatch(p, leaderID) {
		return false, nil
	}
	p.ExternalLeader = src.ExternalLeader
	p.ExternalLeaderEmail = src.ExternalLeaderEmail
	p.ExternalLeaderPhone = src.ExternalLeaderPhone
	p.ExternalOpponent = src.ExternalOpponent
	p.ExternalOpponentEmail = src.ExternalOpponentEmail
	p.ExternalOpponentPhone = src.ExternalOpponentPhone
	return true, nil
}

func (f *fakeStore) SetStatus(_ context.Context, projectID int64, status models.ProjectStatus) (bool, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return false, nil
	}
	p.Status = status
	return true, nil
}

// milestones

func (f *fakeStore) MilestoneByID(_ context.Context, id int64) (*models.Milestone, error) {
	m, ok := f.milestones[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) ListMilestones(_ context.Context, projectID int64) ([]models.Milestone, error) {
	var out []models.Milestone
	for _, m := range f.milestones {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateMilestone(_ context.Context, m *models.Milestone) (int64, error) {
	cp := *m
	cp.ID = f.id()
	f.milestones[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) studentGuard(projectID, studentID int64) bool {
	p, ok := f.projects[projectID]
	return ok && p.StudentID != nil && *p.StudentID == studentID &&
		p.Status != models.StatusApproved
}

func (f *fakeStore) CreateMilestoneForStudent(ctx context.Context, m *models.Milestone, studentID int64) (int64, bool, error) {
	if !f.studentGuard(m.ProjectID, studentID) {
		return 0, false, nil
	}
	id, err := f.CreateMilestone(ctx, m)
	return id, err == nil, err
}

func (f *fakeStore) UpdateMilestone(_ context.Context, m *models.Milestone) (bool, error) {
	if _, ok := f.milestones[m.ID]; !ok {
		return false, nil
	}
	cp := *m
	f.milestones[m.ID] = &cp
	return true, nil
}

func (f *fakeStore) UpdateMilestoneForStudent(ctx context.Context, m *models.Milestone, studentID int64) (bool, error) {
	if !f.studentGuard(m.ProjectID, studentID) {
		return false, nil
	}
	return f.UpdateMilestone(ctx, m)
}

func (f *fakeStore) DeleteMilestone(_ context.Context, id int64) (bool, error) {
	if _, ok := f.milestones[id]; !ok {
		return false, nil
	}
	delete(f.milestones, id)
	return true, nil
}

func (f *fakeStore) DeleteMilestoneForStudent(ctx context.Context, id, studentID int64) (bool, error) {
	m, ok := f.milestones[id]
	if !ok || !f.studentGuard(m.ProjectID, studentID) {
		return false, nil
	}
	return f.DeleteMilestone(ctx, id)
}

// control checks

func (f *fakeStore) ControlCheckByID(_ context.Context, id int64) (*models.ControlCheck, error) {
	c, ok := f.checks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListControlChecks(_ context.Context, projectID int64) ([]models.ControlCheck, error) {
	var out []models.ControlCheck
	for _, c := range f.checks {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// dateTaken mirrors the per-project date uniqueness of the SQL schema.
func (f *fakeStore) dateTaken(projectID, selfID int64, date time.Time) bool {
	for _, c := range f.checks {
		if c.ProjectID == projectID && c.ID != selfID && c.Date.Equal(date) {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateControlCheck(_ context.Context, c *models.ControlCheck) (int64, error) {
	if f.dateTaken(c.ProjectID, 0, c.Date) {
		return 0, db.ErrDuplicate
	}
	cp := *c
	cp.ID = f.id()
	f.checks[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeStore) InsertControlChecks(ctx context.Context, projectID int64, checks []models.ControlCheck) (int, error) {
	n := 0
	for _, c := range checks {
		occupied := false
		for _, existing := range f.checks {
			if existing.ProjectID == projectID && existing.Date.Equal(c.Date) {
				occupied = true
				break
			}
		}
		if occupied {
			continue
		}
		c.ProjectID = projectID
		if _, err := f.CreateControlCheck(ctx, &c); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) UpdateControlCheck(_ context.Context, c *models.ControlCheck) (bool, error) {
	if _, ok := f.checks[c.ID]; !ok {
		return false, nil
	}
	if f.dateTaken(c.ProjectID, c.ID, c.Date) {
		return false, db.ErrDuplicate
	}
	cp := *c
	f.checks[c.ID] = &cp
	return true, nil
}

func (f *fakeStore) DeleteControlCheck(_ context.Context, id int64) (bool, error) {
	if _, ok := f.checks[id]; !ok {
		return false, nil
	}
	delete(f.checks, id)
	return true, nil
}

// evaluations

func (f *fakeStore) LeaderEval(_ context.Context, projectID int64) (*models.LeaderEvaluation, error) {
	e, ok := f.leaderEv[projectID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) UpsertLeaderEval(_ context.Context, e *models.LeaderEvaluation) error {
	cp := *e
	if old, ok := f.leaderEv[e.ProjectID]; ok {
		cp.ID = old.ID
	} else {
		cp.ID = f.id()
	}
	f.leaderEv[e.ProjectID] = &cp
	return nil
}

func (f *fakeStore) OpponentEval(_ context.Context, projectID int64) (*models.OpponentEvaluation, error) {
	e, ok := f.opponentEv[projectID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) UpsertOpponentEval(_ context.Context, e *models.OpponentEvaluation) error {
	cp := *e
	if old, ok := f.opponentEv[e.ProjectID]; ok {
		cp.ID = old.ID
	} else {
		cp.ID = f.id()
	}
	f.opponentEv[e.ProjectID] = &cp
	return nil
}

var _ Store = (*fakeStore)(nil)
