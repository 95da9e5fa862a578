//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/models"
	"github.com/MasterPumpkin/evidence-mp/internal/testutil/testdb"
)

func startStore(t *testing.T) (context.Context, *db.Store, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h, err := testdb.Start(ctx)
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	return ctx, db.NewStore(h.DB), func() {
		h.Close()
		cancel()
	}
}

func mustUser(t *testing.T, ctx context.Context, s *db.Store, u models.User) int64 {
	t.Helper()
	u.IsActive = true
	id, err := s.CreateUser(ctx, &u, "x")
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestOneProjectPerStudent(t *testing.T) {
	ctx, s, done := startStore(t)
	defer done()

	sid := mustUser(t, ctx, s, models.User{Username: "novak", Name: "Jan Novák", IsStudent: true})

	p := models.Project{Title: "první", Description: "d", Status: models.StatusPendingApproval, StudentID: &sid}
	if _, err := s.CreateProject(ctx, &p); err != nil {
		t.Fatal(err)
	}

	p2 := models.Project{Title: "druhý", Description: "d", Status: models.StatusPendingApproval, StudentID: &sid}
	if _, err := s.CreateProject(ctx, &p2); !errors.Is(err, db.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	// projects without a student are not limited
	open1 := models.Project{Title: "téma A", Description: "d", Status: models.StatusPendingApproval}
	open2 := models.Project{Title: "téma B", Description: "d", Status: models.StatusPendingApproval}
	if _, err := s.CreateProject(ctx, &open1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateProject(ctx, &open2); err != nil {
		t.Fatal(err)
	}
}

func TestAssignLeaderCAS(t *testing.T) {
	ctx, s, done := startStore(t)
	defer done()

	t1 := mustUser(t, ctx, s, models.User{Username: "prvni", Name: "První", IsTeacher: true})
	t2 := mustUser(t, ctx, s, models.User{Username: "druhy", Name: "Druhý", IsTeacher: true})

	p := models.Project{Title: "t", Description: "d", Status: models.StatusPendingApproval}
	pid, err := s.CreateProject(ctx, &p)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := s.AssignLeader(ctx, pid, t1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("first assign must succeed")
	}

	// the slot is taken; the second write must not land
	ok, err = s.AssignLeader(ctx, pid, t2)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second assign must fail")
	}

	got, err := s.ProjectByID(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if got.LeaderID == nil || *got.LeaderID != t1 {
		t.Fatalf("leader = %v, want %d", got.LeaderID, t1)
	}
	if got.Status != models.StatusApproved {
		t.Fatalf("status = %s", got.Status)
	}

	// only the holder can clear
	if ok, _ := s.ClearLeader(ctx, pid, t2); ok {
		t.Fatal("non-leader clear must fail")
	}
	if ok, _ := s.ClearLeader(ctx, pid, t1); !ok {
		t.Fatal("leader clear must succeed")
	}
	got, _ = s.ProjectByID(ctx, pid)
	if got.Status != models.StatusPendingApproval || got.LeaderID != nil {
		t.Fatalf("after clear: %+v", got)
	}
}

func TestUpdateStudentFieldsGuard(t *testing.T) {
	ctx, s, done := startStore(t)
	defer done()

	sid := mustUser(t, ctx, s, models.User{Username: "novak", Name: "Jan", IsStudent: true})
	tid := mustUser(t, ctx, s, models.User{Username: "ucitel", Name: "Učitel", IsTeacher: true})

	p := models.Project{Title: "t", Description: "d", Status: models.StatusPendingApproval, StudentID: &sid}
	pid, _ := s.CreateProject(ctx, &p)

	if ok, _ := s.UpdateStudentFields(ctx, pid, sid, "t2", "d2"); !ok {
		t.Fatal("pending edit must pass")
	}
	// someone else's id does not match the guard
	if ok, _ := s.UpdateStudentFields(ctx, pid, sid+100, "x", "y"); ok {
		t.Fatal("foreign edit must fail")
	}

	if _, err := s.AssignLeader(ctx, pid, tid); err != nil {
		t.Fatal(err)
	}
	// approval closes the window at the row level
	if ok, _ := s.UpdateStudentFields(ctx, pid, sid, "t3", "d3"); ok {
		t.Fatal("edit after approval must fail")
	}
}

func TestInsertControlChecksIdempotent(t *testing.T) {
	ctx, s, done := startStore(t)
	defer done()

	p := models.Project{Title: "t", Description: "d", Status: models.StatusApproved}
	pid, _ := s.CreateProject(ctx, &p)

	d1 := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	checks := []models.ControlCheck{
		{Date: d1, Content: "Konzultace #1"},
		{Date: d2, Content: "Konzultace #2"},
	}

	n, err := s.InsertControlChecks(ctx, pid, checks)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	n, err = s.InsertControlChecks(ctx, pid, checks)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rerun inserted = %d, want 0", n)
	}

	got, err := s.ListControlChecks(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("checks = %d, want 2", len(got))
	}
}

func TestActivateSchemeExclusive(t *testing.T) {
	ctx, s, done := startStore(t)
	defer done()

	a, err := s.CreateScheme(ctx, &models.ScoringScheme{Year: "2025/2026", Active: true})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateScheme(ctx, &models.ScoringScheme{Year: "2026/2027"})
	if err != nil {
		t.Fatal(err)
	}

	active, err := s.ActiveScheme(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active.ID != a {
		t.Fatalf("active = %d, want %d", active.ID, a)
	}

	if ok, err := s.ActivateScheme(ctx, b); err != nil || !ok {
		t.Fatalf("activate: ok=%v err=%v", ok, err)
	}
	active, _ = s.ActiveScheme(ctx)
	if active.ID != b {
		t.Fatalf("active = %d, want %d", active.ID, b)
	}

	schemes, _ := s.ListSchemes(ctx)
	for _, sc := range schemes {
		if sc.ID != b && sc.Active {
			t.Fatalf("scheme %d still active", sc.ID)
		}
	}
}

func TestPreferencesGetOrCreate(t *testing.T) {
	ctx, s, done := startStore(t)
	defer done()

	uid := mustUser(t, ctx, s, models.User{Username: "ucitel", Name: "Učitel", IsTeacher: true})

	p, err := s.Preferences(ctx, uid)
	if err != nil {
		t.Fatal(err)
	}
	if p.UserID != uid {
		t.Fatalf("prefs user = %d", p.UserID)
	}

	p.ConsultationText1 = "Úvodní konzultace"
	p.EmailNotifications = true
	if err := s.SavePreferences(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.Preferences(ctx, uid)
	if err != nil {
		t.Fatal(err)
	}
	if got.ConsultationText1 != "Úvodní konzultace" || !got.EmailNotifications {
		t.Fatalf("prefs = %+v", got)
	}
}
