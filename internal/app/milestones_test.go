package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

func TestStudentMilestones_PendingWindow(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	student := seedStudent(f, "novak")

	p, _ := svc.CreateStudentProject(ctx, student.ID, ProjectInput{Title: "t", Description: "d"})

	m, err := svc.CreateMilestone(ctx, student.ID, p.ID, MilestoneInput{Title: "Rešerše"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != models.MilestoneNotStarted {
		t.Fatalf("status = %s, want not_started", m.Status)
	}

	um, err := svc.SetMilestoneStatus(ctx, student.ID, m.ID, models.MilestoneInProgress)
	if err != nil {
		t.Fatal(err)
	}
	if um.Status != models.MilestoneInProgress {
		t.Fatalf("status = %s", um.Status)
	}

	if err := svc.DeleteMilestone(ctx, student.ID, m.ID); err != nil {
		t.Fatal(err)
	}
}

func TestStudentMilestones_BlockedAfterApproval(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	student := seedStudent(f, "novak")
	teacher := seedTeacher(f, "ucitel")

	p, _ := svc.CreateStudentProject(ctx, student.ID, ProjectInput{Title: "t", Description: "d"})
	m, err := svc.CreateMilestone(ctx, student.ID, p.ID, MilestoneInput{Title: "Rešerše"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Approve(ctx, teacher.ID, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CreateMilestone(ctx, student.ID, p.ID, MilestoneInput{Title: "Další"}); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}
	if _, err := svc.UpdateMilestone(ctx, student.ID, m.ID, MilestoneInput{Title: "Přejmenováno"}); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}
	if err := svc.DeleteMilestone(ctx, student.ID, m.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}

	// the leader still manages milestones after approval
	if _, err := svc.CreateMilestone(ctx, teacher.ID, p.ID, MilestoneInput{Title: "Prototyp"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateMilestone(ctx, teacher.ID, m.ID, MilestoneInput{Title: "Rešerše v2", Status: models.MilestoneDone}); err != nil {
		t.Fatal(err)
	}
}

func TestStudentMilestones_OpenAfterRejection(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	student := seedStudent(f, "novak")
	admin := seedAdmin(f)

	p, _ := svc.CreateStudentProject(ctx, student.ID, ProjectInput{Title: "t", Description: "d"})
	if _, err := svc.SetStatus(ctx, admin.ID, p.ID, models.StatusRejected); err != nil {
		t.Fatal(err)
	}

	// only approval closes the gate; a rejected project stays editable
	m, err := svc.CreateMilestone(ctx, student.ID, p.ID, MilestoneInput{Title: "Rešerše"})
	if err != nil {
		t.Fatalf("milestone on rejected project: %v", err)
	}
	if _, err := svc.UpdateMilestone(ctx, student.ID, m.ID, MilestoneInput{Title: "Rešerše v2"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMilestone(ctx, student.ID, m.ID); err != nil {
		t.Fatal(err)
	}
}

func TestStudentMilestones_BlockedAfterDeadline(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	scheme := seedScheme(f)
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	f.schemes[scheme.ID].StudentEditDeadline = &deadline
	student := seedStudent(f, "novak")

	p, _ := svc.CreateStudentProject(ctx, student.ID, ProjectInput{Title: "t", Description: "d"})

	svc.now = func() time.Time { return deadline }
	if _, err := svc.CreateMilestone(ctx, student.ID, p.ID, MilestoneInput{Title: "Na hraně"}); err != nil {
		t.Fatalf("milestone at the deadline instant should pass: %v", err)
	}

	svc.now = func() time.Time { return deadline.Add(time.Minute) }
	if _, err := svc.CreateMilestone(ctx, student.ID, p.ID, MilestoneInput{Title: "Pozdě"}); !errors.Is(err, ErrEditWindowClosed) {
		t.Fatalf("err = %v, want ErrEditWindowClosed", err)
	}
}

func TestMilestones_ForeignStudentDenied(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	owner := seedStudent(f, "novak")
	other := seedStudent(f, "jiny")

	p, _ := svc.CreateStudentProject(ctx, owner.ID, ProjectInput{Title: "t", Description: "d"})

	if _, err := svc.CreateMilestone(ctx, other.ID, p.ID, MilestoneInput{Title: "Cizí"}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestMilestoneStatusValidation(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	leader := seedTeacher(f, "vedouci")
	p, _ := svc.CreateTeacherProject(ctx, leader.ID, TeacherProjectInput{Title: "t", Description: "d"})
	m, err := svc.CreateMilestone(ctx, leader.ID, p.ID, MilestoneInput{Title: "x"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetMilestoneStatus(ctx, leader.ID, m.ID, "finished"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestMilestoneOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	m := models.Milestone{Deadline: &yesterday, Status: models.MilestoneInProgress}
	if !m.Overdue(now) {
		t.Fatal("yesterday's milestone must be overdue")
	}
	m.Deadline = &today
	if m.Overdue(now) {
		t.Fatal("a milestone due today is not overdue yet")
	}
	m.Deadline = &yesterday
	m.Status = models.MilestoneDone
	if m.Overdue(now) {
		t.Fatal("done milestones are never overdue")
	}
}
