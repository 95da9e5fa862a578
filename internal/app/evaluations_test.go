package app

import (
	"context"
	"errors"
	"testing"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

func TestSubmitLeaderEvaluation_Bounds(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f) // caps 15/10/15
	leader := seedTeacher(f, "vedouci")

	p, _ := svc.CreateTeacherProject(ctx, leader.ID, TeacherProjectInput{Title: "t", Description: "d"})

	// at the cap passes
	e, err := svc.SubmitLeaderEvaluation(ctx, leader.ID, p.ID, LeaderEvalInput{
		Area1Points: 15, Area2Points: 10, Area3Points: 15,
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.TotalPoints() != 40 {
		t.Fatalf("total = %d, want 40", e.TotalPoints())
	}

	// one over the cap names the offending area
	_, err = svc.SubmitLeaderEvaluation(ctx, leader.ID, p.ID, LeaderEvalInput{
		Area1Points: 15, Area2Points: 11, Area3Points: 15,
	})
	if !errors.Is(err, ErrPointsExceedMaximum) {
		t.Fatalf("err = %v, want ErrPointsExceedMaximum", err)
	}
	var pe *PointsError
	if !errors.As(err, &pe) || pe.Area != 2 || pe.Max != 10 {
		t.Fatalf("points error = %+v", pe)
	}

	// a rejected submission must not overwrite the stored one
	stored, err := svc.LeaderEvaluation(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Area2Points != 10 {
		t.Fatalf("stored area2 = %d, want 10", stored.Area2Points)
	}
}

func TestSubmitLeaderEvaluation_Negative(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	leader := seedTeacher(f, "vedouci")
	p, _ := svc.CreateTeacherProject(ctx, leader.ID, TeacherProjectInput{Title: "t", Description: "d"})

	_, err := svc.SubmitLeaderEvaluation(ctx, leader.ID, p.ID, LeaderEvalInput{Area1Points: -1})
	if !errors.Is(err, ErrPointsExceedMaximum) && !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative points must be rejected, got %v", err)
	}
}

func TestSubmitLeaderEvaluation_NoSchemeUnbounded(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	leader := seedTeacher(f, "vedouci")
	lid := leader.ID
	p := f.addProject(models.Project{Title: "legacy", Status: models.StatusApproved, LeaderID: &lid})

	// projects predating scheme bookkeeping have no caps
	e, err := svc.SubmitLeaderEvaluation(ctx, leader.ID, p.ID, LeaderEvalInput{
		Area1Points: 99, Area2Points: 99, Area3Points: 99,
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.TotalPoints() != 297 {
		t.Fatalf("total = %d", e.TotalPoints())
	}
}

func TestSubmitLeaderEvaluation_OnlyLeader(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f)
	leader := seedTeacher(f, "vedouci")
	other := seedTeacher(f, "jiny")
	p, _ := svc.CreateTeacherProject(ctx, leader.ID, TeacherProjectInput{Title: "t", Description: "d"})

	if _, err := svc.SubmitLeaderEvaluation(ctx, other.ID, p.ID, LeaderEvalInput{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestSubmitOpponentEvaluation(t *testing.T) {
	ctx := context.Background()
	svc, f := newTestService()
	seedScheme(f) // opponent caps 15/15
	leader := seedTeacher(f, "vedouci")
	opponent := seedTeacher(f, "oponent")
	p, _ := svc.CreateTeacherProject(ctx, leader.ID, TeacherProjectInput{Title: "t", Description: "d"})
	if _, err := svc.TakeOpponent(ctx, opponent.ID, p.ID); err != nil {
		t.Fatal(err)
	}

	// the leader does not hold the opponent relation
	if _, err := svc.SubmitOpponentEvaluation(ctx, leader.ID, p.ID, OpponentEvalInput{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}

	if _, err := svc.SubmitOpponentEvaluation(ctx, opponent.ID, p.ID, OpponentEvalInput{Area1Points: 16}); !errors.Is(err, ErrPointsExceedMaximum) {
		t.Fatalf("err = %v, want ErrPointsExceedMaximum", err)
	}

	e, err := svc.SubmitOpponentEvaluation(ctx, opponent.ID, p.ID, OpponentEvalInput{
		Area1Points: 15, Area2Points: 14, DefenseQuestions: "Jak funguje PID?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.TotalPoints() != 29 {
		t.Fatalf("total = %d, want 29", e.TotalPoints())
	}

	// upsert: a second submit replaces, not duplicates
	e2, err := svc.SubmitOpponentEvaluation(ctx, opponent.ID, p.ID, OpponentEvalInput{Area1Points: 10, Area2Points: 10})
	if err != nil {
		t.Fatal(err)
	}
	if e2.ID != e.ID {
		t.Fatalf("expected upsert to keep row %d, got %d", e.ID, e2.ID)
	}
}
