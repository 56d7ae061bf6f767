package gate

import (
	"testing"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/models"
)

func eligibility(count int, completed bool) *models.Eligibility {
	return &models.Eligibility{
		Participant:     models.Participant{Email: "ana@example.com", SurveyCompleted: completed},
		AttendanceCount: count,
		MinAttendance:   2,
		EligibleGeneral: count >= 2,
		SurveyCompleted: completed,
	}
}

func TestNew(t *testing.T) {
	g := New()
	if g.State != Unverified || g.Identifier != "" || g.Result != nil {
		t.Errorf("unexpected initial gate %+v", g)
	}
}

func TestApply_EligibleAwaitsSurvey(t *testing.T) {
	g := New()

	shortfall, err := g.Apply(eligibility(3, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shortfall != 0 {
		t.Errorf("expected no shortfall, got %d", shortfall)
	}
	if g.State != AwaitingSurvey {
		t.Errorf("expected %s, got %s", AwaitingSurvey, g.State)
	}
	if g.Identifier != "ana@example.com" {
		t.Errorf("expected identifier to be kept, got %q", g.Identifier)
	}
}

func TestApply_CompletedSkipsSurvey(t *testing.T) {
	g := New()

	if _, err := g.Apply(eligibility(2, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.State != Ready {
		t.Errorf("expected %s, got %s", Ready, g.State)
	}
}

func TestApply_NotEligibleReportsShortfall(t *testing.T) {
	g := New()

	shortfall, err := g.Apply(eligibility(1, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shortfall != 1 {
		t.Errorf("expected shortfall of 1, got %d", shortfall)
	}
	if g.State != Unverified {
		t.Errorf("expected gate to stay unverified, got %s", g.State)
	}
	if g.Identifier != "" {
		t.Errorf("expected no identifier, got %q", g.Identifier)
	}
	if g.Result == nil {
		t.Error("expected the evaluation to be kept for display")
	}
}

func TestApply_FromOtherStates(t *testing.T) {
	for _, s := range []State{AwaitingSurvey, Ready} {
		g := Gate{State: s, Identifier: "x@example.com"}
		if _, err := g.Apply(eligibility(3, false)); !errors.Is(err, errors.ErrConflict) {
			t.Errorf("Apply from %s: expected conflict, got %v", s, err)
		}
		if g.State != s {
			t.Errorf("Apply from %s changed state to %s", s, g.State)
		}
	}
}

func TestApply_Nil(t *testing.T) {
	g := New()
	if _, err := g.Apply(nil); !errors.Is(err, errors.ErrInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestCompleteSurvey(t *testing.T) {
	g := New()
	g.Apply(eligibility(2, false))

	if err := g.CompleteSurvey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.State != Ready {
		t.Errorf("expected %s, got %s", Ready, g.State)
	}
	if !g.Result.SurveyCompleted {
		t.Error("expected evaluation to reflect the completed survey")
	}
}

func TestCompleteSurvey_WrongState(t *testing.T) {
	testCases := []Gate{
		New(),
		{State: Ready, Identifier: "ana@example.com"},
	}

	for _, g := range testCases {
		before := g.State
		if err := g.CompleteSurvey(); !errors.Is(err, errors.ErrConflict) {
			t.Errorf("CompleteSurvey from %s: expected conflict, got %v", before, err)
		}
		if g.State != before {
			t.Errorf("CompleteSurvey from %s changed state to %s", before, g.State)
		}
	}
}

func TestReset(t *testing.T) {
	g := New()
	g.Apply(eligibility(3, true))

	g.Reset()

	if g.State != Unverified || g.Identifier != "" || g.Result != nil {
		t.Errorf("expected a clean gate after reset, got %+v", g)
	}
}

func TestRequire(t *testing.T) {
	g := Gate{State: Ready}
	if err := g.Require(Ready); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := g.Require(AwaitingSurvey); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestStateValid(t *testing.T) {
	for _, s := range []State{Unverified, AwaitingSurvey, Ready} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if State("done").Valid() {
		t.Error("expected unknown state to be invalid")
	}
}

func TestString(t *testing.T) {
	if got := New().String(); got != "unverified" {
		t.Errorf("unexpected %q", got)
	}
	g := Gate{State: Ready, Identifier: "ana@example.com"}
	if got := g.String(); got != "ready(ana@example.com)" {
		t.Errorf("unexpected %q", got)
	}
}
