package services_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/repository/mock"
	"github.com/jornadaii/certify/internal/testutil"
)

func TestFlowService_Check_AwaitingSurvey(t *testing.T) {
	s := newStack(testutil.NewSeededRepository(t), nil)
	g := gate.New()

	result, err := s.flow.Check(context.Background(), &g, "Ana@Example.com")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if g.State != gate.AwaitingSurvey || result.State != gate.AwaitingSurvey {
		t.Errorf("expected %s, got gate=%s result=%s", gate.AwaitingSurvey, g.State, result.State)
	}
	if g.Identifier != "ana@example.com" {
		t.Errorf("expected normalized identifier, got %q", g.Identifier)
	}
	if len(result.Eligibility.CertificatesAvailable) != 2 {
		t.Errorf("expected general and workshop offers, got %+v", result.Eligibility.CertificatesAvailable)
	}
}

func TestFlowService_Check_Shortfall(t *testing.T) {
	s := newStack(testutil.NewSeededRepository(t), nil)
	g := gate.New()

	result, err := s.flow.Check(context.Background(), &g, "luis@example.com")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if g.State != gate.Unverified {
		t.Errorf("expected gate to stay unverified, got %s", g.State)
	}
	if result.Shortfall != 1 || result.Message != "Necesitas al menos 2 asistencias para obtener una constancia; te faltan 1." {
		t.Errorf("expected shortfall message, got %+v", result)
	}
}

func TestFlowService_Check_NotFoundLeavesGate(t *testing.T) {
	repo := testutil.NewSeededRepository(t)
	s := newStack(repo, nil)
	ctx := context.Background()
	g := gate.New()
	s.flow.Check(ctx, &g, "ana@example.com")
	before := g

	_, err := s.flow.Check(ctx, &g, "nobody@example.com")
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if g.State != before.State || g.Identifier != before.Identifier {
		t.Errorf("expected gate untouched, got %v", g)
	}
	if stats, _ := repo.ResponseStats(ctx); stats.TotalResponses != 0 || stats.CompletedCount != 1 {
		t.Errorf("expected no mutation, got %+v", stats)
	}
}

func TestFlowService_Check_StorageErrorLeavesGate(t *testing.T) {
	m := mock.NewRepository(testutil.NewSeededRepository(t))
	m.CountAttendanceError = errors.New("database is locked")
	s := newStack(m, nil)
	g := gate.Gate{State: gate.Ready, Identifier: "sofia@example.com"}

	if _, err := s.flow.Check(context.Background(), &g, "ana@example.com"); !apperrors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if g.State != gate.Ready || g.Identifier != "sofia@example.com" {
		t.Errorf("expected gate untouched, got %v", g)
	}
}

func TestFlowService_RoundTrip(t *testing.T) {
	repo := testutil.NewSeededRepository(t)
	s := newStack(repo, nil)
	ctx := context.Background()

	g := gate.New()
	if _, err := s.flow.Check(ctx, &g, "ana@example.com"); err != nil {
		t.Fatal(err)
	}
	answers := completeAnswers(t, s.survey, g.Result)
	if _, err := s.flow.SubmitSurvey(ctx, &g, answers); err != nil {
		t.Fatalf("SubmitSurvey failed: %v", err)
	}
	if g.State != gate.Ready {
		t.Fatalf("expected %s after survey, got %s", gate.Ready, g.State)
	}

	s.flow.Reset(&g)
	if g.State != gate.Unverified || g.Identifier != "" {
		t.Fatalf("expected clean gate after reset, got %v", g)
	}

	again := gate.New()
	result, err := s.flow.Check(ctx, &again, "ANA@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if again.State != gate.Ready || result.State != gate.Ready {
		t.Errorf("expected returning participant to skip the survey, got %s", again.State)
	}
}

func TestFlowService_SubmitSurvey_MissingAnswer(t *testing.T) {
	repo := testutil.NewSeededRepository(t)
	s := newStack(repo, nil)
	ctx := context.Background()

	g := gate.New()
	s.flow.Check(ctx, &g, "ana@example.com")
	answers := completeAnswers(t, s.survey, g.Result)
	delete(answers, 1)

	if _, err := s.flow.SubmitSurvey(ctx, &g, answers); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if g.State != gate.AwaitingSurvey {
		t.Errorf("expected state to remain %s, got %s", gate.AwaitingSurvey, g.State)
	}
	p, _ := repo.FindParticipant(ctx, "ana@example.com")
	if p.SurveyCompleted {
		t.Error("expected flag unchanged")
	}
}

func TestFlowService_SubmitSurvey_WrongState(t *testing.T) {
	s := newStack(testutil.NewSeededRepository(t), nil)

	for _, g := range []gate.Gate{gate.New(), {State: gate.Ready, Identifier: "sofia@example.com"}} {
		if _, err := s.flow.SubmitSurvey(context.Background(), &g, map[int]string{1: "5"}); !apperrors.Is(err, apperrors.ErrConflict) {
			t.Errorf("SubmitSurvey from %s: expected conflict, got %v", g.State, err)
		}
	}
}

func TestFlowService_SubmitSurvey_RestoredGate(t *testing.T) {
	repo := testutil.NewSeededRepository(t)
	s := newStack(repo, nil)
	ctx := context.Background()

	// a gate decoded from a session carries no evaluation
	g := gate.Gate{State: gate.AwaitingSurvey, Identifier: "ana@example.com"}
	elig, _ := s.eligibility.Evaluate(ctx, "ana@example.com")

	if _, err := s.flow.SubmitSurvey(ctx, &g, completeAnswers(t, s.survey, elig)); err != nil {
		t.Fatalf("SubmitSurvey failed: %v", err)
	}
	if g.State != gate.Ready {
		t.Errorf("expected %s, got %s", gate.Ready, g.State)
	}
}

func TestFlowService_Refresh(t *testing.T) {
	repo := testutil.NewSeededRepository(t)
	s := newStack(repo, nil)
	ctx := context.Background()

	testCases := []struct {
		name      string
		in        gate.Gate
		wantState gate.State
		wantID    string
	}{
		{"unverified stays", gate.New(), gate.Unverified, ""},
		{"pending survey", gate.Gate{State: gate.AwaitingSurvey, Identifier: "ana@example.com"}, gate.AwaitingSurvey, "ana@example.com"},
		{"completed elsewhere", gate.Gate{State: gate.AwaitingSurvey, Identifier: "sofia@example.com"}, gate.Ready, "sofia@example.com"},
		{"ready without survey", gate.Gate{State: gate.Ready, Identifier: "ana@example.com"}, gate.AwaitingSurvey, "ana@example.com"},
		{"no longer registered", gate.Gate{State: gate.Ready, Identifier: "gone@example.com"}, gate.Unverified, ""},
		{"no longer eligible", gate.Gate{State: gate.Ready, Identifier: "luis@example.com"}, gate.Unverified, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.in
			if err := s.flow.Refresh(ctx, &g); err != nil {
				t.Fatalf("Refresh failed: %v", err)
			}
			if g.State != tc.wantState || g.Identifier != tc.wantID {
				t.Errorf("expected %s(%s), got %v", tc.wantState, tc.wantID, g)
			}
			if g.State != gate.Unverified && g.Result == nil {
				t.Error("expected evaluation to be attached")
			}
		})
	}
}

func TestFlowService_Refresh_StorageError(t *testing.T) {
	m := mock.NewRepository(testutil.NewSeededRepository(t))
	m.FindParticipantError = errors.New("database is locked")
	s := newStack(m, nil)
	g := gate.Gate{State: gate.Ready, Identifier: "sofia@example.com"}

	if err := s.flow.Refresh(context.Background(), &g); !apperrors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if g.State != gate.Ready {
		t.Error("expected gate to be kept on a transient failure")
	}
}

func TestFlowService_ContestOnlyParticipant(t *testing.T) {
	s := newStack(testutil.NewSeededRepository(t), nil)
	g := gate.New()

	result, err := s.flow.Check(context.Background(), &g, "cap@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if g.State != gate.Unverified || result.Shortfall != 2 {
		t.Errorf("expected the attendance minimum to gate the flow, got %s shortfall %d", g.State, result.Shortfall)
	}
	if _, ok := result.Eligibility.Offer(models.KindContest); !ok {
		t.Error("expected the contest offer to still be reported")
	}
}
