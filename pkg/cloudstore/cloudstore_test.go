package cloudstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
)

func TestNop_ReturnsNotConfigured(t *testing.T) {
	ctx := context.Background()
	var s Store = Nop{}

	if err := s.ReplaceResponses(ctx, "a@example.com", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ReplaceResponses: expected ErrNotConfigured, got %v", err)
	}
	if err := s.MarkSurveyCompleted(ctx, "a@example.com"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("MarkSurveyCompleted: expected ErrNotConfigured, got %v", err)
	}
	if err := s.PushDatasets(ctx, &dataset.Bundle{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("PushDatasets: expected ErrNotConfigured, got %v", err)
	}
	if err := s.PushResponses(ctx, nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("PushResponses: expected ErrNotConfigured, got %v", err)
	}
	if _, err := s.FetchDatasets(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("FetchDatasets: expected ErrNotConfigured, got %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping: expected ErrNotConfigured, got %v", err)
	}
	s.Close()
}

func TestMockStore_ReplaceResponses(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	m.ReplaceResponses(ctx, "Ana@example.com", []models.SurveyResponse{{QuestionID: 1}, {QuestionID: 2}})
	m.ReplaceResponses(ctx, "ana@example.com", []models.SurveyResponse{{QuestionID: 1}})

	if got := len(m.Responses("ana@example.com")); got != 1 {
		t.Errorf("expected replaced set of 1, got %d", got)
	}
	if m.ReplaceCalls() != 2 {
		t.Errorf("expected 2 calls, got %d", m.ReplaceCalls())
	}
}

func TestMockStore_Errors(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockStore(WithReplaceError(boom), WithMarkError(boom), WithPushError(boom), WithFetchError(boom), WithPingError(boom))
	ctx := context.Background()

	if err := m.ReplaceResponses(ctx, "a@example.com", nil); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if err := m.MarkSurveyCompleted(ctx, "a@example.com"); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if err := m.PushDatasets(ctx, nil); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if err := m.PushResponses(ctx, nil); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if _, err := m.FetchDatasets(ctx); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if err := m.Ping(ctx); err != boom {
		t.Errorf("expected boom, got %v", err)
	}
	if m.ReplaceCalls() != 1 {
		t.Errorf("expected failed call to be counted, got %d", m.ReplaceCalls())
	}
}

func TestMockStore_PushAndFetch(t *testing.T) {
	b := &dataset.Bundle{Participants: []models.Participant{{Email: "a@example.com"}}}
	m := NewMockStore(WithBundle(b))
	ctx := context.Background()

	if err := m.PushDatasets(ctx, b); err != nil {
		t.Fatal(err)
	}
	if m.Pushed() != b {
		t.Error("expected pushed bundle to be kept")
	}
	got, err := m.FetchDatasets(ctx)
	if err != nil || len(got.Participants) != 1 {
		t.Errorf("unexpected fetch %v, %v", got, err)
	}

	m.PushResponses(ctx, []models.SurveyResponse{
		{ParticipantEmail: "a@example.com", QuestionID: 1},
		{ParticipantEmail: "B@example.com", QuestionID: 1},
		{ParticipantEmail: "a@example.com", QuestionID: 2},
	})
	if len(m.Responses("a@example.com")) != 2 || len(m.Responses("b@example.com")) != 1 {
		t.Error("expected responses grouped by participant")
	}

	m.MarkSurveyCompleted(ctx, "A@example.com")
	if !m.Completed("a@example.com") {
		t.Error("expected completion flag")
	}

	m.Close()
	if !m.Closed() {
		t.Error("expected store to be closed")
	}
}

// TestPostgres_Integration runs against a real database when
// CERTIFY_TEST_REMOTE_DSN points at one with the reporting tables.
func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("CERTIFY_TEST_REMOTE_DSN")
	if dsn == "" {
		t.Skip("CERTIFY_TEST_REMOTE_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn, logger.New())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	b := &dataset.Bundle{
		Participants: []models.Participant{{Email: "it@example.com", GivenNames: "Prueba", FamilyNames: "Integración"}},
		Activities:   []models.Activity{{Code: "C1", Title: "Conferencia", Kind: "Conferencia"}},
		Attendance:   []models.AttendanceRecord{{ParticipantEmail: "it@example.com", ActivityCode: "C1"}},
	}
	if err := store.PushDatasets(ctx, b); err != nil {
		t.Fatalf("PushDatasets failed: %v", err)
	}

	resp := []models.SurveyResponse{{ParticipantEmail: "it@example.com", QuestionID: 1, QuestionText: "q", Answer: "5", SubmittedAt: time.Now()}}
	if err := store.ReplaceResponses(ctx, "it@example.com", resp); err != nil {
		t.Fatalf("ReplaceResponses failed: %v", err)
	}
	if err := store.MarkSurveyCompleted(ctx, "it@example.com"); err != nil {
		t.Fatalf("MarkSurveyCompleted failed: %v", err)
	}

	got, err := store.FetchDatasets(ctx)
	if err != nil {
		t.Fatalf("FetchDatasets failed: %v", err)
	}
	if len(got.Participants) != 1 || !got.Participants[0].SurveyCompleted {
		t.Errorf("unexpected participants %+v", got.Participants)
	}
}

func TestOpen_BadDSN(t *testing.T) {
	if _, err := Open(context.Background(), "postgres://%zz", logger.New()); err == nil {
		t.Error("expected parse error for malformed DSN")
	}
}
