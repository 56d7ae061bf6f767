package testutil

import (
	"context"
	"testing"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// SampleBundle is a small event used across service and handler tests:
//
//   - ana@example.com: 3 attendances (C1, W2 "Workshop 2", C2), no team, survey pending
//   - luis@example.com: 1 attendance, survey pending
//   - sofia@example.com: 2 attendances, fourth member slot of a team, survey done
//   - cap@example.com: 0 attendances, team captain
func SampleBundle() *dataset.Bundle {
	return &dataset.Bundle{
		Participants: []models.Participant{
			{Email: "ana@example.com", GivenNames: "ana maría", FamilyNames: "lópez pérez"},
			{Email: "luis@example.com", GivenNames: "Luis", FamilyNames: "Gómez"},
			{Email: "sofia@example.com", GivenNames: "Sofía", FamilyNames: "Ruiz", SurveyCompleted: true},
			{Email: "cap@example.com", GivenNames: "Carlos", FamilyNames: "Pech"},
		},
		Activities: []models.Activity{
			{Code: "C1", Title: "Industria 4.0", Kind: "Conferencia"},
			{Code: "C2", Title: "Cadena de suministro", Kind: "Conferencia"},
			{Code: "W2", Title: "Workshop 2", Kind: "Workshop"},
		},
		Attendance: []models.AttendanceRecord{
			{ParticipantEmail: "ana@example.com", ActivityCode: "C1", ActivityType: "Conferencia"},
			{ParticipantEmail: "ana@example.com", ActivityCode: "W2", ActivityType: "Workshop"},
			{ParticipantEmail: "ana@example.com", ActivityCode: "C2", ActivityType: "Conferencia"},
			{ParticipantEmail: "luis@example.com", ActivityCode: "C1", ActivityType: "Conferencia"},
			{ParticipantEmail: "sofia@example.com", ActivityCode: "C1", ActivityType: "Conferencia"},
			{ParticipantEmail: "sofia@example.com", ActivityCode: "C2", ActivityType: "Conferencia"},
		},
		Teams: []models.TeamEntry{
			{
				Name:    "Los Ingenieros",
				Captain: "cap@example.com",
				Members: [models.MaxTeamMembers]string{"a@example.com", "b@example.com", "c@example.com", "sofia@example.com"},
			},
		},
	}
}

// NewSeededRepository returns an in-memory repository loaded with SampleBundle
func NewSeededRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo := NewTestRepository(t)
	if err := repo.ImportDatasets(context.Background(), SampleBundle()); err != nil {
		t.Fatalf("failed to seed test repository: %v", err)
	}
	return repo
}
