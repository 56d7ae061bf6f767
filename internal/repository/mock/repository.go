package mock

import (
	"context"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.ReplaceResponsesError = errors.New("database is locked")
//	svc := services.NewSurveyService(log, mockRepo, questions, cloudstore.Nop{}, nil)
//	_, err := svc.Submit(ctx, email, answers)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Participant Errors =====
	FindParticipantError    error
	ListParticipantsError   error
	SetSurveyCompletedError error

	// ===== Attendance Errors =====
	CountAttendanceError       error
	ListAttendanceError        error
	FindWorkshopError          error
	ListAllAttendanceError     error
	ListActivitiesError        error
	FindContestMembershipError error
	ListTeamsError             error

	// ===== Response Errors =====
	ReplaceResponsesError           error
	ListResponsesError              error
	ListResponsesByQuestionError    error
	ListResponsesByParticipantError error
	ResponseStatsError              error

	// ===== Dataset Errors =====
	ImportDatasetsError error
	ExportDatasetsError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Participant Methods =====

func (m *Repository) FindParticipant(ctx context.Context, email string) (*models.Participant, error) {
	if m.FindParticipantError != nil {
		return nil, m.FindParticipantError
	}
	return m.FullRepository.FindParticipant(ctx, email)
}

func (m *Repository) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	if m.ListParticipantsError != nil {
		return nil, m.ListParticipantsError
	}
	return m.FullRepository.ListParticipants(ctx)
}

func (m *Repository) SetSurveyCompleted(ctx context.Context, email string) error {
	if m.SetSurveyCompletedError != nil {
		return m.SetSurveyCompletedError
	}
	return m.FullRepository.SetSurveyCompleted(ctx, email)
}

// ===== Attendance Methods =====

func (m *Repository) CountAttendance(ctx context.Context, email string) (int, error) {
	if m.CountAttendanceError != nil {
		return 0, m.CountAttendanceError
	}
	return m.FullRepository.CountAttendance(ctx, email)
}

func (m *Repository) ListAttendance(ctx context.Context, email string) ([]models.AttendanceRecord, error) {
	if m.ListAttendanceError != nil {
		return nil, m.ListAttendanceError
	}
	return m.FullRepository.ListAttendance(ctx, email)
}

func (m *Repository) FindWorkshopAttendance(ctx context.Context, email string) (*models.AttendanceRecord, bool, error) {
	if m.FindWorkshopError != nil {
		return nil, false, m.FindWorkshopError
	}
	return m.FullRepository.FindWorkshopAttendance(ctx, email)
}

func (m *Repository) ListAllAttendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	if m.ListAllAttendanceError != nil {
		return nil, m.ListAllAttendanceError
	}
	return m.FullRepository.ListAllAttendance(ctx)
}

func (m *Repository) ListActivities(ctx context.Context) ([]models.Activity, error) {
	if m.ListActivitiesError != nil {
		return nil, m.ListActivitiesError
	}
	return m.FullRepository.ListActivities(ctx)
}

func (m *Repository) FindContestMembership(ctx context.Context, email string) (bool, error) {
	if m.FindContestMembershipError != nil {
		return false, m.FindContestMembershipError
	}
	return m.FullRepository.FindContestMembership(ctx, email)
}

func (m *Repository) ListTeams(ctx context.Context) ([]models.TeamEntry, error) {
	if m.ListTeamsError != nil {
		return nil, m.ListTeamsError
	}
	return m.FullRepository.ListTeams(ctx)
}

// ===== Response Methods =====

func (m *Repository) ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) error {
	if m.ReplaceResponsesError != nil {
		return m.ReplaceResponsesError
	}
	return m.FullRepository.ReplaceResponses(ctx, email, responses)
}

func (m *Repository) ListResponses(ctx context.Context) ([]models.SurveyResponse, error) {
	if m.ListResponsesError != nil {
		return nil, m.ListResponsesError
	}
	return m.FullRepository.ListResponses(ctx)
}

func (m *Repository) ListResponsesByQuestion(ctx context.Context, questionID int) ([]models.SurveyResponse, error) {
	if m.ListResponsesByQuestionError != nil {
		return nil, m.ListResponsesByQuestionError
	}
	return m.FullRepository.ListResponsesByQuestion(ctx, questionID)
}

func (m *Repository) ListResponsesByParticipant(ctx context.Context, email string) ([]models.SurveyResponse, error) {
	if m.ListResponsesByParticipantError != nil {
		return nil, m.ListResponsesByParticipantError
	}
	return m.FullRepository.ListResponsesByParticipant(ctx, email)
}

func (m *Repository) ResponseStats(ctx context.Context) (*models.SurveyStats, error) {
	if m.ResponseStatsError != nil {
		return nil, m.ResponseStatsError
	}
	return m.FullRepository.ResponseStats(ctx)
}

// ===== Dataset Methods =====

func (m *Repository) ImportDatasets(ctx context.Context, b *dataset.Bundle) error {
	if m.ImportDatasetsError != nil {
		return m.ImportDatasetsError
	}
	return m.FullRepository.ImportDatasets(ctx, b)
}

func (m *Repository) ExportDatasets(ctx context.Context) (*dataset.Bundle, error) {
	if m.ExportDatasetsError != nil {
		return nil, m.ExportDatasetsError
	}
	return m.FullRepository.ExportDatasets(ctx)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}
