package repository

import (
	"context"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
)

// ParticipantRepository defines participant data operations
type ParticipantRepository interface {
	FindParticipant(ctx context.Context, email string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	SetSurveyCompleted(ctx context.Context, email string) error
}

// AttendanceRepository defines attendance, activity and team lookups
type AttendanceRepository interface {
	CountAttendance(ctx context.Context, email string) (int, error)
	ListAttendance(ctx context.Context, email string) ([]models.AttendanceRecord, error)
	FindWorkshopAttendance(ctx context.Context, email string) (*models.AttendanceRecord, bool, error)
	ListAllAttendance(ctx context.Context) ([]models.AttendanceRecord, error)
	ListActivities(ctx context.Context) ([]models.Activity, error)
	FindContestMembership(ctx context.Context, email string) (bool, error)
	ListTeams(ctx context.Context) ([]models.TeamEntry, error)
}

// ResponseRepository defines survey response operations
type ResponseRepository interface {
	ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) error
	ListResponses(ctx context.Context) ([]models.SurveyResponse, error)
	ListResponsesByQuestion(ctx context.Context, questionID int) ([]models.SurveyResponse, error)
	ListResponsesByParticipant(ctx context.Context, email string) ([]models.SurveyResponse, error)
	ResponseStats(ctx context.Context) (*models.SurveyStats, error)
}

// DatasetRepository defines bulk import/export of event records
type DatasetRepository interface {
	ImportDatasets(ctx context.Context, b *dataset.Bundle) error
	ExportDatasets(ctx context.Context) (*dataset.Bundle, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	ParticipantRepository
	AttendanceRepository
	ResponseRepository
	DatasetRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
