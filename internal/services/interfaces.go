package services

import (
	"context"
	"io"

	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/survey"
)

// EligibilityServicer defines the interface for eligibility evaluation
type EligibilityServicer interface {
	Evaluate(ctx context.Context, identifier string) (*models.Eligibility, error)
}

// SurveyServicer defines the interface for survey operations
type SurveyServicer interface {
	Questions(ctx context.Context) (*survey.Set, error)
	QuestionsFor(ctx context.Context, elig *models.Eligibility) ([]survey.Question, error)
	Submit(ctx context.Context, elig *models.Eligibility, answers map[int]string) (*SubmitResult, error)
	SetBroadcaster(b Broadcaster)
}

// FlowServicer defines the interface for the participant flow
type FlowServicer interface {
	Check(ctx context.Context, g *gate.Gate, identifier string) (*CheckResult, error)
	Refresh(ctx context.Context, g *gate.Gate) error
	SubmitSurvey(ctx context.Context, g *gate.Gate, answers map[int]string) (*SubmitResult, error)
	Reset(g *gate.Gate)
}

// CertificateServicer defines the interface for certificate issuance
type CertificateServicer interface {
	Issue(kind models.CertificateKind, variant, displayName string) ([]byte, error)
	IssueFor(ctx context.Context, g *gate.Gate, kind models.CertificateKind) (*Certificate, error)
}

// AdminServicer defines the interface for admin reporting
type AdminServicer interface {
	Stats(ctx context.Context) (*models.SurveyStats, error)
	Responses(ctx context.Context) ([]models.SurveyResponse, error)
	ResponsesByQuestion(ctx context.Context, questionID int) (*QuestionResponses, error)
	ResponsesByParticipant(ctx context.Context, email string) ([]models.SurveyResponse, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

// SyncServicer defines the interface for dataset import and cloud sync
type SyncServicer interface {
	ImportDir(ctx context.Context, dir string) (*ImportResult, error)
	Push(ctx context.Context) (*PushResult, error)
	Pull(ctx context.Context) (*ImportResult, error)
	ExportDir(ctx context.Context, dir string) (*ImportResult, error)
}

// PortalServicer defines the interface for the portal QR poster
type PortalServicer interface {
	PortalURL(ctx context.Context) (string, error)
	PortalQR(ctx context.Context, size int) ([]byte, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
}

// Ensure concrete types implement interfaces
var (
	_ EligibilityServicer = (*EligibilityService)(nil)
	_ SurveyServicer      = (*SurveyService)(nil)
	_ FlowServicer        = (*FlowService)(nil)
	_ CertificateServicer = (*CertificateService)(nil)
	_ AdminServicer       = (*AdminService)(nil)
	_ SyncServicer        = (*SyncService)(nil)
	_ PortalServicer      = (*PortalService)(nil)
	_ SettingsServicer    = (*SettingsService)(nil)
)
