package handlers

import (
	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/survey"
)

// CheckResponse is the response for an email check
type CheckResponse struct {
	State       gate.State          `json:"state"`
	Message     string              `json:"message"`
	Shortfall   int                 `json:"shortfall,omitempty"`
	Eligibility *models.Eligibility `json:"eligibility"`
	Questions   []survey.Question   `json:"questions,omitempty"`
}

// SessionResponse describes the participant session
type SessionResponse struct {
	State       gate.State          `json:"state"`
	Email       string              `json:"email,omitempty"`
	Eligibility *models.Eligibility `json:"eligibility,omitempty"`
}

// SurveySubmitResponse is the response for a survey submission
type SurveySubmitResponse struct {
	SubmissionID   string     `json:"submission_id"`
	Answered       int        `json:"answered"`
	CloudPersisted bool       `json:"cloud_persisted"`
	Warning        string     `json:"warning,omitempty"`
	State          gate.State `json:"state"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	BaseURL      string `json:"base_url"`
	Announcement string `json:"announcement"`
	PortalURL    string `json:"portal_url,omitempty"`
}
