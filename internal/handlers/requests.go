package handlers

// CheckRequest represents a request to verify a participant email
type CheckRequest struct {
	Email string `json:"email"`
}

// SurveySubmitRequest carries survey answers keyed by question id ("1" or "q1")
type SurveySubmitRequest struct {
	Answers map[string]string `json:"answers"`
}

// ImportRequest represents a request to import CSV datasets from a directory
type ImportRequest struct {
	Dir string `json:"dir"`
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	BaseURL      *string `json:"base_url"`
	Announcement *string `json:"announcement"`
}
