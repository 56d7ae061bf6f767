package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/repository"
)

// Setting keys
const (
	SettingBaseURL      = "base_url"
	SettingAnnouncement = "announcement"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	log      logger.Logger
	repo     repository.SettingsRepository
	validate *validator.Validate
	fallback string
}

// NewSettingsService creates a new SettingsService. fallbackBaseURL is used
// when no base_url has been saved.
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository, fallbackBaseURL string) *SettingsService {
	return &SettingsService{log: log, repo: repo, validate: validator.New(), fallback: fallbackBaseURL}
}

// GetBaseURL returns the public portal URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, SettingBaseURL)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return s.fallback, nil
		}
		return "", storageError("reading base_url", err)
	}
	if value == "" {
		return s.fallback, nil
	}
	return value, nil
}

// SetBaseURL saves the public portal URL. An empty value clears it.
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	if url != "" {
		if err := s.validate.Var(url, "url,startswith=http"); err != nil {
			return ErrInvalidSettings
		}
	}
	return s.SetSetting(ctx, SettingBaseURL, url)
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return "", storageError("reading setting", err)
	}
	return value, err
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	if err := s.repo.SetSetting(ctx, key, value); err != nil {
		return storageError("saving setting", err)
	}
	s.log.Debug("Setting saved", "key", key)
	return nil
}

// AllSettings returns the settings shown on the admin page
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	settings := make(map[string]interface{})

	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	settings[SettingBaseURL] = baseURL

	announcement, _ := s.GetSetting(ctx, SettingAnnouncement)
	settings[SettingAnnouncement] = announcement

	return settings, nil
}

// Settings represents application settings for update operations.
// Nil fields are left unchanged.
type Settings struct {
	BaseURL      *string `json:"base_url"`
	Announcement *string `json:"announcement"`
}

// UpdateSettings updates multiple settings at once
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.BaseURL != nil {
		if err := s.SetBaseURL(ctx, *settings.BaseURL); err != nil {
			return err
		}
	}
	if settings.Announcement != nil {
		if err := s.SetSetting(ctx, SettingAnnouncement, strings.TrimSpace(*settings.Announcement)); err != nil {
			return err
		}
	}
	return nil
}
