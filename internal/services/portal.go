package services

import (
	"context"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/jornadaii/certify/internal/logger"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// PortalService builds the QR code printed on event posters
type PortalService struct {
	log      logger.Logger
	settings SettingsServicer
}

// NewPortalService creates a new PortalService
func NewPortalService(log logger.Logger, settings SettingsServicer) *PortalService {
	return &PortalService{log: log, settings: settings}
}

// PortalURL returns the participant portal address
func (s *PortalService) PortalURL(ctx context.Context) (string, error) {
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		return "", ErrBaseURLNotSet
	}
	return strings.TrimSuffix(baseURL, "/") + "/", nil
}

// PortalQR returns a PNG QR code pointing at the portal
func (s *PortalService) PortalQR(ctx context.Context, size int) ([]byte, error) {
	url, err := s.PortalURL(ctx)
	if err != nil {
		return nil, err
	}
	if size <= 0 || size > maxQRSize {
		size = defaultQRSize
	}
	return qrcode.Encode(url, qrcode.Medium, size)
}
