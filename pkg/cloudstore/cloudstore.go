// Package cloudstore keeps a best-effort copy of the event records and survey
// responses in a hosted Postgres database (the Supabase project the organizers
// use for reporting).
package cloudstore

import (
	"context"
	"errors"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/models"
)

// ErrNotConfigured is returned by Nop for every call
var ErrNotConfigured = errors.New("cloud store not configured")

// Store defines the interface for the remote record store
type Store interface {
	ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) error
	MarkSurveyCompleted(ctx context.Context, email string) error
	PushDatasets(ctx context.Context, b *dataset.Bundle) error
	PushResponses(ctx context.Context, responses []models.SurveyResponse) error
	FetchDatasets(ctx context.Context) (*dataset.Bundle, error)
	Ping(ctx context.Context) error
	Close()
}

// Nop is used when no DSN is configured
type Nop struct{}

func (Nop) ReplaceResponses(context.Context, string, []models.SurveyResponse) error {
	return ErrNotConfigured
}

func (Nop) MarkSurveyCompleted(context.Context, string) error { return ErrNotConfigured }

func (Nop) PushDatasets(context.Context, *dataset.Bundle) error { return ErrNotConfigured }

func (Nop) PushResponses(context.Context, []models.SurveyResponse) error { return ErrNotConfigured }

func (Nop) FetchDatasets(context.Context) (*dataset.Bundle, error) { return nil, ErrNotConfigured }

func (Nop) Ping(context.Context) error { return ErrNotConfigured }

func (Nop) Close() {}

// Ensure implementations satisfy Store
var (
	_ Store = Nop{}
	_ Store = (*Postgres)(nil)
	_ Store = (*MockStore)(nil)
)
