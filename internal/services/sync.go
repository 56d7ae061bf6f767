package services

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/pkg/cloudstore"
)

// SyncRepository defines the repository methods needed by SyncService
type SyncRepository interface {
	ImportDatasets(ctx context.Context, b *dataset.Bundle) error
	ExportDatasets(ctx context.Context) (*dataset.Bundle, error)
	ListResponses(ctx context.Context) ([]models.SurveyResponse, error)
	ResponseStats(ctx context.Context) (*models.SurveyStats, error)
}

// SyncService moves event records between CSV files, the local store and
// the cloud store
type SyncService struct {
	log         logger.Logger
	repo        SyncRepository
	cloud       cloudstore.Store
	broadcaster Broadcaster
}

// ImportResult contains dataset row counts
type ImportResult struct {
	Participants int    `json:"participants"`
	Activities   int    `json:"activities"`
	Attendance   int    `json:"attendance"`
	Teams        int    `json:"teams"`
	Source       string `json:"source"`
}

// PushResult contains the counts sent to the cloud store
type PushResult struct {
	ImportResult
	Responses int `json:"responses"`
}

// NewSyncService creates a new SyncService. A nil cloud store disables push and pull.
func NewSyncService(log logger.Logger, repo SyncRepository, cloud cloudstore.Store) *SyncService {
	if cloud == nil {
		cloud = cloudstore.Nop{}
	}
	return &SyncService{log: log, repo: repo, cloud: cloud}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *SyncService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func counts(b *dataset.Bundle, source string) *ImportResult {
	return &ImportResult{
		Participants: len(b.Participants),
		Activities:   len(b.Activities),
		Attendance:   len(b.Attendance),
		Teams:        len(b.Teams),
		Source:       source,
	}
}

// ImportDir loads the CSV files in dir and replaces the local datasets.
// Survey flags and responses already recorded are kept.
func (s *SyncService) ImportDir(ctx context.Context, dir string) (*ImportResult, error) {
	b, err := dataset.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	return s.load(ctx, b, dir)
}

// Pull replaces the local datasets with the cloud copy
func (s *SyncService) Pull(ctx context.Context) (*ImportResult, error) {
	b, err := s.cloud.FetchDatasets(ctx)
	if err != nil {
		return nil, s.cloudError("fetching datasets", err)
	}
	return s.load(ctx, b, "cloud")
}

func (s *SyncService) load(ctx context.Context, b *dataset.Bundle, source string) (*ImportResult, error) {
	if err := s.repo.ImportDatasets(ctx, b); err != nil {
		return nil, storageError("importing datasets", err)
	}

	result := counts(b, source)
	s.log.Info("Datasets imported", "source", source, "participants", result.Participants,
		"activities", result.Activities, "attendance", result.Attendance, "teams", result.Teams)

	if s.broadcaster != nil {
		if stats, err := s.repo.ResponseStats(ctx); err == nil {
			s.broadcaster.BroadcastStats(stats)
		}
	}
	return result, nil
}

// Push replaces the cloud datasets with the local ones and uploads every
// stored survey response
func (s *SyncService) Push(ctx context.Context) (*PushResult, error) {
	b, err := s.repo.ExportDatasets(ctx)
	if err != nil {
		return nil, storageError("exporting datasets", err)
	}
	responses, err := s.repo.ListResponses(ctx)
	if err != nil {
		return nil, storageError("listing responses", err)
	}

	if err := s.cloud.PushDatasets(ctx, b); err != nil {
		return nil, s.cloudError("pushing datasets", err)
	}
	if err := s.cloud.PushResponses(ctx, responses); err != nil {
		return nil, s.cloudError("pushing responses", err)
	}

	result := &PushResult{ImportResult: *counts(b, "local"), Responses: len(responses)}
	s.log.Info("Pushed records to cloud store", "participants", result.Participants, "responses", result.Responses)
	return result, nil
}

// ExportDir writes the local datasets as CSV files into dir
func (s *SyncService) ExportDir(ctx context.Context, dir string) (*ImportResult, error) {
	b, err := s.repo.ExportDatasets(ctx)
	if err != nil {
		return nil, storageError("exporting datasets", err)
	}
	if err := dataset.WriteDir(dir, b); err != nil {
		return nil, err
	}
	return counts(b, dir), nil
}

func (s *SyncService) cloudError(op string, err error) error {
	if stderrors.Is(err, cloudstore.ErrNotConfigured) {
		return ErrRemoteDisabled
	}
	s.log.Error("Cloud store operation failed", "op", op, "error", err)
	return storageError(op, err)
}
