package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/survey"
	"github.com/jornadaii/certify/pkg/cloudstore"
)

// CloudWarning is shown when answers were saved locally but not in the cloud copy
const CloudWarning = "Tus respuestas se guardaron, pero no se pudo hacer la copia en la nube. No necesitas hacer nada más."

const defaultCloudTimeout = 10 * time.Second

// Broadcaster defines the interface for broadcasting messages to clients
type Broadcaster interface {
	BroadcastStats(stats *models.SurveyStats)
}

// SurveyRepository defines the repository methods needed by SurveyService
type SurveyRepository interface {
	ListActivities(ctx context.Context) ([]models.Activity, error)
	ReplaceResponses(ctx context.Context, email string, responses []models.SurveyResponse) error
	ResponseStats(ctx context.Context) (*models.SurveyStats, error)
}

// SurveyService validates and records survey submissions
type SurveyService struct {
	log          logger.Logger
	repo         SurveyRepository
	questions    *survey.Set
	cloud        cloudstore.Store
	broadcaster  Broadcaster
	cloudTimeout time.Duration
	now          func() time.Time
}

// SubmitResult reports how a submission was stored
type SubmitResult struct {
	SubmissionID   string `json:"submission_id"`
	Answered       int    `json:"answered"`
	CloudPersisted bool   `json:"cloud_persisted"`
	Warning        string `json:"warning,omitempty"`
}

// NewSurveyService creates a new SurveyService. A nil cloud store disables
// the cloud copy.
func NewSurveyService(log logger.Logger, repo SurveyRepository, questions *survey.Set, cloud cloudstore.Store) *SurveyService {
	if questions == nil {
		questions = survey.Default()
	}
	if cloud == nil {
		cloud = cloudstore.Nop{}
	}
	return &SurveyService{
		log:          log,
		repo:         repo,
		questions:    questions,
		cloud:        cloud,
		cloudTimeout: defaultCloudTimeout,
		now:          time.Now,
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *SurveyService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Questions returns the question set with conference options filled in
func (s *SurveyService) Questions(ctx context.Context) (*survey.Set, error) {
	acts, err := s.repo.ListActivities(ctx)
	if err != nil {
		return nil, storageError("listing activities", err)
	}
	return s.questions.WithActivities(acts), nil
}

// QuestionsFor returns the questions that apply to the participant
func (s *SurveyService) QuestionsFor(ctx context.Context, elig *models.Eligibility) ([]survey.Question, error) {
	set, err := s.Questions(ctx)
	if err != nil {
		return nil, err
	}
	return set.Applicable(elig.WorkshopAttended, elig.ContestAttended), nil
}

// Submit validates the answers and replaces the participant's stored
// responses. The local store is authoritative: its write and the completed
// flag happen in one transaction. The cloud copy is best effort.
func (s *SurveyService) Submit(ctx context.Context, elig *models.Eligibility, answers map[int]string) (*SubmitResult, error) {
	if elig == nil {
		return nil, errors.Internalf("submit without eligibility")
	}

	questions, err := s.QuestionsFor(ctx, elig)
	if err != nil {
		return nil, err
	}

	clean, err := survey.Validate(questions, answers)
	if err != nil {
		return nil, err
	}

	email := dataset.NormalizeEmail(elig.Participant.Email)
	submissionID := uuid.NewString()
	at := s.now()

	responses := make([]models.SurveyResponse, 0, len(clean))
	for _, q := range questions {
		value, ok := clean[q.ID]
		if !ok {
			continue
		}
		responses = append(responses, models.SurveyResponse{
			SubmissionID:     submissionID,
			ParticipantEmail: email,
			DisplayName:      elig.DisplayName,
			QuestionID:       q.ID,
			QuestionText:     q.Prompt,
			Answer:           value,
			SubmittedAt:      at,
		})
	}

	if err := s.repo.ReplaceResponses(ctx, email, responses); err != nil {
		return nil, notRegistered("saving responses", err)
	}

	result := &SubmitResult{SubmissionID: submissionID, Answered: len(responses)}
	result.CloudPersisted, result.Warning = s.copyToCloud(ctx, email, responses)

	s.log.Info("Survey submitted", "email", email, "submission", submissionID,
		"answers", len(responses), "cloud", result.CloudPersisted)

	s.broadcastStats(ctx)
	return result, nil
}

func (s *SurveyService) copyToCloud(ctx context.Context, email string, responses []models.SurveyResponse) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, s.cloudTimeout)
	defer cancel()

	err := s.cloud.ReplaceResponses(ctx, email, responses)
	if err == nil {
		err = s.cloud.MarkSurveyCompleted(ctx, email)
	}
	switch {
	case err == nil:
		return true, ""
	case stderrors.Is(err, cloudstore.ErrNotConfigured):
		return false, ""
	default:
		s.log.Warn("Cloud copy of survey failed", "email", email, "error", err)
		return false, CloudWarning
	}
}

func (s *SurveyService) broadcastStats(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	stats, err := s.repo.ResponseStats(ctx)
	if err != nil {
		s.log.Warn("Could not compute survey stats for broadcast", "error", err)
		return
	}
	s.broadcaster.BroadcastStats(stats)
}
