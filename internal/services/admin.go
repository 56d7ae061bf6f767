package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/survey"
)

// ResponseExportHeader is the column layout of the responses CSV export
var ResponseExportHeader = []string{
	"participante_email", "nombre_completo", "pregunta_id", "pregunta_texto", "respuesta", "fecha", "timestamp",
}

// AdminRepository defines the repository methods needed by AdminService
type AdminRepository interface {
	ListResponses(ctx context.Context) ([]models.SurveyResponse, error)
	ListResponsesByQuestion(ctx context.Context, questionID int) ([]models.SurveyResponse, error)
	ListResponsesByParticipant(ctx context.Context, email string) ([]models.SurveyResponse, error)
	ResponseStats(ctx context.Context) (*models.SurveyStats, error)
}

// AdminService provides survey reporting for organisers
type AdminService struct {
	log       logger.Logger
	repo      AdminRepository
	questions *survey.Set
}

// QuestionResponses is every answer to one question plus a tally
type QuestionResponses struct {
	Question  survey.Question         `json:"question"`
	Responses []models.SurveyResponse `json:"responses"`
	Counts    map[string]int          `json:"counts,omitempty"`
	Average   *float64                `json:"average,omitempty"`
}

// NewAdminService creates a new AdminService
func NewAdminService(log logger.Logger, repo AdminRepository, questions *survey.Set) *AdminService {
	if questions == nil {
		questions = survey.Default()
	}
	return &AdminService{log: log, repo: repo, questions: questions}
}

// Stats returns the survey summary
func (s *AdminService) Stats(ctx context.Context) (*models.SurveyStats, error) {
	stats, err := s.repo.ResponseStats(ctx)
	if err != nil {
		return nil, storageError("computing stats", err)
	}
	return stats, nil
}

// Responses returns every stored answer, newest first
func (s *AdminService) Responses(ctx context.Context) ([]models.SurveyResponse, error) {
	out, err := s.repo.ListResponses(ctx)
	if err != nil {
		return nil, storageError("listing responses", err)
	}
	return out, nil
}

// ResponsesByQuestion returns the answers to one question. Ratings and
// single choice answers are tallied; ratings also get an average.
func (s *AdminService) ResponsesByQuestion(ctx context.Context, questionID int) (*QuestionResponses, error) {
	q, ok := s.questions.Lookup(questionID)
	if !ok {
		return nil, errors.NotFoundf("question %d does not exist", questionID)
	}

	rows, err := s.repo.ListResponsesByQuestion(ctx, questionID)
	if err != nil {
		return nil, storageError("listing responses", err)
	}

	out := &QuestionResponses{Question: q, Responses: rows}
	if q.Kind != survey.KindRating && q.Kind != survey.KindSingleChoice {
		return out, nil
	}

	out.Counts = make(map[string]int)
	sum, n := 0, 0
	for _, r := range rows {
		out.Counts[r.Answer]++
		if q.Kind == survey.KindRating {
			if v, err := strconv.Atoi(r.Answer); err == nil {
				sum += v
				n++
			}
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		out.Average = &avg
	}
	return out, nil
}

// ResponsesByParticipant returns one participant's answers
func (s *AdminService) ResponsesByParticipant(ctx context.Context, email string) ([]models.SurveyResponse, error) {
	e := dataset.NormalizeEmail(email)
	if e == "" {
		return nil, errors.InvalidInput("email is required")
	}
	out, err := s.repo.ListResponsesByParticipant(ctx, e)
	if err != nil {
		return nil, storageError("listing responses", err)
	}
	return out, nil
}

// ExportCSV writes every response in the column layout of the cloud table
func (s *AdminService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.Responses(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ResponseExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		at := r.SubmittedAt.Local()
		record := []string{
			r.ParticipantEmail,
			r.DisplayName,
			strconv.Itoa(r.QuestionID),
			r.QuestionText,
			r.Answer,
			at.Format("2006-01-02 15:04:05"),
			strconv.FormatInt(at.Unix(), 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	s.log.Info("Exported survey responses", "rows", len(rows))
	return nil
}
