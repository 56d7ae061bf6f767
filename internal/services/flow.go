package services

import (
	"context"
	"fmt"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
)

// FlowService drives a participant through verification, survey and download.
// It holds no per-participant state: the gate is passed in by the caller.
type FlowService struct {
	log         logger.Logger
	eligibility EligibilityServicer
	survey      SurveyServicer
}

// CheckResult is the outcome of verifying an email
type CheckResult struct {
	Eligibility *models.Eligibility `json:"eligibility"`
	State       gate.State          `json:"state"`
	Shortfall   int                 `json:"shortfall,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// NewFlowService creates a new FlowService
func NewFlowService(log logger.Logger, eligibility EligibilityServicer, survey SurveyServicer) *FlowService {
	return &FlowService{log: log, eligibility: eligibility, survey: survey}
}

// Check evaluates identifier and moves the gate accordingly. An unknown
// identifier or a storage failure leaves the gate as it was.
func (s *FlowService) Check(ctx context.Context, g *gate.Gate, identifier string) (*CheckResult, error) {
	elig, err := s.eligibility.Evaluate(ctx, identifier)
	if err != nil {
		return nil, err
	}

	g.Reset()
	shortfall, err := g.Apply(elig)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Eligibility: elig, State: g.State, Shortfall: shortfall}
	switch {
	case shortfall > 0:
		result.Message = fmt.Sprintf("Necesitas al menos %d asistencias para obtener una constancia; te faltan %d.",
			elig.MinAttendance, shortfall)
	case g.State == gate.Ready:
		result.Message = "Tu encuesta ya está registrada. Tus constancias están listas."
	default:
		result.Message = "Responde la encuesta de satisfacción para desbloquear tus constancias."
	}

	s.log.Info("Participant checked", "email", elig.Participant.Email, "state", g.State, "shortfall", shortfall)
	return result, nil
}

// Refresh re-evaluates the gate's participant and reconciles its state with
// the record store. Used when a gate is restored from a session. A
// participant that disappeared or no longer qualifies resets the gate.
func (s *FlowService) Refresh(ctx context.Context, g *gate.Gate) error {
	if g.State == gate.Unverified {
		g.Result = nil
		return nil
	}

	elig, err := s.eligibility.Evaluate(ctx, g.Identifier)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrInvalidInput) {
			s.log.Warn("Session participant no longer registered", "email", g.Identifier)
			g.Reset()
			return nil
		}
		return err
	}

	if !elig.EligibleGeneral {
		g.Reset()
		return nil
	}

	g.Result = elig
	switch {
	case g.State == gate.AwaitingSurvey && elig.SurveyCompleted:
		g.State = gate.Ready
	case g.State == gate.Ready && !elig.SurveyCompleted:
		g.State = gate.AwaitingSurvey
	}
	return nil
}

// SubmitSurvey records the survey for the gate's participant and releases
// the certificates. Invalid answers leave the gate and the store untouched.
func (s *FlowService) SubmitSurvey(ctx context.Context, g *gate.Gate, answers map[int]string) (*SubmitResult, error) {
	if err := g.Require(gate.AwaitingSurvey); err != nil {
		return nil, err
	}
	if g.Result == nil || g.Result.Participant.Email != g.Identifier {
		if err := s.Refresh(ctx, g); err != nil {
			return nil, err
		}
		if err := g.Require(gate.AwaitingSurvey); err != nil {
			return nil, err
		}
	}

	result, err := s.survey.Submit(ctx, g.Result, answers)
	if err != nil {
		return nil, err
	}
	if err := g.CompleteSurvey(); err != nil {
		return nil, err
	}
	return result, nil
}

// Reset forgets the participant so another email can be checked
func (s *FlowService) Reset(g *gate.Gate) {
	g.Reset()
}
