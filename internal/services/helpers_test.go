package services_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/repository"
	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/survey"
	"github.com/jornadaii/certify/pkg/cloudstore"
)

// quietLogger discards output so test logs stay readable
func quietLogger() logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{}, logger.ParseLevel("debug"))
}

// stack is the participant-facing service graph over one repository
type stack struct {
	eligibility *services.EligibilityService
	survey      *services.SurveyService
	flow        *services.FlowService
}

func newStack(repo repository.FullRepository, cloud cloudstore.Store) *stack {
	log := quietLogger()
	elig := services.NewEligibilityService(log, repo, services.DefaultMinAttendance)
	surv := services.NewSurveyService(log, repo, survey.Default(), cloud)
	return &stack{
		eligibility: elig,
		survey:      surv,
		flow:        services.NewFlowService(log, elig, surv),
	}
}

// completeAnswers answers every required question that applies to elig
func completeAnswers(t *testing.T, svc *services.SurveyService, elig *models.Eligibility) map[int]string {
	t.Helper()
	questions, err := svc.QuestionsFor(context.Background(), elig)
	if err != nil {
		t.Fatalf("QuestionsFor failed: %v", err)
	}

	answers := make(map[int]string)
	for _, q := range questions {
		if !q.Required() {
			continue
		}
		switch q.Kind {
		case survey.KindRating:
			answers[q.ID] = "5"
		case survey.KindSingleChoice:
			if len(q.Options) > 0 {
				answers[q.ID] = q.Options[0]
			} else {
				answers[q.ID] = "Otra"
			}
		default:
			answers[q.ID] = "Muy buena experiencia"
		}
	}
	return answers
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls int
	last  *models.SurveyStats
}

func (m *mockBroadcaster) BroadcastStats(stats *models.SurveyStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.last = stats
}
