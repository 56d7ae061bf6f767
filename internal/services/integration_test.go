package services_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/render"
	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/survey"
	"github.com/jornadaii/certify/internal/testutil"
	"github.com/jornadaii/certify/pkg/cloudstore"
)

// ============================================================================
// Integration Test: Import, verify, survey, download
// ============================================================================

func TestIntegration_FullCertificateWorkflow(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	log := logger.New()
	cloud := cloudstore.NewMockStore()

	syncSvc := services.NewSyncService(log, repo, cloud)
	eligSvc := services.NewEligibilityService(log, repo, services.DefaultMinAttendance)
	surveySvc := services.NewSurveyService(log, repo, survey.Default(), cloud)
	flowSvc := services.NewFlowService(log, eligSvc, surveySvc)
	renderer := render.New(fstest.MapFS{}, render.DefaultTexts(), log).WithArchive(t.TempDir())
	certSvc := services.NewCertificateService(log, renderer, eligSvc)
	adminSvc := services.NewAdminService(log, repo, survey.Default())

	// Step 1: Import the event datasets
	dir := t.TempDir()
	if err := dataset.WriteDir(dir, testutil.SampleBundle()); err != nil {
		t.Fatal(err)
	}
	if _, err := syncSvc.ImportDir(ctx, dir); err != nil {
		t.Fatalf("ImportDir failed: %v", err)
	}

	// Step 2: Verify the participant
	g := gate.New()
	check, err := flowSvc.Check(ctx, &g, "ANA@example.com")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if check.State != gate.AwaitingSurvey {
		t.Fatalf("expected %s, got %s", gate.AwaitingSurvey, check.State)
	}

	// Step 3: Downloads are locked until the survey is done
	if _, err := certSvc.IssueFor(ctx, &g, models.KindGeneral); err == nil {
		t.Fatal("expected download to be refused before the survey")
	}

	// Step 4: Answer the survey
	submitted, err := flowSvc.SubmitSurvey(ctx, &g, completeAnswers(t, surveySvc, g.Result))
	if err != nil {
		t.Fatalf("SubmitSurvey failed: %v", err)
	}
	if !submitted.CloudPersisted {
		t.Error("expected the cloud copy to be written")
	}

	// Step 5: Download every offered certificate
	for _, offer := range g.Result.CertificatesAvailable {
		cert, err := certSvc.IssueFor(ctx, &g, offer.Kind)
		if err != nil {
			t.Fatalf("IssueFor(%s) failed: %v", offer.Kind, err)
		}
		if !bytes.HasPrefix(cert.Data, []byte("%PDF")) {
			t.Errorf("%s: expected a PDF", offer.Kind)
		}
	}

	// Step 6: The organiser sees the submission
	stats, err := adminSvc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalParticipants != 1 || stats.CompletedCount != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestIntegration_ConcurrentSubmissions(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	b := testutil.SampleBundle()
	for i := 0; i < 10; i++ {
		email := fmt.Sprintf("p%d@example.com", i)
		b.Participants = append(b.Participants, models.Participant{Email: email, GivenNames: "P", FamilyNames: fmt.Sprint(i)})
		b.Attendance = append(b.Attendance,
			models.AttendanceRecord{ParticipantEmail: email, ActivityCode: "C1", ActivityType: "Conferencia"},
			models.AttendanceRecord{ParticipantEmail: email, ActivityCode: "C2", ActivityType: "Conferencia"})
	}
	if err := repo.ImportDatasets(ctx, b); err != nil {
		t.Fatal(err)
	}
	s := newStack(repo, nil)

	// every generated participant sees the same question set
	sample, err := s.eligibility.Evaluate(ctx, "p0@example.com")
	if err != nil {
		t.Fatal(err)
	}
	answers := completeAnswers(t, s.survey, sample)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := gate.New()
			if _, err := s.flow.Check(ctx, &g, fmt.Sprintf("p%d@example.com", i)); err != nil {
				errs <- err
				return
			}
			if _, err := s.flow.SubmitSurvey(ctx, &g, answers); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent submission failed: %v", err)
	}

	stats, _ := repo.ResponseStats(ctx)
	if stats.TotalParticipants != 10 {
		t.Errorf("expected 10 participants with responses, got %d", stats.TotalParticipants)
	}
}
