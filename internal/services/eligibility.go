package services

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jornadaii/certify/internal/dataset"
	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/render"
)

// DefaultMinAttendance is the attendance count required for the general certificate
const DefaultMinAttendance = 2

// Certificate titles shown next to each download
const (
	GeneralTitle  = "Constancia de Participación General"
	WorkshopTitle = "Constancia de Workshop"
	ContestTitle  = "Constancia de Mundialito Mexicano"
)

// EligibilityRepository defines the repository methods needed by EligibilityService
type EligibilityRepository interface {
	FindParticipant(ctx context.Context, email string) (*models.Participant, error)
	CountAttendance(ctx context.Context, email string) (int, error)
	FindWorkshopAttendance(ctx context.Context, email string) (*models.AttendanceRecord, bool, error)
	FindContestMembership(ctx context.Context, email string) (bool, error)
}

// EligibilityService decides which certificates a participant can download
type EligibilityService struct {
	log           logger.Logger
	repo          EligibilityRepository
	minAttendance int
}

// NewEligibilityService creates a new EligibilityService
func NewEligibilityService(log logger.Logger, repo EligibilityRepository, minAttendance int) *EligibilityService {
	if minAttendance < 1 {
		minAttendance = DefaultMinAttendance
	}
	return &EligibilityService{log: log, repo: repo, minAttendance: minAttendance}
}

// MinAttendance returns the configured attendance threshold
func (s *EligibilityService) MinAttendance() int {
	return s.minAttendance
}

// Evaluate looks the participant up and computes their certificate offers.
// It has no side effects.
func (s *EligibilityService) Evaluate(ctx context.Context, identifier string) (*models.Eligibility, error) {
	email := dataset.NormalizeEmail(identifier)
	if email == "" {
		return nil, errors.InvalidInput("Ingresa tu correo electrónico")
	}

	p, err := s.repo.FindParticipant(ctx, email)
	if err != nil {
		return nil, notRegistered("finding participant", err)
	}

	count, err := s.repo.CountAttendance(ctx, email)
	if err != nil {
		return nil, storageError("counting attendance", err)
	}

	workshop, attendedWorkshop, err := s.repo.FindWorkshopAttendance(ctx, email)
	if err != nil {
		return nil, storageError("finding workshop attendance", err)
	}

	contest, err := s.repo.FindContestMembership(ctx, email)
	if err != nil {
		return nil, storageError("finding contest membership", err)
	}

	name := DisplayName(*p)
	elig := &models.Eligibility{
		Participant:      *p,
		DisplayName:      name,
		AttendanceCount:  count,
		MinAttendance:    s.minAttendance,
		WorkshopAttended: attendedWorkshop,
		ContestAttended:  contest,
		EligibleGeneral:  count >= s.minAttendance,
		SurveyCompleted:  p.SurveyCompleted,
	}

	if elig.EligibleGeneral {
		elig.CertificatesAvailable = append(elig.CertificatesAvailable, models.CertificateOffer{
			Kind:        models.KindGeneral,
			DisplayName: GeneralTitle,
			TemplateRef: render.TemplateRef(models.KindGeneral, ""),
		})
	}
	if attendedWorkshop {
		elig.WorkshopCode = workshop.ActivityCode
		elig.WorkshopName = workshop.DisplayTitle()
		variant := "1"
		if n, ok := workshop.WorkshopNumber(); ok {
			variant = strconv.Itoa(n)
		}
		elig.CertificatesAvailable = append(elig.CertificatesAvailable, models.CertificateOffer{
			Kind:        models.KindWorkshop,
			DisplayName: WorkshopTitle + ": " + elig.WorkshopName,
			TemplateRef: render.TemplateRef(models.KindWorkshop, variant),
			Variant:     variant,
		})
	}
	if contest {
		elig.CertificatesAvailable = append(elig.CertificatesAvailable, models.CertificateOffer{
			Kind:        models.KindContest,
			DisplayName: ContestTitle,
			TemplateRef: render.TemplateRef(models.KindContest, ""),
		})
	}

	s.log.Debug("Evaluated eligibility", "email", email, "attendance", count,
		"workshop", attendedWorkshop, "contest", contest, "offers", len(elig.CertificatesAvailable))
	return elig, nil
}

// DisplayName is the participant's full name with each word capitalised
// using Spanish casing rules, or the email when no name is on record
func DisplayName(p models.Participant) string {
	full := p.FullName()
	if full == "" {
		return p.Email
	}
	return cases.Title(language.Spanish).String(strings.ToLower(full))
}
