package services

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/models"
)

// Renderer defines the document renderer used by CertificateService
type Renderer interface {
	Render(kind models.CertificateKind, variant, displayName string) ([]byte, error)
	Archive(filename string, data []byte)
}

// CertificateService issues certificate documents
type CertificateService struct {
	log         logger.Logger
	renderer    Renderer
	eligibility EligibilityServicer
}

// Certificate is a rendered document ready for download
type Certificate struct {
	Kind     models.CertificateKind
	Filename string
	Data     []byte
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(log logger.Logger, renderer Renderer, eligibility EligibilityServicer) *CertificateService {
	return &CertificateService{log: log, renderer: renderer, eligibility: eligibility}
}

// Issue renders one certificate. variant selects the numbered workshop
// template and is ignored for the other kinds.
func (s *CertificateService) Issue(kind models.CertificateKind, variant, displayName string) ([]byte, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, errors.InvalidInput("display name is required")
	}
	return s.renderer.Render(kind, variant, displayName)
}

// IssueFor renders a certificate for the gate's participant. The gate must be
// ready and the certificate must be among the participant's current offers.
func (s *CertificateService) IssueFor(ctx context.Context, g *gate.Gate, kind models.CertificateKind) (*Certificate, error) {
	if err := g.Require(gate.Ready); err != nil {
		return nil, err
	}

	elig, err := s.eligibility.Evaluate(ctx, g.Identifier)
	if err != nil {
		return nil, err
	}
	if !elig.SurveyCompleted {
		return nil, errors.Conflict("Debes completar la encuesta antes de descargar tus constancias")
	}

	offer, ok := elig.Offer(kind)
	if !ok {
		return nil, errors.NotFoundf("La constancia %s no está disponible para ti", kind)
	}

	data, err := s.Issue(kind, offer.Variant, elig.DisplayName)
	if err != nil {
		s.log.Error("Certificate rendering failed", "email", elig.Participant.Email, "kind", kind, "error", err)
		return nil, err
	}

	cert := &Certificate{Kind: kind, Filename: Filename(kind, elig.DisplayName), Data: data}
	s.renderer.Archive(cert.Filename, data)
	s.log.Info("Certificate issued", "email", elig.Participant.Email, "kind", kind, "bytes", len(data))
	return cert, nil
}

// Filename builds the download name Constancia_<kind>_<Name>.pdf with
// accents removed and spaces replaced by underscores
func Filename(kind models.CertificateKind, displayName string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), displayName)
	if err != nil {
		folded = displayName
	}

	var b strings.Builder
	for _, r := range strings.Join(strings.Fields(folded), "_") {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "participante"
	}
	return "Constancia_" + string(kind) + "_" + name + ".pdf"
}
