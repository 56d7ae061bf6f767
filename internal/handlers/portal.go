package handlers

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jornadaii/certify/internal/gate"
	"github.com/jornadaii/certify/internal/models"
	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/survey"
)

// invalidEmailMessage is shown for a malformed email before any lookup
const invalidEmailMessage = "Ingresa un correo electrónico válido."

// PortalPageData holds the data passed to the participant portal template
type PortalPageData struct {
	Title        string
	Announcement string
	State        gate.State
	Email        string
	Eligibility  *models.Eligibility
	Questions    []survey.Question
	Answers      map[int]string
	Message      string
	Warning      string
	Error        string
	Details      []string
}

var portalFuncs = template.FuncMap{
	"answer": func(answers map[int]string, id int) string {
		return answers[id]
	},
	"ratings": func() []string {
		return []string{"1", "2", "3", "4", "5"}
	},
	"isRating":  func(q survey.Question) bool { return q.Kind == survey.KindRating },
	"isChoice":  func(q survey.Question) bool { return q.Kind == survey.KindSingleChoice },
	"isLong":    func(q survey.Question) bool { return q.Kind == survey.KindLongText },
	"fieldName": func(id int) string { return "q" + strconv.Itoa(id) },
}

// loadGate restores the participant gate from the session cookie and
// reconciles it with the record store
func (h *Handlers) loadGate(r *http.Request) (gate.Gate, error) {
	g := h.Sessions.Load(r)
	if err := h.Flow.Refresh(r.Context(), &g); err != nil {
		return g, err
	}
	return g, nil
}

func (h *Handlers) saveGate(w http.ResponseWriter, g gate.Gate) {
	if err := h.Sessions.Save(w, g); err != nil {
		h.Log.Error("Failed to save participant session", "error", err)
	}
}

// validEmail reports whether s looks like an email address
func (h *Handlers) validEmail(s string) bool {
	return h.validate.Var(strings.TrimSpace(s), "required,email") == nil
}

func (h *Handlers) announcement(ctx context.Context) string {
	v, _ := h.Settings.GetSetting(ctx, services.SettingAnnouncement)
	return v
}

// portalPage fills the page data for the gate's current step
func (h *Handlers) portalPage(ctx context.Context, g gate.Gate) (*PortalPageData, error) {
	data := &PortalPageData{
		Title:        "Constancias",
		Announcement: h.announcement(ctx),
		State:        g.State,
		Email:        g.Identifier,
		Eligibility:  g.Result,
		Answers:      map[int]string{},
	}
	if g.State == gate.AwaitingSurvey && g.Result != nil {
		questions, err := h.Survey.QuestionsFor(ctx, g.Result)
		if err != nil {
			return data, err
		}
		data.Questions = questions
	}
	return data, nil
}

func (h *Handlers) renderPortal(w http.ResponseWriter, status int, data *PortalPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Index.Execute(w, data); err != nil {
		h.Log.Error("Failed to render portal page", "error", err)
	}
}

// renderPortalError shows err on the page for the current step
func (h *Handlers) renderPortalError(w http.ResponseWriter, r *http.Request, g gate.Gate, err error) {
	apiErr := h.apiError(err)
	data, pageErr := h.portalPage(r.Context(), g)
	if pageErr != nil {
		data.State = gate.Unverified
	}
	data.Error = apiErr.Message
	data.Details = apiErr.Details
	h.renderPortal(w, apiErr.Status, data)
}

// handleIndex serves the participant portal
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	g, err := h.loadGate(r)
	if err != nil {
		h.renderPortalError(w, r, gate.New(), err)
		return
	}
	h.saveGate(w, g)

	data, err := h.portalPage(r.Context(), g)
	if err != nil {
		h.renderPortalError(w, r, g, err)
		return
	}
	h.renderPortal(w, http.StatusOK, data)
}

// handleCheck verifies the submitted email
func (h *Handlers) handleCheck(w http.ResponseWriter, r *http.Request) {
	g := h.Sessions.Load(r)
	email := r.FormValue("email")
	if !h.validEmail(email) {
		h.renderPortalError(w, r, gate.New(), BadRequest(invalidEmailMessage))
		return
	}

	result, err := h.Flow.Check(r.Context(), &g, email)
	if err != nil {
		data, _ := h.portalPage(r.Context(), gate.New())
		apiErr := h.apiError(err)
		data.Email = email
		data.Error = apiErr.Message
		h.renderPortal(w, apiErr.Status, data)
		return
	}
	h.saveGate(w, g)

	data, err := h.portalPage(r.Context(), g)
	if err != nil {
		h.renderPortalError(w, r, g, err)
		return
	}
	data.Message = result.Message
	if g.State == gate.Unverified {
		// show the shortfall for the email that was checked
		data.Email = email
		data.Eligibility = result.Eligibility
	}
	h.renderPortal(w, http.StatusOK, data)
}

// formAnswers collects q<ID> form fields
func formAnswers(r *http.Request) map[int]string {
	answers := make(map[int]string)
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "q") || len(values) == 0 {
			continue
		}
		id, err := strconv.Atoi(key[1:])
		if err != nil {
			continue
		}
		answers[id] = values[0]
	}
	return answers
}

// handleSurvey records the survey answers
func (h *Handlers) handleSurvey(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPortalError(w, r, gate.New(), BadRequest("Formulario no válido"))
		return
	}
	g, err := h.loadGate(r)
	if err != nil {
		h.renderPortalError(w, r, gate.New(), err)
		return
	}

	answers := formAnswers(r)
	result, err := h.Flow.SubmitSurvey(r.Context(), &g, answers)
	if err != nil {
		apiErr := h.apiError(err)
		data, pageErr := h.portalPage(r.Context(), g)
		if pageErr != nil {
			data.State = gate.Unverified
		}
		data.Answers = answers
		data.Error = apiErr.Message
		data.Details = apiErr.Details
		h.renderPortal(w, apiErr.Status, data)
		return
	}
	h.saveGate(w, g)

	data, err := h.portalPage(r.Context(), g)
	if err != nil {
		h.renderPortalError(w, r, g, err)
		return
	}
	data.Message = "¡Gracias! Registramos tus respuestas. Ya puedes descargar tus constancias."
	data.Warning = result.Warning
	h.renderPortal(w, http.StatusOK, data)
}

// handleReset forgets the participant and goes back to the email form
func (h *Handlers) handleReset(w http.ResponseWriter, r *http.Request) {
	g := h.Sessions.Load(r)
	h.Flow.Reset(&g)
	h.Sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleCertificatePage downloads a certificate from the portal
func (h *Handlers) handleCertificatePage(w http.ResponseWriter, r *http.Request) {
	g, err := h.loadGate(r)
	if err != nil {
		h.renderPortalError(w, r, gate.New(), err)
		return
	}
	h.saveGate(w, g)

	cert, err := h.issue(r, &g)
	if err != nil {
		h.renderPortalError(w, r, g, err)
		return
	}
	writeCertificate(w, cert)
}

// issue renders the certificate named by the {kind} URL parameter
func (h *Handlers) issue(r *http.Request, g *gate.Gate) (*services.Certificate, error) {
	kind, ok := models.ParseCertificateKind(chi.URLParam(r, "kind"))
	if !ok {
		return nil, NotFound("Tipo de constancia desconocido")
	}
	return h.Certificate.IssueFor(r.Context(), g, kind)
}

func writeCertificate(w http.ResponseWriter, cert *services.Certificate) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+cert.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(cert.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(cert.Data)
}
