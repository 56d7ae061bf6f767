package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jornadaii/certify/internal/gate"
)

// handleAPICheck verifies an email and starts the participant session
func (h *Handlers) handleAPICheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if !h.validEmail(req.Email) {
		h.respondError(w, BadRequest(invalidEmailMessage))
		return
	}

	g := h.Sessions.Load(r)
	result, err := h.Flow.Check(r.Context(), &g, req.Email)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.saveGate(w, g)

	resp := CheckResponse{
		State:       result.State,
		Message:     result.Message,
		Shortfall:   result.Shortfall,
		Eligibility: result.Eligibility,
	}
	if g.State == gate.AwaitingSurvey {
		questions, err := h.Survey.QuestionsFor(r.Context(), g.Result)
		if err != nil {
			h.respondError(w, err)
			return
		}
		resp.Questions = questions
	}
	respondOK(w, resp)
}

// handleAPISession reports the current step of the participant flow
func (h *Handlers) handleAPISession(w http.ResponseWriter, r *http.Request) {
	g, err := h.loadGate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.saveGate(w, g)

	respondOK(w, SessionResponse{
		State:       g.State,
		Email:       g.Identifier,
		Eligibility: g.Result,
	})
}

// handleAPIQuestions returns the questions the session participant must answer
func (h *Handlers) handleAPIQuestions(w http.ResponseWriter, r *http.Request) {
	g, err := h.loadGate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if g.State == gate.Unverified || g.Result == nil {
		h.respondError(w, Conflict("Verifica tu correo antes de responder la encuesta"))
		return
	}

	questions, err := h.Survey.QuestionsFor(r.Context(), g.Result)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, questions)
}

// handleAPISurvey records the survey for the session participant
func (h *Handlers) handleAPISurvey(w http.ResponseWriter, r *http.Request) {
	var req SurveySubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	answers := make(map[int]string, len(req.Answers))
	for key, value := range req.Answers {
		id, err := strconv.Atoi(strings.TrimPrefix(key, "q"))
		if err != nil {
			h.respondError(w, BadRequest("Pregunta no válida: "+key))
			return
		}
		answers[id] = value
	}

	g, err := h.loadGate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Flow.SubmitSurvey(r.Context(), &g, answers)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.saveGate(w, g)

	respondOK(w, SurveySubmitResponse{
		SubmissionID:   result.SubmissionID,
		Answered:       result.Answered,
		CloudPersisted: result.CloudPersisted,
		Warning:        result.Warning,
		State:          g.State,
	})
}

// handleAPIReset forgets the session participant
func (h *Handlers) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	g := h.Sessions.Load(r)
	h.Flow.Reset(&g)
	h.Sessions.Clear(w)
	respondOK(w, SessionResponse{State: g.State})
}

// handleAPICertificate downloads a certificate for the session participant
func (h *Handlers) handleAPICertificate(w http.ResponseWriter, r *http.Request) {
	g, err := h.loadGate(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.saveGate(w, g)

	cert, err := h.issue(r, &g)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeCertificate(w, cert)
}
