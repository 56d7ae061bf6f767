package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/session"
)

func TestPortal_IndexFresh(t *testing.T) {
	e := setupTestEnv(t)

	w := e.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "state=unverified") {
		t.Errorf("expected unverified page, got %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML, got %q", ct)
	}
}

func TestPortal_IndexShowsAnnouncement(t *testing.T) {
	e := setupTestEnv(t)
	e.h.Settings.SetSetting(context.Background(), services.SettingAnnouncement, "Constancias hasta el viernes")

	w := e.get("/")
	if !strings.Contains(w.Body.String(), "announcement=Constancias hasta el viernes") {
		t.Errorf("expected announcement, got %q", w.Body.String())
	}
}

func TestPortal_CheckAwaitingSurvey(t *testing.T) {
	e := setupTestEnv(t)

	w := e.postForm("/check", url.Values{"email": {"ANA@example.com"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "state=awaiting_survey") || !strings.Contains(body, "email=ana@example.com") {
		t.Errorf("expected survey step, got %q", body)
	}
	if !strings.Contains(body, "q1,") || !strings.Contains(body, "q17,") || strings.Contains(body, "q19,") {
		t.Errorf("expected workshop questions only, got %q", body)
	}
	if _, ok := e.cookies[session.CookieName]; !ok {
		t.Error("expected a session cookie")
	}

	// the session survives a reload
	w = e.get("/")
	if !strings.Contains(w.Body.String(), "state=awaiting_survey") {
		t.Errorf("expected survey step after reload, got %q", w.Body.String())
	}
}

func TestPortal_CheckInvalidEmail(t *testing.T) {
	e := setupTestEnv(t)

	w := e.postForm("/check", url.Values{"email": {"not-an-email"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "state=unverified") {
		t.Errorf("expected email form, got %q", w.Body.String())
	}
}

func TestPortal_CheckNotRegistered(t *testing.T) {
	e := setupTestEnv(t)

	w := e.postForm("/check", url.Values{"email": {"nobody@example.com"}})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "error="+services.NotRegisteredMessage) {
		t.Errorf("expected not-registered message, got %q", w.Body.String())
	}
	if _, ok := e.cookies[session.CookieName]; ok {
		t.Error("expected no session cookie")
	}
}

func TestPortal_CheckShortfall(t *testing.T) {
	e := setupTestEnv(t)

	w := e.postForm("/check", url.Values{"email": {"luis@example.com"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "state=unverified") || !strings.Contains(body, "te faltan 1") {
		t.Errorf("expected shortfall message, got %q", body)
	}
	if !strings.Contains(body, "email=luis@example.com") {
		t.Errorf("expected checked email to be echoed, got %q", body)
	}
}

func TestPortal_FullFlow(t *testing.T) {
	e := setupTestEnv(t)

	e.postForm("/check", url.Values{"email": {"ana@example.com"}})

	// certificates stay locked until the survey is answered
	w := e.get("/certificates/general")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before the survey, got %d", w.Code)
	}

	w = e.postForm("/survey", surveyForm(t, e, "ana@example.com"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "state=ready") || !strings.Contains(body, "offers=general,workshop,") {
		t.Errorf("expected ready page with offers, got %q", body)
	}

	w = e.get("/certificates/general")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Constancia_general_") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected a PDF body")
	}

	if w := e.get("/certificates/workshop"); w.Code != http.StatusOK {
		t.Errorf("expected workshop certificate, got %d", w.Code)
	}
	if w := e.get("/certificates/contest"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a certificate not offered, got %d", w.Code)
	}
	if w := e.get("/certificates/platinum"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown kind, got %d", w.Code)
	}

	p, _ := e.repo.FindParticipant(context.Background(), "ana@example.com")
	if !p.SurveyCompleted {
		t.Error("expected survey flag to be stored")
	}
}

func TestPortal_SurveyMissingAnswers(t *testing.T) {
	e := setupTestEnv(t)
	e.postForm("/check", url.Values{"email": {"ana@example.com"}})

	form := surveyForm(t, e, "ana@example.com")
	form.Del("q1")
	form.Set("q2", "9")

	w := e.postForm("/survey", form)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "state=awaiting_survey") {
		t.Errorf("expected to stay on the survey, got %q", body)
	}
	if strings.Count(strings.SplitN(body, "details=", 2)[1], ";") < 2 {
		t.Errorf("expected both problems listed, got %q", body)
	}
}

func TestPortal_SurveyWithoutSession(t *testing.T) {
	e := setupTestEnv(t)

	w := e.postForm("/survey", url.Values{"q1": {"5"}})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestPortal_ReturningParticipantSkipsSurvey(t *testing.T) {
	e := setupTestEnv(t)

	w := e.postForm("/check", url.Values{"email": {"sofia@example.com"}})
	if !strings.Contains(w.Body.String(), "state=ready") {
		t.Fatalf("expected ready state, got %q", w.Body.String())
	}
	if w := e.get("/certificates/contest"); w.Code != http.StatusOK {
		t.Errorf("expected contest certificate, got %d", w.Code)
	}
}

func TestPortal_Reset(t *testing.T) {
	e := setupTestEnv(t)
	e.postForm("/check", url.Values{"email": {"ana@example.com"}})

	w := e.postForm("/reset", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("expected redirect home, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if _, ok := e.cookies[session.CookieName]; ok {
		t.Error("expected session cookie to be cleared")
	}
	if w := e.get("/"); !strings.Contains(w.Body.String(), "state=unverified") {
		t.Errorf("expected fresh portal, got %q", w.Body.String())
	}
}

func TestPortal_TamperedCookie(t *testing.T) {
	e := setupTestEnv(t)
	e.cookies[session.CookieName] = &http.Cookie{Name: session.CookieName, Value: "forged.token.value"}

	w := e.get("/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "state=unverified") {
		t.Errorf("expected a fresh session, got %d %q", w.Code, w.Body.String())
	}
}
