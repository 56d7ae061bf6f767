package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Static files (served from embedded filesystem)
	if h.staticServer != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
	}

	// Participant portal (public)
	r.Get("/", h.handleIndex)
	r.Post("/check", h.handleCheck)
	r.Post("/survey", h.handleSurvey)
	r.Post("/reset", h.handleReset)
	r.Get("/certificates/{kind}", h.handleCertificatePage)

	// Participant API (public, same session cookie)
	r.Post("/api/check", h.handleAPICheck)
	r.Get("/api/session", h.handleAPISession)
	r.Get("/api/survey/questions", h.handleAPIQuestions)
	r.Post("/api/survey", h.handleAPISurvey)
	r.Post("/api/reset", h.handleAPIReset)
	r.Get("/api/certificates/{kind}", h.handleAPICertificate)

	// Auth routes (public)
	r.Get("/admin/login", h.handleLoginPage)
	r.Post("/admin/login", h.handleLogin)
	r.Post("/admin/logout", h.handleLogout)

	// Admin pages (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)
		r.Get("/admin", h.handleAdminDashboard)
		if h.Hub != nil {
			r.Get("/ws", h.Hub.ServeWs)
		}
	})

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Survey reports
		r.Get("/api/admin/stats", h.handleGetStats)
		r.Get("/api/admin/responses", h.handleGetResponses)
		r.Get("/api/admin/responses.csv", h.handleExportResponses)
		r.Get("/api/admin/questions/{id}/responses", h.handleGetQuestionResponses)
		r.Get("/api/admin/participants/{email}/responses", h.handleGetParticipantResponses)

		// Datasets & cloud sync
		r.Post("/api/admin/import", h.handleImport)
		r.Post("/api/admin/push", h.handlePush)
		r.Post("/api/admin/pull", h.handlePull)

		// Portal QR
		r.Get("/api/admin/portal-qr", h.handleGetPortalQR)

		// Settings
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Post("/api/admin/settings", h.handleUpdateSettings)
	})

	return r
}
