package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jornadaii/certify/internal/auth"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/session"
	"github.com/jornadaii/certify/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// AdminPageData holds the data passed to admin templates
type AdminPageData struct {
	Title     string
	PageTitle string
	ActiveNav string
	PortalURL string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index          *template.Template
	AdminLogin     *template.Template
	AdminDashboard *template.Template
}

// Services groups the services the handlers call
type Services struct {
	Flow        services.FlowServicer
	Survey      services.SurveyServicer
	Certificate services.CertificateServicer
	Admin       services.AdminServicer
	Sync        services.SyncServicer
	Portal      services.PortalServicer
	Settings    services.SettingsServicer
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Services
	Sessions     *session.Codec
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Log          logger.Logger
	DataDir      string // default source for admin imports
	templates    *Templates
	staticServer http.Handler
	validate     *validator.Validate
}

// New creates a new Handlers instance with all dependencies
func New(
	svc Services,
	templatesFS fs.FS,
	staticServer http.Handler,
	sessions *session.Codec,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log logger.Logger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Services:     svc,
		Sessions:     sessions,
		Auth:         adminAuth,
		Hub:          hub,
		Log:          log,
		templates:    templates,
		staticServer: staticServer,
		validate:     validator.New(),
	}, nil
}

// NewForTesting creates a Handlers instance without loading templates (for testing API endpoints)
func NewForTesting(svc Services, log logger.Logger) *Handlers {
	testAuth, err := auth.New("test-password")
	if err != nil {
		panic(err)
	}
	return &Handlers{
		Services:     svc,
		Sessions:     session.NewCodec("test-secret", session.DefaultTTL),
		Auth:         testAuth,
		Log:          log,
		staticServer: http.NotFoundHandler(),
		validate:     validator.New(),
		// templates left nil - API endpoints don't use templates
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.New("index.html").Funcs(portalFuncs).ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.AdminLogin, err = template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		return nil, fmt.Errorf("admin login template: %w", err)
	}
	if t.AdminDashboard, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/dashboard.html"); err != nil {
		return nil, fmt.Errorf("admin dashboard template: %w", err)
	}

	return t, nil
}
