package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jornadaii/certify/internal/auth"
	"github.com/jornadaii/certify/internal/config"
	"github.com/jornadaii/certify/internal/handlers"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/internal/render"
	"github.com/jornadaii/certify/internal/repository"
	"github.com/jornadaii/certify/internal/services"
	"github.com/jornadaii/certify/internal/session"
	"github.com/jornadaii/certify/internal/survey"
	"github.com/jornadaii/certify/internal/websocket"
	"github.com/jornadaii/certify/pkg/cloudstore"
)

const (
	statsRefreshInterval = 30 * time.Second
	shutdownTimeout      = 10 * time.Second
)

// App holds all application dependencies
type App struct {
	cfg           *config.Config
	log           logger.Logger
	handlers      *handlers.Handlers
	repo          *repository.Repository
	cloud         cloudstore.Store
	sync          *services.SyncService
	adminPassword string
	cancelRefresh context.CancelFunc
}

// New creates and initializes a new application instance
func New(cfg *config.Config, log logger.Logger, templatesFS, staticFS fs.FS) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	questions := survey.Default()
	if cfg.QuestionsFile != "" {
		if questions, err = survey.Load(cfg.QuestionsFile); err != nil {
			repo.Close()
			return nil, fmt.Errorf("loading survey questions: %w", err)
		}
	}

	cloud := openCloud(cfg, log)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(realNetworkProvider{}, cfg.Port)
	}

	texts := render.DefaultTexts()
	texts.EventName = cfg.EventName
	texts.PlaceDate = cfg.EventPlace
	texts.Institution = cfg.Institution
	renderer := render.New(os.DirFS(cfg.AssetsDir), texts, log).WithArchive(cfg.ArchiveDir)
	if _, err := os.Stat(cfg.TemplatesDir()); err != nil {
		log.Warn("Certificate templates not found, generated certificates will be issued", "dir", cfg.TemplatesDir())
	}

	// Initialize services
	settingsService := services.NewSettingsService(log, repo, baseURL)
	eligibilityService := services.NewEligibilityService(log, repo, cfg.MinAttendance)
	surveyService := services.NewSurveyService(log, repo, questions, cloud)
	flowService := services.NewFlowService(log, eligibilityService, surveyService)
	certificateService := services.NewCertificateService(log, renderer, eligibilityService)
	adminService := services.NewAdminService(log, repo, questions)
	syncService := services.NewSyncService(log, repo, cloud)
	portalService := services.NewPortalService(log, settingsService)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, adminService)
	hub.Start()
	surveyService.SetBroadcaster(hub)
	syncService.SetBroadcaster(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.RefreshStats(ctx, statsRefreshInterval)

	sessions := session.NewCodec(sessionSecret(cfg, log), session.DefaultTTL).
		WithSecureCookies(strings.HasPrefix(baseURL, "https://"))

	adminAuth, password, err := adminAuthFor(cfg)
	if err != nil {
		cancel()
		repo.Close()
		cloud.Close()
		return nil, err
	}

	h, err := handlers.New(
		handlers.Services{
			Flow:        flowService,
			Survey:      surveyService,
			Certificate: certificateService,
			Admin:       adminService,
			Sync:        syncService,
			Portal:      portalService,
			Settings:    settingsService,
		},
		templatesFS,
		handlers.NewStaticServer(staticFS),
		sessions,
		adminAuth,
		hub,
		log,
	)
	if err != nil {
		cancel() // Clean up refresh goroutine
		repo.Close()
		cloud.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}
	h.DataDir = cfg.DataDir

	return &App{
		cfg:           cfg,
		log:           log,
		handlers:      h,
		repo:          repo,
		cloud:         cloud,
		sync:          syncService,
		adminPassword: password,
		cancelRefresh: cancel,
	}, nil
}

// openCloud connects to the cloud record store. The local store stays
// authoritative, so a failed connection only disables the cloud copy.
func openCloud(cfg *config.Config, log logger.Logger) cloudstore.Store {
	if !cfg.RemoteEnabled() {
		return cloudstore.Nop{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := cloudstore.Open(ctx, cfg.RemoteDSN, log)
	if err != nil {
		log.Warn("Cloud store unavailable, continuing with local records only", "error", err)
		return cloudstore.Nop{}
	}
	return store
}

// sessionSecret returns the configured signing key, or a random one that
// invalidates participant sessions on restart
func sessionSecret(cfg *config.Config, log logger.Logger) string {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret
	}
	log.Warn("CERTIFY_SESSION_SECRET not set, participant sessions will not survive a restart")
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// adminAuthFor builds admin auth from the configured password or bcrypt
// hash. With neither, a password is generated and returned.
func adminAuthFor(cfg *config.Config) (*auth.Auth, string, error) {
	switch {
	case strings.HasPrefix(cfg.AdminPassword, "$2"):
		a, err := auth.NewFromHash(cfg.AdminPassword)
		return a, "", err
	case cfg.AdminPassword != "":
		a, err := auth.New(cfg.AdminPassword)
		return a, "", err
	}
	password := auth.GeneratePassword()
	a, err := auth.New(password)
	return a, password, err
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Sync exposes dataset import and cloud sync for command line use
func (a *App) Sync() services.SyncServicer {
	return a.sync
}

// GeneratedPassword is the admin password created at startup, or empty
// when one was configured
func (a *App) GeneratedPassword() string {
	return a.adminPassword
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.cancelRefresh != nil {
		a.cancelRefresh()
	}
	if a.cloud != nil {
		a.cloud.Close()
	}
	if a.repo != nil {
		a.repo.Close()
	}
}

// Run serves HTTP until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	baseURL, _ := a.handlers.Settings.GetBaseURL(ctx)
	a.log.Info("Server starting", "addr", addr, "portal", baseURL)
	a.log.Info("Admin URL", "url", strings.TrimSuffix(baseURL, "/")+"/admin")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// defaultBaseURL is the portal address on the local network, used for
// the poster QR code until an organiser configures a public URL
func defaultBaseURL(provider networkProvider, port int) string {
	return fmt.Sprintf("http://%s:%d", getPreferredIP(provider), port)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges and falling back to localhost.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
