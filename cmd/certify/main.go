package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jornadaii/certify/internal/app"
	"github.com/jornadaii/certify/internal/browser"
	"github.com/jornadaii/certify/internal/config"
	"github.com/jornadaii/certify/internal/logger"
	"github.com/jornadaii/certify/web"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

// globalFlags are shared by every command
type globalFlags struct {
	envFile   string
	dbPath    string
	logLevel  string
	logFormat string
}

// showLogo prints the startup banner
func showLogo() {
	width := 48
	border := strings.Repeat("═", width)
	lines := []string{
		"",
		"   certify · constancias de participación",
		"   " + version,
		"",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range lines {
		pad := width - len([]rune(line))
		if pad < 0 {
			pad = 0
		}
		fmt.Printf("  %s║%s%s%s%s║%s\n", cyan, yellow, line, strings.Repeat(" ", pad), cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog logger.Logger) {
	var next string
	switch appLog.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	case "ERROR":
		next = "debug"
	default:
		next = "info"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	fmt.Printf("%sLog level: %s%s%s\n", green, yellow, next, reset)
}

// toggleHTTPLogging flips chi request logging on or off
func toggleHTTPLogging(appLog logger.Logger) {
	if appLog.IsHTTPLoggingEnabled() {
		appLog.DisableHTTPLogging()
		fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
	} else {
		appLog.EnableHTTPLogging()
		fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
	}
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	fmt.Printf("\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Printf("    %sa%s      - Open admin page in browser\n", cyan, reset)
	fmt.Printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Printf("    %sq%s      - Quit server\n", cyan, reset)
	fmt.Printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

// handleKey runs the action bound to a key. It reports false when the
// server should stop.
func handleKey(key string, adminURL string, appLog logger.Logger) bool {
	switch strings.ToLower(key) {
	case "a":
		fmt.Printf("%sOpening admin page in browser...%s\n", cyan, reset)
		if err := browser.Open(adminURL); err != nil {
			fmt.Printf("%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		toggleHTTPLogging(appLog)
	case "l":
		cycleLogLevel(appLog)
	case "?":
		printKeyboardHelp()
	case "q", "\x03": // q or Ctrl+C
		fmt.Printf("%sShutting down server...%s\n", yellow, reset)
		return false
	}
	return true
}

// loadConfig reads the environment and applies command line overrides
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.envFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = g.dbPath
	}
	if flags.Changed("loglevel") {
		cfg.LogLevel = g.logLevel
	}
	if flags.Changed("logformat") {
		cfg.LogFormat = g.logFormat
	}
	return cfg, nil
}

// openApp loads config, applies extra overrides and builds the application
func openApp(cmd *cobra.Command, g *globalFlags, override func(*config.Config)) (*app.App, *config.Config, logger.Logger, error) {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return nil, nil, nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	appLog := logger.NewFromFormat(cfg.LogFormat, logger.ParseLevel(cfg.LogLevel))
	a, err := app.New(cfg, appLog, web.GetTemplatesFS(), web.GetStaticFS())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, cfg, appLog, nil
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		port       int
		adminPw    string
		baseURL    string
		noLogo     bool
		noKeyboard bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the participant portal and admin dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, appLog, err := openApp(cmd, g, func(cfg *config.Config) {
				if cmd.Flags().Changed("port") {
					cfg.Port = port
				}
				if adminPw != "" {
					cfg.AdminPassword = adminPw
				}
				if baseURL != "" {
					cfg.BaseURL = baseURL
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			if !noLogo {
				showLogo()
			}
			if pw := a.GeneratedPassword(); pw != "" {
				appLog.Info("Admin password", "password", pw)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- a.Run(ctx)
			}()

			// Wait a moment for server to start
			time.Sleep(100 * time.Millisecond)

			if !noKeyboard {
				printKeyboardHelp()
				go listenForKeyboard(browser.AdminURL(fmt.Sprintf(":%d", cfg.Port)), appLog, stop)
			} else {
				fmt.Printf("\n%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
			}

			return <-serverErr
		},
	}

	cmd.Flags().IntVar(&port, "port", 8000, "HTTP server port")
	cmd.Flags().StringVar(&adminPw, "adminpw", "", "Admin password or bcrypt hash (auto-generated if not set)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public portal URL used for the poster QR code")
	cmd.Flags().BoolVar(&noLogo, "nologo", false, "Skip the startup banner")
	cmd.Flags().BoolVar(&noKeyboard, "nokeyboard", false, "Disable keyboard shortcuts")
	return cmd
}

func newImportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Replace participants, attendance, activities and teams from CSV files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, _, err := openApp(cmd, g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := cfg.DataDir
			if len(args) == 1 {
				dir = args[0]
			}
			result, err := a.Sync().ImportDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d participants, %d activities, %d attendance rows, %d team members from %s\n",
				result.Participants, result.Activities, result.Attendance, result.Teams, result.Source)
			return nil
		},
	}
}

func newPushCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Copy local datasets and survey responses to the cloud store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := openApp(cmd, g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Sync().Push(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d participants, %d attendance rows, %d responses\n",
				result.Participants, result.Attendance, result.Responses)
			return nil
		},
	}
}

func newPullCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace local datasets with the cloud copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := openApp(cmd, g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Sync().Pull(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d participants, %d attendance rows\n", result.Participants, result.Attendance)
			return nil
		},
	}
}

func newExportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the local datasets as CSV files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, err := openApp(cmd, g, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Sync().ExportDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d participants to %s\n", result.Participants, result.Source)
			return nil
		},
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "certify",
		Short:         "Participation certificates gated by a satisfaction survey",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.envFile, "env", ".env", "Optional .env file")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "certify.db", "SQLite database path")
	root.PersistentFlags().StringVar(&g.logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "logformat", "text", "Log format (text, json)")

	root.AddCommand(
		newServeCmd(g),
		newImportCmd(g),
		newPushCmd(g),
		newPullCmd(g),
		newExportCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "certify %s\n", version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%sError:%s %v\n", red, reset, err)
		os.Exit(1)
	}
}
