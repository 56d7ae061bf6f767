package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds runtime settings. Values come from the environment (optionally
// seeded from a .env file) and can be overridden by command line flags.
type Config struct {
	Port          int    `env:"CERTIFY_PORT" envDefault:"8000" validate:"min=1,max=65535"`
	DBPath        string `env:"CERTIFY_DB" envDefault:"certify.db" validate:"required"`
	DataDir       string `env:"CERTIFY_DATA_DIR" envDefault:"data"`
	AssetsDir     string `env:"CERTIFY_ASSETS_DIR" envDefault:"assets"`
	ArchiveDir    string `env:"CERTIFY_ARCHIVE_DIR"`
	QuestionsFile string `env:"CERTIFY_QUESTIONS_FILE"`

	LogLevel  string `env:"CERTIFY_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
	LogFormat string `env:"CERTIFY_LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	AdminPassword string `env:"CERTIFY_ADMIN_PASSWORD"`
	SessionSecret string `env:"CERTIFY_SESSION_SECRET"`
	RemoteDSN     string `env:"CERTIFY_REMOTE_DSN"`
	BaseURL       string `env:"CERTIFY_BASE_URL" validate:"omitempty,url"`

	MinAttendance int    `env:"CERTIFY_MIN_ATTENDANCE" envDefault:"2" validate:"min=1"`
	EventName     string `env:"CERTIFY_EVENT_NAME" envDefault:"Jornada de Ingeniería Industrial 2025"`
	EventPlace    string `env:"CERTIFY_EVENT_PLACE_DATE" envDefault:"Cancún, Quintana Roo - Octubre 2025"`
	Institution   string `env:"CERTIFY_INSTITUTION" envDefault:"Universidad del Caribe"`
}

// Load reads an optional .env file and parses the environment.
// A missing .env file is not an error.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// TemplatesDir is where certificate templates live inside the assets dir
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.AssetsDir, "plantillas")
}

// RemoteEnabled reports whether the cloud record store is configured
func (c *Config) RemoteEnabled() bool {
	return c.RemoteDSN != ""
}
