package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/klabast/wb-services/groupie-dates/internal/artists"
)

// Constants
const (
	DefaultDataFile = "dates.json"
	DefaultAuthFile = "auth.secret"
	BackupSuffix    = ".backup"
	BackupDir       = "backups"
	TmpSuffix       = ".tmp"
	StagedSuffix    = ".staged"
	FilePermissions = 0644

	// Error messages
	ErrInternalServer  = "Internal server error"
	ErrInvalidBody     = "Invalid request body"
	ErrInvalidFormat   = "Invalid format"
	ErrRecordNotFound  = "Date record not found"
	ErrFailedToSave    = "Failed to save dates"
	ErrFailedToExport  = "Failed to export dates"
	ErrUnauthorized    = "Unauthorized"
	ErrInvalidMove     = "Invalid position"
	ErrNoChanges       = "No staged changes"
	ErrNotStaged       = "Store does not stage edits"
	ErrInvalidArtist   = "Invalid artist ID"
	ErrArtistNotFound  = "Artist not found"
	ErrArtistsUpstream = "Failed to fetch artists"

	// Mode strings
	ModeServe = "serve"
	ModeEdit  = "edit"

	PageTitle = "Groupie Tracker: Dates"
)

// Config holds the service configuration. Values come from the environment
// and may be overridden by command line flags.
type Config struct {
	Port       int    `env:"GROUPIE_PORT" envDefault:"8080"`
	DataPath   string `env:"GROUPIE_DATA" envDefault:"dates.json"`
	EditMode   bool   `env:"GROUPIE_EDIT"`
	Watch      bool   `env:"GROUPIE_WATCH" envDefault:"true"`
	DatesURL   string `env:"GROUPIE_DATES_URL"`
	ArtistsAPI string `env:"GROUPIE_ARTISTS_API"`
	AuthFile   string `env:"AUTH_FILE"`
}

// LoadConfig parses the configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Mode returns the mode name used in logs
func (c Config) Mode() string {
	if c.EditMode {
		return ModeEdit
	}
	return ModeServe
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SourceURL returns the dates endpoint the HTML page renders from.
// Defaults to this service's own /dates.
func (c Config) SourceURL() string {
	if c.DatesURL != "" {
		return c.DatesURL
	}
	return fmt.Sprintf("http://localhost:%d/dates", c.Port)
}

// ArtistsBaseURL returns the Groupie Tracker API root
func (c Config) ArtistsBaseURL() string {
	if c.ArtistsAPI != "" {
		return c.ArtistsAPI
	}
	return artists.DefaultBaseURL
}

// AuthFilePath returns the auth file location, defaulting to auth.secret
// next to the binary.
func (c Config) AuthFilePath() (string, error) {
	if c.AuthFile != "" {
		return c.AuthFile, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}
