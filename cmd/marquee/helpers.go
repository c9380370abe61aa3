package main

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/marquee/internal/config"
	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
	"github.com/vadimtrunov/marquee/internal/movies"
	"github.com/vadimtrunov/marquee/internal/store"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true) // white bold
	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// session bundles the repository with the resources it owns.
type session struct {
	repo   *movies.Repository
	genres *store.GenreStore
}

// Close releases the genre store.
func (s *session) Close() error {
	if s.genres == nil {
		return nil
	}
	return s.genres.Close()
}

// openSession creates the TMDb client, the genre store and the repository.
func openSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	client := tmdb.New(cfg.TMDb.APIKey, cfg.TMDb.BaseURL, cfg.HTTPConfig(), logger)
	logger.Info("TMDb client initialized",
		slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)),
		slog.Int("attempts", cfg.HTTPConfig().Attempts),
	)

	dir := ""
	if cfg.GenreCacheEnabled() {
		dir = cfg.App.DataDir
	}
	gs, err := store.OpenGenreStore(dir, store.DefaultGenreTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("open genre store: %w", err)
	}

	return &session{
		repo:   movies.NewRepository(client, gs, logger),
		genres: gs,
	}, nil
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
