package prefs

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/pkg/util"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Preview sample rate bounds, in frames per second
const (
	MinPreviewRate     = 0.5
	MaxPreviewRate     = 10.0
	DefaultPreviewRate = 2.0
)

const (
	keyPreviewRate = "preview_rate"
	keyPiPConfig   = "pip_config"
)

// Store persists user preferences in a local sqlite database
type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the preferences database at path and applies migrations
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create preferences directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping preferences: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger.With().Str("component", "prefs").Logger(),
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

// PreviewRate returns the stored preview sample rate, clamped to its bounds.
// A missing or unparsable value yields DefaultPreviewRate.
func (s *Store) PreviewRate(ctx context.Context) float64 {
	raw, ok := s.get(ctx, keyPreviewRate)
	if !ok {
		return DefaultPreviewRate
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		s.logger.Warn().Str("value", raw).Msg("invalid preview rate, using default")
		return DefaultPreviewRate
	}
	return ClampPreviewRate(v)
}

// SetPreviewRate stores the clamped rate and returns the value written
func (s *Store) SetPreviewRate(ctx context.Context, fps float64) (float64, error) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0, fmt.Errorf("invalid preview rate %v", fps)
	}
	fps = ClampPreviewRate(fps)
	if err := s.set(ctx, keyPreviewRate, strconv.FormatFloat(fps, 'f', -1, 64)); err != nil {
		return 0, err
	}
	return fps, nil
}

// PiPConfig returns the stored overlay configuration.
// Corrupt or invalid records fall back to overlays.DefaultConfig.
func (s *Store) PiPConfig(ctx context.Context) overlays.Config {
	raw, ok := s.get(ctx, keyPiPConfig)
	if !ok {
		return overlays.DefaultConfig()
	}

	var cfg overlays.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt pip config, using default")
		return overlays.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("invalid pip config, using default")
		return overlays.DefaultConfig()
	}
	return cfg
}

// SetPiPConfig validates and stores the overlay configuration
func (s *Store) SetPiPConfig(ctx context.Context, cfg overlays.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode pip config: %w", err)
	}
	return s.set(ctx, keyPiPConfig, string(data))
}

// ClampPreviewRate bounds fps to [MinPreviewRate, MaxPreviewRate]
func ClampPreviewRate(fps float64) float64 {
	return math.Min(MaxPreviewRate, math.Max(MinPreviewRate, fps))
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.conn.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read preference")
		}
		return "", false
	}
	return value, true
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Str("value", value).Msg("preference saved")
	return nil
}

func (s *Store) migrate() error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	for _, m := range entries {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		s.logger.Info().Str("name", name).Msg("applied migration")
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var applied int
	err := s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}
