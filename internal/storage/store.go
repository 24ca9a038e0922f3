package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgetbabah/internal/core"

	_ "modernc.org/sqlite"
)

// Record keys. Each blob is independent and has its own built-in default.
const (
	KeyYearData     = "year_data"
	KeySyncSettings = "sync_settings"
	KeyViewMode     = "view_mode"
	KeyTheme        = "theme"
)

// Preference defaults.
const (
	DefaultViewMode = "desktop"
	DefaultTheme    = "light"
)

// Store is the durable local mirror: a SQLite-backed key-value table of
// serialized blobs. Loads never fail outward; a missing or corrupt record
// falls back to the caller's built-in default.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the raw stored value for key, with ok=false when absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		slog.WarnContext(ctx, "Record load failed, treating as absent", "key", key, "error", err)
		return "", false
	}
	return value, true
}

// Put upserts the value for key. Best-effort: callers log and continue on
// failure, they never abort a mutation over it.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put record %s: %w", key, err)
	}
	return nil
}

// LoadYearData returns the stored snapshot, or the pre-seeded twelve-month
// template when nothing usable is stored.
func (s *Store) LoadYearData(ctx context.Context) core.FullYearData {
	raw, ok := s.Get(ctx, KeyYearData)
	if !ok {
		return core.DefaultYear()
	}
	var year core.FullYearData
	if err := json.Unmarshal([]byte(raw), &year); err != nil || len(year) == 0 {
		slog.WarnContext(ctx, "Stored year data unreadable, falling back to template",
			"key", KeyYearData, "error", err)
		return core.DefaultYear()
	}
	return year
}

func (s *Store) SaveYearData(ctx context.Context, year core.FullYearData) error {
	raw, err := json.Marshal(year)
	if err != nil {
		return fmt.Errorf("marshal year data: %w", err)
	}
	return s.Put(ctx, KeyYearData, string(raw))
}

// LoadSyncSettings returns stored sync settings merged over the defaults.
func (s *Store) LoadSyncSettings(ctx context.Context) core.SyncSettings {
	settings := core.DefaultSyncSettings()
	raw, ok := s.Get(ctx, KeySyncSettings)
	if !ok {
		return settings
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		slog.WarnContext(ctx, "Stored sync settings unreadable, falling back to defaults",
			"key", KeySyncSettings, "error", err)
		return core.DefaultSyncSettings()
	}
	return settings
}

func (s *Store) SaveSyncSettings(ctx context.Context, settings core.SyncSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal sync settings: %w", err)
	}
	return s.Put(ctx, KeySyncSettings, string(raw))
}

// LoadViewMode returns "desktop" unless a stored value exists.
func (s *Store) LoadViewMode(ctx context.Context) string {
	if v, ok := s.Get(ctx, KeyViewMode); ok && v != "" {
		return v
	}
	return DefaultViewMode
}

func (s *Store) SaveViewMode(ctx context.Context, mode string) error {
	return s.Put(ctx, KeyViewMode, mode)
}

// LoadTheme returns "light" unless a stored value exists.
func (s *Store) LoadTheme(ctx context.Context) string {
	if v, ok := s.Get(ctx, KeyTheme); ok && v != "" {
		return v
	}
	return DefaultTheme
}

func (s *Store) SaveTheme(ctx context.Context, theme string) error {
	return s.Put(ctx, KeyTheme, theme)
}
