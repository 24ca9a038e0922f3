package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"budgetbabah/internal/amqp"
	"budgetbabah/internal/storage"
)

// BackupWorker writes a timestamped JSON snapshot of the local budget data
// every time a change notification arrives, and prunes old backups so the
// directory holds at most `keep` files.
type BackupWorker struct {
	store *storage.Store
	dir   string
	keep  int

	now func() time.Time
}

func NewBackupWorker(store *storage.Store, dir string, keep int) *BackupWorker {
	if keep < 1 {
		keep = 1
	}
	return &BackupWorker{
		store: store,
		dir:   dir,
		keep:  keep,
		now:   time.Now,
	}
}

// HandleChangeMessage processes a single budget change message from AMQP
func (w *BackupWorker) HandleChangeMessage(ctx context.Context, msg *amqp.BudgetChangedMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"op", msg.Op,
		"month", msg.Month)

	if err := w.WriteBackup(ctx); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// WriteBackup reads the current snapshot from the store and writes it to a
// new backup file. The snapshot is re-read here rather than taken from the
// message, so coalesced or out-of-order deliveries still back up the latest
// state.
func (w *BackupWorker) WriteBackup(ctx context.Context) error {
	year := w.store.LoadYearData(ctx)

	data, err := json.MarshalIndent(year, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("budget-%s.json", w.now().Format("20060102-150405.000"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}

	slog.InfoContext(ctx, "Backup written", "path", path, "bytes", len(data))

	if err := w.Prune(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to prune backups", "error", err)
		// The backup itself succeeded
	}
	return nil
}

// Prune deletes the oldest backup files beyond the retention count.
func (w *BackupWorker) Prune(ctx context.Context) error {
	names, err := w.backupFiles()
	if err != nil {
		return err
	}
	if len(names) <= w.keep {
		return nil
	}

	// Names embed the timestamp, so lexical order is chronological.
	sort.Strings(names)
	stale := names[:len(names)-w.keep]
	for _, name := range stale {
		path := filepath.Join(w.dir, name)
		if err := os.Remove(path); err != nil {
			slog.ErrorContext(ctx, "Failed to remove stale backup", "path", path, "error", err)
			continue
		}
		slog.InfoContext(ctx, "Pruned stale backup", "path", path)
	}
	return nil
}

// StartupCheck ensures at least one backup exists when the worker starts.
// This recovers from missed AMQP messages or worker downtime.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	names, err := w.backupFiles()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("list backups for startup check: %w", err)
	}

	if len(names) > 0 {
		slog.InfoContext(ctx, "Backups present on startup", "count", len(names))
		return nil
	}

	slog.InfoContext(ctx, "No backups found on startup, writing one")
	return w.WriteBackup(ctx)
}

func (w *BackupWorker) backupFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
