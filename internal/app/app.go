// Package app owns the running application's state: the current year
// snapshot, the sync settings and the UI preferences, initialized from the
// local store at startup and persisted on every change. It is the explicit
// context object the composition root wires together; nothing here lives
// in package-level globals.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"budgetbabah/internal/core"
	applog "budgetbabah/internal/log"
	"budgetbabah/internal/storage"
	enginesync "budgetbabah/internal/sync"
)

var (
	ErrInvalidMonth = core.ErrInvalidMonth
	ErrItemNotFound = errors.New("item not found")
)

// ChangeFeed publishes lightweight change notifications for out-of-process
// consumers (the backup worker). Best-effort: publish failures never fail
// the mutation that triggered them.
type ChangeFeed interface {
	PublishBudgetChanged(ctx context.Context, op string, month int, category core.Category, itemID string) error
}

// App orchestrates mutations across the in-memory snapshot, the local
// store, the sync engine and the optional change feed.
type App struct {
	store  *storage.Store
	engine *enginesync.Engine
	feed   ChangeFeed

	mu       sync.Mutex
	year     core.FullYearData
	settings core.SyncSettings
	viewMode string
	theme    string

	now func() time.Time
}

// New loads persisted state and returns a ready App. The engine is
// configured with the stored settings; the caller decides when to run the
// startup pull.
func New(ctx context.Context, store *storage.Store, engine *enginesync.Engine, feed ChangeFeed) *App {
	a := &App{
		store:    store,
		engine:   engine,
		feed:     feed,
		year:     store.LoadYearData(ctx),
		settings: store.LoadSyncSettings(ctx),
		viewMode: store.LoadViewMode(ctx),
		theme:    store.LoadTheme(ctx),
		now:      time.Now,
	}
	engine.Configure(a.settings)
	return a
}

// StartupSync runs the once-per-session initial pull and applies its result.
func (a *App) StartupSync(ctx context.Context) {
	year, applied := a.engine.InitialPull(ctx)
	if !applied {
		return
	}
	a.mu.Lock()
	a.year = year
	a.mu.Unlock()
	a.persistAndNotify(ctx, applog.OpPull, -1, "", "")
}

// YearData returns a deep copy of the current snapshot.
func (a *App) YearData() core.FullYearData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.year.Clone()
}

// MonthData returns a deep copy of one month.
func (a *App) MonthData(month int) (core.MonthData, error) {
	if !core.ValidMonth(month) {
		return nil, ErrInvalidMonth
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.year.Month(month).Clone(), nil
}

// MonthSummary derives the dashboard totals for one month.
func (a *App) MonthSummary(month int) (core.MonthSummary, error) {
	if !core.ValidMonth(month) {
		return core.MonthSummary{}, ErrInvalidMonth
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return core.Summarize(a.year, month), nil
}

// AddItem creates a new item in the month and returns it.
func (a *App) AddItem(ctx context.Context, month int, partial core.BudgetItem) (core.BudgetItem, error) {
	if !core.ValidMonth(month) {
		return core.BudgetItem{}, ErrInvalidMonth
	}

	a.mu.Lock()
	next, item := core.AddItem(a.year, month, partial)
	a.year = next
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpAdd, month, item.Category, item.ID)
	return item, nil
}

// UpdateItem replaces the stored item with the same identifier. The
// paid-in-full ratchet runs here when the amounts were touched: a fully
// paid item with an empty paid date gets today's date, and nothing ever
// clears a date the user or the ratchet already set.
func (a *App) UpdateItem(ctx context.Context, month int, updated core.BudgetItem) (core.BudgetItem, error) {
	if !core.ValidMonth(month) {
		return core.BudgetItem{}, ErrInvalidMonth
	}
	if err := updated.Validate(); err != nil {
		return core.BudgetItem{}, err
	}

	a.mu.Lock()
	prev, ok := findItem(a.year, month, updated.Category, updated.ID)
	if !ok {
		a.mu.Unlock()
		return core.BudgetItem{}, ErrItemNotFound
	}
	if updated.Paid != prev.Paid || updated.Amount != prev.Amount {
		updated = core.WithAutoPaidDate(updated, a.now())
	}
	a.year = core.UpdateItem(a.year, month, updated)
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpUpdate, month, updated.Category, updated.ID)
	return updated, nil
}

// DeleteItem removes the item from its category bucket.
func (a *App) DeleteItem(ctx context.Context, month int, id string, category core.Category) error {
	if !core.ValidMonth(month) {
		return ErrInvalidMonth
	}
	if !category.Valid() {
		return core.ErrInvalidCategory
	}

	a.mu.Lock()
	if _, ok := findItem(a.year, month, category, id); !ok {
		a.mu.Unlock()
		return ErrItemNotFound
	}
	a.year = core.DeleteItem(a.year, month, id, category)
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpDelete, month, category, id)
	return nil
}

// DuplicateItem copies an existing item with fresh identity and reset
// payment state.
func (a *App) DuplicateItem(ctx context.Context, month int, id string, category core.Category) (core.BudgetItem, error) {
	if !core.ValidMonth(month) {
		return core.BudgetItem{}, ErrInvalidMonth
	}

	a.mu.Lock()
	src, ok := findItem(a.year, month, category, id)
	if !ok {
		a.mu.Unlock()
		return core.BudgetItem{}, ErrItemNotFound
	}
	next, dup := core.DuplicateItem(a.year, month, src)
	a.year = next
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpDuplicate, month, dup.Category, dup.ID)
	return dup, nil
}

// ClearCategoryAmounts zeroes amounts and paid dates across one bucket.
func (a *App) ClearCategoryAmounts(ctx context.Context, month int, category core.Category) error {
	if !core.ValidMonth(month) {
		return ErrInvalidMonth
	}
	if !category.Valid() {
		return core.ErrInvalidCategory
	}

	a.mu.Lock()
	a.year = core.ClearCategoryAmounts(a.year, month, category)
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpClearCategory, month, category, "")
	return nil
}

// ClearMonthAmounts zeroes amounts and paid dates across all four buckets.
func (a *App) ClearMonthAmounts(ctx context.Context, month int) error {
	if !core.ValidMonth(month) {
		return ErrInvalidMonth
	}

	a.mu.Lock()
	a.year = core.ClearMonthAmounts(a.year, month)
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpClearMonth, month, "", "")
	return nil
}

// CopyFromPreviousMonth replaces the month's buckets with fresh copies of
// the previous month. No-op on the first month.
func (a *App) CopyFromPreviousMonth(ctx context.Context, month int) error {
	if !core.ValidMonth(month) {
		return ErrInvalidMonth
	}
	if month == 0 {
		return nil
	}

	a.mu.Lock()
	a.year = core.CopyFromPreviousMonth(a.year, month)
	a.mu.Unlock()

	a.persistAndNotify(ctx, applog.OpCopyPrevious, month, "", "")
	return nil
}

// ManualPush pushes the current snapshot now, outside the debounce.
func (a *App) ManualPush(ctx context.Context) error {
	return a.engine.Push(ctx, a.YearData())
}

// ManualPull fetches the remote snapshot now and applies it when non-empty.
func (a *App) ManualPull(ctx context.Context) error {
	year, applied, err := a.engine.Pull(ctx)
	if err != nil || !applied {
		return err
	}
	a.mu.Lock()
	a.year = year
	a.mu.Unlock()
	a.persistAndNotify(ctx, applog.OpPull, -1, "", "")
	return nil
}

// TestConnection pings url without touching data or settings.
func (a *App) TestConnection(ctx context.Context, url string) error {
	return a.engine.TestConnection(ctx, url)
}

// Settings returns the current sync settings. The engine stamps LastSynced
// in the store after each successful push or pull, so the stamp is re-read
// from there instead of served from the in-memory copy.
func (a *App) Settings(ctx context.Context) core.SyncSettings {
	stored := a.store.LoadSyncSettings(ctx)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings.LastSynced = stored.LastSynced
	return a.settings
}

// SaveSyncSettings persists new settings and reconfigures the engine. When
// an endpoint appears for the first time this session, the startup pull
// runs before auto-push can arm.
func (a *App) SaveSyncSettings(ctx context.Context, settings core.SyncSettings) error {
	// The store owns the LastSynced stamp; carrying the in-memory copy
	// here would overwrite a fresher stamp written by the engine.
	settings.LastSynced = a.store.LoadSyncSettings(ctx).LastSynced
	a.mu.Lock()
	a.settings = settings
	a.mu.Unlock()

	if err := a.store.SaveSyncSettings(ctx, settings); err != nil {
		slog.WarnContext(ctx, "Failed to persist sync settings", "error", err)
	}
	a.engine.Configure(settings)
	a.StartupSync(ctx)
	return nil
}

// Status exposes the read-only sync/save status for display.
func (a *App) Status() enginesync.Status {
	return a.engine.Status().Current()
}

// ViewMode returns the persisted view preference.
func (a *App) ViewMode() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewMode
}

// SetViewMode persists the view preference. Unknown values are rejected.
func (a *App) SetViewMode(ctx context.Context, mode string) error {
	if mode != "desktop" && mode != "mobile" {
		return errors.New("view mode must be desktop or mobile")
	}
	a.mu.Lock()
	a.viewMode = mode
	a.mu.Unlock()
	return a.store.SaveViewMode(ctx, mode)
}

// Theme returns the persisted theme preference.
func (a *App) Theme() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// SetTheme persists the theme preference. Unknown values are rejected.
func (a *App) SetTheme(ctx context.Context, theme string) error {
	if theme != "dark" && theme != "light" {
		return errors.New("theme must be dark or light")
	}
	a.mu.Lock()
	a.theme = theme
	a.mu.Unlock()
	return a.store.SaveTheme(ctx, theme)
}

// persistAndNotify is the persistence effect behind every snapshot change:
// synchronous store write first, in mutation order, then the debounce arm,
// then the best-effort change feed.
func (a *App) persistAndNotify(ctx context.Context, op string, month int, category core.Category, itemID string) {
	a.mu.Lock()
	snapshot := a.year
	a.mu.Unlock()

	status := a.engine.Status()
	status.Set(enginesync.StatusSaving)
	if err := a.store.SaveYearData(ctx, snapshot); err != nil {
		slog.ErrorContext(ctx, "Failed to persist year data",
			applog.FieldOperation, op, applog.FieldError, err)
	}
	status.Set(enginesync.StatusSaved)

	a.engine.Changed(snapshot)

	if a.feed != nil {
		if err := a.feed.PublishBudgetChanged(ctx, op, month, category, itemID); err != nil {
			fields := applog.NewFields().
				WithOperation(op).
				WithItem(month, string(category), itemID).
				WithError(err)
			slog.WarnContext(ctx, "Failed to publish change notification", fields.ToSlice()...)
		}
	}
}

func findItem(year core.FullYearData, month int, category core.Category, id string) (core.BudgetItem, bool) {
	mData, ok := year[month]
	if !ok {
		return core.BudgetItem{}, false
	}
	for _, it := range mData[category] {
		if it.ID == id {
			return it, true
		}
	}
	return core.BudgetItem{}, false
}
