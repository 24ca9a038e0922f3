// Package sync replicates the year snapshot to a configured remote
// endpoint: debounced outbound pushes after edit bursts, on-demand inbound
// pulls, a connectivity test, and the status state machine the UI renders.
//
// Everything here is best-effort and non-retrying. A failed push is only
// retried by the next debounce cycle or a manual push; a failed pull leaves
// local state untouched. Overlapping operations (a manual push racing an
// in-flight debounced push) are not serialized; the last response processed
// wins, exactly like the client this replaces.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetbabah/internal/core"
	applog "budgetbabah/internal/log"
	"budgetbabah/internal/remote"
	"budgetbabah/internal/storage"
)

// Config holds engine tuning.
type Config struct {
	// Debounce is the quiet period after the last edit before an
	// automatic push fires (default: 5s).
	Debounce time.Duration

	// SavedDisplay, SyncedDisplay and ErrorDisplay are how long the
	// transient statuses stay visible before reverting to idle.
	SavedDisplay  time.Duration
	SyncedDisplay time.Duration
	ErrorDisplay  time.Duration
}

// DefaultConfig returns the timings the original client shipped with.
func DefaultConfig() Config {
	return Config{
		Debounce:      5 * time.Second,
		SavedDisplay:  2 * time.Second,
		SyncedDisplay: 2 * time.Second,
		ErrorDisplay:  3 * time.Second,
	}
}

// Engine owns outbound/inbound replication for one endpoint.
type Engine struct {
	factory remote.Factory
	store   *storage.Store
	status  *Reporter
	config  Config

	mu              sync.Mutex
	endpoint        string
	autoSync        bool
	timer           *time.Timer
	pending         core.FullYearData
	initialPullDone bool
}

func NewEngine(factory remote.Factory, store *storage.Store, config Config) *Engine {
	if config.Debounce <= 0 {
		config.Debounce = DefaultConfig().Debounce
	}
	return &Engine{
		factory: factory,
		store:   store,
		status:  NewReporter(config.SavedDisplay, config.SyncedDisplay, config.ErrorDisplay),
		config:  config,
	}
}

// Status returns the reporter backing the read-only status value.
func (e *Engine) Status() *Reporter {
	return e.status
}

// Configure adopts new sync settings. Turning auto-sync off or removing
// the endpoint cancels any pending debounced push.
func (e *Engine) Configure(settings core.SyncSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endpoint = settings.ScriptURL
	e.autoSync = settings.AutoSync
	if (!e.autoSync || !remote.ValidEndpoint(e.endpoint)) && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// configured returns the current endpoint if it is usable.
func (e *Engine) configured() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !remote.ValidEndpoint(e.endpoint) {
		return "", false
	}
	return e.endpoint, true
}

// Push replicates the snapshot outbound. With no usable endpoint it is a
// silent no-op, not an error: an unconfigured endpoint means sync is
// disabled. Success means the request was dispatched without a transport
// failure; the endpoint's reply is never interpreted.
func (e *Engine) Push(ctx context.Context, year core.FullYearData) error {
	endpoint, ok := e.configured()
	if !ok {
		return nil
	}

	e.status.Set(StatusSyncing)
	if err := e.factory(endpoint).Push(ctx, year); err != nil {
		e.status.Set(StatusError)
		slog.WarnContext(ctx, "Cloud push failed",
			applog.FieldOperation, applog.OpPush,
			applog.FieldEndpoint, endpoint,
			applog.FieldError, err)
		return fmt.Errorf("push snapshot: %w", err)
	}

	e.markSynced(ctx)
	e.status.Set(StatusSynced)
	slog.InfoContext(ctx, "Cloud push completed")
	return nil
}

// Pull replicates inbound. The returned snapshot, when applied is true,
// wholesale-replaces local state; there is no merge and no shape check
// beyond "the response decoded to a non-empty object". On any failure the
// caller's state stays untouched.
func (e *Engine) Pull(ctx context.Context) (core.FullYearData, bool, error) {
	endpoint, ok := e.configured()
	if !ok {
		return nil, false, nil
	}

	e.status.Set(StatusSyncing)
	year, err := e.factory(endpoint).Pull(ctx)
	if err != nil {
		e.status.Set(StatusError)
		slog.WarnContext(ctx, "Cloud pull failed",
			applog.FieldOperation, applog.OpPull,
			applog.FieldEndpoint, endpoint,
			applog.FieldError, err)
		return nil, false, fmt.Errorf("pull snapshot: %w", err)
	}
	if len(year) == 0 {
		e.status.Set(StatusIdle)
		slog.InfoContext(ctx, "Cloud pull returned nothing to apply")
		return nil, false, nil
	}

	e.markSynced(ctx)
	e.status.Set(StatusSynced)
	slog.InfoContext(ctx, "Cloud pull completed", "months", len(year))
	return year, true, nil
}

// TestConnection pings url without touching stored data or settings.
func (e *Engine) TestConnection(ctx context.Context, url string) error {
	if !remote.ValidEndpoint(url) {
		return fmt.Errorf("endpoint is not an absolute http(s) url")
	}
	return e.factory(url).Ping(ctx)
}

// InitialPull runs the once-per-session startup pull. It only fires when an
// endpoint is already configured, and regardless of outcome it opens the
// gate for debounced auto-pushes: auto-push must never overwrite remote
// state before the first pull had its chance to run.
func (e *Engine) InitialPull(ctx context.Context) (core.FullYearData, bool) {
	e.mu.Lock()
	if e.initialPullDone || !remote.ValidEndpoint(e.endpoint) {
		e.mu.Unlock()
		return nil, false
	}
	e.initialPullDone = true
	e.mu.Unlock()

	year, applied, err := e.Pull(ctx)
	if err != nil {
		return nil, false
	}
	return year, applied
}

// InitialPullDone reports whether the startup pull has run (or been ruled
// out) this session.
func (e *Engine) InitialPullDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialPullDone
}

// Changed notes a new snapshot and (re)arms the trailing-edge debounce
// timer: each change cancels the pending timer and starts a fresh one, so
// a burst of edits collapses into a single push carrying the snapshot as
// of the last edit. Gated on auto-sync, a usable endpoint, and the initial
// pull having run.
func (e *Engine) Changed(year core.FullYearData) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = year
	if !e.autoSync || !remote.ValidEndpoint(e.endpoint) || !e.initialPullDone {
		return
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	var armed *time.Timer
	armed = time.AfterFunc(e.config.Debounce, func() {
		e.mu.Lock()
		if e.timer != armed {
			// A newer timer was armed while this one was firing; that
			// timer owns the push now.
			e.mu.Unlock()
			return
		}
		snapshot := e.pending
		e.timer = nil
		e.mu.Unlock()
		if snapshot == nil {
			return
		}
		// Outside any request lifecycle by now.
		_ = e.Push(context.Background(), snapshot)
	})
	e.timer = armed
}

// Stop cancels a pending debounced push. In-flight requests are not
// cancellable; a late response is still processed.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// markSynced stamps and persists the last-synced timestamp.
func (e *Engine) markSynced(ctx context.Context) {
	if e.store == nil {
		return
	}
	settings := e.store.LoadSyncSettings(ctx)
	settings.Touch(time.Now())
	if err := e.store.SaveSyncSettings(ctx, settings); err != nil {
		slog.WarnContext(ctx, "Failed to persist last-synced timestamp", "error", err)
	}
}
