package sync

import (
	"context"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"budgetbabah/internal/core"
	"budgetbabah/internal/remote"
	"budgetbabah/internal/storage"
)

type fakeReplica struct {
	mu       stdsync.Mutex
	pushes   []core.FullYearData
	pullYear core.FullYearData
	pushErr  error
	pullErr  error
	pingErr  error
	pings    int
}

func (f *fakeReplica) Push(_ context.Context, year core.FullYearData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, year.Clone())
	return nil
}

func (f *fakeReplica) Pull(_ context.Context) (core.FullYearData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if f.pullYear == nil {
		return core.FullYearData{}, nil
	}
	return f.pullYear.Clone(), nil
}

func (f *fakeReplica) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeReplica) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeReplica) lastPush() core.FullYearData {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushes) == 0 {
		return nil
	}
	return f.pushes[len(f.pushes)-1]
}

func testConfig() Config {
	return Config{
		Debounce:      40 * time.Millisecond,
		SavedDisplay:  30 * time.Millisecond,
		SyncedDisplay: 30 * time.Millisecond,
		ErrorDisplay:  30 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T, rep *fakeReplica) (*Engine, *storage.Store) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	factory := remote.Factory(func(string) remote.Replica { return rep })
	engine := NewEngine(factory, store, testConfig())
	t.Cleanup(engine.Stop)
	return engine, store
}

func TestPushWithoutEndpointIsSilentNoop(t *testing.T) {
	rep := &fakeReplica{}
	engine, store := newTestEngine(t, rep)
	ctx := context.Background()

	before := store.LoadSyncSettings(ctx)
	if err := engine.Push(ctx, core.DefaultYear()); err != nil {
		t.Fatalf("push without endpoint should not error, got %v", err)
	}
	if rep.pushCount() != 0 {
		t.Fatal("push without endpoint must perform zero network calls")
	}
	after := store.LoadSyncSettings(ctx)
	if after.LastSynced != nil || before.ScriptURL != after.ScriptURL {
		t.Fatalf("settings must stay unchanged: %+v", after)
	}
	if engine.Status().Current() != StatusIdle {
		t.Fatalf("status should stay idle, got %q", engine.Status().Current())
	}
}

func TestPushUpdatesLastSynced(t *testing.T) {
	rep := &fakeReplica{}
	engine, store := newTestEngine(t, rep)
	ctx := context.Background()

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	if err := engine.Push(ctx, core.DefaultYear()); err != nil {
		t.Fatalf("push: %v", err)
	}
	if rep.pushCount() != 1 {
		t.Fatalf("expected one push, got %d", rep.pushCount())
	}
	if store.LoadSyncSettings(ctx).LastSynced == nil {
		t.Fatal("successful push must persist a last-synced timestamp")
	}
	if got := engine.Status().Current(); got != StatusSynced {
		t.Fatalf("expected synced status, got %q", got)
	}
}

func TestPushErrorReportsAndReverts(t *testing.T) {
	rep := &fakeReplica{pushErr: context.DeadlineExceeded}
	engine, store := newTestEngine(t, rep)
	ctx := context.Background()

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	if err := engine.Push(ctx, core.DefaultYear()); err == nil {
		t.Fatal("expected push error")
	}
	if got := engine.Status().Current(); got != StatusError {
		t.Fatalf("expected error status, got %q", got)
	}
	if store.LoadSyncSettings(ctx).LastSynced != nil {
		t.Fatal("failed push must not update last-synced")
	}

	time.Sleep(60 * time.Millisecond)
	if got := engine.Status().Current(); got != StatusIdle {
		t.Fatalf("error status should auto-revert to idle, got %q", got)
	}
}

func TestPullAppliesNonEmptySnapshot(t *testing.T) {
	rep := &fakeReplica{pullYear: core.DefaultYear()}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	year, applied, err := engine.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !applied || len(year) != core.MonthCount {
		t.Fatalf("expected applied snapshot, got applied=%v months=%d", applied, len(year))
	}
}

func TestPullEmptyLeavesStateAlone(t *testing.T) {
	rep := &fakeReplica{} // pulls an empty object
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	year, applied, err := engine.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if applied || year != nil {
		t.Fatalf("empty pull must apply nothing, got applied=%v", applied)
	}
}

func TestPullErrorLeavesStateAlone(t *testing.T) {
	rep := &fakeReplica{pullErr: context.DeadlineExceeded}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	_, applied, err := engine.Pull(context.Background())
	if err == nil || applied {
		t.Fatalf("expected error without application, got applied=%v err=%v", applied, err)
	}
	if got := engine.Status().Current(); got != StatusError {
		t.Fatalf("expected error status, got %q", got)
	}
}

func TestDebounceCoalescesEditBurst(t *testing.T) {
	rep := &fakeReplica{}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	engine.InitialPull(context.Background())

	year := core.FullYearData{0: core.EmptyMonth()}
	var last core.FullYearData
	for i := 0; i < 5; i++ {
		year, _ = core.AddItem(year, 0, core.BudgetItem{Item: "BIL", Amount: float64(i)})
		last = year
		engine.Changed(year)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := rep.pushCount(); got != 1 {
		t.Fatalf("burst of 5 edits must coalesce into 1 push, got %d", got)
	}
	if got := rep.lastPush(); len(got[0][core.CategoryFixed]) != len(last[0][core.CategoryFixed]) {
		t.Fatal("push must carry the snapshot as of the last edit")
	}
}

func TestDebounceRearmWhileFiringKeepsNewTimer(t *testing.T) {
	rep := &fakeReplica{}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	engine.InitialPull(context.Background())

	engine.Changed(core.FullYearData{0: core.EmptyMonth()})

	// Hold the lock across the fire so the callback parks on it, then
	// install a replacement handle the way an edit arriving in that
	// window would.
	engine.mu.Lock()
	time.Sleep(2 * engine.config.Debounce)
	engine.timer.Stop()
	replacement := time.AfterFunc(time.Hour, func() {})
	engine.timer = replacement
	engine.mu.Unlock()

	time.Sleep(2 * engine.config.Debounce)
	if got := rep.pushCount(); got != 0 {
		t.Fatalf("superseded callback must not push, got %d pushes", got)
	}
	engine.mu.Lock()
	kept := engine.timer == replacement
	engine.mu.Unlock()
	replacement.Stop()
	if !kept {
		t.Fatal("callback cleared a timer handle it no longer owned")
	}
}

func TestAutoPushGatedOnInitialPull(t *testing.T) {
	rep := &fakeReplica{}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	engine.Changed(core.DefaultYear())

	time.Sleep(100 * time.Millisecond)
	if rep.pushCount() != 0 {
		t.Fatal("auto-push must not fire before the initial pull has run")
	}
}

func TestAutoPushGatedOnAutoSyncFlag(t *testing.T) {
	rep := &fakeReplica{}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: false})
	engine.InitialPull(context.Background())
	engine.Changed(core.DefaultYear())

	time.Sleep(100 * time.Millisecond)
	if rep.pushCount() != 0 {
		t.Fatal("auto-push must respect a disabled auto-sync flag")
	}
}

func TestDisablingAutoSyncCancelsPendingPush(t *testing.T) {
	rep := &fakeReplica{}
	engine, _ := newTestEngine(t, rep)

	settings := core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true}
	engine.Configure(settings)
	engine.InitialPull(context.Background())
	engine.Changed(core.DefaultYear())

	settings.AutoSync = false
	engine.Configure(settings)

	time.Sleep(100 * time.Millisecond)
	if rep.pushCount() != 0 {
		t.Fatal("reconfiguring with auto-sync off must cancel the pending push")
	}
}

func TestInitialPullOncePerSession(t *testing.T) {
	rep := &fakeReplica{pullYear: core.DefaultYear()}
	engine, _ := newTestEngine(t, rep)

	engine.Configure(core.SyncSettings{ScriptURL: "https://script.example/exec", AutoSync: true})
	if _, applied := engine.InitialPull(context.Background()); !applied {
		t.Fatal("first initial pull should apply the remote snapshot")
	}
	if _, applied := engine.InitialPull(context.Background()); applied {
		t.Fatal("initial pull must run at most once per session")
	}
	if !engine.InitialPullDone() {
		t.Fatal("gate should be open after the initial pull")
	}
}

func TestInitialPullSkippedWithoutEndpoint(t *testing.T) {
	rep := &fakeReplica{pullYear: core.DefaultYear()}
	engine, _ := newTestEngine(t, rep)

	if _, applied := engine.InitialPull(context.Background()); applied {
		t.Fatal("initial pull must not run without a configured endpoint")
	}
	if engine.InitialPullDone() {
		t.Fatal("gate must stay closed until an endpoint exists at startup or settings time")
	}
}

func TestTestConnection(t *testing.T) {
	rep := &fakeReplica{}
	engine, _ := newTestEngine(t, rep)

	if err := engine.TestConnection(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if rep.pings != 0 {
		t.Fatal("invalid url must not reach the transport")
	}

	if err := engine.TestConnection(context.Background(), "https://script.example/exec"); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if rep.pings != 1 {
		t.Fatalf("expected one ping, got %d", rep.pings)
	}

	rep.pingErr = context.DeadlineExceeded
	if err := engine.TestConnection(context.Background(), "https://script.example/exec"); err == nil {
		t.Fatal("expected ping failure to surface")
	}
}
