package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"budgetbabah/internal/app"
	"budgetbabah/internal/core"
	"budgetbabah/internal/log"
	"budgetbabah/internal/remote"
	"budgetbabah/internal/remote/memory"
	"budgetbabah/internal/storage"
	enginesync "budgetbabah/internal/sync"
)

func newTestServer(t *testing.T) (*Server, *memory.Replica) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	rep := memory.New()
	factory := remote.Factory(func(string) remote.Replica { return rep })
	engine := enginesync.NewEngine(factory, store, enginesync.Config{
		Debounce:      30 * time.Millisecond,
		SavedDisplay:  20 * time.Millisecond,
		SyncedDisplay: 20 * time.Millisecond,
		ErrorDisplay:  20 * time.Millisecond,
	})
	t.Cleanup(engine.Stop)

	application := app.New(context.Background(), store, engine, nil)
	s := NewServer(":0", application, log.New(log.DefaultConfig()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, rep
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestGetYearReturnsAllMonths(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/year", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var year core.FullYearData
	if err := json.Unmarshal(rec.Body.Bytes(), &year); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(year) != core.MonthCount {
		t.Fatalf("expected %d months, got %d", core.MonthCount, len(year))
	}
}

func TestItemLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/items", itemRequest{
		Month: 4,
		Item:  core.BudgetItem{Category: core.CategoryMisc, Item: "HADIAH", Amount: 150},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created core.BudgetItem
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created item has no ID")
	}

	created.Amount = 200
	rec = doJSON(t, s, http.MethodPut, "/api/items", itemRequest{Month: 4, Item: created})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/month?month=4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("month status = %d", rec.Code)
	}
	var monthData core.MonthData
	if err := json.Unmarshal(rec.Body.Bytes(), &monthData); err != nil {
		t.Fatalf("decode month: %v", err)
	}
	if len(monthData[core.CategoryMisc]) != 1 || monthData[core.CategoryMisc][0].Amount != 200 {
		t.Fatalf("unexpected month data: %+v", monthData[core.CategoryMisc])
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/items", itemRefRequest{
		Month: 4, ID: created.ID, Category: core.CategoryMisc,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateUnknownItemReturns404(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/items", itemRequest{
		Month: 0,
		Item:  core.BudgetItem{ID: "ghost", Category: core.CategoryFixed, Item: "BIL", Amount: 10},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", rec.Code, rec.Body.String())
	}
}

func TestInvalidMonthReturns400(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/month?month=12", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/month", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing month status = %d, want 400", rec.Code)
	}
}

func TestDuplicateEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/items", itemRequest{
		Month: 2,
		Item:  core.BudgetItem{Category: core.CategorySaving, Item: "ASB", Amount: 300, Paid: 300},
	})
	var created core.BudgetItem
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/items/duplicate", itemRefRequest{
		Month: 2, ID: created.ID, Category: core.CategorySaving,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("duplicate status = %d, body %s", rec.Code, rec.Body.String())
	}
	var dup core.BudgetItem
	if err := json.Unmarshal(rec.Body.Bytes(), &dup); err != nil {
		t.Fatalf("decode duplicate: %v", err)
	}
	if dup.ID == created.ID || dup.Paid != 0 {
		t.Fatalf("duplicate must reset identity and payment: %+v", dup)
	}
}

func TestCopyPreviousFirstMonthIsNoop(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/month/copy-previous", monthRequest{Month: 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestMonthSummary(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/month/summary?month=0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var summary core.MonthSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
}

func TestSyncSettingsRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/sync/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/sync/settings", core.SyncSettings{
		ScriptURL: "https://script.example/exec",
		AutoSync:  true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body.String())
	}
	var saved core.SyncSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if saved.ScriptURL != "https://script.example/exec" || !saved.AutoSync {
		t.Fatalf("unexpected saved settings: %+v", saved)
	}
}

func TestSyncTestConnection(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/sync/test", testConnectionRequest{URL: "not-a-url"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ok, _ := result["ok"].(bool); ok {
		t.Fatal("invalid endpoint must report ok=false")
	}
}

func TestSyncStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/sync/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != string(enginesync.StatusIdle) {
		t.Fatalf("status = %q, want idle", body["status"])
	}
}

func TestPreferences(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/preferences", preferences{ViewMode: "tablet"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid view mode status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/preferences", preferences{ViewMode: "mobile", Theme: "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body.String())
	}
	var prefs preferences
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prefs.ViewMode != "mobile" || prefs.Theme != "dark" {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodDelete, "/api/year", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("Allow = %q, want GET", rec.Header().Get("Allow"))
	}
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/year?q=../../etc/passwd", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/year", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options header")
	}
}
