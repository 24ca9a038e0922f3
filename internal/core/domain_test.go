package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Fatalf("category %q should be valid", c)
		}
	}
	if Category("RENT").Valid() {
		t.Fatal("unknown category should be invalid")
	}
}

func TestBudgetItemValidate(t *testing.T) {
	good := BudgetItem{Category: CategoryLoan, Item: "AEON PL", Amount: 97.2}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []BudgetItem{
		{Category: "nope", Item: "a", Amount: 1},
		{Category: CategoryFixed, Item: "  ", Amount: 1},
		{Category: CategoryFixed, Item: "a", Amount: -1},
		{Category: CategoryFixed, Item: "a", Amount: 1, Paid: -0.5},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestIsPaid(t *testing.T) {
	cases := []struct {
		amount, paid float64
		want         bool
	}{
		{100, 100, true},
		{100, 150, true}, // over-payment counts as paid
		{100, 99.99, false},
		{0, 0, false}, // zero planned amount is never "paid"
		{0, 50, false},
	}
	for i, tc := range cases {
		b := BudgetItem{Amount: tc.amount, Paid: tc.paid}
		if b.IsPaid() != tc.want {
			t.Fatalf("case %d: amount=%v paid=%v want %v", i, tc.amount, tc.paid, tc.want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	year := DefaultYear()
	clone := year.Clone()

	clone[0][CategoryFixed][0].Paid = 999
	if year[0][CategoryFixed][0].Paid == 999 {
		t.Fatal("mutation of clone leaked into original snapshot")
	}
}

func TestDefaultYearShape(t *testing.T) {
	year := DefaultYear()
	if len(year) != MonthCount {
		t.Fatalf("expected %d months, got %d", MonthCount, len(year))
	}
	seen := map[string]bool{}
	for month := 0; month < MonthCount; month++ {
		mData, ok := year[month]
		if !ok {
			t.Fatalf("month %d missing", month)
		}
		for _, cat := range Categories() {
			for _, it := range mData[cat] {
				if it.Category != cat {
					t.Fatalf("month %d: item %q stored under %q but carries category %q", month, it.ID, cat, it.Category)
				}
				if it.ID == "" || seen[it.ID] {
					t.Fatalf("month %d: duplicate or empty item id %q", month, it.ID)
				}
				seen[it.ID] = true
			}
		}
	}
}

func TestFullYearDataJSONRoundTrip(t *testing.T) {
	year := DefaultYear()
	raw, err := json.Marshal(year)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back FullYearData
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != len(year) {
		t.Fatalf("expected %d months after round trip, got %d", len(year), len(back))
	}
	if got, want := back[3][CategoryLoan], year[3][CategoryLoan]; len(got) != len(want) {
		t.Fatalf("loan bucket lost items: got %d want %d", len(got), len(want))
	}
}

func TestSyncSettingsTouch(t *testing.T) {
	s := DefaultSyncSettings()
	if s.LastSynced != nil {
		t.Fatal("default settings should have no last-synced timestamp")
	}
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	s.Touch(at)
	if s.LastSynced == nil || *s.LastSynced != "2026-03-14T09:26:53Z" {
		t.Fatalf("unexpected last-synced: %v", s.LastSynced)
	}
}
