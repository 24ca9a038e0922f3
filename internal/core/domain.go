package core

import (
	"errors"
	"strings"
	"time"
)

// Category values double as the serialization format: they must round-trip
// with year data produced by the original spreadsheet client, so the two
// Malay labels are kept verbatim.
const (
	CategoryFixed  Category = "PERBELANJAAN TETAP"
	CategorySaving Category = "SAVING"
	CategoryLoan   Category = "LOAN"
	CategoryMisc   Category = "LAIN-LAIN"
)

// MonthCount is the number of months held in a FullYearData snapshot.
const MonthCount = 12

// DateLayout is the calendar-date format used for due dates and paid dates.
const DateLayout = "2006-01-02"

type (
	Category string

	// BudgetItem is one ledger line. Amount and Paid are independently
	// editable; over-payment (Paid > Amount) is representable.
	BudgetItem struct {
		ID       string   `json:"id"`
		Category Category `json:"category"`
		Item     string   `json:"item"`
		Name     string   `json:"name"`
		Amount   float64  `json:"amount"`
		Paid     float64  `json:"paid"`
		DueDate  string   `json:"dueDate"`
		DatePaid string   `json:"datePaid"`
		Method   string   `json:"method"`
		Notes    string   `json:"notes"`
	}

	// MonthData maps each category to its ordered item list. Order is
	// insertion order and only matters for display.
	MonthData map[Category][]BudgetItem

	// FullYearData maps month index (0-11) to MonthData. It is the entire
	// persisted financial state; the local store and the remote endpoint
	// are serialized mirrors of it, never independent owners.
	FullYearData map[int]MonthData

	// SyncSettings is the user-configured remote sync state.
	SyncSettings struct {
		ScriptURL  string  `json:"scriptUrl"`
		LastSynced *string `json:"lastSynced"`
		AutoSync   bool    `json:"autoSync"`
	}
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidMonth    = errors.New("invalid month index")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyItemLabel  = errors.New("empty item label")
)

// Categories lists the four fixed buckets in display order.
func Categories() []Category {
	return []Category{CategoryFixed, CategorySaving, CategoryLoan, CategoryMisc}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFixed, CategorySaving, CategoryLoan, CategoryMisc:
		return true
	}
	return false
}

// ValidMonth reports whether m is a month index a snapshot can hold.
func ValidMonth(m int) bool {
	return m >= 0 && m < MonthCount
}

func (b BudgetItem) Validate() error {
	if !b.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(strings.TrimSpace(b.Item)) == 0 {
		return ErrEmptyItemLabel
	}
	if b.Amount < 0 || b.Paid < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsPaid is the derived display predicate: fully paid against a non-zero
// planned amount. It is never stored.
func (b BudgetItem) IsPaid() bool {
	return b.Amount > 0 && b.Paid >= b.Amount
}

// DefaultSyncSettings returns the settings used when nothing is stored:
// no endpoint, never synced, auto-sync enabled.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{ScriptURL: "", LastSynced: nil, AutoSync: true}
}

// Touch stamps LastSynced with t in RFC 3339.
func (s *SyncSettings) Touch(t time.Time) {
	ts := t.UTC().Format(time.RFC3339)
	s.LastSynced = &ts
}

// EmptyMonth returns a MonthData with all four category buckets present
// and empty.
func EmptyMonth() MonthData {
	m := make(MonthData, len(Categories()))
	for _, c := range Categories() {
		m[c] = []BudgetItem{}
	}
	return m
}

// Clone returns a deep copy of the month.
func (m MonthData) Clone() MonthData {
	out := make(MonthData, len(m))
	for cat, items := range m {
		out[cat] = append([]BudgetItem(nil), items...)
	}
	return out
}

// Clone returns a deep copy of the snapshot. Mutation operations use it so
// prior snapshots stay valid for readers that still hold them.
func (y FullYearData) Clone() FullYearData {
	out := make(FullYearData, len(y))
	for month, data := range y {
		out[month] = data.Clone()
	}
	return out
}

// Month returns the MonthData for the given index, or an empty month when
// the snapshot has no entry for it.
func (y FullYearData) Month(month int) MonthData {
	if data, ok := y[month]; ok {
		return data
	}
	return EmptyMonth()
}
