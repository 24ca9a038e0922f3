package core

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh opaque item identifier.
func NewID() string {
	return uuid.NewString()
}

// AddItem appends a new item to its category bucket within the target month
// and returns the new snapshot together with the created item. Unset fields
// are filled with defaults: category falls back to the fixed bucket, paid
// starts at zero with an empty paid date, and the item always gets a fresh
// identifier.
func AddItem(year FullYearData, month int, partial BudgetItem) (FullYearData, BudgetItem) {
	item := partial
	item.ID = NewID()
	if !item.Category.Valid() {
		item.Category = CategoryFixed
	}
	if item.Item == "" {
		item.Item = "New Item"
	}
	item.Paid = 0
	item.DatePaid = ""

	out := year.Clone()
	mData := out.Month(month)
	mData[item.Category] = append(mData[item.Category], item)
	out[month] = mData
	return out, item
}

// UpdateItem replaces the item with a matching identifier inside its
// category bucket. No-op when the month or the item is absent; the item's
// own category decides the bucket searched, which preserves the invariant
// that an item is only ever stored under its own category.
func UpdateItem(year FullYearData, month int, updated BudgetItem) FullYearData {
	mData, ok := year[month]
	if !ok {
		return year
	}
	items := mData[updated.Category]
	idx := -1
	for i, it := range items {
		if it.ID == updated.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return year
	}

	out := year.Clone()
	out[month][updated.Category][idx] = updated
	return out
}

// DeleteItem removes the item with the matching identifier from the given
// category bucket of the month.
func DeleteItem(year FullYearData, month int, id string, category Category) FullYearData {
	mData, ok := year[month]
	if !ok {
		return year
	}
	out := year.Clone()
	items := mData[category]
	kept := make([]BudgetItem, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	out[month][category] = kept
	return out
}

// DuplicateItem appends a copy of src to its own month and category with a
// fresh identifier and payment state reset. Labels, amounts and due dates
// carry over.
func DuplicateItem(year FullYearData, month int, src BudgetItem) (FullYearData, BudgetItem) {
	dup := src
	dup.ID = NewID()
	dup.Paid = 0
	dup.DatePaid = ""

	out := year.Clone()
	mData := out.Month(month)
	mData[dup.Category] = append(mData[dup.Category], dup)
	out[month] = mData
	return out, dup
}

// ClearCategoryAmounts resets amount, paid and paid date for every item of
// the category. Identity and labels are untouched.
func ClearCategoryAmounts(year FullYearData, month int, category Category) FullYearData {
	if _, ok := year[month]; !ok {
		return year
	}
	out := year.Clone()
	items := out[month][category]
	for i := range items {
		items[i].Amount = 0
		items[i].Paid = 0
		items[i].DatePaid = ""
	}
	return out
}

// ClearMonthAmounts applies ClearCategoryAmounts to all four buckets of the
// month.
func ClearMonthAmounts(year FullYearData, month int) FullYearData {
	if _, ok := year[month]; !ok {
		return year
	}
	out := year.Clone()
	for _, items := range out[month] {
		for i := range items {
			items[i].Amount = 0
			items[i].Paid = 0
			items[i].DatePaid = ""
		}
	}
	return out
}

// CopyFromPreviousMonth replaces every category bucket of the target month
// with deep copies of the previous month's items, each with a fresh
// identifier and payment state reset. No-op on the first month.
func CopyFromPreviousMonth(year FullYearData, month int) FullYearData {
	if month <= 0 {
		return year
	}
	prev, ok := year[month-1]
	if !ok {
		return year
	}
	out := year.Clone()
	mData := out.Month(month)
	for _, cat := range Categories() {
		src := prev[cat]
		copied := make([]BudgetItem, len(src))
		for i, it := range src {
			it.ID = NewID()
			it.Paid = 0
			it.DatePaid = ""
			copied[i] = it
		}
		mData[cat] = copied
	}
	out[month] = mData
	return out
}

// WithAutoPaidDate applies the paid-in-full ratchet at amount-edit time: a
// fully paid item with a non-zero planned amount and an empty paid date gets
// today's local date. The rule only ever fills an empty date; it never
// clears one when payment later drops below the planned amount.
func WithAutoPaidDate(item BudgetItem, now time.Time) BudgetItem {
	if item.Paid >= item.Amount && item.Amount > 0 && item.DatePaid == "" {
		item.DatePaid = now.Format(DateLayout)
	}
	return item
}
