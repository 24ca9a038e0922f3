package core

// CategoryTotals aggregates one category bucket of a month.
type CategoryTotals struct {
	Category Category `json:"category"`
	Planned  float64  `json:"planned"`
	Paid     float64  `json:"paid"`
	Items    int      `json:"items"`
	Settled  int      `json:"settled"`
}

// MonthSummary is a compact dashboard view of one month.
type MonthSummary struct {
	Month      int              `json:"month"` // 0-11
	Planned    float64          `json:"planned"`
	Paid       float64          `json:"paid"`
	Balance    float64          `json:"balance"`
	ByCategory []CategoryTotals `json:"byCategory"`
}

// Summarize derives the month summary from a snapshot. Purely a read-side
// aggregation; nothing here is stored.
func Summarize(year FullYearData, month int) MonthSummary {
	s := MonthSummary{Month: month}
	mData := year.Month(month)
	for _, cat := range Categories() {
		ct := CategoryTotals{Category: cat}
		for _, it := range mData[cat] {
			ct.Planned += it.Amount
			ct.Paid += it.Paid
			ct.Items++
			if it.IsPaid() {
				ct.Settled++
			}
		}
		s.Planned += ct.Planned
		s.Paid += ct.Paid
		s.ByCategory = append(s.ByCategory, ct)
	}
	s.Balance = s.Planned - s.Paid
	return s
}
