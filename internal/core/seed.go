package core

// seedTemplate is the household template every month starts from when no
// stored year data exists. It mirrors the spreadsheet the tracker replaced.
func seedTemplate() []BudgetItem {
	return []BudgetItem{
		// Fixed commitments
		{Category: CategoryFixed, Item: "SEWA", Name: "RUMAH", Amount: 400, Method: "M2U", Notes: "BAYAR KE AKAUN MAYBANK"},
		{Category: CategoryFixed, Item: "YURAN", Name: "KAFA", Amount: 0, Method: "CASH", Notes: "BAYAR ADV FULL"},
		{Category: CategoryFixed, Item: "YURAN", Name: "KARATE", Amount: 70, Method: "M2U"},
		{Category: CategoryFixed, Item: "BIL", Name: "TNB", Amount: 217, Method: "CC"},
		{Category: CategoryFixed, Item: "BIL", Name: "U MOBILE ABI", Amount: 14.5, Method: "M2U"},
		{Category: CategoryFixed, Item: "BIL", Name: "CELCOM AMI", Amount: 400, Method: "AUTO CC", Notes: "AUTO CC 14HB"},
		{Category: CategoryFixed, Item: "BIL", Name: "DATA ONEXOX", Amount: 40, Method: "AUTO CC"},
		{Category: CategoryFixed, Item: "BIL", Name: "SYABAS", Amount: 60, Method: "M2U"},
		{Category: CategoryFixed, Item: "BIL", Name: "UNIFI", Amount: 105, Method: "M2U", Notes: "JAN/JUN/NOV"},

		// Savings
		{Category: CategorySaving, Item: "INFAQ", Name: "MKSA", Amount: 50, Method: "M2U"},
		{Category: CategorySaving, Item: "HIBAH ABI", Name: "HIBAH TAKAFUL", Amount: 56.6, Method: "AUTO CC", Notes: "AUTO DEBIT- 08HB"},
		{Category: CategorySaving, Item: "HIBAH AMI", Name: "HIBAH TAKAFUL", Amount: 42.4, Method: "AUTO CC", Notes: "AUTO DEBIT- 08HB"},
		{Category: CategorySaving, Item: "SSPN-i", Name: "ATHIYYAH", Amount: 50, Method: "M2U", Notes: "AUTO DEBIT- 10 HB"},

		// Loans
		{Category: CategoryLoan, Item: "AEON PL", Name: "3500", Amount: 97.2, Method: "M2U", Notes: "DUE-18HB"},
		{Category: CategoryLoan, Item: "AEON CC 1", Name: "2500", Amount: 90.2, Method: "AEON APP", Notes: "DUE-30HB"},
		{Category: CategoryLoan, Item: "AEON CC 2", Name: "3049", Amount: 700, Method: "AEON APP", Notes: "DUE-30HB"},
		{Category: CategoryLoan, Item: "SLOAN", Name: "1900", Amount: 134.06, Method: "M2U", Notes: "DUE 10HB"},
		{Category: CategoryLoan, Item: "SPLATER", Name: "607.36", Amount: 607.36, Method: "CC", Notes: "DUE 1HB"},
	}
}

// DefaultYear builds the pre-seeded twelve-month snapshot used when the
// local store has no year data. Every item gets its own identifier per
// month so edits in one month never alias another.
func DefaultYear() FullYearData {
	year := make(FullYearData, MonthCount)
	for month := 0; month < MonthCount; month++ {
		mData := EmptyMonth()
		for _, it := range seedTemplate() {
			it.ID = NewID()
			mData[it.Category] = append(mData[it.Category], it)
		}
		year[month] = mData
	}
	return year
}
