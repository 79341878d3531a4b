package core

import (
	"math"
	"sort"
	"time"
)

type (
	// CategoryTotal is an amount aggregated under one category. Name
	// and Icon come from the first record encountered for the
	// category, preserving the denormalized snapshot semantics.
	CategoryTotal struct {
		Category Category `json:"category"`
		Name     string   `json:"name"`
		Icon     string   `json:"icon"`
		Total    int64    `json:"total"`
	}

	// CategoryShare is a CategoryTotal plus its integer percentage of
	// the grand total of the aggregated set.
	CategoryShare struct {
		CategoryTotal
		Percent int `json:"percent"`
	}

	// DayTotal is the summed amount for one calendar date.
	DayTotal struct {
		Date    string `json:"date"` // YYYY-MM-DD
		Weekday string `json:"weekday"`
		Total   int64  `json:"total"`
	}

	// MonthSummary is the total and full category breakdown for one
	// ledger month.
	MonthSummary struct {
		Month      string          `json:"month"`
		Label      string          `json:"label"`
		Total      int64           `json:"total"`
		Count      int             `json:"count"`
		ByCategory []CategoryShare `json:"byCategory"`
	}
)

// CurrentMonthExpenses filters records belonging to the calendar month
// containing now.
func CurrentMonthExpenses(records []Expense, now time.Time) []Expense {
	month := MonthKey(now)
	var out []Expense
	for _, r := range records {
		if r.Month == month {
			out = append(out, r)
		}
	}
	return out
}

// TodayTotal sums amounts for records dated now's calendar date.
func TodayTotal(records []Expense, now time.Time) int64 {
	today := DateKey(now)
	var total int64
	for _, r := range records {
		if r.Date == today {
			total += r.Amount
		}
	}
	return total
}

// GrandTotal sums amounts across the given set.
func GrandTotal(records []Expense) int64 {
	var total int64
	for _, r := range records {
		total += r.Amount
	}
	return total
}

// CategoryTotals groups records by category, summing amounts. Output
// order is the encounter order of each category's first record, not
// sorted; callers needing a ranked view sort explicitly.
func CategoryTotals(records []Expense) []CategoryTotal {
	index := make(map[Category]int)
	var out []CategoryTotal
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryTotal{
				Category: r.Category,
				Name:     r.CategoryName,
				Icon:     r.CategoryIcon,
			})
		}
		out[i].Total += r.Amount
	}
	return out
}

// TopCategories ranks category totals descending (stable: encounter
// order breaks ties) and truncates to at most n entries, attaching
// each category's rounded percentage of the grand total. A grand total
// of zero yields zero percentages.
func TopCategories(records []Expense, n int) []CategoryShare {
	shares := rankedShares(CategoryTotals(records))
	if n < 0 {
		n = 0
	}
	if len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

func rankedShares(totals []CategoryTotal) []CategoryShare {
	var grand int64
	for _, ct := range totals {
		grand += ct.Total
	}
	shares := make([]CategoryShare, len(totals))
	for i, ct := range totals {
		shares[i] = CategoryShare{CategoryTotal: ct, Percent: percentOf(ct.Total, grand)}
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total > shares[j].Total
	})
	return shares
}

func percentOf(part, grand int64) int {
	if grand <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(grand) * 100))
}

// DailyTotalsForWeek returns exactly seven buckets for the
// Monday-Sunday week containing now, in Monday-first order. Buckets
// are seeded to zero before accumulation so dates with no records
// still appear.
func DailyTotalsForWeek(records []Expense, now time.Time) []DayTotal {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -daysSinceMonday)

	out := make([]DayTotal, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		key := DateKey(d)
		out[i] = DayTotal{Date: key, Weekday: d.Format("Mon")}
		index[key] = i
	}
	for _, r := range records {
		if i, ok := index[r.Date]; ok {
			out[i].Total += r.Amount
		}
	}
	return out
}

// PastMonths returns the distinct month keys present in records,
// excluding currentMonth, newest first. Lexicographic order on YYYY-MM
// is date-correct.
func PastMonths(records []Expense, currentMonth string) []string {
	seen := map[string]struct{}{}
	var months []string
	for _, r := range records {
		if r.Month == "" || r.Month == currentMonth {
			continue
		}
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		months = append(months, r.Month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// SummarizeMonth computes the total and full ranked category breakdown
// for all records whose month equals month. An empty month yields zero
// totals and an empty breakdown, never an error.
func SummarizeMonth(records []Expense, month string) MonthSummary {
	var subset []Expense
	for _, r := range records {
		if r.Month == month {
			subset = append(subset, r)
		}
	}
	return MonthSummary{
		Month:      month,
		Label:      MonthDisplayName(month),
		Total:      GrandTotal(subset),
		Count:      len(subset),
		ByCategory: rankedShares(CategoryTotals(subset)),
	}
}

// FilterByCategory returns the records matching category, preserving
// order. An empty category returns the input unchanged.
func FilterByCategory(records []Expense, category Category) []Expense {
	if category == "" {
		return records
	}
	var out []Expense
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// SortNewestFirst orders records by creation time, newest first, in
// place. Equal timestamps fall back to id comparison so the order is
// deterministic.
func SortNewestFirst(records []Expense) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
}
