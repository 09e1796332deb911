package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FilterByDate keeps rows purchased on a day within r.
func FilterByDate(rows []CategoryRevenue, r DateRange) []CategoryRevenue {
	out := make([]CategoryRevenue, 0, len(rows))
	for _, row := range rows {
		if r.Contains(row.PurchasedAt) {
			out = append(out, row)
		}
	}
	return out
}

// TopCategoriesBySum groups rows by category, sums price and returns the n
// largest totals in descending order. Equal totals are ordered by category name.
func TopCategoriesBySum(rows []CategoryRevenue, n int) []CategoryTotal {
	if n <= 0 {
		return nil
	}
	sums := make(map[string]decimal.Decimal)
	for _, row := range rows {
		sums[row.Category] = sums[row.Category].Add(row.Price)
	}
	totals := make([]CategoryTotal, 0, len(sums))
	for name, sum := range sums {
		totals = append(totals, CategoryTotal{Category: name, Revenue: sum})
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Revenue.Cmp(totals[j].Revenue); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// HeadTopCategories returns the first n rows of the pre-sorted table.
// It does not re-sort.
func HeadTopCategories(rows []TopCategory, n int) []CategoryTotal {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]CategoryTotal, n)
	for i, row := range rows[:n] {
		out[i] = CategoryTotal{Category: row.Category, Revenue: row.Price}
	}
	return out
}

// FilterStates keeps rows whose state is selected, preserving input order.
func FilterStates(rows []StateConcentration, selected []string) []StateConcentration {
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}
	out := make([]StateConcentration, 0, len(selected))
	for _, row := range rows {
		if _, ok := set[row.State]; ok {
			out = append(out, row)
		}
	}
	return out
}

// SortStatesDesc returns a copy sorted by customer count, largest first.
// Ties keep input order.
func SortStatesDesc(rows []StateConcentration) []StateConcentration {
	out := append([]StateConcentration(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UniqueCustomers > out[j].UniqueCustomers
	})
	return out
}

// SumCustomers adds up unique customers. It is 0 for no rows.
func SumCustomers(rows []StateConcentration) int64 {
	var total int64
	for _, row := range rows {
		total += row.UniqueCustomers
	}
	return total
}

// SumRevenue adds up the revenue of the given totals.
func SumRevenue(rows []CategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Revenue)
	}
	return total
}
