package shopping

import (
	"cmp"
	"slices"
	"strings"
)

// Aggregate sums amounts per (name, unit) and orders the result by name, then
// unit, so the same cart always produces the same list.
func Aggregate(lines []Line) []Item {
	totals := make(map[Key]int64, len(lines))
	for _, line := range lines {
		totals[Key{Name: line.Name, Unit: line.Unit}] += line.Amount
	}

	items := make([]Item, 0, len(totals))
	for key, amount := range totals {
		items = append(items, Item{Name: key.Name, Unit: key.Unit, Amount: amount})
	}

	slices.SortFunc(items, func(a, b Item) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.Unit, b.Unit))
	})
	return items
}
