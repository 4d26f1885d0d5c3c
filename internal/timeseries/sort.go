package timeseries

import (
	"slices"

	"painel/internal/core"
)

// SortChronological orders buckets by year and then month, in place.
func SortChronological(buckets []MonthBucket) {
	slices.SortStableFunc(buckets, func(a, b MonthBucket) int {
		return a.Key.Index() - b.Key.Index()
	})
}

// SortByLabel orders buckets by the calendar month their labels denote,
// for series that arrive without keys. A label that does not parse sorts as
// order 0, ahead of every real month.
func SortByLabel(buckets []MonthBucket, labeler core.MonthLabeler) {
	order := make(map[string]int, len(buckets))
	for _, b := range buckets {
		if _, seen := order[b.Label]; seen {
			continue
		}
		k, err := labeler.Parse(b.Label)
		if err != nil {
			order[b.Label] = 0
			continue
		}
		order[b.Label] = k.Index()
	}
	slices.SortStableFunc(buckets, func(a, b MonthBucket) int {
		return order[a.Label] - order[b.Label]
	})
}
