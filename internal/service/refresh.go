package service

import "time"

// ShouldRefresh reports whether a dashboard's search-volume data is stale
// and a fresh provider fetch is warranted.
//
// Data is stale when:
//   - it has never been updated,
//   - the last update is more than one calendar month old, or
//   - today is on or past the 15th and the last update happened before the
//     15th of its month. The provider finalizes the previous month's
//     volumes mid-month, so an early-month update gets topped up once the
//     15th passes, even within the same month.
func ShouldRefresh(lastUpdated, now time.Time) bool {
	if lastUpdated.IsZero() {
		return true
	}

	oneMonthAgo := now.AddDate(0, -1, 0)
	if lastUpdated.Before(oneMonthAgo) {
		return true
	}

	return now.Day() >= 15 && lastUpdated.Day() < 15
}
