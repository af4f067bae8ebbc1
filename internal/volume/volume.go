// Package volume models monthly search-volume series for keywords.
//
// Internally a series is a typed sparse map from calendar month to volume.
// The "Mon-YY" column form (e.g. "Jan-24") that dashboards render is
// generated only at the row boundary, when a series is merged into a
// keyword's per-dashboard row.
package volume

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Month identifies one calendar month of one year.
type Month struct {
	Year  int
	Month time.Month
}

// Series is a sparse monthly search-volume series.
type Series map[Month]int

// columnPattern matches the dashboard column form: three-letter month,
// dash, two-digit year ("Jan-24").
var columnPattern = regexp.MustCompile(`^[A-Z][a-z]{2}-\d{2}$`)

// Column renders the month in dashboard column form.
func (m Month) Column() string {
	return fmt.Sprintf("%s-%02d", m.Month.String()[:3], m.Year%100)
}

// IsColumn reports whether key is a monthly volume column name.
func IsColumn(key string) bool {
	return columnPattern.MatchString(key)
}

// Columns renders the series as row columns with stringified volumes.
func (s Series) Columns() map[string]string {
	cols := make(map[string]string, len(s))
	for m, v := range s {
		cols[m.Column()] = strconv.Itoa(v)
	}
	return cols
}

// MergeInto adds or overwrites the series' monthly columns on row.
// Existing non-monthly columns are untouched.
func (s Series) MergeInto(row map[string]string) {
	for m, v := range s {
		row[m.Column()] = strconv.Itoa(v)
	}
}

// RetainColumns returns a copy of row holding only monthly volume columns.
func RetainColumns(row map[string]string) map[string]string {
	clean := make(map[string]string)
	for k, v := range row {
		if IsColumn(k) {
			clean[k] = v
		}
	}
	return clean
}
