package volume

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthColumn(t *testing.T) {
	tests := []struct {
		month Month
		want  string
	}{
		{Month{2024, time.January}, "Jan-24"},
		{Month{2025, time.March}, "Mar-25"},
		{Month{2023, time.December}, "Dec-23"},
		{Month{2009, time.June}, "Jun-09"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.month.Column())
	}
}

func TestIsColumn(t *testing.T) {
	assert.True(t, IsColumn("Jan-24"))
	assert.True(t, IsColumn("Dec-99"))
	assert.False(t, IsColumn("Keyword"))
	assert.False(t, IsColumn("Industry"))
	assert.False(t, IsColumn("jan-24"))
	assert.False(t, IsColumn("Jan-2024"))
	assert.False(t, IsColumn("Search Vol"))
}

func TestMergeInto(t *testing.T) {
	row := map[string]string{
		"Keyword":  "seo",
		"Industry": "tech",
		"Jan-24":   "100",
	}

	s := Series{
		{2024, time.January}:  500,
		{2024, time.February}: 250,
	}
	s.MergeInto(row)

	assert.Equal(t, "500", row["Jan-24"], "fresh value overwrites")
	assert.Equal(t, "250", row["Feb-24"])
	assert.Equal(t, "seo", row["Keyword"], "non-monthly columns untouched")
	assert.Equal(t, "tech", row["Industry"])
}

func TestRetainColumns(t *testing.T) {
	row := map[string]string{
		"Keyword":  "seo",
		"Industry": "tech",
		"Jan-24":   "100",
	}

	clean := RetainColumns(row)
	assert.Equal(t, map[string]string{"Jan-24": "100"}, clean)

	// Original row is not mutated.
	assert.Len(t, row, 3)
}
