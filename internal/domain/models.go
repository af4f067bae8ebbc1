// Package domain defines the core entities of the keyword-research product.
//
// Clients own dashboards. Dashboards reference a shared, multi-tenant pool
// of keywords, tags, and tag categories, all deduplicated by name. References
// are document ids; the store resolves them.
package domain

import (
	"time"

	"github.com/mostaks/kwr-dashboard-server/internal/volume"
)

// Client is a tenant. Dashboards belong to exactly one client.
type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Suffix       string    `json:"suffix"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	WebsiteURL   string    `json:"websiteUrl,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Dashboard is one keyword dashboard. For upsert purposes it is identified
// by the pair (name, suffix). TagCategories and Keywords hold ordered
// references into the shared pool; they are associations, not ownership.
type Dashboard struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Suffix               string    `json:"suffix"`
	ClientID             string    `json:"clientId"`
	Description          string    `json:"description,omitempty"`
	LogoURL              string    `json:"logoUrl,omitempty"`
	Password             string    `json:"password,omitempty"`
	LocationName         string    `json:"locationName,omitempty"`
	VisibleTagCategories []string  `json:"visibleTagCategories"`
	TagCategories        []string  `json:"tagCategories"`
	Keywords             []string  `json:"keywords"`
	LastUpdated          time.Time `json:"lastUpdated"`
	CreatedAt            time.Time `json:"createdAt"`
}

// TagCategory is a tag axis ("Industry", "Intent"). Globally unique by name.
type TagCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is one value on a tag axis. The dedup key is the pair
// (TagCategory, Name): the same literal value in two categories is two tags.
type Tag struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TagCategory   string `json:"tagCategory"`
	TagCategoryID string `json:"tagCategoryRef"`
}

// DashboardView is one dashboard's private view of a shared keyword: the
// row snapshot it imported plus the monthly volume columns merged into it.
// Tags holds the tag refs this dashboard's import resolved for the keyword,
// so a re-import can retire refs the new rows no longer carry.
type DashboardView struct {
	DashboardID   string            `json:"dashboardId"`
	DashboardName string            `json:"dashboardName"`
	Tags          []string          `json:"tags,omitempty"`
	KeyRow        map[string]string `json:"keyRow"`
}

// Keyword is a shared pool entry, globally unique by name. Dashboards maps
// dashboard id to that dashboard's view, so an upsert replaces exactly one
// entry and other dashboards' history is never touched. Tags is the union
// of the views' tag refs, rebuilt on every write.
type Keyword struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	Tags         []string                 `json:"tags"`
	Dashboards   map[string]DashboardView `json:"dashboardRefs"`
	SearchVolume *SearchVolume            `json:"searchVolume,omitempty"`
	LastUpdated  time.Time                `json:"lastUpdated"`
}

// MonthlySearch is one month of provider-reported search volume.
type MonthlySearch struct {
	Year         int `json:"year"`
	Month        int `json:"month"`
	SearchVolume int `json:"search_volume"`
}

// SearchVolume is the per-keyword record the search-volume provider returns,
// persisted on the keyword so a non-stale dashboard update can reuse it
// without a provider call.
type SearchVolume struct {
	Keyword          string          `json:"keyword"`
	SearchVolume     *int            `json:"search_volume"`
	Competition      string          `json:"competition,omitempty"`
	CompetitionIndex *int            `json:"competition_index,omitempty"`
	CPC              *float64        `json:"cpc,omitempty"`
	MonthlySearches  []MonthlySearch `json:"monthly_searches"`
}

// Series converts the monthly breakdown to a typed sparse series.
// Months outside 1..12 are dropped.
func (sv *SearchVolume) Series() volume.Series {
	if sv == nil || len(sv.MonthlySearches) == 0 {
		return nil
	}
	s := make(volume.Series, len(sv.MonthlySearches))
	for _, m := range sv.MonthlySearches {
		if m.Month < 1 || m.Month > 12 {
			continue
		}
		s[volume.Month{Year: m.Year, Month: time.Month(m.Month)}] = m.SearchVolume
	}
	return s
}
