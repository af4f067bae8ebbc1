package dataforseo

import "github.com/mostaks/kwr-dashboard-server/internal/domain"

// Raw API payload types (internal).

// taskRequest is one task in the POST body array. The live search-volume
// endpoint accepts an array of tasks; we always send exactly one per call.
type taskRequest struct {
	Keywords             []string `json:"keywords"`
	LocationName         string   `json:"location_name"`
	LanguageName         string   `json:"language_name"`
	SearchPartners       bool     `json:"search_partners"`
	IncludeAdultKeywords bool     `json:"include_adult_keywords"`
	SortBy               string   `json:"sort_by"`
	DateFrom             string   `json:"date_from"`
}

type rawResponse struct {
	Version       string    `json:"version"`
	StatusCode    int       `json:"status_code"`
	StatusMessage string    `json:"status_message"`
	TasksCount    int       `json:"tasks_count"`
	TasksError    int       `json:"tasks_error"`
	Tasks         []rawTask `json:"tasks"`
}

type rawTask struct {
	ID            string                `json:"id"`
	StatusCode    int                   `json:"status_code"`
	StatusMessage string                `json:"status_message"`
	ResultCount   int                   `json:"result_count"`
	Result        []domain.SearchVolume `json:"result"`
}
