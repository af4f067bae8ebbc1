package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/errors"
	"github.com/mostaks/kwr-dashboard-server/internal/store"
)

// DashboardDetail is the fully denormalized read model: the dashboard's own
// fields plus its tag categories with their tags, and its keywords with this
// dashboard's row snapshots. Reference lists are resolved to documents;
// dangling references are silently dropped.
type DashboardDetail struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	Suffix               string            `json:"suffix"`
	ClientID             string            `json:"clientId"`
	Description          string            `json:"description,omitempty"`
	LogoURL              string            `json:"logoUrl,omitempty"`
	LocationName         string            `json:"locationName,omitempty"`
	HasPassword          bool              `json:"hasPassword"`
	VisibleTagCategories []string          `json:"visibleTagCategories"`
	TagCategories        []TagCategoryView `json:"tagCategories"`
	Keywords             []KeywordRow      `json:"keywords"`
	LastUpdated          time.Time         `json:"lastUpdated"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// TagCategoryView is one tag axis with the tags the dashboard's keywords
// actually use, sorted by name.
type TagCategoryView struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Tags []TagView `json:"tags"`
}

// TagView is a tag plus the dashboard keywords carrying it and their
// average headline search volume. The average is nil when none of those
// keywords have volume data.
type TagView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	TagCategory     string   `json:"tagCategory"`
	Keywords        []string `json:"keywords"`
	AvgSearchVolume *int     `json:"avgSearchVolume,omitempty"`
}

// KeywordRow is one keyword as this dashboard sees it.
type KeywordRow struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Tags         []string          `json:"tags"`
	KeyRow       map[string]string `json:"keyRow"`
	SearchVolume *int              `json:"searchVolume,omitempty"`
}

// assemble builds the denormalized view for one dashboard.
func (s *DashboardService) assemble(ctx context.Context, dash *domain.Dashboard) (*DashboardDetail, error) {
	keywords, err := s.loadKeywords(ctx, dash.Keywords)
	if err != nil {
		return nil, err
	}

	view := &DashboardDetail{
		ID:                   dash.ID,
		Name:                 dash.Name,
		Suffix:               dash.Suffix,
		ClientID:             dash.ClientID,
		Description:          dash.Description,
		LogoURL:              dash.LogoURL,
		LocationName:         dash.LocationName,
		HasPassword:          dash.Password != "",
		VisibleTagCategories: dash.VisibleTagCategories,
		TagCategories:        []TagCategoryView{},
		Keywords:             make([]KeywordRow, 0, len(keywords)),
		LastUpdated:          dash.LastUpdated,
		CreatedAt:            dash.CreatedAt,
	}

	// Per-tag aggregation over this dashboard's keywords.
	type volAgg struct{ sum, count int }
	tagVolumes := make(map[string]*volAgg)
	tagKeywords := make(map[string][]string)

	for _, kw := range keywords {
		row := KeywordRow{
			ID:     kw.ID,
			Name:   kw.Name,
			Tags:   kw.Tags,
			KeyRow: map[string]string{keywordColumn: kw.Name},
		}
		if dv, ok := kw.Dashboards[dash.ID]; ok && dv.KeyRow != nil {
			row.KeyRow = dv.KeyRow
		}
		if kw.SearchVolume != nil {
			row.SearchVolume = kw.SearchVolume.SearchVolume
		}
		view.Keywords = append(view.Keywords, row)

		for _, tagID := range kw.Tags {
			tagKeywords[tagID] = append(tagKeywords[tagID], kw.ID)
			if row.SearchVolume == nil {
				continue
			}
			agg := tagVolumes[tagID]
			if agg == nil {
				agg = &volAgg{}
				tagVolumes[tagID] = agg
			}
			agg.sum += *row.SearchVolume
			agg.count++
		}
	}

	// Resolve the used tags and bucket them by category document.
	tagsByCategory := make(map[string][]TagView)
	for tagID, kwIDs := range tagKeywords {
		tag, err := s.store.Tags.Get(ctx, tagID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "load tag")
		}

		tv := TagView{ID: tag.ID, Name: tag.Name, TagCategory: tag.TagCategory, Keywords: kwIDs}
		if agg := tagVolumes[tag.ID]; agg != nil && agg.count > 0 {
			avg := agg.sum / agg.count
			tv.AvgSearchVolume = &avg
		}
		tagsByCategory[tag.TagCategoryID] = append(tagsByCategory[tag.TagCategoryID], tv)
	}

	seen := make(map[string]bool, len(dash.TagCategories))
	for _, catID := range dash.TagCategories {
		if seen[catID] {
			continue
		}
		seen[catID] = true

		cat, err := s.store.TagCategories.Get(ctx, catID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "load tag category")
		}

		tags := tagsByCategory[cat.ID]
		slices.SortFunc(tags, func(a, b TagView) int {
			return strings.Compare(a.Name, b.Name)
		})
		if tags == nil {
			tags = []TagView{}
		}
		view.TagCategories = append(view.TagCategories, TagCategoryView{
			ID:   cat.ID,
			Name: cat.Name,
			Tags: tags,
		})
	}

	return view, nil
}
