package service

import (
	"context"
	"maps"
	"slices"
	"strconv"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/errors"
	"github.com/mostaks/kwr-dashboard-server/internal/id"
	"github.com/mostaks/kwr-dashboard-server/internal/store"
	"github.com/mostaks/kwr-dashboard-server/internal/util"
)

// reconcileDashboard resolves the dashboard document for an upsert: an
// existing dashboard with the same (name, suffix) is updated in place,
// otherwise a new one is minted. Returns the working copy plus the
// previously persisted version (nil on create); the caller needs prev both
// for index maintenance and for the staleness decision, which looks at the
// LastUpdated of the stored document, not the one being written.
func (s *DashboardService) reconcileDashboard(ctx context.Context, input DashboardInput) (dash, prev *domain.Dashboard, err error) {
	key := store.DashboardKey(input.Name, input.Suffix)
	if key == "" {
		return nil, nil, errors.Validation("dashboard name and suffix are required")
	}

	prev, err = s.store.Dashboards.GetByIndex(ctx, "nameSuffix", key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, errors.Wrap(err, errors.CodeInternal, "look up dashboard")
	}

	now := s.now()
	if prev == nil {
		dash = &domain.Dashboard{
			ID:                   id.MustGenerate(id.PrefixDashboard),
			Name:                 util.CleanName(input.Name),
			Suffix:               input.Suffix,
			ClientID:             input.ClientID,
			Description:          input.Description,
			LogoURL:              input.LogoURL,
			Password:             input.Password,
			LocationName:         input.LocationName,
			VisibleTagCategories: input.VisibleTagCategories,
			LastUpdated:          now,
			CreatedAt:            now,
		}
		return dash, nil, nil
	}

	// Update path: refresh the mutable fields, keep identity and any
	// metadata the upsert payload does not carry.
	working := *prev
	dash = &working
	dash.ClientID = input.ClientID
	dash.Description = input.Description
	dash.VisibleTagCategories = input.VisibleTagCategories
	if input.LocationName != "" {
		dash.LocationName = input.LocationName
	}
	if input.LogoURL != "" {
		dash.LogoURL = input.LogoURL
	}
	if input.Password != "" {
		dash.Password = input.Password
	}
	dash.LastUpdated = now
	return dash, prev, nil
}

// reconcileTagCategories resolves each declared category name to a pool
// document, creating missing ones, and returns the ordered reference list
// (duplicates and order preserved, matching the declaration) plus a
// name-to-id map for tag creation.
func (s *DashboardService) reconcileTagCategories(ctx context.Context, batch *store.WriteBatch, names []string) ([]string, map[string]string, error) {
	refs := make([]string, 0, len(names))
	byName := make(map[string]string, len(names))

	for _, name := range names {
		if catID, ok := byName[name]; ok {
			refs = append(refs, catID)
			continue
		}

		cat, err := s.store.TagCategories.GetByIndex(ctx, "name", name)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			cat = &domain.TagCategory{ID: id.MustGenerate(id.PrefixTagCategory), Name: name}
			if err := s.store.TagCategories.Stage(batch, cat, nil); err != nil {
				return nil, nil, errors.Wrap(err, errors.CodeInternal, "stage tag category")
			}
		default:
			return nil, nil, errors.Wrap(err, errors.CodeInternal, "look up tag category")
		}

		byName[name] = cat.ID
		refs = append(refs, cat.ID)
	}

	return refs, byName, nil
}

// reconcileKeywordsAndTags walks the input rows and upserts the shared
// keyword and tag documents they imply, staging every write onto batch.
// Returns the dashboard's ordered keyword reference list.
//
// Per row: the keyword is resolved by name against the pool (bulk lookup,
// then an in-call registry so a name repeated within one import resolves to
// the document created for its first row); tag values under the declared
// category columns become tag documents deduplicated by (category, value);
// the row snapshot gets the monthly volume columns merged in; and the
// keyword's view for this dashboard is replaced wholesale, leaving views
// belonging to other dashboards untouched. The keyword's tag list is then
// rebuilt from its views, so a value change on re-import retires the old
// tag ref instead of accumulating next to the new one.
func (s *DashboardService) reconcileKeywordsAndTags(
	ctx context.Context,
	batch *store.WriteBatch,
	dash *domain.Dashboard,
	categoryNames []string,
	categoryByName map[string]string,
	fresh []domain.SearchVolume,
	shouldFetch bool,
	rows []map[string]string,
) ([]string, error) {
	volumesByName := make(map[string]*domain.SearchVolume, len(fresh))
	for i := range fresh {
		if name := util.CleanName(fresh[i].Keyword); name != "" {
			volumesByName[name] = &fresh[i]
		}
	}

	names := keywordNames(rows)
	keywordsByName, err := s.store.Keywords.GetByIndexValues(ctx, "name", names, keywordLookupChunk)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve keywords")
	}

	tagsByKey, err := s.resolveTags(ctx, categoryNames, rows)
	if err != nil {
		return nil, err
	}

	now := s.now()
	refs := make([]string, 0, len(rows))
	staged := make(map[string]bool, len(rows))

	for _, row := range rows {
		name := util.CleanName(row[keywordColumn])
		if name == "" {
			continue
		}

		kw := keywordsByName[name]
		if kw == nil {
			kw = &domain.Keyword{
				ID:   id.MustGenerate(id.PrefixKeyword),
				Name: name,
			}
			keywordsByName[name] = kw
		}
		if kw.Dashboards == nil {
			kw.Dashboards = make(map[string]domain.DashboardView, 1)
		}

		// Fresh provider data wins; otherwise whatever the pool already
		// holds for this keyword is reused as-is.
		sv := kw.SearchVolume
		if shouldFetch {
			if fetched, ok := volumesByName[name]; ok {
				sv = fetched
			}
		}
		kw.SearchVolume = sv

		tagIDs, err := s.rowTags(batch, categoryNames, categoryByName, tagsByKey, row)
		if err != nil {
			return nil, err
		}

		keyRow := maps.Clone(row)
		keyRow[keywordColumn] = name
		if series := sv.Series(); len(series) > 0 {
			series.MergeInto(keyRow)
			if sv.SearchVolume != nil {
				keyRow[searchVolColumn] = strconv.Itoa(*sv.SearchVolume)
			}
		}

		kw.Dashboards[dash.ID] = domain.DashboardView{
			DashboardID:   dash.ID,
			DashboardName: dash.Name,
			Tags:          tagIDs,
			KeyRow:        keyRow,
		}
		kw.Tags = viewTagUnion(kw.Dashboards)
		kw.LastUpdated = now

		if err := s.store.Keywords.Stage(batch, kw, nil); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "stage keyword")
		}
		if !staged[kw.ID] {
			staged[kw.ID] = true
			refs = append(refs, kw.ID)
		}
	}

	return refs, nil
}

// resolveTags bulk-loads the tag documents for every (category, value) pair
// appearing in the rows, returning a map keyed by store.TagKey. Tags created
// during the walk are registered into the same map by rowTags.
func (s *DashboardService) resolveTags(ctx context.Context, categoryNames []string, rows []map[string]string) (map[string]*domain.Tag, error) {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for _, cat := range categoryNames {
			value := util.CleanName(row[cat])
			if value == "" {
				continue
			}
			key := store.TagKey(cat, value)
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	tags, err := s.store.Tags.GetByIndexValues(ctx, "categoryName", keys, tagLookupChunk)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve tags")
	}
	return tags, nil
}

// rowTags returns the tag ids for one row, creating and staging tags the
// pool does not have yet. Order follows the declared category order, so
// keyword tag lists come out deterministic regardless of row column order.
func (s *DashboardService) rowTags(
	batch *store.WriteBatch,
	categoryNames []string,
	categoryByName map[string]string,
	tagsByKey map[string]*domain.Tag,
	row map[string]string,
) ([]string, error) {
	var tagIDs []string
	for _, cat := range categoryNames {
		value := util.CleanName(row[cat])
		if value == "" {
			continue
		}
		key := store.TagKey(cat, value)
		tag, ok := tagsByKey[key]
		if !ok {
			tag = &domain.Tag{
				ID:            id.MustGenerate(id.PrefixTag),
				Name:          value,
				TagCategory:   cat,
				TagCategoryID: categoryByName[cat],
			}
			if err := s.store.Tags.Stage(batch, tag, nil); err != nil {
				return nil, errors.Wrap(err, errors.CodeInternal, "stage tag")
			}
			tagsByKey[key] = tag
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	return tagIDs, nil
}

// viewTagUnion rebuilds a keyword's tag list from its per-dashboard views.
// Re-importing a dashboard therefore retires the tag refs its previous
// import resolved; refs contributed by other dashboards survive. Views are
// walked in dashboard-id order so the list comes out deterministic.
func viewTagUnion(views map[string]domain.DashboardView) []string {
	var tags []string
	for _, dashID := range slices.Sorted(maps.Keys(views)) {
		for _, tagID := range views[dashID].Tags {
			if !slices.Contains(tags, tagID) {
				tags = append(tags, tagID)
			}
		}
	}
	return tags
}
