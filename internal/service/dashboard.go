// Package service holds the business logic for the keyword-research product:
// dashboard reconciliation, the monthly search-volume refresh, keyword
// history cleanup, and client management.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/errors"
	"github.com/mostaks/kwr-dashboard-server/internal/store"
	"github.com/mostaks/kwr-dashboard-server/internal/util"
	"github.com/mostaks/kwr-dashboard-server/internal/volume"
)

const (
	// keywordColumn is the row column holding the keyword string itself.
	keywordColumn = "Keyword"
	// searchVolColumn carries the provider's headline volume figure.
	searchVolColumn = "Search Vol"

	// Store equality-set query caps.
	keywordLookupChunk = 20
	tagLookupChunk     = 30

	// Store write-batch ceiling for the chunked monthly-refresh path.
	maxBatchWrites = 400
)

// VolumeFetcher is the search-volume gateway the dashboard service consumes.
type VolumeFetcher interface {
	FetchVolumes(ctx context.Context, names []string, locationName string, shouldFetch bool) ([]domain.SearchVolume, error)
}

// DashboardService orchestrates dashboard upserts, reads, refreshes, and
// cleanup against the shared entity pool.
type DashboardService struct {
	store   *store.Store
	volumes VolumeFetcher
	logger  *slog.Logger

	// Injectable clock; tests pin it.
	now func() time.Time
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(st *store.Store, volumes VolumeFetcher, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		store:   st,
		volumes: volumes,
		logger:  logger,
		now:     time.Now,
	}
}

// DashboardInput is the create/update request body. Keywords is an ordered
// list of flat rows: the "Keyword" column is the keyword string, any column
// named after a declared tag category is a tag value, and everything else
// passes through into the keyword's row snapshot verbatim.
type DashboardInput struct {
	ClientID             string              `json:"clientId" validate:"required"`
	Name                 string              `json:"name" validate:"required"`
	Suffix               string              `json:"suffix" validate:"required"`
	Description          string              `json:"description"`
	LocationName         string              `json:"location_name"`
	LogoURL              string              `json:"logoUrl"`
	Password             string              `json:"password"`
	TagCategories        []string            `json:"tagCategories"`
	VisibleTagCategories []string            `json:"visibleTagCategories"`
	Keywords             []map[string]string `json:"keywords"`
}

// CreateOrUpdate upserts a dashboard identified by (name, suffix) along with
// its tag categories, tags, and keywords, merging fresh search-volume data
// when the stored data is stale. Every write is staged into one batch and
// committed atomically at the end; a failure anywhere leaves the pool
// untouched.
func (s *DashboardService) CreateOrUpdate(ctx context.Context, input DashboardInput) (*domain.Dashboard, error) {
	if input.ClientID == "" {
		return nil, errors.Validation("no client id was provided to create this dashboard")
	}
	if util.CleanName(input.Name) == "" || util.CleanName(input.Suffix) == "" {
		return nil, errors.Validation("dashboard name and suffix are required")
	}

	if _, err := s.store.Clients.Get(ctx, input.ClientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("client %s not found", input.ClientID)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "look up client")
	}

	batch := s.store.NewBatch()

	dash, prev, err := s.reconcileDashboard(ctx, input)
	if err != nil {
		return nil, err
	}

	categoryNames := cleanNames(input.TagCategories)
	categoryRefs, categoryByName, err := s.reconcileTagCategories(ctx, batch, categoryNames)
	if err != nil {
		return nil, err
	}
	dash.TagCategories = categoryRefs

	shouldFetch := prev == nil || ShouldRefresh(prev.LastUpdated, s.now())

	fresh, err := s.volumes.FetchVolumes(ctx, keywordNames(input.Keywords), dash.LocationName, shouldFetch)
	if err != nil {
		return nil, err
	}

	keywordRefs, err := s.reconcileKeywordsAndTags(ctx, batch, dash, categoryNames, categoryByName, fresh, shouldFetch, input.Keywords)
	if err != nil {
		return nil, err
	}
	dash.Keywords = keywordRefs

	if err := s.store.Dashboards.Stage(batch, dash, prev); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "stage dashboard")
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "commit dashboard update")
	}

	s.logger.Info("dashboard reconciled",
		"dashboard_id", dash.ID,
		"name", dash.Name,
		"existed", prev != nil,
		"fetched_fresh", shouldFetch && fresh != nil,
		"keywords", len(keywordRefs),
		"tag_categories", len(categoryRefs),
	)

	return dash, nil
}

// Get returns the full denormalized dashboard view by id, triggering the
// monthly keyword refresh first when the data is stale.
func (s *DashboardService) Get(ctx context.Context, dashboardID string) (*DashboardDetail, error) {
	dash, err := s.store.Dashboards.Get(ctx, dashboardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("dashboard not found")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "load dashboard")
	}

	refreshed, err := s.monthlyUpdate(ctx, dash)
	if err != nil {
		return nil, err
	}
	if refreshed {
		// Reload so the view reflects the committed refresh.
		if dash, err = s.store.Dashboards.Get(ctx, dashboardID); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "reload dashboard")
		}
	}

	return s.assemble(ctx, dash)
}

// GetBySuffix resolves a dashboard by its suffix alone and returns the
// denormalized view.
func (s *DashboardService) GetBySuffix(ctx context.Context, suffix string) (*DashboardDetail, error) {
	dash, err := s.findBySuffix(ctx, "", suffix)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, dash.ID)
}

// GetByClientAndSuffix resolves a dashboard by client suffix plus dashboard
// suffix and returns the denormalized view.
func (s *DashboardService) GetByClientAndSuffix(ctx context.Context, clientSuffix, dashboardSuffix string) (*DashboardDetail, error) {
	client, err := s.store.Clients.GetByIndex(ctx, "suffix", clientSuffix)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("client not found")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "look up client")
	}

	dash, err := s.findBySuffix(ctx, client.ID, dashboardSuffix)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, dash.ID)
}

// findBySuffix scans dashboards for the first suffix match, optionally
// scoped to a client.
func (s *DashboardService) findBySuffix(ctx context.Context, clientID, suffix string) (*domain.Dashboard, error) {
	for dash, err := range s.store.Dashboards.List(ctx) {
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "list dashboards")
		}
		if dash.Suffix != suffix {
			continue
		}
		if clientID != "" && dash.ClientID != clientID {
			continue
		}
		return dash, nil
	}
	return nil, errors.NotFound("dashboard not found")
}

// List returns all dashboards (undenormalized).
func (s *DashboardService) List(ctx context.Context) ([]*domain.Dashboard, error) {
	var dashboards []*domain.Dashboard
	for dash, err := range s.store.Dashboards.List(ctx) {
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "list dashboards")
		}
		dashboards = append(dashboards, dash)
	}
	return dashboards, nil
}

// ListForClient returns all dashboards owned by one client.
func (s *DashboardService) ListForClient(ctx context.Context, clientID string) ([]*domain.Dashboard, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var owned []*domain.Dashboard
	for _, dash := range all {
		if dash.ClientID == clientID {
			owned = append(owned, dash)
		}
	}
	return owned, nil
}

// DashboardPatch is a partial metadata update; nil fields are untouched.
type DashboardPatch struct {
	Name                 *string   `json:"name"`
	Suffix               *string   `json:"suffix"`
	Description          *string   `json:"description"`
	LogoURL              *string   `json:"logoUrl"`
	Password             *string   `json:"password"`
	VisibleTagCategories *[]string `json:"visibleTagCategories"`
}

// UpdateMetadata applies a partial metadata update to a dashboard. It never
// touches the keyword or tag-category associations.
func (s *DashboardService) UpdateMetadata(ctx context.Context, dashboardID string, patch DashboardPatch) (*domain.Dashboard, error) {
	prev, err := s.store.Dashboards.Get(ctx, dashboardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFound("dashboard not found")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "load dashboard")
	}

	dash := *prev
	if patch.Name != nil {
		dash.Name = util.CleanName(*patch.Name)
	}
	if patch.Suffix != nil {
		dash.Suffix = *patch.Suffix
	}
	if patch.Description != nil {
		dash.Description = *patch.Description
	}
	if patch.LogoURL != nil {
		dash.LogoURL = *patch.LogoURL
	}
	if patch.Password != nil {
		dash.Password = *patch.Password
	}
	if patch.VisibleTagCategories != nil {
		dash.VisibleTagCategories = *patch.VisibleTagCategories
	}

	batch := s.store.NewBatch()
	if err := s.store.Dashboards.Stage(batch, &dash, prev); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "stage dashboard")
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "commit dashboard update")
	}
	return &dash, nil
}

// Delete removes the dashboard document. Shared pool entities (keywords,
// tags, tag categories) survive for the other dashboards referencing them;
// only this dashboard's reference lists disappear with it.
func (s *DashboardService) Delete(ctx context.Context, dashboardID string) error {
	dash, err := s.store.Dashboards.Get(ctx, dashboardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.NotFoundf("dashboard %s not found", dashboardID)
		}
		return errors.Wrap(err, errors.CodeInternal, "load dashboard")
	}

	batch := s.store.NewBatch()
	s.store.Dashboards.StageDelete(batch, dash)
	if err := batch.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "commit dashboard delete")
	}

	s.logger.Info("dashboard deleted", "dashboard_id", dashboardID)
	return nil
}

// Cleanup prunes every keyword row snapshot of the dashboard down to the
// monthly volume columns, discarding import leftovers. One atomic batch.
func (s *DashboardService) Cleanup(ctx context.Context, dashboardID string) error {
	dash, err := s.store.Dashboards.Get(ctx, dashboardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.NotFoundf("dashboard %s not found", dashboardID)
		}
		return errors.Wrap(err, errors.CodeInternal, "load dashboard")
	}
	if len(dash.Keywords) == 0 {
		return nil
	}

	keywords, err := s.loadKeywords(ctx, dash.Keywords)
	if err != nil {
		return err
	}

	batch := s.store.NewBatch()
	pruned := 0
	for _, kw := range keywords {
		view, ok := kw.Dashboards[dash.ID]
		if !ok {
			continue
		}
		view.KeyRow = volume.RetainColumns(view.KeyRow)
		kw.Dashboards[dash.ID] = view
		if err := s.store.Keywords.Stage(batch, kw, nil); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "stage keyword")
		}
		pruned++
	}
	if err := batch.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "commit keyword cleanup")
	}

	s.logger.Info("keyword history cleaned", "dashboard_id", dashboardID, "keywords", pruned)
	return nil
}

// loadKeywords resolves keyword documents by id, skipping dangling refs.
func (s *DashboardService) loadKeywords(ctx context.Context, ids []string) ([]*domain.Keyword, error) {
	keywords := make([]*domain.Keyword, 0, len(ids))
	for _, kwID := range ids {
		kw, err := s.store.Keywords.Get(ctx, kwID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "load keyword")
		}
		keywords = append(keywords, kw)
	}
	return keywords, nil
}

// cleanNames trims each name, dropping blanks, order preserved.
func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if c := util.CleanName(name); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return cleaned
}

// keywordNames extracts the keyword strings from input rows, dropping rows
// without one. Order preserved.
func keywordNames(rows []map[string]string) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := util.CleanName(row[keywordColumn]); name != "" {
			names = append(names, name)
		}
	}
	return names
}
