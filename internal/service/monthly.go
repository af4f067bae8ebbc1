package service

import (
	"context"
	"strconv"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
)

// monthlyUpdate refreshes the dashboard's keywords from the search-volume
// provider when the dashboard is stale. It runs on the read path, so it is
// deliberately forgiving: provider trouble or partial write failures degrade
// to serving the data already on hand rather than failing the read.
//
// Writes go out in sequential batches capped at maxBatchWrites staged
// operations. Each batch carries the dashboard's LastUpdated stamp alongside
// its keywords, so even a run that dies midway leaves every committed
// keyword consistent with a stamped dashboard.
//
// Reports whether anything was committed.
func (s *DashboardService) monthlyUpdate(ctx context.Context, dash *domain.Dashboard) (bool, error) {
	now := s.now()
	if !ShouldRefresh(dash.LastUpdated, now) {
		return false, nil
	}
	if len(dash.Keywords) == 0 {
		return false, nil
	}

	keywords, err := s.loadKeywords(ctx, dash.Keywords)
	if err != nil {
		return false, err
	}

	names := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		names = append(names, kw.Name)
	}

	fresh, err := s.volumes.FetchVolumes(ctx, names, dash.LocationName, true)
	if err != nil {
		return false, err
	}
	if len(fresh) == 0 {
		// Nothing came back; leave LastUpdated alone so the next read
		// tries again.
		s.logger.Warn("monthly refresh returned no volume data", "dashboard_id", dash.ID)
		return false, nil
	}

	volumesByName := make(map[string]*domain.SearchVolume, len(fresh))
	for i := range fresh {
		volumesByName[fresh[i].Keyword] = &fresh[i]
	}

	stamped := *dash
	stamped.LastUpdated = now

	batch := s.store.NewBatch()
	committed := false
	updated := 0

	flush := func() {
		if batch.Count() == 0 {
			return
		}
		if err := s.store.Dashboards.Stage(batch, &stamped, nil); err != nil {
			s.logger.Error("monthly refresh: stage dashboard stamp", "dashboard_id", dash.ID, "error", err)
			batch = s.store.NewBatch()
			return
		}
		if err := batch.Commit(ctx); err != nil {
			// Partial failure is acceptable here; committed batches stand.
			s.logger.Error("monthly refresh: commit batch", "dashboard_id", dash.ID, "error", err)
		} else {
			committed = true
		}
		batch = s.store.NewBatch()
	}

	for _, kw := range keywords {
		sv, ok := volumesByName[kw.Name]
		if !ok {
			continue
		}

		kw.SearchVolume = sv
		kw.LastUpdated = now

		// Only this dashboard's view gets the new columns; other
		// dashboards refresh their own views on their own schedule.
		if view, ok := kw.Dashboards[dash.ID]; ok {
			if view.KeyRow == nil {
				view.KeyRow = make(map[string]string)
			}
			if series := sv.Series(); len(series) > 0 {
				series.MergeInto(view.KeyRow)
				if sv.SearchVolume != nil {
					view.KeyRow[searchVolColumn] = strconv.Itoa(*sv.SearchVolume)
				}
			}
			kw.Dashboards[dash.ID] = view
		}

		if err := s.store.Keywords.Stage(batch, kw, nil); err != nil {
			s.logger.Error("monthly refresh: stage keyword", "keyword_id", kw.ID, "error", err)
			continue
		}
		updated++

		if batch.Count() >= maxBatchWrites {
			flush()
		}
	}
	flush()

	if committed {
		s.logger.Info("monthly refresh committed", "dashboard_id", dash.ID, "keywords", updated)
	}
	return committed, nil
}
