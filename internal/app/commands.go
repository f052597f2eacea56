package app

import (
	"context"
	"errors"
	"fmt"

	"haus_search/internal/domain"
)

type IngestionService struct {
	feed  domain.FeedClient
	repo  domain.ListingRepository
	cache domain.Cache
}

func NewIngestionService(f domain.FeedClient, r domain.ListingRepository, cache domain.Cache) *IngestionService {
	return &IngestionService{feed: f, repo: r, cache: cache}
}

// IngestListing pulls one listing plus its appraisal reports from the feed
// and upserts them. 404/401/403 from the feed are recorded as misses and end
// the ingest gracefully; anything else bubbles up.
func (s *IngestionService) IngestListing(ctx context.Context, id int64, reportCount int) error {
	p, err := s.feed.GetListing(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, id, 404, "not found")
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, id, 403, "inactive")
		default:
			// network/5xx/JSON/etc. are unexpected here
			return err
		}
		// Evict any stale cache so we don't keep serving an old snapshot.
		if s.cache != nil {
			s.invalidateListing(ctx, id)
		}
		return nil
	}

	l := mapListing(p)
	if l.ID == 0 {
		l.ID = id
	}
	if err := s.repo.UpsertListing(ctx, l); err != nil {
		return err
	}
	if s.cache != nil {
		s.invalidateListing(ctx, id)
	}

	// Reports are best-effort: misses are logged, other errors surface.
	reports, rerr := s.feed.GetReports(ctx, id, reportCount)
	if rerr != nil {
		switch {
		case errors.Is(rerr, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, id, 404, "reports")
		case errors.Is(rerr, domain.ErrUnauthorized), errors.Is(rerr, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, id, 403, "reports")
		default:
			return rerr
		}
		return nil
	}
	if len(reports) > 0 {
		if err := s.repo.UpsertReports(ctx, mapReports(id, reports)); err != nil {
			// surface so we know inserts failed
			return fmt.Errorf("upsert reports failed for %d: %w", id, err)
		}
	}
	return nil
}

func (s *IngestionService) invalidateListing(ctx context.Context, id int64) {
	_ = s.cache.Del(ctx, fmt.Sprintf("listing:%d", id))
}
