package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"haus_search/internal/domain"
)

type SearchService struct {
	repo     domain.ListingRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewSearchService(r domain.ListingRepository, c domain.Cache, ttl time.Duration) *SearchService {
	return &SearchService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *SearchService) GetListing(ctx context.Context, id int64) (domain.Listing, error) {
	key := fmt.Sprintf("listing:%d", id)
	var l domain.Listing
	if ok, _ := s.cache.Get(ctx, key, &l); ok {
		return l, nil
	}
	l, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	_ = s.cache.Set(ctx, key, l, int(s.cacheTTL.Seconds()))
	return l, nil
}

func (s *SearchService) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	key := fmt.Sprintf("report:%d", id)
	var rep domain.Report
	if ok, _ := s.cache.Get(ctx, key, &rep); ok {
		return rep, nil
	}
	rep, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	_ = s.cache.Set(ctx, key, rep, int(s.cacheTTL.Seconds()))
	return rep, nil
}

func (s *SearchService) ListListings(ctx context.Context, q domain.ListingsQuery) (domain.ListingsPage, error) {
	key := listQueryKey(q)
	var out domain.ListingsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListListings(ctx, q)
	if err != nil {
		return domain.ListingsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array (prevents callers from mutating cached value)
	copyPage := deepCopyListingsPage(page)

	// optional size guard
	if b, _ := json.Marshal(copyPage); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyPage, int(s.cacheTTL.Seconds()))
	}
	return copyPage, nil
}

// listQueryKey derives a stable cache key from every filter in the query.
func listQueryKey(q domain.ListingsQuery) string {
	return fmt.Sprintf("listings:%s:%s:%s:%d:%d:%.0f:%.0f:%s:%d",
		derefStr(q.Suburb), derefStr(q.Type), derefStr(q.ListingType),
		derefInt(q.MinBeds), derefInt(q.MinBaths),
		derefF64(q.PriceMin), derefF64(q.PriceMax),
		derefStr(q.Amenity), q.Limit)
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefF64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func deepCopyListingsPage(in domain.ListingsPage) domain.ListingsPage {
	out := domain.ListingsPage{NextCursor: in.NextCursor}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Listing, n)
		copy(out.Items, in.Items)
	}
	return out
}
