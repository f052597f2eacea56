package domain

import (
	"context"
	"errors"
)

// Sentinel errors shared across adapters.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type ListingRepository interface {
	// Write paths
	UpsertListing(ctx context.Context, l Listing) error
	UpsertReports(ctx context.Context, rs []Report) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	GetListing(ctx context.Context, id int64) (Listing, error)
	ListListings(ctx context.Context, q ListingsQuery) (ListingsPage, error)
	GetReport(ctx context.Context, id int64) (Report, error)
}

type FeedClient interface {
	GetListing(ctx context.Context, id int64) (map[string]any, error)
	GetReports(ctx context.Context, id int64, count int) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
