package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopkitchen/storewatch/internal/core"
	"github.com/loopkitchen/storewatch/internal/domain/model"
	"github.com/loopkitchen/storewatch/internal/domain/uptime"
)

// Cache key prefixes for the catalog resolvers.
const (
	cacheKeyTimezone      = "catalog:tz:"
	cacheKeyBusinessHours = "catalog:bh:"
)

// CatalogServiceOptions groups dependencies for CatalogService.
type CatalogServiceOptions struct {
	Repo            core.CatalogRepository // Required: catalog repository
	Cache           core.CacheRepository   // Optional: read-through cache for resolved lookups
	DefaultTimezone string                 // Optional: fallback zone for stores without a record
	CacheTTL        time.Duration          // Optional: TTL for cached catalog entries
	Logger          *slog.Logger           // Optional: structured logger
}

// CatalogService resolves per-store reference data, applying the defaults for
// stores missing from the hours or timezone feeds. Resolved lookups are
// cached because the catalog only changes between ingests while a report run
// reads it once per store.
type CatalogService struct {
	repo      core.CatalogRepository
	cache     core.CacheRepository
	defaultTZ string
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewCatalogService constructs a new CatalogService.
func NewCatalogService(opts CatalogServiceOptions) (*CatalogService, error) {
	if opts.Repo == nil {
		return nil, errors.New("CatalogRepository is required")
	}

	defaultTZ := opts.DefaultTimezone
	if defaultTZ == "" {
		defaultTZ = "America/Chicago"
	}
	if _, err := time.LoadLocation(defaultTZ); err != nil {
		return nil, fmt.Errorf("load default timezone %q: %w", defaultTZ, err)
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "catalog_service")
	}

	return &CatalogService{
		repo:      opts.Repo,
		cache:     opts.Cache,
		defaultTZ: defaultTZ,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}, nil
}

// StoreIDs returns every store id known to any feed, sorted.
func (s *CatalogService) StoreIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.StoreIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list store ids: %w", err)
	}
	return ids, nil
}

// ResolveLocation returns the store's local time zone. Stores without a
// timezone record get the configured default; unparseable zone names degrade
// to UTC rather than failing the whole report.
func (s *CatalogService) ResolveLocation(ctx context.Context, storeID string) (*time.Location, error) {
	name, err := s.resolveTimezoneName(ctx, storeID)
	if err != nil {
		return nil, err
	}

	loc, locErr := time.LoadLocation(name)
	if locErr != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "unknown store timezone, falling back to UTC",
				"store_id", storeID,
				"timezone", name,
			)
		}
		return time.UTC, nil
	}
	return loc, nil
}

func (s *CatalogService) resolveTimezoneName(ctx context.Context, storeID string) (string, error) {
	key := cacheKeyTimezone + storeID
	if cached, ok := s.cacheGet(ctx, key); ok {
		return string(cached), nil
	}

	name, err := s.repo.Timezone(ctx, storeID)
	if err != nil {
		return "", fmt.Errorf("resolve timezone for store %s: %w", storeID, err)
	}
	if name == "" {
		name = s.defaultTZ
	}

	s.cacheSet(ctx, key, []byte(name))
	return name, nil
}

// ResolveSchedule returns the store's weekly schedule. Stores without hours
// on record are treated as open 24x7.
func (s *CatalogService) ResolveSchedule(ctx context.Context, storeID string) (uptime.Schedule, error) {
	intervals, err := s.resolveBusinessHours(ctx, storeID)
	if err != nil {
		return uptime.Schedule{}, err
	}

	schedule, err := uptime.NewSchedule(intervals)
	if err != nil {
		return uptime.Schedule{}, fmt.Errorf("build schedule for store %s: %w", storeID, err)
	}
	return schedule, nil
}

func (s *CatalogService) resolveBusinessHours(ctx context.Context, storeID string) ([]model.BusinessHoursInterval, error) {
	key := cacheKeyBusinessHours + storeID
	if cached, ok := s.cacheGet(ctx, key); ok {
		var intervals []model.BusinessHoursInterval
		if err := json.Unmarshal(cached, &intervals); err == nil {
			return intervals, nil
		}
		// Stale or corrupt entry; fall through to the repository.
	}

	intervals, err := s.repo.BusinessHours(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("resolve business hours for store %s: %w", storeID, err)
	}

	if encoded, encErr := json.Marshal(intervals); encErr == nil {
		s.cacheSet(ctx, key, encoded)
	}
	return intervals, nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "catalog cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return value, value != nil
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.DebugContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}
