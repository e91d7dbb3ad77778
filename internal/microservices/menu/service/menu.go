package service

import (
	"context"
	"encoding/json"
	"time"

	"crustalyst/internal/common/cache"
	"crustalyst/internal/common/events"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/menu/repository"
)

// Where a menu read was served from.
const (
	SourceCache    = "cache"
	SourceDB       = "db"
	SourceStale    = "stale"
	SourceFallback = "fallback"
)

const staleTTL = 7 * 24 * time.Hour

type MenuServiceInterface interface {
	Available(ctx context.Context, category string) ([]domain.MenuItem, string)
	Categories(ctx context.Context) []string
	Preview(ctx context.Context) []domain.MenuSection
	SetAvailability(ctx context.Context, id int, available bool) (domain.MenuItem, error)
}

type MenuService struct {
	repo    repository.MenuRepositoryInterface
	cache   cache.Cache
	ttl     time.Duration
	emitter *events.Emitter
	m       *metrics.Metrics
	lg      *logger.Logger
}

func NewMenuService(repo repository.MenuRepositoryInterface, c cache.Cache, ttl time.Duration, emitter *events.Emitter, m *metrics.Metrics) *MenuService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MenuService{repo: repo, cache: c, ttl: ttl, emitter: emitter, m: m, lg: logger.New("menu")}
}

// Available returns available items ordered by category then name. It never fails:
// on database errors it serves the last cached menu, then the built-in fallback.
func (s *MenuService) Available(ctx context.Context, category string) ([]domain.MenuItem, string) {
	items, source := s.load(ctx)
	s.m.MenuRead(source)
	if category == "" || category == domain.MenuCategoryAll {
		return items, source
	}
	out := make([]domain.MenuItem, 0, len(items))
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out, source
}

// Categories lists "All" followed by each distinct category in menu order.
func (s *MenuService) Categories(ctx context.Context) []string {
	items, _ := s.Available(ctx, domain.MenuCategoryAll)
	out := []string{domain.MenuCategoryAll}
	seen := make(map[string]bool)
	for _, it := range items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}

// Preview groups available items by category for the landing page.
func (s *MenuService) Preview(ctx context.Context) []domain.MenuSection {
	items, _ := s.Available(ctx, domain.MenuCategoryAll)
	sections := make([]domain.MenuSection, 0)
	index := make(map[string]int)
	for _, it := range items {
		i, ok := index[it.Category]
		if !ok {
			i = len(sections)
			index[it.Category] = i
			sections = append(sections, domain.MenuSection{Category: it.Category})
		}
		sections[i].Items = append(sections[i].Items, it)
	}
	return sections
}

func (s *MenuService) SetAvailability(ctx context.Context, id int, available bool) (domain.MenuItem, error) {
	it, err := s.repo.SetAvailability(ctx, id, available)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, s.freshKey()); err != nil {
			s.lg.Warn("menu_cache_invalidate_failed", map[string]any{"error": err.Error()})
		}
	}
	s.emitter.Emit(ctx, domain.MenuItemsTable, domain.EventUpdate, it, nil)
	s.lg.WithContext(ctx).Info("menu_availability_changed", map[string]any{"menu_item_id": id, "available": available})
	return it, nil
}

func (s *MenuService) load(ctx context.Context) ([]domain.MenuItem, string) {
	if items, ok := s.fromCache(ctx, s.freshKey()); ok {
		return items, SourceCache
	}

	items, err := s.repo.Available(ctx)
	if err == nil {
		s.store(ctx, items)
		return items, SourceDB
	}
	s.lg.WithContext(ctx).Warn("menu_load_failed", map[string]any{"error": err.Error()})

	if items, ok := s.fromCache(ctx, s.staleKey()); ok {
		return items, SourceStale
	}
	return domain.FallbackMenu(), SourceFallback
}

func (s *MenuService) fromCache(ctx context.Context, key string) ([]domain.MenuItem, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.lg.Debug("menu_cache_get_failed", map[string]any{"key": key, "error": err.Error()})
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var items []domain.MenuItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	return items, true
}

func (s *MenuService) store(ctx context.Context, items []domain.MenuItem) {
	if s.cache == nil {
		return
	}
	body, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.freshKey(), body, s.ttl); err != nil {
		s.lg.Debug("menu_cache_set_failed", map[string]any{"error": err.Error()})
		return
	}
	_ = s.cache.Set(ctx, s.staleKey(), body, staleTTL)
}

func (s *MenuService) freshKey() string { return s.key("fresh") }
func (s *MenuService) staleKey() string { return s.key("stale") }

func (s *MenuService) key(kind string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.GenerateKey("available", kind)
}
