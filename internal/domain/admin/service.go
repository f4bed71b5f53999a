package admin

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/platform/apperr"
	"github.com/syntura/hms/internal/platform/cache"
)

type Service struct {
	departments DepartmentRepository
	stats       StatsRepository
	cache       cache.Cache
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewService returns an admin service. A nil cache disables caching.
func NewService(departments DepartmentRepository, stats StatsRepository, c cache.Cache, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{departments: departments, stats: stats, cache: c, cacheTTL: cacheTTL, logger: logger}
}

// Departments lists the departments, falling back to the defaults while
// the table is empty.
func (s *Service) Departments(ctx context.Context) ([]Department, error) {
	return cache.GetOrLoad(ctx, s.cache, s.logger, cache.KeyDepartmentsAll, s.cacheTTL,
		func(ctx context.Context) ([]Department, error) {
			items, err := s.departments.List(ctx)
			if err != nil {
				return nil, apperr.Wrap("list departments", err)
			}
			if len(items) == 0 {
				return DefaultDepartments(), nil
			}
			return items, nil
		})
}

// SeedDepartments inserts any missing default department and returns how
// many were added.
func (s *Service) SeedDepartments(ctx context.Context) (int, error) {
	added := 0
	for _, d := range DefaultDepartments() {
		d := d
		ok, err := s.departments.Insert(ctx, &d)
		if err != nil {
			return added, apperr.Wrap("seed departments", err)
		}
		if ok {
			added++
		}
	}
	if added > 0 {
		s.cache.Delete(ctx, cache.KeyDepartmentsAll)
	}
	return added, nil
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.stats.Dashboard(ctx)
	if err != nil {
		return nil, apperr.Wrap("load dashboard", err)
	}
	return d, nil
}
