package visits

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/cache"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/store"
)

type service struct {
	repo     Repository
	patients patients.Service
	cache    cache.Cache
	logger   *zap.SugaredLogger
}

var _ Service = &service{}

func NewService(repo Repository, patients patients.Service, cache cache.Cache, logger *zap.SugaredLogger) (Service, error) {
	return &service{
		repo:     repo,
		patients: patients,
		cache:    cache,
		logger:   logger,
	}, nil
}

func (s *service) Create(ctx context.Context, visit Visit) (*Visit, error) {
	visit.HN = patients.NormalizeHN(visit.HN)
	if _, err := s.patients.Get(ctx, visit.HN); err != nil {
		return nil, err
	}
	if visit.Source == "" {
		visit.Source = SourceStaff
	}

	created, err := s.repo.Create(ctx, visit)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("visit recorded", "hn", created.HN, "date", created.Date.Format(time.DateOnly), "source", created.Source)
	return created, s.invalidate(ctx)
}

// CreateMany appends visits of patients that are known to exist
func (s *service) CreateMany(ctx context.Context, visits []Visit) (int, error) {
	count, err := s.repo.CreateMany(ctx, visits)
	if err != nil {
		return count, err
	}

	s.logger.Infow("visits recorded", "count", count)
	return count, s.invalidate(ctx)
}

func (s *service) ListByPatient(ctx context.Context, hn string) ([]*Visit, error) {
	hn = patients.NormalizeHN(hn)
	return cache.Fetch(ctx, s.cache, cache.Key("visits", "hn", hn), func() ([]*Visit, error) {
		return s.repo.List(ctx, &Filter{HN: &hn}, store.Unpaginated())
	})
}

func (s *service) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Visit, error) {
	if filter == nil {
		filter = &Filter{}
	}
	key := cache.Key("visits", "list", filterKey(filter), pagination.Offset, pagination.Limit)
	return cache.Fetch(ctx, s.cache, key, func() ([]*Visit, error) {
		return s.repo.List(ctx, filter, pagination)
	})
}

func (s *service) BackfillAppointment(ctx context.Context, hn string, date time.Time, next time.Time) (*Visit, error) {
	updated, err := s.repo.UpdateNextAppointment(ctx, patients.NormalizeHN(hn), Day(date), Day(next))
	if err != nil {
		return nil, err
	}

	s.logger.Infow("appointment back-filled", "hn", updated.HN, "date", updated.Date.Format(time.DateOnly))
	return updated, s.invalidate(ctx)
}

func (s *service) invalidate(ctx context.Context) error {
	if err := s.cache.Purge(ctx); err != nil {
		return fmt.Errorf("unable to purge cache: %w", err)
	}
	return nil
}

func filterKey(filter *Filter) string {
	var hn, from, to string
	if filter.HN != nil {
		hn = *filter.HN
	}
	if filter.From != nil {
		from = filter.From.Format(time.RFC3339)
	}
	if filter.To != nil {
		to = filter.To.Format(time.RFC3339)
	}
	return cache.Key(hn, from, to)
}
