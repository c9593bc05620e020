package patients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/cache"
	"github.com/asthma-connect/clinic/store"
)

type service struct {
	repo   Repository
	cache  cache.Cache
	logger *zap.SugaredLogger
}

var _ Service = &service{}

func NewService(repo Repository, cache cache.Cache, logger *zap.SugaredLogger) (Service, error) {
	return &service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}, nil
}

func (s *service) Get(ctx context.Context, hn string) (*Patient, error) {
	hn = NormalizeHN(hn)
	return cache.Fetch(ctx, s.cache, cache.Key("patients", "hn", hn), func() (*Patient, error) {
		return s.repo.Get(ctx, hn)
	})
}

// GetByViewToken is not cached, rotated tokens must stop working immediately
func (s *service) GetByViewToken(ctx context.Context, token string) (*Patient, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByViewToken(ctx, token)
}

func (s *service) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error) {
	if filter == nil {
		filter = &Filter{}
	}
	key := cache.Key("patients", "list", filterKey(filter), pagination.Offset, pagination.Limit)
	return cache.Fetch(ctx, s.cache, key, func() ([]*Patient, error) {
		return s.repo.List(ctx, filter, pagination)
	})
}

func (s *service) Create(ctx context.Context, patient Patient) (*Patient, error) {
	patient.HN = NormalizeHN(patient.HN)
	status, err := ParseStatus(string(patient.Status))
	if err != nil {
		return nil, err
	}
	patient.Status = status
	if err := patient.Validate(); err != nil {
		return nil, err
	}
	patient.ViewToken = uuid.NewString()

	created, err := s.repo.Create(ctx, patient)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("patient created", "hn", created.HN, "status", created.Status)
	return created, s.invalidate(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, hn string, status Status) (*Patient, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, NormalizeHN(hn), status)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("patient status updated", "hn", updated.HN, "status", updated.Status)
	return updated, s.invalidate(ctx)
}

func (s *service) RotateViewToken(ctx context.Context, hn string) (*Patient, error) {
	updated, err := s.repo.UpdateViewToken(ctx, NormalizeHN(hn), uuid.NewString())
	if err != nil {
		return nil, err
	}

	s.logger.Infow("patient view token rotated", "hn", updated.HN)
	return updated, s.invalidate(ctx)
}

func (s *service) invalidate(ctx context.Context) error {
	if err := s.cache.Purge(ctx); err != nil {
		return fmt.Errorf("unable to purge cache: %w", err)
	}
	return nil
}

func filterKey(filter *Filter) string {
	var status string
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	var search string
	if filter.Search != nil {
		search = *filter.Search
	}
	return cache.Key(status, search, strings.Join(filter.HNs, ","))
}
