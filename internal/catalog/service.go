package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
)

// Service fronts the repository with a read-through cache. A nil cache
// disables caching.
type Service struct {
	repo   Repository
	cache  Cache
	logger *zap.Logger
	sfg    singleflight.Group
}

func NewService(repo Repository, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Get collapses concurrent misses for the same id into one database read.
// The shared read does not inherit any one caller's cancellation; each caller
// stops waiting when its own context ends.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan(id, func() (any, error) {
		return s.load(loadCtx, id)
	})
	select {
	case <-ctx.Done():
		return Item{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Item{}, res.Err
		}
		return res.Val.(Item), nil
	}
}

func (s *Service) load(ctx context.Context, id string) (Item, error) {
	if s.cache != nil {
		it, err := s.cache.Get(ctx, id)
		if err == nil {
			return it, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("catalog cache get failed", zap.String("item_id", id), zap.Error(err))
		}
	}

	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, it); err != nil {
			s.logger.Warn("catalog cache set failed", zap.String("item_id", id), zap.Error(err))
		}
	}
	return it, nil
}

// ForSale returns the item only if it can be added to a sale.
func (s *Service) ForSale(ctx context.Context, id string) (Item, error) {
	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if !it.Active {
		return Item{}, ErrInactive
	}
	return it, nil
}

func (s *Service) List(ctx context.Context, q listquery.Query) (listquery.Page[Item], error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Item, error) {
	it, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Item{}, err
	}
	s.invalidate(ctx, id)
	return it, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("catalog cache delete failed", zap.String("item_id", id), zap.Error(err))
	}
}
