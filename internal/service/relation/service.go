// Package relation implements bookmarks and recommendations: per-user marks
// on products whose presence is the signal.
package relation

import (
	"context"

	"github.com/google/uuid"

	"prodfind/internal/domain"
	"prodfind/internal/repository"
	"prodfind/internal/service/notification"
)

type Service interface {
	Add(ctx context.Context, actor *domain.User, productID uuid.UUID) error
	Remove(ctx context.Context, actor *domain.User, productID uuid.UUID) error
	Status(ctx context.Context, viewer *domain.User, productID uuid.UUID) (bool, error)
	ListProducts(ctx context.Context, actor *domain.User) ([]domain.ProductWithCount, error)
}

// CacheInvalidator drops cached listings whose order depends on marks.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

type service struct {
	action      domain.NotificationAction
	relRepo     repository.ProductRelationRepository
	productRepo repository.ProductRepository
	notifSvc    notification.Service
	cache       CacheInvalidator
}

func NewBookmarkService(repo repository.BookmarkRepository, productRepo repository.ProductRepository, notifSvc notification.Service) Service {
	return &service{
		action:      domain.ActionBookmark,
		relRepo:     repo,
		productRepo: productRepo,
		notifSvc:    notifSvc,
	}
}

// NewRecommendationService also invalidates cache on every change, since
// listings are ordered by recommendation count.
func NewRecommendationService(repo repository.RecommendationRepository, productRepo repository.ProductRepository, notifSvc notification.Service, cache CacheInvalidator) Service {
	return &service{
		action:      domain.ActionRecommendation,
		relRepo:     repo,
		productRepo: productRepo,
		notifSvc:    notifSvc,
		cache:       cache,
	}
}

// Add marks a product the actor can see. Marking twice is a no-op and
// notifies once.
func (s *service) Add(ctx context.Context, actor *domain.User, productID uuid.UUID) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil || !product.VisibleTo(&actor.ID) {
		return domain.ErrProductNotFound
	}

	inserted, err := s.relRepo.Add(ctx, productID, actor.ID)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	s.invalidate(ctx)

	if s.notifSvc != nil {
		if err := s.notifSvc.NotifyProductMark(ctx, s.action, product, actor.ID); err != nil {
			return err
		}
	}
	return nil
}

// Remove is idempotent.
func (s *service) Remove(ctx context.Context, actor *domain.User, productID uuid.UUID) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}

	removed, err := s.relRepo.Remove(ctx, productID, actor.ID)
	if err != nil {
		return err
	}
	if removed {
		s.invalidate(ctx)
	}
	return nil
}

// Status reports false for anonymous viewers.
func (s *service) Status(ctx context.Context, viewer *domain.User, productID uuid.UUID) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return s.relRepo.Exists(ctx, productID, viewer.ID)
}

func (s *service) ListProducts(ctx context.Context, actor *domain.User) ([]domain.ProductWithCount, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	return s.relRepo.ListProducts(ctx, actor.ID)
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateCache(ctx)
}
