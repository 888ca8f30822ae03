package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prodfind/internal/domain"
	"prodfind/internal/pkg/validation"
	"prodfind/internal/repository"
	"prodfind/internal/service/botcheck"
)

const (
	publicListingKey = "products:list:public"
	listingCacheTTL  = 5 * time.Minute
)

type Service interface {
	List(ctx context.Context, viewer *domain.User, filter domain.ProductFilter) ([]domain.ProductWithCount, error)
	Get(ctx context.Context, viewer *domain.User, id uuid.UUID) (*domain.ProductDetail, error)
	GetOwned(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, actor *domain.User, meta domain.RequestMeta, input domain.CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, actor *domain.User, meta domain.RequestMeta, id uuid.UUID, input domain.UpdateProductInput) error
	Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error
	InvalidateCache(ctx context.Context)
}

// MediaCleaner removes stored objects that belong to a deleted product.
type MediaCleaner interface {
	DeleteProductMedia(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	botCheck    botcheck.Service
	media       MediaCleaner
	redis       *redis.Client
}

func NewService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	botCheck botcheck.Service,
	media MediaCleaner,
	redis *redis.Client,
) Service {
	return &service{
		productRepo: productRepo,
		userRepo:    userRepo,
		botCheck:    botCheck,
		media:       media,
		redis:       redis,
	}
}

func viewerID(viewer *domain.User) *uuid.UUID {
	if viewer == nil {
		return nil
	}
	return &viewer.ID
}

// List returns visible products ordered by recommendation count. The
// anonymous unfiltered listing is served from redis when cached.
func (s *service) List(ctx context.Context, viewer *domain.User, filter domain.ProductFilter) ([]domain.ProductWithCount, error) {
	cacheable := viewer == nil && filter.UserID == nil

	if cacheable && s.redis != nil {
		if cached, err := s.redis.Get(ctx, publicListingKey).Result(); err == nil {
			var products []domain.ProductWithCount
			if json.Unmarshal([]byte(cached), &products) == nil {
				return products, nil
			}
		}
	}

	products, err := s.productRepo.List(ctx, viewerID(viewer), filter)
	if err != nil {
		return nil, err
	}

	if cacheable && s.redis != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := s.redis.Set(ctx, publicListingKey, data, listingCacheTTL).Err(); err != nil {
				slog.WarnContext(ctx, "failed to cache product listing", "error", err)
			}
		}
	}

	return products, nil
}

func (s *service) Get(ctx context.Context, viewer *domain.User, id uuid.UUID) (*domain.ProductDetail, error) {
	product, err := s.productRepo.GetWithCount(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.VisibleTo(viewerID(viewer)) {
		return nil, domain.ErrProductNotFound
	}

	authors, err := s.userRepo.GetSafeByIDs(ctx, []uuid.UUID{product.AuthorID})
	if err != nil {
		return nil, err
	}
	author, ok := authors[product.AuthorID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	return &domain.ProductDetail{
		Product:             product.Product,
		Author:              author,
		RecommendationCount: product.RecommendationCount,
	}, nil
}

// GetOwned loads a live product the actor may modify.
func (s *service) GetOwned(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Product, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.IsRemoved() {
		return nil, domain.ErrProductNotFound
	}
	if product.AuthorID != actor.ID {
		if !product.VisibleTo(&actor.ID) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.ErrNotProductOwner
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, actor *domain.User, meta domain.RequestMeta, input domain.CreateProductInput) (*domain.Product, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	if err := s.botCheck.Check(ctx, meta); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}

	product := &domain.Product{
		ID:               uuid.New(),
		AuthorID:         actor.ID,
		Name:             input.Name,
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		Price:            input.Price,
		Images:           domain.NewProductImages(input.Images),
		Icon:             input.Icon,
		Links:            domain.NewProductLinks(input.Links),
		Category:         input.Category,
		License:          input.License,
		Visibility:       visibility,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.InvalidateCache(ctx)
	return product, nil
}

func (s *service) Update(ctx context.Context, actor *domain.User, meta domain.RequestMeta, id uuid.UUID, input domain.UpdateProductInput) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}
	if err := s.botCheck.Check(ctx, meta); err != nil {
		return err
	}
	if err := validation.Struct(input); err != nil {
		return err
	}

	product, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	applyUpdate(product, input)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return err
	}

	s.InvalidateCache(ctx)
	return nil
}

func applyUpdate(p *domain.Product, in domain.UpdateProductInput) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.ShortDescription != nil {
		p.ShortDescription = in.ShortDescription
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Links != nil {
		p.Links = domain.NewProductLinks(*in.Links)
	}
	if in.Images != nil {
		p.Images = domain.NewProductImages(*in.Images)
	}
	if in.License != nil {
		p.License = in.License
	}
	if in.Visibility != nil {
		p.Visibility = *in.Visibility
	}
}

// Delete permanently removes the actor's own product together with its
// stored media.
func (s *service) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	if _, err := s.GetOwned(ctx, actor, id); err != nil {
		return err
	}

	if s.media != nil {
		if err := s.media.DeleteProductMedia(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to delete product media", "product_id", id, "error", err)
		}
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrProductNotFound
	}

	s.InvalidateCache(ctx)
	return nil
}

func (s *service) InvalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, publicListingKey).Err(); err != nil {
		slog.WarnContext(ctx, "failed to invalidate product listing cache", "error", err)
	}
}
