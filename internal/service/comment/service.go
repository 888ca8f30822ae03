package comment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"prodfind/internal/domain"
	"prodfind/internal/pkg/validation"
	"prodfind/internal/repository"
	"prodfind/internal/service/botcheck"
	"prodfind/internal/service/notification"
)

const treeCacheTTL = 5 * time.Minute

type Service interface {
	ListByProduct(ctx context.Context, viewer *domain.User, productID uuid.UUID) ([]domain.Comment, error)
	Create(ctx context.Context, actor *domain.User, meta domain.RequestMeta, productID uuid.UUID, input domain.CreateCommentInput) (*domain.Comment, error)
	Update(ctx context.Context, actor *domain.User, meta domain.RequestMeta, id uuid.UUID, input domain.UpdateCommentInput) (*domain.Comment, error)
	Delete(ctx context.Context, actor *domain.User, meta domain.RequestMeta, id uuid.UUID, input domain.DeleteCommentInput) error
}

type service struct {
	commentRepo repository.CommentRepository
	productRepo repository.ProductRepository
	botCheck    botcheck.Service
	notifSvc    notification.Service
	redis       *redis.Client
}

func NewService(
	commentRepo repository.CommentRepository,
	productRepo repository.ProductRepository,
	botCheck botcheck.Service,
	notifSvc notification.Service,
	redis *redis.Client,
) Service {
	return &service{
		commentRepo: commentRepo,
		productRepo: productRepo,
		botCheck:    botCheck,
		notifSvc:    notifSvc,
		redis:       redis,
	}
}

func treeCacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("comments:%s:tree", productID)
}

func (s *service) visibleProduct(ctx context.Context, viewer *domain.User, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	var viewerID *uuid.UUID
	if viewer != nil {
		viewerID = &viewer.ID
	}
	if product == nil || !product.VisibleTo(viewerID) {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// ListByProduct returns top-level comments, newest first, each with its
// replies oldest first.
func (s *service) ListByProduct(ctx context.Context, viewer *domain.User, productID uuid.UUID) ([]domain.Comment, error) {
	if _, err := s.visibleProduct(ctx, viewer, productID); err != nil {
		return nil, err
	}

	cacheKey := treeCacheKey(productID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var tree []domain.Comment
			if json.Unmarshal([]byte(cached), &tree) == nil {
				return tree, nil
			}
		}
	}

	rows, err := s.commentRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	tree := domain.BuildCommentTree(rows)

	if s.redis != nil {
		if data, err := json.Marshal(tree); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, treeCacheTTL).Err(); err != nil {
				slog.WarnContext(ctx, "failed to cache comment tree", "product_id", productID, "error", err)
			}
		}
	}

	return tree, nil
}

func (s *service) Create(ctx context.Context, actor *domain.User, meta domain.RequestMeta, productID uuid.UUID, input domain.CreateCommentInput) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	if err := s.botCheck.Check(ctx, meta); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	product, err := s.visibleProduct(ctx, actor, productID)
	if err != nil {
		return nil, err
	}

	var parent *domain.Comment
	if input.ParentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, domain.NotFound("Parent comment not found")
		}
		if parent.ProductID != productID {
			return nil, domain.Validation("Parent comment belongs to another product")
		}
		if parent.ParentID != nil {
			return nil, domain.Validation("Replies cannot be nested")
		}
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		ProductID: productID,
		AuthorID:  actor.ID,
		ParentID:  input.ParentID,
		Content:   input.Content,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = &domain.CommentAuthor{ID: actor.ID, Name: actor.Name, Image: actor.Image}

	s.invalidate(ctx, productID)

	if s.notifSvc != nil {
		if err := s.notifSvc.NotifyComment(ctx, product, parent, actor); err != nil {
			slog.WarnContext(ctx, "failed to notify comment", "comment_id", comment.ID, "error", err)
		}
	}

	return comment, nil
}

// editable loads a live comment the actor wrote, or any comment for admins.
func (s *service) editable(ctx context.Context, actor *domain.User, id uuid.UUID, verb string) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, domain.ErrCommentNotFound
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, domain.Forbidden("You can only %s your own comments", verb)
	}
	return comment, nil
}

func (s *service) Update(ctx context.Context, actor *domain.User, meta domain.RequestMeta, id uuid.UUID, input domain.UpdateCommentInput) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	if err := s.botCheck.Check(ctx, meta); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	comment, err := s.editable(ctx, actor, id, "edit")
	if err != nil {
		return nil, err
	}

	comment.Content = input.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}

	s.invalidate(ctx, comment.ProductID)
	return comment, nil
}

func (s *service) Delete(ctx context.Context, actor *domain.User, meta domain.RequestMeta, id uuid.UUID, input domain.DeleteCommentInput) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}
	if err := s.botCheck.Check(ctx, meta); err != nil {
		return err
	}
	if err := validation.Struct(input); err != nil {
		return err
	}

	comment, err := s.editable(ctx, actor, id, "delete")
	if err != nil {
		return err
	}

	deleted, err := s.commentRepo.SoftDelete(ctx, comment.ID, actor.ID, input.Reason)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrCommentNotFound
	}

	s.invalidate(ctx, comment.ProductID)
	return nil
}

func (s *service) invalidate(ctx context.Context, productID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, treeCacheKey(productID)).Err(); err != nil {
		slog.WarnContext(ctx, "failed to invalidate comment cache", "product_id", productID, "error", err)
	}
}
