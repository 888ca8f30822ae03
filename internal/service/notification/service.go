package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"prodfind/internal/domain"
	"prodfind/internal/pkg/i18n"
	"prodfind/internal/repository"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	NotifyProductMark(ctx context.Context, action domain.NotificationAction, product *domain.Product, actorID uuid.UUID) error
	NotifyComment(ctx context.Context, product *domain.Product, parent *domain.Comment, actor *domain.User) error
}

type service struct {
	notifRepo   repository.NotificationRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

func NewService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
) Service {
	return &service{
		notifRepo:   notifRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	params.Validate()

	notifications, total, err := s.notifRepo.ListByUser(ctx, userID, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}

	if err := s.attachRelations(ctx, notifications); err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, err
	}

	return domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total), nil
}

func (s *service) attachRelations(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	var actorIDs, productIDs []uuid.UUID
	for _, n := range notifications {
		if n.ActorID != nil {
			actorIDs = append(actorIDs, *n.ActorID)
		}
		productIDs = append(productIDs, n.Target)
	}

	actors, err := s.userRepo.GetSafeByIDs(ctx, actorIDs)
	if err != nil {
		return fmt.Errorf("load notification actors: %w", err)
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("load notification products: %w", err)
	}

	for i := range notifications {
		n := &notifications[i]
		if n.ActorID != nil {
			if actor, ok := actors[*n.ActorID]; ok {
				n.Actor = &actor
			}
		}
		if product, ok := products[n.Target]; ok {
			n.Product = &product
		}
	}
	return nil
}

// MarkAsRead only touches the caller's own notifications; anything else
// reads as not found.
func (s *service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.notifRepo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

func (s *service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

// NotifyProductMark tells the author that someone bookmarked or recommended
// their product. Authors marking their own products are not notified.
func (s *service) NotifyProductMark(ctx context.Context, action domain.NotificationAction, product *domain.Product, actorID uuid.UUID) error {
	if action != domain.ActionBookmark && action != domain.ActionRecommendation {
		return fmt.Errorf("%s is not a product mark", action)
	}
	if product.AuthorID == actorID {
		return nil
	}
	return s.create(ctx, product.AuthorID, action, product.ID, &actorID, nil)
}

// NotifyComment tells the product author about a top-level comment, or the
// parent comment's author about a reply. Self-replies and comments on one's
// own product are not notified.
func (s *service) NotifyComment(ctx context.Context, product *domain.Product, parent *domain.Comment, actor *domain.User) error {
	actorName := actor.Name
	if actorName == "" {
		actorName = i18n.Translate(i18n.DefaultLocale, "SOMEONE")
	}

	if parent == nil {
		if product.AuthorID == actor.ID {
			return nil
		}
		return s.create(ctx, product.AuthorID, domain.ActionComment, product.ID, &actor.ID, domain.ActivityMetadata{
			Type:    string(domain.ActionComment),
			Title:   i18n.Translate(i18n.DefaultLocale, "COMMENT_TITLE"),
			Message: i18n.Format(i18n.DefaultLocale, "COMMENT_MESSAGE", "actor", actorName),
		})
	}

	if parent.AuthorID == actor.ID {
		return nil
	}
	return s.create(ctx, parent.AuthorID, domain.ActionReply, product.ID, &actor.ID, domain.ActivityMetadata{
		Type:    string(domain.ActionReply),
		Title:   i18n.Translate(i18n.DefaultLocale, "REPLY_TITLE"),
		Message: i18n.Format(i18n.DefaultLocale, "REPLY_MESSAGE", "actor", actorName),
	})
}

func (s *service) create(ctx context.Context, recipient uuid.UUID, action domain.NotificationAction, target uuid.UUID, actorID *uuid.UUID, metadata any) error {
	notif, err := domain.NewNotification(recipient, action, target, actorID, metadata)
	if err != nil {
		return err
	}
	if err := s.notifRepo.Create(ctx, notif); err != nil {
		return fmt.Errorf("create %s notification: %w", action, err)
	}
	return nil
}
