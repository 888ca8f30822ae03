// Package moderation runs the removal and appeal workflow: admins remove and
// restore products, authors appeal a removal once, admins reject appeals.
// Every transition runs in one transaction with the notification it emits.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"prodfind/internal/domain"
	"prodfind/internal/pkg/i18n"
	"prodfind/internal/pkg/validation"
	"prodfind/internal/repository"
	"prodfind/internal/service/email"
)

type Service interface {
	RemoveProduct(ctx context.Context, actor *domain.User, meta domain.RequestMeta, productID uuid.UUID, input domain.RemoveProductInput) (*domain.Product, error)
	RestoreProduct(ctx context.Context, actor *domain.User, meta domain.RequestMeta, productID uuid.UUID) (*domain.Product, error)
	SubmitAppeal(ctx context.Context, actor *domain.User, meta domain.RequestMeta, notificationID uuid.UUID, input domain.AppealInput) (*domain.Notification, error)
	RejectAppeal(ctx context.Context, actor *domain.User, meta domain.RequestMeta, notificationID uuid.UUID, input domain.RejectAppealInput) (*domain.Notification, error)
	ListAppealed(ctx context.Context, actor *domain.User) ([]domain.AppealedRemoval, error)
}

// CacheInvalidator drops cached listings after a product leaves or
// re-enters them.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

type service struct {
	tx       repository.Transactor
	repos    *repository.Repositories
	emailSvc email.Service
	cache    CacheInvalidator
	now      func() time.Time
}

func NewService(tx repository.Transactor, repos *repository.Repositories, emailSvc email.Service, cache CacheInvalidator) Service {
	return &service{
		tx:       tx,
		repos:    repos,
		emailSvc: emailSvc,
		cache:    cache,
		now:      time.Now,
	}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return domain.Unauthorized("Authentication required")
	}
	if !actor.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}

// RemoveProduct soft-deletes a live product and notifies its author, who may
// appeal. Removing a product that is already removed is a conflict.
func (s *service) RemoveProduct(ctx context.Context, actor *domain.User, meta domain.RequestMeta, productID uuid.UUID, input domain.RemoveProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = domain.DefaultRemovalReason
	}

	var removed *domain.Product
	err := s.tx.InTx(ctx, func(repos *repository.Repositories) error {
		existing, err := repos.Product.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrProductNotFound
		}

		removed, err = repos.Product.SoftDelete(ctx, productID, actor.ID, reason)
		if err != nil {
			return err
		}
		if removed == nil {
			return domain.ErrProductAlreadyRemoved
		}

		notif, err := domain.NewNotification(removed.AuthorID, domain.ActionProductRemoved, removed.ID, &actor.ID, domain.RemovalMetadata{
			ProductName: removed.Name,
			Reason:      reason,
			CanAppeal:   true,
		})
		if err != nil {
			return err
		}
		if err := repos.Notification.Create(ctx, notif); err != nil {
			return err
		}

		return repository.CreateAuditLog(ctx, repos.AuditLog, domain.CreateAuditLogInput{
			UserID:     actor.ID,
			Action:     domain.AuditProductRemoved,
			EntityType: domain.EntityProduct,
			EntityID:   removed.ID,
			NewValue:   map[string]any{"reason": reason},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.notifyAuthor(removed.AuthorID, func(ctx context.Context, to *domain.User) error {
		return s.emailSvc.SendProductRemovedEmail(ctx, to.Email, to.Name, removed.Name, reason)
	})

	return removed, nil
}

// RestoreProduct clears the removal of a product regardless of appeal state.
func (s *service) RestoreProduct(ctx context.Context, actor *domain.User, meta domain.RequestMeta, productID uuid.UUID) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var restored *domain.Product
	err := s.tx.InTx(ctx, func(repos *repository.Repositories) error {
		existing, err := repos.Product.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrProductNotFound
		}

		restored, err = repos.Product.Restore(ctx, productID)
		if err != nil {
			return err
		}
		if restored == nil {
			return domain.ErrProductNotDeleted
		}

		notif, err := domain.NewNotification(restored.AuthorID, domain.ActionProductRestored, restored.ID, &actor.ID, domain.DecisionMetadata{
			ProductName: restored.Name,
			Message:     i18n.Translate(i18n.DefaultLocale, "PRODUCT_RESTORED_MESSAGE"),
		})
		if err != nil {
			return err
		}
		if err := repos.Notification.Create(ctx, notif); err != nil {
			return err
		}

		return repository.CreateAuditLog(ctx, repos.AuditLog, domain.CreateAuditLogInput{
			UserID:     actor.ID,
			Action:     domain.AuditProductRestored,
			EntityType: domain.EntityProduct,
			EntityID:   restored.ID,
			OldValue:   map[string]any{"reason": existing.DeletionReason, "deleted_by": existing.DeletedBy},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.notifyAuthor(restored.AuthorID, func(ctx context.Context, to *domain.User) error {
		return s.emailSvc.SendProductRestoredEmail(ctx, to.Email, to.Name, restored.Name)
	})

	return restored, nil
}

// SubmitAppeal records the author's appeal on their removal notification.
// The row is locked so concurrent appeals cannot both pass the guard.
func (s *service) SubmitAppeal(ctx context.Context, actor *domain.User, meta domain.RequestMeta, notificationID uuid.UUID, input domain.AppealInput) (*domain.Notification, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var appealed *domain.Notification
	err := s.tx.InTx(ctx, func(repos *repository.Repositories) error {
		notif, err := repos.Notification.GetForUpdate(ctx, notificationID)
		if err != nil {
			return err
		}
		if notif == nil || notif.UserID != actor.ID || notif.Action != domain.ActionProductRemoved {
			return domain.NotFound("Notification not found or cannot be appealed")
		}

		metadata, err := notif.RemovalMetadata()
		if err != nil {
			return err
		}
		if !metadata.CanAppeal {
			return domain.ErrNotAppealable
		}
		if metadata.Appealed {
			return domain.ErrAlreadyAppealed
		}

		now := s.now().UTC()
		metadata.Appealed = true
		metadata.AppealMessage = &input.AppealMessage
		metadata.AppealDate = &now

		if err := s.saveRemovalMetadata(ctx, repos, notif, *metadata); err != nil {
			return err
		}
		appealed = notif

		return repository.CreateAuditLog(ctx, repos.AuditLog, domain.CreateAuditLogInput{
			UserID:     actor.ID,
			Action:     domain.AuditAppealSubmitted,
			EntityType: domain.EntityNotification,
			EntityID:   notif.ID,
			NewValue:   map[string]any{"appealMessage": input.AppealMessage, "product_id": notif.Target},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}

	return appealed, nil
}

// RejectAppeal closes a pending appeal without restoring the product. The
// author is notified and cannot appeal the same removal again.
func (s *service) RejectAppeal(ctx context.Context, actor *domain.User, meta domain.RequestMeta, notificationID uuid.UUID, input domain.RejectAppealInput) (*domain.Notification, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	reason := i18n.Translate(i18n.DefaultLocale, "APPEAL_REJECTED_DEFAULT_REASON")
	if input.RejectionReason != nil && *input.RejectionReason != "" {
		reason = *input.RejectionReason
	}

	var (
		rejection   *domain.Notification
		productName string
	)
	err := s.tx.InTx(ctx, func(repos *repository.Repositories) error {
		notif, err := repos.Notification.GetForUpdate(ctx, notificationID)
		if err != nil {
			return err
		}
		if notif == nil || notif.Action != domain.ActionProductRemoved {
			return domain.ErrNotificationNotFound
		}

		metadata, err := notif.RemovalMetadata()
		if err != nil {
			return err
		}
		if !metadata.Appealed {
			return domain.Conflict("No appeal has been submitted for this removal")
		}
		if metadata.AppealRejected {
			return domain.Conflict("This appeal has already been rejected")
		}

		now := s.now().UTC()
		metadata.AppealRejected = true
		metadata.RejectionReason = &reason
		metadata.RejectedBy = &actor.ID
		metadata.RejectedAt = &now

		if err := s.saveRemovalMetadata(ctx, repos, notif, *metadata); err != nil {
			return err
		}

		productName = metadata.ProductName
		rejection, err = domain.NewNotification(notif.UserID, domain.ActionAppealRejected, notif.Target, &actor.ID, domain.DecisionMetadata{
			ProductName: productName,
			Message:     i18n.Translate(i18n.DefaultLocale, "APPEAL_REJECTED_MESSAGE"),
		})
		if err != nil {
			return err
		}
		if err := repos.Notification.Create(ctx, rejection); err != nil {
			return err
		}

		return repository.CreateAuditLog(ctx, repos.AuditLog, domain.CreateAuditLogInput{
			UserID:     actor.ID,
			Action:     domain.AuditAppealRejected,
			EntityType: domain.EntityNotification,
			EntityID:   notif.ID,
			NewValue:   map[string]any{"rejectionReason": reason, "product_id": notif.Target},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyAuthor(rejection.UserID, func(ctx context.Context, to *domain.User) error {
		return s.emailSvc.SendAppealRejectedEmail(ctx, to.Email, to.Name, productName, reason)
	})

	return rejection, nil
}

func (s *service) saveRemovalMetadata(ctx context.Context, repos *repository.Repositories, notif *domain.Notification, metadata domain.RemovalMetadata) error {
	raw, err := domain.EncodeMetadata(domain.ActionProductRemoved, metadata)
	if err != nil {
		return err
	}
	if err := repos.Notification.UpdateMetadata(ctx, notif.ID, raw); err != nil {
		return fmt.Errorf("update removal metadata: %w", err)
	}
	notif.Metadata = domain.NewNullJSON(raw)
	return nil
}

// ListAppealed returns every removal with a submitted appeal, newest first.
// Metadata that cannot be decoded fails the whole listing.
func (s *service) ListAppealed(ctx context.Context, actor *domain.User) ([]domain.AppealedRemoval, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	notifications, err := s.repos.Notification.ListByAction(ctx, domain.ActionProductRemoved)
	if err != nil {
		return nil, err
	}

	appealed := make([]domain.AppealedRemoval, 0)
	var userIDs, productIDs []uuid.UUID
	for _, n := range notifications {
		metadata, err := n.RemovalMetadata()
		if err != nil {
			return nil, err
		}
		if !metadata.Appealed {
			continue
		}
		appealed = append(appealed, domain.AppealedRemoval{
			Notification: n,
			Metadata:     *metadata,
			HasAppeal:    true,
		})
		userIDs = append(userIDs, n.UserID)
		productIDs = append(productIDs, n.Target)
	}
	if len(appealed) == 0 {
		return appealed, nil
	}

	users, err := s.repos.User.GetSafeByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load appeal authors: %w", err)
	}
	products, err := s.repos.Product.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load appealed products: %w", err)
	}

	for i := range appealed {
		a := &appealed[i]
		if u, ok := users[a.Notification.UserID]; ok {
			a.User = &u
		}
		if p, ok := products[a.Notification.Target]; ok {
			a.Product = &p
		}
	}

	return appealed, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateCache(ctx)
	}
}

// notifyAuthor emails the author in the background. Failures are logged.
func (s *service) notifyAuthor(authorID uuid.UUID, send func(ctx context.Context, to *domain.User) error) {
	if s.emailSvc == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		author, err := s.repos.User.GetByID(ctx, authorID)
		if err != nil || author == nil {
			if err == nil {
				err = errors.New("author not found")
			}
			slog.Warn("failed to load author for moderation email", "user_id", authorID, "error", err)
			return
		}
		if err := send(ctx, author); err != nil {
			slog.Warn("failed to send moderation email", "user_id", authorID, "error", err)
		}
	}()
}
