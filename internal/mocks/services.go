package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"prodfind/internal/domain"
)

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	args := m.Called(ctx, userID, unreadOnly, params)
	return args.Get(0).(domain.PaginatedResponse[domain.Notification]), args.Error(1)
}

func (m *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) NotifyProductMark(ctx context.Context, action domain.NotificationAction, product *domain.Product, actorID uuid.UUID) error {
	args := m.Called(ctx, action, product, actorID)
	return args.Error(0)
}

func (m *NotificationService) NotifyComment(ctx context.Context, product *domain.Product, parent *domain.Comment, actor *domain.User) error {
	args := m.Called(ctx, product, parent, actor)
	return args.Error(0)
}

type BotCheck struct {
	mock.Mock
}

func (m *BotCheck) Check(ctx context.Context, meta domain.RequestMeta) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendProductRemovedEmail(ctx context.Context, toEmail, name, productName, reason string) error {
	args := m.Called(ctx, toEmail, name, productName, reason)
	return args.Error(0)
}

func (m *EmailService) SendProductRestoredEmail(ctx context.Context, toEmail, name, productName string) error {
	args := m.Called(ctx, toEmail, name, productName)
	return args.Error(0)
}

func (m *EmailService) SendAppealRejectedEmail(ctx context.Context, toEmail, name, productName, reason string) error {
	args := m.Called(ctx, toEmail, name, productName, reason)
	return args.Error(0)
}

// CacheInvalidator counts invalidations.
type CacheInvalidator struct {
	Calls int
}

func (c *CacheInvalidator) InvalidateCache(ctx context.Context) {
	c.Calls++
}
