package moderation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prodfind/internal/domain"
	"prodfind/internal/mocks"
	"prodfind/internal/repository"
	"prodfind/internal/service/moderation"
)

type fixture struct {
	products      *mocks.ProductRepository
	notifications *mocks.NotificationRepository
	audit         *mocks.AuditLogRepository
	users         *mocks.UserRepository
	tx            *mocks.Transactor
	cache         *mocks.CacheInvalidator
	svc           moderation.Service
}

func newFixture() *fixture {
	f := &fixture{
		products:      new(mocks.ProductRepository),
		notifications: new(mocks.NotificationRepository),
		audit:         new(mocks.AuditLogRepository),
		users:         new(mocks.UserRepository),
		cache:         new(mocks.CacheInvalidator),
	}
	repos := &repository.Repositories{
		Product:      f.products,
		Notification: f.notifications,
		AuditLog:     f.audit,
		User:         f.users,
	}
	f.tx = &mocks.Transactor{Repos: repos}
	f.svc = moderation.NewService(f.tx, repos, nil, f.cache)
	f.audit.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditLog")).Return(nil).Maybe()
	return f
}

func newAdmin() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Admin", Role: domain.RoleAdmin}
}

func newAuthor() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Author", Role: domain.RoleUser}
}

func removedCopy(p domain.Product, by uuid.UUID, reason string) *domain.Product {
	now := time.Now()
	p.DeletedAt = &now
	p.DeletedBy = &by
	p.DeletionReason = &reason
	return &p
}

func decodeRemoval(t *testing.T, raw domain.NullJSON) domain.RemovalMetadata {
	t.Helper()
	var m domain.RemovalMetadata
	require.NoError(t, json.Unmarshal(raw.Bytes(), &m))
	return m
}

func TestRemoveProduct(t *testing.T) {
	ctx := context.Background()
	admin := newAdmin()
	author := newAuthor()
	product := domain.Product{ID: uuid.New(), AuthorID: author.ID, Name: "Widget", Visibility: domain.VisibilityPublic}

	t.Run("Success notifies author", func(t *testing.T) {
		f := newFixture()
		f.products.On("GetByID", ctx, product.ID).Return(&product, nil).Once()
		f.products.On("SoftDelete", ctx, product.ID, admin.ID, "Spam").Return(removedCopy(product, admin.ID, "Spam"), nil).Once()

		var created *domain.Notification
		f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Notification) }).
			Return(nil).Once()

		removed, err := f.svc.RemoveProduct(ctx, admin, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{Reason: "Spam"})

		require.NoError(t, err)
		assert.NotNil(t, removed.DeletedAt)
		assert.NotNil(t, removed.DeletedBy)
		assert.NotNil(t, removed.DeletionReason)

		require.NotNil(t, created)
		assert.Equal(t, author.ID, created.UserID)
		assert.Equal(t, domain.ActionProductRemoved, created.Action)
		assert.Equal(t, product.ID, created.Target)
		assert.False(t, created.Read)
		meta := decodeRemoval(t, created.Metadata)
		assert.Equal(t, "Widget", meta.ProductName)
		assert.Equal(t, "Spam", meta.Reason)
		assert.True(t, meta.CanAppeal)
		assert.False(t, meta.Appealed)

		assert.Equal(t, 1, f.cache.Calls)
		f.products.AssertExpectations(t)
		f.notifications.AssertExpectations(t)
	})

	t.Run("Default reason", func(t *testing.T) {
		f := newFixture()
		f.products.On("GetByID", ctx, product.ID).Return(&product, nil).Once()
		f.products.On("SoftDelete", ctx, product.ID, admin.ID, domain.DefaultRemovalReason).
			Return(removedCopy(product, admin.ID, domain.DefaultRemovalReason), nil).Once()
		f.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.RemoveProduct(ctx, admin, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{})

		require.NoError(t, err)
		f.products.AssertExpectations(t)
	})

	t.Run("Non admin is forbidden", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.RemoveProduct(ctx, author, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{})

		assert.ErrorIs(t, err, domain.ErrAdminRequired)
		assert.Equal(t, 0, f.tx.Calls)
	})

	t.Run("Anonymous is unauthorized", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.RemoveProduct(ctx, nil, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{})

		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})

	t.Run("Missing product", func(t *testing.T) {
		f := newFixture()
		f.products.On("GetByID", ctx, product.ID).Return(nil, nil).Once()

		_, err := f.svc.RemoveProduct(ctx, admin, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{})

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Already removed", func(t *testing.T) {
		f := newFixture()
		f.products.On("GetByID", ctx, product.ID).Return(removedCopy(product, admin.ID, "Spam"), nil).Once()
		f.products.On("SoftDelete", ctx, product.ID, admin.ID, "Again").Return(nil, nil).Once()

		_, err := f.svc.RemoveProduct(ctx, admin, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{Reason: "Again"})

		assert.ErrorIs(t, err, domain.ErrProductAlreadyRemoved)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Equal(t, 0, f.cache.Calls)
	})
}

func TestRestoreProduct(t *testing.T) {
	ctx := context.Background()
	admin := newAdmin()
	author := newAuthor()
	product := domain.Product{ID: uuid.New(), AuthorID: author.ID, Name: "Widget", Visibility: domain.VisibilityPublic}

	t.Run("Success clears removal and notifies", func(t *testing.T) {
		f := newFixture()
		f.products.On("GetByID", ctx, product.ID).Return(removedCopy(product, admin.ID, "Spam"), nil).Once()
		restored := product
		f.products.On("Restore", ctx, product.ID).Return(&restored, nil).Once()

		var created *domain.Notification
		f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Notification) }).
			Return(nil).Once()

		got, err := f.svc.RestoreProduct(ctx, admin, domain.RequestMeta{}, product.ID)

		require.NoError(t, err)
		assert.Nil(t, got.DeletedAt)
		assert.Nil(t, got.DeletedBy)
		assert.Nil(t, got.DeletionReason)

		require.NotNil(t, created)
		assert.Equal(t, domain.ActionProductRestored, created.Action)
		assert.Equal(t, author.ID, created.UserID)
		var meta domain.DecisionMetadata
		require.NoError(t, json.Unmarshal(created.Metadata.Bytes(), &meta))
		assert.Equal(t, "Widget", meta.ProductName)
		assert.Equal(t, "Your appeal was approved and your product has been restored", meta.Message)
		assert.Equal(t, 1, f.cache.Calls)
	})

	t.Run("Not deleted", func(t *testing.T) {
		f := newFixture()
		f.products.On("GetByID", ctx, product.ID).Return(&product, nil).Once()
		f.products.On("Restore", ctx, product.ID).Return(nil, nil).Once()

		_, err := f.svc.RestoreProduct(ctx, admin, domain.RequestMeta{}, product.ID)

		require.Error(t, err)
		assert.Equal(t, "Product is not deleted", err.Error())
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Non admin is forbidden", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.RestoreProduct(ctx, author, domain.RequestMeta{}, product.ID)

		assert.True(t, domain.IsKind(err, domain.KindForbidden))
	})
}

func removalNotification(recipient uuid.UUID, productID uuid.UUID, meta domain.RemovalMetadata) *domain.Notification {
	n, err := domain.NewNotification(recipient, domain.ActionProductRemoved, productID, nil, meta)
	if err != nil {
		panic(err)
	}
	return n
}

func TestSubmitAppeal(t *testing.T) {
	ctx := context.Background()
	author := newAuthor()
	productID := uuid.New()
	input := domain.AppealInput{AppealMessage: "This was a mistake, please review"}

	t.Run("Success marks notification appealed", func(t *testing.T) {
		f := newFixture()
		notif := removalNotification(author.ID, productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam", CanAppeal: true})
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		var saved json.RawMessage
		f.notifications.On("UpdateMetadata", ctx, notif.ID, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(2).(json.RawMessage) }).
			Return(nil).Once()

		got, err := f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, notif.ID, input)

		require.NoError(t, err)
		meta := decodeRemoval(t, domain.NewNullJSON(saved))
		assert.True(t, meta.Appealed)
		require.NotNil(t, meta.AppealMessage)
		assert.Equal(t, input.AppealMessage, *meta.AppealMessage)
		assert.NotNil(t, meta.AppealDate)
		assert.Equal(t, "Spam", meta.Reason)
		assert.Equal(t, notif.ID, got.ID)
		f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Short message is rejected", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, uuid.New(), domain.AppealInput{AppealMessage: "too short"})

		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.Equal(t, 0, f.tx.Calls)
	})

	t.Run("Already appealed", func(t *testing.T) {
		f := newFixture()
		notif := removalNotification(author.ID, productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam", CanAppeal: true, Appealed: true})
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		_, err := f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, notif.ID, input)

		assert.ErrorIs(t, err, domain.ErrAlreadyAppealed)
		f.notifications.AssertNotCalled(t, "UpdateMetadata", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Cannot appeal", func(t *testing.T) {
		f := newFixture()
		notif := removalNotification(author.ID, productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam"})
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		_, err := f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, notif.ID, input)

		assert.ErrorIs(t, err, domain.ErrNotAppealable)
	})

	t.Run("Someone else's notification", func(t *testing.T) {
		f := newFixture()
		notif := removalNotification(uuid.New(), productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam", CanAppeal: true})
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		_, err := f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, notif.ID, input)

		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("Not a removal", func(t *testing.T) {
		f := newFixture()
		notif, err := domain.NewNotification(author.ID, domain.ActionBookmark, productID, nil, nil)
		require.NoError(t, err)
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		_, err = f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, notif.ID, input)

		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}

func TestRejectAppeal(t *testing.T) {
	ctx := context.Background()
	admin := newAdmin()
	author := newAuthor()
	productID := uuid.New()

	t.Run("No appeal submitted", func(t *testing.T) {
		f := newFixture()
		notif := removalNotification(author.ID, productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam", CanAppeal: true})
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		_, err := f.svc.RejectAppeal(ctx, admin, domain.RequestMeta{}, notif.ID, domain.RejectAppealInput{})

		assert.True(t, domain.IsKind(err, domain.KindConflict))
	})

	t.Run("Default reason", func(t *testing.T) {
		f := newFixture()
		notif := removalNotification(author.ID, productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam", CanAppeal: true, Appealed: true})
		f.notifications.On("GetForUpdate", ctx, notif.ID).Return(notif, nil).Once()

		var saved json.RawMessage
		f.notifications.On("UpdateMetadata", ctx, notif.ID, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(2).(json.RawMessage) }).
			Return(nil).Once()
		f.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.RejectAppeal(ctx, admin, domain.RequestMeta{}, notif.ID, domain.RejectAppealInput{})

		require.NoError(t, err)
		meta := decodeRemoval(t, domain.NewNullJSON(saved))
		require.NotNil(t, meta.RejectionReason)
		assert.Equal(t, "Appeal was reviewed and rejected", *meta.RejectionReason)
	})

	t.Run("Unknown notification", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.notifications.On("GetForUpdate", ctx, id).Return(nil, nil).Once()

		_, err := f.svc.RejectAppeal(ctx, admin, domain.RequestMeta{}, id, domain.RejectAppealInput{})

		assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
	})

	t.Run("Non admin is forbidden", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.RejectAppeal(ctx, author, domain.RequestMeta{}, uuid.New(), domain.RejectAppealInput{})

		assert.ErrorIs(t, err, domain.ErrAdminRequired)
	})
}

// TestRemovalAppealRejectionScenario walks a product through removal, a
// single appeal and its rejection. The product stays removed throughout.
func TestRemovalAppealRejectionScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := newAdmin()
	author := newAuthor()
	product := domain.Product{ID: uuid.New(), AuthorID: author.ID, Name: "Widget", Visibility: domain.VisibilityPublic}
	removed := removedCopy(product, admin.ID, "Spam")

	var inbox []*domain.Notification
	f.notifications.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).
		Run(func(args mock.Arguments) { inbox = append(inbox, args.Get(1).(*domain.Notification)) }).
		Return(nil)
	f.notifications.On("UpdateMetadata", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			id := args.Get(1).(uuid.UUID)
			for _, n := range inbox {
				if n.ID == id {
					n.Metadata = domain.NewNullJSON(args.Get(2).(json.RawMessage))
				}
			}
		}).
		Return(nil)
	f.notifications.On("GetForUpdate", ctx, mock.Anything).
		Return(func(_ context.Context, id uuid.UUID) *domain.Notification {
			for _, n := range inbox {
				if n.ID == id {
					copied := *n
					return &copied
				}
			}
			return nil
		}, nil)

	f.products.On("GetByID", ctx, product.ID).Return(&product, nil).Once()
	f.products.On("SoftDelete", ctx, product.ID, admin.ID, "Spam").Return(removed, nil).Once()

	_, err := f.svc.RemoveProduct(ctx, admin, domain.RequestMeta{}, product.ID, domain.RemoveProductInput{Reason: "Spam"})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	removal := inbox[0]
	assert.Equal(t, domain.ActionProductRemoved, removal.Action)
	assert.False(t, removal.Read)
	assert.True(t, decodeRemoval(t, removal.Metadata).CanAppeal)

	appeal := domain.AppealInput{AppealMessage: "Please reconsider, it is not spam"}
	_, err = f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, removal.ID, appeal)
	require.NoError(t, err)
	assert.True(t, decodeRemoval(t, removal.Metadata).Appealed)

	_, err = f.svc.SubmitAppeal(ctx, author, domain.RequestMeta{}, removal.ID, appeal)
	assert.ErrorIs(t, err, domain.ErrAlreadyAppealed)

	reason := "Invalid claim"
	rejection, err := f.svc.RejectAppeal(ctx, admin, domain.RequestMeta{}, removal.ID, domain.RejectAppealInput{RejectionReason: &reason})
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, domain.ActionAppealRejected, rejection.Action)
	assert.Equal(t, author.ID, rejection.UserID)
	assert.Equal(t, product.ID, rejection.Target)

	meta := decodeRemoval(t, removal.Metadata)
	assert.True(t, meta.AppealRejected)
	require.NotNil(t, meta.RejectionReason)
	assert.Equal(t, reason, *meta.RejectionReason)
	require.NotNil(t, meta.RejectedBy)
	assert.Equal(t, admin.ID, *meta.RejectedBy)
	assert.NotNil(t, meta.RejectedAt)

	_, err = f.svc.RejectAppeal(ctx, admin, domain.RequestMeta{}, removal.ID, domain.RejectAppealInput{})
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	// Rejection never touches the product row.
	f.products.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
	assert.NotNil(t, removed.DeletedAt)
}

func TestListAppealed(t *testing.T) {
	ctx := context.Background()
	admin := newAdmin()
	author := newAuthor()
	productID := uuid.New()

	appealed := removalNotification(author.ID, productID, domain.RemovalMetadata{ProductName: "Widget", Reason: "Spam", CanAppeal: true, Appealed: true})
	pending := removalNotification(author.ID, uuid.New(), domain.RemovalMetadata{ProductName: "Gadget", Reason: "Spam", CanAppeal: true})

	t.Run("Only appealed removals", func(t *testing.T) {
		f := newFixture()
		f.notifications.On("ListByAction", ctx, domain.ActionProductRemoved).
			Return([]domain.Notification{*appealed, *pending}, nil).Once()
		f.users.On("GetSafeByIDs", ctx, []uuid.UUID{author.ID}).
			Return(map[uuid.UUID]domain.SafeUser{author.ID: author.Safe()}, nil).Once()
		f.products.On("GetByIDs", ctx, []uuid.UUID{productID}).
			Return(map[uuid.UUID]domain.Product{productID: {ID: productID, Name: "Widget"}}, nil).Once()

		got, err := f.svc.ListAppealed(ctx, admin)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, appealed.ID, got[0].Notification.ID)
		assert.True(t, got[0].HasAppeal)
		require.NotNil(t, got[0].User)
		assert.Equal(t, "Author", got[0].User.Name)
		require.NotNil(t, got[0].Product)
		assert.Equal(t, "Widget", got[0].Product.Name)
	})

	t.Run("Malformed metadata fails the listing", func(t *testing.T) {
		f := newFixture()
		broken := *appealed
		broken.Metadata = domain.NewNullJSON([]byte(`{"productName":`))
		f.notifications.On("ListByAction", ctx, domain.ActionProductRemoved).
			Return([]domain.Notification{broken}, nil).Once()

		_, err := f.svc.ListAppealed(ctx, admin)

		require.Error(t, err)
		var syntaxErr *json.SyntaxError
		assert.True(t, errors.As(err, &syntaxErr))
	})

	t.Run("Non admin is forbidden", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.ListAppealed(ctx, author)

		assert.ErrorIs(t, err, domain.ErrAdminRequired)
	})
}
