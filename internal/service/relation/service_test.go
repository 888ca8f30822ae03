package relation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prodfind/internal/domain"
	"prodfind/internal/mocks"
	"prodfind/internal/repository"
	"prodfind/internal/service/notification"
	"prodfind/internal/service/relation"
)

func TestBookmark_Add(t *testing.T) {
	ctx := context.Background()
	owner := &domain.User{ID: uuid.New(), Name: "Owner"}
	other := &domain.User{ID: uuid.New(), Name: "Other"}
	product := &domain.Product{ID: uuid.New(), AuthorID: owner.ID, Name: "Widget", Visibility: domain.VisibilityPublic}

	newService := func() (*mocks.RelationRepository, *mocks.ProductRepository, *mocks.NotificationRepository, relation.Service) {
		relRepo := new(mocks.RelationRepository)
		productRepo := new(mocks.ProductRepository)
		notifRepo := new(mocks.NotificationRepository)
		notifSvc := notification.NewService(notifRepo, new(mocks.UserRepository), productRepo)
		return relRepo, productRepo, notifRepo, relation.NewBookmarkService(relRepo, productRepo, notifSvc)
	}

	t.Run("Own product inserts without notification", func(t *testing.T) {
		relRepo, productRepo, notifRepo, svc := newService()
		productRepo.On("GetByID", ctx, product.ID).Return(product, nil).Once()
		relRepo.On("Add", ctx, product.ID, owner.ID).Return(true, nil).Once()

		err := svc.Add(ctx, owner, product.ID)

		require.NoError(t, err)
		relRepo.AssertExpectations(t)
		notifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Other's product notifies once", func(t *testing.T) {
		relRepo, productRepo, notifRepo, svc := newService()
		productRepo.On("GetByID", ctx, product.ID).Return(product, nil).Once()
		relRepo.On("Add", ctx, product.ID, other.ID).Return(true, nil).Once()
		notifRepo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == owner.ID &&
				n.Action == domain.ActionBookmark &&
				n.Target == product.ID &&
				n.ActorID != nil && *n.ActorID == other.ID &&
				!n.Metadata.Valid
		})).Return(nil).Once()

		err := svc.Add(ctx, other, product.ID)

		require.NoError(t, err)
		notifRepo.AssertExpectations(t)
	})

	t.Run("Repeat add does not notify again", func(t *testing.T) {
		relRepo, productRepo, notifRepo, svc := newService()
		productRepo.On("GetByID", ctx, product.ID).Return(product, nil).Once()
		relRepo.On("Add", ctx, product.ID, other.ID).Return(false, nil).Once()

		err := svc.Add(ctx, other, product.ID)

		require.NoError(t, err)
		notifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Private product of someone else is not found", func(t *testing.T) {
		relRepo, productRepo, _, svc := newService()
		private := *product
		private.Visibility = domain.VisibilityPrivate
		productRepo.On("GetByID", ctx, product.ID).Return(&private, nil).Once()

		err := svc.Add(ctx, other, product.ID)

		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		relRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Anonymous", func(t *testing.T) {
		_, _, _, svc := newService()

		err := svc.Add(ctx, nil, product.ID)

		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})
}

func TestRecommendation_InvalidatesListing(t *testing.T) {
	ctx := context.Background()
	owner := &domain.User{ID: uuid.New()}
	other := &domain.User{ID: uuid.New()}
	product := &domain.Product{ID: uuid.New(), AuthorID: owner.ID, Visibility: domain.VisibilityUnlisted}

	var relRepo repository.RecommendationRepository = new(mocks.RelationRepository)
	rel := relRepo.(*mocks.RelationRepository)
	productRepo := new(mocks.ProductRepository)
	notifSvc := new(mocks.NotificationService)
	cache := new(mocks.CacheInvalidator)
	svc := relation.NewRecommendationService(relRepo, productRepo, notifSvc, cache)

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil).Once()
	rel.On("Add", ctx, product.ID, other.ID).Return(true, nil).Once()
	notifSvc.On("NotifyProductMark", ctx, domain.ActionRecommendation, product, other.ID).Return(nil).Once()

	require.NoError(t, svc.Add(ctx, other, product.ID))
	assert.Equal(t, 1, cache.Calls)

	rel.On("Remove", ctx, product.ID, other.ID).Return(true, nil).Once()
	require.NoError(t, svc.Remove(ctx, other, product.ID))
	assert.Equal(t, 2, cache.Calls)

	rel.On("Remove", ctx, product.ID, other.ID).Return(false, nil).Once()
	require.NoError(t, svc.Remove(ctx, other, product.ID))
	assert.Equal(t, 2, cache.Calls)

	notifSvc.AssertExpectations(t)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	relRepo := new(mocks.RelationRepository)
	svc := relation.NewBookmarkService(relRepo, new(mocks.ProductRepository), nil)
	productID := uuid.New()
	user := &domain.User{ID: uuid.New()}

	t.Run("Anonymous is false", func(t *testing.T) {
		marked, err := svc.Status(ctx, nil, productID)

		require.NoError(t, err)
		assert.False(t, marked)
		relRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Signed in", func(t *testing.T) {
		relRepo.On("Exists", ctx, productID, user.ID).Return(true, nil).Once()

		marked, err := svc.Status(ctx, user, productID)

		require.NoError(t, err)
		assert.True(t, marked)
	})
}
