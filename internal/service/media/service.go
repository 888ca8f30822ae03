package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"prodfind/internal/config"
	"prodfind/internal/domain"
	"prodfind/internal/repository"
)

var ErrStorageUnavailable = errors.New("media storage is not configured")

type Service interface {
	UploadProductImage(ctx context.Context, actor *domain.User, productID uuid.UUID, kind domain.MediaKind, file Upload) (*domain.ProductMedia, error)
	DeleteProductMedia(ctx context.Context, productID uuid.UUID) error
}

// Upload describes one file received from a client.
type Upload struct {
	FileName string
	Size     int64
	MimeType string
	Reader   io.Reader
}

// ObjectStore is the subset of the MinIO client used for product media.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type service struct {
	productRepo repository.ProductRepository
	mediaRepo   repository.MediaRepository
	store       ObjectStore
	cfg         *config.Config
}

func NewService(productRepo repository.ProductRepository, mediaRepo repository.MediaRepository, store ObjectStore, cfg *config.Config) Service {
	return &service{
		productRepo: productRepo,
		mediaRepo:   mediaRepo,
		store:       store,
		cfg:         cfg,
	}
}

// UploadProductImage stores an image for a product owned by actor and
// appends it to the product's images, or replaces its icon.
func (s *service) UploadProductImage(ctx context.Context, actor *domain.User, productID uuid.UUID, kind domain.MediaKind, file Upload) (*domain.ProductMedia, error) {
	if actor == nil {
		return nil, domain.Unauthorized("Authentication required")
	}
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if kind != domain.MediaKindImage && kind != domain.MediaKindIcon {
		return nil, domain.Validation("Unknown media kind %q", kind)
	}
	ext, ok := domain.AllowedImageTypes[file.MimeType]
	if !ok {
		return nil, domain.Validation("Unsupported image type %q", file.MimeType)
	}
	if file.Size <= 0 || file.Size > domain.MaxImageSize {
		return nil, domain.Validation("Image must be between 1 byte and %d bytes", domain.MaxImageSize)
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.IsRemoved() {
		return nil, domain.ErrProductNotFound
	}
	if product.AuthorID != actor.ID {
		return nil, domain.ErrNotProductOwner
	}

	mediaID := uuid.New()
	storagePath := fmt.Sprintf("products/%s/%s/%s%s", productID, time.Now().Format("2006/01"), mediaID, ext)

	_, err = s.store.PutObject(ctx, s.cfg.MinIOBucket, storagePath, file.Reader, file.Size, minio.PutObjectOptions{
		ContentType: file.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	media := &domain.ProductMedia{
		ID:          mediaID,
		ProductID:   productID,
		UploadedBy:  actor.ID,
		Kind:        kind,
		FileName:    file.FileName,
		FileSize:    file.Size,
		MimeType:    file.MimeType,
		StoragePath: storagePath,
	}
	media.URL = s.publicURL(storagePath)

	if err := s.attach(ctx, media); err != nil {
		_ = s.store.RemoveObject(ctx, s.cfg.MinIOBucket, storagePath, minio.RemoveObjectOptions{})
		return nil, err
	}

	return media, nil
}

func (s *service) attach(ctx context.Context, media *domain.ProductMedia) error {
	if err := s.mediaRepo.Create(ctx, media); err != nil {
		return err
	}

	var err error
	if media.Kind == domain.MediaKindIcon {
		err = s.productRepo.SetIcon(ctx, media.ProductID, media.URL)
	} else {
		err = s.productRepo.AppendImage(ctx, media.ProductID, domain.ProductImage{ID: media.ID, URL: media.URL})
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	return err
}

// DeleteProductMedia removes every stored object of a product. Objects that
// fail to delete are logged and skipped.
func (s *service) DeleteProductMedia(ctx context.Context, productID uuid.UUID) error {
	items, err := s.mediaRepo.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}

	for _, m := range items {
		if s.store == nil {
			break
		}
		if err := s.store.RemoveObject(ctx, s.cfg.MinIOBucket, m.StoragePath, minio.RemoveObjectOptions{}); err != nil {
			slog.WarnContext(ctx, "failed to remove media object", "path", m.StoragePath, "error", err)
		}
	}

	return s.mediaRepo.DeleteByProduct(ctx, productID)
}

func (s *service) publicURL(storagePath string) string {
	scheme := "http"
	if s.cfg.MinIOPublicUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinIOPublicEndpoint, s.cfg.MinIOBucket, (&url.URL{Path: storagePath}).EscapedPath())
}
