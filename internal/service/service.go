package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"prodfind/internal/config"
	"prodfind/internal/repository"
	"prodfind/internal/service/audit"
	"prodfind/internal/service/auth"
	"prodfind/internal/service/botcheck"
	"prodfind/internal/service/comment"
	"prodfind/internal/service/email"
	"prodfind/internal/service/media"
	"prodfind/internal/service/moderation"
	"prodfind/internal/service/notification"
	"prodfind/internal/service/product"
	"prodfind/internal/service/relation"
	"prodfind/internal/service/user"
)

type Services struct {
	Auth           auth.Service
	User           user.Service
	Product        product.Service
	Moderation     moderation.Service
	Bookmark       relation.Service
	Recommendation relation.Service
	Comment        comment.Service
	Notification   notification.Service
	Media          media.Service
	Email          email.Service
	Audit          audit.Service
	BotCheck       botcheck.Service
}

func NewServices(
	repos *repository.Repositories,
	tx repository.Transactor,
	redis *redis.Client,
	minioClient *minio.Client,
	cfg *config.Config,
) (*Services, error) {
	authService, err := auth.NewService(repos.User, repos.Session, repos.Passkey, redis, cfg)
	if err != nil {
		return nil, err
	}

	var store media.ObjectStore
	if minioClient != nil {
		store = minioClient
	}

	emailService := email.NewService(cfg)
	botCheckService := botcheck.NewService(redis, cfg.BotCreateLimit, cfg.BotCreateWindow)
	notificationService := notification.NewService(repos.Notification, repos.User, repos.Product)
	mediaService := media.NewService(repos.Product, repos.Media, store, cfg)
	productService := product.NewService(repos.Product, repos.User, botCheckService, mediaService, redis)
	moderationService := moderation.NewService(tx, repos, emailService, productService)
	bookmarkService := relation.NewBookmarkService(repos.Bookmark, repos.Product, notificationService)
	recommendationService := relation.NewRecommendationService(repos.Recommendation, repos.Product, notificationService, productService)
	commentService := comment.NewService(repos.Comment, repos.Product, botCheckService, notificationService, redis)

	return &Services{
		Auth:           authService,
		User:           user.NewService(repos.User, repos.Passkey),
		Product:        productService,
		Moderation:     moderationService,
		Bookmark:       bookmarkService,
		Recommendation: recommendationService,
		Comment:        commentService,
		Notification:   notificationService,
		Media:          mediaService,
		Email:          emailService,
		Audit:          audit.NewService(repos.AuditLog),
		BotCheck:       botCheckService,
	}, nil
}
