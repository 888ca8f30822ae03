package handler

import "prodfind/internal/service"

type Handlers struct {
	Auth           *AuthHandler
	User           *UserHandler
	Product        *ProductHandler
	Moderation     *ModerationHandler
	Bookmark       *RelationHandler
	Recommendation *RelationHandler
	Comment        *CommentHandler
	Notification   *NotificationHandler
	Media          *MediaHandler
	Audit          *AuditHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:           NewAuthHandler(services.Auth),
		User:           NewUserHandler(services.User),
		Product:        NewProductHandler(services.Product),
		Moderation:     NewModerationHandler(services.Moderation),
		Bookmark:       NewRelationHandler(services.Bookmark, "bookmarked"),
		Recommendation: NewRelationHandler(services.Recommendation, "recommended"),
		Comment:        NewCommentHandler(services.Comment),
		Notification:   NewNotificationHandler(services.Notification, services.Moderation),
		Media:          NewMediaHandler(services.Media),
		Audit:          NewAuditHandler(services.Audit),
	}
}
