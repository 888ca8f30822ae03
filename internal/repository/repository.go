package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	User           UserRepository
	Session        SessionRepository
	Passkey        PasskeyRepository
	Product        ProductRepository
	Bookmark       BookmarkRepository
	Recommendation RecommendationRepository
	Comment        CommentRepository
	Notification   NotificationRepository
	AuditLog       AuditLogRepository
	Media          MediaRepository
}

// NewRepositories binds every repository to db, which may be a *sqlx.DB or
// a *sqlx.Tx.
func NewRepositories(db sqlx.ExtContext) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Session:        NewSessionRepository(db),
		Passkey:        NewPasskeyRepository(db),
		Product:        NewProductRepository(db),
		Bookmark:       NewBookmarkRepository(db),
		Recommendation: NewRecommendationRepository(db),
		Comment:        NewCommentRepository(db),
		Notification:   NewNotificationRepository(db),
		AuditLog:       NewAuditLogRepository(db),
		Media:          NewMediaRepository(db),
	}
}

// Transactor runs fn with repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(repos *Repositories) error) error
}

type transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) Transactor {
	return &transactor{db: db}
}

func (t *transactor) InTx(ctx context.Context, fn func(repos *Repositories) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(NewRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
