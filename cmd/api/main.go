package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"prodfind/internal/config"
	"prodfind/internal/domain"
	"prodfind/internal/handler"
	"prodfind/internal/middleware"
	"prodfind/internal/pkg/i18n"
	"prodfind/internal/repository"
	"prodfind/internal/service"
	"prodfind/internal/service/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := i18n.LoadTranslations(cfg.LocalesPath); err != nil {
		slog.Error("failed to load translations", "path", cfg.LocalesPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := config.NewPostgresDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redis, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	minioClient, err := config.NewMinIOClient(ctx, cfg)
	if err != nil {
		slog.Warn("failed to connect to MinIO, media upload will not work", "error", err)
		minioClient = nil
	}

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(repos, repository.NewTransactor(db), redis, minioClient, cfg)
	if err != nil {
		slog.Error("failed to build services", "error", err)
		os.Exit(1)
	}
	handlers := handler.NewHandlers(services)

	app := newApp(cfg)
	setupRoutes(app, handlers, services.Auth)

	go cleanupSessions(repos.Session)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    int(domain.MaxImageSize) + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(middleware.RequestInfo())

	return app
}

func setupRoutes(app *fiber.App, h *handler.Handlers, authService auth.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")
	required := middleware.AuthRequired(authService)
	optional := middleware.AuthOptional(authService)

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Post("/passkeys/login/begin", h.Auth.BeginPasskeyLogin)
	authGroup.Post("/passkeys/login/finish", h.Auth.FinishPasskeyLogin)
	authGroup.Post("/passkeys/register/begin", required, h.Auth.BeginPasskeyRegistration)
	authGroup.Post("/passkeys/register/finish", required, h.Auth.FinishPasskeyRegistration)

	users := v1.Group("/users", required)
	users.Get("/me", h.User.GetProfile)
	users.Post("/me/password", h.User.AddPassword)
	users.Get("/me/passkeys", h.User.ListPasskeys)
	users.Delete("/me/passkeys/:credentialId", h.User.DeletePasskey)

	products := v1.Group("/products")
	products.Get("/", optional, h.Product.List)
	products.Post("/", required, h.Product.Create)
	products.Get("/:productId", optional, h.Product.Get)
	products.Put("/:productId", required, h.Product.Update)
	products.Delete("/:productId", required, h.Product.Delete)
	products.Post("/:productId/images", required, h.Media.Upload)

	products.Get("/:productId/bookmark", optional, h.Bookmark.Status)
	products.Post("/:productId/bookmark", required, h.Bookmark.Add)
	products.Delete("/:productId/bookmark", required, h.Bookmark.Remove)
	products.Get("/:productId/recommendation", optional, h.Recommendation.Status)
	products.Post("/:productId/recommendation", required, h.Recommendation.Add)
	products.Delete("/:productId/recommendation", required, h.Recommendation.Remove)

	products.Get("/:productId/comments", optional, h.Comment.List)
	products.Post("/:productId/comments", required, h.Comment.Create)

	comments := v1.Group("/comments", required)
	comments.Put("/:commentId", h.Comment.Update)
	comments.Delete("/:commentId", h.Comment.Delete)

	me := v1.Group("/me", required)
	me.Get("/bookmarks", h.Bookmark.ListProducts)
	me.Get("/recommendations", h.Recommendation.ListProducts)

	notifications := v1.Group("/notifications", required)
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)
	notifications.Post("/:id/appeal", h.Notification.Appeal)

	admin := v1.Group("/admin", required, middleware.RequireRole(domain.RoleAdmin))
	admin.Post("/products/:productId/remove", h.Moderation.RemoveProduct)
	admin.Post("/products/:productId/restore", h.Moderation.RestoreProduct)
	admin.Get("/appeals", h.Moderation.ListAppealed)
	admin.Post("/appeals/:notificationId/reject", h.Moderation.RejectAppeal)
	admin.Get("/audit", h.Audit.List)
}

// cleanupSessions drops expired and revoked refresh sessions hourly.
func cleanupSessions(sessions repository.SessionRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		n, err := sessions.DeleteExpired(ctx)
		cancel()
		if err != nil {
			slog.Warn("failed to clean up sessions", "error", err)
			continue
		}
		if n > 0 {
			slog.Info("cleaned up sessions", "deleted", n)
		}
	}
}

