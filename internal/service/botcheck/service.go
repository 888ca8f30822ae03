package botcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"prodfind/internal/domain"
)

// Service decides whether a mutating request comes from automation.
type Service interface {
	Check(ctx context.Context, meta domain.RequestMeta) error
}

var automationAgents = []string{
	"bot", "crawler", "spider", "scrapy", "curl/", "wget/", "python-requests",
	"python-urllib", "httpclient", "headlesschrome", "phantomjs", "selenium", "puppeteer",
}

type service struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewService(redis *redis.Client, limit int64, window time.Duration) Service {
	return &service{
		redis:  redis,
		limit:  limit,
		window: window,
	}
}

func (s *service) Check(ctx context.Context, meta domain.RequestMeta) error {
	if IsAutomatedAgent(meta.UserAgent) {
		slog.InfoContext(ctx, "bot check rejected user agent", "ip", meta.IPAddress, "user_agent", meta.UserAgent)
		return domain.ErrBotDetected
	}

	if s.redis == nil || s.limit <= 0 || meta.IPAddress == "" {
		return nil
	}

	count, err := s.hit(ctx, meta.IPAddress)
	if err != nil {
		slog.WarnContext(ctx, "bot check rate counter unavailable", "error", err)
		return nil
	}
	if count > s.limit {
		slog.InfoContext(ctx, "bot check rate limit exceeded", "ip", meta.IPAddress, "count", count)
		return domain.ErrBotDetected
	}
	return nil
}

// hit counts a mutation in the current fixed window for ip.
func (s *service) hit(ctx context.Context, ip string) (int64, error) {
	key := fmt.Sprintf("botcheck:%s", ip)

	pipe := s.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func IsAutomatedAgent(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}
	for _, marker := range automationAgents {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
