package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/shortshare/shortshare/app/response"
	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
)

const (
	ADMIN_SECRET_HEADER_KEY = "x-admin-secret"
)

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

func Cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Accept-Language, "+ADMIN_SECRET_HEADER_KEY)

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func (s *limiterStore) get(key string, cfg LimitConfig) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(cfg.Every/time.Duration(cfg.Limit)), cfg.Limit)
		s.limiters[key] = l
	}
	return l
}

// UseLimit 以 client ip 维度限流
func UseLimit(key string, opts ...LimitOption) gin.HandlerFunc {
	cfg := LimitConfig{
		Limit: 10,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := &limiterStore{limiters: make(map[string]*rate.Limiter)}

	return func(c *gin.Context) {
		if !store.get(key+":"+c.ClientIP(), cfg).Allow() {
			response.APIError(c, errors.New("middleware.UseLimit."+key, i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}
