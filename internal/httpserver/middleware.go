package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"moviestore/internal/domain"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const principalKey = "principal"

// authMiddleware requires a valid bearer token and stores the principal on the context.
func authMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authorization header required", nil)
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authorization must be a bearer token", nil)
			return
		}
		p, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).Admin {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) domain.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}
	}
	p, _ := v.(domain.Principal)
	return p
}

// limiterSet hands out one token bucket per user. A bucket left idle long
// enough to refill completely is dropped; a fresh one behaves the same.
type limiterSet struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     time.Duration
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(perMinute, burst int) *limiterSet {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	every := time.Minute / time.Duration(perMinute)
	return &limiterSet{
		limiters: make(map[string]*limiterEntry),
		every:    every,
		burst:    burst,
		idle:     every*time.Duration(burst) + time.Minute,
		now:      time.Now,
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}
	e, ok := s.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(s.every), s.burst)}
		s.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (s *limiterSet) sweep(now time.Time) {
	for key, e := range s.limiters {
		if now.Sub(e.lastSeen) >= s.idle {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

// rateLimit throttles mutating requests per authenticated user. A nil set lets everything through.
func rateLimit(set *limiterSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		if set == nil {
			c.Next()
			return
		}
		key := principal(c).UserID
		if key == "" {
			key = c.ClientIP()
		}
		if !set.get(key).Allow() {
			c.Header("Retry-After", strconv.Itoa(int(set.every.Seconds())+1))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		c.Next()
	}
}
