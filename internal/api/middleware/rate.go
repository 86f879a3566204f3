package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTimeout drops per-IP limiters that have not been used for this long.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTimeout:       10 * time.Minute,
	}
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return newIPLimiter(cfg, time.Now).handle
}

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	clients   map[string]*ipClient
	lastSweep time.Time
}

func newIPLimiter(cfg RateLimitConfig, now func() time.Time) *ipLimiter {
	return &ipLimiter{
		cfg:       cfg,
		now:       now,
		clients:   make(map[string]*ipClient),
		lastSweep: now(),
	}
}

func (l *ipLimiter) handle(c *gin.Context) {
	if !l.limiter(c.ClientIP()).Allow() {
		tooManyRequests(c)
		return
	}
	c.Next()
}

func (l *ipLimiter) limiter(ip string) *rate.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg.IdleTimeout > 0 && now.Sub(l.lastSweep) >= l.cfg.IdleTimeout {
		for key, client := range l.clients {
			if now.Sub(client.lastSeen) >= l.cfg.IdleTimeout {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	client, ok := l.clients[ip]
	if !ok {
		client = &ipClient{
			limiter: rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst),
		}
		l.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"error":   "rate limit exceeded",
	})
}
