package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SecurityHeaders adds security-related headers to all responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Next()
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token-bucket limiter per client IP, evicting
// entries not seen within the TTL to bound the map.
type RateLimiter struct {
	ips   map[string]*limiterEntry
	mu    sync.Mutex
	rate  rate.Limit
	burst int
	ttl   time.Duration
}

func NewRateLimiter(r rate.Limit, b int, ttl time.Duration) *RateLimiter {
	rl := &RateLimiter{
		ips:   make(map[string]*limiterEntry),
		rate:  r,
		burst: b,
		ttl:   ttl,
	}

	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for range ticker.C {
			rl.mu.Lock()
			now := time.Now()
			for ip, e := range rl.ips {
				if now.Sub(e.lastSeen) > rl.ttl {
					delete(rl.ips, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.ips[ip]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// RateLimitMiddleware limits each client IP to 100 requests per minute
// with a burst of 50.
func RateLimitMiddleware() gin.HandlerFunc {
	perMinute := rate.Every(time.Minute / 100)
	limiter := NewRateLimiter(perMinute, 50, time.Minute*5)

	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

// CORSMiddleware allows browser clients from the configured origin
// allowlist. "*" allows everything.
func CORSMiddleware(allowedOrigins string) gin.HandlerFunc {
	var allowed []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		allowed = append(allowed, strings.TrimSpace(strings.TrimSuffix(o, "/")))
	}
	allowAll := len(allowed) == 1 && allowed[0] == "*"

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		normalized := strings.TrimSuffix(origin, "/")
		permitted := allowAll
		if !permitted {
			for _, a := range allowed {
				if a == normalized {
					permitted = true
					break
				}
			}
		}
		if !permitted {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Origin not allowed"})
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
