package http

import (
	"net/http"
	"strings"
	"time"

	"waitlist_funnel/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Context keys set by AuthRequired.
const (
	ctxAdminID   = "admin_id"
	ctxEmail     = "email"
	ctxSessionID = "sid"
)

// TokenParser validates operator tokens.
type TokenParser interface {
	ParseToken(token string) (*usecases.OperatorClaims, error)
}

// SessionChecker reports whether a token's session is still live.
type SessionChecker interface {
	Active(sid string) bool
}

// KeyLimiter decides whether one more request for key is allowed.
type KeyLimiter interface {
	Allow(key string) bool
}

type Middleware struct {
	tokens     TokenParser
	sessions   SessionChecker
	limiter    KeyLimiter
	corsOrigin string
}

func NewMiddleware(tokens TokenParser, sessions SessionChecker, limiter KeyLimiter, corsOrigin string) *Middleware {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Middleware{
		tokens:     tokens,
		sessions:   sessions,
		limiter:    limiter,
		corsOrigin: corsOrigin,
	}
}

func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": "unauthenticated"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.tokens.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "unauthenticated"})
			return
		}
		// Signed but logged out, swept, or issued before a restart.
		if !m.sessions.Active(claims.SessionID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sign in again", "code": "no_session"})
			return
		}

		c.Set(ctxAdminID, claims.AdminID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxSessionID, claims.SessionID)

		logger := zerolog.Ctx(c.Request.Context()).With().Str("sid", claims.SessionID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()
	}
}

// RateLimitPerClient limits requests per client IP.
func (m *Middleware) RateLimitPerClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.limiter != nil && !m.limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}

// CORSMiddleware allows Cross-Origin requests from the configured origin.
func (m *Middleware) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", m.corsOrigin)
		if m.corsOrigin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeaders adds security headers to prevent common attacks
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Writer.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}

// RequestSizeLimiter limits request body size to prevent DoS
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// RequestLogger puts a request-scoped logger in the context and logs each
// request when it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", requestID)

		logger := log.Logger.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		evt := zerolog.Ctx(c.Request.Context()).Info()
		if status >= http.StatusInternalServerError {
			evt = zerolog.Ctx(c.Request.Context()).Error()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("remote_addr", c.ClientIP()).
			Msg("request")
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
