// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"konduktv_backend/platform/config"
	"konduktv_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextUserIDKey is the gin context key for the authenticated user ID.
	ContextUserIDKey = "userID"
	// ContextEmailKey is the gin context key for the authenticated user's email.
	ContextEmailKey = "email"

	// RefreshTokenHeader carries the client's refresh token for transparent
	// session renewal. Rotated tokens are returned via the same header on the
	// response together with AccessTokenHeader.
	RefreshTokenHeader = "X-Refresh-Token"
	// AccessTokenHeader carries a renewed access token back to the client.
	AccessTokenHeader = "X-Access-Token"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

// TokenRefresher exchanges a refresh token for a new session with the hosted
// auth backend. Implemented by the identity gateway client.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		log.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")

		// Only add HSTS when serving TLS
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, exists := i.limiters.Load(ip)
	if !exists {
		newLimiter := rate.NewLimiter(i.rate, i.burst)
		i.limiters.Store(ip, newLimiter)
		return newLimiter
	}
	return limiter.(*rate.Limiter)
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := i.getLimiter(ip)

		if !limiter.Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// AuthRateLimiter is a stricter rate limiter for auth endpoints.
type AuthRateLimiter struct {
	*IPRateLimiter
}

// NewAuthRateLimiter creates a rate limiter for authentication endpoints
// with stricter limits (5 requests per minute, burst of 5).
func NewAuthRateLimiter(log *logger.Logger) *AuthRateLimiter {
	return &AuthRateLimiter{
		IPRateLimiter: NewIPRateLimiter(rate.Limit(5.0/60.0), 5, log),
	}
}

// AuthRequired returns middleware that validates hosted-auth access tokens.
// Tokens are HS256 JWTs signed with the auth backend's secret, so validation
// is local. If the token is expired or within the configured leeway of expiry
// and the request carries a refresh token, the session is renewed through the
// refresher and the new tokens are returned via response headers.
func AuthRequired(cfg config.JWTConfig, refresher TokenRefresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}

		claims, err := parseAccessClaims(rawToken, cfg)
		if err != nil {
			if !errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, errInvalidToken)
				return
			}
			// Expired: a refresh token may still rescue the request.
			claims, err = refreshSession(c, cfg, refresher)
			if err != nil {
				abortUnauthorized(c, errInvalidToken)
				return
			}
		} else if expiringSoon(claims, cfg.GetSessionRefreshLeeway()) {
			// Still valid: renew eagerly, but keep serving on the old claims
			// if the refresh fails.
			if renewed, renewErr := refreshSession(c, cfg, refresher); renewErr == nil {
				claims = renewed
			}
		}

		userID, err := parseUserID(claims)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		if email, ok := claims["email"].(string); ok && email != "" {
			c.Set(ContextEmailKey, email)
		}
		c.Next()
	}
}

func refreshSession(c *gin.Context, cfg config.JWTConfig, refresher TokenRefresher) (jwt.MapClaims, error) {
	if refresher == nil {
		return nil, errors.New(errInvalidToken)
	}
	refreshToken := strings.TrimSpace(c.GetHeader(RefreshTokenHeader))
	if refreshToken == "" {
		return nil, errors.New(errMissingToken)
	}

	accessToken, newRefreshToken, err := refresher.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		return nil, err
	}

	claims, err := parseAccessClaims(accessToken, cfg)
	if err != nil {
		return nil, err
	}

	c.Header(AccessTokenHeader, accessToken)
	c.Header(RefreshTokenHeader, newRefreshToken)
	return claims, nil
}

func expiringSoon(claims jwt.MapClaims, leeway time.Duration) bool {
	if leeway <= 0 {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < leeway
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}

func parseAccessClaims(rawToken string, cfg config.JWTConfig) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.GetAuthJWTSecret()), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, err
		}
		return nil, errors.New(errInvalidToken)
	}
	if !parsed.Valid {
		return nil, errors.New(errInvalidToken)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New(errInvalidToken)
	}

	return claims, nil
}

func parseUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	userIDRaw, _ := claims["sub"].(string)
	return uuid.Parse(userIDRaw)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
