package httpkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-signing-secret"

type jwtSettings struct {
	secret string
	leeway time.Duration
}

func (c jwtSettings) GetAuthJWTSecret() string               { return c.secret }
func (c jwtSettings) GetSessionRefreshLeeway() time.Duration { return c.leeway }

type stubRefresher struct {
	access  string
	refresh string
	err     error
	calls   int
}

func (s *stubRefresher) Refresh(_ context.Context, _ string) (string, string, error) {
	s.calls++
	if s.err != nil {
		return "", "", s.err
	}
	return s.access, s.refresh, nil
}

func mintToken(t *testing.T, secret string, userID uuid.UUID, email string, expiresIn time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"exp":   time.Now().Add(expiresIn).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// newSessionRouter mounts an echo handler behind AuthRequired that reports
// the identity the middleware resolved.
func newSessionRouter(cfg jwtSettings, refresher TokenRefresher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(cfg, refresher), func(c *gin.Context) {
		id := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID().String(), "email": id.Email()})
	})
	return r
}

func getMe(r *gin.Engine, accessToken, refreshToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if refreshToken != "" {
		req.Header.Set(RefreshTokenHeader, refreshToken)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredAdmitsValidToken(t *testing.T) {
	userID := uuid.New()
	refresher := &stubRefresher{}
	r := newSessionRouter(jwtSettings{secret: testSecret}, refresher)

	token := mintToken(t, testSecret, userID, "test@b.com", time.Hour)
	w := getMe(r, token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if refresher.calls != 0 {
		t.Fatalf("a healthy token must not trigger a refresh, got %d calls", refresher.calls)
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := newSessionRouter(jwtSettings{secret: testSecret}, &stubRefresher{})

	if w := getMe(r, "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredRejectsBadSignature(t *testing.T) {
	r := newSessionRouter(jwtSettings{secret: testSecret}, &stubRefresher{})

	token := mintToken(t, "some-other-secret", uuid.New(), "test@b.com", time.Hour)
	if w := getMe(r, token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredRefreshesExpiredToken(t *testing.T) {
	userID := uuid.New()
	renewed := mintToken(t, testSecret, userID, "test@b.com", time.Hour)
	refresher := &stubRefresher{access: renewed, refresh: "rotated-refresh"}
	r := newSessionRouter(jwtSettings{secret: testSecret}, refresher)

	expired := mintToken(t, testSecret, userID, "test@b.com", -time.Hour)
	w := getMe(r, expired, "old-refresh")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls)
	}
	if got := w.Header().Get(AccessTokenHeader); got != renewed {
		t.Fatalf("renewed access token not returned, got %q", got)
	}
	if got := w.Header().Get(RefreshTokenHeader); got != "rotated-refresh" {
		t.Fatalf("rotated refresh token not returned, got %q", got)
	}
}

func TestAuthRequiredRejectsExpiredWithoutRefreshToken(t *testing.T) {
	refresher := &stubRefresher{}
	r := newSessionRouter(jwtSettings{secret: testSecret}, refresher)

	expired := mintToken(t, testSecret, uuid.New(), "test@b.com", -time.Hour)
	if w := getMe(r, expired, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if refresher.calls != 0 {
		t.Fatalf("no refresh token was sent, got %d refresh calls", refresher.calls)
	}
}

func TestAuthRequiredRejectsExpiredWhenRefreshFails(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("refresh token revoked")}
	r := newSessionRouter(jwtSettings{secret: testSecret}, refresher)

	expired := mintToken(t, testSecret, uuid.New(), "test@b.com", -time.Hour)
	if w := getMe(r, expired, "old-refresh"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one refresh attempt, got %d", refresher.calls)
	}
}

func TestAuthRequiredEagerlyRenewsNearExpiry(t *testing.T) {
	userID := uuid.New()
	renewed := mintToken(t, testSecret, userID, "test@b.com", time.Hour)
	refresher := &stubRefresher{access: renewed, refresh: "rotated-refresh"}
	r := newSessionRouter(jwtSettings{secret: testSecret, leeway: 5 * time.Minute}, refresher)

	nearExpiry := mintToken(t, testSecret, userID, "test@b.com", time.Minute)
	w := getMe(r, nearExpiry, "old-refresh")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one eager refresh, got %d", refresher.calls)
	}
	if got := w.Header().Get(AccessTokenHeader); got != renewed {
		t.Fatalf("renewed access token not returned, got %q", got)
	}
}

func TestAuthRequiredServesOnOldClaimsWhenEagerRefreshFails(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("refresh backend down")}
	r := newSessionRouter(jwtSettings{secret: testSecret, leeway: 5 * time.Minute}, refresher)

	// Still-valid token: a failed eager renewal must not break the request.
	nearExpiry := mintToken(t, testSecret, uuid.New(), "test@b.com", time.Minute)
	w := getMe(r, nearExpiry, "old-refresh")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one eager refresh attempt, got %d", refresher.calls)
	}
	if got := w.Header().Get(AccessTokenHeader); got != "" {
		t.Fatalf("no renewed token should be returned, got %q", got)
	}
}
