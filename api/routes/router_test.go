package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	internalauth "github.com/dmreyes/milasset-backend/internal/auth"
	pkgAuth "github.com/dmreyes/milasset-backend/pkg/auth"
	"github.com/dmreyes/milasset-backend/pkg/auth/session"
	"github.com/dmreyes/milasset-backend/pkg/config"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/enums"
	"github.com/dmreyes/milasset-backend/pkg/security"
)

type stubSessionVerifier struct{}

func (stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return "refresh-" + accessID, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return session.NewAccessID(), "rotated", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubLimiter struct{}

func (stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	return true, 1, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "milasset-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, authSvc internalauth.Service) http.Handler {
	t.Helper()
	return NewRouter(cfg, nil, nil, nil, nil, nil, stubSessionVerifier{}, Services{Auth: authSvc})
}

func newAuthService(t *testing.T, cfg *config.Config, user *models.User) internalauth.Service {
	t.Helper()
	svc, err := internalauth.NewService(internalauth.ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: stubSessionManager{},
		RateLimiter:    stubLimiter{},
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, role enums.UserRole, baseID *uuid.UUID) *models.User {
	t.Helper()
	hash, err := security.HashPassword("correct horse", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "ops@example.mil",
		Username:     "ops",
		FullName:     "Ops Operator",
		PasswordHash: hash,
		Role:         role,
		BaseID:       baseID,
		IsActive:     true,
	}
}

func TestHealthLive(t *testing.T) {
	cfg := testConfig()
	handler := newTestRouter(t, cfg, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-MilAsset-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	cfg := testConfig()
	handler := newTestRouter(t, cfg, nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/bases"},
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/assets"},
		{http.MethodPost, "/api/v1/purchases"},
		{http.MethodPost, "/api/v1/transfers"},
		{http.MethodGet, "/api/v1/assignments"},
		{http.MethodGet, "/api/v1/expenditures"},
		{http.MethodGet, "/api/v1/audit-log"},
		{http.MethodGet, "/api/v1/dashboard/summary"},
	}
	for _, tc := range paths {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	cfg := testConfig()
	base := uuid.New()
	user := seedUser(t, enums.UserRoleBaseCommander, &base)
	handler := newTestRouter(t, cfg, newAuthService(t, cfg, user))

	body := strings.NewReader(`{"email":"ops@example.mil","password":"correct horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if envelope.Data.AccessToken == "" || envelope.Data.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if strings.Contains(resp.Body.String(), "password_hash") {
		t.Fatal("password hash leaked into response")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg.JWT, envelope.Data.AccessToken)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Role != enums.UserRoleBaseCommander {
		t.Fatalf("expected commander claims got %s", claims.Role)
	}
	if claims.BaseID == nil || *claims.BaseID != base {
		t.Fatal("expected base scope in claims")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	cfg := testConfig()
	user := seedUser(t, enums.UserRoleAdmin, nil)
	handler := newTestRouter(t, cfg, newAuthService(t, cfg, user))

	body := strings.NewReader(`{"email":"ops@example.mil","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuditLogForbiddenForScopedRoles(t *testing.T) {
	cfg := testConfig()
	base := uuid.New()
	handler := newTestRouter(t, cfg, nil)

	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleBaseCommander,
		BaseID: &base,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-log", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
