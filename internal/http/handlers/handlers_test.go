package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/mocks"
)

var testCaller = domain.CallerIdentity{
	PrincipalID: 1, Identity: "kim", Role: domain.RoleWorker, CompanyID: 1, FactoryID: 10, MenuIDs: []uint{2},
}

func newTestRouter(authSvc domain.AuthService, validator domain.AccessValidator, policies domain.PolicyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ah := NewAuthHandlers(authSvc)
	xh := NewAccessHandlers(validator)
	ph := NewPolicyHandlers(policies)

	withCaller := func(c *gin.Context) {
		c.Set(CallerKey, testCaller)
		c.Set(AccessTokenKey, "token-abc")
		c.Next()
	}

	r := gin.New()
	r.POST("/auth/login", ah.Login)
	r.POST("/auth/refresh", ah.Refresh)
	r.POST("/auth/2fa/request", ah.RequestTwoFactor)
	r.POST("/auth/password/reset", ah.ResetPassword)
	r.PUT("/auth/password", ah.UpdatePassword)
	r.GET("/auth/me", withCaller, ah.Me)
	r.GET("/anon/me", ah.Me)
	r.POST("/auth/logout", withCaller, ah.Logout)
	r.POST("/access/authorize", withCaller, xh.Authorize)
	r.GET("/admin/menus", ph.List)
	r.POST("/admin/menus", ph.Add)
	r.DELETE("/admin/menus", ph.Remove)
	return r
}

func perform(r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
		retryAfter     string
	}{
		{"bad credentials", domain.ErrBadCredentials, http.StatusUnauthorized, `{"error":"Invalid credentials"}`, ""},
		{"expired token", domain.ErrTokenExpired, http.StatusUnauthorized, `{"error":"Unauthorized"}`, ""},
		{"revoked token", fmt.Errorf("bind: %w", domain.ErrTokenRevoked), http.StatusUnauthorized, `{"error":"Unauthorized"}`, ""},
		{"locked", domain.ErrAccountLocked, http.StatusForbidden, `{"error":"Account blocked","code":"LOCKED"}`, ""},
		{"reset required", domain.ErrPasswordResetRequired, http.StatusForbidden, `{"error":"Account blocked","code":"PASSWORD_RESET"}`, ""},
		{"withdrawn", domain.ErrAccountWithdrawn, http.StatusForbidden, `{"error":"Account blocked","code":"WITHDRAWN"}`, ""},
		{"two-factor required", domain.ErrTwoFactorRequired, http.StatusUnauthorized, `{"error":"Two-factor code required","code":"TWO_FACTOR_REQUIRED"}`, ""},
		{"rate limited", &domain.RateLimitedError{RetryAfter: 90500 * time.Millisecond}, http.StatusTooManyRequests, `{"error":"Too many requests","retry_after":91}`, "91"},
		{"rate limited below a second", &domain.RateLimitedError{RetryAfter: 10 * time.Millisecond}, http.StatusTooManyRequests, `{"error":"Too many requests","retry_after":1}`, "1"},
		{"access denied", domain.ErrAccessDenied, http.StatusNotFound, `{"error":"Resource not found"}`, ""},
		{"entity not found", fmt.Errorf("%w: AREA 9", domain.ErrEntityNotFound), http.StatusNotFound, `{"error":"Resource not found"}`, ""},
		{"unknown kind", domain.ErrUnknownEntity, http.StatusBadRequest, `{"error":"Unknown entity kind"}`, ""},
		{"weak password", domain.ErrWeakPassword, http.StatusBadRequest, `{"error":"Password does not meet policy"}`, ""},
		{"internal", fmt.Errorf("failed to find principal: %w", context.DeadlineExceeded), http.StatusInternalServerError, `{"error":"Internal server error"}`, ""},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAuthHandlers_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		loginErr       error
		expectedStatus int
	}{
		{name: "success", body: LoginRequest{Identity: "kim", Password: "pw"}, expectedStatus: http.StatusOK},
		{name: "missing password", body: gin.H{"identity": "kim"}, expectedStatus: http.StatusBadRequest},
		{name: "malformed json", body: "{", expectedStatus: http.StatusBadRequest},
		{name: "bad credentials", body: LoginRequest{Identity: "kim", Password: "pw"}, loginErr: domain.ErrBadCredentials, expectedStatus: http.StatusUnauthorized},
		{name: "locked", body: LoginRequest{Identity: "kim", Password: "pw"}, loginErr: domain.ErrAccountLocked, expectedStatus: http.StatusForbidden},
		{name: "needs code", body: LoginRequest{Identity: "kim", Password: "pw"}, loginErr: domain.ErrTwoFactorRequired, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := mocks.NewMockAuthService()
			var gotCode string
			authSvc.LoginFunc = func(_ context.Context, identity, password, code string) (*domain.SessionTokens, error) {
				gotCode = code
				if tt.loginErr != nil {
					return nil, tt.loginErr
				}
				return &domain.SessionTokens{
					AccessToken:  "access",
					RefreshToken: "refresh",
					ExpiresIn:    900,
					Principal:    &domain.Principal{ID: 1, Identity: identity, Role: domain.RoleWorker, CompanyID: 1, FactoryID: 10},
				}, nil
			}
			r := newTestRouter(authSvc, mocks.NewMockAccessValidator(), mocks.NewMockPolicyService())

			w, body := perform(r, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Empty(t, gotCode)
			if tt.expectedStatus == http.StatusOK {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "access", data["access_token"])
				assert.Equal(t, "refresh", data["refresh_token"])
				assert.Equal(t, "Bearer", data["token_type"])
				assert.Equal(t, float64(900), data["expires_in"])
				assert.Equal(t, "WORKER", data["principal"].(map[string]interface{})["role"])
			}
		})
	}
}

func TestAuthHandlers_LoginPassesCode(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	var gotCode string
	authSvc.LoginFunc = func(_ context.Context, _, _, code string) (*domain.SessionTokens, error) {
		gotCode = code
		return nil, domain.ErrBadCredentials
	}
	r := newTestRouter(authSvc, mocks.NewMockAccessValidator(), mocks.NewMockPolicyService())

	perform(r, http.MethodPost, "/auth/login", LoginRequest{Identity: "lee", Password: "pw", Code: "123456"})
	assert.Equal(t, "123456", gotCode)
}

func TestAuthHandlers_Refresh(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	authSvc.RenewFunc = func(_ context.Context, refreshToken string) (string, error) {
		if refreshToken == "good" {
			return "new-access", nil
		}
		return "", domain.ErrRefreshTokenInvalid
	}
	r := newTestRouter(authSvc, mocks.NewMockAccessValidator(), mocks.NewMockPolicyService())

	w, body := perform(r, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "good"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new-access", body["data"].(map[string]interface{})["access_token"])

	w, body = perform(r, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "stale"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", body["error"])

	w, _ = perform(r, http.MethodPost, "/auth/refresh", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlers_RequestTwoFactor(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	authSvc.RequestTwoFactorCodeFunc = func(_ context.Context, identity string) error {
		if identity == "busy" {
			return &domain.RateLimitedError{RetryAfter: 42 * time.Second}
		}
		return nil
	}
	r := newTestRouter(authSvc, mocks.NewMockAccessValidator(), mocks.NewMockPolicyService())

	w, body := perform(r, http.MethodPost, "/auth/2fa/request", IdentityRequest{Identity: "lee"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, genericDeliveryMessage, body["data"].(map[string]interface{})["message"])

	w, _ = perform(r, http.MethodPost, "/auth/2fa/request", IdentityRequest{Identity: "busy"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
}

func TestAuthHandlers_Passwords(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	authSvc.ResetPasswordFunc = func(_ context.Context, identity string) error {
		if identity == "suspended" {
			return domain.ErrAccountSuspended
		}
		return nil
	}
	authSvc.UpdatePasswordFunc = func(_ context.Context, _, oldPassword, newPassword string) error {
		if len(newPassword) < 8 {
			return domain.ErrWeakPassword
		}
		if oldPassword != "old-password" {
			return domain.ErrBadCredentials
		}
		return nil
	}
	r := newTestRouter(authSvc, mocks.NewMockAccessValidator(), mocks.NewMockPolicyService())

	w, _ := perform(r, http.MethodPost, "/auth/password/reset", IdentityRequest{Identity: "kim"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	w, body := perform(r, http.MethodPost, "/auth/password/reset", IdentityRequest{Identity: "suspended"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "SUSPENDED", body["code"])

	tests := []struct {
		name           string
		req            UpdatePasswordRequest
		expectedStatus int
	}{
		{"updated", UpdatePasswordRequest{Identity: "kim", OldPassword: "old-password", NewPassword: "new-password"}, http.StatusOK},
		{"weak", UpdatePasswordRequest{Identity: "kim", OldPassword: "old-password", NewPassword: "short"}, http.StatusBadRequest},
		{"wrong old", UpdatePasswordRequest{Identity: "kim", OldPassword: "guess", NewPassword: "new-password"}, http.StatusUnauthorized},
		{"missing field", UpdatePasswordRequest{Identity: "kim"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := perform(r, http.MethodPut, "/auth/password", tt.req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthHandlers_MeAndLogout(t *testing.T) {
	authSvc := mocks.NewMockAuthService()
	var revoked string
	authSvc.RevokeSessionFunc = func(_ context.Context, token string) error {
		revoked = token
		return nil
	}
	r := newTestRouter(authSvc, mocks.NewMockAccessValidator(), mocks.NewMockPolicyService())

	w, body := perform(r, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["id"])
	assert.Equal(t, float64(10), data["factory_id"])
	assert.Equal(t, []interface{}{float64(2)}, data["menu_ids"])

	w, _ = perform(r, http.MethodGet, "/anon/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = perform(r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-abc", revoked)
}

func TestAccessHandlers_Authorize(t *testing.T) {
	validator := mocks.NewMockAccessValidator()
	var gotCaller domain.CallerIdentity
	validator.AuthorizeFunc = func(_ context.Context, caller domain.CallerIdentity, kind domain.EntityKind, ids []uint) ([]uint, error) {
		gotCaller = caller
		if kind == "ALARM" {
			return nil, domain.ErrAccessDenied
		}
		return ids[:1], nil
	}
	r := newTestRouter(mocks.NewMockAuthService(), validator, mocks.NewMockPolicyService())

	w, body := perform(r, http.MethodPost, "/access/authorize", AuthorizeRequest{Kind: "AREA", IDs: []uint{5, 6}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(5)}, body["data"].(map[string]interface{})["allowed_ids"])
	assert.Equal(t, testCaller, gotCaller)

	w, _ = perform(r, http.MethodPost, "/access/authorize", AuthorizeRequest{Kind: "ALARM", IDs: []uint{1}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = perform(r, http.MethodPost, "/access/authorize", gin.H{"ids": []uint{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPolicyHandlers(t *testing.T) {
	policies := mocks.NewMockPolicyService()
	var granted, revoked []string
	policies.GrantMenuFunc = func(role domain.Role, menuID uint) error {
		granted = append(granted, fmt.Sprintf("%s:%d", role, menuID))
		return nil
	}
	policies.RevokeMenuFunc = func(role domain.Role, menuID uint) error {
		revoked = append(revoked, fmt.Sprintf("%s:%d", role, menuID))
		return nil
	}
	policies.AccessibleMenuIDsFunc = func(_ context.Context, role domain.Role) ([]uint, error) {
		return []uint{1, 4}, nil
	}
	policies.GetPoliciesFunc = func() [][]string {
		return [][]string{{"role_WORKER", "menu:1", "view"}}
	}
	r := newTestRouter(mocks.NewMockAuthService(), mocks.NewMockAccessValidator(), policies)

	w, _ := perform(r, http.MethodPost, "/admin/menus", gin.H{"role": "worker", "menu_id": 4})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = perform(r, http.MethodDelete, "/admin/menus", gin.H{"role": "MANAGER", "menu_id": 2})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"WORKER:4"}, granted)
	assert.Equal(t, []string{"MANAGER:2"}, revoked)

	w, _ = perform(r, http.MethodPost, "/admin/menus", gin.H{"role": "OWNER", "menu_id": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = perform(r, http.MethodPost, "/admin/menus", gin.H{"role": "WORKER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := perform(r, http.MethodGet, "/admin/menus?role=worker", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(1), float64(4)}, body["data"].(map[string]interface{})["menu_ids"])

	w, body = perform(r, http.MethodGet, "/admin/menus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)
}
