package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/safetyauth/internal/config"
	"github.com/you/safetyauth/internal/infrastructure/database"
	"github.com/you/safetyauth/internal/infrastructure/repositories"
)

const flowPassword = "correct-horse"

func testConfig() *config.Config {
	return &config.Config{
		Port:                  "0",
		GinMode:               gin.TestMode,
		JWTSecret:             "0123456789abcdef0123456789abcdef",
		JWTIssuer:             "safetyauth",
		AccessTTL:             15 * time.Minute,
		RefreshTTL:            24 * time.Hour,
		TwoFactorCodeLength:   6,
		TwoFactorTTL:          5 * time.Minute,
		TwoFactorResendWindow: 3 * time.Minute,
		TwoFactorMaxAttempts:  5,
		TempPasswordLength:    8,
		MinPasswordLength:     8,
		SweepInterval:         time.Hour,
		BlacklistRetention:    24 * time.Hour,
		ChallengeRetention:    24 * time.Hour,
	}
}

// newTestContainer wires the container over SQLite and miniredis
func newTestContainer(t *testing.T) *Container {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	c := &Container{
		Config:      testConfig(),
		Logger:      zap.NewNop(),
		DB:          db,
		RedisClient: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	c.initRepositories()
	require.NoError(t, c.initServices())
	t.Cleanup(func() { _ = c.Close() })

	seedFlow(t, db)
	require.NoError(t, c.PolicySvc.GrantMenu("WORKER", 3))
	return c
}

func seedFlow(t *testing.T, db *gorm.DB) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(flowPassword), bcrypt.MinCost)
	require.NoError(t, err)

	rows := []interface{}{
		&repositories.DBCompany{ID: 1, Name: "Acme"},
		&repositories.DBCompany{ID: 2, Name: "Globex"},
		&repositories.DBFactory{ID: 10, CompanyID: 1},
		&repositories.DBFactory{ID: 20, CompanyID: 2},
		&repositories.DBArea{ID: 100, FactoryID: 10},
		&repositories.DBArea{ID: 200, FactoryID: 20},
		&repositories.DBPrincipal{ID: 1, Identity: "kim", Name: "Kim", FactoryID: 10, Role: "WORKER", Status: "ACTIVE", PasswordHash: string(hash)},
		&repositories.DBPrincipal{ID: 2, Identity: "root", Name: "Root", FactoryID: 10, Role: "ADMIN", Status: "ACTIVE", PasswordHash: string(hash)},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func login(t *testing.T, h http.Handler, identity string) (string, string) {
	t.Helper()
	w, body := doJSON(t, h, http.MethodPost, "/auth/login", "", gin.H{"identity": identity, "password": flowPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	return data["access_token"].(string), data["refresh_token"].(string)
}

func TestRouter_SessionFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newTestContainer(t).Router()

	access, refresh := login(t, r, "kim")

	w, body := doJSON(t, r, http.MethodGet, "/auth/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := body["data"].(map[string]interface{})
	assert.Equal(t, "kim", me["identity"])
	assert.Equal(t, float64(1), me["company_id"])
	assert.Equal(t, []interface{}{float64(3)}, me["menu_ids"])

	w, body = doJSON(t, r, http.MethodGet, "/scope/area?ids=100,200", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(100)}, body["data"].(map[string]interface{})["ids"])

	w, _ = doJSON(t, r, http.MethodGet, "/scope/area?ids=200", access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = doJSON(t, r, http.MethodPost, "/access/authorize", access, gin.H{"kind": "AREA", "ids": []uint{100, 200}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(100)}, body["data"].(map[string]interface{})["allowed_ids"])

	w, _ = doJSON(t, r, http.MethodGet, "/admin/menus", access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/auth/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AdminMenus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestContainer(t)
	r := c.Router()
	access, _ := login(t, r, "root")

	w, _ := doJSON(t, r, http.MethodPost, "/admin/menus", access, gin.H{"role": "manager", "menu_id": 8})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w, body := doJSON(t, r, http.MethodGet, "/admin/menus?role=MANAGER", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(8)}, body["data"].(map[string]interface{})["menu_ids"])

	// admins see every tenant but still need existing ids
	w, _ = doJSON(t, r, http.MethodGet, "/scope/AREA?ids=100,200", access, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/scope/AREA?ids=100,999", access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_LockoutOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newTestContainer(t).Router()

	for i := 0; i < 4; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"identity": "kim", "password": "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, body := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"identity": "kim", "password": "wrong-password"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "LOCKED", body["code"])

	w, body = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"identity": "kim", "password": flowPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "LOCKED", body["code"])
}

func TestRun_DatabaseUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.DSN = "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, Run(ctx, cfg, zap.NewNop()), "an unreachable database fails startup")
}
