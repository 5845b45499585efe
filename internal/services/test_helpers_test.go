package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/infrastructure/auth"
	"github.com/you/safetyauth/internal/infrastructure/repositories"
	"github.com/you/safetyauth/internal/mocks"
)

const (
	testSecret     = "0123456789abcdef0123456789abcdef"
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
	testPassword   = "correct-horse"
)

// testClock is a manually advanced time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testStack wires the real services over an in-memory SQLite database
type testStack struct {
	db         *gorm.DB
	clock      *testClock
	principals domain.PrincipalRepository
	tokens     domain.TokenRepository
	challenges domain.ChallengeRepository
	menus      *mocks.MockMenuProjector
	passwords  *mocks.MockPasswordService
	notifier   *mocks.MockNotifier
	audit      *mocks.MockAuditLogger
	tokenSvc   *TokenServiceImpl
	twoFactor  *TwoFactorServiceImpl
	authSvc    *AuthServiceImpl
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(repositories.Models()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// seedPrincipals creates two tenants:
//
//	company 1 -> factory 10: kim (WORKER, id 1), park (MANAGER, id 2)
//	company 2 -> factory 20: lee (WORKER, id 3), two-factor by SMS
func seedPrincipals(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []interface{}{
		&repositories.DBCompany{ID: 1, Name: "Acme"},
		&repositories.DBCompany{ID: 2, Name: "Globex"},
		&repositories.DBFactory{ID: 10, CompanyID: 1},
		&repositories.DBFactory{ID: 20, CompanyID: 2},
		&repositories.DBPrincipal{ID: 1, Identity: "kim", Name: "Kim", Phone: "+821000000001", FactoryID: 10, Role: "WORKER", Status: "ACTIVE", PasswordHash: "hashed_" + testPassword},
		&repositories.DBPrincipal{ID: 2, Identity: "park", Name: "Park", Phone: "+821000000002", FactoryID: 10, Role: "MANAGER", Status: "ACTIVE", PasswordHash: "hashed_" + testPassword},
		&repositories.DBPrincipal{ID: 3, Identity: "lee", Name: "Lee", Phone: "+821000000003", FactoryID: 20, Role: "WORKER", Status: "ACTIVE", PasswordHash: "hashed_" + testPassword},
		&repositories.DBTenantSetting{CompanyID: 2, TwoFactorEnabled: true, TwoFactorMethod: "SMS"},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("failed to seed %T: %v", row, err)
		}
	}
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db := setupTestDB(t)
	seedPrincipals(t, db)

	s := &testStack{
		db:         db,
		clock:      newTestClock(),
		principals: repositories.NewPrincipalRepository(db),
		tokens:     repositories.NewTokenRepository(db),
		challenges: repositories.NewChallengeRepository(db),
		menus:      mocks.NewMockMenuProjector(),
		passwords:  mocks.NewMockPasswordService(),
		notifier:   mocks.NewMockNotifier(),
		audit:      mocks.NewMockAuditLogger(),
	}
	s.menus.Menus[domain.RoleWorker] = []uint{1, 2}
	s.menus.Menus[domain.RoleManager] = []uint{1, 2, 5}

	signer, err := auth.NewJWTSigner(testSecret, "safetyauth", testAccessTTL)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	signer.WithClock(s.clock.Now)

	s.tokenSvc = NewTokenService(signer, s.tokens, s.principals, s.menus, testRefreshTTL).WithClock(s.clock.Now)
	s.twoFactor = NewTwoFactorService(
		s.challenges,
		repositories.NewTenantSettingRepository(db),
		s.notifier,
		nil,
		TwoFactorConfig{CodeLength: 6, TTL: 5 * time.Minute, ResendWindow: 3 * time.Minute, MaxAttempts: 5},
		zap.NewNop(),
	).WithClock(s.clock.Now)
	s.authSvc = NewAuthService(
		s.principals,
		repositories.NewTenantSettingRepository(db),
		s.passwords,
		s.tokenSvc,
		s.twoFactor,
		s.notifier,
		s.audit,
		AccountConfig{TempPasswordLength: 8, MinPasswordLength: 8},
		zap.NewNop(),
	)
	return s
}

func (s *testStack) principal(t *testing.T, identity string) *domain.Principal {
	t.Helper()
	p, err := s.principals.FindByIdentity(context.Background(), identity)
	if err != nil {
		t.Fatalf("failed to load %s: %v", identity, err)
	}
	return p
}

var digitsPattern = regexp.MustCompile(`\d{6,}`)

// lastCode extracts the code or temporary password from the last message
func (s *testStack) lastCode(t *testing.T) string {
	t.Helper()
	code := digitsPattern.FindString(s.notifier.Last().Body)
	if code == "" {
		t.Fatalf("no code in last notification %q", s.notifier.Last().Body)
	}
	return code
}

func createTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
