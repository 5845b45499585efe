package repositories

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
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
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func uintPtr(v uint) *uint { return &v }

// seedTenants creates two companies, each with one factory, one area and
// one employee:
//
//	company 1 -> factory 10 -> area 100, employee 1000
//	company 2 -> factory 20 -> area 200, employee 2000
func seedTenants(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []interface{}{
		&DBCompany{ID: 1, Name: "Acme"},
		&DBCompany{ID: 2, Name: "Globex"},
		&DBFactory{ID: 10, CompanyID: 1, Name: "Acme Plant"},
		&DBFactory{ID: 20, CompanyID: 2, Name: "Globex Plant"},
		&DBArea{ID: 100, FactoryID: 10, Name: "Press line"},
		&DBArea{ID: 200, FactoryID: 20, Name: "Paint shop"},
		&DBPrincipal{ID: 1000, Identity: "acme-worker", FactoryID: 10, Role: "WORKER", Status: "ACTIVE"},
		&DBPrincipal{ID: 2000, Identity: "globex-worker", FactoryID: 20, Role: "WORKER", Status: "ACTIVE"},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("failed to seed %T: %v", row, err)
		}
	}
}
