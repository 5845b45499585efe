package main

import (
	"fmt"
	"log"

	"github.com/you/safetyauth/internal/config"
	"github.com/you/safetyauth/internal/infrastructure/auth"
	"github.com/you/safetyauth/internal/infrastructure/database"
	"github.com/you/safetyauth/internal/infrastructure/repositories"
	"github.com/you/safetyauth/internal/services"
)

// Connects to the configured database, migrates it and seeds the default
// route policy, then prints table counts.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Open(cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("database connection ok")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("migration ok")

	cas, err := auth.NewCasbinService(db, cfg.CasbinModelPath)
	if err != nil {
		log.Fatalf("Failed to load policies: %v", err)
	}
	if err := services.NewPolicyService(cas.E).SeedDefaults(); err != nil {
		log.Fatalf("Failed to seed policies: %v", err)
	}

	for _, m := range repositories.Models() {
		var n int64
		if err := db.Model(m).Count(&n).Error; err != nil {
			log.Fatalf("Failed to count %T: %v", m, err)
		}
		fmt.Printf("  %-28T %d\n", m, n)
	}
}
