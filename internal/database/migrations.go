package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AdminUser{},
		&models.AdminSession{},
		&models.AuthEvent{},
		&models.Testimonial{},
		&models.ContactMessage{},
		&models.CacheEntry{},
	)
}

// SeedConfig describes the bootstrap admin account created on first start.
type SeedConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// SeedData creates the initial admin account when no admin users exist yet.
// Subsequent starts are no-ops.
func SeedData(db *gorm.DB, cfg SeedConfig) error {
	var count int64
	if err := db.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		username = "admin"
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		email = "admin@localhost"
	}

	if cfg.AdminPassword == "" {
		return errors.New("seed: admin password is required for first start")
	}

	hashed, err := crypto.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := models.AdminUser{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	return db.Create(&admin).Error
}
