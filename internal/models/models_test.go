package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=1"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&AdminUser{}, &AdminSession{}, &Testimonial{}, &ContactMessage{}, &AuthEvent{}, &CacheEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func TestAdminUserGeneratesUUID(t *testing.T) {
	db := openTestDB(t)

	user := AdminUser{Username: "admin", Email: "admin@example.com", Password: "hash", Role: RoleAdmin}
	require.NoError(t, db.Create(&user).Error)
	require.NotEmpty(t, user.ID)
	require.True(t, user.IsActive)
}

func TestAdminUserSanitizeOmitsSecrets(t *testing.T) {
	now := time.Now()
	user := AdminUser{
		ID:          "u-1",
		Username:    "admin",
		Email:       "admin@example.com",
		Password:    "bcrypt-hash",
		Role:        RoleAdmin,
		LastLoginAt: &now,
	}

	profile := user.Sanitize()
	require.Equal(t, "admin", profile.Username)
	require.Equal(t, RoleAdmin, profile.Role)
	require.NotNil(t, profile.LastLoginAt)
}

func TestAdminSessionBelongsToUser(t *testing.T) {
	db := openTestDB(t)

	user := AdminUser{Username: "admin2", Email: "admin2@example.com", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)

	session := AdminSession{
		Token:     "opaque-token",
		AdminID:   user.ID,
		CSRFToken: "csrf-token",
		ExpiresAt: time.Now().Add(time.Hour),
		IsActive:  true,
	}
	require.NoError(t, db.Create(&session).Error)
	require.NotEmpty(t, session.ID)

	var loaded AdminSession
	require.NoError(t, db.Preload("Admin").Take(&loaded, "token = ?", "opaque-token").Error)
	require.NotNil(t, loaded.Admin)
	require.Equal(t, "admin2", loaded.Admin.Username)
}

func TestTestimonialDefaultsToPending(t *testing.T) {
	db := openTestDB(t)

	entry := Testimonial{Author: "Client", Quote: "Great work"}
	require.NoError(t, db.Create(&entry).Error)

	var loaded Testimonial
	require.NoError(t, db.Take(&loaded, "id = ?", entry.ID).Error)
	require.Equal(t, TestimonialPending, loaded.Status)
}
