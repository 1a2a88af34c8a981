package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin role names, ordered moderator < admin.
const (
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// AdminUser is an administrator account for the portfolio admin panel.
type AdminUser struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Role     string `gorm:"not null;default:moderator" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// FailedAttempts resets to zero on any successful login. LockedUntil is
	// set only once FailedAttempts reaches the configured threshold.
	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	Sessions []AdminSession `gorm:"foreignKey:AdminID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Profile is the sanitized view of an admin user returned to clients.
// It never carries the password hash or lockout counters.
type Profile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// Sanitize converts the user into its public profile representation.
func (u *AdminUser) Sanitize() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
	}
}
