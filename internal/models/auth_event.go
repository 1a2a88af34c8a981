package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth event kinds recorded by the security recorder.
const (
	AuthEventLoginSuccess = "login_success"
	AuthEventLoginFailure = "login_failure"
	AuthEventLockout      = "lockout"
	AuthEventRateLimited  = "rate_limited"
	AuthEventLogout       = "logout"
)

// AuthEvent is an append-only security log row for admin authentication.
type AuthEvent struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	AdminID   *string   `gorm:"type:uuid;index" json:"admin_id"`
	Username  string    `json:"username"`
	Kind      string    `gorm:"not null;index" json:"kind"`
	Detail    string    `json:"detail"`
	IPAddress string    `gorm:"index" json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (e *AuthEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
