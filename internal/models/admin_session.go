package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminSession is a server-side session row for an authenticated admin.
// A session is usable iff IsActive and ExpiresAt is in the future; logout
// soft-deactivates the row rather than deleting it.
type AdminSession struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	Token      string     `gorm:"uniqueIndex;not null" json:"-"`
	AdminID    string     `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin      *AdminUser `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	CSRFToken  string     `gorm:"not null" json:"-"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	IsActive   bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (s *AdminSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
