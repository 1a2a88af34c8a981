package models

import (
	"gorm.io/datatypes"
)

// ContactMessage is a submission from the public contact form. Messages are
// stored for review in the admin panel; delivery by email is out of scope.
type ContactMessage struct {
	BaseModel

	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null;index" json:"email"`
	Subject string `json:"subject"`
	Body    string `gorm:"not null;type:text" json:"body"`
	IsRead  bool   `gorm:"default:false;index" json:"is_read"`

	// Meta carries request context captured at submission time
	// (ip, user agent, referrer).
	Meta datatypes.JSON `json:"meta,omitempty"`
}
