package models

import (
	"time"
)

// CacheEntry represents a cached value stored in the database cache driver.
// Type tags the entry with its logical category so a whole category can be
// invalidated at once.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	Type      string    `gorm:"index;size:64"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
