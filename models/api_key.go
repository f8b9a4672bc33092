package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey authenticates callers of the verification API. Only a bcrypt hash
// of the issued token is stored; Prefix is kept in clear for lookup.
type APIKey struct {
	gorm.Model
	Name     string     `gorm:"not null" json:"name"`
	Prefix   string     `gorm:"uniqueIndex;not null" json:"prefix"`
	KeyHash  string     `gorm:"not null" json:"-"`
	LastUsed *time.Time `json:"last_used"`
	IsActive bool       `gorm:"default:true" json:"is_active"`

	// Relations
	Jobs []VerificationJob `gorm:"foreignKey:APIKeyID" json:"-"`
}
