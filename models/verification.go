package models

import (
	"time"

	"gorm.io/gorm"
)

// VerificationJob represents one bulk classification run.
type VerificationJob struct {
	gorm.Model
	APIKeyID uint `gorm:"not null;index" json:"api_key_id"`

	Name           string     `json:"name"`
	Status         string     `gorm:"default:'pending'" json:"status"` // pending, processing, completed, failed
	Policy         string     `gorm:"default:'strict'" json:"policy"`  // strict, lenient
	MaxConcurrency int        `json:"max_concurrency"`
	TotalCount     int        `gorm:"default:0" json:"total_count"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`

	// Verdict tallies
	OkayCount  int `gorm:"default:0" json:"okay_count"`
	DoNotCount int `gorm:"default:0" json:"do_not_count"`
	MaybeCount int `gorm:"default:0" json:"maybe_count"`

	// Relations
	Rows []VerificationRow `gorm:"foreignKey:JobID" json:"rows,omitempty"`
}

// VerificationRow stores one classified address of a job. Position keeps
// the original input order for exports.
type VerificationRow struct {
	gorm.Model
	JobID    uint `gorm:"not null;index" json:"job_id"`
	Position int  `gorm:"not null" json:"position"`

	Email       string `gorm:"not null" json:"email"`
	Verdict     string `gorm:"not null" json:"verdict"` // okay_to_send, do_not_send, maybe_send
	Reason      string `gorm:"not null" json:"reason"`
	Detail      string `json:"detail"`
	RoleAccount bool   `gorm:"default:false" json:"role_account"`
}
