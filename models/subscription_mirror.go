package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionMirror mirrors membership billing data from the billing service.
// Read-only here; the billing service owns the source of truth.
// Table name: subscription_mirrors
type SubscriptionMirror struct {
	ID               string     `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID           string     `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"` // External user ID
	Plan             string     `gorm:"type:varchar(64);not null" json:"plan"`
	Status           string     `gorm:"type:varchar(32);not null;index" json:"status"` // active, past_due, canceled
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// HasActiveSubscription reports whether the member's mirrored plan is usable
func (s *SubscriptionMirror) HasActiveSubscription() bool {
	if s.Status != "active" {
		return false
	}
	if s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(time.Now()) {
		return false
	}
	return true
}
