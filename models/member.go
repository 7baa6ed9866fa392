package models

import (
	"time"

	"gorm.io/gorm"
)

// Member is a local snapshot of user data needed for the community hub.
// Owned and managed solely by this service.
// Populated via sync worker from the Profile Service's user table.
type Member struct {
	ID                string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID    string     `gorm:"uniqueIndex;not null" json:"external_user_id"` // The profile service's UUID
	Username          string     `gorm:"index;not null" json:"username"`
	Email             string     `json:"email,omitempty"`
	ProfilePictureURL *string    `json:"profile_picture_url,omitempty"`
	FirstName         *string    `json:"first_name,omitempty"`
	LastName          *string    `json:"last_name,omitempty"`
	Bio               *string    `json:"bio,omitempty"`
	CreatedAt         time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsBanned bool       `json:"is_banned" gorm:"default:false"` // local community ban

	// Soft delete; deleted members are excluded from fan-out and leaderboards
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DisplayName prefers the full name, falling back to the username.
func (m *Member) DisplayName() string {
	if m.FirstName != nil && *m.FirstName != "" {
		name := *m.FirstName
		if m.LastName != nil && *m.LastName != "" {
			name += " " + *m.LastName
		}
		return name
	}
	return m.Username
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
