package models

import "time"

// PointSourceType identifies what kind of content triggered a point event
type PointSourceType string

const (
	PointSourcePost    PointSourceType = "post"
	PointSourceComment PointSourceType = "comment"
)

// PointEvent is the append-only audit trail of every point mutation.
// Rows are never updated or deleted.
type PointEvent struct {
	ID           string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string          `gorm:"index;not null" json:"user_id"` // recipient (external user ID)
	Points       int             `gorm:"not null" json:"points"`        // signed delta
	Reason       string          `gorm:"size:64;not null;index" json:"reason"`
	SourceUserID string          `gorm:"index" json:"source_user_id"` // actor
	SourceType   PointSourceType `gorm:"size:16" json:"source_type"`
	SourceID     string          `json:"source_id"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

// UserPointsState is the denormalized running total per member.
// Invariant: Level == CalculateLevel(Points) after every mutation, and
// Points is clamped at zero.
type UserPointsState struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Points         int    `gorm:"default:0;not null" json:"points"`
	Level          int    `gorm:"default:1;not null" json:"level"`

	Timestamps
}
