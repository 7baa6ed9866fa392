package models

import "time"

// NotificationType enumerates every notification kind the hub produces
type NotificationType string

const (
	NotificationPostLike     NotificationType = "post_like"
	NotificationCommentLike  NotificationType = "comment_like"
	NotificationPostComment  NotificationType = "post_comment"
	NotificationCommentReply NotificationType = "comment_reply"
	NotificationLevelUp      NotificationType = "level_up"
	NotificationNewCourse    NotificationType = "new_course"
	NotificationAnnouncement NotificationType = "announcement"
)

// BatchableNotificationTypes are the social types that fold repeated events
// into one row while it stays unread inside the batch window.
var BatchableNotificationTypes = map[NotificationType]bool{
	NotificationPostLike:     true,
	NotificationCommentLike:  true,
	NotificationPostComment:  true,
	NotificationCommentReply: true,
}

// Notification is one feed entry per recipient. For batchable types,
// BatchCount carries the number of folded events and Title/ActorID/CreatedAt
// are rewritten on every fold so the row resurfaces at the top of the feed.
type Notification struct {
	ID         string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string           `gorm:"index:idx_notifications_user_type;not null" json:"user_id"` // recipient
	Type       NotificationType `gorm:"size:32;index:idx_notifications_user_type;not null" json:"type"`
	Title      string           `gorm:"not null" json:"title"`
	Body       *string          `json:"body,omitempty"`
	LinkURL    *string          `json:"link_url,omitempty"`
	BatchCount int              `gorm:"default:1;not null" json:"batch_count"`
	IsRead     bool             `gorm:"default:false;index" json:"is_read"`
	ActorID    *string          `json:"actor_id,omitempty"` // last actor
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
}
