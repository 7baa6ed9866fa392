package models

// Post is a community feed entry
type Post struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string  `gorm:"index;not null" json:"author_id"` // external user ID
	Body     string  `gorm:"type:text;not null" json:"body"`
	ImageURL *string `json:"image_url,omitempty"`

	LikeCount    int64 `gorm:"default:0;not null" json:"like_count"`
	CommentCount int64 `gorm:"default:0;not null" json:"comment_count"`

	Timestamps
}

// Comment belongs to a post; a non-nil ParentCommentID makes it a reply
type Comment struct {
	ID              string  `gorm:"primaryKey;type:uuid" json:"id"`
	PostID          string  `gorm:"index;not null" json:"post_id"`
	AuthorID        string  `gorm:"index;not null" json:"author_id"`
	ParentCommentID *string `gorm:"index" json:"parent_comment_id,omitempty"`
	Body            string  `gorm:"type:text;not null" json:"body"`

	LikeCount int64 `gorm:"default:0;not null" json:"like_count"`

	Timestamps
}

// PostLike is one row per (post, user); the unique index is the dedup guard
type PostLike struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"uniqueIndex:idx_post_likes_post_user;not null" json:"post_id"`
	UserID string `gorm:"uniqueIndex:idx_post_likes_post_user;not null" json:"user_id"`

	Timestamps
}

// CommentLike mirrors PostLike for comments
type CommentLike struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	CommentID string `gorm:"uniqueIndex:idx_comment_likes_comment_user;not null" json:"comment_id"`
	UserID    string `gorm:"uniqueIndex:idx_comment_likes_comment_user;not null" json:"user_id"`

	Timestamps
}
