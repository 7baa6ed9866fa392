package models

import "time"

// CourseStatus indicates the publishing status of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusScheduled CourseStatus = "scheduled"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course is a learning module offered to members. Scheduled courses are
// flipped to published by the scheduler, which also fans out the
// new-course notification.
type Course struct {
	ID       string       `gorm:"primaryKey;type:uuid" json:"id"`
	Title    string       `gorm:"not null" json:"title"`
	Slug     string       `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt  string       `gorm:"type:text" json:"excerpt"`
	CoverURL string       `gorm:"type:text" json:"cover_url"`
	Status   CourseStatus `gorm:"not null;default:'draft';index" json:"status"`

	PublishAt *time.Time `json:"publish_at,omitempty"`

	Timestamps
}
