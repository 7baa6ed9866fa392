package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"community-hub-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type CourseService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

func NewCourseService(db *gorm.DB, notifications *NotificationService) *CourseService {
	return &CourseService{DB: db, Notifications: notifications}
}

var titleCaser = cases.Title(language.English)

// normalizeTitle trims and title-cases a course name for display
func normalizeTitle(raw string) string {
	return titleCaser.String(strings.TrimSpace(raw))
}

// CreateCourse creates a draft (or scheduled) course with a unique slug
func (s *CourseService) CreateCourse(title, excerpt, coverURL string, publishAt *time.Time) (*models.Course, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("title is required")
	}

	course := models.Course{
		ID:       uuid.NewString(),
		Title:    normalizeTitle(title),
		Slug:     slug.Make(title),
		Excerpt:  excerpt,
		CoverURL: coverURL,
		Status:   models.CourseStatusDraft,
	}
	if publishAt != nil {
		course.Status = models.CourseStatusScheduled
		course.PublishAt = publishAt
	}

	if err := s.DB.Create(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// ListPublished returns courses visible to members
func (s *CourseService) ListPublished() ([]models.Course, error) {
	var courses []models.Course
	err := s.DB.Where("status = ?", models.CourseStatusPublished).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// GetBySlug fetches one course by its slug
func (s *CourseService) GetBySlug(courseSlug string) (*models.Course, error) {
	var course models.Course
	if err := s.DB.Where("slug = ?", courseSlug).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Publish flips a course live and fans out the new-course notification.
// The fan-out is best-effort; a partial failure does not unpublish.
func (s *CourseService) Publish(courseID string) (*models.Course, error) {
	var course models.Course
	if err := s.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return nil, err
	}
	if course.Status == models.CourseStatusPublished {
		return &course, nil
	}

	course.Status = models.CourseStatusPublished
	course.PublishAt = nil
	if err := s.DB.Save(&course).Error; err != nil {
		return nil, err
	}

	if err := s.Notifications.NotifyNewCourse(course.Title, course.Slug); err != nil {
		log.Printf("⚠️ New-course fan-out failed for %s: %v", course.Slug, err)
	}
	log.Printf("✅ Published course: %s", course.Title)
	return &course, nil
}

// publishDueCourses publishes every scheduled course whose time has come.
// Called from the scheduler.
func (s *CourseService) publishDueCourses() {
	var courses []models.Course
	now := time.Now()
	err := s.DB.Where("status = ? AND publish_at <= ?", models.CourseStatusScheduled, now).
		Find(&courses).Error
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}

	for _, c := range courses {
		if _, err := s.Publish(c.ID); err != nil {
			log.Printf("[Scheduler] Failed to publish course %s: %v", c.ID, err)
		} else {
			log.Printf("✅ Auto-published course: %s", c.Title)
		}
	}
}
