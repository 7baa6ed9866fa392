package services

import (
	"testing"
	"time"

	"community-hub-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourse(t *testing.T) {
	db := newTestDB(t)
	svc := NewCourseService(db, NewNotificationService(db))

	t.Run("SlugAndTitleNormalization", func(t *testing.T) {
		course, err := svc.CreateCourse("  intro to sourdough baking ", "Starter basics", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "Intro To Sourdough Baking", course.Title)
		assert.Equal(t, "intro-to-sourdough-baking", course.Slug)
		assert.Equal(t, models.CourseStatusDraft, course.Status)
	})

	t.Run("PublishAtMeansScheduled", func(t *testing.T) {
		at := time.Now().Add(time.Hour)
		course, err := svc.CreateCourse("Advanced Proofing", "", "", &at)
		require.NoError(t, err)
		assert.Equal(t, models.CourseStatusScheduled, course.Status)
		require.NotNil(t, course.PublishAt)
	})

	t.Run("BlankTitleRejected", func(t *testing.T) {
		_, err := svc.CreateCourse("   ", "", "", nil)
		assert.Error(t, err)
	})

	t.Run("DuplicateSlugRejected", func(t *testing.T) {
		_, err := svc.CreateCourse("Intro to Sourdough Baking", "", "", nil)
		assert.Error(t, err)
	})
}

func TestPublishCourse(t *testing.T) {
	db := newTestDB(t)
	notifications := NewNotificationService(db)
	svc := NewCourseService(db, notifications)

	seedMember(t, db, "alice", "alice")
	seedMember(t, db, "bob", "bob")

	course, err := svc.CreateCourse("Knife Skills", "", "", nil)
	require.NoError(t, err)

	t.Run("PublishFansOut", func(t *testing.T) {
		published, err := svc.Publish(course.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CourseStatusPublished, published.Status)
		assert.Nil(t, published.PublishAt)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("type = ?", models.NotificationNewCourse).
			Count(&count).Error)
		assert.Equal(t, int64(2), count)

		listed, err := svc.ListPublished()
		require.NoError(t, err)
		require.Len(t, listed, 1)
	})

	t.Run("RepublishIsIdempotent", func(t *testing.T) {
		_, err := svc.Publish(course.ID)
		require.NoError(t, err)

		// No second fan-out for an already-published course
		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("type = ?", models.NotificationNewCourse).
			Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("GetBySlug", func(t *testing.T) {
		found, err := svc.GetBySlug("knife-skills")
		require.NoError(t, err)
		assert.Equal(t, course.ID, found.ID)

		_, err = svc.GetBySlug("missing")
		assert.Error(t, err)
	})
}

func TestPublishDueCourses(t *testing.T) {
	db := newTestDB(t)
	svc := NewCourseService(db, NewNotificationService(db))

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	due, err := svc.CreateCourse("Due Course", "", "", &past)
	require.NoError(t, err)
	notDue, err := svc.CreateCourse("Future Course", "", "", &future)
	require.NoError(t, err)

	svc.publishDueCourses()

	var fresh models.Course
	require.NoError(t, db.First(&fresh, "id = ?", due.ID).Error)
	assert.Equal(t, models.CourseStatusPublished, fresh.Status)

	require.NoError(t, db.First(&fresh, "id = ?", notDue.ID).Error)
	assert.Equal(t, models.CourseStatusScheduled, fresh.Status)
}
