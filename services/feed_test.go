package services

import (
	"errors"
	"testing"

	"community-hub-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type feedFixture struct {
	db            *FeedService
	points        *PointsService
	notifications *NotificationService
}

func newFeedFixture(t *testing.T) feedFixture {
	t.Helper()
	db := newTestDB(t)
	points := NewPointsService(db)
	notifications := NewNotificationService(db)
	feed := NewFeedService(db, points, notifications)

	// Members as the sync worker delivers them; the first award creates the
	// points state on demand.
	for _, id := range []string{"author", "fan", "other"} {
		seedMember(t, db, id, id)
	}
	return feedFixture{db: feed, points: points, notifications: notifications}
}

func (f feedFixture) pointsFor(t *testing.T, userID string) int {
	t.Helper()
	var state models.UserPointsState
	err := f.db.DB.Where("external_user_id = ?", userID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	require.NoError(t, err)
	return state.Points
}

func TestLikePost(t *testing.T) {
	t.Run("AwardsPointsAndNotifies", func(t *testing.T) {
		f := newFeedFixture(t)
		post, err := f.db.CreatePost("author", "hello world", nil)
		require.NoError(t, err)

		require.NoError(t, f.db.LikePost("fan", post.ID))

		assert.Equal(t, DefaultPointWeights.PostLike, f.pointsFor(t, "author"))

		notifications, err := f.notifications.List("author", 10)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationPostLike, notifications[0].Type)
		assert.Equal(t, "fan liked your post", notifications[0].Title)

		var fresh models.Post
		require.NoError(t, f.db.DB.First(&fresh, "id = ?", post.ID).Error)
		assert.Equal(t, int64(1), fresh.LikeCount)
	})

	t.Run("DuplicateLikeRejected", func(t *testing.T) {
		f := newFeedFixture(t)
		post, err := f.db.CreatePost("author", "hello", nil)
		require.NoError(t, err)

		require.NoError(t, f.db.LikePost("fan", post.ID))
		assert.ErrorIs(t, f.db.LikePost("fan", post.ID), ErrAlreadyLiked)

		// Neither points nor count moved twice
		assert.Equal(t, DefaultPointWeights.PostLike, f.pointsFor(t, "author"))
	})

	t.Run("SelfLikeGivesNoPointsOrNotification", func(t *testing.T) {
		f := newFeedFixture(t)
		post, err := f.db.CreatePost("author", "hello", nil)
		require.NoError(t, err)

		require.NoError(t, f.db.LikePost("author", post.ID))

		assert.Equal(t, 0, f.pointsFor(t, "author"))
		notifications, err := f.notifications.List("author", 10)
		require.NoError(t, err)
		assert.Len(t, notifications, 0)
	})

	t.Run("MissingPost", func(t *testing.T) {
		f := newFeedFixture(t)
		assert.Error(t, f.db.LikePost("fan", "nope"))
	})
}

func TestUnlikePost(t *testing.T) {
	f := newFeedFixture(t)
	post, err := f.db.CreatePost("author", "hello", nil)
	require.NoError(t, err)

	t.Run("NotLikedYet", func(t *testing.T) {
		assert.ErrorIs(t, f.db.UnlikePost("fan", post.ID), ErrNotLiked)
	})

	t.Run("RevokesPoints", func(t *testing.T) {
		require.NoError(t, f.db.LikePost("fan", post.ID))
		require.Equal(t, DefaultPointWeights.PostLike, f.pointsFor(t, "author"))

		require.NoError(t, f.db.UnlikePost("fan", post.ID))
		assert.Equal(t, 0, f.pointsFor(t, "author"))

		var fresh models.Post
		require.NoError(t, f.db.DB.First(&fresh, "id = ?", post.ID).Error)
		assert.Equal(t, int64(0), fresh.LikeCount)
	})

	t.Run("LikeAgainAfterUnlike", func(t *testing.T) {
		assert.NoError(t, f.db.LikePost("fan", post.ID))
	})
}

func TestCreateComment(t *testing.T) {
	t.Run("TopLevelAwardsPostAuthor", func(t *testing.T) {
		f := newFeedFixture(t)
		post, err := f.db.CreatePost("author", "hello", nil)
		require.NoError(t, err)

		comment, err := f.db.CreateComment("fan", post.ID, "nice!", nil)
		require.NoError(t, err)
		assert.Nil(t, comment.ParentCommentID)

		assert.Equal(t, DefaultPointWeights.PostComment, f.pointsFor(t, "author"))

		notifications, err := f.notifications.List("author", 10)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationPostComment, notifications[0].Type)
	})

	t.Run("ReplyAwardsParentCommentAuthor", func(t *testing.T) {
		f := newFeedFixture(t)
		post, err := f.db.CreatePost("author", "hello", nil)
		require.NoError(t, err)
		parent, err := f.db.CreateComment("fan", post.ID, "nice!", nil)
		require.NoError(t, err)

		_, err = f.db.CreateComment("other", post.ID, "agreed", &parent.ID)
		require.NoError(t, err)

		assert.Equal(t, DefaultPointWeights.CommentReply, f.pointsFor(t, "fan"))

		notifications, err := f.notifications.List("fan", 10)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, models.NotificationCommentReply, notifications[0].Type)
	})

	t.Run("ReplyToForeignPostComment", func(t *testing.T) {
		f := newFeedFixture(t)
		postA, err := f.db.CreatePost("author", "a", nil)
		require.NoError(t, err)
		postB, err := f.db.CreatePost("author", "b", nil)
		require.NoError(t, err)
		parent, err := f.db.CreateComment("fan", postA.ID, "nice!", nil)
		require.NoError(t, err)

		// Parent must belong to the same post
		_, err = f.db.CreateComment("other", postB.ID, "agreed", &parent.ID)
		assert.Error(t, err)
	})

	t.Run("LevelUpNotificationOnThreshold", func(t *testing.T) {
		f := newFeedFixture(t)
		post, err := f.db.CreatePost("author", "hello", nil)
		require.NoError(t, err)

		// One comment = 10 points = exactly the level 2 threshold
		_, err = f.db.CreateComment("fan", post.ID, "nice!", nil)
		require.NoError(t, err)

		var levelUps []models.Notification
		require.NoError(t, f.db.DB.
			Where("user_id = ? AND type = ?", "author", models.NotificationLevelUp).
			Find(&levelUps).Error)
		require.Len(t, levelUps, 1)
		assert.Equal(t, "You reached level 2! 🎉", levelUps[0].Title)
	})
}

func TestCommentLikes(t *testing.T) {
	f := newFeedFixture(t)
	post, err := f.db.CreatePost("author", "hello", nil)
	require.NoError(t, err)
	comment, err := f.db.CreateComment("fan", post.ID, "nice!", nil)
	require.NoError(t, err)
	fanAfterComment := f.pointsFor(t, "fan")

	t.Run("LikeAwards", func(t *testing.T) {
		require.NoError(t, f.db.LikeComment("other", comment.ID))
		assert.Equal(t, fanAfterComment+DefaultPointWeights.CommentLike, f.pointsFor(t, "fan"))

		notifications, err := f.notifications.List("fan", 10)
		require.NoError(t, err)
		require.NotEmpty(t, notifications)
		assert.Equal(t, models.NotificationCommentLike, notifications[0].Type)
		require.NotNil(t, notifications[0].LinkURL)
		assert.Contains(t, *notifications[0].LinkURL, "#comment-"+comment.ID)
	})

	t.Run("DuplicateRejected", func(t *testing.T) {
		assert.ErrorIs(t, f.db.LikeComment("other", comment.ID), ErrAlreadyLiked)
	})

	t.Run("UnlikeRevokes", func(t *testing.T) {
		require.NoError(t, f.db.UnlikeComment("other", comment.ID))
		assert.Equal(t, fanAfterComment, f.pointsFor(t, "fan"))
	})
}
