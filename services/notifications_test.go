package services

import (
	"testing"
	"time"

	"community-hub-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countNotifications(t *testing.T, svc *NotificationService, userID string, nType models.NotificationType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, svc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, nType).
		Count(&count).Error)
	return count
}

func TestNotificationBatching(t *testing.T) {
	t.Run("SecondLikeFoldsIntoOpenBatch", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		first, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, 1, first.BatchCount)
		assert.Equal(t, "Alice liked your post", first.Title)

		second, err := svc.NotifyPostLiked("author", "bob", "Bob", "post-1")
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.Equal(t, first.ID, second.ID, "expected a fold, not a second row")
		assert.Equal(t, 2, second.BatchCount)
		assert.Equal(t, "Bob and 1 other liked your post", second.Title)
		require.NotNil(t, second.ActorID)
		assert.Equal(t, "bob", *second.ActorID)

		third, err := svc.NotifyPostLiked("author", "carol", "Carol", "post-1")
		require.NoError(t, err)
		assert.Equal(t, 3, third.BatchCount)
		assert.Equal(t, "Carol and 2 others liked your post", third.Title)

		assert.Equal(t, int64(1), countNotifications(t, svc, "author", models.NotificationPostLike))
	})

	t.Run("ReverseActorOrderFoldsTheSame", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		_, err := svc.NotifyPostLiked("author", "bob", "Bob", "post-1")
		require.NoError(t, err)
		n, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)

		assert.Equal(t, 2, n.BatchCount)
		assert.Equal(t, int64(1), countNotifications(t, svc, "author", models.NotificationPostLike))
	})

	t.Run("ElapsedWindowStartsFreshRow", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		base := time.Now()
		svc.now = func() time.Time { return base }

		first, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)

		// 16 minutes later, past the 15-minute window
		svc.now = func() time.Time { return base.Add(16 * time.Minute) }

		second, err := svc.NotifyPostLiked("author", "bob", "Bob", "post-1")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 1, second.BatchCount)
		assert.Equal(t, int64(2), countNotifications(t, svc, "author", models.NotificationPostLike))
	})

	t.Run("ReadBatchIsClosed", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		first, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)
		require.NoError(t, svc.MarkRead("author", first.ID))

		second, err := svc.NotifyPostLiked("author", "bob", "Bob", "post-1")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 1, second.BatchCount)
	})

	t.Run("DifferentPostsDoNotFold", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		_, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)
		_, err = svc.NotifyPostLiked("author", "bob", "Bob", "post-2")
		require.NoError(t, err)

		assert.Equal(t, int64(2), countNotifications(t, svc, "author", models.NotificationPostLike))
	})

	t.Run("FoldResurfacesRow", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		base := time.Now()
		svc.now = func() time.Time { return base }
		_, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)

		svc.now = func() time.Time { return base.Add(10 * time.Minute) }
		folded, err := svc.NotifyPostLiked("author", "bob", "Bob", "post-1")
		require.NoError(t, err)

		// createdAt bumped to fold time so the row tops a recency-ordered feed
		assert.WithinDuration(t, base.Add(10*time.Minute), folded.CreatedAt, time.Second)
	})

	t.Run("MalformedStoredCountRecoversAsOne", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewNotificationService(db)

		first, err := svc.NotifyPostLiked("author", "alice", "Alice", "post-1")
		require.NoError(t, err)
		require.NoError(t, db.Model(&models.Notification{}).
			Where("id = ?", first.ID).
			Update("batch_count", 0).Error)

		second, err := svc.NotifyPostLiked("author", "bob", "Bob", "post-1")
		require.NoError(t, err)
		assert.Equal(t, 2, second.BatchCount)
	})
}

func TestSelfNotificationSuppression(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	n, err := svc.NotifyPostLiked("alice", "alice", "Alice", "post-1")
	require.NoError(t, err)
	assert.Nil(t, n)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNonBatchableTypesAlwaysInsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	first, err := svc.NotifyLevelUp("alice", 2)
	require.NoError(t, err)
	assert.Equal(t, "You reached level 2! 🎉", first.Title)

	second, err := svc.NotifyLevelUp("alice", 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, int64(2), countNotifications(t, svc, "alice", models.NotificationLevelUp))
}

func TestFanOut(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	seedMember(t, db, "alice", "alice")
	seedMember(t, db, "bob", "bob")
	seedMember(t, db, "carol", "carol")
	// Deleted member must be skipped
	require.NoError(t, db.Where("external_user_id = ?", "carol").Delete(&models.Member{}).Error)

	require.NoError(t, svc.NotifyNewCourse("Intro to Baking", "intro-to-baking"))

	var notifications []models.Notification
	require.NoError(t, db.Where("type = ?", models.NotificationNewCourse).Find(&notifications).Error)
	require.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.Equal(t, "New course available: Intro to Baking", n.Title)
		require.NotNil(t, n.LinkURL)
		assert.Equal(t, "/courses/intro-to-baking", *n.LinkURL)
	}
}

func TestReadStateOperations(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	n1, err := svc.NotifyPostLiked("alice", "bob", "Bob", "post-1")
	require.NoError(t, err)
	_, err = svc.NotifyPostCommented("alice", "bob", "Bob", "post-2")
	require.NoError(t, err)

	t.Run("CrossUserMarkReadIsNoOp", func(t *testing.T) {
		require.NoError(t, svc.MarkRead("mallory", n1.ID))

		var fresh models.Notification
		require.NoError(t, db.First(&fresh, "id = ?", n1.ID).Error)
		assert.False(t, fresh.IsRead)
	})

	t.Run("OwnerMarkRead", func(t *testing.T) {
		require.NoError(t, svc.MarkRead("alice", n1.ID))

		var fresh models.Notification
		require.NoError(t, db.First(&fresh, "id = ?", n1.ID).Error)
		assert.True(t, fresh.IsRead)
	})

	t.Run("UnreadCountAndMarkAll", func(t *testing.T) {
		count, err := svc.UnreadCount("alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		marked, err := svc.MarkAllRead("alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), marked)

		count, err = svc.UnreadCount("alice")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
